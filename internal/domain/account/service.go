package account

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/kidsgourmet/api/internal/platform/auth"
	"github.com/kidsgourmet/api/pkg/apperr"
)

const minPasswordLen = 8

type Service struct {
	repo   Repository
	tokens *auth.TokenManager
}

func NewService(repo Repository, tokens *auth.TokenManager) *Service {
	return &Service{repo: repo, tokens: tokens}
}

type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Validation("invalid_email", "a valid email address is required")
	}
	if len(in.Password) < minPasswordLen {
		return nil, apperr.Validation("weak_password", "password must be at least 8 characters")
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("email_taken", "an account with this email already exists")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Internal(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	u := &User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(in.DisplayName),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, apperr.Internal(err)
	}
	log.Info().Str("user_id", u.ID.String()).Msg("account registered")
	return s.issue(u)
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Validation("invalid_credentials", "email or password is incorrect")
		}
		return nil, apperr.Internal(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return nil, apperr.Validation("invalid_credentials", "email or password is incorrect")
	}
	return s.issue(u)
}

func (s *Service) issue(u *User) (*AuthResult, error) {
	token, exp, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &AuthResult{Token: token, ExpiresAt: exp, User: u}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("user_not_found", "account not found")
		}
		return nil, apperr.Internal(err)
	}
	return u, nil
}

type UpdateInput struct {
	DisplayName *string `json:"display_name"`
	Password    *string `json:"password"`
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.DisplayName != nil {
		u.DisplayName = strings.TrimSpace(*in.DisplayName)
	}
	if in.Password != nil {
		if len(*in.Password) < minPasswordLen {
			return nil, apperr.Validation("weak_password", "password must be at least 8 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		u.PasswordHash = string(hash)
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, apperr.Internal(err)
	}
	return u, nil
}

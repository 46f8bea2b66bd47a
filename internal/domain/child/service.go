package child

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/kidsgourmet/api/pkg/apperr"
)

var validGenders = map[string]bool{"male": true, "female": true, "other": true}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateInput struct {
	Name      string  `json:"name"`
	BirthDate string  `json:"birth_date"`
	Gender    *string `json:"gender"`
}

func (s *Service) validate(in CreateInput) (time.Time, error) {
	if strings.TrimSpace(in.Name) == "" {
		return time.Time{}, apperr.Validation("name_required", "child name is required")
	}
	birth, err := time.Parse("2006-01-02", in.BirthDate)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid_birth_date", "birth_date must be formatted YYYY-MM-DD")
	}
	if birth.After(time.Now()) {
		return time.Time{}, apperr.Validation("invalid_birth_date", "birth_date cannot be in the future")
	}
	if in.Gender != nil && !validGenders[*in.Gender] {
		return time.Time{}, apperr.Validation("invalid_gender", "gender must be one of male, female, other")
	}
	return birth, nil
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*Profile, error) {
	birth, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	p := &Profile{
		UserID:    userID,
		Name:      strings.TrimSpace(in.Name),
		BirthDate: birth,
		Gender:    in.Gender,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperr.Internal(err)
	}
	log.Info().Str("child_id", p.ID.String()).Str("user_id", userID.String()).Msg("child profile created")
	return p, nil
}

// Get returns the profile only when it belongs to the requesting user.
func (s *Service) Get(ctx context.Context, userID, childID uuid.UUID) (*Profile, error) {
	p, err := s.repo.GetByID(ctx, childID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("child_not_found", "child profile not found")
		}
		return nil, apperr.Internal(err)
	}
	if p.UserID != userID {
		return nil, apperr.NotFound("child_not_found", "child profile not found")
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Profile, int, error) {
	items, total, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return items, total, nil
}

func (s *Service) Update(ctx context.Context, userID, childID uuid.UUID, in CreateInput) (*Profile, error) {
	p, err := s.Get(ctx, userID, childID)
	if err != nil {
		return nil, err
	}
	birth, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	p.Name = strings.TrimSpace(in.Name)
	p.BirthDate = birth
	p.Gender = in.Gender
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, apperr.Internal(err)
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, userID, childID uuid.UUID) error {
	if _, err := s.Get(ctx, userID, childID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, childID); err != nil {
		return apperr.Internal(err)
	}
	log.Info().Str("child_id", childID.String()).Msg("child profile deleted")
	return nil
}

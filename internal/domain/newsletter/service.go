package newsletter

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/kidsgourmet/api/internal/platform/notification"
	"github.com/kidsgourmet/api/pkg/apperr"
)

type Service struct {
	repo    Repository
	outbox  *notification.Outbox
	baseURL string
}

func NewService(repo Repository, outbox *notification.Outbox, baseURL string) *Service {
	return &Service{repo: repo, outbox: outbox, baseURL: strings.TrimRight(baseURL, "/")}
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Subscribe creates a pending subscription and sends the confirmation
// email. A pending address gets its email re-sent, a confirmed address
// is a conflict, and an unsubscribed one re-enters pending with a new
// token.
func (s *Service) Subscribe(ctx context.Context, email string) (*Subscriber, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Validation("invalid_email", "a valid email address is required")
	}

	sub, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		switch sub.Status {
		case StatusConfirmed:
			return nil, apperr.Conflict("already_subscribed", "this address is already subscribed")
		case StatusPending:
			// resend with the existing token
		case StatusUnsubscribed:
			token, err := newToken()
			if err != nil {
				return nil, apperr.Internal(err)
			}
			sub.Status = StatusPending
			sub.ConfirmToken = token
			sub.ConfirmedAt = nil
			sub.UnsubscribedAt = nil
			if err := s.repo.Update(ctx, sub); err != nil {
				return nil, apperr.Internal(err)
			}
		}
	case errors.Is(err, pgx.ErrNoRows):
		token, err := newToken()
		if err != nil {
			return nil, apperr.Internal(err)
		}
		sub = &Subscriber{
			Email:        email,
			Status:       StatusPending,
			ConfirmToken: token,
			SubscribedAt: time.Now(),
		}
		if err := s.repo.Create(ctx, sub); err != nil {
			return nil, apperr.Internal(err)
		}
	default:
		return nil, apperr.Internal(err)
	}

	if _, err := s.outbox.SendFromTemplate(ctx, "newsletter-confirm", map[string]string{
		"email":        sub.Email,
		"confirm_link": s.baseURL + "/kg/v1/newsletter/confirm?token=" + sub.ConfirmToken,
	}, sub.Email); err != nil {
		log.Warn().Err(err).Str("email", sub.Email).Msg("confirmation email failed")
	}
	return sub, nil
}

// Confirm flips a pending subscription to confirmed by its token and
// sends the welcome email.
func (s *Service) Confirm(ctx context.Context, token string) (*Subscriber, error) {
	if token == "" {
		return nil, apperr.Validation("missing_token", "confirmation token is required")
	}
	sub, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("invalid_token", "confirmation token not recognized")
		}
		return nil, apperr.Internal(err)
	}
	if sub.Status == StatusConfirmed {
		return sub, nil
	}
	if sub.Status == StatusUnsubscribed {
		return nil, apperr.Conflict("unsubscribed", "this address has unsubscribed")
	}
	now := time.Now()
	sub.Status = StatusConfirmed
	sub.ConfirmedAt = &now
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, apperr.Internal(err)
	}

	if _, err := s.outbox.SendFromTemplate(ctx, "newsletter-welcome", map[string]string{
		"email":            sub.Email,
		"unsubscribe_link": s.baseURL + "/kg/v1/newsletter/unsubscribe",
	}, sub.Email); err != nil {
		log.Warn().Err(err).Str("email", sub.Email).Msg("welcome email failed")
	}
	log.Info().Str("email", sub.Email).Msg("newsletter subscription confirmed")
	return sub, nil
}

// Unsubscribe marks the address unsubscribed regardless of its current
// confirmed/pending state.
func (s *Service) Unsubscribe(ctx context.Context, email string) (*Subscriber, error) {
	sub, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("not_subscribed", "this address is not subscribed")
		}
		return nil, apperr.Internal(err)
	}
	if sub.Status == StatusUnsubscribed {
		return sub, nil
	}
	now := time.Now()
	sub.Status = StatusUnsubscribed
	sub.UnsubscribedAt = &now
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, apperr.Internal(err)
	}
	log.Info().Str("email", sub.Email).Msg("newsletter unsubscribed")
	return sub, nil
}

// Stats returns subscriber counts by status.
func (s *Service) Stats(ctx context.Context) (map[string]int, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return counts, nil
}

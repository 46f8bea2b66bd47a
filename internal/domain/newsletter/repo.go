package newsletter

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, s *Subscriber) error
	GetByEmail(ctx context.Context, email string) (*Subscriber, error)
	GetByToken(ctx context.Context, token string) (*Subscriber, error)
	Update(ctx context.Context, s *Subscriber) error
	CountByStatus(ctx context.Context) (map[string]int, error)
}

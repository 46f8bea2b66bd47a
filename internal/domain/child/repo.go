package child

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence contract for child profiles.
type Repository interface {
	Create(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Profile, int, error)
	Update(ctx context.Context, p *Profile) error
	Delete(ctx context.Context, id uuid.UUID) error
}

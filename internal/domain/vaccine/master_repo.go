package vaccine

import (
	"context"
)

// MasterRepository is the versioned vaccine catalog store.
type MasterRepository interface {
	Upsert(ctx context.Context, def *Definition) error
	ListByVersion(ctx context.Context, version string, activeOnly bool) ([]*Definition, error)
	GetByCode(ctx context.Context, code, version string) (*Definition, error)
}

package content

import (
	"context"

	"github.com/google/uuid"
)

type RecipeRepository interface {
	Create(ctx context.Context, r *Recipe) error
	GetByID(ctx context.Context, id uuid.UUID) (*Recipe, error)
	List(ctx context.Context, maxAgeMonths *int, tag string, limit, offset int) ([]*Recipe, int, error)
	Update(ctx context.Context, r *Recipe) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type IngredientRepository interface {
	Create(ctx context.Context, i *Ingredient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Ingredient, error)
	List(ctx context.Context, limit, offset int) ([]*Ingredient, int, error)
	Update(ctx context.Context, i *Ingredient) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type DiscussionRepository interface {
	Create(ctx context.Context, d *Discussion) error
	GetByID(ctx context.Context, id uuid.UUID) (*Discussion, error)
	ListThreads(ctx context.Context, limit, offset int) ([]*Discussion, int, error)
	ListReplies(ctx context.Context, parentID uuid.UUID) ([]*Discussion, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

package content

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kidsgourmet/api/pkg/apperr"
)

type Service struct {
	recipes     RecipeRepository
	ingredients IngredientRepository
	discussions DiscussionRepository
}

func NewService(recipes RecipeRepository, ingredients IngredientRepository, discussions DiscussionRepository) *Service {
	return &Service{recipes: recipes, ingredients: ingredients, discussions: discussions}
}

// -- Recipes --

func (s *Service) CreateRecipe(ctx context.Context, authorID uuid.UUID, r *Recipe) (*Recipe, error) {
	if strings.TrimSpace(r.Title) == "" {
		return nil, apperr.Validation("title_required", "recipe title is required")
	}
	if r.AgeRangeMinMonths < 0 {
		return nil, apperr.Validation("invalid_age_range", "age_range_min_months cannot be negative")
	}
	if r.AgeRangeMaxMonths != nil && *r.AgeRangeMaxMonths < r.AgeRangeMinMonths {
		return nil, apperr.Validation("invalid_age_range", "age_range_max_months is below the minimum")
	}
	r.AuthorID = authorID
	if err := s.recipes.Create(ctx, r); err != nil {
		return nil, apperr.Internal(err)
	}
	return r, nil
}

func (s *Service) GetRecipe(ctx context.Context, id uuid.UUID) (*Recipe, error) {
	r, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("recipe_not_found", "recipe not found")
		}
		return nil, apperr.Internal(err)
	}
	return r, nil
}

func (s *Service) ListRecipes(ctx context.Context, maxAgeMonths *int, tag string, limit, offset int) ([]*Recipe, int, error) {
	items, total, err := s.recipes.List(ctx, maxAgeMonths, tag, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return items, total, nil
}

func (s *Service) UpdateRecipe(ctx context.Context, authorID, id uuid.UUID, in *Recipe) (*Recipe, error) {
	existing, err := s.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.AuthorID != authorID {
		return nil, apperr.NotFound("recipe_not_found", "recipe not found")
	}
	in.ID = id
	in.AuthorID = authorID
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.Validation("title_required", "recipe title is required")
	}
	if err := s.recipes.Update(ctx, in); err != nil {
		return nil, apperr.Internal(err)
	}
	return in, nil
}

func (s *Service) DeleteRecipe(ctx context.Context, authorID, id uuid.UUID) error {
	existing, err := s.GetRecipe(ctx, id)
	if err != nil {
		return err
	}
	if existing.AuthorID != authorID {
		return apperr.NotFound("recipe_not_found", "recipe not found")
	}
	if err := s.recipes.Delete(ctx, id); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// -- Ingredients --

func (s *Service) CreateIngredient(ctx context.Context, i *Ingredient) (*Ingredient, error) {
	if strings.TrimSpace(i.Name) == "" {
		return nil, apperr.Validation("name_required", "ingredient name is required")
	}
	if err := s.ingredients.Create(ctx, i); err != nil {
		return nil, apperr.Internal(err)
	}
	return i, nil
}

func (s *Service) GetIngredient(ctx context.Context, id uuid.UUID) (*Ingredient, error) {
	i, err := s.ingredients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("ingredient_not_found", "ingredient not found")
		}
		return nil, apperr.Internal(err)
	}
	return i, nil
}

func (s *Service) ListIngredients(ctx context.Context, limit, offset int) ([]*Ingredient, int, error) {
	items, total, err := s.ingredients.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return items, total, nil
}

func (s *Service) UpdateIngredient(ctx context.Context, id uuid.UUID, in *Ingredient) (*Ingredient, error) {
	if _, err := s.GetIngredient(ctx, id); err != nil {
		return nil, err
	}
	in.ID = id
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Validation("name_required", "ingredient name is required")
	}
	if err := s.ingredients.Update(ctx, in); err != nil {
		return nil, apperr.Internal(err)
	}
	return in, nil
}

func (s *Service) DeleteIngredient(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetIngredient(ctx, id); err != nil {
		return err
	}
	if err := s.ingredients.Delete(ctx, id); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// -- Discussions --

func (s *Service) CreateDiscussion(ctx context.Context, userID uuid.UUID, d *Discussion) (*Discussion, error) {
	if strings.TrimSpace(d.Body) == "" {
		return nil, apperr.Validation("body_required", "discussion body is required")
	}
	if d.ParentID == nil && strings.TrimSpace(d.Title) == "" {
		return nil, apperr.Validation("title_required", "thread title is required")
	}
	if d.ParentID != nil {
		parent, err := s.discussions.GetByID(ctx, *d.ParentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperr.NotFound("thread_not_found", "parent thread not found")
			}
			return nil, apperr.Internal(err)
		}
		if parent.ParentID != nil {
			return nil, apperr.Validation("nested_reply", "replies to replies are not supported")
		}
	}
	d.UserID = userID
	if err := s.discussions.Create(ctx, d); err != nil {
		return nil, apperr.Internal(err)
	}
	return d, nil
}

// GetThread returns a thread with its replies attached.
func (s *Service) GetThread(ctx context.Context, id uuid.UUID) (*Discussion, error) {
	d, err := s.discussions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("thread_not_found", "thread not found")
		}
		return nil, apperr.Internal(err)
	}
	replies, err := s.discussions.ListReplies(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	d.Replies = replies
	return d, nil
}

func (s *Service) ListThreads(ctx context.Context, limit, offset int) ([]*Discussion, int, error) {
	threads, total, err := s.discussions.ListThreads(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return threads, total, nil
}

func (s *Service) DeleteDiscussion(ctx context.Context, userID, id uuid.UUID) error {
	d, err := s.discussions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("thread_not_found", "thread not found")
		}
		return apperr.Internal(err)
	}
	if d.UserID != userID {
		return apperr.NotFound("thread_not_found", "thread not found")
	}
	if err := s.discussions.Delete(ctx, id); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

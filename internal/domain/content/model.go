package content

import (
	"time"

	"github.com/google/uuid"
)

// Recipe is an age-banded meal recipe with linked ingredients and tags.
type Recipe struct {
	ID                uuid.UUID          `db:"id" json:"id"`
	AuthorID          uuid.UUID          `db:"author_id" json:"author_id"`
	Title             string             `db:"title" json:"title"`
	Description       string             `db:"description" json:"description"`
	Instructions      string             `db:"instructions" json:"instructions"`
	AgeRangeMinMonths int                `db:"age_range_min_months" json:"age_range_min_months"`
	AgeRangeMaxMonths *int               `db:"age_range_max_months" json:"age_range_max_months,omitempty"`
	Ingredients       []RecipeIngredient `json:"ingredients,omitempty"`
	Tags              []string           `json:"tags,omitempty"`
	CreatedAt         time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `db:"updated_at" json:"updated_at"`
}

// RecipeIngredient links an ingredient to a recipe with a quantity.
type RecipeIngredient struct {
	IngredientID uuid.UUID `db:"ingredient_id" json:"ingredient_id"`
	Name         string    `db:"name" json:"name"`
	Amount       string    `db:"amount" json:"amount"`
}

// Ingredient is a food item with allergy and seasonality metadata.
type Ingredient struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	IsAllergen bool      `db:"is_allergen" json:"is_allergen"`
	Season     string    `db:"season" json:"season"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Discussion is a forum post; replies reference their parent.
type Discussion struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	UserID    uuid.UUID     `db:"user_id" json:"user_id"`
	ParentID  *uuid.UUID    `db:"parent_id" json:"parent_id,omitempty"`
	Title     string        `db:"title" json:"title"`
	Body      string        `db:"body" json:"body"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	Replies   []*Discussion `json:"replies,omitempty"`
}

package content

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kidsgourmet/api/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

// -- Recipes --

type recipeRepoPG struct{ pool *pgxpool.Pool }

func NewRecipeRepoPG(pool *pgxpool.Pool) RecipeRepository {
	return &recipeRepoPG{pool: pool}
}

const recipeCols = `id, author_id, title, description, instructions,
	age_range_min_months, age_range_max_months, created_at, updated_at`

func scanRecipe(row pgx.Row) (*Recipe, error) {
	var r Recipe
	err := row.Scan(&r.ID, &r.AuthorID, &r.Title, &r.Description, &r.Instructions,
		&r.AgeRangeMinMonths, &r.AgeRangeMaxMonths, &r.CreatedAt, &r.UpdatedAt)
	return &r, err
}

func (p *recipeRepoPG) Create(ctx context.Context, r *Recipe) error {
	r.ID = uuid.New()
	q := conn(ctx, p.pool)
	_, err := q.Exec(ctx, `
		INSERT INTO kg_recipes (id, author_id, title, description, instructions, age_range_min_months, age_range_max_months)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		r.ID, r.AuthorID, r.Title, r.Description, r.Instructions, r.AgeRangeMinMonths, r.AgeRangeMaxMonths)
	if err != nil {
		return err
	}
	if err := p.replaceLinks(ctx, q, r); err != nil {
		return err
	}
	return nil
}

func (p *recipeRepoPG) replaceLinks(ctx context.Context, q queryable, r *Recipe) error {
	if _, err := q.Exec(ctx, `DELETE FROM kg_recipe_ingredients WHERE recipe_id = $1`, r.ID); err != nil {
		return err
	}
	for _, ing := range r.Ingredients {
		if _, err := q.Exec(ctx, `
			INSERT INTO kg_recipe_ingredients (recipe_id, ingredient_id, amount)
			VALUES ($1,$2,$3)`, r.ID, ing.IngredientID, ing.Amount); err != nil {
			return err
		}
	}
	if _, err := q.Exec(ctx, `DELETE FROM kg_recipe_tags WHERE recipe_id = $1`, r.ID); err != nil {
		return err
	}
	for _, tag := range r.Tags {
		if _, err := q.Exec(ctx, `
			INSERT INTO kg_tags (id, name) VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING`, uuid.New(), tag); err != nil {
			return err
		}
		if _, err := q.Exec(ctx, `
			INSERT INTO kg_recipe_tags (recipe_id, tag_id)
			SELECT $1, id FROM kg_tags WHERE name = $2
			ON CONFLICT DO NOTHING`, r.ID, tag); err != nil {
			return err
		}
	}
	return nil
}

func (p *recipeRepoPG) hydrate(ctx context.Context, q queryable, r *Recipe) error {
	rows, err := q.Query(ctx, `
		SELECT ri.ingredient_id, i.name, ri.amount
		FROM kg_recipe_ingredients ri
		JOIN kg_ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id = $1`, r.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var ing RecipeIngredient
		if err := rows.Scan(&ing.IngredientID, &ing.Name, &ing.Amount); err != nil {
			return err
		}
		r.Ingredients = append(r.Ingredients, ing)
	}

	tagRows, err := q.Query(ctx, `
		SELECT t.name FROM kg_tags t
		JOIN kg_recipe_tags rt ON rt.tag_id = t.id
		WHERE rt.recipe_id = $1 ORDER BY t.name`, r.ID)
	if err != nil {
		return err
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var name string
		if err := tagRows.Scan(&name); err != nil {
			return err
		}
		r.Tags = append(r.Tags, name)
	}
	return nil
}

func (p *recipeRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Recipe, error) {
	q := conn(ctx, p.pool)
	r, err := scanRecipe(q.QueryRow(ctx, `SELECT `+recipeCols+` FROM kg_recipes WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := p.hydrate(ctx, q, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (p *recipeRepoPG) List(ctx context.Context, maxAgeMonths *int, tag string, limit, offset int) ([]*Recipe, int, error) {
	q := conn(ctx, p.pool)
	where := ` WHERE 1=1`
	args := []interface{}{}
	if maxAgeMonths != nil {
		args = append(args, *maxAgeMonths)
		where += ` AND age_range_min_months <= $1`
	}
	if tag != "" {
		args = append(args, tag)
		where += ` AND id IN (SELECT rt.recipe_id FROM kg_recipe_tags rt JOIN kg_tags t ON t.id = rt.tag_id WHERE t.name = $` + strconv.Itoa(len(args)) + `)`
	}

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM kg_recipes`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, limit, offset)
	rows, err := q.Query(ctx,
		`SELECT `+recipeCols+` FROM kg_recipes`+where+
			` ORDER BY created_at DESC LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var recipes []*Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, 0, err
		}
		recipes = append(recipes, r)
	}
	rows.Close()
	for _, r := range recipes {
		if err := p.hydrate(ctx, q, r); err != nil {
			return nil, 0, err
		}
	}
	return recipes, total, nil
}

func (p *recipeRepoPG) Update(ctx context.Context, r *Recipe) error {
	q := conn(ctx, p.pool)
	_, err := q.Exec(ctx, `
		UPDATE kg_recipes
		SET title=$2, description=$3, instructions=$4, age_range_min_months=$5, age_range_max_months=$6, updated_at=NOW()
		WHERE id = $1`,
		r.ID, r.Title, r.Description, r.Instructions, r.AgeRangeMinMonths, r.AgeRangeMaxMonths)
	if err != nil {
		return err
	}
	return p.replaceLinks(ctx, q, r)
}

func (p *recipeRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, p.pool).Exec(ctx, `DELETE FROM kg_recipes WHERE id = $1`, id)
	return err
}

// -- Ingredients --

type ingredientRepoPG struct{ pool *pgxpool.Pool }

func NewIngredientRepoPG(pool *pgxpool.Pool) IngredientRepository {
	return &ingredientRepoPG{pool: pool}
}

const ingredientCols = `id, name, is_allergen, season, created_at`

func scanIngredient(row pgx.Row) (*Ingredient, error) {
	var i Ingredient
	err := row.Scan(&i.ID, &i.Name, &i.IsAllergen, &i.Season, &i.CreatedAt)
	return &i, err
}

func (p *ingredientRepoPG) Create(ctx context.Context, i *Ingredient) error {
	i.ID = uuid.New()
	_, err := conn(ctx, p.pool).Exec(ctx, `
		INSERT INTO kg_ingredients (id, name, is_allergen, season)
		VALUES ($1,$2,$3,$4)`,
		i.ID, i.Name, i.IsAllergen, i.Season)
	return err
}

func (p *ingredientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Ingredient, error) {
	return scanIngredient(conn(ctx, p.pool).QueryRow(ctx,
		`SELECT `+ingredientCols+` FROM kg_ingredients WHERE id = $1`, id))
}

func (p *ingredientRepoPG) List(ctx context.Context, limit, offset int) ([]*Ingredient, int, error) {
	q := conn(ctx, p.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM kg_ingredients`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.Query(ctx,
		`SELECT `+ingredientCols+` FROM kg_ingredients ORDER BY name ASC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Ingredient
	for rows.Next() {
		i, err := scanIngredient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, i)
	}
	return items, total, nil
}

func (p *ingredientRepoPG) Update(ctx context.Context, i *Ingredient) error {
	_, err := conn(ctx, p.pool).Exec(ctx, `
		UPDATE kg_ingredients SET name=$2, is_allergen=$3, season=$4 WHERE id = $1`,
		i.ID, i.Name, i.IsAllergen, i.Season)
	return err
}

func (p *ingredientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, p.pool).Exec(ctx, `DELETE FROM kg_ingredients WHERE id = $1`, id)
	return err
}

// -- Discussions --

type discussionRepoPG struct{ pool *pgxpool.Pool }

func NewDiscussionRepoPG(pool *pgxpool.Pool) DiscussionRepository {
	return &discussionRepoPG{pool: pool}
}

const discussionCols = `id, user_id, parent_id, title, body, created_at`

func scanDiscussion(row pgx.Row) (*Discussion, error) {
	var d Discussion
	err := row.Scan(&d.ID, &d.UserID, &d.ParentID, &d.Title, &d.Body, &d.CreatedAt)
	return &d, err
}

func (p *discussionRepoPG) Create(ctx context.Context, d *Discussion) error {
	d.ID = uuid.New()
	_, err := conn(ctx, p.pool).Exec(ctx, `
		INSERT INTO kg_discussions (id, user_id, parent_id, title, body)
		VALUES ($1,$2,$3,$4,$5)`,
		d.ID, d.UserID, d.ParentID, d.Title, d.Body)
	return err
}

func (p *discussionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Discussion, error) {
	return scanDiscussion(conn(ctx, p.pool).QueryRow(ctx,
		`SELECT `+discussionCols+` FROM kg_discussions WHERE id = $1`, id))
}

func (p *discussionRepoPG) ListThreads(ctx context.Context, limit, offset int) ([]*Discussion, int, error) {
	q := conn(ctx, p.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM kg_discussions WHERE parent_id IS NULL`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.Query(ctx, `
		SELECT `+discussionCols+` FROM kg_discussions
		WHERE parent_id IS NULL ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var threads []*Discussion
	for rows.Next() {
		d, err := scanDiscussion(rows)
		if err != nil {
			return nil, 0, err
		}
		threads = append(threads, d)
	}
	return threads, total, nil
}

func (p *discussionRepoPG) ListReplies(ctx context.Context, parentID uuid.UUID) ([]*Discussion, error) {
	rows, err := conn(ctx, p.pool).Query(ctx, `
		SELECT `+discussionCols+` FROM kg_discussions
		WHERE parent_id = $1 ORDER BY created_at ASC`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var replies []*Discussion
	for rows.Next() {
		d, err := scanDiscussion(rows)
		if err != nil {
			return nil, err
		}
		replies = append(replies, d)
	}
	return replies, nil
}

func (p *discussionRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, p.pool).Exec(ctx, `DELETE FROM kg_discussions WHERE id = $1 OR parent_id = $1`, id)
	return err
}

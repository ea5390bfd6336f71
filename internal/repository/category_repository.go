package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/offerhub/offer-portal/internal/model"
)

// CategoryRepository provides data access for offer categories.
type CategoryRepository struct {
	pool PoolInterface
}

// NewCategoryRepository creates a new CategoryRepository with the given pool.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// NewCategoryRepositoryWithPool creates a CategoryRepository with a custom
// pool interface. Primarily used for testing.
func NewCategoryRepositoryWithPool(pool PoolInterface) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// Upsert stores a category, replacing the name/icon/active flag when the
// id already exists. Used by seeding and admin category management.
func (r *CategoryRepository) Upsert(ctx context.Context, c *model.Category) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO categories (id, name, icon, active) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET name = $2, icon = $3, active = $4`,
		c.ID, c.Name, c.Icon, c.Active)
	if err != nil {
		return fmt.Errorf("upsert category: %w", err)
	}
	return nil
}

// GetByID retrieves a category by id. Returns nil, nil if no category matches.
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*model.Category, error) {
	var c model.Category
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, icon, active FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Icon, &c.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

// ListActive returns the active categories in id order.
func (r *CategoryRepository) ListActive(ctx context.Context) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, icon, active FROM categories WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Active); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}
	return categories, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// FavoriteRepository provides data access for per-user offer bookmarks.
type FavoriteRepository struct {
	pool PoolInterface
}

// NewFavoriteRepository creates a new FavoriteRepository with the given pool.
func NewFavoriteRepository(pool *pgxpool.Pool) *FavoriteRepository {
	return &FavoriteRepository{pool: pool}
}

// NewFavoriteRepositoryWithPool creates a FavoriteRepository with a custom
// pool interface. Primarily used for testing.
func NewFavoriteRepositoryWithPool(pool PoolInterface) *FavoriteRepository {
	return &FavoriteRepository{pool: pool}
}

// Add bookmarks an offer for a user. Adding twice is a no-op.
func (r *FavoriteRepository) Add(ctx context.Context, userID, offerID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO favorites (user_id, offer_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, offerID)
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// Remove drops a bookmark. Removing a missing bookmark is a no-op.
func (r *FavoriteRepository) Remove(ctx context.Context, userID, offerID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND offer_id = $2`,
		userID, offerID)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

// ListByUser returns the offer ids a user has bookmarked, oldest first.
// Returns an empty slice (not nil) when no bookmarks exist.
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT offer_id FROM favorites WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan favorite offer_id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorite rows: %w", err)
	}
	return ids, nil
}

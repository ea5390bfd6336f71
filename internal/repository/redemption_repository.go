package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/offerhub/offer-portal/internal/model"
	"github.com/offerhub/offer-portal/pkg/database"
)

// RedemptionRepository provides data access for the redemption ledger.
// Ledger rows are append-only; the only in-place change ever made is the
// completed -> cancelled status transition.
type RedemptionRepository struct {
	pool PoolInterface
}

// NewRedemptionRepository creates a new RedemptionRepository with the given pool.
func NewRedemptionRepository(pool *pgxpool.Pool) *RedemptionRepository {
	return &RedemptionRepository{pool: pool}
}

// NewRedemptionRepositoryWithPool creates a RedemptionRepository with a
// custom pool interface. Primarily used for testing.
func NewRedemptionRepositoryWithPool(pool PoolInterface) *RedemptionRepository {
	return &RedemptionRepository{pool: pool}
}

const redemptionColumns = `id, offer_id, user_id, vendor_id, token, location, redeemed_at, status`

// Insert appends a ledger entry within a transaction, allocating its id.
// Must be called after the offer row is locked and the quota re-checked.
func (r *RedemptionRepository) Insert(ctx context.Context, tx database.TxQuerier, red *model.Redemption) error {
	if red.ID == "" {
		red.ID = uuid.NewString()
	}
	if red.Status == "" {
		red.Status = model.RedemptionCompleted
	}
	if red.RedeemedAt.IsZero() {
		red.RedeemedAt = time.Now().UTC()
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO redemptions (id, offer_id, user_id, vendor_id, token, location, redeemed_at, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		red.ID, red.OfferID, red.UserID, red.VendorID, red.Token, red.Location, red.RedeemedAt, red.Status)
	if err != nil {
		return fmt.Errorf("insert redemption: %w", err)
	}
	return nil
}

// List returns ledger entries matching the filter, newest first.
func (r *RedemptionRepository) List(ctx context.Context, filter model.RedemptionFilter) ([]model.Redemption, error) {
	query := `SELECT ` + redemptionColumns + ` FROM redemptions WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.OfferID != "" {
		query += ` AND offer_id = ` + arg(filter.OfferID)
	}
	if filter.VendorID != "" {
		query += ` AND vendor_id = ` + arg(filter.VendorID)
	}
	if filter.UserID != "" {
		query += ` AND user_id = ` + arg(filter.UserID)
	}
	query += ` ORDER BY redeemed_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list redemptions: %w", err)
	}
	defer rows.Close()

	redemptions := []model.Redemption{}
	for rows.Next() {
		var red model.Redemption
		if err := rows.Scan(
			&red.ID,
			&red.OfferID,
			&red.UserID,
			&red.VendorID,
			&red.Token,
			&red.Location,
			&red.RedeemedAt,
			&red.Status,
		); err != nil {
			return nil, fmt.Errorf("scan redemption: %w", err)
		}
		redemptions = append(redemptions, red)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate redemption rows: %w", err)
	}
	return redemptions, nil
}

// CountSince returns the number of ledger entries at or after the given
// instant. Used for dashboard metrics.
func (r *RedemptionRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM redemptions WHERE redeemed_at >= $1`, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count redemptions: %w", err)
	}
	return n, nil
}

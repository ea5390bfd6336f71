package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/offerhub/offer-portal/internal/model"
	"github.com/offerhub/offer-portal/internal/service"
	"github.com/offerhub/offer-portal/pkg/database"
)

// OfferRepository provides data access for offers, including the row-lock
// and counter-increment operations used inside the redemption transaction.
type OfferRepository struct {
	pool PoolInterface
}

// NewOfferRepository creates a new OfferRepository with the given pool.
func NewOfferRepository(pool *pgxpool.Pool) *OfferRepository {
	return &OfferRepository{pool: pool}
}

// NewOfferRepositoryWithPool creates an OfferRepository with a custom pool
// interface. Primarily used for testing.
func NewOfferRepositoryWithPool(pool PoolInterface) *OfferRepository {
	return &OfferRepository{pool: pool}
}

const offerColumns = `id, vendor_id, title, description, category_id, discount_type, discount_value,
	locations, start_date, end_date, terms, quota, redemption_count, view_count, status, created_at, updated_at`

// Insert stores a new offer in pending status, allocating its id.
func (r *OfferRepository) Insert(ctx context.Context, o *model.Offer) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = model.OfferPending
	}
	locations, err := json.Marshal(o.Locations)
	if err != nil {
		return fmt.Errorf("marshal locations: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO offers (id, vendor_id, title, description, category_id, discount_type, discount_value,
		                     locations, start_date, end_date, terms, quota, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		o.ID, o.VendorID, o.Title, o.Description, o.CategoryID, o.DiscountType, o.DiscountValue,
		locations, o.StartDate, o.EndDate, o.Terms, o.Quota, o.Status)
	if err != nil {
		return fmt.Errorf("insert offer: %w", err)
	}
	return nil
}

// GetByID retrieves an offer by id. Returns nil, nil if no offer matches.
func (r *OfferRepository) GetByID(ctx context.Context, id string) (*model.Offer, error) {
	o, err := scanOffer(r.pool.QueryRow(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found - let service handle
		}
		return nil, err
	}
	return o, nil
}

// GetForUpdate retrieves an offer with a row lock (SELECT FOR UPDATE),
// serializing concurrent redemption attempts on the same offer until the
// transaction completes.
// Returns service.ErrOfferNotFound if the offer doesn't exist.
func (r *OfferRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id string) (*model.Offer, error) {
	o, err := scanOffer(tx.QueryRow(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrOfferNotFound
		}
		return nil, err
	}
	return o, nil
}

// IncrementRedemptions bumps the redemption counter by exactly 1.
// Must be called within a transaction after locking the row.
func (r *OfferRepository) IncrementRedemptions(ctx context.Context, tx database.TxQuerier, id string) error {
	_, err := tx.Exec(ctx,
		`UPDATE offers SET redemption_count = redemption_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment redemptions for %s: %w", id, err)
	}
	return nil
}

// IncrementViews bumps the view counter. Best-effort; callers may ignore
// the error.
func (r *OfferRepository) IncrementViews(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE offers SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views for %s: %w", id, err)
	}
	return nil
}

// List returns offers matching the filter, newest first.
func (r *OfferRepository) List(ctx context.Context, filter model.OfferFilter) ([]model.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.VendorID != "" {
		query += ` AND vendor_id = ` + arg(filter.VendorID)
	}
	if filter.CategoryID != "" {
		query += ` AND category_id = ` + arg(filter.CategoryID)
	}
	if filter.Status != "" {
		query += ` AND status = ` + arg(filter.Status)
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		query += ` AND (title ILIKE ` + p + ` OR description ILIKE ` + p + `)`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	offers := []model.Offer{}
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offer rows: %w", err)
	}
	return offers, nil
}

// Update rewrites the mutable fields of an offer and stamps updated_at.
// Returns service.ErrOfferNotFound when no offer has the given id.
func (r *OfferRepository) Update(ctx context.Context, o *model.Offer) error {
	locations, err := json.Marshal(o.Locations)
	if err != nil {
		return fmt.Errorf("marshal locations: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE offers SET title = $2, description = $3, category_id = $4, discount_type = $5,
		        discount_value = $6, locations = $7, start_date = $8, end_date = $9, terms = $10,
		        quota = $11, status = $12, updated_at = $13
		 WHERE id = $1`,
		o.ID, o.Title, o.Description, o.CategoryID, o.DiscountType,
		o.DiscountValue, locations, o.StartDate, o.EndDate, o.Terms,
		o.Quota, o.Status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update offer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrOfferNotFound
	}
	return nil
}

// UpdateStatus transitions an offer's publication state.
// Returns service.ErrOfferNotFound when no offer has the given id.
func (r *OfferRepository) UpdateStatus(ctx context.Context, id string, status model.OfferStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE offers SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update offer status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrOfferNotFound
	}
	return nil
}

func scanOffer(row rowScanner) (*model.Offer, error) {
	var o model.Offer
	var locations []byte
	err := row.Scan(
		&o.ID,
		&o.VendorID,
		&o.Title,
		&o.Description,
		&o.CategoryID,
		&o.DiscountType,
		&o.DiscountValue,
		&locations,
		&o.StartDate,
		&o.EndDate,
		&o.Terms,
		&o.Quota,
		&o.RedemptionCount,
		&o.ViewCount,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan offer: %w", err)
	}
	if len(locations) > 0 {
		if err := json.Unmarshal(locations, &o.Locations); err != nil {
			return nil, fmt.Errorf("unmarshal locations: %w", err)
		}
	}
	return &o, nil
}

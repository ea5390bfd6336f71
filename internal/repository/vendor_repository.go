package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/offerhub/offer-portal/internal/model"
	"github.com/offerhub/offer-portal/internal/service"
)

// VendorRepository provides data access for vendor accounts.
type VendorRepository struct {
	pool PoolInterface
}

// NewVendorRepository creates a new VendorRepository with the given pool.
func NewVendorRepository(pool *pgxpool.Pool) *VendorRepository {
	return &VendorRepository{pool: pool}
}

// NewVendorRepositoryWithPool creates a VendorRepository with a custom pool
// interface. Primarily used for testing.
func NewVendorRepositoryWithPool(pool PoolInterface) *VendorRepository {
	return &VendorRepository{pool: pool}
}

const vendorColumns = `id, company_name, email, phone, contact_person, description, website,
	password_hash, status, created_at, updated_at, approved_at, approved_by`

// Insert stores a new vendor in pending status, allocating its id.
// Returns service.ErrVendorExists when the email is taken.
func (r *VendorRepository) Insert(ctx context.Context, v *model.Vendor) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.Status == "" {
		v.Status = model.VendorPending
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO vendors (id, company_name, email, phone, contact_person, description, website, password_hash, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		v.ID, v.CompanyName, v.Email, v.Phone, v.ContactPerson, v.Description, v.Website, v.PasswordHash, v.Status)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return service.ErrVendorExists
		}
		return fmt.Errorf("insert vendor: %w", err)
	}
	return nil
}

// GetByEmail retrieves a vendor by case-insensitive email match.
// Returns nil, nil if no vendor matches.
func (r *VendorRepository) GetByEmail(ctx context.Context, email string) (*model.Vendor, error) {
	return r.getOne(ctx,
		`SELECT `+vendorColumns+` FROM vendors WHERE LOWER(email) = LOWER($1)`, email)
}

// GetByID retrieves a vendor by id. Returns nil, nil if no vendor matches.
func (r *VendorRepository) GetByID(ctx context.Context, id string) (*model.Vendor, error) {
	return r.getOne(ctx,
		`SELECT `+vendorColumns+` FROM vendors WHERE id = $1`, id)
}

// List returns vendors, optionally filtered by status, newest first.
func (r *VendorRepository) List(ctx context.Context, status model.VendorStatus) ([]model.Vendor, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendors`
	var args []any
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	defer rows.Close()

	vendors := []model.Vendor{}
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		vendors = append(vendors, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vendor rows: %w", err)
	}
	return vendors, nil
}

// UpdateStatus transitions a vendor's approval state. When the new status
// is approved, the approval audit columns are stamped.
// Returns service.ErrVendorNotFound when no vendor has the given id.
func (r *VendorRepository) UpdateStatus(ctx context.Context, id string, status model.VendorStatus, approvedBy string) error {
	var tag pgconn.CommandTag
	var err error
	if status == model.VendorApproved {
		tag, err = r.pool.Exec(ctx,
			`UPDATE vendors SET status = $2, approved_at = $3, approved_by = $4, updated_at = $3 WHERE id = $1`,
			id, status, time.Now().UTC(), approvedBy)
	} else {
		tag, err = r.pool.Exec(ctx,
			`UPDATE vendors SET status = $2, updated_at = $3 WHERE id = $1`,
			id, status, time.Now().UTC())
	}
	if err != nil {
		return fmt.Errorf("update vendor status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrVendorNotFound
	}
	return nil
}

func (r *VendorRepository) getOne(ctx context.Context, query string, args ...any) (*model.Vendor, error) {
	v, err := scanVendor(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found - let service handle
		}
		return nil, err
	}
	return v, nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanVendor(row rowScanner) (*model.Vendor, error) {
	var v model.Vendor
	err := row.Scan(
		&v.ID,
		&v.CompanyName,
		&v.Email,
		&v.Phone,
		&v.ContactPerson,
		&v.Description,
		&v.Website,
		&v.PasswordHash,
		&v.Status,
		&v.CreatedAt,
		&v.UpdatedAt,
		&v.ApprovedAt,
		&v.ApprovedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan vendor: %w", err)
	}
	return &v, nil
}

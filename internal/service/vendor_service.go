package service

import (
	"context"
	"fmt"
	"time"

	"github.com/offerhub/offer-portal/internal/model"
)

// VendorRepositoryInterface defines the vendor data access used by the
// vendor lifecycle service.
type VendorRepositoryInterface interface {
	Insert(ctx context.Context, v *model.Vendor) error
	GetByEmail(ctx context.Context, email string) (*model.Vendor, error)
	GetByID(ctx context.Context, id string) (*model.Vendor, error)
	List(ctx context.Context, status model.VendorStatus) ([]model.Vendor, error)
	UpdateStatus(ctx context.Context, id string, status model.VendorStatus, approvedBy string) error
}

// OfferListerInterface is the slice of offer access the vendor dashboard
// needs.
type OfferListerInterface interface {
	List(ctx context.Context, filter model.OfferFilter) ([]model.Offer, error)
}

// RedemptionCounterInterface is the slice of ledger access the admin
// dashboard needs.
type RedemptionCounterInterface interface {
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// VendorService manages vendor registration and the approval lifecycle:
// pending -> approved, pending -> rejected, approved <-> blocked.
type VendorService struct {
	vendors     VendorRepositoryInterface
	offers      OfferListerInterface
	redemptions RedemptionCounterInterface
	now         func() time.Time
}

// NewVendorService creates a new VendorService with the given repositories.
func NewVendorService(vendors VendorRepositoryInterface, offers OfferListerInterface, redemptions RedemptionCounterInterface) *VendorService {
	return &VendorService{
		vendors:     vendors,
		offers:      offers,
		redemptions: redemptions,
		now:         time.Now,
	}
}

// Register creates a vendor account in pending status. The account cannot
// log in until an admin approves it.
// Returns ErrVendorExists when the email is taken.
func (s *VendorService) Register(ctx context.Context, req *model.RegisterVendorRequest) (*model.Vendor, error) {
	existing, err := s.vendors.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup vendor: %w", err)
	}
	if existing != nil {
		return nil, ErrVendorExists
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	vendor := &model.Vendor{
		CompanyName:   req.CompanyName,
		Email:         req.Email,
		Phone:         req.Phone,
		ContactPerson: req.ContactPerson,
		Description:   req.Description,
		Website:       req.Website,
		PasswordHash:  hash,
		Status:        model.VendorPending,
	}
	if err := s.vendors.Insert(ctx, vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

// Dashboard aggregates a vendor's offer and redemption numbers.
func (s *VendorService) Dashboard(ctx context.Context, vendorID string) (*model.VendorStats, error) {
	offers, err := s.offers.List(ctx, model.OfferFilter{VendorID: vendorID})
	if err != nil {
		return nil, err
	}

	stats := &model.VendorStats{TotalOffers: len(offers)}
	for _, o := range offers {
		switch o.Status {
		case model.OfferActive:
			stats.ActiveOffers++
		case model.OfferPending:
			stats.PendingOffers++
		}
		stats.TotalRedemptions += o.RedemptionCount
		stats.TotalViews += o.ViewCount
	}
	return stats, nil
}

// List returns vendors, optionally filtered by status.
func (s *VendorService) List(ctx context.Context, status model.VendorStatus) ([]model.Vendor, error) {
	return s.vendors.List(ctx, status)
}

// Get returns one vendor by id.
// Returns ErrVendorNotFound when the id is unknown.
func (s *VendorService) Get(ctx context.Context, id string) (*model.Vendor, error) {
	vendor, err := s.vendors.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get vendor: %w", err)
	}
	if vendor == nil {
		return nil, ErrVendorNotFound
	}
	return vendor, nil
}

// Approve moves a pending vendor to approved, stamping the audit columns.
// Returns ErrInvalidStatusTransition unless the vendor is pending.
func (s *VendorService) Approve(ctx context.Context, id, approvedBy string) error {
	vendor, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if vendor.Status != model.VendorPending {
		return ErrInvalidStatusTransition
	}
	return s.vendors.UpdateStatus(ctx, id, model.VendorApproved, approvedBy)
}

// Reject declines a pending vendor. Rejection is terminal.
// Returns ErrInvalidStatusTransition unless the vendor is pending.
func (s *VendorService) Reject(ctx context.Context, id string) error {
	vendor, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if vendor.Status != model.VendorPending {
		return ErrInvalidStatusTransition
	}
	return s.vendors.UpdateStatus(ctx, id, model.VendorRejected, "")
}

// ToggleBlock flips an approved vendor to blocked or a blocked vendor back
// to approved. Blocked vendors cannot log in; their published offers stay
// visible.
// Returns ErrInvalidStatusTransition for pending or rejected vendors.
func (s *VendorService) ToggleBlock(ctx context.Context, id string) (model.VendorStatus, error) {
	vendor, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	var next model.VendorStatus
	switch vendor.Status {
	case model.VendorApproved:
		next = model.VendorBlocked
	case model.VendorBlocked:
		next = model.VendorApproved
	default:
		return "", ErrInvalidStatusTransition
	}
	if err := s.vendors.UpdateStatus(ctx, id, next, ""); err != nil {
		return "", err
	}
	return next, nil
}

// AdminStats summarizes the numbers shown on the admin dashboard.
type AdminStats struct {
	PendingVendors   int `json:"pending_vendors"`
	ApprovedVendors  int `json:"approved_vendors"`
	PendingOffers    int `json:"pending_offers"`
	ActiveOffers     int `json:"active_offers"`
	RedemptionsToday int `json:"redemptions_today"`
}

// AdminDashboard aggregates the portal-wide moderation and activity
// numbers.
func (s *VendorService) AdminDashboard(ctx context.Context) (*AdminStats, error) {
	stats := &AdminStats{}

	for _, q := range []struct {
		status model.VendorStatus
		out    *int
	}{
		{model.VendorPending, &stats.PendingVendors},
		{model.VendorApproved, &stats.ApprovedVendors},
	} {
		vendors, err := s.vendors.List(ctx, q.status)
		if err != nil {
			return nil, err
		}
		*q.out = len(vendors)
	}

	for _, q := range []struct {
		status model.OfferStatus
		out    *int
	}{
		{model.OfferPending, &stats.PendingOffers},
		{model.OfferActive, &stats.ActiveOffers},
	} {
		offers, err := s.offers.List(ctx, model.OfferFilter{Status: q.status})
		if err != nil {
			return nil, err
		}
		*q.out = len(offers)
	}

	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	n, err := s.redemptions.CountSince(ctx, midnight)
	if err != nil {
		return nil, err
	}
	stats.RedemptionsToday = n

	return stats, nil
}

package model

import "time"

// VendorStatus is the approval lifecycle state of a vendor account.
// Transitions: pending -> approved, pending -> rejected,
// approved <-> blocked. Rejected is terminal.
type VendorStatus string

const (
	VendorPending  VendorStatus = "pending"
	VendorApproved VendorStatus = "approved"
	VendorRejected VendorStatus = "rejected"
	VendorBlocked  VendorStatus = "blocked"
)

// Vendor represents a merchant account that publishes offers.
type Vendor struct {
	ID            string       `json:"id"`
	CompanyName   string       `json:"company_name"`
	Email         string       `json:"email"`
	Phone         string       `json:"phone"`
	ContactPerson string       `json:"contact_person"`
	Description   string       `json:"description"`
	Website       string       `json:"website"`
	PasswordHash  string       `json:"-"`
	Status        VendorStatus `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	ApprovedAt    *time.Time   `json:"approved_at,omitempty"`
	ApprovedBy    string       `json:"approved_by,omitempty"`
}

// RegisterVendorRequest is the DTO for vendor self-registration.
type RegisterVendorRequest struct {
	CompanyName   string `json:"company_name" validate:"required,notblank,max=255"`
	Email         string `json:"email" validate:"required,email,max=255"`
	Phone         string `json:"phone" validate:"max=32"`
	ContactPerson string `json:"contact_person" validate:"max=255"`
	Password      string `json:"password" validate:"required,min=8,max=255"`
	Description   string `json:"description" validate:"max=2000"`
	Website       string `json:"website" validate:"max=255"`
}

// VendorLoginRequest is the DTO for the single-factor vendor login.
type VendorLoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=255"`
}

// VendorStats summarizes a vendor's dashboard numbers.
type VendorStats struct {
	TotalOffers      int `json:"total_offers"`
	ActiveOffers     int `json:"active_offers"`
	PendingOffers    int `json:"pending_offers"`
	TotalRedemptions int `json:"total_redemptions"`
	TotalViews       int `json:"total_views"`
}

package model

import "time"

// OfferStatus is the publication state of an offer.
type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferActive   OfferStatus = "active"
	OfferRejected OfferStatus = "rejected"
	OfferExpired  OfferStatus = "expired"
	OfferDisabled OfferStatus = "disabled"
)

// Location is a physical place where an offer can be redeemed.
type Location struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Offer is a time-boxed discount published by a vendor.
// Quota is nil for unlimited offers; RedemptionCount never exceeds a
// non-nil Quota.
type Offer struct {
	ID              string      `json:"id"`
	VendorID        string      `json:"vendor_id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	CategoryID      string      `json:"category_id"`
	DiscountType    string      `json:"discount_type"` // percentage, fixed, bogo
	DiscountValue   float64     `json:"discount_value"`
	Locations       []Location  `json:"locations"`
	StartDate       time.Time   `json:"start_date"`
	EndDate         time.Time   `json:"end_date"`
	Terms           string      `json:"terms"`
	Quota           *int        `json:"quota"`
	RedemptionCount int         `json:"redemption_count"`
	ViewCount       int         `json:"view_count"`
	Status          OfferStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// HasQuotaHeadroom reports whether at least one unit of quota remains.
// An offer without a quota is never exhausted. This is an advisory read;
// the ledger re-checks under a row lock before committing a redemption.
func (o *Offer) HasQuotaHeadroom() bool {
	return o.Quota == nil || o.RedemptionCount < *o.Quota
}

// CreateOfferRequest is the DTO for vendor offer creation.
type CreateOfferRequest struct {
	Title         string     `json:"title" validate:"required,notblank,max=255"`
	Description   string     `json:"description" validate:"required,max=2000"`
	CategoryID    string     `json:"category_id" validate:"required"`
	DiscountType  string     `json:"discount_type" validate:"required,oneof=percentage fixed bogo"`
	DiscountValue float64    `json:"discount_value" validate:"required,gt=0"`
	Locations     []Location `json:"locations" validate:"dive"`
	StartDate     time.Time  `json:"start_date" validate:"required"`
	EndDate       time.Time  `json:"end_date" validate:"required,gtfield=StartDate"`
	Terms         string     `json:"terms" validate:"max=2000"`
	Quota         *int       `json:"quota" validate:"omitempty,gte=1"`
}

// OfferFilter narrows offer listings. Zero values mean "no constraint".
type OfferFilter struct {
	VendorID   string
	CategoryID string
	Status     OfferStatus
	Search     string
}

// NearbyOffer is an offer annotated with its distance from the caller.
type NearbyOffer struct {
	Offer
	DistanceKm      float64   `json:"distance_km"`
	NearestLocation *Location `json:"nearest_location,omitempty"`
}

// Category groups offers for browsing.
type Category struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Icon   string `json:"icon"`
	Active bool   `json:"active"`
}

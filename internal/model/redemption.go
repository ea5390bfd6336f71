package model

import "time"

// RedemptionStatus is the state of a ledger entry. Entries are immutable
// once written except for the completed -> cancelled transition.
type RedemptionStatus string

const (
	RedemptionCompleted RedemptionStatus = "completed"
	RedemptionCancelled RedemptionStatus = "cancelled"
)

// Redemption is a permanent ledger entry for one successful redemption.
type Redemption struct {
	ID         string           `json:"id"`
	OfferID    string           `json:"offer_id"`
	UserID     string           `json:"user_id"`
	VendorID   string           `json:"vendor_id"`
	Token      string           `json:"-"`
	Location   string           `json:"location,omitempty"`
	RedeemedAt time.Time        `json:"redeemed_at"`
	Status     RedemptionStatus `json:"status"`
}

// RedeemRequest is the DTO for presenting a redemption token.
type RedeemRequest struct {
	Token    string `json:"token" validate:"required,notblank"`
	Location string `json:"location" validate:"max=255"`
}

// MintTokenResponse carries a freshly minted redemption token.
type MintTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"` // seconds
}

// RedemptionFilter narrows ledger listings. Zero values mean "no constraint".
type RedemptionFilter struct {
	OfferID  string
	VendorID string
	UserID   string
}

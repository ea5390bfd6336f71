package service

import (
	"errors"
	"fmt"

	"github.com/offerhub/offer-portal/internal/model"
)

var (
	// ErrInvalidCredentials is returned for a bad username or password.
	// Unknown-user and wrong-password are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrNoPendingChallenge is returned when OTP verification is attempted
	// without a prior successful password check.
	ErrNoPendingChallenge = errors.New("no pending authentication")

	// ErrOTPExpired is returned when the challenge outlived its TTL.
	// The challenge is consumed; a new login is required.
	ErrOTPExpired = errors.New("otp expired")

	// ErrOTPMismatch is returned when the candidate code does not match.
	// The challenge remains pending, so the caller may retry.
	ErrOTPMismatch = errors.New("invalid otp")

	// ErrMalformedToken is returned when a redemption token does not parse.
	ErrMalformedToken = errors.New("invalid token format")

	// ErrTokenExpired is returned when a redemption token is older than its
	// validity window.
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidSignature is returned when a redemption token fails the
	// signature check.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrOfferNotFound is returned when the referenced offer does not exist.
	ErrOfferNotFound = errors.New("offer not found")

	// ErrOfferNotActive is returned when the offer is not in active status.
	ErrOfferNotActive = errors.New("offer is not active")

	// ErrQuotaExceeded is returned when the offer's quota is exhausted.
	ErrQuotaExceeded = errors.New("offer quota reached")

	// ErrUserExists is returned when creating a user with a taken
	// username or email.
	ErrUserExists = errors.New("user already exists")

	// ErrVendorExists is returned when registering a vendor with a taken email.
	ErrVendorExists = errors.New("vendor with this email already exists")

	// ErrVendorNotFound is returned when a vendor cannot be found.
	ErrVendorNotFound = errors.New("vendor not found")

	// ErrUserNotFound is returned when a user cannot be found by id.
	ErrUserNotFound = errors.New("user not found")

	// ErrRedemptionForbidden is returned when a token is presented by a
	// principal other than the one it was minted for.
	ErrRedemptionForbidden = errors.New("token was issued to a different user")

	// ErrUnauthorized is returned on session or role gate failures.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotOfferOwner is returned when a vendor operates on an offer it
	// does not own.
	ErrNotOfferOwner = errors.New("offer belongs to a different vendor")

	// ErrCategoryNotFound is returned when an offer references an unknown
	// or inactive category.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrInvalidStatusTransition is returned when a vendor account cannot
	// move to the requested status from its current one.
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

// VendorNotApprovedError is returned on vendor login when the account is
// not in approved status. Unlike employee login failures it discloses the
// specific status so the vendor can self-serve.
type VendorNotApprovedError struct {
	Status model.VendorStatus
}

func (e *VendorNotApprovedError) Error() string {
	if e.Status == model.VendorPending {
		return "your account is pending approval"
	}
	return fmt.Sprintf("your account has been %s", e.Status)
}

// IsVendorNotApproved reports whether err is a VendorNotApprovedError and
// returns the carried status.
func IsVendorNotApproved(err error) (model.VendorStatus, bool) {
	var e *VendorNotApprovedError
	if errors.As(err, &e) {
		return e.Status, true
	}
	return "", false
}

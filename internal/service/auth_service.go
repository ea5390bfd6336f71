package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/offerhub/offer-portal/internal/model"
	"github.com/offerhub/offer-portal/internal/util"
)

// UserRepositoryInterface defines the credential lookups needed by the
// auth service.
type UserRepositoryInterface interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// VendorCredentialInterface defines the vendor lookup needed for vendor
// login.
type VendorCredentialInterface interface {
	GetByEmail(ctx context.Context, email string) (*model.Vendor, error)
}

// OTPNotifier delivers a freshly issued code to a principal. Delivery
// failures never fail the login flow.
type OTPNotifier interface {
	NotifyOTP(ctx context.Context, email, code, name string) bool
}

// AuthService implements the two-factor employee login handshake and the
// single-factor vendor login. Employee logins require an OTP sent out of
// band; vendor logins do not. The asymmetry is an explicit policy choice,
// not a code-path accident.
type AuthService struct {
	users    UserRepositoryInterface
	vendors  VendorCredentialInterface
	otp      *OTPAuthenticator
	notifier OTPNotifier
}

// NewAuthService creates an AuthService from its collaborators.
func NewAuthService(users UserRepositoryInterface, vendors VendorCredentialInterface, otp *OTPAuthenticator, notifier OTPNotifier) *AuthService {
	return &AuthService{
		users:    users,
		vendors:  vendors,
		otp:      otp,
		notifier: notifier,
	}
}

// LoginResult acknowledges a successful first factor. The caller must
// record PendingUserID in the transport session and complete the handshake
// with an OTP.
type LoginResult struct {
	PendingUserID string
	MaskedEmail   string
}

// Login verifies the first factor. Username lookup falls back to email;
// unknown principal and wrong password both map to ErrInvalidCredentials
// so existence is never disclosed. On success an OTP is issued and
// dispatched to the principal's registered email.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		user, err = s.users.GetByEmail(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("lookup user by email: %w", err)
		}
	}
	if user == nil || !verifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	code, err := s.otp.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue otp: %w", err)
	}
	if !s.notifier.NotifyOTP(ctx, user.Email, code, user.Name) {
		log.Warn().Str("user_id", user.ID).Msg("otp notification not delivered")
	}

	return &LoginResult{
		PendingUserID: user.ID,
		MaskedEmail:   util.MaskEmail(user.Email),
	}, nil
}

// CompleteLogin verifies the second factor for the pending principal and
// returns the authenticated user. A mismatch leaves the challenge
// retryable; expiry consumes it and forces a fresh login.
func (s *AuthService) CompleteLogin(ctx context.Context, pendingUserID, candidate string) (*model.User, error) {
	if pendingUserID == "" {
		return nil, ErrNoPendingChallenge
	}
	if len(candidate) != 6 {
		return nil, ErrOTPMismatch
	}
	if err := s.otp.Verify(pendingUserID, candidate); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, pendingUserID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ResendOTP re-issues the challenge for a pending principal, invalidating
// any previously issued code.
func (s *AuthService) ResendOTP(ctx context.Context, pendingUserID string) error {
	if pendingUserID == "" {
		return ErrNoPendingChallenge
	}
	user, err := s.users.GetByID(ctx, pendingUserID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	code, err := s.otp.Issue(user.ID)
	if err != nil {
		return fmt.Errorf("issue otp: %w", err)
	}
	if !s.notifier.NotifyOTP(ctx, user.Email, code, user.Name) {
		log.Warn().Str("user_id", user.ID).Msg("otp notification not delivered")
	}
	return nil
}

// VendorLogin verifies a vendor's email and password. The status gate runs
// before the password check and intentionally discloses the account status
// so the vendor can self-serve; credential failures stay generic.
func (s *AuthService) VendorLogin(ctx context.Context, email, password string) (*model.Vendor, error) {
	vendor, err := s.vendors.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup vendor: %w", err)
	}
	if vendor == nil {
		return nil, ErrInvalidCredentials
	}
	if vendor.Status != model.VendorApproved {
		return nil, &VendorNotApprovedError{Status: vendor.Status}
	}
	if !verifyPassword(password, vendor.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return vendor, nil
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func verifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

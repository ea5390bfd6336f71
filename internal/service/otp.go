package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// challenge is one outstanding OTP for a principal. The expiry instant is
// stored in the value and checked lazily at verify time; the cache TTL only
// bounds how long a stale entry can linger before the janitor reclaims it.
type challenge struct {
	code      string
	expiresAt time.Time
}

// OTPAuthenticator issues and verifies short-lived one-time passwords.
// At most one challenge is outstanding per principal; issuing again
// overwrites the previous code.
type OTPAuthenticator struct {
	mu      sync.Mutex
	pending *gocache.Cache
	ttl     time.Duration
	now     func() time.Time
}

// NewOTPAuthenticator creates an authenticator whose codes expire after ttl.
func NewOTPAuthenticator(ttl time.Duration) *OTPAuthenticator {
	return &OTPAuthenticator{
		pending: gocache.New(2*ttl, time.Minute),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Issue generates a fresh 6-digit code for the given principal and stores
// it, invalidating any previously issued code for the same principal.
func (a *OTPAuthenticator) Issue(userID string) (string, error) {
	code, err := generateOTP()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending.Set(userID, challenge{code: code, expiresAt: a.now().Add(a.ttl)}, 2*a.ttl)
	return code, nil
}

// Verify checks the candidate code against the principal's outstanding
// challenge. A successful verify consumes the challenge; so does expiry.
// A mismatch leaves the challenge in place for bounded retries.
func (a *OTPAuthenticator) Verify(userID, candidate string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	v, ok := a.pending.Get(userID)
	if !ok {
		return ErrNoPendingChallenge
	}
	ch := v.(challenge)

	if a.now().After(ch.expiresAt) {
		a.pending.Delete(userID)
		return ErrOTPExpired
	}
	if ch.code != candidate {
		return ErrOTPMismatch
	}

	a.pending.Delete(userID)
	return nil
}

// generateOTP samples a uniformly distributed 6-digit decimal code.
// Leading zeros are allowed.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

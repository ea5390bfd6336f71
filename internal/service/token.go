package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const signatureLen = 16 // hex chars kept from the HMAC digest

// TokenClaims is the payload recovered from a verified redemption token.
type TokenClaims struct {
	OfferID  string
	UserID   string
	IssuedAt time.Time
}

// TokenService mints and verifies self-verifying redemption tokens of the
// form "offerID:userID:unixMillis:signature". No server-side state is kept:
// minting and verification only need the shared secret, so they can happen
// on different instances. Freshness is the only replay defense here;
// consumption is enforced downstream by the redemption ledger's quota
// transaction.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a token service. Tokens are valid for ttl after
// minting.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the validity window of minted tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Mint returns a signed token binding the offer and user at the current
// instant.
func (s *TokenService) Mint(offerID, userID string) string {
	ts := strconv.FormatInt(s.now().UnixMilli(), 10)
	data := offerID + ":" + userID + ":" + ts
	return data + ":" + s.sign(data)
}

// Verify parses and authenticates a token string. It fails with
// ErrMalformedToken, ErrTokenExpired or ErrInvalidSignature; on success it
// returns the claims carried by the token.
func (s *TokenService) Verify(token string) (*TokenClaims, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 4 {
		return nil, ErrMalformedToken
	}
	offerID, userID, tsField, sig := parts[0], parts[1], parts[2], parts[3]

	millis, err := strconv.ParseInt(tsField, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad timestamp", ErrMalformedToken)
	}
	issuedAt := time.UnixMilli(millis)

	if s.now().Sub(issuedAt) > s.ttl {
		return nil, ErrTokenExpired
	}

	expected := s.sign(offerID + ":" + userID + ":" + tsField)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return nil, ErrInvalidSignature
	}

	return &TokenClaims{OfferID: offerID, UserID: userID, IssuedAt: issuedAt}, nil
}

func (s *TokenService) sign(data string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))[:signatureLen]
}

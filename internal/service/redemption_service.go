package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/offerhub/offer-portal/internal/model"
	"github.com/offerhub/offer-portal/pkg/database"
)

// OfferLedgerInterface defines the offer data access needed by the
// redemption service, including the row-lock operations used inside the
// redemption transaction.
type OfferLedgerInterface interface {
	GetByID(ctx context.Context, id string) (*model.Offer, error)
	GetForUpdate(ctx context.Context, tx database.TxQuerier, id string) (*model.Offer, error)
	IncrementRedemptions(ctx context.Context, tx database.TxQuerier, id string) error
}

// RedemptionRepositoryInterface defines the ledger data access.
type RedemptionRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, red *model.Redemption) error
	List(ctx context.Context, filter model.RedemptionFilter) ([]model.Redemption, error)
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RedemptionService mints redemption tokens and settles them against the
// ledger. Settlement is atomic: the offer row is locked, the quota
// re-checked under the lock, and the ledger entry and counter increment
// commit together or not at all.
type RedemptionService struct {
	pool        TxBeginner
	offers      OfferLedgerInterface
	redemptions RedemptionRepositoryInterface
	tokens      *TokenService
	now         func() time.Time
}

// NewRedemptionService creates a new RedemptionService with the given pool
// and repositories.
func NewRedemptionService(pool *pgxpool.Pool, offers OfferLedgerInterface, redemptions RedemptionRepositoryInterface, tokens *TokenService) *RedemptionService {
	return &RedemptionService{
		pool:        pool,
		offers:      offers,
		redemptions: redemptions,
		tokens:      tokens,
		now:         time.Now,
	}
}

// NewRedemptionServiceWithTxBeginner creates a RedemptionService with a
// custom TxBeginner. Primarily used for testing.
func NewRedemptionServiceWithTxBeginner(pool TxBeginner, offers OfferLedgerInterface, redemptions RedemptionRepositoryInterface, tokens *TokenService) *RedemptionService {
	return &RedemptionService{
		pool:        pool,
		offers:      offers,
		redemptions: redemptions,
		tokens:      tokens,
		now:         time.Now,
	}
}

// MintToken issues a short-lived redemption token for the given offer and
// user. The pre-checks here are advisory only; Redeem re-checks everything
// under the row lock.
// Returns:
//   - ErrOfferNotFound if the offer doesn't exist
//   - ErrOfferNotActive if the offer is not currently redeemable
//   - ErrQuotaExceeded if the quota is already exhausted
func (s *RedemptionService) MintToken(ctx context.Context, offerID, userID string) (*model.MintTokenResponse, error) {
	offer, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("get offer: %w", err)
	}
	if offer == nil {
		return nil, ErrOfferNotFound
	}
	if !s.redeemable(offer) {
		return nil, ErrOfferNotActive
	}
	if !offer.HasQuotaHeadroom() {
		return nil, ErrQuotaExceeded
	}

	return &model.MintTokenResponse{
		Token:     s.tokens.Mint(offerID, userID),
		ExpiresIn: int(s.tokens.TTL().Seconds()),
	}, nil
}

// Redeem settles a presented token against the ledger for the
// authenticated user. The offer row is locked (SELECT FOR UPDATE) so
// concurrent attempts on the same offer serialize; the quota check, the
// ledger insert, and the counter increment commit atomically.
// Returns:
//   - ErrMalformedToken / ErrTokenExpired / ErrInvalidSignature for bad tokens
//   - ErrRedemptionForbidden if the token was minted for a different user
//   - ErrOfferNotFound if the offer no longer exists
//   - ErrOfferNotActive if the offer is not currently redeemable
//   - ErrQuotaExceeded if the quota is exhausted
func (s *RedemptionService) Redeem(ctx context.Context, userID string, req *model.RedeemRequest) (*model.Redemption, error) {
	claims, err := s.tokens.Verify(req.Token)
	if err != nil {
		return nil, err
	}
	if claims.UserID != userID {
		return nil, ErrRedemptionForbidden
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	// 1. Lock the offer row (SELECT FOR UPDATE)
	offer, err := s.offers.GetForUpdate(ctx, tx, claims.OfferID)
	if err != nil {
		return nil, err
	}

	// 2. Re-check redeemability and quota under the lock
	if !s.redeemable(offer) {
		return nil, ErrOfferNotActive
	}
	if !offer.HasQuotaHeadroom() {
		return nil, ErrQuotaExceeded
	}

	// 3. Append the ledger entry
	red := &model.Redemption{
		OfferID:    offer.ID,
		UserID:     userID,
		VendorID:   offer.VendorID,
		Token:      req.Token,
		Location:   req.Location,
		RedeemedAt: s.now().UTC(),
	}
	if err := s.redemptions.Insert(ctx, tx, red); err != nil {
		return nil, fmt.Errorf("insert redemption: %w", err)
	}

	// 4. Bump the counter
	if err := s.offers.IncrementRedemptions(ctx, tx, offer.ID); err != nil {
		return nil, fmt.Errorf("increment redemptions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return red, nil
}

// ListByUser returns the user's redemption history, newest first.
func (s *RedemptionService) ListByUser(ctx context.Context, userID string) ([]model.Redemption, error) {
	return s.redemptions.List(ctx, model.RedemptionFilter{UserID: userID})
}

// ListByVendor returns all redemptions across a vendor's offers.
func (s *RedemptionService) ListByVendor(ctx context.Context, vendorID string) ([]model.Redemption, error) {
	return s.redemptions.List(ctx, model.RedemptionFilter{VendorID: vendorID})
}

// ListByOffer returns the ledger entries for a single offer.
func (s *RedemptionService) ListByOffer(ctx context.Context, offerID string) ([]model.Redemption, error) {
	return s.redemptions.List(ctx, model.RedemptionFilter{OfferID: offerID})
}

// redeemable reports whether the offer is published and inside its
// validity window.
func (s *RedemptionService) redeemable(offer *model.Offer) bool {
	if offer.Status != model.OfferActive {
		return false
	}
	now := s.now()
	if !offer.StartDate.IsZero() && now.Before(offer.StartDate) {
		return false
	}
	if !offer.EndDate.IsZero() && now.After(offer.EndDate) {
		return false
	}
	return true
}

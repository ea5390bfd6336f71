package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/offerhub/offer-portal/internal/model"
	"github.com/offerhub/offer-portal/pkg/geo"
)

// OfferRepositoryInterface defines the offer data access used by the
// catalog service.
type OfferRepositoryInterface interface {
	Insert(ctx context.Context, o *model.Offer) error
	GetByID(ctx context.Context, id string) (*model.Offer, error)
	List(ctx context.Context, filter model.OfferFilter) ([]model.Offer, error)
	Update(ctx context.Context, o *model.Offer) error
	UpdateStatus(ctx context.Context, id string, status model.OfferStatus) error
	IncrementViews(ctx context.Context, id string) error
}

// CategoryRepositoryInterface defines the category data access.
type CategoryRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*model.Category, error)
	ListActive(ctx context.Context) ([]model.Category, error)
}

// FavoriteRepositoryInterface defines the bookmark data access.
type FavoriteRepositoryInterface interface {
	Add(ctx context.Context, userID, offerID string) error
	Remove(ctx context.Context, userID, offerID string) error
	ListByUser(ctx context.Context, userID string) ([]string, error)
}

// OfferService provides the offer catalog: public browsing, vendor
// authoring, and admin moderation.
type OfferService struct {
	offers     OfferRepositoryInterface
	categories CategoryRepositoryInterface
	favorites  FavoriteRepositoryInterface
	now        func() time.Time
}

// NewOfferService creates a new OfferService with the given repositories.
func NewOfferService(offers OfferRepositoryInterface, categories CategoryRepositoryInterface, favorites FavoriteRepositoryInterface) *OfferService {
	return &OfferService{
		offers:     offers,
		categories: categories,
		favorites:  favorites,
		now:        time.Now,
	}
}

// Browse returns the active offers matching the filter. Offers whose
// validity window has ended are excluded even if their stored status has
// not caught up yet.
func (s *OfferService) Browse(ctx context.Context, categoryID, search string) ([]model.Offer, error) {
	offers, err := s.offers.List(ctx, model.OfferFilter{
		CategoryID: categoryID,
		Status:     model.OfferActive,
		Search:     search,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	live := []model.Offer{}
	for _, o := range offers {
		if !o.EndDate.IsZero() && now.After(o.EndDate) {
			continue
		}
		live = append(live, o)
	}
	return live, nil
}

// BrowseNearby returns the active offers within radiusKm of the given
// point, nearest first.
func (s *OfferService) BrowseNearby(ctx context.Context, lat, lng, radiusKm float64, categoryID string) ([]model.NearbyOffer, error) {
	offers, err := s.Browse(ctx, categoryID, "")
	if err != nil {
		return nil, err
	}
	return geo.FilterNearby(offers, lat, lng, radiusKm), nil
}

// GetDetail returns one offer and bumps its view counter. The counter is
// best-effort; a failed bump never fails the read.
func (s *OfferService) GetDetail(ctx context.Context, id string) (*model.Offer, error) {
	offer, err := s.offers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get offer: %w", err)
	}
	if offer == nil {
		return nil, ErrOfferNotFound
	}
	if err := s.offers.IncrementViews(ctx, id); err != nil {
		log.Warn().Err(err).Str("offer_id", id).Msg("view counter bump failed")
	} else {
		offer.ViewCount++
	}
	return offer, nil
}

// Categories returns the active browsing categories.
func (s *OfferService) Categories(ctx context.Context) ([]model.Category, error) {
	return s.categories.ListActive(ctx)
}

// Create publishes a new offer draft for the vendor. Offers start in
// pending status and become visible only after admin approval.
// Returns ErrCategoryNotFound when the category is unknown or inactive.
func (s *OfferService) Create(ctx context.Context, vendorID string, req *model.CreateOfferRequest) (*model.Offer, error) {
	category, err := s.categories.GetByID(ctx, req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil || !category.Active {
		return nil, ErrCategoryNotFound
	}

	offer := &model.Offer{
		VendorID:      vendorID,
		Title:         req.Title,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		Locations:     req.Locations,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Terms:         req.Terms,
		Quota:         req.Quota,
		Status:        model.OfferPending,
	}
	if err := s.offers.Insert(ctx, offer); err != nil {
		return nil, fmt.Errorf("insert offer: %w", err)
	}
	return offer, nil
}

// Update rewrites a vendor's own offer and sends it back through
// moderation. Redemption and view counters are untouched.
// Returns ErrOfferNotFound / ErrNotOfferOwner / ErrCategoryNotFound.
func (s *OfferService) Update(ctx context.Context, vendorID, offerID string, req *model.CreateOfferRequest) (*model.Offer, error) {
	offer, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("get offer: %w", err)
	}
	if offer == nil {
		return nil, ErrOfferNotFound
	}
	if offer.VendorID != vendorID {
		return nil, ErrNotOfferOwner
	}

	category, err := s.categories.GetByID(ctx, req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil || !category.Active {
		return nil, ErrCategoryNotFound
	}

	offer.Title = req.Title
	offer.Description = req.Description
	offer.CategoryID = req.CategoryID
	offer.DiscountType = req.DiscountType
	offer.DiscountValue = req.DiscountValue
	offer.Locations = req.Locations
	offer.StartDate = req.StartDate
	offer.EndDate = req.EndDate
	offer.Terms = req.Terms
	offer.Quota = req.Quota
	offer.Status = model.OfferPending // Edits re-enter moderation

	if err := s.offers.Update(ctx, offer); err != nil {
		return nil, err
	}
	return offer, nil
}

// ListByVendor returns all of a vendor's offers regardless of status.
func (s *OfferService) ListByVendor(ctx context.Context, vendorID string) ([]model.Offer, error) {
	return s.offers.List(ctx, model.OfferFilter{VendorID: vendorID})
}

// ListPending returns the offers awaiting moderation.
func (s *OfferService) ListPending(ctx context.Context) ([]model.Offer, error) {
	return s.offers.List(ctx, model.OfferFilter{Status: model.OfferPending})
}

// Approve publishes a pending offer.
func (s *OfferService) Approve(ctx context.Context, offerID string) error {
	return s.offers.UpdateStatus(ctx, offerID, model.OfferActive)
}

// Reject declines a pending offer.
func (s *OfferService) Reject(ctx context.Context, offerID string) error {
	return s.offers.UpdateStatus(ctx, offerID, model.OfferRejected)
}

// Disable pulls a published offer from the catalog without touching its
// ledger history.
func (s *OfferService) Disable(ctx context.Context, offerID string) error {
	return s.offers.UpdateStatus(ctx, offerID, model.OfferDisabled)
}

// AddFavorite bookmarks an offer for a user.
// Returns ErrOfferNotFound when the offer doesn't exist.
func (s *OfferService) AddFavorite(ctx context.Context, userID, offerID string) error {
	offer, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		return fmt.Errorf("get offer: %w", err)
	}
	if offer == nil {
		return ErrOfferNotFound
	}
	return s.favorites.Add(ctx, userID, offerID)
}

// RemoveFavorite drops a user's bookmark. Idempotent.
func (s *OfferService) RemoveFavorite(ctx context.Context, userID, offerID string) error {
	return s.favorites.Remove(ctx, userID, offerID)
}

// ListFavorites returns the user's bookmarked offers. Bookmarks pointing
// at offers that have since disappeared are skipped.
func (s *OfferService) ListFavorites(ctx context.Context, userID string) ([]model.Offer, error) {
	ids, err := s.favorites.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	offers := []model.Offer{}
	for _, id := range ids {
		offer, err := s.offers.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get offer: %w", err)
		}
		if offer == nil {
			continue
		}
		offers = append(offers, *offer)
	}
	return offers, nil
}

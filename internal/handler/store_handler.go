package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/offerhub/offer-portal/internal/model"
	"github.com/offerhub/offer-portal/internal/service"
)

// OfferCatalogInterface defines the browsing operations exposed to
// employees.
type OfferCatalogInterface interface {
	Browse(ctx context.Context, categoryID, search string) ([]model.Offer, error)
	BrowseNearby(ctx context.Context, lat, lng, radiusKm float64, categoryID string) ([]model.NearbyOffer, error)
	GetDetail(ctx context.Context, id string) (*model.Offer, error)
	Categories(ctx context.Context) ([]model.Category, error)
	AddFavorite(ctx context.Context, userID, offerID string) error
	RemoveFavorite(ctx context.Context, userID, offerID string) error
	ListFavorites(ctx context.Context, userID string) ([]model.Offer, error)
}

// RedemptionServiceInterface defines the token and ledger operations
// exposed to employees.
type RedemptionServiceInterface interface {
	MintToken(ctx context.Context, offerID, userID string) (*model.MintTokenResponse, error)
	Redeem(ctx context.Context, userID string, req *model.RedeemRequest) (*model.Redemption, error)
	ListByUser(ctx context.Context, userID string) ([]model.Redemption, error)
}

// StoreHandler handles the employee-facing portal: browsing, favorites,
// redemption tokens, and redemption history.
type StoreHandler struct {
	offers      OfferCatalogInterface
	redemptions RedemptionServiceInterface
	validator   *validator.Validate
}

// NewStoreHandler creates a new StoreHandler.
func NewStoreHandler(offers OfferCatalogInterface, redemptions RedemptionServiceInterface, v *validator.Validate) *StoreHandler {
	return &StoreHandler{offers: offers, redemptions: redemptions, validator: v}
}

// Categories handles GET /api/categories.
func (h *StoreHandler) Categories(c *fiber.Ctx) error {
	categories, err := h.offers.Categories(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list categories")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(fiber.Map{"categories": categories})
}

// Browse handles GET /api/offers. With lat/lng query params the catalog
// is filtered and sorted by distance; otherwise it is a plain listing.
func (h *StoreHandler) Browse(c *fiber.Ctx) error {
	categoryID := c.Query("category")
	search := c.Query("search")

	if c.Query("lat") != "" && c.Query("lng") != "" {
		lat := c.QueryFloat("lat")
		lng := c.QueryFloat("lng")
		radius := c.QueryFloat("radius", 10)
		if lat < -90 || lat > 90 || lng < -180 || lng > 180 || radius <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid coordinates"})
		}
		offers, err := h.offers.BrowseNearby(c.Context(), lat, lng, radius, categoryID)
		if err != nil {
			log.Error().Err(err).Msg("failed to browse nearby offers")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
		}
		return c.JSON(fiber.Map{"offers": offers})
	}

	offers, err := h.offers.Browse(c.Context(), categoryID, search)
	if err != nil {
		log.Error().Err(err).Msg("failed to browse offers")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(fiber.Map{"offers": offers})
}

// Detail handles GET /api/offers/:id.
func (h *StoreHandler) Detail(c *fiber.Ctx) error {
	offer, err := h.offers.GetDetail(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, service.ErrOfferNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "offer not found"})
		}
		log.Error().Err(err).Str("offer_id", c.Params("id")).Msg("failed to get offer")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(offer)
}

// MintToken handles POST /api/offers/:id/qr, issuing a short-lived
// redemption token for the logged-in employee.
func (h *StoreHandler) MintToken(c *fiber.Ctx) error {
	data := sessionData(c)

	resp, err := h.redemptions.MintToken(c.Context(), c.Params("id"), data.User.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOfferNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "offer not found"})
		case errors.Is(err, service.ErrOfferNotActive):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "offer is not active"})
		case errors.Is(err, service.ErrQuotaExceeded):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "offer quota reached"})
		}
		log.Error().Err(err).Str("offer_id", c.Params("id")).Msg("failed to mint token")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(resp)
}

// Redeem handles POST /api/redeem, settling a presented token.
func (h *StoreHandler) Redeem(c *fiber.Ctx) error {
	var req model.RedeemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	data := sessionData(c)
	red, err := h.redemptions.Redeem(c.Context(), data.User.UserID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMalformedToken), errors.Is(err, service.ErrInvalidSignature):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid token"})
		case errors.Is(err, service.ErrTokenExpired):
			return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": "token expired"})
		case errors.Is(err, service.ErrRedemptionForbidden):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "token was issued to a different user"})
		case errors.Is(err, service.ErrOfferNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "offer not found"})
		case errors.Is(err, service.ErrOfferNotActive):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "offer is not active"})
		case errors.Is(err, service.ErrQuotaExceeded):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "offer quota reached"})
		}
		log.Error().Err(err).Msg("failed to redeem token")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("redemption_id", red.ID).
		Str("offer_id", red.OfferID).
		Str("user_id", red.UserID).
		Msg("offer redeemed")
	return c.Status(fiber.StatusCreated).JSON(red)
}

// History handles GET /api/redemptions, the employee's redemption history.
func (h *StoreHandler) History(c *fiber.Ctx) error {
	data := sessionData(c)
	redemptions, err := h.redemptions.ListByUser(c.Context(), data.User.UserID)
	if err != nil {
		log.Error().Err(err).Msg("failed to list redemptions")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(fiber.Map{"redemptions": redemptions})
}

// AddFavorite handles POST /api/offers/:id/favorite.
func (h *StoreHandler) AddFavorite(c *fiber.Ctx) error {
	data := sessionData(c)
	if err := h.offers.AddFavorite(c.Context(), data.User.UserID, c.Params("id")); err != nil {
		if errors.Is(err, service.ErrOfferNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "offer not found"})
		}
		log.Error().Err(err).Msg("failed to add favorite")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "favorite added"})
}

// RemoveFavorite handles DELETE /api/offers/:id/favorite.
func (h *StoreHandler) RemoveFavorite(c *fiber.Ctx) error {
	data := sessionData(c)
	if err := h.offers.RemoveFavorite(c.Context(), data.User.UserID, c.Params("id")); err != nil {
		log.Error().Err(err).Msg("failed to remove favorite")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(fiber.Map{"message": "favorite removed"})
}

// Favorites handles GET /api/favorites.
func (h *StoreHandler) Favorites(c *fiber.Ctx) error {
	data := sessionData(c)
	offers, err := h.offers.ListFavorites(c.Context(), data.User.UserID)
	if err != nil {
		log.Error().Err(err).Msg("failed to list favorites")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(fiber.Map{"offers": offers})
}

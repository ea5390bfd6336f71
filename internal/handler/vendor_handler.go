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

// VendorServiceInterface defines the vendor lifecycle operations.
type VendorServiceInterface interface {
	Register(ctx context.Context, req *model.RegisterVendorRequest) (*model.Vendor, error)
	Dashboard(ctx context.Context, vendorID string) (*model.VendorStats, error)
}

// OfferAuthoringInterface defines the offer operations a vendor performs
// on its own catalog.
type OfferAuthoringInterface interface {
	Create(ctx context.Context, vendorID string, req *model.CreateOfferRequest) (*model.Offer, error)
	Update(ctx context.Context, vendorID, offerID string, req *model.CreateOfferRequest) (*model.Offer, error)
	ListByVendor(ctx context.Context, vendorID string) ([]model.Offer, error)
}

// VendorLedgerInterface exposes the vendor's view of the redemption
// ledger.
type VendorLedgerInterface interface {
	ListByVendor(ctx context.Context, vendorID string) ([]model.Redemption, error)
}

// VendorHandler handles the vendor-facing portal: registration, the
// dashboard, and offer authoring.
type VendorHandler struct {
	vendors     VendorServiceInterface
	offers      OfferAuthoringInterface
	redemptions VendorLedgerInterface
	validator   *validator.Validate
}

// NewVendorHandler creates a new VendorHandler.
func NewVendorHandler(vendors VendorServiceInterface, offers OfferAuthoringInterface, redemptions VendorLedgerInterface, v *validator.Validate) *VendorHandler {
	return &VendorHandler{vendors: vendors, offers: offers, redemptions: redemptions, validator: v}
}

// Register handles POST /api/vendor/register.
func (h *VendorHandler) Register(c *fiber.Ctx) error {
	var req model.RegisterVendorRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	vendor, err := h.vendors.Register(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrVendorExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "vendor with this email already exists"})
		}
		log.Error().Err(err).Msg("vendor registration failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().Str("vendor_id", vendor.ID).Msg("vendor registered")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"vendor":  vendor,
		"message": "registration received, your account is pending approval",
	})
}

// Dashboard handles GET /api/vendor/dashboard.
func (h *VendorHandler) Dashboard(c *fiber.Ctx) error {
	data := sessionData(c)
	stats, err := h.vendors.Dashboard(c.Context(), data.Vendor.VendorID)
	if err != nil {
		log.Error().Err(err).Msg("failed to build vendor dashboard")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(stats)
}

// ListOffers handles GET /api/vendor/offers.
func (h *VendorHandler) ListOffers(c *fiber.Ctx) error {
	data := sessionData(c)
	offers, err := h.offers.ListByVendor(c.Context(), data.Vendor.VendorID)
	if err != nil {
		log.Error().Err(err).Msg("failed to list vendor offers")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(fiber.Map{"offers": offers})
}

// CreateOffer handles POST /api/vendor/offers.
func (h *VendorHandler) CreateOffer(c *fiber.Ctx) error {
	var req model.CreateOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	data := sessionData(c)
	offer, err := h.offers.Create(c.Context(), data.Vendor.VendorID, &req)
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "category not found"})
		}
		log.Error().Err(err).Msg("failed to create offer")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().Str("offer_id", offer.ID).Str("vendor_id", offer.VendorID).Msg("offer created")
	return c.Status(fiber.StatusCreated).JSON(offer)
}

// UpdateOffer handles PUT /api/vendor/offers/:id.
func (h *VendorHandler) UpdateOffer(c *fiber.Ctx) error {
	var req model.CreateOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	data := sessionData(c)
	offer, err := h.offers.Update(c.Context(), data.Vendor.VendorID, c.Params("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOfferNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "offer not found"})
		case errors.Is(err, service.ErrNotOfferOwner):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "offer belongs to a different vendor"})
		case errors.Is(err, service.ErrCategoryNotFound):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "category not found"})
		}
		log.Error().Err(err).Str("offer_id", c.Params("id")).Msg("failed to update offer")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(offer)
}

// Redemptions handles GET /api/vendor/redemptions, the ledger entries
// across the vendor's offers.
func (h *VendorHandler) Redemptions(c *fiber.Ctx) error {
	data := sessionData(c)
	redemptions, err := h.redemptions.ListByVendor(c.Context(), data.Vendor.VendorID)
	if err != nil {
		log.Error().Err(err).Msg("failed to list vendor redemptions")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(fiber.Map{"redemptions": redemptions})
}

package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/offerhub/offer-portal/internal/model"
	"github.com/offerhub/offer-portal/internal/service"
)

// VendorAdminInterface defines the vendor moderation operations.
type VendorAdminInterface interface {
	List(ctx context.Context, status model.VendorStatus) ([]model.Vendor, error)
	Approve(ctx context.Context, id, approvedBy string) error
	Reject(ctx context.Context, id string) error
	ToggleBlock(ctx context.Context, id string) (model.VendorStatus, error)
	AdminDashboard(ctx context.Context) (*service.AdminStats, error)
}

// OfferAdminInterface defines the offer moderation operations.
type OfferAdminInterface interface {
	ListPending(ctx context.Context) ([]model.Offer, error)
	Approve(ctx context.Context, offerID string) error
	Reject(ctx context.Context, offerID string) error
	Disable(ctx context.Context, offerID string) error
}

// AdminHandler handles the admin console: the dashboard plus vendor and
// offer moderation.
type AdminHandler struct {
	vendors VendorAdminInterface
	offers  OfferAdminInterface
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(vendors VendorAdminInterface, offers OfferAdminInterface) *AdminHandler {
	return &AdminHandler{vendors: vendors, offers: offers}
}

// Dashboard handles GET /api/admin/dashboard.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.vendors.AdminDashboard(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to build admin dashboard")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(stats)
}

// ListVendors handles GET /api/admin/vendors. The optional status query
// narrows the listing.
func (h *AdminHandler) ListVendors(c *fiber.Ctx) error {
	vendors, err := h.vendors.List(c.Context(), model.VendorStatus(c.Query("status")))
	if err != nil {
		log.Error().Err(err).Msg("failed to list vendors")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(fiber.Map{"vendors": vendors})
}

// ApproveVendor handles POST /api/admin/vendors/:id/approve.
func (h *AdminHandler) ApproveVendor(c *fiber.Ctx) error {
	data := sessionData(c)
	if err := h.vendors.Approve(c.Context(), c.Params("id"), data.User.Username); err != nil {
		return h.vendorModerationError(c, err, "approve vendor")
	}
	log.Info().Str("vendor_id", c.Params("id")).Msg("vendor approved")
	return c.JSON(fiber.Map{"message": "vendor approved"})
}

// RejectVendor handles POST /api/admin/vendors/:id/reject.
func (h *AdminHandler) RejectVendor(c *fiber.Ctx) error {
	if err := h.vendors.Reject(c.Context(), c.Params("id")); err != nil {
		return h.vendorModerationError(c, err, "reject vendor")
	}
	log.Info().Str("vendor_id", c.Params("id")).Msg("vendor rejected")
	return c.JSON(fiber.Map{"message": "vendor rejected"})
}

// ToggleVendorBlock handles POST /api/admin/vendors/:id/toggle-block.
func (h *AdminHandler) ToggleVendorBlock(c *fiber.Ctx) error {
	status, err := h.vendors.ToggleBlock(c.Context(), c.Params("id"))
	if err != nil {
		return h.vendorModerationError(c, err, "toggle vendor block")
	}
	log.Info().Str("vendor_id", c.Params("id")).Str("status", string(status)).Msg("vendor block toggled")
	return c.JSON(fiber.Map{"status": status})
}

func (h *AdminHandler) vendorModerationError(c *fiber.Ctx, err error, action string) error {
	switch {
	case errors.Is(err, service.ErrVendorNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "vendor not found"})
	case errors.Is(err, service.ErrInvalidStatusTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "invalid status transition"})
	}
	log.Error().Err(err).Str("vendor_id", c.Params("id")).Msgf("failed to %s", action)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

// PendingOffers handles GET /api/admin/offers/pending.
func (h *AdminHandler) PendingOffers(c *fiber.Ctx) error {
	offers, err := h.offers.ListPending(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list pending offers")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(fiber.Map{"offers": offers})
}

// ApproveOffer handles POST /api/admin/offers/:id/approve.
func (h *AdminHandler) ApproveOffer(c *fiber.Ctx) error {
	if err := h.offers.Approve(c.Context(), c.Params("id")); err != nil {
		return h.offerModerationError(c, err, "approve offer")
	}
	log.Info().Str("offer_id", c.Params("id")).Msg("offer approved")
	return c.JSON(fiber.Map{"message": "offer approved"})
}

// RejectOffer handles POST /api/admin/offers/:id/reject.
func (h *AdminHandler) RejectOffer(c *fiber.Ctx) error {
	if err := h.offers.Reject(c.Context(), c.Params("id")); err != nil {
		return h.offerModerationError(c, err, "reject offer")
	}
	log.Info().Str("offer_id", c.Params("id")).Msg("offer rejected")
	return c.JSON(fiber.Map{"message": "offer rejected"})
}

// DisableOffer handles POST /api/admin/offers/:id/disable.
func (h *AdminHandler) DisableOffer(c *fiber.Ctx) error {
	if err := h.offers.Disable(c.Context(), c.Params("id")); err != nil {
		return h.offerModerationError(c, err, "disable offer")
	}
	log.Info().Str("offer_id", c.Params("id")).Msg("offer disabled")
	return c.JSON(fiber.Map{"message": "offer disabled"})
}

func (h *AdminHandler) offerModerationError(c *fiber.Ctx, err error, action string) error {
	if errors.Is(err, service.ErrOfferNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "offer not found"})
	}
	log.Error().Err(err).Str("offer_id", c.Params("id")).Msgf("failed to %s", action)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

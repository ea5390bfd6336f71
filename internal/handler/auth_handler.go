package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/offerhub/offer-portal/internal/model"
	"github.com/offerhub/offer-portal/internal/service"
	"github.com/offerhub/offer-portal/internal/session"
)

// AuthServiceInterface defines the login handshake operations.
type AuthServiceInterface interface {
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
	CompleteLogin(ctx context.Context, pendingUserID, candidate string) (*model.User, error)
	ResendOTP(ctx context.Context, pendingUserID string) error
	VendorLogin(ctx context.Context, email, password string) (*model.Vendor, error)
}

// AuthHandler handles HTTP requests for the login handshakes of all three
// principal kinds.
type AuthHandler struct {
	service   AuthServiceInterface
	sessions  *session.Manager
	validator *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc AuthServiceInterface, sessions *session.Manager, v *validator.Validate) *AuthHandler {
	return &AuthHandler{service: svc, sessions: sessions, validator: v}
}

// ensureSession returns the request's live session, starting a fresh one
// (and setting the cookie) when none exists.
func (h *AuthHandler) ensureSession(c *fiber.Ctx) (string, *session.Data) {
	if token := c.Cookies(SessionCookie); token != "" {
		if data, ok := h.sessions.Get(token); ok {
			return token, data
		}
	}
	token, data := h.sessions.Start()
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return token, data
}

// Login handles POST /api/auth/login, the first step of the two-factor
// employee login. On success the session records the pending principal
// and an OTP is dispatched out of band.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req model.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	result, err := h.service.Login(c.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid username or password"})
		}
		log.Error().Err(err).Msg("login failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	token, data := h.ensureSession(c)
	data.User = nil
	data.PendingUserID = result.PendingUserID
	h.sessions.Save(token, data)

	return c.JSON(model.LoginResponse{
		RequiresOTP: true,
		Message:     "verification code sent to your email",
		Email:       result.MaskedEmail,
	})
}

// VerifyOTP handles POST /api/auth/verify-otp, the second step of the
// two-factor login.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req model.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	data := sessionData(c)
	if data == nil || data.PendingUserID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "no pending authentication"})
	}

	user, err := h.service.CompleteLogin(c.Context(), data.PendingUserID, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOTPExpired):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "otp expired, please log in again"})
		case errors.Is(err, service.ErrOTPMismatch):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid otp"})
		case errors.Is(err, service.ErrNoPendingChallenge):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "no pending authentication"})
		}
		log.Error().Err(err).Msg("otp verification failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	token, data := h.ensureSession(c)
	data.PendingUserID = ""
	data.User = &session.UserSession{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Name:     user.Name,
	}
	h.sessions.Save(token, data)

	log.Info().Str("user_id", user.ID).Msg("user logged in")
	return c.JSON(fiber.Map{"user": data.User})
}

// ResendOTP handles POST /api/auth/resend-otp.
func (h *AuthHandler) ResendOTP(c *fiber.Ctx) error {
	data := sessionData(c)
	if data == nil || data.PendingUserID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "no pending authentication"})
	}

	if err := h.service.ResendOTP(c.Context(), data.PendingUserID); err != nil {
		if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrNoPendingChallenge) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "no pending authentication"})
		}
		log.Error().Err(err).Msg("otp resend failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(fiber.Map{"message": "verification code resent"})
}

// VendorLogin handles POST /api/vendor/login, the single-factor vendor
// login.
func (h *AuthHandler) VendorLogin(c *fiber.Ctx) error {
	var req model.VendorLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	vendor, err := h.service.VendorLogin(c.Context(), req.Email, req.Password)
	if err != nil {
		if _, ok := service.IsVendorNotApproved(err); ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
		}
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid email or password"})
		}
		log.Error().Err(err).Msg("vendor login failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	token, data := h.ensureSession(c)
	data.Vendor = &session.VendorSession{
		VendorID:    vendor.ID,
		CompanyName: vendor.CompanyName,
		Email:       vendor.Email,
		Role:        string(model.RoleVendor),
	}
	h.sessions.Save(token, data)

	log.Info().Str("vendor_id", vendor.ID).Msg("vendor logged in")
	return c.JSON(fiber.Map{"vendor": data.Vendor})
}

// Me handles GET /api/auth/me, reporting who the session belongs to.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	data := sessionData(c)
	if data == nil || (data.User == nil && data.Vendor == nil) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}
	resp := fiber.Map{}
	if data.User != nil {
		resp["user"] = data.User
	}
	if data.Vendor != nil {
		resp["vendor"] = data.Vendor
	}
	return c.JSON(resp)
}

// Logout handles POST /api/auth/logout. Destroys the whole session, so a
// browser holding both a user and vendor login loses both.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if token := c.Cookies(SessionCookie); token != "" {
		h.sessions.Destroy(token)
	}
	c.ClearCookie(SessionCookie)
	return c.JSON(fiber.Map{"message": "logged out"})
}

package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/offerhub/offer-portal/internal/session"
)

// SessionCookie is the cookie carrying the opaque session token.
const SessionCookie = "portal_session"

const localSessionData = "session_data"

// SessionMiddleware loads the server-side session for each request and
// provides the role gates used by the route groups.
type SessionMiddleware struct {
	sessions      *session.Manager
	adminUsername string
}

// NewSessionMiddleware creates a SessionMiddleware backed by the given
// session manager. adminUsername names the account granted admin access.
func NewSessionMiddleware(sessions *session.Manager, adminUsername string) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, adminUsername: adminUsername}
}

// Load attaches the session data to the request context when the cookie
// names a live session. Requests without a session pass through; the
// Require* gates decide what needs one.
func (m *SessionMiddleware) Load(c *fiber.Ctx) error {
	if token := c.Cookies(SessionCookie); token != "" {
		if data, ok := m.sessions.Get(token); ok {
			c.Locals(localSessionData, data)
		}
	}
	return c.Next()
}

// RequireUser rejects requests without a fully authenticated employee or
// admin session. A half-completed login (password ok, OTP outstanding)
// does not pass.
func (m *SessionMiddleware) RequireUser(c *fiber.Ctx) error {
	data := sessionData(c)
	if data == nil || data.User == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}
	return c.Next()
}

// RequireVendor rejects requests without an authenticated vendor session.
func (m *SessionMiddleware) RequireVendor(c *fiber.Ctx) error {
	data := sessionData(c)
	if data == nil || data.Vendor == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "vendor authentication required"})
	}
	return c.Next()
}

// RequireAdmin rejects sessions that are not the admin account. Runs after
// RequireUser semantics: an unauthenticated request gets 401, an
// authenticated non-admin gets 403.
func (m *SessionMiddleware) RequireAdmin(c *fiber.Ctx) error {
	data := sessionData(c)
	if data == nil || data.User == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}
	if data.User.Username != m.adminUsername {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin access required"})
	}
	return c.Next()
}

// sessionData returns the session attached by Load, or nil.
func sessionData(c *fiber.Ctx) *session.Data {
	if data, ok := c.Locals(localSessionData).(*session.Data); ok {
		return data
	}
	return nil
}

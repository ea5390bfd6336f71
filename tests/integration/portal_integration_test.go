//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offerhub/offer-portal/internal/handler"
	"github.com/offerhub/offer-portal/internal/model"
	"github.com/offerhub/offer-portal/internal/repository"
	"github.com/offerhub/offer-portal/internal/service"
	"github.com/offerhub/offer-portal/internal/session"
	"github.com/offerhub/offer-portal/internal/validator"
)

// captureNotifier records issued OTP codes instead of sending mail, which
// lets these tests complete the two-factor handshake over HTTP.
type captureNotifier struct {
	mu    sync.Mutex
	codes map[string]string // email -> last code
}

func (n *captureNotifier) NotifyOTP(_ context.Context, email, code, _ string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.codes == nil {
		n.codes = make(map[string]string)
	}
	n.codes[email] = code
	return true
}

func (n *captureNotifier) lastCode(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[email]
}

// setupPortalApp builds the full route set from main.go in-process against
// the test database.
func setupPortalApp(t *testing.T) (*fiber.App, *captureNotifier) {
	t.Helper()
	cleanupTables(t)

	app := fiber.New()
	v := validator.New() // Uses shared validator with custom validations (notblank)

	userRepo := repository.NewUserRepository(testPool)
	vendorRepo := repository.NewVendorRepository(testPool)
	offerRepo := repository.NewOfferRepository(testPool)
	redemptionRepo := repository.NewRedemptionRepository(testPool)
	favoriteRepo := repository.NewFavoriteRepository(testPool)
	categoryRepo := repository.NewCategoryRepository(testPool)

	notifier := &captureNotifier{}
	otpAuth := service.NewOTPAuthenticator(5 * time.Minute)
	tokens := service.NewTokenService("integration-test-secret", 5*time.Minute)
	authService := service.NewAuthService(userRepo, vendorRepo, otpAuth, notifier)
	offerService := service.NewOfferService(offerRepo, categoryRepo, favoriteRepo)
	redemptionService := service.NewRedemptionService(testPool, offerRepo, redemptionRepo, tokens)
	vendorService := service.NewVendorService(vendorRepo, offerRepo, redemptionRepo)

	sessions := session.NewManager(time.Hour)
	mw := handler.NewSessionMiddleware(sessions, "admin")
	authHandler := handler.NewAuthHandler(authService, sessions, v)
	storeHandler := handler.NewStoreHandler(offerService, redemptionService, v)
	vendorHandler := handler.NewVendorHandler(vendorService, offerService, redemptionService, v)
	adminHandler := handler.NewAdminHandler(vendorService, offerService)

	app.Use(mw.Load)

	app.Post("/api/auth/login", authHandler.Login)
	app.Post("/api/auth/verify-otp", authHandler.VerifyOTP)
	app.Get("/api/auth/me", authHandler.Me)

	app.Get("/api/offers", storeHandler.Browse)
	app.Get("/api/offers/:id", storeHandler.Detail)
	app.Post("/api/offers/:id/qr", mw.RequireUser, storeHandler.MintToken)
	app.Post("/api/redeem", mw.RequireUser, storeHandler.Redeem)
	app.Get("/api/redemptions", mw.RequireUser, storeHandler.History)

	app.Post("/api/vendor/register", vendorHandler.Register)
	app.Post("/api/vendor/login", authHandler.VendorLogin)
	app.Get("/api/vendor/dashboard", mw.RequireVendor, vendorHandler.Dashboard)
	app.Get("/api/vendor/redemptions", mw.RequireVendor, vendorHandler.Redemptions)

	admin := app.Group("/api/admin", mw.RequireAdmin)
	admin.Get("/vendors", adminHandler.ListVendors)
	admin.Post("/vendors/:id/approve", adminHandler.ApproveVendor)

	return app, notifier
}

// createPortalUser inserts an employee account with a known password,
// replacing any previous account with the same email.
func createPortalUser(t *testing.T, username, email, password string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := testPool.Exec(ctx, "DELETE FROM users WHERE LOWER(email) = LOWER($1) OR LOWER(username) = LOWER($2)", email, username)
	require.NoError(t, err)

	hash, err := service.HashPassword(password)
	require.NoError(t, err)
	require.NoError(t, repository.NewUserRepository(testPool).Insert(ctx, &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Name:         "Test " + username,
		Role:         model.RoleEmployee,
	}))
}

func doJSON(t *testing.T, app *fiber.App, method, path, cookie string, body interface{}) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func extractSessionCookie(t *testing.T, resp *http.Response) string {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == handler.SessionCookie {
			return handler.SessionCookie + "=" + c.Value
		}
	}
	t.Fatal("no session cookie in response")
	return ""
}

// loginEmployee completes the full two-factor handshake and returns the
// authenticated session cookie.
func loginEmployee(t *testing.T, app *fiber.App, notifier *captureNotifier, username, email, password string) string {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, "password step should succeed")
	cookie := extractSessionCookie(t, resp)
	resp.Body.Close()

	code := notifier.lastCode(email)
	require.Len(t, code, 6, "a 6-digit code should have been issued")

	resp = doJSON(t, app, http.MethodPost, "/api/auth/verify-otp", cookie, map[string]string{"otp": code})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, "OTP step should succeed")
	resp.Body.Close()

	return cookie
}

func TestTwoFactorLogin_Integration_FullHandshake(t *testing.T) {
	app, notifier := setupPortalApp(t)
	createPortalUser(t, "it_employee", "it_employee@portal.test", "hunter2hunter2")

	// Step 1: password check issues an OTP and a pending session.
	resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "it_employee",
		"password": "hunter2hunter2",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	cookie := extractSessionCookie(t, resp)

	var loginBody model.LoginResponse
	decodeBody(t, resp, &loginBody)
	assert.True(t, loginBody.RequiresOTP)
	assert.NotContains(t, loginBody.Email, "it_employee@portal.test", "full email must not leak")

	// The pending session does not open authenticated routes.
	resp = doJSON(t, app, http.MethodGet, "/api/redemptions", cookie, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Step 2: a wrong code is rejected but keeps the challenge alive.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/verify-otp", cookie, map[string]string{"otp": "000000"})
	code := notifier.lastCode("it_employee@portal.test")
	if code == "000000" {
		t.Skip("guessed the issued code, rerun")
	}
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Step 3: the real code completes the login.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/verify-otp", cookie, map[string]string{"otp": code})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/auth/me", cookie, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var me map[string]interface{}
	decodeBody(t, resp, &me)
	user, ok := me["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "it_employee", user["username"])
}

func TestTwoFactorLogin_Integration_WrongPassword(t *testing.T) {
	app, notifier := setupPortalApp(t)
	createPortalUser(t, "it_employee", "it_employee@portal.test", "hunter2hunter2")

	resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "it_employee",
		"password": "wrong-password",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	assert.Empty(t, notifier.lastCode("it_employee@portal.test"), "no code should be issued on a failed password check")
}

func TestMintAndRedeem_Integration_HappyPath(t *testing.T) {
	app, notifier := setupPortalApp(t)
	createPortalUser(t, "it_redeemer", "it_redeemer@portal.test", "hunter2hunter2")
	cookie := loginEmployee(t, app, notifier, "it_redeemer", "it_redeemer@portal.test", "hunter2hunter2")

	vendorID := createTestVendor(t, "redeem-http@vendor.test")
	quota := 3
	offerID := createTestOffer(t, vendorID, &quota)

	// Mint a QR token.
	resp := doJSON(t, app, http.MethodPost, "/api/offers/"+offerID+"/qr", cookie, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var mint model.MintTokenResponse
	decodeBody(t, resp, &mint)
	require.NotEmpty(t, mint.Token)
	assert.Equal(t, 300, mint.ExpiresIn)

	// Present it.
	resp = doJSON(t, app, http.MethodPost, "/api/redeem", cookie, map[string]string{
		"token":    mint.Token,
		"location": "Downtown branch",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var red model.Redemption
	decodeBody(t, resp, &red)
	assert.Equal(t, offerID, red.OfferID)
	assert.Equal(t, vendorID, red.VendorID)
	assert.Equal(t, "Downtown branch", red.Location)

	// The ledger and counter moved together.
	redemptionCount, ledgerCount := getOfferCounters(t, offerID)
	assert.Equal(t, 1, redemptionCount)
	assert.Equal(t, 1, ledgerCount)

	// The history shows the entry.
	resp = doJSON(t, app, http.MethodGet, "/api/redemptions", cookie, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var history map[string][]model.Redemption
	decodeBody(t, resp, &history)
	assert.Len(t, history["redemptions"], 1)
}

func TestMintToken_Integration_RequiresAuthentication(t *testing.T) {
	app, _ := setupPortalApp(t)

	vendorID := createTestVendor(t, "anon@vendor.test")
	offerID := createTestOffer(t, vendorID, nil)

	resp := doJSON(t, app, http.MethodPost, "/api/offers/"+offerID+"/qr", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestRedeem_Integration_TamperedToken(t *testing.T) {
	app, notifier := setupPortalApp(t)
	createPortalUser(t, "it_tamper", "it_tamper@portal.test", "hunter2hunter2")
	cookie := loginEmployee(t, app, notifier, "it_tamper", "it_tamper@portal.test", "hunter2hunter2")

	vendorID := createTestVendor(t, "tamper@vendor.test")
	offerID := createTestOffer(t, vendorID, nil)

	resp := doJSON(t, app, http.MethodPost, "/api/offers/"+offerID+"/qr", cookie, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var mint model.MintTokenResponse
	decodeBody(t, resp, &mint)

	// Flip the last signature character.
	tampered := mint.Token[:len(mint.Token)-1]
	if mint.Token[len(mint.Token)-1] == 'a' {
		tampered += "b"
	} else {
		tampered += "a"
	}

	resp = doJSON(t, app, http.MethodPost, "/api/redeem", cookie, map[string]string{"token": tampered})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	_, ledgerCount := getOfferCounters(t, offerID)
	assert.Equal(t, 0, ledgerCount)
}

func TestVendorLifecycle_Integration_RegisterApproveLogin(t *testing.T) {
	app, _ := setupPortalApp(t)

	const email = "lifecycle@vendor.test"

	// Register.
	resp := doJSON(t, app, http.MethodPost, "/api/vendor/register", "", map[string]string{
		"company_name": "Lifecycle Trading LLC",
		"email":        email,
		"password":     "vendor-secret-1",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Duplicate registration conflicts.
	resp = doJSON(t, app, http.MethodPost, "/api/vendor/register", "", map[string]string{
		"company_name": "Lifecycle Trading LLC",
		"email":        email,
		"password":     "vendor-secret-1",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Login before approval is refused with the status disclosed.
	resp = doJSON(t, app, http.MethodPost, "/api/vendor/login", "", map[string]string{
		"email":    email,
		"password": "vendor-secret-1",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	var result map[string]string
	decodeBody(t, resp, &result)
	assert.Contains(t, result["error"], "pending")

	approveVendorInDB(t, email)

	// Wrong password after approval is still a plain 401.
	resp = doJSON(t, app, http.MethodPost, "/api/vendor/login", "", map[string]string{
		"email":    email,
		"password": "not-the-password",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Approved vendor logs in and reaches the dashboard.
	resp = doJSON(t, app, http.MethodPost, "/api/vendor/login", "", map[string]string{
		"email":    email,
		"password": "vendor-secret-1",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	vendorCookie := extractSessionCookie(t, resp)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/vendor/dashboard", vendorCookie, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestBrowse_Integration_OnlyActiveOffersVisible(t *testing.T) {
	app, _ := setupPortalApp(t)

	vendorID := createTestVendor(t, "browse@vendor.test")
	activeID := createTestOffer(t, vendorID, nil)

	ctx := context.Background()
	_, err := testPool.Exec(ctx,
		`INSERT INTO offers (id, vendor_id, title, category_id, discount_type, discount_value,
		                     start_date, end_date, status)
		 VALUES ('offer_pending_it', $1, 'Unmoderated offer', 'dining', 'fixed', 10,
		         now() - interval '1 day', now() + interval '30 days', 'pending')`,
		vendorID)
	require.NoError(t, err)

	resp := doJSON(t, app, http.MethodGet, "/api/offers", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string][]model.Offer
	decodeBody(t, resp, &body)
	offers := body["offers"]
	require.Len(t, offers, 1, "only the approved offer should be listed")
	assert.Equal(t, activeID, offers[0].ID)
}

func TestOfferDetail_Integration_CountsViews(t *testing.T) {
	app, _ := setupPortalApp(t)

	vendorID := createTestVendor(t, "views@vendor.test")
	offerID := createTestOffer(t, vendorID, nil)

	for i := 0; i < 3; i++ {
		resp := doJSON(t, app, http.MethodGet, "/api/offers/"+offerID, "", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	var viewCount int
	err := testPool.QueryRow(context.Background(),
		"SELECT view_count FROM offers WHERE id = $1", offerID).Scan(&viewCount)
	require.NoError(t, err)
	assert.Equal(t, 3, viewCount)
}

func TestAdminRoutes_Integration_RequireAdminAccount(t *testing.T) {
	app, notifier := setupPortalApp(t)
	createPortalUser(t, "it_regular", "it_regular@portal.test", "hunter2hunter2")
	cookie := loginEmployee(t, app, notifier, "it_regular", "it_regular@portal.test", "hunter2hunter2")

	resp := doJSON(t, app, http.MethodGet, "/api/admin/vendors", cookie, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/admin/vendors", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

//go:build integration

// End-to-end API flow tests that verify the vendor journey through the
// portal: registration, moderation, publishing an offer, and seeing it
// appear in the public catalog.
//
// These tests run against the real docker-compose infrastructure. The only
// database touch is the moderation step, which otherwise needs an admin
// OTP inbox.
package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"
)

// TestE2E_VendorJourney tests the complete vendor happy path:
// 1. Register a vendor via API
// 2. Login is refused while the registration is pending
// 3. Approve the vendor (database stand-in for the admin console)
// 4. Login and create an offer via API
// 5. The offer stays out of the public catalog until approved
// 6. Approve the offer and find it in the public catalog
func TestE2E_VendorJourney(t *testing.T) {
	cleanupTables(t)

	const (
		vendorEmail    = "e2e-journey@vendor.test"
		vendorPassword = "e2e-vendor-pass"
	)
	client := newSessionClient(t)

	// Step 1: Register
	t.Log("Step 1: Registering vendor via API")
	resp, err := postJSON(client, formatURL("/api/vendor/register"), map[string]string{
		"company_name":   "E2E Trading LLC",
		"email":          vendorEmail,
		"password":       vendorPassword,
		"contact_person": "Jamie",
		"phone":          "+971500000000",
	})
	if err != nil {
		t.Fatalf("register request failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 from register, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Step 2: Login before approval is refused
	t.Log("Step 2: Login attempt while pending")
	resp, err = postJSON(client, formatURL("/api/vendor/login"), map[string]string{
		"email":    vendorEmail,
		"password": vendorPassword,
	})
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 while pending, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Step 3: Approve
	t.Log("Step 3: Approving vendor")
	approveVendorInDB(t, vendorEmail)

	// Step 4: Login and create an offer
	t.Log("Step 4: Logging in and creating an offer")
	resp, err = postJSON(client, formatURL("/api/vendor/login"), map[string]string{
		"email":    vendorEmail,
		"password": vendorPassword,
	})
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after approval, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	start := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	end := time.Now().UTC().Add(30 * 24 * time.Hour).Format(time.RFC3339)
	resp, err = postJSON(client, formatURL("/api/vendor/offers"), map[string]interface{}{
		"title":          "E2E lunch special",
		"description":    "Twenty percent off weekday lunches",
		"category_id":    "dining",
		"discount_type":  "percentage",
		"discount_value": 20,
		"start_date":     start,
		"end_date":       end,
		"quota":          50,
	})
	if err != nil {
		t.Fatalf("create offer request failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("expected 201 from create offer, got %d: %s", resp.StatusCode, body)
	}
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := readJSONResponse(resp, &created); err != nil {
		t.Fatalf("decode create offer response: %v", err)
	}
	if created.Status != "pending" {
		t.Fatalf("new offers should start pending, got %q", created.Status)
	}

	// Step 5: Not visible in the public catalog yet
	t.Log("Step 5: Checking the public catalog before moderation")
	if countPublicOffers(t, client) != 0 {
		t.Fatal("unmoderated offer leaked into the public catalog")
	}

	// Step 6: Approve and find it
	t.Log("Step 6: Approving the offer and browsing again")
	approveOfferInDB(t, created.ID)
	if countPublicOffers(t, client) != 1 {
		t.Fatal("approved offer should appear in the public catalog")
	}

	t.Log("E2E vendor journey completed successfully!")
}

// TestE2E_VendorDashboardReflectsOffers verifies the dashboard totals after
// publishing offers.
func TestE2E_VendorDashboardReflectsOffers(t *testing.T) {
	cleanupTables(t)

	const (
		vendorEmail    = "e2e-dashboard@vendor.test"
		vendorPassword = "e2e-vendor-pass"
	)
	client := newSessionClient(t)

	resp, err := postJSON(client, formatURL("/api/vendor/register"), map[string]string{
		"company_name": "E2E Dashboard LLC",
		"email":        vendorEmail,
		"password":     vendorPassword,
	})
	if err != nil {
		t.Fatalf("register request failed: %v", err)
	}
	resp.Body.Close()
	approveVendorInDB(t, vendorEmail)

	resp, err = postJSON(client, formatURL("/api/vendor/login"), map[string]string{
		"email":    vendorEmail,
		"password": vendorPassword,
	})
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from login, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	start := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	end := time.Now().UTC().Add(30 * 24 * time.Hour).Format(time.RFC3339)
	for i := 0; i < 3; i++ {
		resp, err = postJSON(client, formatURL("/api/vendor/offers"), map[string]interface{}{
			"title":          fmt.Sprintf("Dashboard offer %d", i),
			"description":    "An offer for the dashboard count",
			"category_id":    "dining",
			"discount_type":  "fixed",
			"discount_value": 5,
			"start_date":     start,
			"end_date":       end,
		})
		if err != nil {
			t.Fatalf("create offer request failed: %v", err)
		}
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201 from create offer, got %d", resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp, err = getJSON(client, formatURL("/api/vendor/dashboard"))
	if err != nil {
		t.Fatalf("dashboard request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from dashboard, got %d", resp.StatusCode)
	}
	var stats struct {
		TotalOffers   int `json:"total_offers"`
		PendingOffers int `json:"pending_offers"`
	}
	if err := readJSONResponse(resp, &stats); err != nil {
		t.Fatalf("decode dashboard response: %v", err)
	}
	if stats.TotalOffers != 3 || stats.PendingOffers != 3 {
		t.Fatalf("expected 3 pending offers on the dashboard, got %+v", stats)
	}
}

// TestE2E_ValidationErrors tests API validation over the wire.
func TestE2E_ValidationErrors(t *testing.T) {
	cleanupTables(t)
	client := newSessionClient(t)

	// Test 1: Vendor registration without a password
	t.Log("Test 1: Vendor registration without a password")
	resp, err := postJSON(client, formatURL("/api/vendor/register"), map[string]string{
		"company_name": "No Password LLC",
		"email":        "nopassword@vendor.test",
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Test 2: Vendor registration with a malformed email
	t.Log("Test 2: Vendor registration with a malformed email")
	resp, err = postJSON(client, formatURL("/api/vendor/register"), map[string]string{
		"company_name": "Bad Email LLC",
		"email":        "not-an-email",
		"password":     "long-enough-pass",
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed email, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Test 3: Employee login without a username
	t.Log("Test 3: Employee login without a username")
	resp, err = postJSON(client, formatURL("/api/auth/login"), map[string]string{
		"password": "whatever",
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing username, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Test 4: Redeem without a session
	t.Log("Test 4: Redeem without a session")
	resp, err = postJSON(client, formatURL("/api/redeem"), map[string]string{
		"token": "a:b:0:deadbeef",
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	t.Log("E2E validation errors verified!")
}

// countPublicOffers fetches the public catalog and returns the offer count.
func countPublicOffers(t *testing.T, client *http.Client) int {
	t.Helper()
	resp, err := getJSON(client, formatURL("/api/offers"))
	if err != nil {
		t.Fatalf("browse request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from browse, got %d", resp.StatusCode)
	}
	var body struct {
		Offers []json.RawMessage `json:"offers"`
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read browse response: %v", err)
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode browse response: %v", err)
	}
	return len(body.Offers)
}

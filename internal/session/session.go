// Package session implements the server-held session store. Clients hold
// an opaque token (delivered as a cookie); everything else lives server
// side with an idle TTL that is renewed on every lookup.
package session

import (
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// UserSession is the trusted context of a fully authenticated employee or
// admin.
type UserSession struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

// VendorSession is the trusted context of an authenticated vendor.
type VendorSession struct {
	VendorID    string `json:"id"`
	CompanyName string `json:"company_name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

// Data is the server-side state behind one session token. A request
// carries at most one UserSession and at most one VendorSession.
// PendingUserID marks a half-completed two-factor login: the password has
// been verified but the OTP has not.
type Data struct {
	User          *UserSession
	Vendor        *VendorSession
	PendingUserID string
}

// Manager stores sessions keyed by opaque token with an idle TTL.
type Manager struct {
	store *gocache.Cache
	ttl   time.Duration
}

// NewManager creates a session manager whose sessions expire after ttl of
// inactivity.
func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		store: gocache.New(ttl, 10*time.Minute),
		ttl:   ttl,
	}
}

// Start creates an empty session and returns its token.
func (m *Manager) Start() (string, *Data) {
	token := uuid.NewString()
	data := &Data{}
	m.store.Set(token, data, m.ttl)
	return token, data
}

// Get returns the session behind the token. A hit renews the idle TTL
// (rolling expiry, matching cookie-session behaviour).
func (m *Manager) Get(token string) (*Data, bool) {
	v, ok := m.store.Get(token)
	if !ok {
		return nil, false
	}
	data := v.(*Data)
	m.store.Set(token, data, m.ttl)
	return data, true
}

// Save persists mutated session data and renews the TTL.
func (m *Manager) Save(token string, data *Data) {
	m.store.Set(token, data, m.ttl)
}

// Destroy removes a session. Used on logout.
func (m *Manager) Destroy(token string) {
	m.store.Delete(token)
}

package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zioncity/zion-sync/internal/form"
	"github.com/zioncity/zion-sync/internal/zion"
)

// AdminTokenKey is the local storage key of the admin panel token
const AdminTokenKey = "admin_token"

// ErrTokenExpired is returned when a stored admin token is past its exp claim
var ErrTokenExpired = errors.New("admin token expired")

// AdminStore holds the admin panel session. It is independent of the user session.
type AdminStore struct {
	api *zion.Client
	kv  KV
	now func() time.Time

	mu    sync.RWMutex
	token string
	admin *zion.Admin
}

var _ zion.Credentials = (*AdminStore)(nil)

// NewAdmin creates an admin session store
func NewAdmin(api *zion.Client, kv KV) *AdminStore {
	return &AdminStore{api: api, kv: kv, now: time.Now}
}

// Token returns the admin token, or ""
func (a *AdminStore) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

// Admin returns the verified admin account, or nil
func (a *AdminStore) Admin() *zion.Admin {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.admin
}

// Initialize verifies the persisted admin token. Tokens whose exp claim has
// passed are discarded without asking the backend.
func (a *AdminStore) Initialize(ctx context.Context) error {
	token, err := a.kv.Get(AdminTokenKey)
	if err != nil {
		return fmt.Errorf("read admin token: %w", err)
	}
	if token == "" {
		return nil
	}

	if a.expired(token) {
		a.mu.Lock()
		a.token = token
		a.clearLocked()
		a.mu.Unlock()
		return ErrTokenExpired
	}

	a.mu.Lock()
	a.token = token
	a.mu.Unlock()

	admin, err := a.api.AdminVerify(ctx, token)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token != token {
		return nil
	}
	switch {
	case err == nil:
		a.admin = admin
		return nil
	case errors.Is(err, zion.ErrUnauthorized):
		a.clearLocked()
		return err
	default:
		log.Printf("Warning: admin verify failed, keeping token: %v", err)
		return err
	}
}

// expired reports whether token is a JWT with an exp claim in the past.
// The signature is not checked here; the backend remains the authority.
func (a *AdminStore) expired(token string) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !a.now().Before(claims.ExpiresAt.Time)
}

// Login signs in to the admin panel
func (a *AdminStore) Login(ctx context.Context, email, password string) error {
	f := form.New(
		form.Field{Name: "email", Label: "Email", Required: true},
		form.Field{Name: "password", Label: "Password", Required: true},
	)
	f.Set("email", email)
	f.Set("password", password)
	if err := f.Validate(); err != nil {
		return err
	}

	resp, err := a.api.AdminLogin(ctx, email, password)
	if err != nil {
		return err
	}
	if resp.AccessToken == "" {
		return errors.New("server returned no access token")
	}
	if err := a.kv.Set(AdminTokenKey, resp.AccessToken); err != nil {
		return fmt.Errorf("persist admin token: %w", err)
	}

	a.mu.Lock()
	a.token = resp.AccessToken
	a.admin = resp.Admin
	a.mu.Unlock()
	return nil
}

// Logout drops the admin session locally
func (a *AdminStore) Logout() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = ""
	a.admin = nil
	if err := a.kv.Delete(AdminTokenKey); err != nil {
		return fmt.Errorf("delete admin token: %w", err)
	}
	return nil
}

// Invalidate is called when an admin call gets a 401
func (a *AdminStore) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clearLocked()
}

func (a *AdminStore) clearLocked() {
	a.token = ""
	a.admin = nil
	if err := a.kv.Delete(AdminTokenKey); err != nil {
		log.Printf("Warning: failed to delete admin token: %v", err)
	}
}

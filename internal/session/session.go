// Package session owns the client-side authentication state: the persisted
// bearer token and the profile it belongs to. A Store is the session context
// handed to every component that makes authenticated calls.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/zioncity/zion-sync/internal/form"
	"github.com/zioncity/zion-sync/internal/zion"
)

// TokenKey is the local storage key of the user token
const TokenKey = "zion_token"

// KV is the local persistent storage the token lives in
type KV interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Store holds the current user session
type Store struct {
	api *zion.Client
	kv  KV

	mu      sync.RWMutex
	token   string
	user    *zion.User
	loading bool
}

var _ zion.Credentials = (*Store)(nil)

// New creates a session store. Call Initialize to load the persisted token.
func New(api *zion.Client, kv KV) *Store {
	return &Store{
		api:     api,
		kv:      kv,
		loading: true,
	}
}

// Token returns the current bearer token, or "" when signed out
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the loaded profile, or nil
func (s *Store) User() *zion.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Loading reports whether the start-up profile load has not finished yet
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Client returns the API client bound to this session
func (s *Store) Client() *zion.Client {
	return s.api.WithCredentials(s)
}

// Initialize reads the persisted token and loads its profile.
// A 401 discards the token; any other failure keeps it and leaves the user unset.
func (s *Store) Initialize(ctx context.Context) error {
	token, err := s.kv.Get(TokenKey)
	if err != nil {
		s.setLoading(false)
		return fmt.Errorf("read token: %w", err)
	}

	if token == "" {
		s.mu.Lock()
		s.token = ""
		s.user = nil
		s.loading = false
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	err = s.loadProfile(ctx, token)
	s.setLoading(false)
	return err
}

// Refresh re-fetches the profile after a server-side change to the user
func (s *Store) Refresh(ctx context.Context) error {
	token := s.Token()
	if token == "" {
		return nil
	}
	return s.loadProfile(ctx, token)
}

func (s *Store) loadProfile(ctx context.Context, token string) error {
	user, err := s.api.Me(ctx, token)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Signed out or replaced while the request was in flight
	if s.token != token {
		return nil
	}

	switch {
	case err == nil:
		s.user = user
		return nil
	case errors.Is(err, zion.ErrUnauthorized):
		s.clearLocked()
		return err
	default:
		log.Printf("Warning: profile load failed, keeping token: %v", err)
		return err
	}
}

// Login submits credentials and persists the returned token
func (s *Store) Login(ctx context.Context, email, password string) error {
	f := form.New(
		form.Field{Name: "email", Label: "Email", Required: true},
		form.Field{Name: "password", Label: "Password", Required: true},
	)
	f.Set("email", email)
	f.Set("password", password)
	if err := f.Validate(); err != nil {
		return err
	}

	resp, err := s.api.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return err
	}
	return s.establish(ctx, resp)
}

// RegistrationForm returns the form backing account creation
func RegistrationForm() *form.Form {
	return form.New(
		form.Field{Name: "first_name", Label: "First name", Required: true},
		form.Field{Name: "last_name", Label: "Last name", Required: true},
		form.Field{Name: "middle_name", Label: "Middle name"},
		form.Field{Name: "email", Label: "Email", Required: true, Email: true},
		form.Field{Name: "phone", Label: "Phone"},
		form.Field{Name: "password", Label: "Password", Required: true, MinLen: 6},
	)
}

// Register creates an account and signs it in
func (s *Store) Register(ctx context.Context, reg zion.Registration) error {
	f := RegistrationForm()
	f.Set("first_name", reg.FirstName)
	f.Set("last_name", reg.LastName)
	f.Set("middle_name", reg.MiddleName)
	f.Set("email", reg.Email)
	f.Set("phone", reg.Phone)
	f.Set("password", reg.Password)
	if err := f.Validate(); err != nil {
		return err
	}

	reg.Email = strings.TrimSpace(reg.Email)
	resp, err := s.api.Register(ctx, reg)
	if err != nil {
		return err
	}
	return s.establish(ctx, resp)
}

// establish persists a freshly issued token and the user that came with it
func (s *Store) establish(ctx context.Context, resp *zion.AuthResponse) error {
	if resp.AccessToken == "" {
		return errors.New("server returned no access token")
	}

	user := resp.User
	if user == nil {
		var err error
		user, err = s.api.Me(ctx, resp.AccessToken)
		if err != nil {
			return err
		}
	}

	if err := s.kv.Set(TokenKey, resp.AccessToken); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}

	s.mu.Lock()
	s.token = resp.AccessToken
	s.user = user
	s.loading = false
	s.mu.Unlock()
	return nil
}

// Logout drops the session locally. No request is sent.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	if err := s.kv.Delete(TokenKey); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// Invalidate is called when any authenticated call gets a 401
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

// CompleteOnboarding submits the onboarding answers and reloads the profile
func (s *Store) CompleteOnboarding(ctx context.Context, data map[string]any) error {
	if err := s.Client().CompleteOnboarding(ctx, data); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

func (s *Store) clearLocked() {
	s.token = ""
	s.user = nil
	if err := s.kv.Delete(TokenKey); err != nil {
		log.Printf("Warning: failed to delete persisted token: %v", err)
	}
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

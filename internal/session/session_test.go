package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zioncity/zion-sync/internal/form"
	"github.com/zioncity/zion-sync/internal/storage"
	"github.com/zioncity/zion-sync/internal/zion"
)

// fakeBackend serves the auth endpoints and counts requests
type fakeBackend struct {
	*httptest.Server
	requests   atomic.Int32
	meStatus   int
	onboarded  bool
	loginToken string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{meStatus: http.StatusOK, loginToken: "tok-new"}
	mux := http.NewServeMux()

	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if fb.meStatus != http.StatusOK {
			w.WriteHeader(fb.meStatus)
			_, _ = w.Write([]byte(`{"detail":"Invalid token"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(zion.User{ID: "u1", FirstName: "Ada", IsOnboarded: fb.onboarded})
	})
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Incorrect email or password"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(zion.AuthResponse{
			AccessToken: fb.loginToken,
			User:        &zion.User{ID: "u1", Email: body["email"]},
		})
	})
	mux.HandleFunc("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(zion.AuthResponse{AccessToken: "tok-reg"})
	})
	mux.HandleFunc("/api/onboarding", func(w http.ResponseWriter, r *http.Request) {
		fb.onboarded = true
		w.WriteHeader(http.StatusNoContent)
	})

	fb.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fb.requests.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(fb.Close)
	return fb
}

func newStore(t *testing.T, url string, kv KV) *Store {
	t.Helper()
	return New(zion.NewClient(url, time.Second), kv)
}

func TestStore_InitializeWithoutToken(t *testing.T) {
	fb := newFakeBackend(t)
	s := newStore(t, fb.URL, storage.NewMemory())

	assert.True(t, s.Loading())
	require.NoError(t, s.Initialize(context.Background()))
	assert.False(t, s.Loading())
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
	assert.Equal(t, int32(0), fb.requests.Load())
}

func TestStore_InitializeLoadsProfile(t *testing.T) {
	fb := newFakeBackend(t)
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(TokenKey, "tok-1"))

	s := newStore(t, fb.URL, kv)
	require.NoError(t, s.Initialize(context.Background()))
	require.NotNil(t, s.User())
	assert.Equal(t, "Ada", s.User().FirstName)
	assert.Equal(t, "tok-1", s.Token())
}

func TestStore_InitializeRejectedTokenClearsSession(t *testing.T) {
	fb := newFakeBackend(t)
	fb.meStatus = http.StatusUnauthorized
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(TokenKey, "tok-old"))

	s := newStore(t, fb.URL, kv)
	err := s.Initialize(context.Background())
	assert.ErrorIs(t, err, zion.ErrUnauthorized)

	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
	persisted, _ := kv.Get(TokenKey)
	assert.Empty(t, persisted)
}

func TestStore_InitializeServerErrorKeepsToken(t *testing.T) {
	fb := newFakeBackend(t)
	fb.meStatus = http.StatusBadGateway
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(TokenKey, "tok-1"))

	s := newStore(t, fb.URL, kv)
	require.Error(t, s.Initialize(context.Background()))

	assert.Equal(t, "tok-1", s.Token())
	assert.Nil(t, s.User())
	persisted, _ := kv.Get(TokenKey)
	assert.Equal(t, "tok-1", persisted)
}

func TestStore_InitializeNetworkErrorKeepsToken(t *testing.T) {
	fb := newFakeBackend(t)
	url := fb.URL
	fb.Close()

	kv := storage.NewMemory()
	require.NoError(t, kv.Set(TokenKey, "tok-1"))

	s := newStore(t, url, kv)
	err := s.Initialize(context.Background())
	assert.ErrorIs(t, err, zion.ErrNetwork)
	assert.Equal(t, "network error", zion.Message(err))

	assert.Nil(t, s.User())
	assert.False(t, s.Loading())
	persisted, _ := kv.Get(TokenKey)
	assert.Equal(t, "tok-1", persisted)
}

func TestStore_LoginPersistsToken(t *testing.T) {
	fb := newFakeBackend(t)
	kv := storage.NewMemory()
	s := newStore(t, fb.URL, kv)

	require.NoError(t, s.Login(context.Background(), "ada@example.com", "secret1"))
	assert.Equal(t, "tok-new", s.Token())
	assert.Equal(t, "ada@example.com", s.User().Email)
	persisted, _ := kv.Get(TokenKey)
	assert.Equal(t, "tok-new", persisted)
}

func TestStore_LoginFailureReturnsServerMessage(t *testing.T) {
	fb := newFakeBackend(t)
	kv := storage.NewMemory()
	s := newStore(t, fb.URL, kv)

	err := s.Login(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Incorrect email or password", zion.Message(err))
	assert.Empty(t, s.Token())
	persisted, _ := kv.Get(TokenKey)
	assert.Empty(t, persisted)
}

func TestStore_LoginValidatesLocally(t *testing.T) {
	fb := newFakeBackend(t)
	s := newStore(t, fb.URL, storage.NewMemory())

	err := s.Login(context.Background(), "", "")
	var verr *form.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, int32(0), fb.requests.Load())
}

func TestStore_RegisterRequiresPasswordLength(t *testing.T) {
	fb := newFakeBackend(t)
	s := newStore(t, fb.URL, storage.NewMemory())

	err := s.Register(context.Background(), zion.Registration{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "12345",
	})
	var verr *form.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.Has("password"))
	assert.Equal(t, int32(0), fb.requests.Load())
}

func TestStore_RegisterFetchesProfileWhenMissing(t *testing.T) {
	fb := newFakeBackend(t)
	s := newStore(t, fb.URL, storage.NewMemory())

	err := s.Register(context.Background(), zion.Registration{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "123456",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok-reg", s.Token())
	require.NotNil(t, s.User())
	assert.Equal(t, "u1", s.User().ID)
}

func TestStore_LogoutIsLocal(t *testing.T) {
	fb := newFakeBackend(t)
	kv := storage.NewMemory()
	s := newStore(t, fb.URL, kv)
	require.NoError(t, s.Login(context.Background(), "ada@example.com", "secret1"))
	before := fb.requests.Load()

	require.NoError(t, s.Logout())
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
	persisted, _ := kv.Get(TokenKey)
	assert.Empty(t, persisted)
	assert.Equal(t, before, fb.requests.Load())
}

func TestStore_UnauthorizedCallInvalidatesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	kv := storage.NewMemory()
	require.NoError(t, kv.Set(TokenKey, "tok-1"))
	s := newStore(t, srv.URL, kv)
	s.token = "tok-1"
	s.user = &zion.User{ID: "u1"}

	_, err := s.Client().ListPosts(context.Background(), "org", "all")
	assert.ErrorIs(t, err, zion.ErrUnauthorized)
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
	persisted, _ := kv.Get(TokenKey)
	assert.Empty(t, persisted)
}

func TestStore_CompleteOnboardingRefreshesProfile(t *testing.T) {
	fb := newFakeBackend(t)
	s := newStore(t, fb.URL, storage.NewMemory())
	require.NoError(t, s.Login(context.Background(), "ada@example.com", "secret1"))
	assert.False(t, s.User().IsOnboarded)

	require.NoError(t, s.CompleteOnboarding(context.Background(), map[string]any{"role": "parent"}))
	assert.True(t, s.User().IsOnboarded)
}

func TestStore_RefreshWithoutTokenIsNoop(t *testing.T) {
	fb := newFakeBackend(t)
	s := newStore(t, fb.URL, storage.NewMemory())
	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, int32(0), fb.requests.Load())
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestAdminStore_ExpiredTokenDiscardedLocally(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	kv := storage.NewMemory()
	require.NoError(t, kv.Set(AdminTokenKey, signedToken(t, time.Now().Add(-time.Hour))))

	a := NewAdmin(zion.NewClient(srv.URL, time.Second), kv)
	err := a.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Empty(t, a.Token())
	assert.Equal(t, int32(0), calls.Load())
	persisted, _ := kv.Get(AdminTokenKey)
	assert.Empty(t, persisted)
}

func TestAdminStore_VerifiesLiveToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/verify", r.URL.Path)
		_ = json.NewEncoder(w).Encode(zion.Admin{ID: "admin-1", Email: "root@zion.city"})
	}))
	defer srv.Close()

	kv := storage.NewMemory()
	token := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, kv.Set(AdminTokenKey, token))

	a := NewAdmin(zion.NewClient(srv.URL, time.Second), kv)
	require.NoError(t, a.Initialize(context.Background()))
	assert.Equal(t, token, a.Token())
	require.NotNil(t, a.Admin())
	assert.Equal(t, "root@zion.city", a.Admin().Email)
}

func TestAdminStore_RejectedTokenCleared(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	kv := storage.NewMemory()
	require.NoError(t, kv.Set(AdminTokenKey, "opaque-token"))

	a := NewAdmin(zion.NewClient(srv.URL, time.Second), kv)
	assert.ErrorIs(t, a.Initialize(context.Background()), zion.ErrUnauthorized)
	assert.Empty(t, a.Token())
	persisted, _ := kv.Get(AdminTokenKey)
	assert.Empty(t, persisted)
}

func TestAdminStore_LoginAndLogout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(zion.AdminAuthResponse{AccessToken: "adm", Admin: &zion.Admin{ID: "a1"}})
	}))
	defer srv.Close()

	kv := storage.NewMemory()
	a := NewAdmin(zion.NewClient(srv.URL, time.Second), kv)
	require.NoError(t, a.Login(context.Background(), "root@zion.city", "pw"))
	persisted, _ := kv.Get(AdminTokenKey)
	assert.Equal(t, "adm", persisted)

	require.NoError(t, a.Logout())
	assert.Nil(t, a.Admin())
	persisted, _ = kv.Get(AdminTokenKey)
	assert.Empty(t, persisted)
}

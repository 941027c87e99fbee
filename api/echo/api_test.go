package echo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/plutus-app/plutus/domain"
	"github.com/plutus-app/plutus/errors"
	"github.com/plutus-app/plutus/internal/identity"
	"github.com/plutus-app/plutus/internal/pointer"
	"github.com/plutus-app/plutus/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (r *memSessionRepo) CreateSession(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *memSessionRepo) TouchSession(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return errors.ErrSessionNotFound
	}
	s.LastActive = time.Now().UTC()
	return nil
}

func (r *memSessionRepo) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, errors.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memSessionRepo) DeleteSession(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *memSessionRepo) ListSessionsByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Session
	for _, s := range r.sessions {
		if s.UserID == userID && s.IsActive() {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*domain.UserProfile
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{profiles: make(map[string]*domain.UserProfile)}
}

func (r *memProfileRepo) GetProfile(ctx context.Context, uid string) (*domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[uid]
	if !ok {
		return nil, errors.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (r *memProfileRepo) UpsertProfile(ctx context.Context, profile *domain.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.UID] = profile.Clone()
	return nil
}

func newTestAPI(t *testing.T) (*echo.Echo, *identity.LocalProvider) {
	t.Helper()

	provider := identity.NewLocalProvider(identity.NewBcryptPasswordHasher(bcrypt.MinCost))
	_, err := provider.Register("ada@example.com", "s3cret", "Ada", "")
	require.NoError(t, err)

	profiles := newMemProfileRepo()
	mgr := services.NewSessionManager(newMemSessionRepo(), pointer.NewMemoryStore(), time.Hour)
	pub := services.NewAuthStatePublisher(provider, profiles, mgr, "test-agent", time.Minute)
	t.Cleanup(pub.Close)

	e := echo.New()
	api := NewSessionAPI(pub, profiles, provider, nil)
	api.RegisterRoutes(e)
	return e, provider
}

func TestLoginHandlerRejectsBadCredentials(t *testing.T) {
	e, _ := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login",
		strings.NewReader(`{"email":"ada@example.com","password":"wrong"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), errors.CodeUnauthenticated)
}

func TestLoginHandlerReturnsAuthenticatedState(t *testing.T) {
	e, _ := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login",
		strings.NewReader(`{"email":"ada@example.com","password":"s3cret"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isAuthenticated":true`)
	assert.Contains(t, rec.Body.String(), `"loading":false`)
}

func TestGuardedRoutesRequireAuth(t *testing.T) {
	e, _ := newTestAPI(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/v1/auth/me"},
		{http.MethodGet, "/v1/sessions"},
		{http.MethodDelete, "/v1/sessions/abc"},
		{http.MethodPost, "/v1/sessions/end-others"},
		{http.MethodPost, "/v1/auth/logout"},
	} {
		req := httptest.NewRequest(route.method, route.path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", route.method, route.path)
	}
}

func TestSessionListAfterLogin(t *testing.T) {
	e, provider := newTestAPI(t)
	_, err := provider.SignIn(context.Background(), "ada@example.com", "s3cret")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isCurrent":true`)
}

func TestLogoutHandlerSignsOut(t *testing.T) {
	e, provider := newTestAPI(t)
	_, err := provider.SignIn(context.Background(), "ada@example.com", "s3cret")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// The guard now rejects the follow-up request.
	req = httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/plutus-app/plutus/domain"
	"github.com/plutus-app/plutus/errors"
	"github.com/plutus-app/plutus/internal/identity"
	"github.com/plutus-app/plutus/internal/pointer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- In-memory fakes ---

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (r *memSessionRepo) CreateSession(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *session
	r.sessions[session.ID] = &cp
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

func (r *memSessionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
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

// --- Fixture ---

type publisherFixture struct {
	provider *identity.LocalProvider
	sessions *memSessionRepo
	profiles *memProfileRepo
	pointer  *pointer.MemoryStore
	pub      *AuthStatePublisher
	user     *domain.AuthUser
}

func newPublisherFixture(t *testing.T) *publisherFixture {
	t.Helper()

	provider := identity.NewLocalProvider(identity.NewBcryptPasswordHasher(bcrypt.MinCost))
	user, err := provider.Register("ada@example.com", "s3cret", "Ada", "")
	require.NoError(t, err)

	sessions := newMemSessionRepo()
	profiles := newMemProfileRepo()
	ptr := pointer.NewMemoryStore()
	mgr := NewSessionManager(sessions, ptr, time.Hour)

	pub := NewAuthStatePublisher(provider, profiles, mgr, testUserAgent, time.Minute)
	t.Cleanup(pub.Close)

	return &publisherFixture{
		provider: provider,
		sessions: sessions,
		profiles: profiles,
		pointer:  ptr,
		pub:      pub,
		user:     user,
	}
}

// --- Tests ---

func TestPublisherInitialStateIsSignedOut(t *testing.T) {
	f := newPublisherFixture(t)

	state := f.pub.State()
	assert.False(t, state.IsAuthenticated())
	assert.Nil(t, state.Profile)
	assert.False(t, state.Loading, "initial nil auth callback completes loading")
}

func TestPublisherLoginLoadsProfileAndCreatesSession(t *testing.T) {
	f := newPublisherFixture(t)
	require.NoError(t, f.profiles.UpsertProfile(context.Background(), &domain.UserProfile{
		UID:        f.user.UID,
		Attributes: map[string]any{"currency": "EUR"},
	}))

	_, err := f.provider.SignIn(context.Background(), "ada@example.com", "s3cret")
	require.NoError(t, err)

	state := f.pub.State()
	require.True(t, state.IsAuthenticated())
	assert.Equal(t, f.user.UID, state.CurrentUser.UID)
	assert.False(t, state.Loading, "loading drops only after profile and session settle")
	require.NotNil(t, state.Profile)
	assert.Equal(t, "EUR", state.Profile.Attributes["currency"])

	assert.Equal(t, 1, f.sessions.count(), "fresh login creates exactly one session")
	assert.NotEmpty(t, f.pointer.Get())
}

func TestPublisherLoginWithoutProfileDocument(t *testing.T) {
	f := newPublisherFixture(t)

	_, err := f.provider.SignIn(context.Background(), "ada@example.com", "s3cret")
	require.NoError(t, err)

	state := f.pub.State()
	assert.True(t, state.IsAuthenticated())
	assert.Nil(t, state.Profile, "missing profile document is not an error")
	assert.False(t, state.Loading)
}

func TestPublisherSignOutClearsState(t *testing.T) {
	f := newPublisherFixture(t)
	_, err := f.provider.SignIn(context.Background(), "ada@example.com", "s3cret")
	require.NoError(t, err)

	require.NoError(t, f.provider.SignOut(context.Background()))

	state := f.pub.State()
	assert.False(t, state.IsAuthenticated())
	assert.Nil(t, state.Profile)
	assert.False(t, state.Loading)
}

func TestLogoutEndsSessionAndSignsOut(t *testing.T) {
	f := newPublisherFixture(t)
	_, err := f.provider.SignIn(context.Background(), "ada@example.com", "s3cret")
	require.NoError(t, err)
	require.Equal(t, 1, f.sessions.count())

	require.NoError(t, f.pub.Logout(context.Background()))

	assert.Zero(t, f.sessions.count(), "logout deletes the current session record")
	assert.Empty(t, f.pointer.Get(), "logout clears the session pointer")
	assert.False(t, f.pub.State().IsAuthenticated())
}

func TestLogoutWithoutUserFails(t *testing.T) {
	f := newPublisherFixture(t)
	assert.ErrorIs(t, f.pub.Logout(context.Background()), errors.ErrNotAuthenticated)
}

func TestUpdateUserDataIsLocalOnly(t *testing.T) {
	f := newPublisherFixture(t)
	_, err := f.provider.SignIn(context.Background(), "ada@example.com", "s3cret")
	require.NoError(t, err)

	f.pub.UpdateUserData(&domain.UserProfile{
		UID:        f.user.UID,
		Attributes: map[string]any{"displayCurrency": "USD"},
	})

	state := f.pub.State()
	require.NotNil(t, state.Profile)
	assert.Equal(t, "USD", state.Profile.Attributes["displayCurrency"])

	// Nothing was persisted; the store still has no document.
	_, err = f.profiles.GetProfile(context.Background(), f.user.UID)
	assert.ErrorIs(t, err, errors.ErrProfileNotFound)
}

func TestPassthroughsRequireAuthentication(t *testing.T) {
	f := newPublisherFixture(t)

	_, err := f.pub.GetUserSessions(context.Background())
	assert.ErrorIs(t, err, errors.ErrNotAuthenticated)
	assert.ErrorIs(t, f.pub.EndSession(context.Background(), "x"), errors.ErrNotAuthenticated)
	assert.ErrorIs(t, f.pub.EndAllOtherSessions(context.Background()), errors.ErrNotAuthenticated)
}

func TestEndAllOtherSessionsLeavesOnlyCurrent(t *testing.T) {
	f := newPublisherFixture(t)
	_, err := f.provider.SignIn(context.Background(), "ada@example.com", "s3cret")
	require.NoError(t, err)

	// Two sessions created by other clients of the same user.
	for _, id := range []string{"other-1", "other-2"} {
		require.NoError(t, f.sessions.CreateSession(context.Background(), &domain.Session{
			ID:     id,
			UserID: f.user.UID,
			Status: domain.SessionStatusActive,
		}))
	}
	require.Equal(t, 3, f.sessions.count())

	require.NoError(t, f.pub.EndAllOtherSessions(context.Background()))

	views, err := f.pub.GetUserSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].IsCurrent)
	assert.Equal(t, f.pointer.Get(), views[0].ID)
}

func TestWatchDeliversStateChanges(t *testing.T) {
	f := newPublisherFixture(t)

	ch, cancel := f.pub.Watch()
	defer cancel()

	// The initial state arrives immediately.
	select {
	case state := <-ch:
		assert.False(t, state.IsAuthenticated())
	case <-time.After(time.Second):
		t.Fatal("no initial state delivered")
	}

	_, err := f.provider.SignIn(context.Background(), "ada@example.com", "s3cret")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		select {
		case state := <-ch:
			return state.IsAuthenticated() && !state.Loading
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

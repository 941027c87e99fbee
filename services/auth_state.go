package services

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/plutus-app/plutus/domain"
	"github.com/plutus-app/plutus/errors"
	"github.com/rs/zerolog/log"
)

// AuthState is the unified reactive value exposed to the rest of the
// application: who is signed in, their profile document, and whether the
// first auth-state callback has completed end to end.
type AuthState struct {
	CurrentUser *domain.AuthUser
	Profile     *domain.UserProfile
	Loading     bool
}

// IsAuthenticated reports whether a user is signed in.
func (s AuthState) IsAuthenticated() bool {
	return s.CurrentUser != nil
}

// AuthStatePublisher is the single source of truth for authentication state.
// It subscribes once to the identity provider; on every auth-state change it
// loads the profile document and delegates to the session manager to
// validate or create the client's session, then publishes the combined
// state. Profile reads go through a TTL cache.
type AuthStatePublisher struct {
	provider domain.AuthStateSource
	profiles domain.ProfileRepository
	sessions *SessionManager
	cache    *ttlcache.Cache[string, *domain.UserProfile]

	userAgent string

	mu          sync.Mutex
	state       AuthState
	watchers    map[int]chan AuthState
	nextWatcher int
	closed      bool

	unsubscribe func()
}

// NewAuthStatePublisher constructs the publisher and subscribes to the
// identity provider. The userAgent identifies this client in session
// records. Close must be called to release the subscription.
func NewAuthStatePublisher(
	provider domain.AuthStateSource,
	profiles domain.ProfileRepository,
	sessions *SessionManager,
	userAgent string,
	profileTTL time.Duration,
) *AuthStatePublisher {
	if profileTTL <= 0 {
		profileTTL = 5 * time.Minute
	}
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *domain.UserProfile](profileTTL),
		ttlcache.WithDisableTouchOnHit[string, *domain.UserProfile](),
	)
	go cache.Start()

	p := &AuthStatePublisher{
		provider:  provider,
		profiles:  profiles,
		sessions:  sessions,
		cache:     cache,
		userAgent: userAgent,
		state:     AuthState{Loading: true},
		watchers:  make(map[int]chan AuthState),
	}
	p.unsubscribe = provider.SubscribeAuthState(p.onAuthStateChange)
	return p
}

// State returns a snapshot of the current auth state.
func (p *AuthStatePublisher) State() AuthState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Watch returns a channel that receives every published state, starting with
// the current one, and a cancel function. Slow consumers only ever see the
// most recent value; intermediate states may be dropped.
func (p *AuthStatePublisher) Watch() (<-chan AuthState, func()) {
	p.mu.Lock()
	id := p.nextWatcher
	p.nextWatcher++
	ch := make(chan AuthState, 1)
	ch <- p.state
	p.watchers[id] = ch
	p.mu.Unlock()

	return ch, func() {
		p.mu.Lock()
		if w, ok := p.watchers[id]; ok {
			delete(p.watchers, id)
			close(w)
		}
		p.mu.Unlock()
	}
}

// setState publishes a new state to all watchers.
func (p *AuthStatePublisher) setState(mutate func(*AuthState)) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	mutate(&p.state)
	state := p.state
	for _, ch := range p.watchers {
		// Replace a pending value rather than block.
		select {
		case <-ch:
		default:
		}
		ch <- state
	}
	p.mu.Unlock()
}

// onAuthStateChange is the single entry point driving both profile loading
// and session validation. The two fetches run concurrently, and Loading does
// not drop to false until both have settled.
func (p *AuthStatePublisher) onAuthStateChange(user *domain.AuthUser) {
	if user == nil {
		p.sessions.StopHeartbeat()
		p.setState(func(s *AuthState) {
			s.CurrentUser = nil
			s.Profile = nil
			s.Loading = false
		})
		return
	}

	p.setState(func(s *AuthState) {
		s.CurrentUser = user
		s.Loading = true
	})

	ctx := context.Background()
	var (
		wg      sync.WaitGroup
		profile *domain.UserProfile
		session *domain.Session
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		profile = p.loadProfile(ctx, user.UID)
	}()
	go func() {
		defer wg.Done()
		session = p.sessions.EnsureSession(ctx, user.UID, p.userAgent)
	}()
	wg.Wait()

	if session != nil {
		p.sessions.StartHeartbeat(ctx)
	}

	p.setState(func(s *AuthState) {
		// The provider delivers changes in order, but a sign-out may
		// have landed while the fetches ran; never resurrect a user.
		if s.CurrentUser == nil || s.CurrentUser.UID != user.UID {
			return
		}
		s.Profile = profile
		s.Loading = false
	})
}

// loadProfile reads the profile document through the TTL cache. A missing
// document and a store failure both degrade to a nil profile.
func (p *AuthStatePublisher) loadProfile(ctx context.Context, uid string) *domain.UserProfile {
	if item := p.cache.Get(uid); item != nil {
		return item.Value().Clone()
	}

	profile, err := p.profiles.GetProfile(ctx, uid)
	if err != nil {
		if !stderrors.Is(err, errors.ErrProfileNotFound) {
			log.Warn().Err(err).Str("uid", uid).Msg("failed to load user profile")
		}
		return nil
	}
	p.cache.Set(uid, profile.Clone(), ttlcache.DefaultTTL)
	return profile
}

// UpdateUserData replaces the locally cached profile. It performs no
// persistence: callers that mutate the stored profile write to the store
// themselves and then call this to keep the cached copy in sync.
func (p *AuthStatePublisher) UpdateUserData(profile *domain.UserProfile) {
	if profile != nil {
		p.cache.Set(profile.UID, profile.Clone(), ttlcache.DefaultTTL)
	}
	p.setState(func(s *AuthState) {
		s.Profile = profile
	})
}

// Logout terminates the current session, signs out of the identity provider,
// and clears the local pointer. Unlike everything else in this subsystem it
// fails loudly: the caller triggered it and needs visible feedback.
func (p *AuthStatePublisher) Logout(ctx context.Context) error {
	p.mu.Lock()
	user := p.state.CurrentUser
	p.mu.Unlock()
	if user == nil {
		return errors.ErrNotAuthenticated
	}

	p.sessions.StopHeartbeat()

	if id := p.sessions.CurrentSessionID(); id != "" {
		if err := p.sessions.EndSession(ctx, id); err != nil {
			return err
		}
	}
	if err := p.provider.SignOut(ctx); err != nil {
		return err
	}
	p.cache.Delete(user.UID)
	return nil
}

// GetUserSessions lists the current user's sessions for display.
func (p *AuthStatePublisher) GetUserSessions(ctx context.Context) ([]domain.SessionView, error) {
	p.mu.Lock()
	user := p.state.CurrentUser
	p.mu.Unlock()
	if user == nil {
		return nil, errors.ErrNotAuthenticated
	}
	return p.sessions.GetUserSessions(ctx, user.UID)
}

// EndSession terminates one of the current user's sessions.
func (p *AuthStatePublisher) EndSession(ctx context.Context, id string) error {
	p.mu.Lock()
	user := p.state.CurrentUser
	p.mu.Unlock()
	if user == nil {
		return errors.ErrNotAuthenticated
	}
	return p.sessions.EndSession(ctx, id)
}

// EndAllOtherSessions terminates every session of the current user except
// the one this client holds.
func (p *AuthStatePublisher) EndAllOtherSessions(ctx context.Context) error {
	p.mu.Lock()
	user := p.state.CurrentUser
	p.mu.Unlock()
	if user == nil {
		return errors.ErrNotAuthenticated
	}
	return p.sessions.EndAllOtherSessions(ctx, user.UID)
}

// Close cancels the auth-state subscription, stops the heartbeat, and closes
// all watcher channels. In-flight fetches are not cancelled; their results
// are discarded.
func (p *AuthStatePublisher) Close() {
	p.unsubscribe()
	p.sessions.StopHeartbeat()
	p.cache.Stop()

	p.mu.Lock()
	p.closed = true
	for id, ch := range p.watchers {
		delete(p.watchers, id)
		close(ch)
	}
	p.mu.Unlock()
}

package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/plutus-app/plutus/domain"
	"github.com/plutus-app/plutus/errors"
	"github.com/plutus-app/plutus/internal/fingerprint"
	"github.com/plutus-app/plutus/internal/pointer"
	"github.com/rs/zerolog/log"
)

// DefaultHeartbeatInterval is how often an active session is touched.
const DefaultHeartbeatInterval = 5 * time.Minute

// SessionManager orchestrates the session lifecycle for one client: creation
// on login, resumption on reload, periodic heartbeat while active, and
// termination. Store failures degrade to "no session" instead of surfacing
// to the UI; only the user-initiated termination operations return errors.
type SessionManager struct {
	sessions          domain.SessionRepository
	pointer           pointer.Store
	heartbeatInterval time.Duration
	now               func() time.Time

	mu            sync.Mutex
	state         SessionState
	heartbeatStop chan struct{}
}

// NewSessionManager creates a SessionManager. A non-positive
// heartbeatInterval falls back to DefaultHeartbeatInterval.
func NewSessionManager(sessions domain.SessionRepository, ptr pointer.Store, heartbeatInterval time.Duration) *SessionManager {
	if heartbeatInterval <= 0 {
		heartbeatInterval = DefaultHeartbeatInterval
	}
	return &SessionManager{
		sessions:          sessions,
		pointer:           ptr,
		heartbeatInterval: heartbeatInterval,
		now:               time.Now,
		state:             StateNoSession,
	}
}

// State returns the current lifecycle state.
func (m *SessionManager) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *SessionManager) transition(e SessionEvent) {
	m.mu.Lock()
	prev := m.state
	m.state = nextState(prev, e)
	next := m.state
	m.mu.Unlock()
	if prev != next {
		log.Debug().Stringer("from", prev).Stringer("to", next).Msg("session state transition")
	}
}

// CurrentSessionID returns the locally persisted session pointer, or "".
func (m *SessionManager) CurrentSessionID() string {
	return m.pointer.Get()
}

// newSessionID generates a client-side session id: creation timestamp plus a
// random suffix.
func (m *SessionManager) newSessionID() string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%d-%s", m.now().UnixMilli(), suffix)
}

// EnsureSession resolves the local pointer against the store on
// authentication: it resumes and touches a valid session, self-heals a stale
// pointer by creating a fresh record, and creates one when no pointer
// exists. It never returns an error; on store failure it logs and leaves the
// manager in StateNoSession so the app keeps running.
func (m *SessionManager) EnsureSession(ctx context.Context, userID, userAgent string) *domain.Session {
	m.transition(EventAuthEstablished)

	if id := m.pointer.Get(); id != "" {
		session, err := m.sessions.GetSession(ctx, id)
		if err == nil && session.IsActive() {
			if terr := m.sessions.TouchSession(ctx, id); terr != nil {
				log.Warn().Err(terr).Str("sessionID", id).Msg("failed to touch resumed session")
			}
			m.transition(EventRecordValid)
			return session
		}

		// The pointer names a missing or non-active record. Discard it
		// and fall through to the creation path; that path never
		// validates again, so this retries exactly once.
		if err != nil && !stderrors.Is(err, errors.ErrSessionNotFound) {
			log.Warn().Err(err).Str("sessionID", id).Msg("session lookup failed, recreating")
		} else {
			log.Info().Str("sessionID", id).Msg("stale session pointer, recreating")
		}
		m.transition(EventRecordStale)
		if cerr := m.pointer.Clear(); cerr != nil {
			log.Warn().Err(cerr).Msg("failed to clear stale session pointer")
		}
	}

	return m.createSession(ctx, userID, userAgent)
}

func (m *SessionManager) createSession(ctx context.Context, userID, userAgent string) *domain.Session {
	fp := fingerprint.Detect(userAgent)
	session := &domain.Session{
		ID:         m.newSessionID(),
		UserID:     userID,
		Device:     fp.Device,
		Browser:    fp.Browser,
		UserAgent:  fp.UserAgent,
		Location:   domain.PlaceholderValue,
		IP:         domain.PlaceholderValue,
		StartDate:  m.now().UTC(),
		LastActive: m.now().UTC(),
		Status:     domain.SessionStatusActive,
	}

	if err := m.sessions.CreateSession(ctx, session); err != nil {
		log.Error().Err(err).Str("userID", userID).Msg("failed to create session, continuing without one")
		m.transition(EventCreateFailed)
		return nil
	}
	if err := m.pointer.Set(session.ID); err != nil {
		log.Error().Err(err).Str("sessionID", session.ID).Msg("failed to persist session pointer")
	}

	// Timestamps are assigned server-side; prefer the stored record when
	// it can be read back.
	if stored, err := m.sessions.GetSession(ctx, session.ID); err == nil {
		session = stored
	}

	m.transition(EventCreated)
	return session
}

// StartHeartbeat begins touching the current session every heartbeat
// interval. Re-arming cancels the previous ticker so at most one runs.
// Heartbeat failures are logged and never change state.
func (m *SessionManager) StartHeartbeat(ctx context.Context) {
	m.mu.Lock()
	if m.heartbeatStop != nil {
		close(m.heartbeatStop)
	}
	stop := make(chan struct{})
	m.heartbeatStop = stop
	m.mu.Unlock()

	go func() {
		ticker := time.NewTicker(m.heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				id := m.pointer.Get()
				if id == "" {
					continue
				}
				if err := m.sessions.TouchSession(ctx, id); err != nil {
					log.Warn().Err(err).Str("sessionID", id).Msg("session heartbeat failed")
				}
			}
		}
	}()
}

// StopHeartbeat cancels the heartbeat ticker if one is running.
func (m *SessionManager) StopHeartbeat() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.heartbeatStop != nil {
		close(m.heartbeatStop)
		m.heartbeatStop = nil
	}
}

// EndSession deletes one session record. When the id matches the local
// pointer the pointer is cleared and the manager drops to StateNoSession.
// The error is surfaced so the UI can offer a retry; nothing is retried
// automatically.
func (m *SessionManager) EndSession(ctx context.Context, id string) error {
	if err := m.sessions.DeleteSession(ctx, id); err != nil {
		log.Error().Err(err).Str("sessionID", id).Msg("failed to end session")
		return err
	}
	if m.pointer.Get() == id {
		if err := m.pointer.Clear(); err != nil {
			log.Warn().Err(err).Msg("failed to clear session pointer after termination")
		}
		m.transition(EventTerminated)
	}
	return nil
}

// EndAllOtherSessions deletes every active session of the user except the
// one named by the local pointer. Deletions run concurrently; individual
// failures are swallowed and the call reports overall success or failure as
// a single error.
func (m *SessionManager) EndAllOtherSessions(ctx context.Context, userID string) error {
	sessions, err := m.sessions.ListSessionsByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Msg("failed to list sessions for bulk termination")
		return err
	}

	current := m.pointer.Get()
	var wg sync.WaitGroup
	var failedMu sync.Mutex
	failed := 0

	for _, s := range sessions {
		if s.ID == current || !s.IsActive() {
			continue
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if derr := m.sessions.DeleteSession(ctx, id); derr != nil {
				log.Warn().Err(derr).Str("sessionID", id).Msg("failed to delete session in bulk termination")
				failedMu.Lock()
				failed++
				failedMu.Unlock()
			}
		}(s.ID)
	}
	wg.Wait()

	if failed > 0 {
		return fmt.Errorf("failed to end %d session(s)", failed)
	}
	return nil
}

// GetUserSessions returns all of the user's sessions for display: the one
// matching the local pointer is flagged as current, and records are sorted
// by start date descending. Ties keep store-delivered order.
func (m *SessionManager) GetUserSessions(ctx context.Context, userID string) ([]domain.SessionView, error) {
	sessions, err := m.sessions.ListSessionsByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Msg("failed to list user sessions")
		return nil, err
	}

	current := m.pointer.Get()
	views := make([]domain.SessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, domain.SessionView{
			Session:   *s,
			IsCurrent: current != "" && s.ID == current,
		})
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].StartDate.After(views[j].StartDate)
	})
	return views, nil
}

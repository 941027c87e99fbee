// Package identity hosts the in-process identity provider used for local
// development and tests. Production deployments sit behind a hosted identity
// service; this provider implements the same domain.AuthStateSource contract
// with bcrypt-verified email/password accounts.
package identity

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/plutus-app/plutus/domain"
	"github.com/rs/zerolog/log"
)

// ErrInvalidCredentials is returned by SignIn when the email is unknown or
// the password does not match.
var ErrInvalidCredentials = errors.New("invalid email or password")

type account struct {
	user         domain.AuthUser
	passwordHash string
}

// LocalProvider is an in-process domain.AuthStateSource. Auth-state changes
// are delivered to every subscriber strictly in the order the sign-in and
// sign-out calls happen.
type LocalProvider struct {
	mu          sync.Mutex
	hasher      PasswordHasher
	accounts    map[string]*account // keyed by email
	subscribers map[int]domain.AuthStateCallback
	nextSubID   int
	current     *domain.AuthUser

	// dispatchMu serializes callback delivery so subscribers observe
	// state changes in order even when sign-in/out race.
	dispatchMu sync.Mutex
}

// NewLocalProvider creates an empty LocalProvider.
func NewLocalProvider(hasher PasswordHasher) *LocalProvider {
	return &LocalProvider{
		hasher:      hasher,
		accounts:    make(map[string]*account),
		subscribers: make(map[int]domain.AuthStateCallback),
	}
}

// Register creates an account. The uid is generated when empty.
func (p *LocalProvider) Register(email, password, displayName, photoURL string) (*domain.AuthUser, error) {
	hash, err := p.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.accounts[email]; exists {
		return nil, errors.New("account already exists")
	}
	user := domain.AuthUser{
		UID:         uuid.NewString(),
		DisplayName: displayName,
		Email:       email,
		PhotoURL:    photoURL,
	}
	p.accounts[email] = &account{user: user, passwordHash: hash}
	return &user, nil
}

// SignIn verifies the credentials and publishes the signed-in user to all
// subscribers.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*domain.AuthUser, error) {
	p.mu.Lock()
	acct, ok := p.accounts[email]
	p.mu.Unlock()
	if !ok {
		log.Warn().Str("email", email).Msg("SignIn: unknown account")
		return nil, ErrInvalidCredentials
	}
	if err := p.hasher.Verify(acct.passwordHash, password); err != nil {
		log.Warn().Str("email", email).Msg("SignIn: password mismatch")
		return nil, ErrInvalidCredentials
	}

	user := acct.user
	p.setCurrent(&user)
	return &user, nil
}

// SignOut publishes a nil user to all subscribers.
func (p *LocalProvider) SignOut(ctx context.Context) error {
	p.setCurrent(nil)
	return nil
}

// SubscribeAuthState registers a callback and immediately delivers the
// current state to it, matching hosted identity SDK behavior.
func (p *LocalProvider) SubscribeAuthState(cb domain.AuthStateCallback) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextSubID
	p.nextSubID++
	p.subscribers[id] = cb
	current := p.current
	p.mu.Unlock()

	p.dispatchMu.Lock()
	cb(current)
	p.dispatchMu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subscribers, id)
		p.mu.Unlock()
	}
}

func (p *LocalProvider) setCurrent(user *domain.AuthUser) {
	p.mu.Lock()
	p.current = user
	cbs := make([]domain.AuthStateCallback, 0, len(p.subscribers))
	for _, cb := range p.subscribers {
		cbs = append(cbs, cb)
	}
	p.mu.Unlock()

	p.dispatchMu.Lock()
	defer p.dispatchMu.Unlock()
	for _, cb := range cbs {
		cb(user)
	}
}

var _ domain.AuthStateSource = (*LocalProvider)(nil)

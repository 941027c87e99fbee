package domain

import "context"

// SessionRepository is the persistence contract for session records.
//
// Implementations must return errors.ErrSessionNotFound (not a raw driver
// error) when a record does not exist, and must treat DeleteSession of a
// missing id as success so the operation stays idempotent.
type SessionRepository interface {
	// CreateSession writes a new record keyed by session.ID.
	CreateSession(ctx context.Context, session *Session) error
	// TouchSession merges a new last-active timestamp into an existing
	// record without rewriting any other field.
	TouchSession(ctx context.Context, id string) error
	// GetSession returns the record or ErrSessionNotFound.
	GetSession(ctx context.Context, id string) (*Session, error)
	// DeleteSession removes a record. Deleting a missing id is not an error.
	DeleteSession(ctx context.Context, id string) error
	// ListSessionsByUser returns all active records for a user in
	// store-delivered order; callers apply their own ordering.
	ListSessionsByUser(ctx context.Context, userID string) ([]*Session, error)
}

// ProfileRepository reads and writes user profile documents keyed by uid.
type ProfileRepository interface {
	GetProfile(ctx context.Context, uid string) (*UserProfile, error)
	UpsertProfile(ctx context.Context, profile *UserProfile) error
}

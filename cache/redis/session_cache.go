// Package redis provides a read-through cache decorator for the session
// repository. Cache failures are never fatal: every degraded path falls back
// to the wrapped repository.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/plutus-app/plutus/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SessionCache wraps a domain.SessionRepository with a Redis cache keyed by
// session id. Reads go through the cache; every write invalidates.
type SessionCache struct {
	inner  domain.SessionRepository
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewSessionCache creates a new SessionCache. The TTL bounds staleness of
// cached records, since heartbeats from other clients bypass this process.
func NewSessionCache(inner domain.SessionRepository, client *redis.Client, prefix string, ttl time.Duration) *SessionCache {
	return &SessionCache{
		inner:  inner,
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *SessionCache) key(id string) string {
	return fmt.Sprintf("%s:session:%s", c.prefix, id)
}

// CreateSession delegates to the repository, then primes the cache from the
// stored record so the follow-up validation read is served locally.
func (c *SessionCache) CreateSession(ctx context.Context, session *domain.Session) error {
	if err := c.inner.CreateSession(ctx, session); err != nil {
		return err
	}
	// Timestamps are server-assigned, so re-read before caching.
	stored, err := c.inner.GetSession(ctx, session.ID)
	if err != nil {
		c.invalidate(ctx, session.ID)
		return nil
	}
	c.store(ctx, stored)
	return nil
}

// TouchSession delegates and invalidates; the next read repopulates with the
// server-assigned last-active timestamp.
func (c *SessionCache) TouchSession(ctx context.Context, id string) error {
	err := c.inner.TouchSession(ctx, id)
	c.invalidate(ctx, id)
	return err
}

// GetSession serves from Redis when possible, otherwise reads through.
func (c *SessionCache) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	if cached := c.lookup(ctx, id); cached != nil {
		return cached, nil
	}

	session, err := c.inner.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, session)
	return session, nil
}

// DeleteSession delegates and invalidates.
func (c *SessionCache) DeleteSession(ctx context.Context, id string) error {
	err := c.inner.DeleteSession(ctx, id)
	c.invalidate(ctx, id)
	return err
}

// ListSessionsByUser always goes to the repository: the cache is keyed per
// session id and cannot answer membership queries.
func (c *SessionCache) ListSessionsByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	return c.inner.ListSessionsByUser(ctx, userID)
}

func (c *SessionCache) lookup(ctx context.Context, id string) *domain.Session {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("sessionID", id).Msg("session cache read failed, falling through")
		}
		return nil
	}
	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		log.Warn().Err(err).Str("sessionID", id).Msg("session cache entry corrupt, dropping")
		c.invalidate(ctx, id)
		return nil
	}
	return &session
}

func (c *SessionCache) store(ctx context.Context, session *domain.Session) {
	data, err := json.Marshal(session)
	if err != nil {
		log.Warn().Err(err).Str("sessionID", session.ID).Msg("failed to marshal session for cache")
		return
	}
	if err := c.client.Set(ctx, c.key(session.ID), data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("sessionID", session.ID).Msg("session cache write failed")
	}
}

func (c *SessionCache) invalidate(ctx context.Context, id string) {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		log.Warn().Err(err).Str("sessionID", id).Msg("session cache invalidation failed")
	}
}

var _ domain.SessionRepository = (*SessionCache)(nil)

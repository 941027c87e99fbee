package mongodb

import (
	"context"
	stderrors "errors"

	"github.com/plutus-app/plutus/domain"
	"github.com/plutus-app/plutus/errors"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// SessionRepositoryMongo implements domain.SessionRepository using MongoDB.
type SessionRepositoryMongo struct {
	collection *mongo.Collection
}

// NewSessionRepositoryMongo creates a new SessionRepositoryMongo and ensures
// the indexes the list queries rely on.
func NewSessionRepositoryMongo(ctx context.Context, db *mongo.Database) (domain.SessionRepository, error) {
	repo := &SessionRepositoryMongo{
		collection: db.Collection(SessionsCollection),
	}

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index(), // not unique, a user can hold many sessions
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}

	if _, err := repo.collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		log.Warn().Err(err).Msg("Issue creating indexes for sessions collection (might already exist)")
	}

	return repo, nil
}

// CreateSession writes a new session record keyed by session.ID. The start
// and last-active timestamps are assigned by the database server so that
// clocks across clients cannot skew session ordering.
func (r *SessionRepositoryMongo) CreateSession(ctx context.Context, session *domain.Session) error {
	if session.ID == "" {
		return errors.NewPersistenceError("CreateSession", stderrors.New("session ID is required"))
	}

	filter := bson.M{"_id": session.ID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"user_id":    session.UserID,
			"device":     session.Device,
			"browser":    session.Browser,
			"user_agent": session.UserAgent,
			"location":   session.Location,
			"ip":         session.IP,
			"status":     session.Status,
		},
		// Server-assigned timestamps. The upsert always inserts because
		// session IDs are generated fresh per creation.
		"$currentDate": bson.M{
			"start_date":  true,
			"last_active": true,
		},
	}
	if _, err := r.collection.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true)); err != nil {
		log.Error().Err(err).Str("sessionID", session.ID).Msg("Error storing session in MongoDB")
		return errors.NewPersistenceError("CreateSession", err)
	}
	return nil
}

// TouchSession merges a fresh last-active timestamp into an existing record
// without rewriting any other field.
func (r *SessionRepositoryMongo) TouchSession(ctx context.Context, id string) error {
	update := bson.M{
		"$currentDate": bson.M{"last_active": true},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		log.Error().Err(err).Str("sessionID", id).Msg("Error touching session in MongoDB")
		return errors.NewPersistenceError("TouchSession", err)
	}
	if result.MatchedCount == 0 {
		return errors.ErrSessionNotFound
	}
	return nil
}

// GetSession retrieves a session by its ID. A missing record is reported as
// errors.ErrSessionNotFound, never as a raw driver error.
func (r *SessionRepositoryMongo) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var session domain.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.ErrSessionNotFound
		}
		log.Error().Err(err).Str("sessionID", id).Msg("Error getting session from MongoDB")
		return nil, errors.NewPersistenceError("GetSession", err)
	}
	return &session, nil
}

// DeleteSession removes a session by its ID. Deleting a non-existent id is
// not an error; the operation is idempotent.
func (r *SessionRepositoryMongo) DeleteSession(ctx context.Context, id string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		log.Error().Err(err).Str("sessionID", id).Msg("Error deleting session from MongoDB")
		return errors.NewPersistenceError("DeleteSession", err)
	}
	return nil
}

// ListSessionsByUser retrieves all active sessions for a user. Results are
// returned in store-delivered order; display ordering belongs to the caller.
func (r *SessionRepositoryMongo) ListSessionsByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	filter := bson.M{
		"user_id": userID,
		"status":  domain.SessionStatusActive,
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Msg("Error listing sessions by user ID from MongoDB")
		return nil, errors.NewPersistenceError("ListSessionsByUser", err)
	}
	defer cursor.Close(ctx)

	var sessions []*domain.Session
	if err = cursor.All(ctx, &sessions); err != nil {
		log.Error().Err(err).Msg("Error decoding listed sessions from MongoDB")
		return nil, errors.NewPersistenceError("ListSessionsByUser", err)
	}
	return sessions, nil
}

var _ domain.SessionRepository = (*SessionRepositoryMongo)(nil)

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

// ProfileRepositoryMongo implements domain.ProfileRepository using MongoDB.
// Profile documents are keyed by the identity provider's uid and their
// attributes are stored as-is, without validation.
type ProfileRepositoryMongo struct {
	collection *mongo.Collection
}

// NewProfileRepositoryMongo creates a new ProfileRepositoryMongo.
func NewProfileRepositoryMongo(db *mongo.Database) domain.ProfileRepository {
	return &ProfileRepositoryMongo{
		collection: db.Collection(ProfilesCollection),
	}
}

// GetProfile retrieves the profile document for a uid, or
// errors.ErrProfileNotFound when no document exists yet.
func (r *ProfileRepositoryMongo) GetProfile(ctx context.Context, uid string) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	err := r.collection.FindOne(ctx, bson.M{"_id": uid}).Decode(&profile)
	if err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.ErrProfileNotFound
		}
		log.Error().Err(err).Str("uid", uid).Msg("Error getting profile from MongoDB")
		return nil, errors.NewPersistenceError("GetProfile", err)
	}
	return &profile, nil
}

// UpsertProfile replaces the profile document for profile.UID, creating it
// if absent.
func (r *ProfileRepositoryMongo) UpsertProfile(ctx context.Context, profile *domain.UserProfile) error {
	if profile.UID == "" {
		return errors.NewPersistenceError("UpsertProfile", stderrors.New("profile UID is required"))
	}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": profile.UID}, profile, options.Replace().SetUpsert(true))
	if err != nil {
		log.Error().Err(err).Str("uid", profile.UID).Msg("Error upserting profile in MongoDB")
		return errors.NewPersistenceError("UpsertProfile", err)
	}
	return nil
}

var _ domain.ProfileRepository = (*ProfileRepositoryMongo)(nil)

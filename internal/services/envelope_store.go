package services

import (
	"context"
	"fmt"
	"time"

	"lifeos/internal/contract"
	"lifeos/internal/database"
	"lifeos/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnvelopeStore persists the message envelope audit trail. Envelopes are
// validated against the contract on the way in and immutable afterwards.
type EnvelopeStore struct {
	collection *mongo.Collection
}

// NewEnvelopeStore creates a new envelope store
func NewEnvelopeStore(db *database.MongoDB) *EnvelopeStore {
	return &EnvelopeStore{collection: db.Collection(database.CollectionEnvelopes)}
}

// Create validates and inserts an envelope. Every dependency must reference
// an envelope that already exists.
func (s *EnvelopeStore) Create(ctx context.Context, env *models.MessageEnvelope) error {
	if env.Timestamp.IsZero() {
		env.Timestamp = time.Now().UTC()
	}
	if errs := contract.Validate(env); errs != nil {
		return errs
	}

	if len(env.Dependencies) > 0 {
		count, err := s.collection.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": env.Dependencies}})
		if err != nil {
			return fmt.Errorf("failed to check envelope dependencies: %w", err)
		}
		if int(count) != len(env.Dependencies) {
			return fmt.Errorf("envelope %s references missing dependencies: %w", env.ID, ErrConflict)
		}
	}

	if _, err := s.collection.InsertOne(ctx, env); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("envelope %s: %w", env.ID, ErrConflict)
		}
		return fmt.Errorf("failed to create envelope: %w", err)
	}
	return nil
}

// GetByID retrieves an envelope
func (s *EnvelopeStore) GetByID(ctx context.Context, id string) (*models.MessageEnvelope, error) {
	var env models.MessageEnvelope
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&env)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("envelope %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get envelope: %w", err)
	}
	return &env, nil
}

// ListByActor returns an actor's envelopes, newest first.
func (s *EnvelopeStore) ListByActor(ctx context.Context, actor models.AgentType, limit int64) ([]models.MessageEnvelope, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	cursor, err := s.collection.Find(ctx, bson.M{"actor": actor},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list envelopes: %w", err)
	}
	defer cursor.Close(ctx)

	var envs []models.MessageEnvelope
	if err := cursor.All(ctx, &envs); err != nil {
		return nil, fmt.Errorf("failed to decode envelopes: %w", err)
	}
	return envs, nil
}

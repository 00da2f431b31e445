package services

import (
	"context"
	"fmt"
	"time"

	"lifeos/internal/database"
	"lifeos/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CommitmentStore handles MongoDB CRUD for commitments
type CommitmentStore struct {
	collection *mongo.Collection
}

// NewCommitmentStore creates a new commitment store
func NewCommitmentStore(db *database.MongoDB) *CommitmentStore {
	return &CommitmentStore{collection: db.Collection(database.CollectionCommitments)}
}

// Create inserts a new commitment
func (s *CommitmentStore) Create(ctx context.Context, c *models.Commitment) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.collection.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("commitment %s: %w", c.ID, ErrConflict)
		}
		return fmt.Errorf("failed to create commitment: %w", err)
	}
	return nil
}

// GetByID retrieves a commitment by ID, scoped to user
func (s *CommitmentStore) GetByID(ctx context.Context, userID, id string) (*models.Commitment, error) {
	var c models.Commitment
	err := s.collection.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("commitment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get commitment: %w", err)
	}
	return &c, nil
}

// TransitionStatus moves a commitment from one status to another with a
// compare-and-swap on the current status. A concurrent writer that already
// moved the commitment makes this return ErrConflict instead of clobbering.
func (s *CommitmentStore) TransitionStatus(ctx context.Context, userID, id string, from, to models.CommitmentStatus) error {
	if !models.CanTransitionCommitment(from, to) {
		return fmt.Errorf("illegal commitment transition %s → %s: %w", from, to, ErrConflict)
	}

	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "userId": userID, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to transition commitment: %w", err)
	}
	if res.MatchedCount == 0 {
		// Either missing or status already moved; distinguish for the caller.
		count, cerr := s.collection.CountDocuments(ctx, bson.M{"_id": id, "userId": userID})
		if cerr == nil && count > 0 {
			return fmt.Errorf("commitment %s not in status %s: %w", id, from, ErrConflict)
		}
		return fmt.Errorf("commitment %s: %w", id, ErrNotFound)
	}
	return nil
}

// SetArea links a commitment to its spawned (or reused) area.
func (s *CommitmentStore) SetArea(ctx context.Context, userID, id, areaID string) error {
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{"$set": bson.M{"areaId": areaID, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to set commitment area: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("commitment %s: %w", id, ErrNotFound)
	}
	return nil
}

// SetTargetDate records the deadline the integrity sweep checks overdue
// commitments against.
func (s *CommitmentStore) SetTargetDate(ctx context.Context, userID, id string, target time.Time) error {
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{"$set": bson.M{"targetDate": target.UTC(), "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to set commitment target date: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("commitment %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListByUser returns a user's commitments, optionally filtered by status.
func (s *CommitmentStore) ListByUser(ctx context.Context, userID string, status models.CommitmentStatus) ([]models.Commitment, error) {
	filter := bson.M{"userId": userID}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := s.collection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list commitments: %w", err)
	}
	defer cursor.Close(ctx)

	var commitments []models.Commitment
	if err := cursor.All(ctx, &commitments); err != nil {
		return nil, fmt.Errorf("failed to decode commitments: %w", err)
	}
	return commitments, nil
}

// ListActiveOverdue returns active commitments whose target date passed
// before the cutoff, across all users. The integrity sweep marks these
// broken.
func (s *CommitmentStore) ListActiveOverdue(ctx context.Context, cutoff time.Time) ([]models.Commitment, error) {
	cursor, err := s.collection.Find(ctx, bson.M{
		"status":     models.CommitmentActive,
		"targetDate": bson.M{"$ne": nil, "$lt": cutoff},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue commitments: %w", err)
	}
	defer cursor.Close(ctx)

	var commitments []models.Commitment
	if err := cursor.All(ctx, &commitments); err != nil {
		return nil, fmt.Errorf("failed to decode overdue commitments: %w", err)
	}
	return commitments, nil
}

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

// PlanStore handles MongoDB operations for plan definitions. Plans are
// immutable after creation; re-planning produces a new plan.
type PlanStore struct {
	collection *mongo.Collection
}

// NewPlanStore creates a new plan store
func NewPlanStore(db *database.MongoDB) *PlanStore {
	return &PlanStore{collection: db.Collection(database.CollectionPlans)}
}

// Create stores a new plan definition
func (s *PlanStore) Create(ctx context.Context, plan *models.PlanDefinition) error {
	plan.CreatedAt = time.Now().UTC()
	if _, err := s.collection.InsertOne(ctx, plan); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("plan %s: %w", plan.PlanID, ErrConflict)
		}
		return fmt.Errorf("failed to create plan: %w", err)
	}
	return nil
}

// GetByID retrieves a plan scoped to its owner
func (s *PlanStore) GetByID(ctx context.Context, planID, userID string) (*models.PlanDefinition, error) {
	var plan models.PlanDefinition
	err := s.collection.FindOne(ctx, bson.M{"_id": planID, "userId": userID}).Decode(&plan)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("plan %s: %w", planID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return &plan, nil
}

// ListByUser returns a user's plans, newest first.
func (s *PlanStore) ListByUser(ctx context.Context, userID string, limit int64) ([]models.PlanDefinition, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	cursor, err := s.collection.Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer cursor.Close(ctx)

	var plans []models.PlanDefinition
	if err := cursor.All(ctx, &plans); err != nil {
		return nil, fmt.Errorf("failed to decode plans: %w", err)
	}
	return plans, nil
}

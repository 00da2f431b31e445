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

// AreaStore handles MongoDB CRUD for life areas
type AreaStore struct {
	collection *mongo.Collection
}

// NewAreaStore creates a new area store
func NewAreaStore(db *database.MongoDB) *AreaStore {
	return &AreaStore{collection: db.Collection(database.CollectionLifeAreas)}
}

// Create inserts a new life area
func (s *AreaStore) Create(ctx context.Context, area *models.LifeArea) error {
	area.CreatedAt = time.Now().UTC()
	if _, err := s.collection.InsertOne(ctx, area); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("area %s: %w", area.ID, ErrConflict)
		}
		return fmt.Errorf("failed to create area: %w", err)
	}
	return nil
}

// GetByID retrieves an area by ID, scoped to user
func (s *AreaStore) GetByID(ctx context.Context, userID, id string) (*models.LifeArea, error) {
	var area models.LifeArea
	err := s.collection.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&area)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("area %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get area: %w", err)
	}
	return &area, nil
}

// ListByUser returns all areas owned by a user.
func (s *AreaStore) ListByUser(ctx context.Context, userID string) ([]models.LifeArea, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}
	defer cursor.Close(ctx)

	var areas []models.LifeArea
	if err := cursor.All(ctx, &areas); err != nil {
		return nil, fmt.Errorf("failed to decode areas: %w", err)
	}
	return areas, nil
}

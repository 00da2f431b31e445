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

// JournalStore handles MongoDB CRUD for journal entries
type JournalStore struct {
	collection *mongo.Collection
}

// NewJournalStore creates a new journal store
func NewJournalStore(db *database.MongoDB) *JournalStore {
	return &JournalStore{collection: db.Collection(database.CollectionJournalEntries)}
}

// Create inserts a new journal entry
func (s *JournalStore) Create(ctx context.Context, entry *models.JournalEntry) error {
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	if _, err := s.collection.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("journal entry %s: %w", entry.ID, ErrConflict)
		}
		return fmt.Errorf("failed to create journal entry: %w", err)
	}
	return nil
}

// GetByID retrieves an entry by ID, scoped to user
func (s *JournalStore) GetByID(ctx context.Context, userID, entryID string) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	err := s.collection.FindOne(ctx, bson.M{"_id": entryID, "userId": userID}).Decode(&entry)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("journal entry %s: %w", entryID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get journal entry: %w", err)
	}
	return &entry, nil
}

// UpdateContent replaces the entry text after a permitted edit.
func (s *JournalStore) UpdateContent(ctx context.Context, userID, entryID, content string, sentiment float64) error {
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": entryID, "userId": userID, "locked": false},
		bson.M{"$set": bson.M{
			"content":   content,
			"sentiment": sentiment,
			"updatedAt": time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update journal entry: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("journal entry %s: %w", entryID, ErrNotFound)
	}
	return nil
}

// Lock marks an entry as permanently closed to edits.
func (s *JournalStore) Lock(ctx context.Context, userID, entryID string) error {
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": entryID, "userId": userID},
		bson.M{"$set": bson.M{"locked": true, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to lock journal entry: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("journal entry %s: %w", entryID, ErrNotFound)
	}
	return nil
}

// ListByUser returns a user's entries within a date range, newest first.
func (s *JournalStore) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]models.JournalEntry, error) {
	filter := bson.M{"userId": userID}
	if !from.IsZero() || !to.IsZero() {
		dateFilter := bson.M{}
		if !from.IsZero() {
			dateFilter["$gte"] = from
		}
		if !to.IsZero() {
			dateFilter["$lt"] = to
		}
		filter["entryDate"] = dateFilter
	}

	cursor, err := s.collection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "entryDate", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []models.JournalEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode journal entries: %w", err)
	}
	return entries, nil
}

// ListByIDs returns the entries with the given IDs, scoped to user.
func (s *JournalStore) ListByIDs(ctx context.Context, userID string, ids []string) ([]models.JournalEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := s.collection.Find(ctx, bson.M{
		"_id":    bson.M{"$in": ids},
		"userId": userID,
	}, options.Find().SetSort(bson.D{{Key: "entryDate", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries by id: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []models.JournalEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode journal entries: %w", err)
	}
	return entries, nil
}

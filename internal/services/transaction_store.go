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

// TransactionStore handles MongoDB operations for detected money movements
type TransactionStore struct {
	collection *mongo.Collection
}

// NewTransactionStore creates a new transaction store
func NewTransactionStore(db *database.MongoDB) *TransactionStore {
	return &TransactionStore{collection: db.Collection(database.CollectionTransactions)}
}

// Create records a transaction
func (s *TransactionStore) Create(ctx context.Context, tx *models.Transaction) error {
	tx.CreatedAt = time.Now().UTC()
	if _, err := s.collection.InsertOne(ctx, tx); err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// ListByUser returns a user's transactions in a time range, newest first.
func (s *TransactionStore) ListByUser(ctx context.Context, userID string, from, to time.Time, limit int64) ([]models.Transaction, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	filter := bson.M{"userId": userID}
	if !from.IsZero() || !to.IsZero() {
		rangeFilter := bson.M{}
		if !from.IsZero() {
			rangeFilter["$gte"] = from
		}
		if !to.IsZero() {
			rangeFilter["$lte"] = to
		}
		filter["createdAt"] = rangeFilter
	}

	cursor, err := s.collection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var txs []models.Transaction
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}
	return txs, nil
}

// ListByEntry returns transactions detected in a single journal entry.
func (s *TransactionStore) ListByEntry(ctx context.Context, userID, entryID string) ([]models.Transaction, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"userId": userID, "entryId": entryID})
	if err != nil {
		return nil, fmt.Errorf("failed to list entry transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var txs []models.Transaction
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}
	return txs, nil
}

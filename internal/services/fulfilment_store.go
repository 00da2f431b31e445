package services

import (
	"context"
	"fmt"
	"time"

	"lifeos/internal/database"
	"lifeos/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FulfilmentStore handles MongoDB CRUD for fulfilment entries (signal
// mirrors) and rollup score rows.
type FulfilmentStore struct {
	entries *mongo.Collection
	scores  *mongo.Collection
}

// NewFulfilmentStore creates a new fulfilment store
func NewFulfilmentStore(db *database.MongoDB) *FulfilmentStore {
	return &FulfilmentStore{
		entries: db.Collection(database.CollectionFulfilmentEntries),
		scores:  db.Collection(database.CollectionFulfilmentScores),
	}
}

// CreateEntry mirrors a source record into an area's signal stream. The
// unique index on (userId, lifeAreaId, sourceType, sourceId) makes a second
// mirror for the same source fail with ErrConflict, leaving exactly one row.
func (s *FulfilmentStore) CreateEntry(ctx context.Context, entry *models.FulfilmentEntry) error {
	entry.CreatedAt = time.Now().UTC()
	if _, err := s.entries.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("fulfilment mirror for %s/%s: %w", entry.SourceType, entry.SourceID, ErrConflict)
		}
		return fmt.Errorf("failed to create fulfilment entry: %w", err)
	}
	return nil
}

// ListEntries returns the signal stream for one (user, area, dimension)
// within a time range.
func (s *FulfilmentStore) ListEntries(ctx context.Context, userID, areaID, dimensionID string, from, to time.Time) ([]models.FulfilmentEntry, error) {
	filter := bson.M{
		"userId":      userID,
		"lifeAreaId":  areaID,
		"dimensionId": dimensionID,
		"createdAt":   bson.M{"$gte": from, "$lt": to},
	}

	cursor, err := s.entries.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list fulfilment entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []models.FulfilmentEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode fulfilment entries: %w", err)
	}
	return entries, nil
}

// ListPairs returns the distinct (area, dimension) pairs a user has signals
// for; the rollup iterates these.
func (s *FulfilmentStore) ListPairs(ctx context.Context, userID string) ([][2]string, error) {
	cursor, err := s.entries.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID}}},
		{{Key: "$group", Value: bson.M{"_id": bson.M{
			"area":      "$lifeAreaId",
			"dimension": "$dimensionId",
		}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate fulfilment pairs: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID struct {
			Area      string `bson:"area"`
			Dimension string `bson:"dimension"`
		} `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode fulfilment pairs: %w", err)
	}

	pairs := make([][2]string, 0, len(rows))
	for _, r := range rows {
		pairs = append(pairs, [2]string{r.ID.Area, r.ID.Dimension})
	}
	return pairs, nil
}

// ListUsersWithEntries returns the distinct users holding any signals,
// for the scheduled sweep.
func (s *FulfilmentStore) ListUsersWithEntries(ctx context.Context) ([]string, error) {
	values, err := s.entries.Distinct(ctx, "userId", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list users with fulfilment entries: %w", err)
	}
	users := make([]string, 0, len(values))
	for _, v := range values {
		if u, ok := v.(string); ok {
			users = append(users, u)
		}
	}
	return users, nil
}

// UpsertScore writes a rollup row keyed by (user, area, dimension, period).
// Re-running with the same inputs overwrites the row with identical values:
// an upsert, never a second insert.
func (s *FulfilmentStore) UpsertScore(ctx context.Context, score *models.FulfilmentScore) error {
	score.ComputedAt = time.Now().UTC()
	filter := bson.M{
		"userId":      score.UserID,
		"areaId":      score.AreaID,
		"dimensionId": score.DimensionID,
		"period":      score.Period,
	}
	update := bson.M{
		"$set": bson.M{
			"score":        score.Score,
			"confidence":   score.Confidence,
			"trend":        score.Trend,
			"observations": score.Observations,
			"computedAt":   score.ComputedAt,
		},
		"$setOnInsert": bson.M{"_id": uuid.New().String()},
	}

	if _, err := s.scores.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to upsert fulfilment score: %w", err)
	}
	return nil
}

// GetScore reads the rollup row for one (user, area, dimension, period).
func (s *FulfilmentStore) GetScore(ctx context.Context, userID, areaID, dimensionID, period string) (*models.FulfilmentScore, error) {
	var score models.FulfilmentScore
	err := s.scores.FindOne(ctx, bson.M{
		"userId":      userID,
		"areaId":      areaID,
		"dimensionId": dimensionID,
		"period":      period,
	}).Decode(&score)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("fulfilment score %s/%s/%s: %w", areaID, dimensionID, period, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fulfilment score: %w", err)
	}
	return &score, nil
}

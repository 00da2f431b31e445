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

// IssueStore handles MongoDB CRUD for integrity issues
type IssueStore struct {
	collection *mongo.Collection
}

// NewIssueStore creates a new issue store
func NewIssueStore(db *database.MongoDB) *IssueStore {
	return &IssueStore{collection: db.Collection(database.CollectionIntegrityIssues)}
}

// Create inserts a new integrity issue
func (s *IssueStore) Create(ctx context.Context, issue *models.IntegrityIssue) error {
	issue.CreatedAt = time.Now().UTC()
	if issue.Status == "" {
		issue.Status = models.IssueOpen
	}
	if _, err := s.collection.InsertOne(ctx, issue); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("integrity issue %s: %w", issue.ID, ErrConflict)
		}
		return fmt.Errorf("failed to create integrity issue: %w", err)
	}
	return nil
}

// ListOpenByUser returns a user's open issues.
func (s *IssueStore) ListOpenByUser(ctx context.Context, userID string) ([]models.IntegrityIssue, error) {
	cursor, err := s.collection.Find(ctx,
		bson.M{"userId": userID, "status": models.IssueOpen},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list open issues: %w", err)
	}
	defer cursor.Close(ctx)

	var issues []models.IntegrityIssue
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, fmt.Errorf("failed to decode issues: %w", err)
	}
	return issues, nil
}

// HasOpenIssue reports whether an open issue of the given type already
// exists for a commitment. The integrity sweep uses this to avoid raising
// the same overdue issue every night.
func (s *IssueStore) HasOpenIssue(ctx context.Context, userID, commitmentID, issueType string) (bool, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{
		"userId":       userID,
		"commitmentId": commitmentID,
		"issueType":    issueType,
		"status":       models.IssueOpen,
	})
	if err != nil {
		return false, fmt.Errorf("failed to check for open issue: %w", err)
	}
	return count > 0, nil
}

// Resolve closes an issue with resolution metadata.
func (s *IssueStore) Resolve(ctx context.Context, userID, issueID, resolution string) error {
	now := time.Now().UTC()
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": issueID, "userId": userID, "status": bson.M{"$in": []models.IssueStatus{models.IssueOpen, models.IssueAcknowledged}}},
		bson.M{"$set": bson.M{
			"status":     models.IssueResolved,
			"resolution": resolution,
			"resolvedAt": now,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to resolve issue: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("issue %s: %w", issueID, ErrNotFound)
	}
	return nil
}

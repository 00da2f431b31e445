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

// JobStore handles MongoDB CRUD for orchestrator jobs. Status, attempts and
// run_at transitions are compare-and-swap writes: only the poll loop calls
// them, and a lost race surfaces as ErrConflict rather than a double
// dispatch.
type JobStore struct {
	collection *mongo.Collection
}

// NewJobStore creates a new job store
func NewJobStore(db *database.MongoDB) *JobStore {
	return &JobStore{collection: db.Collection(database.CollectionJobs)}
}

// Create enqueues a job in status ready. This is the only job mutation
// available outside the orchestrator.
func (s *JobStore) Create(ctx context.Context, job *models.Job) error {
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = models.JobStatusReady
	}
	if job.RunAt.IsZero() {
		job.RunAt = now
	}

	if _, err := s.collection.InsertOne(ctx, job); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("job %s: %w", job.ID, ErrConflict)
		}
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// GetByID retrieves a job by ID
func (s *JobStore) GetByID(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&job)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// ListReady returns ready jobs whose run_at has passed, oldest first.
func (s *JobStore) ListReady(ctx context.Context, now time.Time, limit int64) ([]models.Job, error) {
	cursor, err := s.collection.Find(ctx,
		bson.M{"status": models.JobStatusReady, "runAt": bson.M{"$lte": now}},
		options.Find().SetSort(bson.D{{Key: "runAt", Value: 1}}).SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list ready jobs: %w", err)
	}
	defer cursor.Close(ctx)

	var jobs []models.Job
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("failed to decode ready jobs: %w", err)
	}
	return jobs, nil
}

// GetMany returns the jobs with the given IDs (for dependency checks).
func (s *JobStore) GetMany(ctx context.Context, ids []string) ([]models.Job, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := s.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to get jobs: %w", err)
	}
	defer cursor.Close(ctx)

	var jobs []models.Job
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("failed to decode jobs: %w", err)
	}
	return jobs, nil
}

// ClaimRunning moves a job ready → running. The CAS on status means exactly
// one dispatcher wins even if two poll cycles see the same job.
func (s *JobStore) ClaimRunning(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.JobStatusReady},
		bson.M{"$set": bson.M{
			"status":    models.JobStatusRunning,
			"startedAt": now,
			"updatedAt": now,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to claim job: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("job %s not claimable: %w", id, ErrConflict)
	}
	return nil
}

// MarkCompleted moves a job running → completed.
func (s *JobStore) MarkCompleted(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.JobStatusRunning},
		bson.M{"$set": bson.M{
			"status":      models.JobStatusCompleted,
			"completedAt": now,
			"updatedAt":   now,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("job %s not running: %w", id, ErrConflict)
	}
	return nil
}

// MarkRetry returns a failed-but-retryable job to ready with an incremented
// attempt counter and a backoff-delayed run_at.
func (s *JobStore) MarkRetry(ctx context.Context, id string, attempts int, lastError string, runAt time.Time) error {
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.JobStatusRunning},
		bson.M{"$set": bson.M{
			"status":    models.JobStatusReady,
			"attempts":  attempts,
			"lastError": lastError,
			"runAt":     runAt,
			"updatedAt": time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to schedule job retry: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("job %s not running: %w", id, ErrConflict)
	}
	return nil
}

// MarkFailed moves a job running → failed permanently.
func (s *JobStore) MarkFailed(ctx context.Context, id string, attempts int, lastError string) error {
	now := time.Now().UTC()
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.JobStatusRunning},
		bson.M{"$set": bson.M{
			"status":      models.JobStatusFailed,
			"attempts":    attempts,
			"lastError":   lastError,
			"completedAt": now,
			"updatedAt":   now,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to fail job: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("job %s not running: %w", id, ErrConflict)
	}
	return nil
}

// Cancel cancels a ready job immediately, or requests cooperative
// cancellation of a running one. Cancelling an already-cancelled job is a
// no-op, making the operation idempotent.
func (s *JobStore) Cancel(ctx context.Context, id string) error {
	now := time.Now().UTC()

	// Ready jobs cancel directly.
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.JobStatusReady},
		bson.M{"$set": bson.M{
			"status":      models.JobStatusCancelled,
			"completedAt": now,
			"updatedAt":   now,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to cancel job: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Running jobs get a flag checked at the next safe point.
	res, err = s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.JobStatusRunning},
		bson.M{"$set": bson.M{"cancelRequested": true, "updatedAt": now}},
	)
	if err != nil {
		return fmt.Errorf("failed to request job cancellation: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Terminal jobs: idempotent success for cancelled, conflict otherwise.
	job, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job.Status == models.JobStatusCancelled {
		return nil
	}
	return fmt.Errorf("job %s already %s: %w", id, job.Status, ErrConflict)
}

// MarkCancelled finalizes a cooperatively-stopped running job.
func (s *JobStore) MarkCancelled(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.JobStatusRunning},
		bson.M{"$set": bson.M{
			"status":      models.JobStatusCancelled,
			"completedAt": now,
			"updatedAt":   now,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to finalize job cancellation: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("job %s not running: %w", id, ErrConflict)
	}
	return nil
}

// ListByUser returns a user's jobs, newest first.
func (s *JobStore) ListByUser(ctx context.Context, userID string, limit int64) ([]models.Job, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	cursor, err := s.collection.Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer cursor.Close(ctx)

	var jobs []models.Job
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("failed to decode jobs: %w", err)
	}
	return jobs, nil
}

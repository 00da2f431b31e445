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
)

// ChapterStore handles MongoDB CRUD for autobiography chapters
type ChapterStore struct {
	collection *mongo.Collection
}

// NewChapterStore creates a new chapter store
func NewChapterStore(db *database.MongoDB) *ChapterStore {
	return &ChapterStore{collection: db.Collection(database.CollectionChapters)}
}

// FindOrCreate returns the chapter for (user, era, area), creating it on
// first use. The unique index makes concurrent first-writers converge on a
// single chapter: the loser of the insert race re-reads.
func (s *ChapterStore) FindOrCreate(ctx context.Context, userID, era, areaID string) (*models.Chapter, error) {
	var chapter models.Chapter
	filter := bson.M{"userId": userID, "era": era, "areaId": areaID}

	err := s.collection.FindOne(ctx, filter).Decode(&chapter)
	if err == nil {
		return &chapter, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to find chapter: %w", err)
	}

	now := time.Now().UTC()
	chapter = models.Chapter{
		ID:        uuid.New().String(),
		UserID:    userID,
		Era:       era,
		AreaID:    areaID,
		Coherence: 1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.collection.InsertOne(ctx, &chapter); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost the race; the chapter now exists.
			if ferr := s.collection.FindOne(ctx, filter).Decode(&chapter); ferr != nil {
				return nil, fmt.Errorf("failed to re-read chapter after race: %w", ferr)
			}
			return &chapter, nil
		}
		return nil, fmt.Errorf("failed to create chapter: %w", err)
	}
	return &chapter, nil
}

// LinkEntry adds an entry link to a chapter. Linking an already-linked
// entry is a no-op, keeping redelivered events idempotent.
func (s *ChapterStore) LinkEntry(ctx context.Context, chapterID string, link models.ChapterEntryLink) error {
	link.LinkedAt = time.Now().UTC()
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": chapterID, "entries.entryId": bson.M{"$ne": link.EntryID}},
		bson.M{
			"$push": bson.M{"entries": link},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to link entry to chapter: %w", err)
	}
	_ = res // zero matches means the link already exists
	return nil
}

// UpdateNarrative writes the regenerated summary, themes and coherence.
func (s *ChapterStore) UpdateNarrative(ctx context.Context, chapterID, summary string, themes []string, coherence float64) error {
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": chapterID},
		bson.M{"$set": bson.M{
			"summary":   summary,
			"themes":    themes,
			"coherence": coherence,
			"updatedAt": time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update chapter narrative: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("chapter %s: %w", chapterID, ErrNotFound)
	}
	return nil
}

// GetByID retrieves a chapter by ID, scoped to user
func (s *ChapterStore) GetByID(ctx context.Context, userID, chapterID string) (*models.Chapter, error) {
	var chapter models.Chapter
	err := s.collection.FindOne(ctx, bson.M{"_id": chapterID, "userId": userID}).Decode(&chapter)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("chapter %s: %w", chapterID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}
	return &chapter, nil
}

package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoDB wraps the MongoDB client and database
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
	dbName   string
}

// Collection names
const (
	CollectionEnvelopes         = "envelopes"
	CollectionJobs              = "jobs"
	CollectionPlans             = "plans"
	CollectionJournalEntries    = "journal_entries"
	CollectionCommitments       = "commitments"
	CollectionLifeAreas         = "life_areas"
	CollectionFulfilmentEntries = "fulfilment_entries"
	CollectionFulfilmentScores  = "fulfilment_scores"
	CollectionChapters          = "chapters"
	CollectionIntegrityIssues   = "integrity_issues"
	CollectionTransactions      = "transactions"
)

// NewMongoDB creates a new MongoDB connection with connection pooling
func NewMongoDB(uri string) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	dbName := extractDBName(uri)
	if dbName == "" {
		dbName = "lifeos"
	}

	db := &MongoDB{
		client:   client,
		database: client.Database(dbName),
		dbName:   dbName,
	}

	log.Printf("✅ MongoDB connected (database: %s)", dbName)
	return db, nil
}

// Database returns the underlying mongo database
func (m *MongoDB) Database() *mongo.Database {
	return m.database
}

// Collection returns a collection by name
func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

// Close disconnects the client
func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Ping checks connectivity
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the unique and query indexes the pipeline relies
// on. The unique index on fulfilment entries is what makes duplicate-mirror
// creation fail with a conflict instead of silently inserting twice.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		CollectionJobs: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "runAt", Value: 1}}},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
		CollectionFulfilmentEntries: {
			{
				Keys: bson.D{
					{Key: "userId", Value: 1},
					{Key: "lifeAreaId", Value: 1},
					{Key: "sourceType", Value: 1},
					{Key: "sourceId", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
		},
		CollectionFulfilmentScores: {
			{
				Keys: bson.D{
					{Key: "userId", Value: 1},
					{Key: "areaId", Value: 1},
					{Key: "dimensionId", Value: 1},
					{Key: "period", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
		},
		CollectionChapters: {
			{
				Keys: bson.D{
					{Key: "userId", Value: 1},
					{Key: "era", Value: 1},
					{Key: "areaId", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
		},
		CollectionCommitments: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "targetDate", Value: 1}}},
		},
		CollectionIntegrityIssues: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}}},
		},
		CollectionJournalEntries: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "entryDate", Value: -1}}},
		},
	}

	for coll, indexes := range specs {
		if _, err := m.database.Collection(coll).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", coll, err)
		}
	}

	log.Println("✅ MongoDB indexes ensured")
	return nil
}

// extractDBName pulls the database name from a MongoDB URI
func extractDBName(uri string) string {
	idx := strings.LastIndex(uri, "/")
	if idx < 0 || idx == len(uri)-1 {
		return ""
	}
	name := uri[idx+1:]
	if q := strings.Index(name, "?"); q >= 0 {
		name = name[:q]
	}
	if strings.Contains(name, "@") || strings.Contains(name, ":") {
		return ""
	}
	return name
}

// Package mongodb implements MongoDB adapters for the application.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/belikedeep/feedbacksense/core/domain"
)

const collectionClassificationEvents = "classification_events"

// HistoryArchiveAdapter implements out.HistoryArchive using MongoDB.
// The archive keeps every classification event indefinitely; the item's
// embedded history stays the operational copy.
type HistoryArchiveAdapter struct {
	db         *mongo.Database
	collection *mongo.Collection
}

// NewHistoryArchiveAdapter creates a new MongoDB history archive adapter.
func NewHistoryArchiveAdapter(db *mongo.Database) *HistoryArchiveAdapter {
	return &HistoryArchiveAdapter{
		db:         db,
		collection: db.Collection(collectionClassificationEvents),
	}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *HistoryArchiveAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "item_id", Value: 1}, {Key: "timestamp", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "archived_at", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// classificationEventDocument represents the MongoDB document structure.
type classificationEventDocument struct {
	ItemID           string    `bson:"item_id"`
	Timestamp        time.Time `bson:"timestamp"`
	Category         string    `bson:"category"`
	Confidence       float64   `bson:"confidence"`
	Method           string    `bson:"method"`
	Reasoning        string    `bson:"reasoning,omitempty"`
	PreviousCategory *string   `bson:"previous_category,omitempty"`
	ArchivedAt       time.Time `bson:"archived_at"`
}

// ArchiveEvent stores one classification event.
func (a *HistoryArchiveAdapter) ArchiveEvent(ctx context.Context, itemID uuid.UUID, event domain.ClassificationEvent) error {
	doc := classificationEventDocument{
		ItemID:     itemID.String(),
		Timestamp:  event.Timestamp,
		Category:   string(event.Category),
		Confidence: event.Confidence,
		Method:     string(event.Method),
		Reasoning:  event.Reasoning,
		ArchivedAt: time.Now(),
	}
	if event.PreviousCategory != nil {
		prev := string(*event.PreviousCategory)
		doc.PreviousCategory = &prev
	}

	if _, err := a.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to archive classification event: %w", err)
	}

	return nil
}

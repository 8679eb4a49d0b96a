package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mfbarbosa/acervo/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrTimelineNotFound is returned when no timeline aggregate exists for a key.
var ErrTimelineNotFound = errors.New("timeline not found")

// TimelineRepository handles timeline aggregate operations on the document store
type TimelineRepository struct {
	collection *mongo.Collection
}

// NewTimelineRepository creates a new timeline repository
func NewTimelineRepository(db *MongoDB) *TimelineRepository {
	return &TimelineRepository{
		collection: db.GetCollection(CollectionTimelines),
	}
}

// Upsert replaces the timeline aggregate for (numero, tribunal, grau),
// creating it on first capture. Last write wins; historical items are never
// merged. Returns the aggregate's ObjectID hex, which stays stable across
// recaptures of the same triple.
func (r *TimelineRepository) Upsert(ctx context.Context, tl *model.Timeline) (string, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	filter := bson.M{
		"numero_processo": tl.NumeroProcesso,
		"tribunal":        tl.Tribunal,
		"grau":            tl.Grau,
	}

	// The replacement document must not carry a zero _id, or Mongo would try
	// to overwrite the existing id on replace.
	replacement := *tl
	replacement.ID = primitive.NilObjectID

	opts := options.FindOneAndReplace().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var saved model.Timeline
	if err := r.collection.FindOneAndReplace(ctxTimeout, filter, &replacement, opts).Decode(&saved); err != nil {
		return "", fmt.Errorf("failed to upsert timeline: %w", err)
	}

	return saved.ID.Hex(), nil
}

// Get retrieves the timeline aggregate for one (numero, tribunal, grau) triple.
func (r *TimelineRepository) Get(ctx context.Context, numero string, tribunal int, grau model.Grau) (*model.Timeline, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"numero_processo": numero,
		"tribunal":        tribunal,
		"grau":            grau,
	}

	var tl model.Timeline
	if err := r.collection.FindOne(ctxTimeout, filter).Decode(&tl); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTimelineNotFound
		}
		return nil, fmt.Errorf("failed to get timeline: %w", err)
	}

	return &tl, nil
}

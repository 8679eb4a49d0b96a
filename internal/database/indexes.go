package database

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateIndexes creates all necessary indexes for the collections
func CreateIndexes(ctx context.Context, db *MongoDB) error {
	slog.Info("Creating MongoDB indexes")

	collection := db.GetCollection(CollectionTimelines)

	// The compound unique index is what enforces "exactly one timeline per
	// (numero, tribunal, grau)" — the upsert in TimelineRepository relies on it.
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "numero_processo", Value: 1},
				{Key: "tribunal", Value: 1},
				{Key: "grau", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("idx_numero_tribunal_grau_unique"),
		},
		{
			Keys:    bson.D{{Key: "capturado_em", Value: -1}},
			Options: options.Index().SetName("idx_capturado_em"),
		},
		{
			Keys:    bson.D{{Key: "numero_processo", Value: 1}},
			Options: options.Index().SetName("idx_numero_processo"),
		},
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctxTimeout, indexes); err != nil {
		return err
	}

	slog.Info("Created timeline_processos indexes")
	return nil
}

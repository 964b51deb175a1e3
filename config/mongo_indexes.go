package config

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// transcriptChunkIndexes declares the indexes for the transcript_chunks
// collection. Key patterns must be pairwise distinct: Mongo rejects a second
// index over the same keys under a different name, which would fail the whole
// CreateMany. The unique index doubles as the chunk_index-ordered read path.
func transcriptChunkIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// TTL index: expire at ExpiresAt (must be Date)
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().
				SetName("ttl_expires_at").
				SetExpireAfterSeconds(0),
		},
		// No duplicate chunk per question; also serves the ordered
		// segment listing and the per-question delete.
		{
			Keys: bson.D{
				{Key: "interview_id", Value: 1},
				{Key: "question_id", Value: 1},
				{Key: "chunk_index", Value: 1},
			},
			Options: options.Index().
				SetName("uniq_question_chunk").
				SetUnique(true),
		},
	}
}

func EnsureMongoIndexes() error {
	if MongoClient == nil {
		return errors.New("MongoClient is nil; call InitMongo() first")
	}
	db := MongoDatabase()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	chunks := db.Collection("transcript_chunks")
	_, err := chunks.Indexes().CreateMany(ctx, transcriptChunkIndexes())
	return err
}

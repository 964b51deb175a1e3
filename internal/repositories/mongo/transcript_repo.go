package mongo

import (
	"context"
	"time"

	"github.com/TonyCasey/public-prep-sub002/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TranscriptRepository interface {
	InsertChunk(ctx context.Context, c *models.TranscriptChunk) error
	ListByQuestion(ctx context.Context, interviewID, questionID string, limit int64) ([]models.TranscriptChunk, error)
	DeleteByQuestion(ctx context.Context, interviewID, questionID string) error
}

type transcriptRepo struct {
	col *mongo.Collection
}

func NewTranscriptRepo(db *mongo.Database) TranscriptRepository {
	return &transcriptRepo{col: db.Collection("transcript_chunks")}
}

func (r *transcriptRepo) InsertChunk(ctx context.Context, c *models.TranscriptChunk) error {
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, c)
	return err
}

func (r *transcriptRepo) ListByQuestion(ctx context.Context, interviewID, questionID string, limit int64) ([]models.TranscriptChunk, error) {
	if limit <= 0 {
		limit = 500
	}

	cur, err := r.col.Find(ctx,
		bson.M{"interview_id": interviewID, "question_id": questionID},
		options.Find().
			SetSort(bson.D{{Key: "chunk_index", Value: 1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.TranscriptChunk
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *transcriptRepo) DeleteByQuestion(ctx context.Context, interviewID, questionID string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"interview_id": interviewID, "question_id": questionID})
	return err
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TranscriptChunk is one finalized voice segment of an answer draft.
// Interim results are never persisted, only displayed.
type TranscriptChunk struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InterviewID string             `bson:"interview_id" json:"interview_id"`
	QuestionID  string             `bson:"question_id" json:"question_id"`
	ChunkIndex  int64              `bson:"chunk_index" json:"chunk_index"`

	Text       string  `bson:"text" json:"text"`
	Confidence float64 `bson:"confidence,omitempty" json:"confidence,omitempty"`

	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"` // for TTL index
}

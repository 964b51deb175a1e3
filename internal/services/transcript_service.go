package services

import (
	"context"
	"time"

	"github.com/TonyCasey/public-prep-sub002/internal/models"
	"github.com/TonyCasey/public-prep-sub002/internal/providers/stt"
	mongorepo "github.com/TonyCasey/public-prep-sub002/internal/repositories/mongo"
	"github.com/TonyCasey/public-prep-sub002/internal/transcript"
	"github.com/TonyCasey/public-prep-sub002/internal/utils"
)

// Transcript chunks are a short-lived answer draft buffer; Mongo reaps them
// via the TTL index after this window.
const chunkTTL = 2 * time.Hour

type TranscribeChunkInput struct {
	InterviewID string
	QuestionID  string
	ChunkIndex  int64
	Audio       []byte
	Language    string
	IsFinal     bool
}

type TranscriptionResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	IsFinal    bool    `json:"is_final"`
}

type TranscriptService interface {
	// TranscribeChunk converts one audio chunk to text. Final chunks are
	// normalized and persisted; interim chunks are returned for display
	// only and never stored.
	TranscribeChunk(ctx context.Context, in TranscribeChunkInput) (*TranscriptionResult, error)
	// Segments returns the persisted final segments for a question in
	// order, ex. when a client reconnects mid-answer.
	Segments(ctx context.Context, interviewID, questionID string) ([]string, error)
	// Draft reassembles the persisted segments into the answer draft text.
	Draft(ctx context.Context, interviewID, questionID string) (string, error)
	// Discard drops the buffered segments, ex. after the answer was
	// submitted or the question re-attempted.
	Discard(ctx context.Context, interviewID, questionID string) error
}

type transcriptService struct {
	stt    stt.Provider
	chunks mongorepo.TranscriptRepository
}

func NewTranscriptService(provider stt.Provider, chunks mongorepo.TranscriptRepository) TranscriptService {
	return &transcriptService{stt: provider, chunks: chunks}
}

func (s *transcriptService) TranscribeChunk(ctx context.Context, in TranscribeChunkInput) (*TranscriptionResult, error) {
	const op = "TranscriptService.TranscribeChunk"

	if in.InterviewID == "" || in.QuestionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interview_id and question_id are required", nil)
	}
	if len(in.Audio) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "audio chunk is empty", nil)
	}

	text, confidence, err := s.stt.Transcribe(ctx, in.Audio, in.Language)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "transcription unavailable", err)
	}

	if !in.IsFinal {
		return &TranscriptionResult{Text: text, Confidence: confidence}, nil
	}

	normalized := transcript.Normalize(text)
	if normalized == "" {
		return &TranscriptionResult{IsFinal: true}, nil
	}

	now := time.Now().UTC()
	err = s.chunks.InsertChunk(ctx, &models.TranscriptChunk{
		InterviewID: in.InterviewID,
		QuestionID:  in.QuestionID,
		ChunkIndex:  in.ChunkIndex,
		Text:        normalized,
		Confidence:  confidence,
		Timestamp:   now,
		ExpiresAt:   now.Add(chunkTTL),
	})
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to buffer transcript chunk", err)
	}

	return &TranscriptionResult{Text: normalized, Confidence: confidence, IsFinal: true}, nil
}

func (s *transcriptService) Segments(ctx context.Context, interviewID, questionID string) ([]string, error) {
	const op = "TranscriptService.Segments"

	chunks, err := s.chunks.ListByQuestion(ctx, interviewID, questionID, 0)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load transcript chunks", err)
	}

	finals := make([]string, 0, len(chunks))
	for _, c := range chunks {
		finals = append(finals, c.Text)
	}
	return finals, nil
}

func (s *transcriptService) Draft(ctx context.Context, interviewID, questionID string) (string, error) {
	finals, err := s.Segments(ctx, interviewID, questionID)
	if err != nil {
		return "", err
	}

	b := transcript.NewBuilder()
	b.Seed(finals)
	return b.Text(), nil
}

func (s *transcriptService) Discard(ctx context.Context, interviewID, questionID string) error {
	const op = "TranscriptService.Discard"

	if err := s.chunks.DeleteByQuestion(ctx, interviewID, questionID); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to discard transcript chunks", err)
	}
	return nil
}

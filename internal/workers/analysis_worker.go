package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/TonyCasey/public-prep-sub002/internal/framework"
	"github.com/TonyCasey/public-prep-sub002/internal/models"
	"github.com/TonyCasey/public-prep-sub002/internal/providers/llm"
	pgrepo "github.com/TonyCasey/public-prep-sub002/internal/repositories/postgres"
)

// StreamQueue enqueues document IDs onto the analysis stream. It satisfies
// services.AnalysisQueue.
type StreamQueue struct {
	Redis  *redis.Client
	Stream string
}

func (q *StreamQueue) Enqueue(ctx context.Context, documentID string) error {
	stream := q.Stream
	if stream == "" {
		stream = "analysis:stream"
	}
	return q.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{"document_id": documentID},
	}).Err()
}

// AnalysisWorkerPool consumes uploaded documents off a Redis stream and runs
// the competency-strength analysis. Each document moves
// pending -> processing -> done|failed.
type AnalysisWorkerPool struct {
	Redis      *redis.Client
	Documents  pgrepo.DocumentRepository
	LLM        llm.Provider
	Catalog    *framework.Catalog
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *AnalysisWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Documents == nil || p.LLM == nil || p.Catalog == nil {
		return errors.New("AnalysisWorkerPool missing dependency: Redis/Documents/LLM/Catalog must be set")
	}
	if p.Stream == "" {
		p.Stream = "analysis:stream"
	}
	if p.Group == "" {
		p.Group = "analysis-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 3
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *AnalysisWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

// UserEventChannel is the per-user pub/sub channel connected WebSocket
// clients listen on.
func UserEventChannel(userID string) string {
	return "user:" + userID + ":events"
}

func (p *AnalysisWorkerPool) publishStatus(ctx context.Context, doc *models.Document, status string) {
	payload, _ := json.Marshal(map[string]any{
		"type":        "analysis_status",
		"document_id": doc.ID,
		"kind":        doc.Kind,
		"status":      status,
	})
	_ = p.Redis.Publish(ctx, UserEventChannel(doc.OwnerID), string(payload)).Err()
}

func (p *AnalysisWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	documentID, _ := msg.Values["document_id"].(string)
	if documentID == "" {
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":    msg.ID,
		"document_id": documentID,
	})

	doc, err := p.Documents.GetByID(ctx, documentID)
	if err != nil {
		// Replaced or deleted before the worker got to it.
		log.WithError(err).Warn("document no longer exists")
		return
	}
	if doc.AnalysisStatus == models.AnalysisDone {
		return
	}

	if err := p.Documents.SetAnalysisStatus(ctx, documentID, models.AnalysisProcessing); err != nil {
		log.WithError(err).Error("failed to mark document processing")
		return
	}
	p.publishStatus(ctx, doc, models.AnalysisProcessing)

	analysis, err := p.LLM.AnalyzeDocument(ctx, doc.RawText, string(doc.Kind))
	if err != nil {
		log.WithError(err).Error("document analysis failed")
		_ = p.Documents.SetAnalysisStatus(ctx, documentID, models.AnalysisFailed)
		p.publishStatus(ctx, doc, models.AnalysisFailed)
		return
	}

	encoded, err := json.Marshal(analysis)
	if err != nil {
		log.WithError(err).Error("failed to encode analysis")
		_ = p.Documents.SetAnalysisStatus(ctx, documentID, models.AnalysisFailed)
		p.publishStatus(ctx, doc, models.AnalysisFailed)
		return
	}

	vec := pgvector.NewVector(p.Catalog.StrengthVector(analysis.CompetencyStrengths))
	if err := p.Documents.SetAnalysis(ctx, documentID, encoded, vec); err != nil {
		log.WithError(err).Error("failed to save analysis")
		_ = p.Documents.SetAnalysisStatus(ctx, documentID, models.AnalysisFailed)
		p.publishStatus(ctx, doc, models.AnalysisFailed)
		return
	}

	p.publishStatus(ctx, doc, models.AnalysisDone)
	log.Info("document analysis complete")
}

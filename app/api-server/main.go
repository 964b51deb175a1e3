package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/TonyCasey/public-prep-sub002/config"
	"github.com/TonyCasey/public-prep-sub002/internal/api/handlers"
	"github.com/TonyCasey/public-prep-sub002/internal/api/middleware"
	"github.com/TonyCasey/public-prep-sub002/internal/api/routes"
	"github.com/TonyCasey/public-prep-sub002/internal/cache"
	"github.com/TonyCasey/public-prep-sub002/internal/framework"
	"github.com/TonyCasey/public-prep-sub002/internal/logger"
	"github.com/TonyCasey/public-prep-sub002/internal/models"
	"github.com/TonyCasey/public-prep-sub002/internal/providers/crm"
	"github.com/TonyCasey/public-prep-sub002/internal/providers/llm"
	"github.com/TonyCasey/public-prep-sub002/internal/providers/stt"
	mongorepo "github.com/TonyCasey/public-prep-sub002/internal/repositories/mongo"
	pgrepo "github.com/TonyCasey/public-prep-sub002/internal/repositories/postgres"
	"github.com/TonyCasey/public-prep-sub002/internal/services"
	"github.com/TonyCasey/public-prep-sub002/internal/storage"
	"github.com/TonyCasey/public-prep-sub002/internal/workers"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	l := logger.New()

	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	l.Info("PostgreSQL connected")

	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	l.Info("Redis connected")

	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}
	l.Info("MongoDB connected")

	if err := config.PostgresDB.AutoMigrate(
		&models.User{},
		&models.Document{},
		&models.Interview{},
		&models.Question{},
		&models.Answer{},
		&models.Rating{},
	); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	catalog, err := framework.Load()
	if err != nil {
		log.Fatalf("framework catalog error: %v", err)
	}

	ctx := context.Background()

	llmProvider, err := llm.NewVertexGemini(ctx, cfg.LLM.ProjectID, cfg.LLM.Location, cfg.LLM.Model)
	if err != nil {
		log.Fatalf("Vertex init error: %v", err)
	}
	defer llmProvider.Close()

	var sttProvider stt.Provider
	switch cfg.STT.Provider {
	case "whisper":
		sttProvider = stt.NewOpenAIWhisper(cfg.STT.OpenAIKey, cfg.STT.WhisperModel)
	default:
		sttProvider, err = stt.NewGoogleSpeech(ctx)
		if err != nil {
			log.Fatalf("Speech init error: %v", err)
		}
	}
	defer sttProvider.Close()

	uploader, err := storage.NewGCSUploader(ctx, cfg.Storage.Bucket)
	if err != nil {
		log.Fatalf("GCS init error: %v", err)
	}
	defer uploader.Close()

	var notifier crm.Notifier = crm.NopNotifier{}
	if cfg.CRM.WebhookURL != "" {
		notifier = crm.NewWebhookNotifier(cfg.CRM.WebhookURL)
	}

	// repositories
	users := pgrepo.NewUserRepo(config.PostgresDB)
	documents := pgrepo.NewDocumentRepo(config.PostgresDB)
	interviews := pgrepo.NewInterviewRepo(config.PostgresDB)
	questions := pgrepo.NewQuestionRepo(config.PostgresDB)
	answers := pgrepo.NewAnswerRepo(config.PostgresDB)
	ratings := pgrepo.NewRatingRepo(config.PostgresDB)
	transcripts := mongorepo.NewTranscriptRepo(config.MongoDatabase())

	redisCache := cache.NewRedisCache(config.RedisClient)

	// background analysis workers
	queue := &workers.StreamQueue{Redis: config.RedisClient}
	pool := &workers.AnalysisWorkerPool{
		Redis:      config.RedisClient,
		Documents:  documents,
		LLM:        llmProvider,
		Catalog:    catalog,
		NumWorkers: cfg.Workers.AnalysisWorkers,
		Logger:     l,
	}
	if err := pool.Start(ctx); err != nil {
		log.Fatalf("worker pool error: %v", err)
	}

	// services
	notifications := services.NewNotificationService(notifier, l)
	authSvc := services.NewAuthService(users, notifications, cfg.JWT.Secret, cfg.JWT.TTL)
	interviewSvc := services.NewInterviewService(
		users, interviews, questions, answers, ratings, documents,
		llmProvider, catalog, redisCache, notifications, cfg.Evaluation.Timeout,
	)
	evaluationSvc := services.NewEvaluationService(
		users, interviews, questions, answers, ratings,
		llmProvider, redisCache, notifications,
		cfg.Evaluation.Timeout, cfg.Evaluation.MinAnswerLength,
	)
	documentSvc := services.NewDocumentService(documents, uploader, uploader, queue, cfg.Upload.MaxBytes)
	transcriptSvc := services.NewTranscriptService(sttProvider, transcripts)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		JWTSecret: cfg.JWT.Secret,
		Auth:      handlers.NewAuthHandler(authSvc),
		Account:   handlers.NewAccountHandler(authSvc),
		Document:  handlers.NewDocumentHandler(documentSvc, cfg.Upload.MaxBytes),
		Interview: handlers.NewInterviewHandler(interviewSvc, evaluationSvc),
		WS:        handlers.NewWSHandler(interviewSvc, transcriptSvc, config.RedisClient),
	})

	if err := r.Run(cfg.ServerAddr()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

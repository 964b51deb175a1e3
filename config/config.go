package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration beyond connection URIs,
// which the Init* helpers read directly.
type Config struct {
	Env  string `envconfig:"APP_ENV" default:"development"`
	Port int    `envconfig:"PORT" default:"8080"`

	JWT        JWTConfig
	Upload     UploadConfig
	Evaluation EvaluationConfig
	LLM        LLMConfig
	STT        STTConfig
	Storage    StorageConfig
	CRM        CRMConfig
	Workers    WorkerConfig
}

type JWTConfig struct {
	Secret string        `envconfig:"JWT_SECRET" required:"true"`
	TTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`
}

type UploadConfig struct {
	MaxBytes int64 `envconfig:"UPLOAD_MAX_BYTES" default:"10485760"` // 10MB
}

type EvaluationConfig struct {
	Timeout         time.Duration `envconfig:"EVALUATION_TIMEOUT" default:"45s"`
	MinAnswerLength int           `envconfig:"MIN_ANSWER_LENGTH" default:"100"`
}

type LLMConfig struct {
	ProjectID string `envconfig:"VERTEX_PROJECT_ID" required:"true"`
	Location  string `envconfig:"VERTEX_LOCATION" default:"europe-west1"`
	Model     string `envconfig:"VERTEX_MODEL" default:"gemini-1.5-flash"`
}

type STTConfig struct {
	// Provider: "google" (Cloud Speech) or "whisper" (OpenAI).
	Provider     string `envconfig:"STT_PROVIDER" default:"google"`
	OpenAIKey    string `envconfig:"OPENAI_API_KEY"`
	WhisperModel string `envconfig:"WHISPER_MODEL" default:"whisper-1"`
}

type StorageConfig struct {
	Bucket string `envconfig:"GCS_BUCKET" required:"true"`
}

type CRMConfig struct {
	WebhookURL string `envconfig:"CRM_WEBHOOK_URL"`
}

type WorkerConfig struct {
	AnalysisWorkers int `envconfig:"ANALYSIS_WORKERS" default:"3"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.Upload.MaxBytes < 1 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}
	if c.Evaluation.MinAnswerLength < 1 {
		return fmt.Errorf("MIN_ANSWER_LENGTH must be positive")
	}
	if c.STT.Provider != "google" && c.STT.Provider != "whisper" {
		return fmt.Errorf("invalid STT_PROVIDER: %s (must be google or whisper)", c.STT.Provider)
	}
	if c.STT.Provider == "whisper" && c.STT.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when STT_PROVIDER=whisper")
	}
	if c.Workers.AnalysisWorkers < 1 {
		return fmt.Errorf("ANALYSIS_WORKERS must be at least 1")
	}
	return nil
}

func (c *Config) ServerAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type DocumentKind string

const (
	DocumentCV      DocumentKind = "cv"
	DocumentJobSpec DocumentKind = "job_spec"
)

const (
	AnalysisPending    = "pending"
	AnalysisProcessing = "processing"
	AnalysisDone       = "done"
	AnalysisFailed     = "failed"
)

type Document struct {
	ID      string       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OwnerID string       `gorm:"column:owner_id;type:uuid;index" json:"owner_id"`
	Kind    DocumentKind `gorm:"column:kind;type:text" json:"kind"`

	FileName string `gorm:"column:file_name;type:text" json:"file_name"`
	FilePath string `gorm:"column:file_path;type:text" json:"file_path"` // GCS object key
	FileSize int    `gorm:"column:file_size;type:integer" json:"file_size"`
	MimeType string `gorm:"column:mime_type;type:text" json:"mime_type"`

	RawText string `gorm:"column:raw_text;type:text" json:"-"`

	// Analysis is the AI-derived competency-strength map; nil until the
	// analysis worker has processed the document.
	Analysis       datatypes.JSON  `gorm:"column:analysis;type:jsonb" json:"analysis,omitempty"`
	AnalysisStatus string          `gorm:"column:analysis_status;type:text;default:pending" json:"analysis_status"`
	StrengthVector pgvector.Vector `gorm:"column:strength_vector;type:vector(8)" json:"-"`

	UploadedAt time.Time `gorm:"column:uploaded_at;type:timestamptz" json:"uploaded_at"`
}

func (Document) TableName() string { return "documents" }

package postgres

import (
	"context"
	"errors"

	"github.com/TonyCasey/public-prep-sub002/internal/models"
	"github.com/TonyCasey/public-prep-sub002/internal/utils"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DocumentRepository interface {
	// Replace deletes any previous document of the same (owner, kind) and
	// inserts the new one in a single transaction.
	Replace(ctx context.Context, d *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)
	LatestByOwnerAndKind(ctx context.Context, ownerID string, kind models.DocumentKind) (*models.Document, error)
	SetAnalysisStatus(ctx context.Context, id, status string) error
	SetAnalysis(ctx context.Context, id string, analysis datatypes.JSON, strengths pgvector.Vector) error
}

type documentRepo struct {
	db *gorm.DB
}

func NewDocumentRepo(db *gorm.DB) DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Replace(ctx context.Context, d *models.Document) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("owner_id = ? AND kind = ?", d.OwnerID, d.Kind).
			Delete(&models.Document{}).Error; err != nil {
			return err
		}
		return tx.Create(d).Error
	})
}

func (r *documentRepo) GetByID(ctx context.Context, id string) (*models.Document, error) {
	var d models.Document
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &d, err
}

func (r *documentRepo) LatestByOwnerAndKind(ctx context.Context, ownerID string, kind models.DocumentKind) (*models.Document, error) {
	var d models.Document
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND kind = ?", ownerID, kind).
		Order("uploaded_at DESC").
		Take(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &d, err
}

func (r *documentRepo) SetAnalysisStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ?", id).
		UpdateColumn("analysis_status", status).Error
}

func (r *documentRepo) SetAnalysis(ctx context.Context, id string, analysis datatypes.JSON, strengths pgvector.Vector) error {
	return r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"analysis":        analysis,
			"strength_vector": strengths,
			"analysis_status": models.AnalysisDone,
		}).Error
}

package postgres

import (
	"context"
	"errors"

	"github.com/TonyCasey/public-prep-sub002/internal/models"
	"github.com/TonyCasey/public-prep-sub002/internal/utils"
	"gorm.io/gorm"
)

type InterviewRepository interface {
	// Create inserts the interview with its question set. When onlyIfFirst
	// is set (free tier) a per-owner advisory lock serializes the
	// count-then-insert so a second session can never slip through; the
	// rejected call fails with utils.ErrLimitReached.
	Create(ctx context.Context, iv *models.Interview, questions []models.Question, onlyIfFirst bool) error
	GetByID(ctx context.Context, id string) (*models.Interview, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.Interview, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	// Advance moves the index forward by one; no-op past the last question
	// or on an inactive session. Returns whether a move happened.
	Advance(ctx context.Context, id string) (bool, error)
	GoBack(ctx context.Context, id string) (bool, error)
	Abandon(ctx context.Context, id string) (bool, error)
}

type interviewRepo struct {
	db *gorm.DB
}

func NewInterviewRepo(db *gorm.DB) InterviewRepository {
	return &interviewRepo{db: db}
}

func (r *interviewRepo) Create(ctx context.Context, iv *models.Interview, questions []models.Question, onlyIfFirst bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if onlyIfFirst {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", iv.OwnerID).Error; err != nil {
				return err
			}
			var n int64
			if err := tx.Model(&models.Interview{}).
				Where("owner_id = ?", iv.OwnerID).
				Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return utils.ErrLimitReached
			}
		}

		if err := tx.Create(iv).Error; err != nil {
			return err
		}
		return tx.Create(&questions).Error
	})
}

func (r *interviewRepo) GetByID(ctx context.Context, id string) (*models.Interview, error) {
	var iv models.Interview
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&iv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &iv, err
}

func (r *interviewRepo) ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.Interview, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.Interview
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("started_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *interviewRepo) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Interview{}).
		Where("owner_id = ?", ownerID).
		Count(&n).Error
	return n, err
}

func (r *interviewRepo) Advance(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Interview{}).
		Where("id = ? AND is_active AND current_question_index < total_questions - 1", id).
		UpdateColumn("current_question_index", gorm.Expr("current_question_index + 1"))
	return res.RowsAffected == 1, res.Error
}

func (r *interviewRepo) GoBack(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Interview{}).
		Where("id = ? AND current_question_index > 0", id).
		UpdateColumn("current_question_index", gorm.Expr("current_question_index - 1"))
	return res.RowsAffected == 1, res.Error
}

func (r *interviewRepo) Abandon(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Interview{}).
		Where("id = ? AND is_active AND completed_at IS NULL", id).
		UpdateColumn("is_active", false)
	return res.RowsAffected == 1, res.Error
}

package postgres

import (
	"context"
	"errors"

	"github.com/TonyCasey/public-prep-sub002/internal/models"
	"github.com/TonyCasey/public-prep-sub002/internal/utils"
	"gorm.io/gorm"
)

type QuestionRepository interface {
	GetByID(ctx context.Context, id string) (*models.Question, error)
	ListByInterview(ctx context.Context, interviewID string) ([]models.Question, error)
}

type questionRepo struct {
	db *gorm.DB
}

func NewQuestionRepo(db *gorm.DB) QuestionRepository {
	return &questionRepo{db: db}
}

func (r *questionRepo) GetByID(ctx context.Context, id string) (*models.Question, error) {
	var q models.Question
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &q, err
}

func (r *questionRepo) ListByInterview(ctx context.Context, interviewID string) ([]models.Question, error) {
	var rows []models.Question
	err := r.db.WithContext(ctx).
		Where("interview_id = ?", interviewID).
		Order("ordinal ASC").
		Find(&rows).Error
	return rows, err
}

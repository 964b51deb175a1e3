package postgres

import (
	"context"
	"errors"

	"github.com/TonyCasey/public-prep-sub002/internal/models"
	"github.com/TonyCasey/public-prep-sub002/internal/utils"
	"gorm.io/gorm"
)

type AnswerRepository interface {
	Insert(ctx context.Context, a *models.Answer) error
	GetByID(ctx context.Context, id string) (*models.Answer, error)
	// LatestForQuestion returns the most recent answer for a question;
	// "latest wins" for display when an answer was re-submitted.
	LatestForQuestion(ctx context.Context, interviewID, questionID string) (*models.Answer, error)
}

type answerRepo struct {
	db *gorm.DB
}

func NewAnswerRepo(db *gorm.DB) AnswerRepository {
	return &answerRepo{db: db}
}

func (r *answerRepo) Insert(ctx context.Context, a *models.Answer) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *answerRepo) GetByID(ctx context.Context, id string) (*models.Answer, error) {
	var a models.Answer
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &a, err
}

func (r *answerRepo) LatestForQuestion(ctx context.Context, interviewID, questionID string) (*models.Answer, error) {
	var a models.Answer
	err := r.db.WithContext(ctx).
		Where("interview_id = ? AND question_id = ?", interviewID, questionID).
		Order("answered_at DESC").
		Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &a, err
}

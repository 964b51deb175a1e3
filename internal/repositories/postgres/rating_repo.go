package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/TonyCasey/public-prep-sub002/internal/models"
	"github.com/TonyCasey/public-prep-sub002/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingRepository interface {
	// Record inserts the rating and applies the progression side effects in
	// one transaction: the interview row is locked, completed_questions
	// increments only for the first rating the question ever receives, and
	// when the session closes completed_at/is_active/average_score are set.
	// A second rating for the same answer fails with utils.ErrConflict.
	Record(ctx context.Context, rating *models.Rating, interviewID, questionID string) (*models.Interview, error)
	GetByAnswer(ctx context.Context, answerID string) (*models.Rating, error)
	ExistsForQuestion(ctx context.Context, interviewID, questionID string) (bool, error)
}

type ratingRepo struct {
	db *gorm.DB
}

func NewRatingRepo(db *gorm.DB) RatingRepository {
	return &ratingRepo{db: db}
}

func (r *ratingRepo) Record(ctx context.Context, rating *models.Rating, interviewID, questionID string) (*models.Interview, error) {
	var iv models.Interview

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The interview row is the unit of mutual exclusion for the
		// progression counters.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", interviewID).
			Take(&iv).Error; err != nil {
			return err
		}

		var dup int64
		if err := tx.Model(&models.Rating{}).
			Where("answer_id = ?", rating.AnswerID).
			Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return utils.ErrConflict
		}

		var prior int64
		if err := tx.Model(&models.Rating{}).
			Joins("JOIN answers ON answers.id = ratings.answer_id").
			Where("answers.interview_id = ? AND answers.question_id = ?", interviewID, questionID).
			Count(&prior).Error; err != nil {
			return err
		}

		if err := tx.Create(rating).Error; err != nil {
			return err
		}

		// Re-submissions of an already-rated question never double-count.
		if prior > 0 {
			return nil
		}

		var avg float64
		if err := tx.Model(&models.Rating{}).
			Joins("JOIN answers ON answers.id = ratings.answer_id").
			Where("answers.interview_id = ?", interviewID).
			Select("COALESCE(AVG(ratings.overall_score), 0)").
			Scan(&avg).Error; err != nil {
			return err
		}

		iv.RecordCompletion(time.Now().UTC(), avg)

		return tx.Model(&models.Interview{}).
			Where("id = ?", iv.ID).
			Updates(map[string]any{
				"completed_questions": iv.CompletedQuestions,
				"completed_at":        iv.CompletedAt,
				"is_active":           iv.IsActive,
				"average_score":       iv.AverageScore,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &iv, nil
}

func (r *ratingRepo) GetByAnswer(ctx context.Context, answerID string) (*models.Rating, error) {
	var row models.Rating
	err := r.db.WithContext(ctx).Where("answer_id = ?", answerID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *ratingRepo) ExistsForQuestion(ctx context.Context, interviewID, questionID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Rating{}).
		Joins("JOIN answers ON answers.id = ratings.answer_id").
		Where("answers.interview_id = ? AND answers.question_id = ?", interviewID, questionID).
		Count(&n).Error
	return n > 0, err
}

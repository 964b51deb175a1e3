package models

import "time"

// Interview tracks ordered progression through a generated question set.
// Invariants: 0 <= CurrentQuestionIndex < TotalQuestions (0-based),
// CompletedAt is set exactly once, when CompletedQuestions reaches
// TotalQuestions, and IsActive is true until completion or abandonment.
type Interview struct {
	ID      string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OwnerID string `gorm:"column:owner_id;type:uuid;index" json:"owner_id"`

	JobTitle  string `gorm:"column:job_title;type:text" json:"job_title"`
	Grade     string `gorm:"column:grade;type:text" json:"grade"`
	Framework string `gorm:"column:framework;type:text" json:"framework"` // "old" | "new"

	TotalQuestions       int `gorm:"column:total_questions;type:integer" json:"total_questions"`
	CurrentQuestionIndex int `gorm:"column:current_question_index;type:integer;default:0" json:"current_question_index"`
	CompletedQuestions   int `gorm:"column:completed_questions;type:integer;default:0" json:"completed_questions"`

	AverageScore *float64 `gorm:"column:average_score;type:double precision" json:"average_score,omitempty"`

	StartedAt   time.Time  `gorm:"column:started_at;type:timestamptz" json:"started_at"`
	CompletedAt *time.Time `gorm:"column:completed_at;type:timestamptz" json:"completed_at,omitempty"`
	IsActive    bool       `gorm:"column:is_active;default:true" json:"is_active"`
}

func (Interview) TableName() string { return "interviews" }

// CanAdvance reports whether the index may move forward. Forward motion is
// additionally gated on the current question having a rating; that check
// lives in the service layer.
func (iv *Interview) CanAdvance() bool {
	return iv.IsActive && iv.CurrentQuestionIndex < iv.TotalQuestions-1
}

func (iv *Interview) CanGoBack() bool {
	return iv.CurrentQuestionIndex > 0
}

// RecordCompletion applies the completion counters after the first rating a
// question receives. average is the mean overall score across all ratings of
// this interview, used only when this completion closes the session.
func (iv *Interview) RecordCompletion(now time.Time, average float64) {
	iv.CompletedQuestions++
	if iv.CompletedQuestions >= iv.TotalQuestions && iv.CompletedAt == nil {
		iv.CompletedAt = &now
		iv.IsActive = false
		iv.AverageScore = &average
	}
}

package models

import "time"

// Answer rows are append-only: re-submission creates a new row and the most
// recent answered_at wins for display.
type Answer struct {
	ID          string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InterviewID string `gorm:"column:interview_id;type:uuid;index" json:"interview_id"`
	QuestionID  string `gorm:"column:question_id;type:uuid;index" json:"question_id"`

	AnswerText       string    `gorm:"column:answer_text;type:text" json:"answer_text"`
	TimeSpentSeconds int       `gorm:"column:time_spent_seconds;type:integer" json:"time_spent_seconds"`
	AnsweredAt       time.Time `gorm:"column:answered_at;type:timestamptz;index" json:"answered_at"`
}

func (Answer) TableName() string { return "answers" }

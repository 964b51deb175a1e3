package models

// Question is immutable once generated and belongs to exactly one interview.
type Question struct {
	ID          string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InterviewID string `gorm:"column:interview_id;type:uuid;index" json:"interview_id"`

	Competency   string `gorm:"column:competency;type:text" json:"competency"`
	QuestionText string `gorm:"column:question_text;type:text" json:"question_text"`
	Difficulty   string `gorm:"column:difficulty;type:text" json:"difficulty"`
	Ordinal      int    `gorm:"column:ordinal;type:integer" json:"ordinal"` // 0-based position
}

func (Question) TableName() string { return "questions" }

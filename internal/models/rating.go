package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Rating is created exactly once per answer and immutable thereafter.
// Scores use the canonical 0-100 scale.
type Rating struct {
	ID       string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	AnswerID string `gorm:"column:answer_id;type:uuid;uniqueIndex" json:"answer_id"`

	OverallScore     int            `gorm:"column:overall_score;type:integer" json:"overall_score"`
	CompetencyScores datatypes.JSON `gorm:"column:competency_scores;type:jsonb" json:"competency_scores"`
	StarAnalysis     datatypes.JSON `gorm:"column:star_analysis;type:jsonb" json:"star_analysis"`

	Feedback         string         `gorm:"column:feedback;type:text" json:"feedback"`
	Strengths        pq.StringArray `gorm:"column:strengths;type:text[]" json:"strengths"`
	ImprovementAreas pq.StringArray `gorm:"column:improvement_areas;type:text[]" json:"improvement_areas"`
	ImprovedAnswer   string         `gorm:"column:improved_answer;type:text" json:"improved_answer"`

	RatedAt time.Time `gorm:"column:rated_at;type:timestamptz" json:"rated_at"`
}

func (Rating) TableName() string { return "ratings" }

package llm

import "context"

type QuestionSpec struct {
	JobTitle     string
	Grade        string
	Framework    string
	Difficulty   string
	Competencies []string
	// AnalysisSummary biases question selection toward the candidate's
	// documented strengths/gaps; empty when no document analysis exists.
	AnalysisSummary string
}

type GeneratedQuestion struct {
	Competency string `json:"competency"`
	Question   string `json:"question"`
	Difficulty string `json:"difficulty"`
}

type EvaluationRequest struct {
	AnswerText   string
	QuestionText string
	Competency   string
	Grade        string
}

type StarComponent struct {
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

type StarAnalysis struct {
	Situation StarComponent `json:"situation"`
	Task      StarComponent `json:"task"`
	Action    StarComponent `json:"action"`
	Result    StarComponent `json:"result"`
}

// RatingResult is the validated evaluator output. All scores are 0-100.
type RatingResult struct {
	OverallScore     int            `json:"overall_score"`
	CompetencyScores map[string]int `json:"competency_scores"`
	Star             StarAnalysis   `json:"star"`
	Feedback         string         `json:"feedback"`
	Strengths        []string       `json:"strengths"`
	ImprovementAreas []string       `json:"improvement_areas"`
	ImprovedAnswer   string         `json:"improved_answer"`
}

type DocumentAnalysis struct {
	CompetencyStrengths map[string]int `json:"competency_strengths"`
	Summary             string         `json:"summary"`
}

type Provider interface {
	GenerateQuestions(ctx context.Context, spec QuestionSpec) ([]GeneratedQuestion, error)
	EvaluateAnswer(ctx context.Context, req EvaluationRequest) (*RatingResult, error)
	AnalyzeDocument(ctx context.Context, text, kind string) (*DocumentAnalysis, error)
	Close() error
}

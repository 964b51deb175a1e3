package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// The model is prompted for strict JSON and the reply is parsed and
// validated here before anything downstream sees it.

func buildQuestionPrompt(spec QuestionSpec) string {
	var b strings.Builder
	b.WriteString(`You are an interview panel chair preparing a competency-based interview. Output ONLY a valid JSON array, no additional text, markdown, or backticks.

Each item must be an object with:
- "competency": the competency name, exactly as given below
- "question": one behavioural interview question for that competency
- "difficulty": the difficulty level given below

Rules:
- Produce EXACTLY one question per listed competency, in the listed order.
- Questions must ask for a specific past example ("Tell me about a time...").
- Tailor wording to the job title and seniority.
`)
	fmt.Fprintf(&b, "\nJob title: %s\nGrade: %s\nDifficulty: %s\nCompetencies (in order):\n", spec.JobTitle, spec.Grade, spec.Difficulty)
	for _, c := range spec.Competencies {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	if spec.AnalysisSummary != "" {
		fmt.Fprintf(&b, "\nCandidate background summary (bias question scenarios toward this):\n%s\n", spec.AnalysisSummary)
	}
	return b.String()
}

func buildEvaluationPrompt(req EvaluationRequest) string {
	return fmt.Sprintf(`You are a strict interview assessor scoring a competency-based answer. Output ONLY a valid JSON object, no additional text, markdown, or backticks.

The object must have exactly these keys:
- "overall_score": integer 0-100
- "competency_scores": object mapping competency names to integers 0-100; must include %q
- "star": object with "situation", "task", "action", "result", each an object {"score": integer 0-100, "comment": string}
- "feedback": string, 2-4 sentences of direct feedback
- "strengths": array of strings, at least one
- "improvement_areas": array of strings, at least one
- "improved_answer": string, a rewritten example answer using the STAR structure

Score each STAR component independently. Do not invent facts the answer does not contain.

Competency: %s
Grade: %s

Question:
%s

Answer:
%s`, req.Competency, req.Competency, req.Grade, req.QuestionText, req.AnswerText)
}

func buildAnalysisPrompt(text, kind string) string {
	if len(text) > 20000 {
		text = text[:20000]
	}
	return fmt.Sprintf(`You are a careers adviser analysing a candidate document. Output ONLY a valid JSON object, no additional text, markdown, or backticks.

The object must have exactly these keys:
- "competency_strengths": object mapping competency names to integers 0-100 reflecting how strongly the document evidences each competency
- "summary": string, 2-3 sentences summarising the candidate's background

Document kind: %s

Document text:
%s`, kind, text)
}

// stripFences removes a ```json ... ``` wrapper some models insist on.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

func parseQuestions(raw string, spec QuestionSpec) ([]GeneratedQuestion, error) {
	var out []GeneratedQuestion
	if err := json.Unmarshal([]byte(stripFences(raw)), &out); err != nil {
		return nil, fmt.Errorf("malformed question response: %w", err)
	}
	if len(out) != len(spec.Competencies) {
		return nil, fmt.Errorf("expected %d questions, got %d", len(spec.Competencies), len(out))
	}
	for i, q := range out {
		if strings.TrimSpace(q.Question) == "" {
			return nil, fmt.Errorf("question %d is empty", i)
		}
		if q.Competency != spec.Competencies[i] {
			return nil, fmt.Errorf("question %d competency %q does not match %q", i, q.Competency, spec.Competencies[i])
		}
	}
	return out, nil
}

func parseRating(raw, competency string) (*RatingResult, error) {
	var out RatingResult
	if err := json.Unmarshal([]byte(stripFences(raw)), &out); err != nil {
		return nil, fmt.Errorf("malformed rating response: %w", err)
	}
	if err := validateScore("overall_score", out.OverallScore); err != nil {
		return nil, err
	}
	if _, ok := out.CompetencyScores[competency]; !ok {
		return nil, fmt.Errorf("competency_scores missing %q", competency)
	}
	for name, s := range out.CompetencyScores {
		if err := validateScore("competency_scores."+name, s); err != nil {
			return nil, err
		}
	}
	for _, part := range []struct {
		name string
		c    StarComponent
	}{
		{"situation", out.Star.Situation},
		{"task", out.Star.Task},
		{"action", out.Star.Action},
		{"result", out.Star.Result},
	} {
		if err := validateScore("star."+part.name, part.c.Score); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(out.Feedback) == "" {
		return nil, fmt.Errorf("rating response has empty feedback")
	}
	if len(out.Strengths) == 0 || len(out.ImprovementAreas) == 0 {
		return nil, fmt.Errorf("rating response missing strengths or improvement_areas")
	}
	return &out, nil
}

func parseAnalysis(raw string) (*DocumentAnalysis, error) {
	var out DocumentAnalysis
	if err := json.Unmarshal([]byte(stripFences(raw)), &out); err != nil {
		return nil, fmt.Errorf("malformed analysis response: %w", err)
	}
	if len(out.CompetencyStrengths) == 0 {
		return nil, fmt.Errorf("analysis response has no competency strengths")
	}
	for name, s := range out.CompetencyStrengths {
		if err := validateScore("competency_strengths."+name, s); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

func validateScore(field string, v int) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%s out of range: %d", field, v)
	}
	return nil
}

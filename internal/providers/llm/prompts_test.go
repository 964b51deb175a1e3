package llm

import (
	"strings"
	"testing"
)

const validRating = `{
	"overall_score": 72,
	"competency_scores": {"Delivering at Pace": 72},
	"star": {
		"situation": {"score": 80, "comment": "clear context"},
		"task": {"score": 70, "comment": "goal stated"},
		"action": {"score": 75, "comment": "specific steps"},
		"result": {"score": 60, "comment": "outcome vague"}
	},
	"feedback": "A solid answer with a weak close.",
	"strengths": ["specific actions"],
	"improvement_areas": ["quantify the result"],
	"improved_answer": "In my previous role..."
}`

func TestParseRatingValid(t *testing.T) {
	r, err := parseRating(validRating, "Delivering at Pace")
	if err != nil {
		t.Fatalf("parseRating failed: %v", err)
	}
	if r.OverallScore != 72 {
		t.Errorf("overall = %d, want 72", r.OverallScore)
	}
	if r.Star.Result.Score != 60 {
		t.Errorf("star.result = %d, want 60", r.Star.Result.Score)
	}
}

func TestParseRatingFenced(t *testing.T) {
	fenced := "```json\n" + validRating + "\n```"
	if _, err := parseRating(fenced, "Delivering at Pace"); err != nil {
		t.Fatalf("parseRating should tolerate fenced output: %v", err)
	}
}

func TestParseRatingMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":           "the answer was fine, 7/10",
		"truncated":          validRating[:40],
		"score out of range": strings.Replace(validRating, `"overall_score": 72`, `"overall_score": 140`, 1),
		"missing competency": strings.Replace(validRating, "Delivering at Pace", "Working Together", 1),
		"empty feedback":     strings.Replace(validRating, "A solid answer with a weak close.", "  ", 1),
	}
	for name, raw := range cases {
		if _, err := parseRating(raw, "Delivering at Pace"); err == nil {
			t.Errorf("%s: expected error, got none", name)
		}
	}
}

func TestParseQuestions(t *testing.T) {
	spec := QuestionSpec{
		Competencies: []string{"Working Together", "Delivering at Pace"},
	}
	raw := `[
		{"competency": "Working Together", "question": "Tell me about a time you built a partnership.", "difficulty": "intermediate"},
		{"competency": "Delivering at Pace", "question": "Tell me about a time you hit a hard deadline.", "difficulty": "intermediate"}
	]`

	qs, err := parseQuestions(raw, spec)
	if err != nil {
		t.Fatalf("parseQuestions failed: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}

	// count mismatch
	if _, err := parseQuestions(raw, QuestionSpec{Competencies: []string{"Working Together"}}); err == nil {
		t.Error("expected count mismatch error")
	}

	// order mismatch
	swapped := QuestionSpec{Competencies: []string{"Delivering at Pace", "Working Together"}}
	if _, err := parseQuestions(raw, swapped); err == nil {
		t.Error("expected competency order error")
	}
}

func TestParseAnalysis(t *testing.T) {
	raw := `{"competency_strengths": {"Working Together": 85}, "summary": "Strong collaborator."}`
	a, err := parseAnalysis(raw)
	if err != nil {
		t.Fatalf("parseAnalysis failed: %v", err)
	}
	if a.CompetencyStrengths["Working Together"] != 85 {
		t.Errorf("unexpected strength: %v", a.CompetencyStrengths)
	}

	if _, err := parseAnalysis(`{"summary": "no strengths"}`); err == nil {
		t.Error("expected error for missing strengths")
	}
}

package llm

import (
	"context"
	"fmt"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"
)

type VertexGemini struct {
	client *vertexgenai.Client
	model  *vertexgenai.GenerativeModel
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	m := c.GenerativeModel(modelName)
	return &VertexGemini{client: c, model: m}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

func (v *VertexGemini) GenerateQuestions(ctx context.Context, spec QuestionSpec) ([]GeneratedQuestion, error) {
	raw, err := v.generate(ctx, buildQuestionPrompt(spec))
	if err != nil {
		return nil, err
	}
	return parseQuestions(raw, spec)
}

func (v *VertexGemini) EvaluateAnswer(ctx context.Context, req EvaluationRequest) (*RatingResult, error) {
	raw, err := v.generate(ctx, buildEvaluationPrompt(req))
	if err != nil {
		return nil, err
	}
	return parseRating(raw, req.Competency)
}

func (v *VertexGemini) AnalyzeDocument(ctx context.Context, text, kind string) (*DocumentAnalysis, error) {
	raw, err := v.generate(ctx, buildAnalysisPrompt(text, kind))
	if err != nil {
		return nil, err
	}
	return parseAnalysis(raw)
}

// generate collects the full streamed response as one string.
func (v *VertexGemini) generate(ctx context.Context, prompt string) (string, error) {
	it := v.model.GenerateContentStream(ctx, vertexgenai.Text(prompt))

	var b strings.Builder
	for {
		resp, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return "", err
		}

		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if t, ok := part.(vertexgenai.Text); ok {
					b.WriteString(string(t))
				}
			}
		}
	}

	if b.Len() == 0 {
		return "", fmt.Errorf("empty model response")
	}
	return b.String(), nil
}

package stt

import (
	"bytes"
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIWhisper struct {
	c     *openai.Client
	model string
}

func NewOpenAIWhisper(apiKey, model string) *OpenAIWhisper {
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAIWhisper{c: openai.NewClient(apiKey), model: model}
}

func (w *OpenAIWhisper) Close() error { return nil }

func (w *OpenAIWhisper) Transcribe(ctx context.Context, audio []byte, language string) (string, float64, error) {
	// Whisper takes BCP-47 primary subtags only ("en", not "en-GB").
	if i := strings.IndexByte(language, '-'); i > 0 {
		language = language[:i]
	}

	resp, err := w.c.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		Reader:   bytes.NewReader(audio),
		FilePath: "chunk.webm",
		Language: language,
	})
	if err != nil {
		return "", 0, err
	}

	// Whisper reports no confidence; treat a non-empty transcript as full
	// confidence so callers share one contract with Cloud Speech.
	conf := 0.0
	if resp.Text != "" {
		conf = 1.0
	}
	return resp.Text, conf, nil
}

package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Event string

const (
	EventRegistered         Event = "user_registered"
	EventInterviewCompleted Event = "interview_completed"
	EventFirstInterview     Event = "first_interview"
)

// Notifier tracks user milestones in the CRM. Calls are best-effort: the
// caller logs and swallows errors, never failing the primary operation.
type Notifier interface {
	Notify(ctx context.Context, event Event, email string, props map[string]string) error
}

type payload struct {
	Event      Event             `json:"event"`
	Email      string            `json:"email"`
	Properties map[string]string `json:"properties,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

type WebhookNotifier struct {
	url  string
	http *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:  url,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, event Event, email string, props map[string]string) error {
	b, err := json.Marshal(payload{
		Event:      event,
		Email:      email,
		Properties: props,
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("crm webhook returned %d", resp.StatusCode)
	}
	return nil
}

// NopNotifier is used when no CRM webhook is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event, string, map[string]string) error { return nil }

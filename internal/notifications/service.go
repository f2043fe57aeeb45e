package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tally/internal/config"
)

const userAgent = "tally/0.1.0"

// EventTestProgress identifies a progress report payload.
const EventTestProgress = "test_progress"

// ProgressEvent is the payload sent when new features pass. The sink expects
// a JSON array wrapping exactly one of these objects.
type ProgressEvent struct {
	Event           string   `json:"event"`
	Passing         int64    `json:"passing"`
	Total           int64    `json:"total"`
	Percentage      float64  `json:"percentage"`
	PreviousPassing int64    `json:"previous_passing"`
	CompletedCount  int64    `json:"tests_completed_this_session"`
	CompletedTests  []string `json:"completed_tests"`
	Project         string   `json:"project"`
	Timestamp       string   `json:"timestamp"`
}

// Service defines the notification surface exposed to progress tracking.
type Service interface {
	Publish(ctx context.Context, event ProgressEvent) error
	Enabled() bool
}

// NewService builds a notification service backed by the configured webhook.
// When no webhook URL is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	url := strings.TrimSpace(cfg.Notifications.WebhookURL)
	if url == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &webhookService{
		endpoint: url,
		client:   &http.Client{Timeout: timeout},
	}
}

type webhookService struct {
	endpoint string
	client   *http.Client
}

func (w *webhookService) Enabled() bool { return true }

func (w *webhookService) Publish(ctx context.Context, event ProgressEvent) error {
	if w == nil || w.client == nil {
		return nil
	}
	if event.Event == "" {
		event.Event = EventTestProgress
	}
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if event.CompletedTests == nil {
		event.CompletedTests = []string{}
	}

	body, err := json.Marshal([]ProgressEvent{event})
	if err != nil {
		return fmt.Errorf("encode progress event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send progress webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, ProgressEvent) error { return nil }
func (noopService) Enabled() bool                                { return false }

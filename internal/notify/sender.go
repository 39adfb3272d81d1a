package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"evalapi/internal/job"
)

// Payload is the webhook body posted to a job's callback URL.
type Payload struct {
	Event     string    `json:"event"` // "evaluation.job.<status>"
	JobID     string    `json:"job_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Job       *job.Job  `json:"job"`
}

// NewPayload builds the webhook payload for a finished job.
func NewPayload(j *job.Job) *Payload {
	return &Payload{
		Event:     "evaluation.job." + string(j.Status),
		JobID:     j.ID,
		Status:    string(j.Status),
		Timestamp: time.Now().UTC(),
		Job:       j,
	}
}

// Sender posts webhook payloads over HTTP.
type Sender struct {
	client *http.Client
}

// NewSender creates a webhook sender with standard transport settings.
func NewSender(timeout time.Duration) *Sender {
	return &Sender{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Send delivers a payload via HTTP POST. signingKey, when non-empty, adds an
// HMAC-SHA256 signature of the body in X-Signature-256.
func (s *Sender) Send(ctx context.Context, url string, payload *Payload, signingKey string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Eval-Event", payload.Event)
	req.Header.Set("X-Eval-Job-Id", payload.JobID)
	if signingKey != "" {
		req.Header.Set("X-Signature-256", generateSignature(body, signingKey))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &HTTPError{StatusCode: resp.StatusCode}
}

// generateSignature generates an HMAC-SHA256 signature.
func generateSignature(payload []byte, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// HTTPError represents an HTTP error response.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// IsClientError returns true for 4xx errors (shouldn't retry).
func IsClientError(err error) bool {
	if he, ok := err.(*HTTPError); ok {
		return he.StatusCode >= 400 && he.StatusCode < 500
	}
	return false
}

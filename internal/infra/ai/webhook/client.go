package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	domain "github.com/adityarama/tutorlens/internal/domain/jobs"
)

// maxResponseBytes caps what we read back from the upstream service.
const maxResponseBytes = 4 << 20

// Client dispatches jobs to the external AI service's webhook. One
// outbound POST per job, bounded by Timeout; the upstream owns its own
// async completion semantics, our role ends at accepted-or-rejected.
type Client struct {
	http    *http.Client
	urlFor  func(domain.Type) string
	timeout time.Duration
}

func NewClient(urlFor func(domain.Type) string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		urlFor:  urlFor,
		timeout: timeout,
	}
}

// Dispatch posts the job-type-specific body and returns the raw
// response. Errors are transport-level only (*jobs.DispatchError):
// network failure, non-2xx status, or an outer body that is not
// well-formed JSON. Malformed inner content passes through untouched.
func (c *Client) Dispatch(ctx context.Context, jobType domain.Type, payload map[string]any) (json.RawMessage, error) {
	url := c.urlFor(jobType)
	if url == "" {
		return nil, &domain.DispatchError{Type: jobType, Err: fmt.Errorf("no webhook url configured")}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &domain.DispatchError{Type: jobType, Err: fmt.Errorf("encode request: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.DispatchError{Type: jobType, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.DispatchError{Type: jobType, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &domain.DispatchError{Type: jobType, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.DispatchError{Type: jobType, StatusCode: resp.StatusCode, Err: fmt.Errorf("upstream rejected request")}
	}

	// outer envelope must at least be JSON; inner content is the
	// normalizer's problem
	if !json.Valid(raw) {
		return nil, &domain.DispatchError{Type: jobType, StatusCode: resp.StatusCode, Err: fmt.Errorf("response is not valid JSON")}
	}

	return raw, nil
}

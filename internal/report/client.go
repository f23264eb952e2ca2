package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Backend is the platform surface the reporter talks to.
type Backend interface {
	SubmitResult(ctx context.Context, rec Record) error
	CompleteActivity(ctx context.Context, c Completion) error
}

// HTTPBackend posts records to the platform REST API.
type HTTPBackend struct {
	base string
	http *http.Client
}

type HTTPBackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

func NewHTTPBackend(cfg HTTPBackendConfig) *HTTPBackend {
	h := &http.Client{Timeout: 10 * time.Second}
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}
	return &HTTPBackend{base: strings.TrimSuffix(cfg.BaseURL, "/"), http: h}
}

func (b *HTTPBackend) SubmitResult(ctx context.Context, rec Record) error {
	return b.post(ctx, "/api/student/save-quiz-result", rec)
}

func (b *HTTPBackend) CompleteActivity(ctx context.Context, c Completion) error {
	return b.post(ctx, "/api/complete-activity", c)
}

func (b *HTTPBackend) post(ctx context.Context, path string, body any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.base+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := b.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return fmt.Errorf("post %s: %s", path, res.Status)
	}
	return nil
}

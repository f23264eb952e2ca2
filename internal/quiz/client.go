package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client fetches quiz definitions from the platform content API. Used as a
// fallback when a quiz is not present in the local store.
type Client struct {
	base string
	http *http.Client
}

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

func NewClient(cfg ClientConfig) *Client {
	h := &http.Client{Timeout: 10 * time.Second}
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}
	return &Client{base: strings.TrimSuffix(cfg.BaseURL, "/"), http: h}
}

// Fetch retrieves GET {base}/api/quizzes/{quizID}. The upstream payload uses
// "type" ("flashcard" or absent) rather than our canonical kind values, so
// the kind is normalized on the way in.
func (c *Client) Fetch(ctx context.Context, quizID string) (Definition, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/quizzes/"+quizID, nil)
	if err != nil {
		return Definition{}, err
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return Definition{}, err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return Definition{}, ErrNotFound
	}
	if res.StatusCode/100 != 2 {
		return Definition{}, fmt.Errorf("fetch quiz %s: %s", quizID, res.Status)
	}
	var wire struct {
		Title     string     `json:"title"`
		Type      string     `json:"type"`
		Questions []Question `json:"questions"`
	}
	if err := json.NewDecoder(res.Body).Decode(&wire); err != nil {
		return Definition{}, err
	}
	d := Definition{
		ID:        quizID,
		Title:     wire.Title,
		Kind:      KindFromWire(wire.Type),
		Questions: wire.Questions,
	}
	if err := Validate(d); err != nil {
		return Definition{}, err
	}
	return d, nil
}

// internal/feedback/feedback.go
package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Generator produces feedback text for a submitted reflection. The concrete
// generator is a black box to the rest of the application.
type Generator interface {
	Generate(ctx context.Context, reflection string, tags []string) (string, error)
}

// HTTPGenerator calls an external feedback service over HTTP.
type HTTPGenerator struct {
	url    string
	client *http.Client
}

var _ Generator = (*HTTPGenerator)(nil)

func NewHTTPGenerator(url string, timeout time.Duration) *HTTPGenerator {
	return &HTTPGenerator{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Reflection string   `json:"reflection"`
	Tags       []string `json:"tags,omitempty"`
}

type generateResponse struct {
	Feedback string `json:"feedback"`
}

func (g *HTTPGenerator) Generate(ctx context.Context, reflection string, tags []string) (string, error) {
	payload, err := json.Marshal(generateRequest{Reflection: reflection, Tags: tags})
	if err != nil {
		return "", fmt.Errorf("failed to encode feedback request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create feedback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call feedback service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("feedback service returned %d: %s", resp.StatusCode, string(body))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode feedback response: %w", err)
	}
	if out.Feedback == "" {
		return "", fmt.Errorf("feedback service returned an empty response")
	}
	return out.Feedback, nil
}

// Package answerer is the LocalAnswerer boundary: a blocking client for the
// local Ollama inference process. No internal retry; retries are the
// caller's call.
package answerer

// #region imports
import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// #endregion

// #region types

// Params tunes one generation call. Zero values mean server defaults.
type Params struct {
	Temperature float64
	MaxTokens   int
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// #endregion

// #region client

// Client talks to an Ollama server over its /api/generate endpoint.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
}

// NewClient reads OLLAMA_ADDR and OLLAMA_MODEL with local defaults.
func NewClient() *Client {
	return &Client{
		baseURL: envOr("OLLAMA_ADDR", "http://localhost:11434"),
		model:   envOr("OLLAMA_MODEL", "llama3.2"),
		http:    &http.Client{},
	}
}

// NewClientWith pins the endpoint and model, used by tests.
func NewClientWith(baseURL, model string) *Client {
	return &Client{baseURL: baseURL, model: model, http: &http.Client{}}
}

// #endregion

// #region generate

// Generate sends the prompt and blocks until the full completion arrives.
func (c *Client) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	reqBody := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	}
	opts := map[string]any{}
	if p.Temperature > 0 {
		opts["temperature"] = p.Temperature
	}
	if p.MaxTokens > 0 {
		opts["num_predict"] = p.MaxTokens
	}
	if len(opts) > 0 {
		reqBody.Options = opts
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	url := strings.TrimRight(c.baseURL, "/") + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generate: status %d", resp.StatusCode)
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	return gen.Response, nil
}

// #endregion

// #region helpers

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion

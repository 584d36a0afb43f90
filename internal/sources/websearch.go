// Package sources implements the escalation-chain entries: web-aggregated
// search, a long-form research assistant, and a general-purpose assistant.
// Every source maps its own failures to error returns; the orchestrator
// records them and advances the chain.
package sources

// #region imports
import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/kibbyd/reason-pilot/internal/fallback"
)

// #endregion

// #region config

// WebSearchConfig holds web search parameters. Reads from env vars:
// WEB_SEARCH_ENABLED, WEB_SEARCH_MAX_RESULTS, WEB_SEARCH_ENDPOINT.
type WebSearchConfig struct {
	Endpoint   string
	MaxResults int
	Enabled    bool
}

// DefaultWebSearchConfig returns default web search configuration.
func DefaultWebSearchConfig() WebSearchConfig {
	cfg := WebSearchConfig{
		Endpoint:   "https://api.duckduckgo.com/",
		MaxResults: 3,
		Enabled:    true,
	}
	if v := os.Getenv("WEB_SEARCH_ENABLED"); v != "" {
		cfg.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("WEB_SEARCH_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxResults = n
		}
	}
	if v := os.Getenv("WEB_SEARCH_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	return cfg
}

// #endregion

// #region types

type instantAnswer struct {
	Heading       string `json:"Heading"`
	AbstractText  string `json:"AbstractText"`
	Answer        string `json:"Answer"`
	RelatedTopics []struct {
		Text string `json:"Text"`
	} `json:"RelatedTopics"`
}

// #endregion

// #region websearch

// WebSearch is the first escalation stage: the DuckDuckGo instant-answer API.
type WebSearch struct {
	cfg    WebSearchConfig
	client *http.Client
}

// NewWebSearch creates the web search source. The per-stage timeout comes
// from the orchestrator's context, not the HTTP client.
func NewWebSearch(cfg WebSearchConfig) *WebSearch {
	return &WebSearch{cfg: cfg, client: &http.Client{}}
}

func (w *WebSearch) ID() string { return "websearch" }

// Query asks the instant-answer API and formats whatever it found as an
// evidence block.
func (w *WebSearch) Query(ctx context.Context, query string) (fallback.SourceResult, error) {
	u := fmt.Sprintf("%s?q=%s&format=json&no_html=1&skip_disambig=1",
		strings.TrimRight(w.cfg.Endpoint, "/")+"/", url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fallback.SourceResult{}, fmt.Errorf("build search request: %w", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fallback.SourceResult{}, fmt.Errorf("web search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fallback.SourceResult{}, fmt.Errorf("web search: status %d", resp.StatusCode)
	}

	var ia instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&ia); err != nil {
		return fallback.SourceResult{}, fmt.Errorf("decode search response: %w", err)
	}

	text, conf := formatInstantAnswer(ia, w.cfg.MaxResults)
	if text == "" {
		return fallback.SourceResult{}, fmt.Errorf("web search: no results for query")
	}
	return fallback.SourceResult{Text: text, Confidence: conf}, nil
}

// #endregion

// #region format

// formatInstantAnswer converts an instant-answer payload into a readable
// block. Direct answers and abstracts rate higher than bare related topics.
func formatInstantAnswer(ia instantAnswer, maxResults int) (string, float64) {
	var b strings.Builder
	conf := 0.0

	if ia.Answer != "" {
		b.WriteString(ia.Answer)
		b.WriteString("\n")
		conf = 0.85
	} else if ia.AbstractText != "" {
		if ia.Heading != "" {
			fmt.Fprintf(&b, "%s: ", ia.Heading)
		}
		b.WriteString(ia.AbstractText)
		b.WriteString("\n")
		conf = 0.75
	}

	if b.Len() == 0 && len(ia.RelatedTopics) > 0 {
		b.WriteString("[Web Search Results]\n")
		for i, rt := range ia.RelatedTopics {
			if i >= maxResults {
				break
			}
			if rt.Text != "" {
				fmt.Fprintf(&b, "%d. %s\n", i+1, rt.Text)
			}
		}
		conf = 0.55
	}

	return strings.TrimSpace(b.String()), conf
}

// #endregion

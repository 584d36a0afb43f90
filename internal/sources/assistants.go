package sources

// #region imports
import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kibbyd/reason-pilot/internal/fallback"
)

// #endregion

// #region chat-source

// ChatSource is an OpenAI-compatible chat-completion source. Both the
// long-form research assistant and the general-purpose assistant are
// instances pointed at different endpoints.
type ChatSource struct {
	id         string
	client     *openai.Client
	model      string
	system     string
	confidence float64 // the source's own baseline estimate
}

func (c *ChatSource) ID() string { return c.id }

// Query sends the user query as a single-turn chat completion.
func (c *ChatSource) Query(ctx context.Context, query string) (fallback.SourceResult, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.system},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
	})
	if err != nil {
		return fallback.SourceResult{}, fmt.Errorf("%s: %w", c.id, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return fallback.SourceResult{}, fmt.Errorf("%s: empty completion", c.id)
	}
	return fallback.SourceResult{
		Text:       resp.Choices[0].Message.Content,
		Confidence: c.confidence,
	}, nil
}

// #endregion

// #region research

// NewResearch builds the second escalation stage: a long-form research
// assistant behind a Perplexity-compatible API. Returns nil when no API key
// is configured, which drops the stage from the chain.
func NewResearch() *ChatSource {
	key := os.Getenv("PERPLEXITY_API_KEY")
	if key == "" {
		return nil
	}
	cfg := openai.DefaultConfig(key)
	cfg.BaseURL = envOr("PERPLEXITY_BASE_URL", "https://api.perplexity.ai")
	return &ChatSource{
		id:         "research",
		client:     openai.NewClientWithConfig(cfg),
		model:      envOr("PERPLEXITY_MODEL", "sonar"),
		system:     "Answer thoroughly with sources where relevant.",
		confidence: 0.75,
	}
}

// #endregion

// #region assistant

// NewAssistant builds the third escalation stage: a general-purpose
// assistant over the OpenAI API. Returns nil when no API key is configured.
func NewAssistant() *ChatSource {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil
	}
	cfg := openai.DefaultConfig(key)
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		cfg.BaseURL = base
	}
	return &ChatSource{
		id:         "assistant",
		client:     openai.NewClientWithConfig(cfg),
		model:      envOr("OPENAI_MODEL", "gpt-4o-mini"),
		system:     "You are a helpful assistant. Answer directly and completely.",
		confidence: 0.70,
	}
}

// #endregion

// #region helpers

func envOr(key, fallbackValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallbackValue
}

// #endregion

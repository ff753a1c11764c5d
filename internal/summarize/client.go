package summarize

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/memonote/memo-service/internal/metrics"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultModel   = "gemini-2.0-flash-001"
)

const systemPrompt = `You summarize personal memos. Summarize the memo concisely and clearly,
keeping its key points in 3 to 5 sentences. Write the summary in the same language as the memo.
Reply with the summary text only.`

// Config selects the endpoint. Empty BaseURL and Model fall back to the defaults.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client is the go-openai backed Gateway.
type Client struct {
	client  *openai.Client
	model   string
	hasKey  bool
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewClient builds a client. A missing API key is not fatal: it is logged here
// and every Summarize call fails with ErrMissingCredential.
func NewClient(cfg Config, log zerolog.Logger, m *metrics.Metrics) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(baseURL, "/")

	c := &Client{
		client:  openai.NewClientWithConfig(oc),
		model:   model,
		hasKey:  cfg.APIKey != "",
		log:     log.With().Str("component", "summarize").Str("model", model).Logger(),
		metrics: m,
	}
	if !c.hasKey {
		c.log.Warn().Msg("summary API key not set; summarization disabled")
	}
	return c
}

// CheckCredential fails with ErrMissingCredential when no API key was configured.
func (c *Client) CheckCredential() error {
	if !c.hasKey {
		return c.fail(newGatewayError(ErrMissingCredential, nil), "missing_credential")
	}
	return nil
}

// Summarize requests a summary of content. Failures are logged and returned as *GatewayError.
func (c *Client) Summarize(ctx context.Context, content string) (string, error) {
	if err := c.CheckCredential(); err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", c.fail(newGatewayError(ErrEmptyContent, nil), "empty_content")
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: content},
		},
	})
	latency := time.Since(start)
	if err != nil {
		return "", c.fail(newGatewayError(ErrGeneration, errors.WithStack(err)), "generation_error")
	}
	if len(resp.Choices) == 0 {
		return "", c.fail(newGatewayError(ErrEmptyResponse, nil), "empty_response")
	}
	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", c.fail(newGatewayError(ErrEmptyResponse, nil), "empty_response")
	}

	c.metrics.Summary("ok")
	c.log.Debug().
		Int64("latency_ms", latency.Milliseconds()).
		Int("tokens_total", resp.Usage.TotalTokens).
		Msg("summary generated")
	return summary, nil
}

func (c *Client) fail(ge *GatewayError, kind string) error {
	c.metrics.Summary(kind)
	ev := c.log.Error()
	if ge.Kind == ErrEmptyContent {
		ev = c.log.Warn()
	}
	ev.Stack().Err(ge).Str("kind", kind).Msg(ge.Message)
	return ge
}

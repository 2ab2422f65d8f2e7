// Package llm implements the drafting, validation, title and field-suggestion
// services on an OpenAI-compatible chat completion API.
package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/resolve"
	"go.uber.org/zap"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = openai.GPT4oMini

var (
	// ErrService indicates a failed or empty chat completion.
	ErrService = errors.New("language model service failure")
	// ErrNoAPIKey indicates the client was configured without credentials.
	ErrNoAPIKey = errors.New("no API key configured")
)

// Config configures the chat completion client.
type Config struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Client answers every service prompt with a single-turn chat completion.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// New returns a Client. logger may be nil.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: cfg.Temperature,
		logger:      logger,
	}, nil
}

func (c *Client) complete(ctx context.Context, kind, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if c.temperature > 0 {
		req.Temperature = c.temperature
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", errors.Wrapf(ErrService, "%s: %v", kind, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.Wrapf(ErrService, "%s: no choices returned", kind)
	}

	c.logger.Debug("Chat completion finished",
		zap.String("kind", kind),
		zap.String("model", c.model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("elapsed", time.Since(start)),
	)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Draft returns the model's reply to a drafting prompt.
func (c *Client) Draft(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, "draft", prompt)
}

// Validate asks the model to check a drafted box-and-whisker configuration.
func (c *Client) Validate(ctx context.Context, candidate string) (string, error) {
	return c.complete(ctx, "validate", validatePrompt(candidate))
}

// SuggestTitle asks for a short dashboard title. Quotes are stripped.
func (c *Client) SuggestTitle(ctx context.Context, category string, measures []string, dataset string) (string, error) {
	reply, err := c.complete(ctx, "title", titlePrompt(category, measures, dataset))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.NewReplacer(`"`, "", "'", "").Replace(reply)), nil
}

// SuggestField asks for the available column closest to a conceptual field.
func (c *Client) SuggestField(ctx context.Context, req resolve.SuggestRequest) (string, error) {
	return c.complete(ctx, "suggest_"+req.Role, fieldPrompt(req))
}

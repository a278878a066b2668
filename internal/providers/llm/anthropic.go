package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
)

const defaultAnthropicModel = "claude-sonnet-4-5"

// anthropic requires an explicit output budget.
const defaultAnthropicMaxTokens = 8192

var anthropicModelAliases = map[string]string{
	"sonnet":            "claude-sonnet-4-5",
	"claude-sonnet":     "claude-sonnet-4-5",
	"claude-sonnet-4.5": "claude-sonnet-4-5",
	"haiku":             "claude-haiku-4-5",
	"claude-haiku-4.5":  "claude-haiku-4-5",
}

// AnthropicOptions configures the Anthropic messages client.
type AnthropicOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	MaxRetries int
	Logger     zerolog.Logger
}

// AnthropicClient completes prompts with the Anthropic messages API.
type AnthropicClient struct {
	client anthropic.Client
	model  string
	logger zerolog.Logger
}

func NewAnthropicClient(opts AnthropicOptions) (*AnthropicClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("anthropic api key is required")
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(opts.APIKey)),
		option.WithMaxRetries(opts.MaxRetries),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	return &AnthropicClient{
		client: anthropic.NewClient(reqOpts...),
		model:  normalizeModel(opts.Model, defaultAnthropicModel, anthropicModelAliases),
		logger: opts.Logger,
	}, nil
}

func (c *AnthropicClient) Name() string { return ProviderAnthropic }

func (c *AnthropicClient) Complete(ctx context.Context, req Request) (*Response, error) {
	maxTokens := int64(req.MaxOutputTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classify(ProviderAnthropic, err)
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return nil, emptyOutput(ProviderAnthropic)
	}
	out := &Response{
		Text:         sb.String(),
		Model:        coalesce(string(msg.Model), c.model),
		Provider:     ProviderAnthropic,
		InputTokens:  msg.Usage.InputTokens,
		OutputTokens: msg.Usage.OutputTokens,
	}
	out.Cost = priced(c.logger, out)
	return out, nil
}

var _ Client = (*AnthropicClient)(nil)

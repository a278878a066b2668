package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
)

const defaultOpenAIModel = "gpt-4o"

var openAIModelAliases = map[string]string{
	"gpt4o":      "gpt-4o",
	"gpt-4-o":    "gpt-4o",
	"gpt4o-mini": "gpt-4o-mini",
	"gpt4omini":  "gpt-4o-mini",
	"gpt-4.1m":   "gpt-4.1-mini",
}

// OpenAIOptions configures the OpenAI chat client.
type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	MaxRetries int
	Logger     zerolog.Logger
}

// OpenAIClient completes prompts with the OpenAI chat completions API.
type OpenAIClient struct {
	client openai.Client
	model  string
	logger zerolog.Logger
}

func NewOpenAIClient(opts OpenAIOptions) (*OpenAIClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
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
	model := normalizeModel(opts.Model, defaultOpenAIModel, openAIModelAliases)
	return &OpenAIClient{
		client: openai.NewClient(reqOpts...),
		model:  model,
		logger: opts.Logger,
	}, nil
}

func (c *OpenAIClient) Name() string { return ProviderOpenAI }

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (*Response, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserPrompt),
		},
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxOutputTokens))
	}
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classify(ProviderOpenAI, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, emptyOutput(ProviderOpenAI)
	}
	out := &Response{
		Text:         resp.Choices[0].Message.Content,
		Model:        coalesce(resp.Model, c.model),
		Provider:     ProviderOpenAI,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}
	out.Cost = priced(c.logger, out)
	return out, nil
}

var _ Client = (*OpenAIClient)(nil)

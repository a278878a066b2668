package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	gemini "carekorea/internal/providers/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

var geminiModelAliases = map[string]string{
	"flash":                   "gemini-2.5-flash",
	"gemini-flash":            "gemini-2.5-flash",
	"pro":                     "gemini-2.5-pro",
	"gemini-pro":              "gemini-2.5-pro",
	"gemini-2.5-flash-latest": "gemini-2.5-flash",
}

// GeminiOptions configures the Gemini client.
type GeminiOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// GeminiClient completes prompts with the Gemini generateContent API.
type GeminiClient struct {
	client *genai.Client
	model  string
	logger zerolog.Logger
}

func NewGeminiClient(ctx context.Context, opts GeminiOptions) (*GeminiClient, error) {
	client, err := gemini.NewClient(ctx, gemini.Options{APIKey: opts.APIKey, BaseURL: opts.BaseURL, HTTPClient: opts.HTTPClient})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{
		client: client,
		model:  normalizeModel(opts.Model, defaultGeminiModel, geminiModelAliases),
		logger: opts.Logger,
	}, nil
}

func (c *GeminiClient) Name() string { return ProviderGemini }

func (c *GeminiClient) Complete(ctx context.Context, req Request) (*Response, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(req.Temperature)),
		ResponseMIMEType: "application/json",
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	contents := []*genai.Content{genai.NewContentFromText(req.UserPrompt, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return nil, classify(ProviderGemini, err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, emptyOutput(ProviderGemini)
	}
	out := &Response{
		Text:     text,
		Model:    c.model,
		Provider: ProviderGemini,
	}
	if resp.UsageMetadata != nil {
		out.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	out.Cost = priced(c.logger, out)
	return out, nil
}

var _ Client = (*GeminiClient)(nil)

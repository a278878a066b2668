// Package genai builds the shared Gemini API client used for text, images and embeddings.
package genai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	sdk "google.golang.org/genai"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a Gemini API backend client.
func NewClient(ctx context.Context, opts Options) (*sdk.Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	cfg := &sdk.ClientConfig{
		APIKey:     apiKey,
		Backend:    sdk.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = sdk.HTTPOptions{BaseURL: opts.BaseURL}
	}
	return sdk.NewClient(ctx, cfg)
}

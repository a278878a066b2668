package image

import (
	"context"
	"net/url"
	"strings"
)

// PlaceholderGenerator returns placeholder image URLs without calling any API.
type PlaceholderGenerator struct {
	baseURL string
}

func NewPlaceholderGenerator(baseURL string) *PlaceholderGenerator {
	if baseURL == "" {
		baseURL = "https://placehold.co"
	}
	return &PlaceholderGenerator{baseURL: strings.TrimRight(baseURL, "/")}
}

func (g *PlaceholderGenerator) Name() string { return ProviderPlaceholder }

func (g *PlaceholderGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req = normalizeRequest(req)
	if req.Prompt == "" {
		return nil, &Error{Provider: ProviderPlaceholder, Reason: "empty prompt"}
	}
	label := req.Prompt
	if words := strings.Fields(label); len(words) > 6 {
		label = strings.Join(words[:6], " ")
	}
	return &Result{
		URL:     g.baseURL + "/" + req.Size + "?text=" + url.QueryEscape(label),
		Size:    req.Size,
		Quality: req.Quality,
	}, nil
}

var _ Generator = (*PlaceholderGenerator)(nil)

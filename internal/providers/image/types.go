// Package image wraps image-generation backends behind one Generator contract.
package image

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	ProviderImagen      = "imagen"
	ProviderDalle       = "dalle"
	ProviderPlaceholder = "placeholder"
)

// Request describes one image to generate.
type Request struct {
	Prompt         string
	NegativePrompt string
	// Size is WIDTHxHEIGHT, e.g. 1792x1024.
	Size    string
	Quality string
	Style   string
	// KeyPrefix groups stored bytes, e.g. posts/<keyword id>.
	KeyPrefix string
}

// Result is a generated image.
type Result struct {
	URL           string
	RevisedPrompt string
	Size          string
	Quality       string
	Cost          float64
	Latency       time.Duration
}

// Generator is the contract implemented by all image providers.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
	Name() string
}

// ImageSaver stores image bytes and returns their public URL.
type ImageSaver interface {
	SaveImage(ctx context.Context, prefix string, data []byte, mimeType string) (string, error)
}

// Error carries a human readable reason for a failed image.
type Error struct {
	Provider string
	Reason   string
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Reason, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// AspectRatio maps a WIDTHxHEIGHT size onto the closest supported ratio.
func AspectRatio(size string) string {
	var w, h int
	if _, err := fmt.Sscanf(strings.ToLower(size), "%dx%d", &w, &h); err != nil || w <= 0 || h <= 0 {
		return "1:1"
	}
	r := float64(w) / float64(h)
	switch {
	case r >= 1.6:
		return "16:9"
	case r >= 1.2:
		return "4:3"
	case r <= 0.625:
		return "9:16"
	case r <= 0.83:
		return "3:4"
	default:
		return "1:1"
	}
}

func normalizeRequest(req Request) Request {
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Size == "" {
		req.Size = "1792x1024"
	}
	if req.Quality == "" {
		req.Quality = "standard"
	}
	if req.Style == "" {
		req.Style = "natural"
	}
	return req
}

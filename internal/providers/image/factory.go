package image

import (
	"context"
	"fmt"

	gemini "carekorea/internal/providers/genai"
)

// Config selects and configures one image backend.
type Config struct {
	Provider       string
	Model          string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	GeminiAPIKey   string
	PlaceholderURL string
}

// New builds the generator named by cfg.Provider. Exactly one backend is active per process.
func New(ctx context.Context, cfg Config, saver ImageSaver) (Generator, error) {
	switch cfg.Provider {
	case ProviderImagen:
		client, err := gemini.NewClient(ctx, gemini.Options{APIKey: cfg.GeminiAPIKey})
		if err != nil {
			return nil, fmt.Errorf("imagen: %w", err)
		}
		return NewImagenGenerator(client, cfg.Model, saver)
	case ProviderDalle:
		return NewDalleGenerator(DalleOptions{APIKey: cfg.OpenAIAPIKey, BaseURL: cfg.OpenAIBaseURL, Saver: saver})
	case ProviderPlaceholder:
		return NewPlaceholderGenerator(cfg.PlaceholderURL), nil
	default:
		return nil, fmt.Errorf("unknown image provider %q", cfg.Provider)
	}
}

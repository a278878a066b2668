package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Config selects and configures one provider.
type Config struct {
	Provider        string
	Model           string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	GeminiAPIKey    string
	MaxRetries      int
}

// New builds the client named by cfg.Provider.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (Client, error) {
	logger = logger.With().Str("provider", cfg.Provider).Logger()
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIClient(OpenAIOptions{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.OpenAIBaseURL,
			MaxRetries: cfg.MaxRetries,
			Logger:     logger,
		})
	case ProviderAnthropic:
		return NewAnthropicClient(AnthropicOptions{
			APIKey:     cfg.AnthropicAPIKey,
			Model:      cfg.Model,
			MaxRetries: cfg.MaxRetries,
			Logger:     logger,
		})
	case ProviderGemini:
		return NewGeminiClient(ctx, GeminiOptions{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.Model,
			Logger: logger,
		})
	case ProviderStatic:
		return NewStaticClient(), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

package llm

import (
	"strings"

	"github.com/rs/zerolog"
)

// normalizeModel lower-cases model, resolves aliases and falls back to def when empty.
func normalizeModel(model, def string, aliases map[string]string) string {
	key := strings.ToLower(strings.TrimSpace(model))
	if key == "" {
		return def
	}
	key = strings.Join(strings.Fields(key), "-")
	if canonical, ok := aliases[key]; ok {
		return canonical
	}
	return key
}

func priced(logger zerolog.Logger, resp *Response) float64 {
	cost, ok := Cost(resp.Model, resp.InputTokens, resp.OutputTokens)
	if !ok {
		logger.Warn().
			Str("provider", resp.Provider).
			Str("model", resp.Model).
			Msg("no price for model; cost recorded as 0")
	}
	return cost
}

func coalesce(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}

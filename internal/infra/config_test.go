package infra

import (
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaultStorageBaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("PORT", "")
	t.Setenv("STORAGE_BASE_URL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := "http://localhost:8080/static"
	if cfg.StorageBaseURL != expected {
		t.Fatalf("StorageBaseURL mismatch: got %q want %q", cfg.StorageBaseURL, expected)
	}
}

func TestLoadConfigInheritsPortInStorageBaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("PORT", "1919")
	t.Setenv("STORAGE_BASE_URL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := "http://localhost:1919/static"
	if cfg.StorageBaseURL != expected {
		t.Fatalf("StorageBaseURL mismatch: got %q want %q", cfg.StorageBaseURL, expected)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("IMAGE_PROVIDER", "")
	t.Setenv("LLM_TIMEOUT", "")
	t.Setenv("HTTP_WRITE_TIMEOUT_SECONDS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.LLMProvider != "openai" || cfg.ImageProvider != "imagen" {
		t.Fatalf("unexpected providers: %q %q", cfg.LLMProvider, cfg.ImageProvider)
	}
	if cfg.LLMTimeout != 3*time.Minute {
		t.Fatalf("LLMTimeout = %s", cfg.LLMTimeout)
	}
	if cfg.HTTPWriteTimeout != 0 {
		t.Fatalf("HTTPWriteTimeout = %s, want 0 so streams are not cut", cfg.HTTPWriteTimeout)
	}
	if cfg.KeywordMaxFailures != 3 || cfg.SSEMaxIterations != 200 {
		t.Fatalf("unexpected limits: %d %d", cfg.KeywordMaxFailures, cfg.SSEMaxIterations)
	}
}

func TestLoadConfigParsesOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("LLM_PROVIDER", "Anthropic")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("IMAGE_TIMEOUT", "45s")
	t.Setenv("RETRIEVAL_ENABLED", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.LLMProvider != "anthropic" {
		t.Fatalf("LLMProvider = %q", cfg.LLMProvider)
	}
	if cfg.LLMTemperature != 0.2 {
		t.Fatalf("LLMTemperature = %v", cfg.LLMTemperature)
	}
	if cfg.ImageTimeout != 45*time.Second {
		t.Fatalf("ImageTimeout = %s", cfg.ImageTimeout)
	}
	if cfg.RetrievalEnabled {
		t.Fatalf("RetrievalEnabled should be false")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("CORSAllowedOrigins mismatch: %#v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing database", map[string]string{"DATABASE_URL": ""}, "DATABASE_URL is required"},
		{"bad duration", map[string]string{"DATABASE_URL": "postgres://x", "LLM_TIMEOUT": "soon"}, "invalid LLM_TIMEOUT"},
		{"unknown llm", map[string]string{"DATABASE_URL": "postgres://x", "LLM_PROVIDER": "cohere"}, "unknown LLM_PROVIDER"},
		{"unknown image", map[string]string{"DATABASE_URL": "postgres://x", "IMAGE_PROVIDER": "midjourney"}, "unknown IMAGE_PROVIDER"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadConfigPoolBounds(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("DB_MAX_CONNS", "")
	t.Setenv("DB_MIN_CONNS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DBMaxConns != 10 || cfg.DBMinConns != 1 {
		t.Fatalf("pool bounds = %d/%d", cfg.DBMinConns, cfg.DBMaxConns)
	}

	t.Setenv("DB_MAX_CONNS", "2")
	t.Setenv("DB_MIN_CONNS", "5")
	if _, err := LoadConfig(); err == nil || !strings.Contains(err.Error(), "DB_MIN_CONNS") {
		t.Fatalf("expected pool bound error, got %v", err)
	}
}

func TestNewLoggerLevelOverride(t *testing.T) {
	var buf strings.Builder
	logger := newLogger(&buf, "production", "warn")
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output: %s", out)
	}
	if !strings.Contains(out, `"env":"production"`) {
		t.Fatalf("env field missing: %s", out)
	}

	buf.Reset()
	logger = newLogger(&buf, "production", "nonsense")
	logger.Debug().Msg("debug")
	logger.Info().Msg("info")
	if strings.Contains(buf.String(), "debug") || !strings.Contains(buf.String(), "info") {
		t.Fatalf("invalid LOG_LEVEL should keep the default: %s", buf.String())
	}
}

package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Host               string
	Port               string
	DatabaseURL        string
	DBMaxConns         int
	DBMinConns         int
	DBSimpleProtocol   bool
	AdminJWTSecret     string
	CORSAllowedOrigins []string

	LLMProvider        string
	LLMModel           string
	LLMMaxOutputTokens int
	LLMTemperature     float64
	LLMTimeout         time.Duration
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	AnthropicAPIKey    string
	GeminiAPIKey       string

	ImageProvider    string
	ImageModel       string
	ImageTimeout     time.Duration
	ImageConcurrency int
	ImageSize        string
	ImageQuality     string
	ImageStyle       string

	StoragePath    string
	StorageBaseURL string

	RetrievalEnabled  bool
	RetrievalTopK     int
	RetrievalCacheTTL time.Duration
	EmbeddingModel    string

	KeywordMaxFailures   int
	StaleGeneratingAfter time.Duration
	WorkerPollInterval   time.Duration
	ResubmitCron         string
	ResubmitLimit        int

	SSEMaxIterations int
	SSEPollInterval  time.Duration
	SSEMaxDuration   time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

var (
	llmProviders   = []string{"openai", "anthropic", "gemini", "static"}
	imageProviders = []string{"imagen", "dalle", "placeholder"}
)

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	var errs []string
	duration := func(key string, fallback time.Duration) time.Duration {
		d, err := getEnvDuration(key, fallback)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return d
	}

	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Host:               os.Getenv("HOST"),
		Port:               port,
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBMaxConns:         getEnvInt("DB_MAX_CONNS", 10),
		DBMinConns:         getEnvInt("DB_MIN_CONNS", 1),
		DBSimpleProtocol:   getEnvBool("DB_SIMPLE_PROTOCOL", false),
		AdminJWTSecret:     os.Getenv("ADMIN_JWT_SECRET"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		LLMProvider:        strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		LLMModel:           os.Getenv("LLM_MODEL"),
		LLMMaxOutputTokens: getEnvInt("LLM_MAX_OUTPUT_TOKENS", 8192),
		LLMTemperature:     getEnvFloat("LLM_TEMPERATURE", 0.7),
		LLMTimeout:         duration("LLM_TIMEOUT", 3*time.Minute),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		AnthropicAPIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),

		ImageProvider:    strings.ToLower(getEnv("IMAGE_PROVIDER", "imagen")),
		ImageModel:       os.Getenv("IMAGE_MODEL"),
		ImageTimeout:     duration("IMAGE_TIMEOUT", 2*time.Minute),
		ImageConcurrency: getEnvInt("IMAGE_CONCURRENCY", 3),
		ImageSize:        getEnv("IMAGE_SIZE", "1792x1024"),
		ImageQuality:     getEnv("IMAGE_QUALITY", "standard"),
		ImageStyle:       getEnv("IMAGE_STYLE", "natural"),

		StoragePath:    getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"),

		RetrievalEnabled:  getEnvBool("RETRIEVAL_ENABLED", true),
		RetrievalTopK:     getEnvInt("RETRIEVAL_TOP_K", 3),
		RetrievalCacheTTL: duration("RETRIEVAL_CACHE_TTL", 10*time.Minute),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "gemini-embedding-001"),

		KeywordMaxFailures:   getEnvInt("KEYWORD_MAX_FAILURES", 3),
		StaleGeneratingAfter: duration("STALE_GENERATING_AFTER", 30*time.Minute),
		WorkerPollInterval:   duration("WORKER_POLL_INTERVAL", 2*time.Second),
		ResubmitCron:         os.Getenv("SCHEDULE_RESUBMIT_CRON"),
		ResubmitLimit:        getEnvInt("SCHEDULE_RESUBMIT_LIMIT", 20),

		SSEMaxIterations: getEnvInt("SSE_MAX_ITERATIONS", 200),
		SSEPollInterval:  duration("SSE_POLL_INTERVAL", 2*time.Second),
		SSEMaxDuration:   duration("SSE_MAX_DURATION", 10*time.Minute),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 0)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if !contains(llmProviders, cfg.LLMProvider) {
		errs = append(errs, fmt.Sprintf("unknown LLM_PROVIDER %q", cfg.LLMProvider))
	}
	if !contains(imageProviders, cfg.ImageProvider) {
		errs = append(errs, fmt.Sprintf("unknown IMAGE_PROVIDER %q", cfg.ImageProvider))
	}
	if cfg.DBMaxConns < 1 || cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		errs = append(errs, fmt.Sprintf("invalid DB_MIN_CONNS/DB_MAX_CONNS %d/%d", cfg.DBMinConns, cfg.DBMaxConns))
	}
	if cfg.ImageConcurrency < 1 {
		cfg.ImageConcurrency = 1
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s %q", key, v)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

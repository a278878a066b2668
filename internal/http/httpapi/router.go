package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"carekorea/internal/http/handlers"
	"carekorea/internal/middleware"
)

// Options configures the router's middleware.
type Options struct {
	Logger         zerolog.Logger
	AdminJWTSecret string
	AllowedOrigins []string
	// RateLimitPerMin bounds generation requests per client; 0 disables it.
	RateLimitPerMin int
	// StaticDir, when set, is served under /static.
	StaticDir string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	if opts.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir))))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.AdminAuth(opts.AdminJWTSecret))

		limited := r.With(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))

		r.Patch("/keywords/{id}/status", app.KeywordSetStatus)
		limited.Post("/keywords/{id}/generate", app.KeywordGenerate)

		limited.Post("/batches", app.BatchCreate)
		r.Get("/batches/{id}", app.BatchGet)
		r.Get("/batches/{id}/stream", app.BatchStream)
	})

	return r
}

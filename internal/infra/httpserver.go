package infra

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// HTTPServer owns the API listener.
type HTTPServer struct {
	server *http.Server
}

// NewHTTPServer builds the API server. WriteTimeout defaults to 0 because
// batch progress streams stay open for minutes; SSE_MAX_DURATION bounds them
// instead. Request contexts derive from base so shutdown reaches handlers.
func NewHTTPServer(base context.Context, cfg *Config, handler http.Handler) *HTTPServer {
	return &HTTPServer{server: &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return base },
	}}
}

// Serve runs the server in the background. The returned channel yields at most
// one error and is closed once the listener stops.
func (s *HTTPServer) Serve() <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	return errc
}

func (s *HTTPServer) Addr() string {
	return s.server.Addr
}

// Shutdown drains in-flight requests until ctx expires, then closes the rest.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return errors.Join(err, s.server.Close())
	}
	return nil
}

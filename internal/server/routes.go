package server

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
	// JWTSecret is the key used to verify bearer tokens.
	JWTSecret []byte
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// It uses Go 1.22+ ServeMux with method-based routing. Evidence routes
// require a verified bearer token; health and metrics do not.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	authed := AuthMiddleware(cfg.JWTSecret, logger)
	mux.Handle("POST /evidence/upload", authed(http.HandlerFunc(h.UploadEvidence)))
	mux.Handle("POST /evidence/signed-url", authed(http.HandlerFunc(h.CreateSignedURL)))
	mux.Handle("POST /evidence/process", authed(http.HandlerFunc(h.ProcessEvidence)))

	// Apply middleware chain
	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		MetricsMiddleware(),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}

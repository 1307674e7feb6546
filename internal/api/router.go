package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/border1px/video-remix/internal/api/handler"
	mw "github.com/border1px/video-remix/internal/api/middleware"
)

// Options configures the router's cross-cutting behavior.
type Options struct {
	// APIKey protects /api/v1 when non-empty.
	APIKey string
	// RateLimit is the per-client request budget per minute; 0 disables it.
	RateLimit int
	// Timeout bounds a single request. Generation runs can take minutes.
	Timeout time.Duration
}

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(
	downloadHandler *handler.DownloadHandler,
	videoHandler *handler.VideoHandler,
	scriptHandler *handler.ScriptHandler,
	settingsHandler *handler.SettingsHandler,
	healthHandler *handler.HealthHandler,
	uiHandler *handler.UIHandler,
	opts Options,
	logger *slog.Logger,
) *chi.Mux {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Minute
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath) // Normalize paths (e.g., //health -> /health)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger(logger))
	r.Use(mw.Recovery(logger))
	r.Use(middleware.Timeout(opts.Timeout))
	r.Use(mw.CORS)

	// Health endpoints (no auth)
	r.Get("/health", healthHandler.Live)

	// Web UI (no auth - the server key is sent by the page itself)
	r.Get("/", uiHandler.Index)
	r.Get("/ui", uiHandler.Index)

	var limiter *mw.RateLimiter
	if opts.RateLimit > 0 {
		limiter = mw.NewRateLimiter(opts.RateLimit)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(opts.APIKey))
		r.Use(mw.RateLimit(limiter))

		r.Get("/stats", healthHandler.Stats)

		// Share-link downloads
		r.Post("/downloads", downloadHandler.Download)

		// Local video library
		r.Get("/videos", videoHandler.List)
		r.Post("/videos", videoHandler.Upload)
		r.Get("/videos/{name}", videoHandler.Serve)

		// Script sessions
		r.Post("/scripts", scriptHandler.Generate)
		r.Get("/scripts/{sessionID}", scriptHandler.Get)
		r.Post("/scripts/{sessionID}/regenerate", scriptHandler.Regenerate)
		r.Post("/scripts/{sessionID}/refine", scriptHandler.Refine)
		r.Post("/scripts/{sessionID}/save", scriptHandler.Save)

		// Single-prompt copywriting
		r.Post("/copywriting", scriptHandler.Quick)

		// Backend settings
		r.Get("/settings", settingsHandler.Get)
		r.Put("/settings", settingsHandler.Update)
		r.Delete("/settings/api-key", settingsHandler.ClearAPIKey)
	})

	return r
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/border1px/video-remix/internal/api"
	"github.com/border1px/video-remix/internal/api/handler"
	"github.com/border1px/video-remix/internal/app"
	"github.com/border1px/video-remix/internal/config"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file")
	host := flag.String("host", "", "Listen host (overrides config)")
	port := flag.Int("port", 0, "Listen port (overrides config)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("video-remix %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting video-remix",
		"version", Version,
		"build_time", BuildTime,
	)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	// Ensure storage directories exist
	for _, dir := range []string{cfg.Storage.DownloadsDir, cfg.Storage.ScriptsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("failed to create storage directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	// Initialize services
	a := app.New(cfg, logger)
	if a.Backend.KeySource() == "" {
		logger.Warn("no Gemini API key configured; copywriting is disabled until one is set")
	}

	// Initialize handlers
	downloadHandler := handler.NewDownloadHandler(a.Downloads, logger)
	videoHandler := handler.NewVideoHandler(a.Videos, cfg.Server.MaxUpload, logger)
	scriptHandler := handler.NewScriptHandler(a.Copywriting, a.Videos, logger)
	settingsHandler := handler.NewSettingsHandler(a.Settings, a.Backend, logger)
	healthHandler := handler.NewHealthHandler(cfg.Storage.DownloadsDir, a.Sessions, a.Backend)
	uiHandler := handler.NewUIHandler()

	// Setup router
	router := api.NewRouter(
		downloadHandler,
		videoHandler,
		scriptHandler,
		settingsHandler,
		healthHandler,
		uiHandler,
		api.Options{
			APIKey:    cfg.Server.APIKey,
			RateLimit: cfg.Server.RateLimit,
			Timeout:   cfg.Server.WriteTimeout,
		},
		logger,
	)

	// Setup HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

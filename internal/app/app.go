// Package app wires the services shared by the server, the CLI and the TUI.
package app

import (
	"context"
	"log/slog"

	"github.com/border1px/video-remix/internal/asset"
	"github.com/border1px/video-remix/internal/config"
	"github.com/border1px/video-remix/internal/douyin"
	"github.com/border1px/video-remix/internal/downloader"
	"github.com/border1px/video-remix/internal/generation"
	"github.com/border1px/video-remix/internal/repository"
	"github.com/border1px/video-remix/internal/service"
	"github.com/border1px/video-remix/internal/settings"
	"github.com/border1px/video-remix/pkg/gemini"
)

// App holds the wired services.
type App struct {
	Config      *config.Config
	Settings    *settings.Store
	Backend     *service.BackendProvider
	Sessions    *service.SessionStore
	Videos      *repository.FilesystemVideoRepository
	Downloads   *service.DownloadService
	Copywriting *service.CopywritingService
}

// New builds every service from cfg.
func New(cfg *config.Config, logger *slog.Logger) *App {
	store := settings.NewStore(cfg.Storage.SettingsPath, logger)

	geminiCfg := cfg.Gemini
	backend := service.NewBackendProvider(store, geminiCfg.APIKey, func(key string) (gemini.Client, error) {
		return gemini.NewClient(context.Background(), gemini.Config{
			APIKey:        key,
			BaseURL:       geminiCfg.BaseURL,
			APIVersion:    geminiCfg.APIVersion,
			Timeout:       geminiCfg.Timeout,
			UploadTimeout: geminiCfg.UploadTimeout,
		})
	}, logger)

	tempDir := cfg.Storage.TempDirOrDefault()
	sessions := service.NewSessionStore()
	videos := repository.NewFilesystemVideoRepository(cfg.Storage.DownloadsDir, tempDir)

	downloads := service.NewDownloadService(
		douyin.NewResolver(cfg.Resolver, logger),
		downloader.NewHTTPDownloader(cfg.Download, cfg.Storage.DownloadsDir, logger),
		logger,
	)

	copywriting := service.NewCopywritingService(
		backend,
		asset.NewUploader(cfg.Upload, tempDir, logger),
		generation.NewInvoker(cfg.Generation, logger),
		repository.NewFilesystemScriptRepository(cfg.Storage.ScriptsDir),
		sessions,
		cfg.Generation.ChainPause,
		logger,
	)

	return &App{
		Config:      cfg,
		Settings:    store,
		Backend:     backend,
		Sessions:    sessions,
		Videos:      videos,
		Downloads:   downloads,
		Copywriting: copywriting,
	}
}

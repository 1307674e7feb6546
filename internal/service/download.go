package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/border1px/video-remix/internal/domain"
	"github.com/border1px/video-remix/internal/douyin"
	"github.com/border1px/video-remix/internal/downloader"
)

// Resolver resolves a share URL into video metadata.
type Resolver interface {
	Resolve(ctx context.Context, shareURL string) (*domain.ResolvedVideo, error)
}

// DownloadService turns pasted share text into a local video file.
type DownloadService struct {
	resolver Resolver
	fetcher  downloader.Fetcher
	logger   *slog.Logger
}

// NewDownloadService creates a new download service.
func NewDownloadService(resolver Resolver, fetcher downloader.Fetcher, logger *slog.Logger) *DownloadService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DownloadService{
		resolver: resolver,
		fetcher:  fetcher,
		logger:   logger,
	}
}

// DownloadResult describes a download attempt. RawResponse holds the
// resolver payload whenever one was received, including on rejection.
type DownloadResult struct {
	ShareURL    string                 `json:"share_url,omitempty"`
	Video       *domain.ResolvedVideo  `json:"video,omitempty"`
	File        *domain.LocalVideoFile `json:"file,omitempty"`
	RawResponse json.RawMessage        `json:"raw_response,omitempty"`
	Log         []domain.ProgressEvent `json:"log,omitempty"`
}

// Download extracts the share URL from text, resolves it and fetches the
// video. On failure the partial result is returned together with the error
// so callers can still show the resolver payload.
func (s *DownloadService) Download(ctx context.Context, text string, progress domain.ProgressFunc) (*DownloadResult, error) {
	plog := domain.NewProgressLog(progress)
	result := &DownloadResult{}
	fail := func(op string, err error) (*DownloadResult, error) {
		plog.Add(domain.StageFailed, "%s failed: %v", op, err)
		result.Log = plog.Events()
		return result, domain.NewPipelineError(op, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return fail("extract", domain.ErrEmptyInput)
	}

	shareURL, ok := douyin.ExtractShareURL(text)
	if !ok {
		return fail("extract", domain.ErrShareURLNotFound)
	}
	result.ShareURL = shareURL
	logger := s.logger.With("share_url", shareURL)
	plog.Add(domain.StageInit, "resolving %s", shareURL)

	video, err := s.resolver.Resolve(ctx, shareURL)
	if err != nil {
		var rerr *domain.ResolveError
		if errors.As(err, &rerr) {
			result.RawResponse = rerr.Raw
		}
		logger.Warn("resolution failed", "error", err)
		return fail("resolve", err)
	}
	result.Video = video
	result.RawResponse = video.RawResponse

	if video.DirectURL == "" {
		return fail("resolve", domain.ErrNoVideoURL)
	}

	plog.Add(domain.StageInit, "downloading %q by %s", video.Title, video.Author)
	file, err := s.fetcher.Fetch(ctx, video.DirectURL, video.Title)
	if err != nil {
		logger.Error("download failed", "error", err)
		return fail("fetch", err)
	}
	result.File = file

	plog.Add(domain.StageDone, "saved %s (%.1f MB)", file.Name, float64(file.Size)/(1024*1024))
	result.Log = plog.Events()
	logger.Info("video downloaded", "path", file.Path, "bytes", file.Size)

	return result, nil
}

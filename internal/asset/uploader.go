// Package asset uploads local videos to the AI backend's file store and waits
// until they are usable in prompts.
package asset

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/blake2b"

	"github.com/border1px/video-remix/internal/config"
	"github.com/border1px/video-remix/internal/domain"
	"github.com/border1px/video-remix/internal/retry"
	"github.com/border1px/video-remix/pkg/gemini"
)

// FileStore is the part of the backend client the uploader uses.
type FileStore interface {
	UploadFile(ctx context.Context, path, displayName string) (*gemini.File, error)
	GetFile(ctx context.Context, name string) (*gemini.File, error)
}

// ProgressFunc receives uploader state changes. It may be nil.
type ProgressFunc func(stage domain.Stage, message string)

// Uploader pushes a file to the store and polls it until ACTIVE.
type Uploader struct {
	tempDir      string
	pollInterval time.Duration
	pollTimeout  time.Duration
	logger       *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewUploader creates an uploader. Temporary copies are written to tempDir.
func NewUploader(cfg config.UploadConfig, tempDir string, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 300 * time.Second
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Uploader{
		tempDir:      tempDir,
		pollInterval: cfg.PollInterval,
		pollTimeout:  cfg.PollTimeout,
		logger:       logger,
		sleep:        retry.SleepContext,
	}
}

// Upload sends the video at path to store and blocks until the backend has
// finished processing it. The returned asset is always ACTIVE.
func (u *Uploader) Upload(ctx context.Context, store FileStore, path string, progress ProgressFunc) (*domain.RemoteAsset, error) {
	if progress == nil {
		progress = func(domain.Stage, string) {}
	}
	if store == nil {
		return nil, domain.NewPipelineError("upload", domain.ErrMissingAPIKey)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.NewPipelineError("upload", domain.ErrVideoMissing)
		}
		return nil, domain.NewPipelineError("upload", fmt.Errorf("%w: %w", domain.ErrUploadFailed, err))
	}
	if info.IsDir() {
		return nil, domain.NewPipelineError("upload", domain.ErrVideoMissing)
	}

	uploadPath := path
	if !isASCII(filepath.Base(path)) {
		tempPath, err := u.asciiCopy(path, info.Size())
		if err != nil {
			return nil, domain.NewPipelineError("upload", fmt.Errorf("%w: %w", domain.ErrUploadFailed, err))
		}
		defer func() {
			if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
				u.logger.Warn("failed to remove temp copy", "path", tempPath, "error", err)
			}
		}()
		uploadPath = tempPath
	}

	logger := u.logger.With("video", filepath.Base(path))
	progress(domain.StageUploading, fmt.Sprintf("uploading %s (%.1f MB)", filepath.Base(path), float64(info.Size())/(1024*1024)))
	logger.Info("uploading video", "upload_path", uploadPath, "bytes", info.Size())

	file, err := store.UploadFile(ctx, uploadPath, filepath.Base(uploadPath))
	if err != nil {
		return nil, domain.NewPipelineError("upload", fmt.Errorf("%w: %w", domain.ErrUploadFailed, err))
	}

	progress(domain.StagePolling, "upload finished, waiting for processing")
	logger.Info("video uploaded, polling state", "name", file.Name, "state", file.State)

	return u.waitActive(ctx, store, file, progress, logger)
}

// waitActive polls until the file is ACTIVE, FAILED, or the accumulated wait
// reaches the poll timeout.
func (u *Uploader) waitActive(ctx context.Context, store FileStore, uploaded *gemini.File, progress ProgressFunc, logger *slog.Logger) (*domain.RemoteAsset, error) {
	var waited time.Duration
	polls := 0

	for waited < u.pollTimeout {
		polls++
		file, err := store.GetFile(ctx, uploaded.Name)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !isPendingError(err) {
				logger.Error("asset state query failed", "name", uploaded.Name, "error", err)
				return nil, domain.NewPipelineError("poll", fmt.Errorf("%w: %w", domain.ErrAssetQuery, err))
			}
			logger.Debug("asset not yet visible", "name", uploaded.Name, "error", err)
		} else {
			switch domain.AssetState(file.State) {
			case domain.AssetStateActive:
				uri := file.URI
				if uri == "" {
					uri = uploaded.URI
				}
				mimeType := file.MIMEType
				if mimeType == "" {
					mimeType = uploaded.MIMEType
				}
				logger.Info("asset active", "name", uploaded.Name, "polls", polls, "waited", waited)
				progress(domain.StagePolling, fmt.Sprintf("processing finished after %.0fs", waited.Seconds()))
				return &domain.RemoteAsset{
					URI:      uri,
					Name:     uploaded.Name,
					MIMEType: mimeType,
					State:    domain.AssetStateActive,
				}, nil
			case domain.AssetStateFailed:
				reason := "backend reported FAILED"
				if file.Error != nil && file.Error.Message != "" {
					reason = file.Error.Message
				}
				logger.Error("asset processing failed", "name", uploaded.Name, "reason", reason)
				return nil, domain.NewPipelineError("poll", fmt.Errorf("%w: %s", domain.ErrAssetFailed, reason))
			}
		}

		if err := u.sleep(ctx, u.pollInterval); err != nil {
			return nil, err
		}
		waited += u.pollInterval

		if polls%5 == 0 {
			progress(domain.StagePolling, fmt.Sprintf("still processing (%.0fs)", waited.Seconds()))
		}
	}

	logger.Error("asset processing timed out", "name", uploaded.Name, "polls", polls)
	return nil, domain.NewPipelineError("poll", fmt.Errorf("%w after %v", domain.ErrAssetTimeout, u.pollTimeout))
}

// isPendingError reports whether a state query failed only because the
// upload has not been finalized yet.
func isPendingError(err error) bool {
	if gemini.IsNotFound(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "not finalized")
}

// asciiCopy copies src to a temp file with an ASCII-only name derived from a
// hash of the source path. An existing copy of the same size is reused.
func (u *Uploader) asciiCopy(src string, size int64) (string, error) {
	abs, err := filepath.Abs(src)
	if err != nil {
		abs = src
	}
	sum := blake2b.Sum256([]byte(abs))
	ext := strings.ToLower(filepath.Ext(src))
	if !isASCII(ext) {
		ext = ".mp4"
	}
	dst := filepath.Join(u.tempDir, "remix_"+hex.EncodeToString(sum[:])[:16]+ext)

	if info, err := os.Stat(dst); err == nil && info.Size() == size {
		u.logger.Debug("reusing temp copy", "path", dst)
		return dst, nil
	}

	if err := os.MkdirAll(u.tempDir, 0755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create temp copy: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("copy to temp: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("close temp copy: %w", err)
	}
	return dst, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// ErrorStage maps an upload error to the state it ended in.
func ErrorStage(err error) string {
	switch {
	case errors.Is(err, domain.ErrAssetFailed):
		return "FAILED"
	case errors.Is(err, domain.ErrAssetTimeout):
		return "TIMEOUT"
	case errors.Is(err, domain.ErrAssetQuery):
		return "QUERY_ERROR"
	default:
		return "UPLOAD_ERROR"
	}
}

package repository

import (
	"context"
	"io"
	"time"

	"github.com/border1px/video-remix/internal/domain"
)

// VideoRepository manages the local video library.
type VideoRepository interface {
	// List returns the videos in the library, newest first.
	List(ctx context.Context) ([]domain.LocalVideoFile, error)

	// Resolve maps a library file name to the stored file.
	Resolve(ctx context.Context, name string) (*domain.LocalVideoFile, error)

	// SaveUpload stores a user-provided video under a sanitized, timestamped name.
	SaveUpload(ctx context.Context, originalName string, content io.Reader) (*domain.LocalVideoFile, error)
}

// ScriptRepository exports generated scripts.
type ScriptRepository interface {
	// Save writes content for the given video and returns the file path.
	Save(ctx context.Context, videoPath, content string, now time.Time) (string, error)
}

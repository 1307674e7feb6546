package downloader

import (
	"context"

	"github.com/border1px/video-remix/internal/domain"
)

// Fetcher streams a resolved video to local storage.
type Fetcher interface {
	// Fetch downloads directURL into the downloads directory under a name
	// derived from title and returns the stored file.
	Fetch(ctx context.Context, directURL, title string) (*domain.LocalVideoFile, error)
}

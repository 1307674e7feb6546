package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/border1px/video-remix/internal/domain"
	"github.com/border1px/video-remix/internal/downloader"
)

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".webm": true,
	".mkv":  true,
	".avi":  true,
	".m4v":  true,
}

// IsVideoFile reports whether name has a supported video extension.
func IsVideoFile(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}

// FilesystemVideoRepository implements VideoRepository on a single directory.
type FilesystemVideoRepository struct {
	basePath string
	tempPath string
	now      func() time.Time
}

// NewFilesystemVideoRepository creates a repository rooted at basePath.
// Uploads are staged in tempPath before being moved into place.
func NewFilesystemVideoRepository(basePath, tempPath string) *FilesystemVideoRepository {
	if tempPath == "" {
		tempPath = os.TempDir()
	}
	return &FilesystemVideoRepository{
		basePath: basePath,
		tempPath: tempPath,
		now:      time.Now,
	}
}

// List returns all videos in the library, newest first.
func (r *FilesystemVideoRepository) List(ctx context.Context) ([]domain.LocalVideoFile, error) {
	entries, err := os.ReadDir(r.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.LocalVideoFile{}, nil
		}
		return nil, fmt.Errorf("read library: %w", err)
	}

	result := make([]domain.LocalVideoFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !IsVideoFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		result = append(result, r.toFile(e.Name(), info))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ModifiedAt.Equal(result[j].ModifiedAt) {
			return result[i].Name > result[j].Name
		}
		return result[i].ModifiedAt.After(result[j].ModifiedAt)
	})

	return result, nil
}

// Resolve returns the library file called name. Names containing path
// elements are rejected.
func (r *FilesystemVideoRepository) Resolve(ctx context.Context, name string) (*domain.LocalVideoFile, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return nil, domain.ErrInvalidVideoName
	}

	info, err := os.Stat(filepath.Join(r.basePath, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrVideoMissing
		}
		return nil, fmt.Errorf("stat video: %w", err)
	}
	if info.IsDir() {
		return nil, domain.ErrVideoMissing
	}

	file := r.toFile(name, info)
	return &file, nil
}

// SaveUpload stores content as "{sanitized name}_{timestamp}{ext}".
func (r *FilesystemVideoRepository) SaveUpload(ctx context.Context, originalName string, content io.Reader) (*domain.LocalVideoFile, error) {
	base := filepath.Base(strings.ReplaceAll(originalName, `\`, "/"))
	ext := strings.ToLower(filepath.Ext(base))
	if !videoExtensions[ext] {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedVideo, ext)
	}

	title := downloader.SanitizeTitle(strings.TrimSuffix(base, filepath.Ext(base)))
	if title == "" {
		title = "upload"
	}
	name := title + "_" + r.now().Format("20060102_150405") + ext

	if err := os.MkdirAll(r.basePath, 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}
	if err := os.MkdirAll(r.tempPath, 0755); err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}

	// Write to temp file first, then rename into the library
	f, err := os.CreateTemp(r.tempPath, "upload-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tempFile := f.Name()

	_, err = io.Copy(f, content)
	f.Close()
	if err != nil {
		os.Remove(tempFile)
		return nil, fmt.Errorf("write video: %w", err)
	}

	finalPath := filepath.Join(r.basePath, name)
	if err := moveFile(tempFile, finalPath); err != nil {
		os.Remove(tempFile)
		return nil, fmt.Errorf("move video to library: %w", err)
	}

	info, err := os.Stat(finalPath)
	if err != nil {
		return nil, fmt.Errorf("stat video: %w", err)
	}
	file := r.toFile(name, info)
	return &file, nil
}

func (r *FilesystemVideoRepository) toFile(name string, info os.FileInfo) domain.LocalVideoFile {
	path := filepath.Join(r.basePath, name)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return domain.LocalVideoFile{
		Name:       name,
		Path:       path,
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
	}
}

// moveFile renames src to dst, copying when they are on different volumes.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}

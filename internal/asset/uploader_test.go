package asset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/border1px/video-remix/internal/config"
	"github.com/border1px/video-remix/internal/domain"
	"github.com/border1px/video-remix/pkg/gemini"
)

// pollResult is one scripted GetFile answer.
type pollResult struct {
	state string
	err   error
}

type fakeStore struct {
	uploadErr  error
	uploadPath string
	polls      []pollResult
	getCalls   int

	// tempExisted records whether the upload path existed at upload time.
	tempExisted bool
}

func (s *fakeStore) UploadFile(ctx context.Context, path, displayName string) (*gemini.File, error) {
	s.uploadPath = path
	_, err := os.Stat(path)
	s.tempExisted = err == nil
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	return &gemini.File{Name: "files/abc", URI: "https://example.com/files/abc", MIMEType: "video/mp4", State: "PROCESSING"}, nil
}

func (s *fakeStore) GetFile(ctx context.Context, name string) (*gemini.File, error) {
	i := s.getCalls
	s.getCalls++
	if i >= len(s.polls) {
		i = len(s.polls) - 1
	}
	p := s.polls[i]
	if p.err != nil {
		return nil, p.err
	}
	return &gemini.File{Name: name, State: p.state}, nil
}

type fakeSleeper struct {
	delays []time.Duration
}

func (f *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	f.delays = append(f.delays, d)
	return ctx.Err()
}

func newTestUploader(t *testing.T) (*Uploader, *fakeSleeper, string) {
	t.Helper()
	tempDir := t.TempDir()
	u := NewUploader(config.UploadConfig{PollInterval: 2 * time.Second, PollTimeout: 300 * time.Second}, tempDir, nil)
	s := &fakeSleeper{}
	u.sleep = s.Sleep
	return u, s, tempDir
}

func writeVideo(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("video bytes"), 0644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	return path
}

func TestUploader_Upload_BecomesActive(t *testing.T) {
	u, sleeper, _ := newTestUploader(t)
	store := &fakeStore{polls: []pollResult{{state: "PENDING"}, {state: "PROCESSING"}, {state: "ACTIVE"}}}
	path := writeVideo(t, "clip.mp4")

	var stages []domain.Stage
	asset, err := u.Upload(context.Background(), store, path, func(s domain.Stage, msg string) {
		stages = append(stages, s)
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if asset.State != domain.AssetStateActive || asset.URI != "https://example.com/files/abc" {
		t.Errorf("asset = %+v", asset)
	}
	if store.getCalls != 3 {
		t.Errorf("polls = %d, want 3", store.getCalls)
	}
	if len(sleeper.delays) != 2 || sleeper.delays[0] != 2*time.Second || sleeper.delays[1] != 2*time.Second {
		t.Errorf("sleeps = %v, want [2s 2s]", sleeper.delays)
	}
	if store.uploadPath != path {
		t.Errorf("ASCII name should be uploaded directly, got %q", store.uploadPath)
	}
	if len(stages) == 0 || stages[0] != domain.StageUploading {
		t.Errorf("stages = %v, want uploading first", stages)
	}
}

func TestUploader_Upload_Timeout(t *testing.T) {
	u, sleeper, _ := newTestUploader(t)
	store := &fakeStore{polls: []pollResult{{state: "PROCESSING"}}}

	_, err := u.Upload(context.Background(), store, writeVideo(t, "clip.mp4"), nil)
	if !errors.Is(err, domain.ErrAssetTimeout) {
		t.Fatalf("error = %v, want ErrAssetTimeout", err)
	}
	if store.getCalls != 150 {
		t.Errorf("polls = %d, want 150", store.getCalls)
	}
	if len(sleeper.delays) != 150 {
		t.Errorf("sleeps = %d, want 150", len(sleeper.delays))
	}
	if ErrorStage(err) != "TIMEOUT" {
		t.Errorf("ErrorStage() = %q", ErrorStage(err))
	}
}

func TestUploader_Upload_Failed(t *testing.T) {
	u, _, _ := newTestUploader(t)
	store := &fakeStore{polls: []pollResult{{state: "PROCESSING"}, {state: "FAILED"}}}

	_, err := u.Upload(context.Background(), store, writeVideo(t, "clip.mp4"), nil)
	if !errors.Is(err, domain.ErrAssetFailed) {
		t.Fatalf("error = %v, want ErrAssetFailed", err)
	}
	if store.getCalls != 2 {
		t.Errorf("polls = %d, want 2", store.getCalls)
	}
	if ErrorStage(err) != "FAILED" {
		t.Errorf("ErrorStage() = %q", ErrorStage(err))
	}
}

func TestUploader_Upload_NotFoundKeepsPolling(t *testing.T) {
	u, _, _ := newTestUploader(t)
	store := &fakeStore{polls: []pollResult{
		{err: &genai.APIError{Code: 404, Status: "NOT_FOUND", Message: "File files/abc not found."}},
		{err: errors.New("file is not finalized yet")},
		{state: "ACTIVE"},
	}}

	if _, err := u.Upload(context.Background(), store, writeVideo(t, "clip.mp4"), nil); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if store.getCalls != 3 {
		t.Errorf("polls = %d, want 3", store.getCalls)
	}
}

func TestUploader_Upload_QueryError(t *testing.T) {
	u, sleeper, _ := newTestUploader(t)
	store := &fakeStore{polls: []pollResult{
		{err: &genai.APIError{Code: 403, Status: "PERMISSION_DENIED", Message: "denied"}},
	}}

	_, err := u.Upload(context.Background(), store, writeVideo(t, "clip.mp4"), nil)
	if !errors.Is(err, domain.ErrAssetQuery) {
		t.Fatalf("error = %v, want ErrAssetQuery", err)
	}
	if len(sleeper.delays) != 0 {
		t.Errorf("query error should not wait, sleeps = %v", sleeper.delays)
	}
}

func TestUploader_Upload_UploadError(t *testing.T) {
	u, _, _ := newTestUploader(t)
	store := &fakeStore{uploadErr: errors.New("connection reset")}

	_, err := u.Upload(context.Background(), store, writeVideo(t, "clip.mp4"), nil)
	if !errors.Is(err, domain.ErrUploadFailed) {
		t.Fatalf("error = %v, want ErrUploadFailed", err)
	}
	if store.getCalls != 0 {
		t.Error("no poll should happen after a failed upload")
	}
}

func TestUploader_Upload_Preconditions(t *testing.T) {
	u, _, _ := newTestUploader(t)

	if _, err := u.Upload(context.Background(), nil, writeVideo(t, "clip.mp4"), nil); !errors.Is(err, domain.ErrMissingAPIKey) {
		t.Errorf("nil store error = %v, want ErrMissingAPIKey", err)
	}

	store := &fakeStore{polls: []pollResult{{state: "ACTIVE"}}}
	if _, err := u.Upload(context.Background(), store, "/nonexistent/clip.mp4", nil); !errors.Is(err, domain.ErrVideoMissing) {
		t.Errorf("missing file error = %v, want ErrVideoMissing", err)
	}
	if store.uploadPath != "" {
		t.Error("store must not be called when preconditions fail")
	}
}

func TestUploader_Upload_NonASCIIUsesTempCopy(t *testing.T) {
	u, _, tempDir := newTestUploader(t)
	store := &fakeStore{polls: []pollResult{{state: "ACTIVE"}}}
	path := writeVideo(t, "晚霞_20240501_090807.mp4")

	if _, err := u.Upload(context.Background(), store, path, nil); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	base := filepath.Base(store.uploadPath)
	if filepath.Dir(store.uploadPath) != tempDir {
		t.Errorf("temp copy dir = %q, want %q", filepath.Dir(store.uploadPath), tempDir)
	}
	if !strings.HasPrefix(base, "remix_") || !strings.HasSuffix(base, ".mp4") || !isASCII(base) {
		t.Errorf("temp copy name = %q", base)
	}
	if !store.tempExisted {
		t.Error("temp copy should exist during upload")
	}
	if _, err := os.Stat(store.uploadPath); !os.IsNotExist(err) {
		t.Error("temp copy should be removed after upload")
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("original video must be kept")
	}
}

func TestUploader_Upload_TempCopyRemovedOnFailure(t *testing.T) {
	u, _, _ := newTestUploader(t)
	store := &fakeStore{polls: []pollResult{{state: "FAILED"}}}

	_, err := u.Upload(context.Background(), store, writeVideo(t, "视频.mp4"), nil)
	if err == nil {
		t.Fatal("expected failure")
	}
	if _, statErr := os.Stat(store.uploadPath); !os.IsNotExist(statErr) {
		t.Error("temp copy should be removed after a failed upload")
	}
}

func TestUploader_asciiCopy_ReusesExisting(t *testing.T) {
	u, _, _ := newTestUploader(t)
	path := writeVideo(t, "视频.mp4")

	first, err := u.asciiCopy(path, int64(len("video bytes")))
	if err != nil {
		t.Fatalf("asciiCopy() error = %v", err)
	}
	info, _ := os.Stat(first)

	second, err := u.asciiCopy(path, int64(len("video bytes")))
	if err != nil {
		t.Fatalf("asciiCopy() error = %v", err)
	}
	if first != second {
		t.Errorf("same source should map to the same temp name: %q vs %q", first, second)
	}
	info2, _ := os.Stat(second)
	if !info2.ModTime().Equal(info.ModTime()) {
		t.Error("existing copy of the same size should be reused")
	}
}

func TestIsPendingError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&genai.APIError{Code: 404, Message: "gone"}, true},
		{&genai.APIError{Code: 400, Status: "NOT_FOUND"}, true},
		{errors.New("File Not Found"), true},
		{errors.New("upload not finalized"), true},
		{errors.New("permission denied"), false},
	}

	for _, tt := range tests {
		if got := isPendingError(tt.err); got != tt.want {
			t.Errorf("isPendingError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

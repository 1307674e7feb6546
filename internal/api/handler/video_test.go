package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/border1px/video-remix/internal/repository"
)

func newVideoHandler(t *testing.T) (*VideoHandler, string) {
	t.Helper()
	dir := t.TempDir()
	repo := repository.NewFilesystemVideoRepository(filepath.Join(dir, "downloads"), filepath.Join(dir, "tmp"))
	return NewVideoHandler(repo, 1<<20, testLogger()), filepath.Join(dir, "downloads")
}

func multipartRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write(content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestVideoHandler_List_Empty(t *testing.T) {
	handler, _ := newVideoHandler(t)

	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `"videos":[]`) {
		t.Errorf("body = %s, want empty array", w.Body.String())
	}
}

func TestVideoHandler_UploadAndList(t *testing.T) {
	handler, dir := newVideoHandler(t)

	w := httptest.NewRecorder()
	handler.Upload(w, multipartRequest(t, "file", "我的视频.mp4", []byte("fake video")))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	var created VideoResponse
	decodeBody(t, w, &created)
	if !strings.HasPrefix(created.Video.Name, "我的视频_") || created.Video.Size != int64(len("fake video")) {
		t.Errorf("video = %+v", created.Video)
	}
	if _, err := os.Stat(filepath.Join(dir, created.Video.Name)); err != nil {
		t.Errorf("uploaded file missing: %v", err)
	}

	w = httptest.NewRecorder()
	handler.List(w, httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil))
	var list ListResponse
	decodeBody(t, w, &list)
	if list.Total != 1 || list.Videos[0].Name != created.Video.Name {
		t.Errorf("list = %+v", list)
	}
}

func TestVideoHandler_Upload_Errors(t *testing.T) {
	handler, _ := newVideoHandler(t)

	t.Run("wrong field", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Upload(w, multipartRequest(t, "video", "a.mp4", []byte("x")))
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Upload(w, multipartRequest(t, "file", "notes.txt", []byte("x")))
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

func TestVideoHandler_Serve(t *testing.T) {
	handler, dir := newVideoHandler(t)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("video-bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		path     string
		wantCode int
	}{
		{"existing", "/api/v1/videos/clip.mp4", http.StatusOK},
		{"missing", "/api/v1/videos/nope.mp4", http.StatusNotFound},
		{"traversal", "/api/v1/videos/..%5Csecret.mp4", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(http.MethodGet, "/api/v1/videos/{name}", handler.Serve, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusOK && w.Body.String() != "video-bytes" {
				t.Errorf("body = %q", w.Body.String())
			}
		})
	}
}

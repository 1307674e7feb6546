package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/border1px/video-remix/internal/domain"
	"github.com/border1px/video-remix/internal/repository"
)

// VideoHandler handles the local video library.
type VideoHandler struct {
	videos    repository.VideoRepository
	maxUpload int64
	logger    *slog.Logger
}

// NewVideoHandler creates a new video handler. maxUpload caps the request
// body of an upload in bytes.
func NewVideoHandler(videos repository.VideoRepository, maxUpload int64, logger *slog.Logger) *VideoHandler {
	return &VideoHandler{
		videos:    videos,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// ListResponse contains the local videos.
type ListResponse struct {
	Success bool                    `json:"success"`
	Videos  []domain.LocalVideoFile `json:"videos"`
	Total   int                     `json:"total"`
}

// VideoResponse wraps a single stored video.
type VideoResponse struct {
	Success bool                   `json:"success"`
	Video   *domain.LocalVideoFile `json:"video"`
}

// List handles GET /api/v1/videos
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	videos, err := h.videos.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if videos == nil {
		videos = []domain.LocalVideoFile{}
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Success: true,
		Videos:  videos,
		Total:   len(videos),
	})
}

// Upload handles POST /api/v1/videos (multipart field "file").
func (h *VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "video exceeds upload limit")
			return
		}
		writeMessage(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	video, err := h.videos.SaveUpload(r.Context(), filepath.Base(header.Filename), file)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("video uploaded", "name", video.Name, "bytes", video.Size)
	writeJSON(w, http.StatusCreated, VideoResponse{Success: true, Video: video})
}

// Serve handles GET /api/v1/videos/{name} by streaming the file.
func (h *VideoHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid video name")
		return
	}

	video, err := h.videos.Resolve(r.Context(), name)
	if err != nil {
		if errors.Is(err, domain.ErrVideoMissing) {
			writeMessage(w, http.StatusNotFound, "video not found")
			return
		}
		writeError(w, h.logger, err)
		return
	}

	http.ServeFile(w, r, video.Path)
}

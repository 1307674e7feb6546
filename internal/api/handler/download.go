package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/border1px/video-remix/internal/domain"
	"github.com/border1px/video-remix/internal/service"
)

// Downloader turns share text into a local video.
type Downloader interface {
	Download(ctx context.Context, text string, progress domain.ProgressFunc) (*service.DownloadResult, error)
}

// DownloadHandler handles share-link downloads.
type DownloadHandler struct {
	downloads Downloader
	logger    *slog.Logger
}

// NewDownloadHandler creates a new download handler.
func NewDownloadHandler(downloads Downloader, logger *slog.Logger) *DownloadHandler {
	return &DownloadHandler{
		downloads: downloads,
		logger:    logger,
	}
}

// DownloadRequest is the JSON request body for a download.
type DownloadRequest struct {
	Text string `json:"text"`
}

// DownloadResponse reports a download attempt. RawResponse is included on
// failure as well so the resolver's answer can be inspected.
type DownloadResponse struct {
	Success     bool                   `json:"success"`
	ShareURL    string                 `json:"share_url,omitempty"`
	Video       *domain.ResolvedVideo  `json:"video,omitempty"`
	File        *domain.LocalVideoFile `json:"file,omitempty"`
	RawResponse json.RawMessage        `json:"raw_response,omitempty"`
	Log         []domain.ProgressEvent `json:"log,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Category    domain.Category        `json:"category,omitempty"`
}

// Download handles POST /api/v1/downloads
func (h *DownloadHandler) Download(w http.ResponseWriter, r *http.Request) {
	var req DownloadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.downloads.Download(r.Context(), req.Text, nil)

	resp := DownloadResponse{Success: err == nil}
	if result != nil {
		resp.ShareURL = result.ShareURL
		resp.Video = result.Video
		resp.File = result.File
		resp.RawResponse = result.RawResponse
		resp.Log = result.Log
	}
	if resp.Video != nil {
		// Raw payload is returned once at the top level.
		video := *resp.Video
		video.RawResponse = nil
		resp.Video = &video
	}

	status := http.StatusOK
	if err != nil {
		resp.Error = err.Error()
		resp.Category = domain.Categorize(err)
		status = statusFor(resp.Category)
		h.logger.Warn("download failed", "share_url", resp.ShareURL, "error", err)
	}
	writeJSON(w, status, resp)
}

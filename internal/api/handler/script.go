package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/border1px/video-remix/internal/domain"
	"github.com/border1px/video-remix/internal/repository"
	"github.com/border1px/video-remix/internal/service"
)

// Copywriter runs the copywriting pipeline.
type Copywriter interface {
	Generate(ctx context.Context, req service.GenerateRequest, progress domain.ProgressFunc) (*domain.ScriptSession, error)
	Regenerate(ctx context.Context, id domain.SessionID, positioning string, progress domain.ProgressFunc) (*domain.ScriptSession, error)
	Refine(ctx context.Context, id domain.SessionID, instruction string, progress domain.ProgressFunc) (*domain.ScriptSession, error)
	Quick(ctx context.Context, videoPath, prompt string, progress domain.ProgressFunc) (domain.GenerationResult, error)
	Save(ctx context.Context, id domain.SessionID) (string, error)
	Session(id domain.SessionID) (*domain.ScriptSession, error)
}

// ScriptHandler handles script sessions and single-prompt copywriting.
type ScriptHandler struct {
	copywriter Copywriter
	videos     repository.VideoRepository
	logger     *slog.Logger
}

// NewScriptHandler creates a new script handler.
func NewScriptHandler(copywriter Copywriter, videos repository.VideoRepository, logger *slog.Logger) *ScriptHandler {
	return &ScriptHandler{
		copywriter: copywriter,
		videos:     videos,
		logger:     logger,
	}
}

// GenerateRequest selects a video either by library name or by path.
type GenerateRequest struct {
	VideoName   string `json:"video_name,omitempty"`
	VideoPath   string `json:"video_path,omitempty"`
	Positioning string `json:"positioning"`
}

// RegenerateRequest is the body of a regenerate call.
type RegenerateRequest struct {
	Positioning string `json:"positioning"`
}

// RefineRequest is the body of a follow-up call.
type RefineRequest struct {
	Instruction string `json:"instruction"`
}

// QuickRequest is the body of a single-prompt call.
type QuickRequest struct {
	VideoName string `json:"video_name,omitempty"`
	VideoPath string `json:"video_path,omitempty"`
	Prompt    string `json:"prompt"`
}

// SessionResponse wraps a script session.
type SessionResponse struct {
	Success  bool                  `json:"success"`
	Session  *domain.ScriptSession `json:"session,omitempty"`
	Error    string                `json:"error,omitempty"`
	Category domain.Category       `json:"category,omitempty"`
}

// SaveResponse reports where a script was written.
type SaveResponse struct {
	Success bool   `json:"success"`
	Path    string `json:"path"`
}

// Generate handles POST /api/v1/scripts
func (h *ScriptHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	path, err := h.videoPath(r.Context(), req.VideoName, req.VideoPath)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	session, err := h.copywriter.Generate(r.Context(), service.GenerateRequest{
		VideoPath:   path,
		Positioning: req.Positioning,
	}, nil)
	if err != nil {
		// The partial session carries the progress log.
		category := domain.Categorize(err)
		writeJSON(w, statusFor(category), SessionResponse{
			Session:  session,
			Error:    err.Error(),
			Category: category,
		})
		return
	}

	writeJSON(w, http.StatusCreated, SessionResponse{Success: true, Session: session})
}

// Get handles GET /api/v1/scripts/{sessionID}
func (h *ScriptHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.copywriter.Session(sessionID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Success: true, Session: session})
}

// Regenerate handles POST /api/v1/scripts/{sessionID}/regenerate
func (h *ScriptHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	var req RegenerateRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	session, err := h.copywriter.Regenerate(r.Context(), sessionID(r), req.Positioning, nil)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Success: true, Session: session})
}

// Refine handles POST /api/v1/scripts/{sessionID}/refine
func (h *ScriptHandler) Refine(w http.ResponseWriter, r *http.Request) {
	var req RefineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.copywriter.Refine(r.Context(), sessionID(r), req.Instruction, nil)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Success: true, Session: session})
}

// Save handles POST /api/v1/scripts/{sessionID}/save
func (h *ScriptHandler) Save(w http.ResponseWriter, r *http.Request) {
	path, err := h.copywriter.Save(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, SaveResponse{Success: true, Path: path})
}

// Quick handles POST /api/v1/copywriting
func (h *ScriptHandler) Quick(w http.ResponseWriter, r *http.Request) {
	var req QuickRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	path, err := h.videoPath(r.Context(), req.VideoName, req.VideoPath)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.copywriter.Quick(r.Context(), path, req.Prompt, nil)
	status := http.StatusOK
	if err != nil {
		status = statusFor(domain.Categorize(err))
	}
	writeJSON(w, status, result)
}

// videoPath resolves a library name, falling back to a literal path.
func (h *ScriptHandler) videoPath(ctx context.Context, name, path string) (string, error) {
	if name = strings.TrimSpace(name); name != "" {
		video, err := h.videos.Resolve(ctx, name)
		if err != nil {
			return "", err
		}
		return video.Path, nil
	}
	if path = strings.TrimSpace(path); path == "" {
		return "", domain.ErrVideoMissing
	}
	return path, nil
}

func sessionID(r *http.Request) domain.SessionID {
	return domain.SessionID(chi.URLParam(r, "sessionID"))
}

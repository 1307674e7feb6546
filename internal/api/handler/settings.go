package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/border1px/video-remix/internal/settings"
)

// KeySourcer reports where the effective backend key comes from.
type KeySourcer interface {
	KeySource() string
}

// SettingsHandler exposes the persisted backend settings.
type SettingsHandler struct {
	store   *settings.Store
	backend KeySourcer
	logger  *slog.Logger
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(store *settings.Store, backend KeySourcer, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		store:   store,
		backend: backend,
		logger:  logger,
	}
}

// SettingsResponse never carries the full key.
type SettingsResponse struct {
	Success      bool   `json:"success"`
	APIKeySet    bool   `json:"api_key_set"`
	APIKeyMasked string `json:"api_key_masked,omitempty"`
	KeySource    string `json:"key_source,omitempty"`
	Model        string `json:"model"`
}

// UpdateSettingsRequest updates whichever fields are present.
type UpdateSettingsRequest struct {
	APIKey *string `json:"api_key,omitempty"`
	Model  *string `json:"model,omitempty"`
}

// Get handles GET /api/v1/settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.current())
}

// Update handles PUT /api/v1/settings
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.APIKey != nil {
		if err := h.store.SetAPIKey(*req.APIKey); err != nil {
			writeError(w, h.logger, err)
			return
		}
		h.logger.Info("API key updated", "key", settings.MaskKey(strings.TrimSpace(*req.APIKey)))
	}
	if req.Model != nil {
		if err := h.store.SetModel(*req.Model); err != nil {
			writeError(w, h.logger, err)
			return
		}
		h.logger.Info("model updated", "model", h.store.Model())
	}

	writeJSON(w, http.StatusOK, h.current())
}

// ClearAPIKey handles DELETE /api/v1/settings/api-key
func (h *SettingsHandler) ClearAPIKey(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearAPIKey(); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Info("API key cleared")
	writeJSON(w, http.StatusOK, h.current())
}

func (h *SettingsHandler) current() SettingsResponse {
	source := h.backend.KeySource()
	return SettingsResponse{
		Success:      true,
		APIKeySet:    source != "",
		APIKeyMasked: h.store.MaskedAPIKey(),
		KeySource:    source,
		Model:        h.store.Model(),
	}
}

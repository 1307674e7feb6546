package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/border1px/video-remix/internal/domain"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Success  bool            `json:"success"`
	Error    string          `json:"error"`
	Category domain.Category `json:"category,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeMessage reports a request the handler rejected itself.
func writeMessage(w http.ResponseWriter, status int, message string) {
	category := domain.CategoryValidation
	if status == http.StatusNotFound {
		category = domain.CategoryNotFound
	}
	writeJSON(w, status, ErrorResponse{Error: message, Category: category})
}

// writeError maps err onto an HTTP status through its category.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	category := domain.Categorize(err)
	status := statusFor(category)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "category", category, "error", err)
	}
	writeJSON(w, status, ErrorResponse{
		Error:    err.Error(),
		Category: category,
	})
}

func statusFor(c domain.Category) int {
	switch c {
	case domain.CategoryValidation:
		return http.StatusBadRequest
	case domain.CategoryNotFound:
		return http.StatusNotFound
	case domain.CategoryUpstream, domain.CategoryAsset:
		return http.StatusBadGateway
	case domain.CategoryOverload:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

package handler

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/border1px/video-remix/internal/settings"
)

const validKey = "AIzaSyA-0123456789abcdefghij"

// storeKeySource mirrors the backend provider for a store without env fallback.
type storeKeySource struct{ store *settings.Store }

func (s storeKeySource) KeySource() string {
	if s.store.APIKey() != "" {
		return "settings"
	}
	return ""
}

func newSettingsHandler(t *testing.T) (*SettingsHandler, *settings.Store) {
	t.Helper()
	store := settings.NewStore(filepath.Join(t.TempDir(), "config.json"), testLogger())
	return NewSettingsHandler(store, storeKeySource{store}, testLogger()), store
}

func TestSettingsHandler_Get_Empty(t *testing.T) {
	handler, _ := newSettingsHandler(t)

	w := httptest.NewRecorder()
	handler.Get(w, httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil))

	var resp SettingsResponse
	decodeBody(t, w, &resp)
	if resp.APIKeySet || resp.APIKeyMasked != "" {
		t.Errorf("response = %+v, want no key", resp)
	}
	if resp.Model != settings.DefaultModel {
		t.Errorf("model = %q, want default", resp.Model)
	}
}

func TestSettingsHandler_Update(t *testing.T) {
	handler, store := newSettingsHandler(t)

	w := httptest.NewRecorder()
	handler.Update(w, jsonRequest(http.MethodPut, "/api/v1/settings",
		`{"api_key":"  `+validKey+`  ","model":"gemini-2.5-pro"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if store.APIKey() != validKey {
		t.Errorf("stored key = %q", store.APIKey())
	}

	var resp SettingsResponse
	decodeBody(t, w, &resp)
	if !resp.APIKeySet || resp.KeySource != "settings" || resp.Model != "gemini-2.5-pro" {
		t.Errorf("response = %+v", resp)
	}
	if resp.APIKeyMasked == validKey || resp.APIKeyMasked[len(resp.APIKeyMasked)-4:] != "ghij" {
		t.Errorf("masked = %q", resp.APIKeyMasked)
	}
}

func TestSettingsHandler_Update_ModelOnly(t *testing.T) {
	handler, store := newSettingsHandler(t)
	if err := store.SetAPIKey(validKey); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	handler.Update(w, jsonRequest(http.MethodPut, "/api/v1/settings", `{"model":"gemini-2.0-flash"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if store.APIKey() != validKey {
		t.Error("key should be untouched when absent from the request")
	}
	if store.Model() != "gemini-2.0-flash" {
		t.Errorf("model = %q", store.Model())
	}
}

func TestSettingsHandler_Update_InvalidKey(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"blank", `{"api_key":"   "}`},
		{"too short", `{"api_key":"short-key"}`},
		{"invalid json", `{"api_key":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, store := newSettingsHandler(t)

			w := httptest.NewRecorder()
			handler.Update(w, jsonRequest(http.MethodPut, "/api/v1/settings", tt.body))

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if store.APIKey() != "" {
				t.Error("invalid key should not be stored")
			}
		})
	}
}

func TestSettingsHandler_ClearAPIKey(t *testing.T) {
	handler, store := newSettingsHandler(t)
	if err := store.SetAPIKey(validKey); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	handler.ClearAPIKey(w, httptest.NewRequest(http.MethodDelete, "/api/v1/settings/api-key", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if store.APIKey() != "" {
		t.Error("key should be removed")
	}
	var resp SettingsResponse
	decodeBody(t, w, &resp)
	if resp.APIKeySet {
		t.Error("api_key_set should be false after clearing")
	}
}

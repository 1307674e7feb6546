package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/border1px/video-remix/internal/domain"
	"github.com/border1px/video-remix/internal/service"
)

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockDownloader struct {
	result *service.DownloadResult
	err    error
	text   string
}

func (m *mockDownloader) Download(ctx context.Context, text string, progress domain.ProgressFunc) (*service.DownloadResult, error) {
	m.text = text
	return m.result, m.err
}

// mockCopywriter records the last call's arguments.
type mockCopywriter struct {
	session  *domain.ScriptSession
	result   domain.GenerationResult
	savePath string
	err      error

	gotReq         service.GenerateRequest
	gotID          domain.SessionID
	gotPositioning string
	gotInstruction string
	gotPath        string
	gotPrompt      string
}

func (m *mockCopywriter) Generate(ctx context.Context, req service.GenerateRequest, progress domain.ProgressFunc) (*domain.ScriptSession, error) {
	m.gotReq = req
	return m.session, m.err
}

func (m *mockCopywriter) Regenerate(ctx context.Context, id domain.SessionID, positioning string, progress domain.ProgressFunc) (*domain.ScriptSession, error) {
	m.gotID, m.gotPositioning = id, positioning
	return m.session, m.err
}

func (m *mockCopywriter) Refine(ctx context.Context, id domain.SessionID, instruction string, progress domain.ProgressFunc) (*domain.ScriptSession, error) {
	m.gotID, m.gotInstruction = id, instruction
	return m.session, m.err
}

func (m *mockCopywriter) Quick(ctx context.Context, videoPath, prompt string, progress domain.ProgressFunc) (domain.GenerationResult, error) {
	m.gotPath, m.gotPrompt = videoPath, prompt
	return m.result, m.err
}

func (m *mockCopywriter) Save(ctx context.Context, id domain.SessionID) (string, error) {
	m.gotID = id
	return m.savePath, m.err
}

func (m *mockCopywriter) Session(id domain.SessionID) (*domain.ScriptSession, error) {
	m.gotID = id
	return m.session, m.err
}

type staticKeySource string

func (s staticKeySource) KeySource() string { return string(s) }

type staticCounter int

func (c staticCounter) Len() int { return int(c) }

// serve routes req through a chi router so URL params are populated.
func serve(method, pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

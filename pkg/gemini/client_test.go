package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/genai"
)

func newTestClient(t *testing.T, serverURL string) *SDKClient {
	t.Helper()
	client, err := NewClient(context.Background(), Config{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestNewClient_Defaults(t *testing.T) {
	client, err := NewClient(context.Background(), Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client.timeout != 5*time.Minute || client.uploadTimeout != 10*time.Minute {
		t.Errorf("timeouts = %v/%v", client.timeout, client.uploadTimeout)
	}
}

func TestSDKClient_UploadFile(t *testing.T) {
	videoPath := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(videoPath, []byte("fake video bytes"), 0644); err != nil {
		t.Fatalf("write video: %v", err)
	}

	var (
		mu       sync.Mutex
		received []byte
		started  bool
	)
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		command := r.Header.Get("X-Goog-Upload-Command")
		if strings.Contains(command, "start") {
			if r.Header.Get("x-goog-api-key") != "test-key" {
				t.Error("missing API key header")
			}
			if !strings.HasSuffix(r.URL.Path, "/files") {
				t.Errorf("start path = %s", r.URL.Path)
			}
			started = true
			w.Header().Set("X-Goog-Upload-URL", server.URL+"/upload-session")
			w.Write([]byte(`{}`))
			return
		}

		data, _ := io.ReadAll(r.Body)
		received = append(received, data...)
		if strings.Contains(command, "finalize") {
			w.Header().Set("X-Goog-Upload-Status", "final")
			w.Write([]byte(`{"file":{"name":"files/abc","uri":"https://example.com/v1beta/files/abc","state":"PROCESSING","mimeType":"video/mp4","sizeBytes":"16"}}`))
			return
		}
		w.Header().Set("X-Goog-Upload-Status", "active")
	}))
	defer server.Close()

	file, err := newTestClient(t, server.URL).UploadFile(context.Background(), videoPath, "")
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}
	if !started {
		t.Error("upload session was never started")
	}
	if string(received) != "fake video bytes" {
		t.Errorf("uploaded body = %q", received)
	}
	if file.Name != "files/abc" || file.State != StateProcessing {
		t.Errorf("file = %+v", file)
	}
	if file.URI != "https://example.com/v1beta/files/abc" {
		t.Errorf("URI = %q", file.URI)
	}
}

func TestSDKClient_UploadFile_MissingFile(t *testing.T) {
	_, err := newTestClient(t, "http://127.0.0.1:1").UploadFile(context.Background(), "/nonexistent/clip.mp4", "")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSDKClient_GetFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || !strings.HasSuffix(r.URL.Path, "/files/abc") {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"name":"files/abc","uri":"u","state":"FAILED","error":{"message":"unsupported codec"}}`))
	}))
	defer server.Close()

	file, err := newTestClient(t, server.URL).GetFile(context.Background(), "files/abc")
	if err != nil {
		t.Fatalf("GetFile() error = %v", err)
	}
	if file.State != StateFailed {
		t.Errorf("State = %q, want FAILED", file.State)
	}
	if file.Error == nil || file.Error.Message != "unsupported codec" {
		t.Errorf("Error = %+v", file.Error)
	}
}

func TestSDKClient_GetFile_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":404,"message":"File files/abc not found.","status":"NOT_FOUND"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).GetFile(context.Background(), "files/abc")
	if !IsNotFound(err) {
		t.Fatalf("IsNotFound(%v) = false", err)
	}
	if !strings.Contains(strings.ToLower(err.Error()), "not found") {
		t.Errorf("Error() = %q should mention not found", err.Error())
	}
}

func TestSDKClient_GenerateContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "models/gemini-2.5-flash:generateContent") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Error("missing API key header")
		}

		var req struct {
			Contents []Content `json:"contents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 2 {
			t.Fatalf("contents = %+v", req.Contents)
		}
		parts := req.Contents[0].Parts
		if parts[0].FileData == nil || parts[0].FileData.FileURI != "https://example.com/files/abc" {
			t.Errorf("first part = %+v, want file reference", parts[0])
		}
		if parts[1].Text != "describe" {
			t.Errorf("second part = %+v", parts[1])
		}
		if req.Contents[0].Role != "user" {
			t.Errorf("role = %q, want user", req.Contents[0].Role)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello "},{"text":"world"}]},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	resp, err := newTestClient(t, server.URL).GenerateContent(context.Background(), "models/gemini-2.5-flash", []Content{{
		Parts: []Part{FilePart("https://example.com/files/abc", "video/mp4"), TextPart("describe")},
	}})
	if err != nil {
		t.Fatalf("GenerateContent() error = %v", err)
	}
	if resp.Text() != "Hello world" {
		t.Errorf("Text() = %q", resp.Text())
	}
}

func TestSDKClient_GenerateContent_Overloaded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"code":503,"message":"The model is overloaded. Please try again later.","status":"UNAVAILABLE"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).GenerateContent(context.Background(), "gemini-2.5-flash", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "503") || !strings.Contains(msg, "unavailable") {
		t.Errorf("Error() = %q should carry code and status", err.Error())
	}
	if IsNotFound(err) {
		t.Error("503 must not be reported as not found")
	}
}

func TestSDKClient_GenerateContent_Empty(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"no candidates", `{"candidates":[]}`, "no content"},
		{"blocked", `{"promptFeedback":{"blockReason":"SAFETY"}}`, "SAFETY"},
		{"finish reason", `{"candidates":[{"content":{"parts":[]},"finishReason":"MAX_TOKENS"}]}`, "MAX_TOKENS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(t, server.URL).GenerateContent(context.Background(), "m", nil)
			if !errors.Is(err, ErrEmptyResponse) {
				t.Fatalf("error = %v, want ErrEmptyResponse", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Error() = %q, want to contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("not found"), false},
		{"code", &genai.APIError{Code: 404, Message: "gone"}, true},
		{"status", &genai.APIError{Code: 400, Status: "NOT_FOUND"}, true},
		{"wrapped", errors.Join(errors.New("poll"), &genai.APIError{Code: 404}), true},
		{"other", &genai.APIError{Code: 403, Status: "PERMISSION_DENIED"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDetectMIMEType(t *testing.T) {
	tests := map[string]string{
		"a.mp4":  "video/mp4",
		"a.MP4":  "video/mp4",
		"a.mov":  "video/quicktime",
		"a.webm": "video/webm",
		"noext":  "video/mp4",
	}
	for path, want := range tests {
		if got := DetectMIMEType(path); got != want {
			t.Errorf("DetectMIMEType(%q) = %q, want %q", path, got, want)
		}
	}
}

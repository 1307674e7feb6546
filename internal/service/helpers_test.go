package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/border1px/video-remix/internal/asset"
	"github.com/border1px/video-remix/internal/config"
	"github.com/border1px/video-remix/internal/generation"
	"github.com/border1px/video-remix/internal/repository"
	"github.com/border1px/video-remix/internal/settings"
	"github.com/border1px/video-remix/pkg/gemini"
)

const testAPIKey = "AIzaSyA-0123456789abcdefghij"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeGemini is a scripted gemini.Client. Replies are consumed in order;
// when a reply has err set the call fails with it.
type fakeGemini struct {
	mu       sync.Mutex
	replies  []fakeReply
	requests [][]gemini.Content
	uploads  []string
	state    string
}

type fakeReply struct {
	text string
	err  error
}

func (f *fakeGemini) UploadFile(ctx context.Context, path, displayName string) (*gemini.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, path)
	return &gemini.File{Name: "files/abc", URI: "https://example.com/files/abc", MIMEType: "video/mp4", State: "PROCESSING"}, nil
}

func (f *fakeGemini) GetFile(ctx context.Context, name string) (*gemini.File, error) {
	state := f.state
	if state == "" {
		state = "ACTIVE"
	}
	return &gemini.File{Name: name, URI: "https://example.com/files/abc", MIMEType: "video/mp4", State: state}, nil
}

func (f *fakeGemini) GenerateContent(ctx context.Context, model string, contents []gemini.Content) (*gemini.GenerateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, contents)
	if len(f.replies) == 0 {
		return nil, errors.New("no scripted reply")
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	if r.err != nil {
		return nil, r.err
	}
	return &gemini.GenerateResponse{Candidates: []gemini.Candidate{{
		Content: gemini.Content{Role: "model", Parts: []gemini.Part{{Text: r.text}}},
	}}}, nil
}

// lastPrompt returns the text of the last part of the last user turn of request i.
func (f *fakeGemini) lastPrompt(i int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	contents := f.requests[i]
	parts := contents[len(contents)-1].Parts
	return parts[len(parts)-1].Text
}

type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

type testEnv struct {
	svc      *CopywritingService
	client   *fakeGemini
	store    *settings.Store
	sleeper  *recordingSleeper
	video    string
	dataDir  string
	factoryN int
}

func newTestEnv(t *testing.T, replies ...fakeReply) *testEnv {
	t.Helper()
	dir := t.TempDir()

	video := dir + "/clip.mp4"
	if err := os.WriteFile(video, []byte("video bytes"), 0644); err != nil {
		t.Fatalf("write video: %v", err)
	}

	env := &testEnv{
		client:  &fakeGemini{replies: replies},
		store:   settings.NewStore(dir+"/config.json", testLogger()),
		sleeper: &recordingSleeper{},
		video:   video,
		dataDir: dir + "/data",
	}
	if err := env.store.SetAPIKey(testAPIKey); err != nil {
		t.Fatalf("SetAPIKey: %v", err)
	}

	backend := NewBackendProvider(env.store, "", func(key string) (gemini.Client, error) {
		env.factoryN++
		return env.client, nil
	}, testLogger())
	uploader := asset.NewUploader(config.UploadConfig{PollInterval: time.Millisecond, PollTimeout: time.Second}, dir+"/tmp", testLogger())
	invoker := generation.NewInvoker(config.GenerationConfig{MaxAttempts: 3, BaseDelay: time.Millisecond}, testLogger())

	env.svc = NewCopywritingService(
		backend,
		uploader,
		invoker,
		repository.NewFilesystemScriptRepository(env.dataDir),
		NewSessionStore(),
		time.Second,
		testLogger(),
	)
	env.svc.sleep = env.sleeper.Sleep
	env.svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local) }
	return env
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

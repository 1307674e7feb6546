package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/border1px/video-remix/internal/asset"
	"github.com/border1px/video-remix/internal/domain"
	"github.com/border1px/video-remix/internal/generation"
	"github.com/border1px/video-remix/internal/repository"
	"github.com/border1px/video-remix/internal/retry"
	"github.com/border1px/video-remix/pkg/gemini"
)

// Backend supplies the client and model for generation calls.
type Backend interface {
	Client() (gemini.Client, error)
	Model() string
}

// AssetUploader pushes a local video to the backend's file store.
type AssetUploader interface {
	Upload(ctx context.Context, store asset.FileStore, path string, progress asset.ProgressFunc) (*domain.RemoteAsset, error)
}

// ContentGenerator runs generation calls with retry.
type ContentGenerator interface {
	Chat(ctx context.Context, g generation.Generator, model string, contents []gemini.Content) (string, error)
}

// CopywritingService drives the transcript, analysis and rewrite chain.
type CopywritingService struct {
	backend    Backend
	uploader   AssetUploader
	generator  ContentGenerator
	scripts    repository.ScriptRepository
	sessions   *SessionStore
	chainPause time.Duration
	logger     *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewCopywritingService creates a new copywriting service.
func NewCopywritingService(
	backend Backend,
	uploader AssetUploader,
	generator ContentGenerator,
	scripts repository.ScriptRepository,
	sessions *SessionStore,
	chainPause time.Duration,
	logger *slog.Logger,
) *CopywritingService {
	if logger == nil {
		logger = slog.Default()
	}
	if sessions == nil {
		sessions = NewSessionStore()
	}
	return &CopywritingService{
		backend:    backend,
		uploader:   uploader,
		generator:  generator,
		scripts:    scripts,
		sessions:   sessions,
		chainPause: chainPause,
		logger:     logger,
		sleep:      retry.SleepContext,
		now:        time.Now,
	}
}

// GenerateRequest starts a full copywriting run.
type GenerateRequest struct {
	VideoPath   string `json:"video_path"`
	Positioning string `json:"positioning"`
}

// Generate uploads the video and runs the three chained prompts. On failure
// the returned session carries the progress log but is not stored.
func (s *CopywritingService) Generate(ctx context.Context, req GenerateRequest, progress domain.ProgressFunc) (*domain.ScriptSession, error) {
	plog := domain.NewProgressLog(progress)
	session := &domain.ScriptSession{
		VideoPath:   req.VideoPath,
		Positioning: strings.TrimSpace(req.Positioning),
		CreatedAt:   s.now(),
	}
	fail := func(op string, err error) (*domain.ScriptSession, error) {
		plog.Add(domain.StageFailed, "%s failed: %v", op, err)
		session.Log = plog.Events()
		s.logger.Error("copywriting failed", "video", req.VideoPath, "step", op, "error", err)
		return session, domain.NewPipelineError(op, err)
	}

	plog.Add(domain.StageInit, "starting")
	if err := checkVideo(req.VideoPath); err != nil {
		return fail("validate", err)
	}
	client, err := s.backend.Client()
	if err != nil {
		return fail("validate", err)
	}
	model := s.backend.Model()

	remote, err := s.uploader.Upload(ctx, client, req.VideoPath, func(stage domain.Stage, msg string) {
		plog.Add(stage, "%s", msg)
	})
	if err != nil {
		// The uploader already tags its errors with the failing step.
		plog.Add(domain.StageFailed, "upload failed (%s): %v", asset.ErrorStage(err), err)
		session.Log = plog.Events()
		return session, err
	}
	session.Asset = *remote
	plog.Add(domain.StageUploading, "video ready")

	file := gemini.FilePart(remote.URI, remote.MIMEType)

	plog.Add(domain.StageTranscript, "extracting transcript")
	session.Transcript, err = s.ask(ctx, client, model, file, TranscriptPrompt)
	if err != nil {
		return fail("transcript", err)
	}
	plog.Add(domain.StageTranscript, "transcript done")

	if err := s.sleep(ctx, s.chainPause); err != nil {
		return fail("analysis", err)
	}

	plog.Add(domain.StageAnalysis, "analyzing style and structure")
	session.Analysis, err = s.ask(ctx, client, model, file, AnalysisPrompt)
	if err != nil {
		return fail("analysis", err)
	}
	plog.Add(domain.StageAnalysis, "analysis done")

	if err := s.sleep(ctx, s.chainPause); err != nil {
		return fail("rewrite", err)
	}

	plog.Add(domain.StageRewrite, "writing new script")
	if err := s.rewrite(ctx, client, model, session); err != nil {
		return fail("rewrite", err)
	}

	plog.Add(domain.StageDone, "finished")
	session.ID = NewSessionID()
	session.Log = plog.Events()
	session.UpdatedAt = s.now()
	s.sessions.Put(session)

	s.logger.Info("copywriting completed",
		"session", session.ID,
		"video", req.VideoPath,
		"model", model,
	)
	return session, nil
}

// Regenerate reruns only the rewrite prompt against the stored transcript
// and analysis. An empty positioning keeps the previous one.
func (s *CopywritingService) Regenerate(ctx context.Context, id domain.SessionID, positioning string, progress domain.ProgressFunc) (*domain.ScriptSession, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	if !session.HasAnalysis() {
		return nil, domain.ErrIncompleteSession
	}
	client, err := s.backend.Client()
	if err != nil {
		return nil, err
	}

	if p := strings.TrimSpace(positioning); p != "" {
		session.Positioning = p
	}

	plog := domain.NewProgressLog(progress)
	plog.Add(domain.StageRewrite, "regenerating script")
	if err := s.rewrite(ctx, client, s.backend.Model(), session); err != nil {
		plog.Add(domain.StageFailed, "regenerate failed: %v", err)
		return nil, domain.NewPipelineError("rewrite", err)
	}
	plog.Add(domain.StageDone, "script regenerated")

	session.Log = append(session.Log, plog.Events()...)
	session.SavedPath = ""
	session.UpdatedAt = s.now()
	s.sessions.Put(session)
	return session, nil
}

// Refine sends a follow-up instruction in the context of the current
// conversation and replaces the script with the reply.
func (s *CopywritingService) Refine(ctx context.Context, id domain.SessionID, instruction string, progress domain.ProgressFunc) (*domain.ScriptSession, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, domain.ErrEmptyInstruction
	}
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	if session.Script == "" || session.Asset.URI == "" {
		return nil, domain.ErrIncompleteSession
	}
	client, err := s.backend.Client()
	if err != nil {
		return nil, err
	}

	turns := append(session.History, domain.Turn{Role: "user", Text: instruction})
	contents := make([]gemini.Content, 0, len(turns))
	for i, t := range turns {
		c := gemini.Content{Role: t.Role, Parts: []gemini.Part{gemini.TextPart(t.Text)}}
		if i == 0 {
			c.Parts = append([]gemini.Part{gemini.FilePart(session.Asset.URI, session.Asset.MIMEType)}, c.Parts...)
		}
		contents = append(contents, c)
	}

	plog := domain.NewProgressLog(progress)
	plog.Add(domain.StageRefine, "applying follow-up")
	reply, err := s.generator.Chat(ctx, client, s.backend.Model(), contents)
	if err != nil {
		plog.Add(domain.StageFailed, "follow-up failed: %v", err)
		return nil, domain.NewPipelineError("refine", err)
	}
	plog.Add(domain.StageDone, "script updated")

	session.History = append(turns, domain.Turn{Role: "model", Text: reply})
	session.Script = reply
	session.Log = append(session.Log, plog.Events()...)
	session.SavedPath = ""
	session.UpdatedAt = s.now()
	s.sessions.Put(session)
	return session, nil
}

// Quick uploads the video and answers a single prompt.
func (s *CopywritingService) Quick(ctx context.Context, videoPath, prompt string, progress domain.ProgressFunc) (domain.GenerationResult, error) {
	plog := domain.NewProgressLog(progress)
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultQuickPrompt
	}

	if err := checkVideo(videoPath); err != nil {
		return domain.NewGenerationResult("", err), domain.NewPipelineError("validate", err)
	}
	client, err := s.backend.Client()
	if err != nil {
		return domain.NewGenerationResult("", err), domain.NewPipelineError("validate", err)
	}

	remote, err := s.uploader.Upload(ctx, client, videoPath, func(stage domain.Stage, msg string) {
		plog.Add(stage, "%s", msg)
	})
	if err != nil {
		return domain.NewGenerationResult("", err), err
	}

	plog.Add(domain.StageRewrite, "generating copy")
	text, err := s.ask(ctx, client, s.backend.Model(), gemini.FilePart(remote.URI, remote.MIMEType), prompt)
	if err != nil {
		return domain.NewGenerationResult("", err), domain.NewPipelineError("generate", err)
	}
	plog.Add(domain.StageDone, "finished")
	return domain.NewGenerationResult(text, nil), nil
}

// Save exports the session's script to markdown and returns the path.
func (s *CopywritingService) Save(ctx context.Context, id domain.SessionID) (string, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(session.Script) == "" {
		return "", domain.ErrEmptyScript
	}

	path, err := s.scripts.Save(ctx, session.VideoPath, session.Script, s.now())
	if err != nil {
		return "", fmt.Errorf("save script: %w", err)
	}

	session.SavedPath = path
	s.sessions.Put(session)
	s.logger.Info("script saved", "session", id, "path", path)
	return path, nil
}

// Session returns a stored session.
func (s *CopywritingService) Session(id domain.SessionID) (*domain.ScriptSession, error) {
	return s.sessions.Get(id)
}

func (s *CopywritingService) ask(ctx context.Context, client generation.Generator, model string, file gemini.Part, prompt string) (string, error) {
	return s.generator.Chat(ctx, client, model, []gemini.Content{{
		Role:  "user",
		Parts: []gemini.Part{file, gemini.TextPart(prompt)},
	}})
}

// rewrite runs the rewrite prompt and resets the conversation to it.
func (s *CopywritingService) rewrite(ctx context.Context, client generation.Generator, model string, session *domain.ScriptSession) error {
	prompt := RewritePrompt(session.Transcript, session.Analysis, session.Positioning)
	file := gemini.FilePart(session.Asset.URI, session.Asset.MIMEType)

	script, err := s.ask(ctx, client, model, file, prompt)
	if err != nil {
		return err
	}

	session.Script = script
	session.History = []domain.Turn{
		{Role: "user", Text: prompt},
		{Role: "model", Text: script},
	}
	return nil
}

func checkVideo(path string) error {
	if strings.TrimSpace(path) == "" {
		return domain.ErrVideoMissing
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return domain.ErrVideoMissing
	}
	return nil
}

// Package generation calls the model with bounded retry on transient overload.
package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/border1px/video-remix/internal/config"
	"github.com/border1px/video-remix/internal/domain"
	"github.com/border1px/video-remix/internal/retry"
	"github.com/border1px/video-remix/pkg/gemini"
)

// Generator is the model call the invoker wraps.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []gemini.Content) (*gemini.GenerateResponse, error)
}

// retryableMarkers are matched against the lowercased error text.
var retryableMarkers = []string{"503", "unavailable", "overloaded", "rate limit", "429"}

// IsRetryable reports whether err looks like transient backend overload.
// Unknown errors are not retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range retryableMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// Invoker runs generation calls with exponential backoff.
type Invoker struct {
	cfg    config.GenerationConfig
	logger *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewInvoker creates an invoker.
func NewInvoker(cfg config.GenerationConfig, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 5
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 2 * time.Second
	}
	return &Invoker{
		cfg:    cfg,
		logger: logger,
		sleep:  retry.SleepContext,
	}
}

// Generate sends a single user turn made of parts.
func (i *Invoker) Generate(ctx context.Context, g Generator, model string, parts ...gemini.Part) (string, error) {
	return i.Chat(ctx, g, model, []gemini.Content{{Role: "user", Parts: parts}})
}

// Chat sends a multi-turn conversation and returns the model's reply.
func (i *Invoker) Chat(ctx context.Context, g Generator, model string, contents []gemini.Content) (string, error) {
	if g == nil {
		return "", domain.ErrMissingAPIKey
	}

	cfg := retry.Config{
		MaxAttempts:   i.cfg.MaxAttempts,
		InitialDelay:  i.cfg.BaseDelay,
		MaxDelay:      i.cfg.MaxDelay,
		BackoffFactor: 2.0,
		Sleep:         i.sleep,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			i.logger.Warn("generation overloaded, retrying",
				"model", model,
				"attempt", attempt,
				"max_attempts", i.cfg.MaxAttempts,
				"delay", delay,
				"error", err,
			)
		},
	}

	text, err := retry.RetryWithCheck(ctx, cfg, func() (string, error) {
		resp, err := g.GenerateContent(ctx, model, contents)
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}, IsRetryable)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		i.logger.Error("generation failed", "model", model, "error", err)
		if IsRetryable(err) {
			return "", fmt.Errorf("%w: %w: %w", domain.ErrGenerationFailed, domain.ErrBackendOverloaded, err)
		}
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
	}

	return text, nil
}

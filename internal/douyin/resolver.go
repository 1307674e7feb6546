package douyin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/border1px/video-remix/internal/config"
	"github.com/border1px/video-remix/internal/domain"
)

const (
	defaultTitle  = "未知标题"
	defaultAuthor = "未知作者"

	maxResponseSize = 10 * 1024 * 1024
)

// Resolver turns share URLs into direct media URLs using a third-party
// resolution service.
type Resolver struct {
	httpClient *http.Client
	baseURL    string
	platform   string
	logger     *slog.Logger
}

// NewResolver creates a resolver for the configured service.
func NewResolver(cfg config.ResolverConfig, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	platform := cfg.Platform
	if platform == "" {
		platform = "douyin"
	}
	return &Resolver{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		platform:   platform,
		logger:     logger,
	}
}

type resolveEnvelope struct {
	Code *int            `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type resolvePayload struct {
	Title    *string     `json:"title"`
	Author   *string     `json:"author"`
	URL      string      `json:"url"`
	Cover    string      `json:"cover"`
	Duration flexSeconds `json:"duration"`
}

// flexSeconds accepts a JSON number or a numeric string.
type flexSeconds float64

func (f *flexSeconds) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*f = flexSeconds(v)
	return nil
}

// Resolve performs a single resolution attempt for shareURL.
// Failures are *domain.ResolveError values whose Kind distinguishes network
// problems, upstream rejection and malformed payloads.
func (r *Resolver) Resolve(ctx context.Context, shareURL string) (*domain.ResolvedVideo, error) {
	endpoint := fmt.Sprintf("%s/api/%s?url=%s", r.baseURL, r.platform, url.QueryEscape(shareURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &domain.ResolveError{Kind: domain.ErrResolveNetwork, Message: "create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, &domain.ResolveError{Kind: domain.ErrResolveNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &domain.ResolveError{Kind: domain.ErrResolveNetwork, Message: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.ResolveError{
			Kind:    domain.ErrResolveNetwork,
			Message: fmt.Sprintf("HTTP status %d", resp.StatusCode),
		}
	}

	var env resolveEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &domain.ResolveError{Kind: domain.ErrMalformedResponse, Err: err}
	}
	raw := json.RawMessage(bytes.TrimSpace(body))

	if env.Code == nil {
		return nil, &domain.ResolveError{Kind: domain.ErrMalformedResponse, Message: "missing code field", Raw: raw}
	}
	if *env.Code != 200 {
		msg := env.Msg
		if msg == "" {
			msg = "解析失败"
		}
		r.logger.Warn("resolution rejected",
			"share_url", shareURL,
			"code", *env.Code,
			"msg", msg,
		)
		return nil, &domain.ResolveError{Kind: domain.ErrUpstreamRejected, Message: msg, Raw: raw}
	}

	var payload resolvePayload
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, &domain.ResolveError{Kind: domain.ErrMalformedResponse, Err: err, Raw: raw}
		}
	}

	video := &domain.ResolvedVideo{
		Title:           stringOr(payload.Title, defaultTitle),
		Author:          stringOr(payload.Author, defaultAuthor),
		DirectURL:       strings.TrimSpace(payload.URL),
		CoverURL:        payload.Cover,
		DurationSeconds: float64(payload.Duration),
		RawResponse:     raw,
	}

	r.logger.Info("share url resolved",
		"share_url", shareURL,
		"title", video.Title,
		"author", video.Author,
		"has_video_url", video.DirectURL != "",
	)

	return video, nil
}

func stringOr(s *string, fallback string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return fallback
	}
	return *s
}

// Package gemini adapts the Generative Language SDK to the file store and
// content generation calls the pipeline needs.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Client is the subset of the API the pipeline needs.
type Client interface {
	// UploadFile sends a local file to the file store.
	UploadFile(ctx context.Context, path, displayName string) (*File, error)
	// GetFile returns the current metadata of an uploaded file.
	GetFile(ctx context.Context, name string) (*File, error)
	// GenerateContent runs a model over the given conversation.
	GenerateContent(ctx context.Context, model string, contents []Content) (*GenerateResponse, error)
}

// File states reported by the file store.
const (
	StateProcessing = string(genai.FileStateProcessing)
	StateActive     = string(genai.FileStateActive)
	StateFailed     = string(genai.FileStateFailed)
)

// File is an uploaded file's metadata.
type File struct {
	Name        string     `json:"name"`
	DisplayName string     `json:"displayName,omitempty"`
	MIMEType    string     `json:"mimeType,omitempty"`
	SizeBytes   int64      `json:"sizeBytes,omitempty"`
	URI         string     `json:"uri"`
	State       string     `json:"state"`
	Error       *FileError `json:"error,omitempty"`
}

// FileError explains why processing of a file failed.
type FileError struct {
	Message string `json:"message"`
}

// FileData references an uploaded file from a prompt.
type FileData struct {
	MIMEType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri"`
}

// Part is one piece of a message: text or a file reference.
type Part struct {
	Text     string    `json:"text,omitempty"`
	FileData *FileData `json:"fileData,omitempty"`
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// FilePart builds a part referencing an uploaded file.
func FilePart(uri, mimeType string) Part {
	return Part{FileData: &FileData{MIMEType: mimeType, FileURI: uri}}
}

// Content is a single conversation turn.
type Content struct {
	Role  string `json:"role,omitempty"` // "user" or "model"
	Parts []Part `json:"parts"`
}

// Candidate is one generated answer.
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

// GenerateResponse is the part of a generation result the pipeline reads.
type GenerateResponse struct {
	Candidates  []Candidate `json:"candidates"`
	BlockReason string      `json:"blockReason,omitempty"`
}

// Text concatenates the text parts of the first candidate.
func (r *GenerateResponse) Text() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("gemini returned no content")

// IsNotFound reports whether err is a NOT_FOUND API error.
func IsNotFound(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return notFound(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return notFound(*apiErrPtr)
	}
	return false
}

func notFound(e genai.APIError) bool {
	return e.Code == http.StatusNotFound || e.Status == "NOT_FOUND"
}

// Config for creating a new client.
type Config struct {
	APIKey        string
	BaseURL       string        // Optional, defaults to the public endpoint
	APIVersion    string        // Optional, defaults to "v1beta"
	Timeout       time.Duration // Optional, defaults to 5 minutes
	UploadTimeout time.Duration // Optional, defaults to 10 minutes
	HTTPClient    *http.Client  // Optional
}

// SDKClient implements Client on top of genai.Client.
type SDKClient struct {
	sdk           *genai.Client
	timeout       time.Duration
	uploadTimeout time.Duration
}

// NewClient creates a client bound to one API key.
func NewClient(ctx context.Context, cfg Config) (*SDKClient, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v1beta"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.UploadTimeout == 0 {
		cfg.UploadTimeout = 10 * time.Minute
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    strings.TrimRight(cfg.BaseURL, "/") + "/",
			APIVersion: cfg.APIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &SDKClient{
		sdk:           sdk,
		timeout:       cfg.Timeout,
		uploadTimeout: cfg.UploadTimeout,
	}, nil
}

// UploadFile streams path to the file store.
func (c *SDKClient) UploadFile(ctx context.Context, path, displayName string) (*File, error) {
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	if displayName == "" {
		displayName = filepath.Base(path)
	}
	f, err := c.sdk.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{
		DisplayName: displayName,
		MIMEType:    DetectMIMEType(path),
	})
	if err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}
	return fromSDKFile(f), nil
}

// GetFile fetches file metadata. name has the form "files/{id}".
func (c *SDKClient) GetFile(ctx context.Context, name string) (*File, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	f, err := c.sdk.Files.Get(ctx, name, nil)
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", name, err)
	}
	return fromSDKFile(f), nil
}

// GenerateContent runs model over contents and requires a non-empty answer.
func (c *SDKClient) GenerateContent(ctx context.Context, model string, contents []Content) (*GenerateResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.sdk.Models.GenerateContent(ctx, strings.TrimPrefix(model, "models/"), toSDKContents(contents), nil)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	out := fromSDKResponse(resp)
	if out.Text() == "" {
		if out.BlockReason != "" {
			return nil, fmt.Errorf("%w: prompt blocked (%s)", ErrEmptyResponse, out.BlockReason)
		}
		if len(out.Candidates) > 0 && out.Candidates[0].FinishReason != "" {
			return nil, fmt.Errorf("%w: finish reason %s", ErrEmptyResponse, out.Candidates[0].FinishReason)
		}
		return nil, ErrEmptyResponse
	}
	return out, nil
}

func toSDKContents(contents []Content) []*genai.Content {
	out := make([]*genai.Content, 0, len(contents))
	for _, c := range contents {
		role := c.Role
		if role == "" {
			role = "user"
		}
		parts := make([]*genai.Part, 0, len(c.Parts))
		for _, p := range c.Parts {
			if p.FileData != nil {
				parts = append(parts, &genai.Part{FileData: &genai.FileData{
					FileURI:  p.FileData.FileURI,
					MIMEType: p.FileData.MIMEType,
				}})
				continue
			}
			parts = append(parts, &genai.Part{Text: p.Text})
		}
		out = append(out, &genai.Content{Role: role, Parts: parts})
	}
	return out
}

func fromSDKResponse(resp *genai.GenerateContentResponse) *GenerateResponse {
	out := &GenerateResponse{}
	if resp == nil {
		return out
	}
	if resp.PromptFeedback != nil {
		out.BlockReason = string(resp.PromptFeedback.BlockReason)
	}
	for _, cand := range resp.Candidates {
		if cand == nil {
			continue
		}
		c := Candidate{FinishReason: string(cand.FinishReason)}
		if cand.Content != nil {
			c.Content.Role = cand.Content.Role
			for _, p := range cand.Content.Parts {
				if p == nil || p.Text == "" {
					continue
				}
				c.Content.Parts = append(c.Content.Parts, Part{Text: p.Text})
			}
		}
		out.Candidates = append(out.Candidates, c)
	}
	return out
}

func fromSDKFile(f *genai.File) *File {
	if f == nil {
		return &File{}
	}
	out := &File{
		Name:        f.Name,
		DisplayName: f.DisplayName,
		MIMEType:    f.MIMEType,
		URI:         f.URI,
		State:       string(f.State),
	}
	if f.SizeBytes != nil {
		out.SizeBytes = *f.SizeBytes
	}
	if f.Error != nil && f.Error.Message != "" {
		out.Error = &FileError{Message: f.Error.Message}
	}
	return out
}

// DetectMIMEType guesses a video MIME type from the file extension.
func DetectMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp4", "":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

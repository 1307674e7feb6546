package domain

import (
	"encoding/json"
	"errors"
)

// Domain errors.
var (
	// ErrEmptyInput is returned when the pasted share text is blank.
	ErrEmptyInput = errors.New("share text is empty")

	// ErrShareURLNotFound is returned when no share URL can be found in the input text.
	ErrShareURLNotFound = errors.New("no share URL found in input")

	// ErrNoVideoURL is returned when the resolver succeeded but returned no direct media URL.
	ErrNoVideoURL = errors.New("resolver returned no video URL")

	// ErrResolveNetwork is returned when the resolution service cannot be reached.
	ErrResolveNetwork = errors.New("resolution request failed")

	// ErrUpstreamRejected is returned when the resolution service answers with a non-success code.
	ErrUpstreamRejected = errors.New("resolution rejected by upstream")

	// ErrMalformedResponse is returned when the resolution payload cannot be understood.
	ErrMalformedResponse = errors.New("malformed resolution response")

	// ErrDownloadFailed is returned when the video download fails.
	ErrDownloadFailed = errors.New("video download failed")

	// ErrStorageFull is returned when there is insufficient storage space.
	ErrStorageFull = errors.New("insufficient storage space")

	// ErrVideoMissing is returned when the local video file does not exist.
	ErrVideoMissing = errors.New("video file not found")

	// ErrMissingAPIKey is returned when no AI backend key is configured.
	ErrMissingAPIKey = errors.New("gemini API key is not configured")

	// ErrInvalidAPIKey is returned when a submitted API key is malformed.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrUploadFailed is returned when the file upload to the AI backend fails.
	ErrUploadFailed = errors.New("asset upload failed")

	// ErrAssetFailed is returned when the backend reports the asset as FAILED.
	ErrAssetFailed = errors.New("asset processing failed")

	// ErrAssetTimeout is returned when the asset never becomes ACTIVE in time.
	ErrAssetTimeout = errors.New("asset processing timed out")

	// ErrAssetQuery is returned when the asset status query fails terminally.
	ErrAssetQuery = errors.New("asset status query failed")

	// ErrGenerationFailed is returned when content generation fails.
	ErrGenerationFailed = errors.New("content generation failed")

	// ErrBackendOverloaded marks a generation failure that stayed transient
	// through every retry attempt.
	ErrBackendOverloaded = errors.New("backend overloaded")

	// ErrSessionNotFound is returned when a script session cannot be found.
	ErrSessionNotFound = errors.New("script session not found")

	// ErrIncompleteSession is returned when a session lacks the transcript or analysis.
	ErrIncompleteSession = errors.New("script session has no analysis yet")

	// ErrEmptyScript is returned when there is no script content to save.
	ErrEmptyScript = errors.New("no script content to save")

	// ErrEmptyInstruction is returned when a follow-up instruction is blank.
	ErrEmptyInstruction = errors.New("follow-up instruction is empty")

	// ErrInvalidVideoName is returned when a video name escapes the library directory.
	ErrInvalidVideoName = errors.New("invalid video name")

	// ErrUnsupportedVideo is returned when an uploaded file is not a known video format.
	ErrUnsupportedVideo = errors.New("unsupported video format")
)

// PipelineError wraps an error with the pipeline step that produced it.
type PipelineError struct {
	Op  string
	Err error
}

func (e *PipelineError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError creates a new PipelineError.
func NewPipelineError(op string, err error) *PipelineError {
	return &PipelineError{
		Op:  op,
		Err: err,
	}
}

// ResolveError describes a failed share URL resolution.
// Kind is one of ErrResolveNetwork, ErrUpstreamRejected or ErrMalformedResponse.
type ResolveError struct {
	Kind    error
	Message string
	Err     error
	Raw     json.RawMessage
}

func (e *ResolveError) Error() string {
	msg := e.Kind.Error()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolveError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Category groups errors by how the user is expected to react to them.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryNotFound   Category = "not_found"
	CategoryUpstream   Category = "upstream"
	CategoryAsset      Category = "asset"
	CategoryOverload   Category = "overload"
	CategoryInternal   Category = "internal"
)

// Categorize maps an error onto the user-facing error taxonomy.
func Categorize(err error) Category {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyInput),
		errors.Is(err, ErrShareURLNotFound),
		errors.Is(err, ErrMissingAPIKey),
		errors.Is(err, ErrInvalidAPIKey),
		errors.Is(err, ErrVideoMissing),
		errors.Is(err, ErrEmptyScript),
		errors.Is(err, ErrEmptyInstruction),
		errors.Is(err, ErrIncompleteSession),
		errors.Is(err, ErrInvalidVideoName),
		errors.Is(err, ErrUnsupportedVideo):
		return CategoryValidation
	case errors.Is(err, ErrSessionNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrResolveNetwork),
		errors.Is(err, ErrUpstreamRejected),
		errors.Is(err, ErrMalformedResponse),
		errors.Is(err, ErrNoVideoURL),
		errors.Is(err, ErrDownloadFailed),
		errors.Is(err, ErrStorageFull):
		return CategoryUpstream
	case errors.Is(err, ErrUploadFailed),
		errors.Is(err, ErrAssetFailed),
		errors.Is(err, ErrAssetTimeout),
		errors.Is(err, ErrAssetQuery):
		return CategoryAsset
	case errors.Is(err, ErrBackendOverloaded):
		return CategoryOverload
	case errors.Is(err, ErrGenerationFailed):
		return CategoryUpstream
	default:
		return CategoryInternal
	}
}

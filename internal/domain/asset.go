package domain

// AssetState is the processing state of a file in the AI backend's file store.
type AssetState string

const (
	AssetStatePending    AssetState = "PENDING"
	AssetStateProcessing AssetState = "PROCESSING"
	AssetStateActive     AssetState = "ACTIVE"
	AssetStateFailed     AssetState = "FAILED"
)

// IsTerminal reports whether no further polling can change the state.
func (s AssetState) IsTerminal() bool {
	return s == AssetStateActive || s == AssetStateFailed
}

// RemoteAsset is a video uploaded to the AI backend.
// It must be ACTIVE before any generation call references its URI.
type RemoteAsset struct {
	URI      string     `json:"uri"`
	Name     string     `json:"name"`
	MIMEType string     `json:"mime_type,omitempty"`
	State    AssetState `json:"state"`
}

// GenerationResult is the tagged outcome of a generation call.
type GenerationResult struct {
	Success bool   `json:"success"`
	Text    string `json:"text,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewGenerationResult builds a GenerationResult from a text/error pair.
func NewGenerationResult(text string, err error) GenerationResult {
	if err != nil {
		return GenerationResult{Success: false, Error: err.Error()}
	}
	return GenerationResult{Success: true, Text: text}
}

package domain

import (
	"encoding/json"
	"time"
)

// ResolvedVideo is the result of resolving a share URL.
// It is consumed once by the fetcher and never persisted.
type ResolvedVideo struct {
	Title           string          `json:"title"`
	Author          string          `json:"author"`
	DirectURL       string          `json:"direct_url"`
	CoverURL        string          `json:"cover_url"`
	DurationSeconds float64         `json:"duration_seconds"`
	RawResponse     json.RawMessage `json:"raw_response,omitempty"`
}

// LocalVideoFile is a video stored in the downloads directory.
// It is a user-owned artifact and is never deleted automatically.
type LocalVideoFile struct {
	Name       string    `json:"file_name"`
	Path       string    `json:"file_path"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

package domain

import (
	"time"
)

// SessionID identifies a script session.
type SessionID string

// String returns the string representation of the SessionID.
func (id SessionID) String() string {
	return string(id)
}

// Turn is one message of a chat-style refinement.
type Turn struct {
	Role string `json:"role"` // "user" or "model"
	Text string `json:"text"`
}

// ScriptSession holds everything generated for one uploaded video.
// The asset URI stays usable until the backend expires the file.
type ScriptSession struct {
	ID          SessionID       `json:"id"`
	VideoPath   string          `json:"video_path"`
	Asset       RemoteAsset     `json:"asset"`
	Positioning string          `json:"positioning"`
	Transcript  string          `json:"transcript"`
	Analysis    string          `json:"analysis"`
	Script      string          `json:"script"`
	History     []Turn          `json:"history,omitempty"`
	Log         []ProgressEvent `json:"log,omitempty"`
	SavedPath   string          `json:"saved_path,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// HasAnalysis reports whether the first two generation steps have completed.
func (s *ScriptSession) HasAnalysis() bool {
	return s.Asset.URI != "" && s.Transcript != "" && s.Analysis != ""
}

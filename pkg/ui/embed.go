// Package ui provides the embedded single-page web UI.
package ui

import (
	_ "embed"
)

// IndexHTML is the three-tab UI: download, copywriting and settings.
// It talks to the server only through /api/v1.
//
//go:embed index.html
var IndexHTML []byte

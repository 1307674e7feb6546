package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/border1px/video-remix/internal/domain"
)

const maxScriptNameRunes = 50

var (
	scriptNameDisallowed = regexp.MustCompile(`[^\p{L}\p{N}_\s\x{4e00}-\x{9fff}-]`)
	scriptNameSpaces     = regexp.MustCompile(`\s+`)
)

// FilesystemScriptRepository writes scripts as markdown files.
type FilesystemScriptRepository struct {
	basePath string
}

// NewFilesystemScriptRepository creates a repository writing to basePath.
func NewFilesystemScriptRepository(basePath string) *FilesystemScriptRepository {
	return &FilesystemScriptRepository{basePath: basePath}
}

// ScriptFilename returns "{clean video basename}_{YYYYMMDD}.md". Saving the
// same video twice on one day yields the same name.
func ScriptFilename(videoPath string, now time.Time) string {
	base := filepath.Base(videoPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	clean := scriptNameDisallowed.ReplaceAllString(base, "")
	clean = strings.Trim(scriptNameSpaces.ReplaceAllString(clean, "_"), "_")
	if runes := []rune(clean); len(runes) > maxScriptNameRunes {
		clean = string(runes[:maxScriptNameRunes])
	}
	if clean == "" {
		clean = "script"
	}

	return clean + "_" + now.Format("20060102") + ".md"
}

// Save writes content for videoPath, overwriting an earlier save of the same
// video on the same day.
func (r *FilesystemScriptRepository) Save(ctx context.Context, videoPath, content string, now time.Time) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", domain.ErrEmptyScript
	}

	if err := os.MkdirAll(r.basePath, 0755); err != nil {
		return "", fmt.Errorf("create scripts dir: %w", err)
	}

	path := filepath.Join(r.basePath, ScriptFilename(videoPath, now))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write script: %w", err)
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path, nil
}

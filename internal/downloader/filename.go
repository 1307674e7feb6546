package downloader

import (
	"regexp"
	"strings"
	"time"
)

const (
	maxTitleRunes   = 30
	fallbackTitle   = "video"
	timestampLayout = "20060102_150405"
	videoExt        = ".mp4"
)

var (
	hashtagPattern    = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	disallowedPattern = regexp.MustCompile(`[^\x{4e00}-\x{9fff}\p{L}\p{N}_\s\p{Zs}]`)
	spacePattern      = regexp.MustCompile(`[\s\p{Zs}]+`)
)

// SanitizeTitle strips hashtags and symbols from a video title so it can be
// used in a filename. CJK ideographs, letters, digits and underscores are kept;
// whitespace runs collapse to one space; the result is at most 30 runes.
// Applying it twice gives the same result as applying it once.
func SanitizeTitle(title string) string {
	clean := hashtagPattern.ReplaceAllString(title, "")
	clean = disallowedPattern.ReplaceAllString(clean, "")
	clean = strings.TrimSpace(spacePattern.ReplaceAllString(clean, " "))

	if runes := []rune(clean); len(runes) > maxTitleRunes {
		clean = strings.TrimSpace(string(runes[:maxTitleRunes]))
	}
	return clean
}

// BuildFilename returns "{sanitized title}_{YYYYMMDD_HHMMSS}.mp4".
func BuildFilename(title string, now time.Time) string {
	clean := SanitizeTitle(title)
	if clean == "" {
		clean = fallbackTitle
	}
	return clean + "_" + now.Format(timestampLayout) + videoExt
}

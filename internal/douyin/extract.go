// Package douyin extracts share links from pasted share text and resolves
// them into direct media URLs.
package douyin

import (
	"regexp"
)

var shareURLPattern = regexp.MustCompile(`https://v\.douyin\.com/[A-Za-z0-9_/]+`)

// ExtractShareURL returns the first share URL found in text.
// Surrounding text, emoji and punctuation are ignored.
func ExtractShareURL(text string) (string, bool) {
	match := shareURLPattern.FindString(text)
	if match == "" {
		return "", false
	}
	return match, true
}

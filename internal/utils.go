package internal

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"unicode"
)

// maxNameRunes bounds the human readable part of derived clip names
const maxNameRunes = 32

// ClipName derives a stable file name for an announcement text
// Format: sanitized(text)[:32]_md5(text)[:8]
func ClipName(text string) string {
	hash := md5.Sum([]byte(text))
	hashStr := hex.EncodeToString(hash[:])[:8] // Use first 8 chars of MD5

	name := []rune(SanitizeFilename(strings.ToLower(text)))
	if len(name) > maxNameRunes {
		name = []rune(strings.TrimRight(string(name[:maxNameRunes]), "_"))
	}
	if len(name) == 0 {
		return "clip_" + hashStr
	}
	return string(name) + "_" + hashStr
}

// SanitizeFilename creates a safe filename from a string. Runs of unsafe
// characters collapse into a single underscore.
func SanitizeFilename(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(s) {
		if isFilenameRune(r) {
			b.WriteRune(r)
			lastUnderscore = r == '_'
			continue
		}
		if !lastUnderscore {
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// isFilenameRune checks if a rune is safe in a file name on all platforms
func isFilenameRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_'
}

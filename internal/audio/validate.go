package audio

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxTextLength bounds a single announcement
const MaxTextLength = 5000

// ValidateText validates text before it is sent to a TTS server
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text cannot be empty")
	}

	if !utf8.ValidString(text) {
		return fmt.Errorf("text must be valid UTF-8")
	}

	if n := utf8.RuneCountInString(text); n > MaxTextLength {
		return fmt.Errorf("text too long: %d characters (max %d)", n, MaxTextLength)
	}

	return nil
}

package textutil

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayName derives a human-readable project name from a directory path.
// Separators in the final path element become spaces and each word is
// title-cased, so "/home/dev/feature-tracker" renders as "Feature Tracker".
func DisplayName(path string) string {
	if strings.TrimSpace(path) == "" {
		return "Unknown Project"
	}
	base := filepath.Base(filepath.Clean(path))
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	name := strings.TrimSpace(cleaned.String())
	if name == "" {
		return "Unknown Project"
	}
	return cases.Title(language.Und).String(name)
}

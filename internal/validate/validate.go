// Package validate holds the pure input checks applied before any tool
// performs external work. Every function is total: no input panics.
package validate

import (
	"net/url"
	"strings"
)

// MaxPromptLength is the exclusive upper bound for extraction prompts.
const MaxPromptLength = 10000

// IsValidURL reports whether s parses as an absolute http or https URL.
// All other schemes (file, javascript, ftp, ...) are rejected to block
// access to local or privileged resources.
func IsValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Host == "" {
		return false
	}
	switch u.Scheme {
	case "http", "https":
		return true
	}
	return false
}

// SanitizeURL trims surrounding whitespace and strips the characters
// < > ' " from s. It does not re-validate; callers are expected to run
// IsValidURL first.
func SanitizeURL(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '\'', '"':
			return -1
		}
		return r
	}, s)
}

// ValidatePrompt reports whether s is a usable extraction instruction:
// non-empty and shorter than MaxPromptLength characters.
func ValidatePrompt(s string) bool {
	return len(s) >= 1 && len(s) < MaxPromptLength
}

package chat

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const (
	minNickLen    = 3
	maxNickLen    = 20
	maxMessageLen = 2000

	whisperPrefix = "/w "
)

var nickPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// We need to sanitize incoming messages to prevent XSS.
var htmlPolicy = bluemonday.StrictPolicy()

// ValidNickname reports whether raw trims to an acceptable display name:
// 3 to 20 characters drawn from letters, digits, dot, underscore and dash.
func ValidNickname(raw string) bool {
	name := strings.TrimSpace(raw)
	if len(name) < minNickLen || len(name) > maxNickLen {
		return false
	}
	return nickPattern.MatchString(name)
}

// NormalizeKey returns the lowercase, trimmed form of a display name. Keys
// decide nickname uniqueness and whisper targeting.
func NormalizeKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// SanitizeMessage coerces raw into clean message text: markup stripped,
// CRLF normalized, surrounding whitespace trimmed, and the result capped at
// 2000 characters. Non-string input sanitizes to the empty string; this
// never fails.
func SanitizeMessage(raw any) string {
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return ""
	}

	s = htmlPolicy.Sanitize(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSpace(s)

	if r := []rune(s); len(r) > maxMessageLen {
		s = string(r[:maxMessageLen])
	}
	return s
}

// Whisper is a parsed private-message command.
type Whisper struct {
	Target  string
	Content string
}

// IsWhisper reports whether body starts with the whisper command prefix.
func IsWhisper(body string) bool {
	return strings.HasPrefix(body, whisperPrefix)
}

// ParseWhisper splits a whisper body into target and content. Extra spaces
// between the command, the target, and the message are tolerated; the
// boolean is false when no space separates the target from its content.
func ParseWhisper(body string) (Whisper, bool) {
	rest := strings.TrimLeft(strings.TrimPrefix(body, whisperPrefix), " ")

	target, content, found := strings.Cut(rest, " ")
	if !found {
		return Whisper{}, false
	}

	return Whisper{
		Target:  target,
		Content: SanitizeMessage(content),
	}, true
}

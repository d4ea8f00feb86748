// Package planparse turns a raw model response into a plan.Plan. It tries
// the primary JSON wire shape first and falls back to the legacy
// S-expression surface, and it never lets a malformed response escape as a
// Go error: unrecoverable failures degrade to a Plan carrying a single
// ErrorStep so the conversation continues (spec §4.3 "Failure policy").
package planparse

import "strings"

const maxExcerpt = 800

// detectFormat trims surrounding whitespace/code fences and reports whether
// the remaining content looks like the JSON primary format or the
// S-expression fallback.
func detectFormat(raw string) (content string, isJSON bool) {
	content = strings.TrimSpace(raw)
	content = stripFence(content)
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "{") && strings.HasSuffix(content, "}") {
		return content, true
	}
	return content, false
}

// stripFence extracts the body of a fenced code block (``` or ```json ...```)
// when the content is wrapped in one, otherwise returns it unchanged.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	rest := s[3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// Skip an optional language tag on the fence's opening line.
		rest = rest[nl+1:]
	}
	if end := strings.LastIndex(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

// excerpt truncates s to at most maxExcerpt characters for inclusion in a
// diagnostic ErrorStep reason, matching the spec's "(≤800 char) excerpt"
// failure policy.
func excerpt(s string) string {
	r := []rune(s)
	if len(r) <= maxExcerpt {
		return s
	}
	return string(r[:maxExcerpt])
}

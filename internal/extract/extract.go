// Package extract pulls structured pieces out of free-form model replies.
package extract

import (
	"regexp"
	"strings"
)

var (
	fencedBlock = regexp.MustCompile("(?s)```(?:\\w+\\n)?(.*?)```")
	boldMarkers = regexp.MustCompile(`\*\*(.*?)\*\*`)
)

// CodeBlock returns the trimmed body of the first fenced code block in text.
// A language tag directly after the opening fence is dropped.
func CodeBlock(text string) (string, bool) {
	m := fencedBlock.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// LooksLikeCode reports whether text reads as source code rather than prose.
func LooksLikeCode(text string) bool {
	if strings.HasPrefix(strings.TrimSpace(text), "```") {
		return true
	}
	for _, marker := range []string{"def ", "#include", "public class"} {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// StripBold removes markdown bold markers, keeping the enclosed text.
func StripBold(text string) string {
	return boldMarkers.ReplaceAllString(text, "$1")
}

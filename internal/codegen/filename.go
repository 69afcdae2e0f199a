package codegen

import (
	"regexp"
	"strings"
)

const (
	queryPrefixLen  = 20
	maxFilenameBase = 30
	defaultBase     = "program"
)

var (
	functionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bdef\s+(\w+)\s?\(`),
		regexp.MustCompile(`\bfunction\s+(\w+)\s*\(`),
	}
	classPattern = regexp.MustCompile(`\bclass\s+(\w+)\s?`)
)

// Filename derives an output filename for code generated for task.
// It prefers a function name, then a class name, then a prefix of the task text.
func Filename(code, ext, task string) string {
	base := ""
	for _, re := range functionPatterns {
		if m := re.FindStringSubmatch(code); m != nil {
			base = m[1]
			break
		}
	}
	if base == "" {
		if m := classPattern.FindStringSubmatch(code); m != nil {
			base = m[1]
		}
	}
	if base == "" {
		base = prefix(task, queryPrefixLen)
	}

	base = sanitize(base)
	if len(base) > maxFilenameBase {
		base = base[:maxFilenameBase]
	}
	if strings.Trim(base, "_") == "" {
		base = defaultBase
	}
	return base + ext
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

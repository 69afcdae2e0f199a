package codegen

import (
	"regexp"
	"strings"
)

// Language is a target programming language and the file extension used for it.
type Language struct {
	Name string
	Ext  string
}

type languageRule struct {
	pattern *regexp.Regexp
	lang    Language
}

// keywordPattern matches kw as a standalone token so "c" does not fire on
// "code" and "java" does not fire on "javascript". A trailing version number
// is allowed ("python3", "java8").
func keywordPattern(kw string) *regexp.Regexp {
	const (
		lead  = `[^a-z0-9+#]`
		trail = `[^a-z+#]`
	)
	return regexp.MustCompile(`(?:^|` + lead + `)` + regexp.QuoteMeta(kw) + `(?:$|` + trail + `)`)
}

var languages = []languageRule{
	{keywordPattern("python"), Language{Name: "python", Ext: ".py"}},
	{keywordPattern("c++"), Language{Name: "cpp", Ext: ".cpp"}},
	{keywordPattern("cpp"), Language{Name: "cpp", Ext: ".cpp"}},
	{keywordPattern("java"), Language{Name: "java", Ext: ".java"}},
	{keywordPattern("c"), Language{Name: "c", Ext: ".c"}},
	{keywordPattern("javascript"), Language{Name: "javascript", Ext: ".js"}},
	{keywordPattern("html"), Language{Name: "html", Ext: ".html"}},
}

// DetectLanguage returns the first known language mentioned in query.
func DetectLanguage(query string) (Language, bool) {
	lower := strings.ToLower(query)
	for _, rule := range languages {
		if rule.pattern.MatchString(lower) {
			return rule.lang, true
		}
	}
	return Language{}, false
}

// SplitTasks splits a compound request on the conjunction "and".
func SplitTasks(query string) []string {
	var tasks []string
	for _, part := range strings.Split(strings.ToLower(query), " and ") {
		if task := strings.TrimSpace(part); task != "" {
			tasks = append(tasks, task)
		}
	}
	return tasks
}

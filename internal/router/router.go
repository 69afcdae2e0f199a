// Package router classifies a query into the action Kai should take.
//
// Classification is an ordered list of keyword rules. The first rule whose
// predicate matches wins, so earlier rules shadow later ones on overlapping
// text ("open weather in paris" opens a site).
package router

import (
	"regexp"
	"strings"
)

type Kind int

const (
	Converse Kind = iota
	Exit
	GenerateCode
	OpenSite
	ReportTime
	ReportDate
	PlayMusic
	ReportWeather
)

var kindNames = map[Kind]string{
	Converse:      "converse",
	Exit:          "exit",
	GenerateCode:  "generate_code",
	OpenSite:      "open_site",
	ReportTime:    "report_time",
	ReportDate:    "report_date",
	PlayMusic:     "play_music",
	ReportWeather: "report_weather",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Action is the classified intent of a query. Target is set for OpenSite;
// City for ReportWeather.
type Action struct {
	Kind   Kind
	Query  string
	Target string
	City   string
}

// Rule maps a matching lower-cased query to an action.
type Rule struct {
	Name  string
	Match func(lower string) bool
	Build func(query string) Action
}

// ExitPhrases end the session when they make up the whole query.
var ExitPhrases = []string{"exit", "quit", "stop", "shutdown", "kai quit"}

var openWord = regexp.MustCompile(`(?i)open`)

// DefaultRules returns the rule table in priority order. City extraction is
// delegated to extractCity so the default city stays configurable.
func DefaultRules(extractCity func(query string) string) []Rule {
	return []Rule{
		{
			Name: "exit",
			Match: func(lower string) bool {
				trimmed := strings.TrimSpace(lower)
				for _, p := range ExitPhrases {
					if trimmed == p {
						return true
					}
				}
				return false
			},
			Build: simple(Exit),
		},
		{
			Name:  "generate_code",
			Match: containsAll("write a", "program"),
			Build: simple(GenerateCode),
		},
		{
			Name:  "open_site",
			Match: containsAny("open"),
			Build: func(query string) Action {
				return Action{Kind: OpenSite, Query: query, Target: strings.TrimSpace(openWord.ReplaceAllString(query, ""))}
			},
		},
		{
			Name:  "time",
			Match: containsAny("time"),
			Build: simple(ReportTime),
		},
		{
			Name:  "date",
			Match: containsAny("date"),
			Build: simple(ReportDate),
		},
		{
			Name:  "music",
			Match: containsAny("play music", "open music"),
			Build: simple(PlayMusic),
		},
		{
			Name:  "weather",
			Match: containsAny("weather in", "temperature in"),
			Build: func(query string) Action {
				return Action{Kind: ReportWeather, Query: query, City: extractCity(query)}
			},
		},
	}
}

type Router struct {
	rules []Rule
}

func New(rules []Rule) *Router {
	return &Router{rules: rules}
}

// Route returns the action of the first matching rule, or Converse.
func (r *Router) Route(query string) Action {
	lower := strings.ToLower(query)
	for _, rule := range r.rules {
		if rule.Match(lower) {
			return rule.Build(query)
		}
	}
	return Action{Kind: Converse, Query: query}
}

// RecencyKeywords mark a conversational query as needing live search.
var RecencyKeywords = []string{
	"latest", "recent", "news", "who won", "current", "today",
	"2024", "2025", "2026", "next", "yesterday", "tomorrow", "new",
}

// NeedsLiveSearch reports whether query asks about recent events.
func NeedsLiveSearch(query string) bool {
	return containsAny(RecencyKeywords...)(strings.ToLower(query))
}

func simple(k Kind) func(string) Action {
	return func(query string) Action {
		return Action{Kind: k, Query: query}
	}
}

func containsAny(subs ...string) func(string) bool {
	return func(lower string) bool {
		for _, s := range subs {
			if strings.Contains(lower, s) {
				return true
			}
		}
		return false
	}
}

func containsAll(subs ...string) func(string) bool {
	return func(lower string) bool {
		for _, s := range subs {
			if !strings.Contains(lower, s) {
				return false
			}
		}
		return true
	}
}

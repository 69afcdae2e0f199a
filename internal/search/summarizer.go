package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MikeSquared-Agency/kai/internal/chain"
)

const (
	NotFound   = "I couldn't find a clear answer for that."
	maxResults = 5
	promptTmpl = "Here are web search results:\n%s\n\nPlease format this into a natural-sounding response."
)

// Searcher is the search provider contract.
type Searcher interface {
	Search(ctx context.Context, query string, loc Locale) ([]Result, error)
}

// Asker rewrites a prompt into a reply and never fails.
type Asker interface {
	Ask(ctx context.Context, n chain.Notifier, prompt string) string
}

type Summarizer struct {
	searcher Searcher
	asker    Asker
	locale   Locale
	logger   *slog.Logger
}

func NewSummarizer(s Searcher, a Asker, loc Locale, logger *slog.Logger) *Summarizer {
	return &Summarizer{searcher: s, asker: a, locale: loc, logger: logger}
}

// Summarize searches for query and asks the AI chain to turn the top
// snippets into prose.
func (s *Summarizer) Summarize(ctx context.Context, n chain.Notifier, query string) string {
	results, err := s.searcher.Search(ctx, query, s.locale)
	if err != nil {
		s.logger.Error("web search failed", "query", query, "error", err)
		return NotFound
	}

	snippets := Snippets(results, maxResults)
	if len(snippets) == 0 {
		s.logger.Info("no organic results", "query", query)
		return NotFound
	}

	return s.asker.Ask(ctx, n, fmt.Sprintf(promptTmpl, strings.Join(snippets, "\n")))
}

// Snippets collects the distinct non-empty snippets of the first limit results.
func Snippets(results []Result, limit int) []string {
	if len(results) > limit {
		results = results[:limit]
	}
	seen := make(map[string]struct{}, len(results))
	var out []string
	for _, r := range results {
		snip := strings.TrimSpace(r.Snippet)
		if snip == "" {
			continue
		}
		if _, dup := seen[snip]; dup {
			continue
		}
		seen[snip] = struct{}{}
		out = append(out, snip)
	}
	return out
}

package query

import (
	"strings"

	"github.com/sakif/codesave/internal/model"
)

// MaxSuggestions caps the number of search suggestions.
const MaxSuggestions = 5

// Suggest returns up to MaxSuggestions completions for query: matching titles as
// written, and matching tags prefixed with "#". Order is first occurrence in
// snippets (titles before tags within a paste); duplicates are dropped.
func Suggest(snippets []model.Snippet, query string) []string {
	term := strings.ToLower(strings.TrimSpace(query))
	if term == "" {
		return []string{}
	}

	seen := make(map[string]struct{})
	out := make([]string, 0, MaxSuggestions)
	add := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	for _, s := range snippets {
		if strings.Contains(strings.ToLower(s.Title), term) {
			add(s.Title)
		}
		for _, tag := range s.Tags {
			if strings.Contains(strings.ToLower(tag), term) {
				add("#" + tag)
			}
		}
		if len(out) >= MaxSuggestions {
			break
		}
	}

	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

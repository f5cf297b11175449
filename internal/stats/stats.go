// Package stats derives dashboard numbers from a paste collection.
//
// All functions are pure and recompute from scratch on every call. An empty
// collection gives zero counts and empty slices, never an error.
package stats

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/sakif/codesave/internal/catalog"
	"github.com/sakif/codesave/internal/model"
)

// RecentWindow is the rolling window behind ThisWeekCount and community activity.
// It is a plain 7×24h window, unlike query.DateRangeWeek which is a calendar week.
const RecentWindow = 7 * 24 * time.Hour

// TotalCount returns the number of pastes.
func TotalCount(snippets []model.Snippet) int {
	return len(snippets)
}

// PublicCount returns the number of pastes that are not private.
func PublicCount(snippets []model.Snippet) int {
	return count(snippets, func(s model.Snippet) bool { return !s.IsPrivate })
}

// PrivateCount returns the number of private pastes.
func PrivateCount(snippets []model.Snippet) int {
	return count(snippets, func(s model.Snippet) bool { return s.IsPrivate })
}

// FavoriteCount returns the number of favorited pastes.
func FavoriteCount(snippets []model.Snippet) int {
	return count(snippets, func(s model.Snippet) bool { return s.IsFavorite })
}

// TotalViews sums the view counters.
func TotalViews(snippets []model.Snippet) int {
	total := 0
	for _, s := range snippets {
		total += max(s.Views, 0)
	}
	return total
}

// ThisWeekCount counts pastes created within RecentWindow before now.
func ThisWeekCount(snippets []model.Snippet, now time.Time) int {
	return count(snippets, func(s model.Snippet) bool { return createdWithin(s, now, RecentWindow) })
}

// LanguageHistogram maps each language tag to its paste count. Pastes without a
// language count as plain text. The full histogram is returned; see TopLanguages.
func LanguageHistogram(snippets []model.Snippet) map[string]int {
	hist := make(map[string]int)
	for _, s := range snippets {
		hist[languageOf(s)]++
	}
	return hist
}

// LanguageCount is one histogram bucket.
type LanguageCount struct {
	Language string `json:"language"`
	Name     string `json:"name"`
	Count    int    `json:"count"`
}

// TopLanguages orders a histogram by count (then tag) and keeps the first n.
// n <= 0 keeps everything.
func TopLanguages(hist map[string]int, n int) []LanguageCount {
	out := make([]LanguageCount, 0, len(hist))
	for lang, c := range hist {
		out = append(out, LanguageCount{Language: lang, Name: catalog.DisplayName(lang), Count: c})
	}
	slices.SortFunc(out, func(a, b LanguageCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Language, b.Language)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// TopByViews returns the n most viewed pastes with at least one view.
func TopByViews(snippets []model.Snippet, n int) []model.Snippet {
	viewed := make([]model.Snippet, 0, len(snippets))
	for _, s := range snippets {
		if s.Views > 0 {
			viewed = append(viewed, s)
		}
	}
	slices.SortStableFunc(viewed, func(a, b model.Snippet) int { return cmp.Compare(b.Views, a.Views) })
	return head(viewed, n)
}

// RecentActivity returns the n most recently created pastes.
func RecentActivity(snippets []model.Snippet, n int) []model.Snippet {
	recent := slices.Clone(snippets)
	slices.SortStableFunc(recent, func(a, b model.Snippet) int {
		return b.CreatedAt.Compare(a.CreatedAt.Time)
	})
	return head(recent, n)
}

func count(snippets []model.Snippet, pred func(model.Snippet) bool) int {
	n := 0
	for _, s := range snippets {
		if pred(s) {
			n++
		}
	}
	return n
}

func head(snippets []model.Snippet, n int) []model.Snippet {
	if snippets == nil {
		return []model.Snippet{}
	}
	if n >= 0 && len(snippets) > n {
		return snippets[:n]
	}
	return snippets
}

func languageOf(s model.Snippet) string {
	if s.Language == "" {
		return catalog.DefaultLanguage
	}
	return s.Language
}

// createdWithin reports whether s was created in (now-window, now].
// Timestamps in the future count as recent.
func createdWithin(s model.Snippet, now time.Time, window time.Duration) bool {
	if s.CreatedAt.IsZero() {
		return false
	}
	return now.Sub(s.CreatedAt.Time) <= window
}

// Package query filters, sorts and searches an in-memory paste collection.
//
// Every function here is pure: it borrows the caller's slice for the duration of
// the call, never mutates it, and returns a new slice. Invalid parameters fail
// open, meaning they are treated as "no restriction" or "default order" rather
// than rejected, because these functions back interactive filter controls where
// half-typed input is normal.
package query

import (
	"strings"
	"time"

	"github.com/sakif/codesave/internal/model"
)

// DateRange restricts results to pastes created in the current calendar period.
type DateRange string

// Date ranges. Weeks start on Sunday.
const (
	DateRangeToday DateRange = "today"
	DateRangeWeek  DateRange = "week"
	DateRangeMonth DateRange = "month"
	DateRangeYear  DateRange = "year"
)

// Filters are AND-ed together. The zero value restricts nothing.
type Filters struct {
	Language      string    // exact language tag; "" = any
	Privacy       *bool     // nil = any, otherwise isPrivate must equal *Privacy
	FavoritesOnly bool
	DateRange     DateRange // "" or unknown = any
}

// Bool returns a pointer to b, for Filters.Privacy.
func Bool(b bool) *bool {
	return &b
}

// Search returns the pastes matching query and filters, in input order.
// Date ranges are evaluated against the current time.
func Search(snippets []model.Snippet, query string, filters Filters) []model.Snippet {
	return SearchAt(snippets, query, filters, time.Now())
}

// SearchAt is Search with an explicit "now" for date ranges.
func SearchAt(snippets []model.Snippet, query string, filters Filters, now time.Time) []model.Snippet {
	term := strings.ToLower(strings.TrimSpace(query))

	out := make([]model.Snippet, 0, len(snippets))
	for _, s := range snippets {
		if term != "" && !MatchesText(s, term) {
			continue
		}
		if !filters.match(s, now) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// MatchesText reports whether the lower-cased term is a substring of the title,
// the content or any tag of s. term must already be lower-cased and trimmed.
func MatchesText(s model.Snippet, term string) bool {
	if strings.Contains(strings.ToLower(s.Title), term) ||
		strings.Contains(strings.ToLower(s.Content), term) {
		return true
	}
	for _, tag := range s.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

func (f Filters) match(s model.Snippet, now time.Time) bool {
	if f.Language != "" && s.Language != f.Language {
		return false
	}
	if f.Privacy != nil && s.IsPrivate != *f.Privacy {
		return false
	}
	if f.FavoritesOnly && !s.IsFavorite {
		return false
	}
	return f.DateRange.Contains(s.CreatedAt, now)
}

// Contains reports whether ts falls inside the calendar period r that contains now,
// using now's location. Unknown ranges contain everything; an unset timestamp
// is outside every known range.
func (r DateRange) Contains(ts model.Timestamp, now time.Time) bool {
	switch r {
	case DateRangeToday, DateRangeWeek, DateRangeMonth, DateRangeYear:
	default:
		return true
	}
	if ts.IsZero() {
		return false
	}

	t := ts.In(now.Location())
	ny, nm, nd := now.Date()
	ty, tm, td := t.Date()

	switch r {
	case DateRangeToday:
		return ny == ty && nm == tm && nd == td
	case DateRangeWeek:
		start := time.Date(ny, nm, nd-int(now.Weekday()), 0, 0, 0, 0, now.Location())
		end := start.AddDate(0, 0, 7)
		return !t.Before(start) && t.Before(end)
	case DateRangeMonth:
		return ny == ty && nm == tm
	default:
		return ny == ty
	}
}

package query

import (
	"cmp"
	"slices"
	"strings"

	"github.com/sakif/codesave/internal/model"
)

// SortBy selects the primary sort key.
type SortBy string

// Sort keys.
const (
	SortByDate      SortBy = "date"
	SortByTitle     SortBy = "title"
	SortByViews     SortBy = "views"
	SortByFavorites SortBy = "favorites"
)

// Order is the sort direction. Anything other than OrderAsc sorts descending.
type Order string

// Sort directions.
const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Sort returns a stably sorted copy of snippets.
//
// SortByFavorites ignores order: favorites always come first and ties inside
// each group are broken by createdAt, newest first. An unknown key returns the
// copy in input order.
func Sort(snippets []model.Snippet, by SortBy, order Order) []model.Snippet {
	out := slices.Clone(snippets)
	if out == nil {
		out = []model.Snippet{}
	}

	var compare func(a, b model.Snippet) int
	switch by {
	case SortByDate:
		compare = byCreatedAt
	case SortByTitle:
		compare = byTitle
	case SortByViews:
		compare = byViews
	case SortByFavorites:
		slices.SortStableFunc(out, favoritesFirst)
		return out
	default:
		return out
	}

	if order == OrderAsc {
		slices.SortStableFunc(out, compare)
	} else {
		slices.SortStableFunc(out, func(a, b model.Snippet) int { return compare(b, a) })
	}
	return out
}

func byCreatedAt(a, b model.Snippet) int {
	return a.CreatedAt.Compare(b.CreatedAt.Time)
}

func byUpdatedAt(a, b model.Snippet) int {
	return lastTouched(a).Compare(lastTouched(b).Time)
}

// lastTouched is updatedAt, or createdAt for pastes never edited.
func lastTouched(s model.Snippet) model.Timestamp {
	if s.UpdatedAt.IsZero() {
		return s.CreatedAt
	}
	return s.UpdatedAt
}

func byTitle(a, b model.Snippet) int {
	return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
}

func byViews(a, b model.Snippet) int {
	return cmp.Compare(max(a.Views, 0), max(b.Views, 0))
}

func favoritesFirst(a, b model.Snippet) int {
	if a.IsFavorite != b.IsFavorite {
		if a.IsFavorite {
			return -1
		}
		return 1
	}
	return byCreatedAt(b, a)
}

package query

import (
	"slices"
	"time"

	"github.com/sakif/codesave/internal/model"
)

// Selector values shared by the listing views.
const (
	AllLanguages        = "all"
	AllFolders          = "all"
	UncategorizedFolder = "uncategorized"
)

// CommunitySort orders the community feed.
type CommunitySort string

// Community sorts.
const (
	CommunityPopular   CommunitySort = "popular"
	CommunityNewest    CommunitySort = "newest"
	CommunityOldest    CommunitySort = "oldest"
	CommunityFavorites CommunitySort = "favorites"
)

// CommunityQuery describes a community feed request.
type CommunityQuery struct {
	Query    string
	Language string // "" or "all" = any
	Sort     CommunitySort
}

// Community returns the public pastes matching q. Private pastes never appear,
// whatever the other parameters say.
func Community(snippets []model.Snippet, q CommunityQuery) []model.Snippet {
	return CommunityAt(snippets, q, time.Now())
}

// CommunityAt is Community with an explicit "now".
func CommunityAt(snippets []model.Snippet, q CommunityQuery, now time.Time) []model.Snippet {
	filters := Filters{
		Language: languageFilter(q.Language),
		Privacy:  Bool(false),
	}
	found := SearchAt(snippets, q.Query, filters, now)

	switch q.Sort {
	case CommunityNewest:
		return Sort(found, SortByDate, OrderDesc)
	case CommunityOldest:
		return Sort(found, SortByDate, OrderAsc)
	case CommunityFavorites:
		return Sort(found, SortByFavorites, OrderDesc)
	default:
		return Sort(found, SortByViews, OrderDesc)
	}
}

// FilterType narrows the "my pastes" view.
type FilterType string

// Filter types. Unknown values behave like FilterAll.
const (
	FilterAll       FilterType = "all"
	FilterFavorites FilterType = "favorites"
	FilterPublic    FilterType = "public"
	FilterPrivate   FilterType = "private"
)

// ListSort orders the "my pastes" view.
type ListSort string

// List sorts. Unknown values behave like ListNewest.
const (
	ListNewest    ListSort = "newest"
	ListOldest    ListSort = "oldest"
	ListTitle     ListSort = "title"
	ListViews     ListSort = "views"
	ListUpdated   ListSort = "updated"
	ListFavorites ListSort = "favorites"
)

// MyPastesQuery describes a request for the owner's own collection.
type MyPastesQuery struct {
	Query      string
	Language   string // "" or "all" = any
	Folder     string // "" or "all" = any, "uncategorized" = no folder, otherwise a folder id
	FilterType FilterType
	Sort       ListSort
}

// MyPastes applies the filter type and folder selector on top of Search, then sorts.
func MyPastes(snippets []model.Snippet, q MyPastesQuery) []model.Snippet {
	return MyPastesAt(snippets, q, time.Now())
}

// MyPastesAt is MyPastes with an explicit "now".
func MyPastesAt(snippets []model.Snippet, q MyPastesQuery, now time.Time) []model.Snippet {
	filters := Filters{Language: languageFilter(q.Language)}
	switch q.FilterType {
	case FilterFavorites:
		filters.FavoritesOnly = true
	case FilterPublic:
		filters.Privacy = Bool(false)
	case FilterPrivate:
		filters.Privacy = Bool(true)
	}

	found := SearchAt(snippets, q.Query, filters, now)
	found = slices.DeleteFunc(found, func(s model.Snippet) bool {
		return !InFolder(s, q.Folder)
	})

	switch q.Sort {
	case ListOldest:
		return Sort(found, SortByDate, OrderAsc)
	case ListTitle:
		return Sort(found, SortByTitle, OrderAsc)
	case ListViews:
		return Sort(found, SortByViews, OrderDesc)
	case ListUpdated:
		out := slices.Clone(found)
		slices.SortStableFunc(out, func(a, b model.Snippet) int { return byUpdatedAt(b, a) })
		return out
	case ListFavorites:
		return Sort(found, SortByFavorites, OrderDesc)
	default:
		return Sort(found, SortByDate, OrderDesc)
	}
}

// InFolder reports whether s matches the folder selector.
func InFolder(s model.Snippet, selector string) bool {
	id, ok := s.Folder()
	switch selector {
	case "", AllFolders:
		return true
	case UncategorizedFolder:
		return !ok
	default:
		return ok && id == selector
	}
}

func languageFilter(lang string) string {
	if lang == AllLanguages {
		return ""
	}
	return lang
}

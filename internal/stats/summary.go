package stats

import (
	"time"

	"github.com/sakif/codesave/internal/catalog"
	"github.com/sakif/codesave/internal/model"
)

// Summary bundles the dashboard counters.
type Summary struct {
	Total     int            `json:"total"`
	Public    int            `json:"public"`
	Private   int            `json:"private"`
	Favorites int            `json:"favorites"`
	Views     int            `json:"views"`
	ThisWeek  int            `json:"thisWeek"`
	Languages map[string]int `json:"languages"`
}

// Summarize computes every Summary counter in one call.
func Summarize(snippets []model.Snippet, now time.Time) Summary {
	return Summary{
		Total:     TotalCount(snippets),
		Public:    PublicCount(snippets),
		Private:   PrivateCount(snippets),
		Favorites: FavoriteCount(snippets),
		Views:     TotalViews(snippets),
		ThisWeek:  ThisWeekCount(snippets, now),
		Languages: LanguageHistogram(snippets),
	}
}

// DayActivity is one bar of the views-over-time chart.
type DayActivity struct {
	Date   string `json:"date"` // YYYY-MM-DD, UTC
	Views  int    `json:"views"`
	Pastes int    `json:"pastes"`
}

// ViewsByDate buckets pastes by their UTC creation day over the last days days,
// ending today. Each bucket holds the number of pastes created that day and the
// views those pastes have collected. Buckets are oldest first.
func ViewsByDate(snippets []model.Snippet, now time.Time, days int) []DayActivity {
	if days <= 0 {
		return []DayActivity{}
	}

	today := now.UTC()
	out := make([]DayActivity, days)
	index := make(map[string]int, days)
	for i := range out {
		date := today.AddDate(0, 0, i-(days-1)).Format(time.DateOnly)
		out[i].Date = date
		index[date] = i
	}

	for _, s := range snippets {
		if s.CreatedAt.IsZero() {
			continue
		}
		i, ok := index[s.CreatedAt.UTC().Format(time.DateOnly)]
		if !ok {
			continue
		}
		out[i].Pastes++
		out[i].Views += max(s.Views, 0)
	}
	return out
}

// Community summarises the public feed.
type Community struct {
	TotalPastes    int    `json:"totalPastes"`
	TotalViews     int    `json:"totalViews"`
	TopLanguage    string `json:"topLanguage"`
	RecentActivity int    `json:"recentActivity"`
}

// CommunityStats computes the community header numbers over public pastes only.
// TopLanguage is the most used tag (on a tie, the one that reached the count
// first) and falls back to plain text for an empty feed.
func CommunityStats(snippets []model.Snippet, now time.Time) Community {
	public := make([]model.Snippet, 0, len(snippets))
	for _, s := range snippets {
		if !s.IsPrivate {
			public = append(public, s)
		}
	}

	top := catalog.DefaultLanguage
	best := 0
	counts := make(map[string]int)
	for _, s := range public {
		lang := languageOf(s)
		counts[lang]++
		if counts[lang] > best {
			best = counts[lang]
			top = lang
		}
	}

	return Community{
		TotalPastes: len(public),
		TotalViews:  TotalViews(public),
		TopLanguage: top,
		RecentActivity: count(public, func(s model.Snippet) bool {
			return createdWithin(s, now, RecentWindow)
		}),
	}
}

// Achievement is a profile badge.
type Achievement struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Earned      bool   `json:"earned"`
}

// Achievements evaluates the profile badges against a Summary.
func Achievements(s Summary) []Achievement {
	return []Achievement{
		{"First Paste", "Created your first paste", s.Total > 0},
		{"Popular Creator", "Received 100+ total views", s.Views >= 100},
		{"Prolific Writer", "Created 10+ pastes", s.Total >= 10},
		{"Community Favorite", "Have 5+ favorited pastes", s.Favorites >= 5},
		{"Public Sharer", "Made 5+ public pastes", s.Public >= 5},
		{"Code Master", "Created 25+ pastes", s.Total >= 25},
	}
}

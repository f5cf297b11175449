// Package catalog is the fixed language catalog: display name, color, icon,
// category and file extensions for every language tag a paste can carry.
//
// Lookups never fail. An unknown tag resolves to a generic default so that a
// paste imported from a newer or older backup still renders.
package catalog

import (
	"slices"
	"strings"
)

// Fallbacks for tags missing from the catalog.
const (
	UnknownName     = "Unknown"
	UnknownColor    = "#6b7280"
	UnknownIcon     = "📄"
	UnknownCategory = "Other"

	// DefaultLanguage is the tag for plain text and for undetectable files.
	DefaultLanguage = "text"
)

// Language describes one catalog entry.
type Language struct {
	Value      string   `json:"value"`
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
	Color      string   `json:"color"`
	Icon       string   `json:"icon"`
	Category   string   `json:"category"`
}

// languages is ordered; extension detection returns the first entry that claims
// an extension (".tsx" belongs to typescript before react).
var languages = []Language{
	{"javascript", "JavaScript", []string{".js", ".mjs", ".cjs"}, "#f7df1e", "⚡", "Web"},
	{"typescript", "TypeScript", []string{".ts", ".tsx"}, "#3178c6", "🔷", "Web"},
	{"python", "Python", []string{".py", ".pyw", ".pyi"}, "#3776ab", "🐍", "Backend"},
	{"java", "Java", []string{".java"}, "#ed8b00", "☕", "Backend"},
	{"cpp", "C++", []string{".cpp", ".cc", ".cxx"}, "#00599c", "⚙️", "System"},
	{"c", "C", []string{".c", ".h"}, "#a8b9cc", "🔧", "System"},
	{"html", "HTML", []string{".html", ".htm"}, "#e34f26", "🌐", "Web"},
	{"css", "CSS", []string{".css"}, "#1572b6", "🎨", "Web"},
	{"react", "React", []string{".jsx", ".tsx"}, "#61dafb", "⚛️", "Web"},
	{"vue", "Vue.js", []string{".vue"}, "#4fc08d", "💚", "Web"},
	{"php", "PHP", []string{".php", ".phtml"}, "#777bb4", "🐘", "Backend"},
	{"ruby", "Ruby", []string{".rb", ".rbw"}, "#cc342d", "💎", "Backend"},
	{"go", "Go", []string{".go"}, "#00add8", "🐹", "Backend"},
	{"rust", "Rust", []string{".rs"}, "#dea584", "🦀", "System"},
	{"swift", "Swift", []string{".swift"}, "#fa7343", "🍎", "Mobile"},
	{"kotlin", "Kotlin", []string{".kt", ".kts"}, "#7f52ff", "🤖", "Mobile"},
	{"dart", "Dart", []string{".dart"}, "#0175c2", "🎯", "Mobile"},
	{"sql", "SQL", []string{".sql"}, "#4479a1", "🗄️", "Database"},
	{"json", "JSON", []string{".json"}, "#292929", "📋", "Data"},
	{"xml", "XML", []string{".xml"}, "#0060ac", "📄", "Data"},
	{"yaml", "YAML", []string{".yml", ".yaml"}, "#cb171e", "📝", "Config"},
	{"markdown", "Markdown", []string{".md", ".markdown"}, "#083fa1", "📖", "Documentation"},
	{"bash", "Bash", []string{".sh", ".bash", ".zsh"}, "#4eaa25", "💻", "Script"},
	{DefaultLanguage, "Plain Text", []string{".txt"}, "#6b7280", "📝", "Text"},
}

var byValue = func() map[string]Language {
	m := make(map[string]Language, len(languages))
	for _, l := range languages {
		m[l.Value] = l
	}
	return m
}()

// All returns every catalog entry in catalog order.
func All() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// Lookup returns the entry for tag and whether it exists.
func Lookup(tag string) (Language, bool) {
	l, ok := byValue[tag]
	return l, ok
}

// DisplayName returns the human-readable name for tag.
func DisplayName(tag string) string {
	if l, ok := byValue[tag]; ok {
		return l.Name
	}
	return UnknownName
}

// Color returns the badge color for tag.
func Color(tag string) string {
	if l, ok := byValue[tag]; ok {
		return l.Color
	}
	return UnknownColor
}

// Icon returns the icon for tag.
func Icon(tag string) string {
	if l, ok := byValue[tag]; ok {
		return l.Icon
	}
	return UnknownIcon
}

// Category returns the category for tag.
func Category(tag string) string {
	if l, ok := byValue[tag]; ok {
		return l.Category
	}
	return UnknownCategory
}

// FileExtension returns the primary extension used when downloading a paste.
func FileExtension(tag string) string {
	if l, ok := byValue[tag]; ok && len(l.Extensions) > 0 {
		return l.Extensions[0]
	}
	return ".txt"
}

// DetectFromExtension maps a file extension (with or without the leading dot,
// any case) to a language tag. Unknown extensions map to DefaultLanguage.
func DetectFromExtension(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	for _, l := range languages {
		if slices.Contains(l.Extensions, ext) {
			return l.Value
		}
	}
	return DefaultLanguage
}

// DetectFromFilename detects the language from the extension of name.
func DetectFromFilename(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return DefaultLanguage
	}
	return DetectFromExtension(name[i:])
}

// Option is a catalog entry as shown in a language picker.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// ByCategory groups the catalog by category; each group is sorted by label.
func ByCategory() map[string][]Option {
	groups := make(map[string][]Option)
	for _, l := range languages {
		groups[l.Category] = append(groups[l.Category], Option{
			Value: l.Value,
			Label: l.Name,
			Color: l.Color,
			Icon:  l.Icon,
		})
	}
	for _, opts := range groups {
		slices.SortStableFunc(opts, func(a, b Option) int {
			return strings.Compare(strings.ToLower(a.Label), strings.ToLower(b.Label))
		})
	}
	return groups
}

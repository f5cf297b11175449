// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

// Folder fallback labels.
//
// A paste with no folder reference is "uncategorized"; a paste whose folder id
// points at a folder that no longer exists is a dangling reference. The two cases
// are shown differently so a broken reference is visible instead of silently
// looking like an uncategorized paste.
const (
	UncategorizedFolderName = "Uncategorized"
	UnknownFolderName       = "Unknown Folder"
)

// Snippet (a "paste") is a user-authored text record with language/privacy/tag metadata.
//
// The `json:"..."` tags define the stored and exported document shape, so renaming a
// tag is a breaking change for every existing backup file.
//
// Timestamps are set by the caller (the paste service), never by the query or stats
// packages, which only compare them.
type Snippet struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Language    string    `json:"language"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	IsPrivate   bool      `json:"isPrivate"`
	IsFavorite  bool      `json:"isFavorite"`
	FolderID    *string   `json:"folderId"`
	CreatedAt   Timestamp `json:"createdAt"`
	UpdatedAt   Timestamp `json:"updatedAt"`
	Views       int       `json:"views"`
	ExpiresAt   Timestamp `json:"expiresAt"` // stored only; nothing purges expired pastes
}

// Folder groups pastes. Folders are created on demand and never deleted automatically.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Folder returns the paste's folder id and whether it has one.
// A nil pointer and an empty string both mean "uncategorized".
func (s Snippet) Folder() (string, bool) {
	if s.FolderID == nil || *s.FolderID == "" {
		return "", false
	}
	return *s.FolderID, true
}

// Clone returns a deep copy so callers can hand snippets out without sharing
// the tag slice or folder pointer with the owner's collection.
func (s Snippet) Clone() Snippet {
	c := s
	c.Tags = make([]string, len(s.Tags))
	copy(c.Tags, s.Tags)
	if s.FolderID != nil {
		id := *s.FolderID
		c.FolderID = &id
	}
	return c
}

// FolderName resolves a folder reference for display.
func FolderName(folders []Folder, folderID *string) string {
	if folderID == nil || *folderID == "" {
		return UncategorizedFolderName
	}
	for _, f := range folders {
		if f.ID == *folderID {
			return f.Name
		}
	}
	return UnknownFolderName
}

// StringPtr returns a pointer to s, or nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package model

// Backup is the export document. Its JSON shape is the backup file format:
//
//	{"pastes": [...], "preferences": {...}, "user": {...}, "timestamp": "..."}
//
// Folders and the account registry are deliberately not part of a backup.
type Backup struct {
	Pastes      []Snippet   `json:"pastes"`
	Preferences Preferences `json:"preferences"`
	User        UserProfile `json:"user"`
	Timestamp   Timestamp   `json:"timestamp"`
}

package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/sakif/codesave/internal/model"
)

// backupFilenameLayout is the Go reference-time layout of a backup file name.
const backupFilenameLayout = "paste-app-backup-2006-01-02.json"

// Export collects the backup document from the stored state.
// Folders and the account registry are not part of a backup.
func (s *Store) Export(ctx context.Context) model.Backup {
	return model.Backup{
		Pastes:      s.LoadPastes(ctx),
		Preferences: s.LoadPreferences(ctx),
		User:        s.LoadUser(ctx),
		Timestamp:   model.NewTimestamp(s.now()),
	}
}

// ExportJSON renders Export as a 2-space-indented JSON document.
func (s *Store) ExportJSON(ctx context.Context) ([]byte, error) {
	data, err := json.MarshalIndent(s.Export(ctx), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding backup: %w", err)
	}
	return data, nil
}

// BackupFilename is the suggested download name for a backup taken at t.
func BackupFilename(t time.Time) string {
	return t.UTC().Format(backupFilenameLayout)
}

// importedKeys maps backup fields to the storage keys they overwrite.
var importedKeys = map[string]string{
	"pastes":      KeyPastes,
	"preferences": KeyPreferences,
	"user":        KeyUser,
}

// Import restores a backup document and reports whether it was applied.
//
// The document must be a JSON object. Each of "pastes", "preferences" and
// "user" that is present and not null replaces its stored document verbatim;
// absent fields leave storage untouched and unknown fields are ignored.
// All replacements are written in one repository transaction, so a failed
// write leaves every key as it was.
//
// The values are not shape-checked here. The Load* methods already tolerate
// whatever ends up stored.
func (s *Store) Import(ctx context.Context, data []byte) bool {
	var doc map[string]jsoniter.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
		if err == nil {
			err = errors.New("backup is not a JSON object")
		}
		s.logger.Error("failed to parse backup", slog.String("error", err.Error()))
		return false
	}

	docs := make(map[string][]byte, len(importedKeys))
	for field, key := range importedKeys {
		raw, ok := doc[field]
		if !ok {
			continue
		}
		// jsoniter decodes a null value to an empty RawMessage.
		value := bytes.TrimSpace(raw)
		if len(value) == 0 || bytes.Equal(value, []byte("null")) {
			continue
		}
		docs[key] = append([]byte(nil), value...)
	}
	if len(docs) == 0 {
		return true
	}

	if err := s.repo.PutAll(ctx, docs); err != nil {
		s.logger.Error("failed to import backup", slog.String("error", err.Error()))
		return false
	}

	s.logger.Info("backup imported", slog.Int("documents", len(docs)))
	return true
}

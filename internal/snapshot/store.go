// Package snapshot persists the workspace (pastes, folders, preferences, profile and
// the local account registry) as JSON documents in a repository.DocumentRepository,
// and turns it into / back from a single backup file.
//
// LOAD NEVER FAILS:
// Every Load* method returns a usable value. A missing key means "nothing saved yet"
// and yields the default; an unreadable document is logged and also yields the
// default. The workspace must always be able to start.
//
// SAVE NEVER FAILS EITHER (from the caller's point of view):
// Save* logs write failures and returns. The in-memory state stays authoritative
// and the next successful save catches the storage up.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/sakif/codesave/internal/apperror"
	"github.com/sakif/codesave/internal/catalog"
	"github.com/sakif/codesave/internal/model"
	"github.com/sakif/codesave/internal/repository"
)

// json behaves exactly like encoding/json (same tags, same escaping) but is faster.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Storage keys.
const (
	KeyPastes      = "pastes"
	KeyFolders     = "folders"
	KeyPreferences = "userPreferences"
	KeyUser        = "userData"
	KeyAccounts    = "users"
)

// Store reads and writes the workspace documents.
type Store struct {
	repo   repository.DocumentRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a Store over repo.
func NewStore(repo repository.DocumentRepository, logger *slog.Logger) *Store {
	return &Store{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// =========================================================================
// PASTES / FOLDERS / ACCOUNTS
// =========================================================================

// LoadPastes returns the stored pastes in stored order.
//
// Records are decoded one by one. A record that does not decode, or has no id
// (neither "id" nor the older "_id"), is skipped; when two records share an id
// the first one wins. Tags default to an empty list and the language to plain text.
func (s *Store) LoadPastes(ctx context.Context) []model.Snippet {
	records := s.loadRecords(ctx, KeyPastes)
	pastes := make([]model.Snippet, 0, len(records))
	seen := make(map[string]struct{}, len(records))

	for i, raw := range records {
		var p model.Snippet
		if err := json.Unmarshal(raw, &p); err != nil {
			s.skipRecord(KeyPastes, i, err)
			continue
		}
		if p.ID == "" {
			p.ID = legacyID(raw)
		}
		if p.ID == "" {
			s.skipRecord(KeyPastes, i, errors.New("missing id"))
			continue
		}
		if _, dup := seen[p.ID]; dup {
			s.skipRecord(KeyPastes, i, fmt.Errorf("duplicate id %s", p.ID))
			continue
		}
		seen[p.ID] = struct{}{}

		if p.Tags == nil {
			p.Tags = []string{}
		}
		if p.Language == "" {
			p.Language = catalog.DefaultLanguage
		}
		pastes = append(pastes, p)
	}
	return pastes
}

// SavePastes replaces the stored pastes.
func (s *Store) SavePastes(ctx context.Context, pastes []model.Snippet) {
	if pastes == nil {
		pastes = []model.Snippet{}
	}
	s.save(ctx, KeyPastes, pastes)
}

// LoadFolders returns the stored folders. Same record rules as LoadPastes,
// including the "_id" fallback.
func (s *Store) LoadFolders(ctx context.Context) []model.Folder {
	records := s.loadRecords(ctx, KeyFolders)
	folders := make([]model.Folder, 0, len(records))
	seen := make(map[string]struct{}, len(records))

	for i, raw := range records {
		var f model.Folder
		if err := json.Unmarshal(raw, &f); err != nil {
			s.skipRecord(KeyFolders, i, err)
			continue
		}
		if f.ID == "" {
			f.ID = legacyID(raw)
		}
		if f.ID == "" {
			s.skipRecord(KeyFolders, i, errors.New("missing id"))
			continue
		}
		if _, dup := seen[f.ID]; dup {
			s.skipRecord(KeyFolders, i, fmt.Errorf("duplicate id %s", f.ID))
			continue
		}
		seen[f.ID] = struct{}{}
		folders = append(folders, f)
	}
	return folders
}

// SaveFolders replaces the stored folders.
func (s *Store) SaveFolders(ctx context.Context, folders []model.Folder) {
	if folders == nil {
		folders = []model.Folder{}
	}
	s.save(ctx, KeyFolders, folders)
}

// LoadAccounts returns the local account registry. Accounts are keyed by username;
// records without one are skipped.
func (s *Store) LoadAccounts(ctx context.Context) []model.Account {
	records := s.loadRecords(ctx, KeyAccounts)
	accounts := make([]model.Account, 0, len(records))
	seen := make(map[string]struct{}, len(records))

	for i, raw := range records {
		var a model.Account
		if err := json.Unmarshal(raw, &a); err != nil {
			s.skipRecord(KeyAccounts, i, err)
			continue
		}
		if a.Username == "" {
			s.skipRecord(KeyAccounts, i, errors.New("missing username"))
			continue
		}
		if _, dup := seen[a.Username]; dup {
			s.skipRecord(KeyAccounts, i, fmt.Errorf("duplicate username %s", a.Username))
			continue
		}
		seen[a.Username] = struct{}{}
		accounts = append(accounts, a)
	}
	return accounts
}

// SaveAccounts replaces the account registry.
func (s *Store) SaveAccounts(ctx context.Context, accounts []model.Account) {
	if accounts == nil {
		accounts = []model.Account{}
	}
	s.save(ctx, KeyAccounts, accounts)
}

// =========================================================================
// PREFERENCES / PROFILE
// =========================================================================

// LoadPreferences merges the stored preferences over the defaults key by key.
// Keys the defaults do not know about are kept.
func (s *Store) LoadPreferences(ctx context.Context) model.Preferences {
	var stored map[string]any
	if !s.load(ctx, KeyPreferences, &stored) {
		return model.DefaultPreferences()
	}
	return model.MergePreferences(stored)
}

// SavePreferences replaces the stored preferences.
func (s *Store) SavePreferences(ctx context.Context, prefs model.Preferences) {
	if prefs == nil {
		prefs = model.Preferences{}
	}
	s.save(ctx, KeyPreferences, prefs)
}

// LoadUser merges the stored profile over the default user key by key.
//
// Decoding into a value that already holds the defaults does the merge: fields
// absent from the document are left alone.
func (s *Store) LoadUser(ctx context.Context) model.UserProfile {
	user := model.DefaultUser(s.now())
	merged := user
	if !s.load(ctx, KeyUser, &merged) {
		return user
	}
	return merged
}

// SaveUser replaces the stored profile.
func (s *Store) SaveUser(ctx context.Context, user model.UserProfile) {
	s.save(ctx, KeyUser, user)
}

// Clear deletes every stored document.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("clearing workspace: %w", err)
	}
	s.logger.Warn("workspace cleared")
	return nil
}

// =========================================================================
// HELPERS
// =========================================================================

// legacyID reads the "_id" key that older backups used instead of "id".
func legacyID(raw []byte) string {
	var legacy struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return ""
	}
	return legacy.ID
}

// loadRecords reads key as a JSON array without decoding its elements.
func (s *Store) loadRecords(ctx context.Context, key string) []jsoniter.RawMessage {
	var records []jsoniter.RawMessage
	if !s.load(ctx, key, &records) {
		return nil
	}
	return records
}

// load decodes the document under key into dst and reports whether it did.
// A missing key is silent; read and decode failures are logged.
//
// On a decode failure dst may be partially written, so callers must discard it
// when load returns false.
func (s *Store) load(ctx context.Context, key string, dst any) bool {
	data, err := s.repo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to read document",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Error("failed to decode document",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

func (s *Store) save(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode document",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := s.repo.Put(ctx, key, data); err != nil {
		s.logger.Error("failed to write document",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Store) skipRecord(key string, index int, err error) {
	s.logger.Warn("skipping stored record",
		slog.String("key", key),
		slog.Int("index", index),
		slog.String("error", err.Error()),
	)
}

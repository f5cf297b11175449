// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Store   (Data layer)     → reads/writes the workspace documents
//
// Services never see HTTP types and never see SQL. They depend on small
// interfaces (PasteStore, AccountStore) that snapshot.Store satisfies, so tests
// can hand in an in-memory fake.
//
// ONE WORKSPACE PER PROCESS:
// PasteService keeps the whole paste collection in memory and writes it back
// after every mutation. A mutex serialises mutations; reads take a read lock and
// get copies, so callers can never alias the live collection.
package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/codesave/internal/apperror"
	"github.com/sakif/codesave/internal/catalog"
	"github.com/sakif/codesave/internal/model"
	"github.com/sakif/codesave/internal/query"
	"github.com/sakif/codesave/internal/stats"
	"github.com/sakif/codesave/internal/validate"
)

// Dashboard list sizes.
const (
	DashboardTopLanguages = 5
	DashboardTopViewed    = 5
	DashboardRecent       = 5
	AnalyticsDays         = 30
)

// PasteStore is the persistence the paste workspace needs.
type PasteStore interface {
	LoadPastes(ctx context.Context) []model.Snippet
	SavePastes(ctx context.Context, pastes []model.Snippet)
	LoadFolders(ctx context.Context) []model.Folder
	SaveFolders(ctx context.Context, folders []model.Folder)
	LoadPreferences(ctx context.Context) model.Preferences
	Import(ctx context.Context, data []byte) bool
	Clear(ctx context.Context) error
}

// PasteInput carries the editable fields of a paste.
//
// Tags is the raw comma-separated form value (see ParseTags). A nil IsPrivate
// means "use the defaultPrivacy preference" on create and "leave as is" on update.
type PasteInput struct {
	Title       string
	Content     string
	Language    string
	Description string
	Tags        string
	IsPrivate   *bool
	FolderID    *string
	ExpiresAt   model.Timestamp
}

// UploadedFile is one file dropped into the create form.
type UploadedFile struct {
	Name    string
	Content string
}

// PasteService owns the in-memory paste collection and the folder list.
type PasteService struct {
	store  PasteStore
	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	mu      sync.RWMutex
	pastes  []model.Snippet // newest first
	folders []model.Folder
}

// NewPasteService creates a PasteService. Call Load before serving requests.
func NewPasteService(store PasteStore, logger *slog.Logger) *PasteService {
	return &PasteService{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return xid.New().String() },
	}
}

// Load replaces the in-memory state with what the store holds.
func (s *PasteService) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)
}

// Import restores a backup document and reloads the workspace from it.
// It reports false when the document was rejected; nothing changes then.
//
// The write and the reload happen under one lock, so a concurrent mutation
// cannot save the pre-import collection over the restored one.
func (s *PasteService) Import(ctx context.Context, data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.Import(ctx, data) {
		return false
	}
	s.loadLocked(ctx)
	return true
}

// loadLocked must be called with s.mu held.
func (s *PasteService) loadLocked(ctx context.Context) {
	s.pastes = s.store.LoadPastes(ctx)
	s.folders = s.store.LoadFolders(ctx)

	s.logger.Info("workspace loaded",
		slog.Int("pastes", len(s.pastes)),
		slog.Int("folders", len(s.folders)),
	)
}

// =========================================================================
// CREATE
// =========================================================================

// Create validates in and adds a new paste at the front of the collection.
func (s *PasteService) Create(ctx context.Context, in PasteInput) (model.Snippet, error) {
	tags := ParseTags(in.Tags)
	if err := validateInput(in, tags); err != nil {
		return model.Snippet{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkFolder(in.FolderID); err != nil {
		return model.Snippet{}, err
	}

	now := model.NewTimestamp(s.now())
	p := model.Snippet{
		ID:          s.newID(),
		Title:       strings.TrimSpace(in.Title),
		Content:     strings.TrimSpace(in.Content),
		Language:    languageOrDefault(in.Language),
		Description: strings.TrimSpace(in.Description),
		Tags:        tags,
		IsPrivate:   s.privacy(ctx, in.IsPrivate),
		FolderID:    folderRef(in.FolderID),
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   in.ExpiresAt,
	}

	s.pastes = slices.Insert(s.pastes, 0, p)
	s.store.SavePastes(ctx, s.pastes)

	s.logger.Info("paste created",
		slog.String("id", p.ID),
		slog.String("language", p.Language),
		slog.Bool("private", p.IsPrivate),
	)
	return p.Clone(), nil
}

// Upload creates one paste per file. Title is the file name, the language is
// detected from its extension, and tags, privacy, folder and expiry come from
// shared. Either every file becomes a paste or none does.
func (s *PasteService) Upload(ctx context.Context, files []UploadedFile, shared PasteInput) ([]model.Snippet, error) {
	tags := ParseTags(shared.Tags)
	for _, tag := range tags {
		if r := validate.Tag(tag); !r.IsValid {
			return nil, apperror.ValidationFailed("tags", r.Error)
		}
	}
	for _, f := range files {
		if strings.TrimSpace(f.Name) == "" {
			return nil, apperror.ValidationFailed("file", "File name is required")
		}
		if r := validate.Title(f.Name); !r.IsValid {
			return nil, apperror.ValidationFailed("title", f.Name+": "+r.Error)
		}
		if r := validate.Content(f.Content); !r.IsValid {
			return nil, apperror.ValidationFailed("content", f.Name+": "+r.Error)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkFolder(shared.FolderID); err != nil {
		return nil, err
	}

	now := model.NewTimestamp(s.now())
	private := s.privacy(ctx, shared.IsPrivate)
	created := make([]model.Snippet, 0, len(files))
	for _, f := range files {
		created = append(created, model.Snippet{
			ID:          s.newID(),
			Title:       strings.TrimSpace(f.Name),
			Content:     f.Content,
			Language:    catalog.DetectFromFilename(f.Name),
			Description: "Uploaded file: " + f.Name,
			Tags:        slices.Clone(tags),
			IsPrivate:   private,
			FolderID:    folderRef(shared.FolderID),
			CreatedAt:   now,
			UpdatedAt:   now,
			ExpiresAt:   shared.ExpiresAt,
		})
	}
	if len(created) == 0 {
		return created, nil
	}

	// Newest first: the last file ends up on top, as if created one by one.
	for _, p := range created {
		s.pastes = slices.Insert(s.pastes, 0, p)
	}
	s.store.SavePastes(ctx, s.pastes)

	s.logger.Info("files uploaded", slog.Int("count", len(created)))
	return cloneAll(created), nil
}

// =========================================================================
// READ
// =========================================================================

// Get returns the paste with id without counting a view.
func (s *PasteService) Get(_ context.Context, id string) (model.Snippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, err := s.indexOf(id)
	if err != nil {
		return model.Snippet{}, err
	}
	return s.pastes[i].Clone(), nil
}

// View returns the paste with id and counts one view.
func (s *PasteService) View(ctx context.Context, id string) (model.Snippet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexOf(id)
	if err != nil {
		return model.Snippet{}, err
	}
	s.pastes[i].Views++
	s.store.SavePastes(ctx, s.pastes)
	return s.pastes[i].Clone(), nil
}

// List returns every paste, newest first.
func (s *PasteService) List() []model.Snippet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.pastes)
}

// MyPastes runs the owner's listing view over the collection.
func (s *PasteService) MyPastes(q query.MyPastesQuery) []model.Snippet {
	return query.MyPastesAt(s.List(), q, s.now())
}

// Community runs the public feed over the collection.
func (s *PasteService) Community(q query.CommunityQuery) []model.Snippet {
	return query.CommunityAt(s.List(), q, s.now())
}

// Search filters the collection.
func (s *PasteService) Search(text string, filters query.Filters) []model.Snippet {
	return query.SearchAt(s.List(), text, filters, s.now())
}

// Suggest returns search-box completions.
func (s *PasteService) Suggest(text string) []string {
	return query.Suggest(s.List(), text)
}

// =========================================================================
// UPDATE / DELETE
// =========================================================================

// Update replaces the editable fields of the paste with id. id, createdAt,
// views and the favorite flag are kept; updatedAt becomes now.
func (s *PasteService) Update(ctx context.Context, id string, in PasteInput) (model.Snippet, error) {
	tags := ParseTags(in.Tags)
	if err := validateInput(in, tags); err != nil {
		return model.Snippet{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexOf(id)
	if err != nil {
		return model.Snippet{}, err
	}
	// The current folder may be kept even when it no longer exists; only a
	// newly chosen one is checked.
	if !sameFolder(s.pastes[i].FolderID, in.FolderID) {
		if err := s.checkFolder(in.FolderID); err != nil {
			return model.Snippet{}, err
		}
	}

	p := &s.pastes[i]
	p.Title = strings.TrimSpace(in.Title)
	p.Content = strings.TrimSpace(in.Content)
	p.Language = languageOrDefault(in.Language)
	p.Description = strings.TrimSpace(in.Description)
	p.Tags = tags
	if in.IsPrivate != nil {
		p.IsPrivate = *in.IsPrivate
	}
	p.FolderID = folderRef(in.FolderID)
	p.ExpiresAt = in.ExpiresAt
	p.UpdatedAt = model.NewTimestamp(s.now())

	s.store.SavePastes(ctx, s.pastes)

	s.logger.Info("paste updated", slog.String("id", id))
	return p.Clone(), nil
}

// ToggleFavorite flips the favorite flag. updatedAt is not touched: starring a
// paste is not an edit.
func (s *PasteService) ToggleFavorite(ctx context.Context, id string) (model.Snippet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexOf(id)
	if err != nil {
		return model.Snippet{}, err
	}
	s.pastes[i].IsFavorite = !s.pastes[i].IsFavorite
	s.store.SavePastes(ctx, s.pastes)
	return s.pastes[i].Clone(), nil
}

// Delete removes the paste with id.
func (s *PasteService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexOf(id)
	if err != nil {
		return err
	}
	s.pastes = slices.Delete(s.pastes, i, i+1)
	s.store.SavePastes(ctx, s.pastes)

	s.logger.Info("paste deleted", slog.String("id", id))
	return nil
}

// ClearAll wipes every stored document (pastes, folders, preferences, profile,
// accounts) and empties the in-memory collection.
func (s *PasteService) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		s.logger.Error("failed to clear workspace", slog.String("error", err.Error()))
		return err
	}
	s.pastes = nil
	s.folders = nil
	return nil
}

// =========================================================================
// FOLDERS
// =========================================================================

// CreateFolder adds a folder named name (trimmed, non-empty).
func (s *PasteService) CreateFolder(ctx context.Context, name string) (model.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Folder{}, apperror.ValidationFailed("name", "Folder name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f := model.Folder{ID: s.newID(), Name: name}
	s.folders = append(s.folders, f)
	s.store.SaveFolders(ctx, s.folders)

	s.logger.Info("folder created", slog.String("id", f.ID), slog.String("name", f.Name))
	return f, nil
}

// Folders returns every folder in creation order.
func (s *PasteService) Folders() []model.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.folders)
}

// FolderName resolves a paste's folder reference for display.
func (s *PasteService) FolderName(id *string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.FolderName(s.folders, id)
}

// =========================================================================
// STATS
// =========================================================================

// Dashboard is everything the dashboard and analytics pages show.
type Dashboard struct {
	Summary      stats.Summary         `json:"summary"`
	TopLanguages []stats.LanguageCount `json:"topLanguages"`
	MostViewed   []model.Snippet       `json:"mostViewed"`
	Recent       []model.Snippet       `json:"recent"`
	ViewsByDate  []stats.DayActivity   `json:"viewsByDate"`
	Achievements []stats.Achievement   `json:"achievements"`
}

// Stats returns the dashboard counters.
func (s *PasteService) Stats() stats.Summary {
	return stats.Summarize(s.List(), s.now())
}

// Dashboard computes the full dashboard over one consistent snapshot.
func (s *PasteService) Dashboard() Dashboard {
	pastes := s.List()
	now := s.now()
	summary := stats.Summarize(pastes, now)

	return Dashboard{
		Summary:      summary,
		TopLanguages: stats.TopLanguages(summary.Languages, DashboardTopLanguages),
		MostViewed:   stats.TopByViews(pastes, DashboardTopViewed),
		Recent:       stats.RecentActivity(pastes, DashboardRecent),
		ViewsByDate:  stats.ViewsByDate(pastes, now, AnalyticsDays),
		Achievements: stats.Achievements(summary),
	}
}

// CommunityStats returns the community feed header numbers.
func (s *PasteService) CommunityStats() stats.Community {
	return stats.CommunityStats(s.List(), s.now())
}

// =========================================================================
// HELPERS
// =========================================================================

// ParseTags splits a comma-separated tag list, trims every entry and drops
// empty ones. It never returns nil.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func validateInput(in PasteInput, tags []string) error {
	if fr, ok := validate.Snippet(in.Title, in.Content, tags); !ok {
		return apperror.ValidationFailed(fr.Field, fr.Error)
	}
	return nil
}

// indexOf must be called with s.mu held.
func (s *PasteService) indexOf(id string) (int, error) {
	i := slices.IndexFunc(s.pastes, func(p model.Snippet) bool { return p.ID == id })
	if i < 0 {
		return -1, apperror.NotFound("paste", id)
	}
	return i, nil
}

// checkFolder rejects a reference to a folder that does not exist. Must be
// called with s.mu held.
func (s *PasteService) checkFolder(id *string) error {
	if id == nil || *id == "" {
		return nil
	}
	if !slices.ContainsFunc(s.folders, func(f model.Folder) bool { return f.ID == *id }) {
		return apperror.ValidationFailed("folderId", "Folder does not exist")
	}
	return nil
}

func sameFolder(current, next *string) bool {
	a, _ := model.Snippet{FolderID: current}.Folder()
	b, _ := model.Snippet{FolderID: next}.Folder()
	return a == b
}

func (s *PasteService) privacy(ctx context.Context, explicit *bool) bool {
	if explicit != nil {
		return *explicit
	}
	return s.store.LoadPreferences(ctx).PrivateByDefault()
}

func languageOrDefault(lang string) string {
	if lang = strings.TrimSpace(lang); lang != "" {
		return lang
	}
	return catalog.DefaultLanguage
}

// folderRef copies a folder reference, normalising "" to nil.
func folderRef(id *string) *string {
	if id == nil {
		return nil
	}
	return model.StringPtr(*id)
}

func cloneAll(pastes []model.Snippet) []model.Snippet {
	out := make([]model.Snippet, len(pastes))
	for i, p := range pastes {
		out[i] = p.Clone()
	}
	return out
}

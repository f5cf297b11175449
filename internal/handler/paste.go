package handler

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/codesave/internal/catalog"
	"github.com/sakif/codesave/internal/model"
	"github.com/sakif/codesave/internal/query"
	"github.com/sakif/codesave/internal/service"
)

// Upload limits. The create form accepts a handful of source files, not archives.
const (
	maxUploadBytes = 10 << 20
	maxUploadFiles = 20
)

// PasteHandler serves the paste workspace: CRUD, uploads, downloads,
// search and the listing views.
//
// DEPENDENCY CHAIN:
//   - pastes *service.PasteService → owns the collection; the handler never touches storage
type PasteHandler struct {
	pastes *service.PasteService
	logger *slog.Logger
}

// NewPasteHandler creates a PasteHandler.
func NewPasteHandler(pastes *service.PasteService, logger *slog.Logger) *PasteHandler {
	return &PasteHandler{pastes: pastes, logger: logger}
}

// tagList accepts tags either as the form's comma-separated string or as a
// JSON array, and keeps the comma-separated form for service.ParseTags.
type tagList string

func (t *tagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var tags []string
		if err := json.Unmarshal(data, &tags); err != nil {
			return err
		}
		*t = tagList(strings.Join(tags, ","))
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = tagList(s)
	return nil
}

// pasteRequest is the JSON body of create and update.
type pasteRequest struct {
	Title       string          `json:"title"`
	Content     string          `json:"content"`
	Language    string          `json:"language"`
	Description string          `json:"description"`
	Tags        tagList         `json:"tags"`
	IsPrivate   *bool           `json:"isPrivate"`
	FolderID    *string         `json:"folderId"`
	ExpiresAt   model.Timestamp `json:"expiresAt"`
}

func (p pasteRequest) input() service.PasteInput {
	return service.PasteInput{
		Title:       p.Title,
		Content:     p.Content,
		Language:    p.Language,
		Description: p.Description,
		Tags:        string(p.Tags),
		IsPrivate:   p.IsPrivate,
		FolderID:    p.FolderID,
		ExpiresAt:   p.ExpiresAt,
	}
}

// =========================================================================
// CRUD
// =========================================================================

// HandleList returns the owner's pastes, filtered and sorted.
//
// HTTP: GET /api/pastes?q=&language=&folder=&filter=&sort=
//
// Unknown filter or sort values fall back to "all" and "newest".
func (h *PasteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pastes := h.pastes.MyPastes(query.MyPastesQuery{
		Query:      q.Get("q"),
		Language:   q.Get("language"),
		Folder:     q.Get("folder"),
		FilterType: query.FilterType(q.Get("filter")),
		Sort:       query.ListSort(q.Get("sort")),
	})
	writeJSON(w, http.StatusOK, pastes)
}

// HandleCreate saves a new paste.
//
// HTTP: POST /api/pastes
// REQUEST BODY: {"title": "...", "content": "...", "language": "go", "tags": "a, b"}
func (h *PasteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req pasteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid paste JSON", slog.String("error", err.Error()))
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	paste, err := h.pastes.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, paste)
}

// HandleGetByID returns one paste without counting a view.
//
// HTTP: GET /api/pastes/{id}
func (h *PasteHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	paste, err := h.pastes.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paste)
}

// HandleView counts a view and returns the paste.
//
// HTTP: POST /api/pastes/{id}/view
//
// Kept separate from GET so that prefetches and the edit form don't inflate counts.
func (h *PasteHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	paste, err := h.pastes.View(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paste)
}

// HandleUpdate replaces the editable fields of a paste.
//
// HTTP: PUT /api/pastes/{id}
func (h *PasteHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req pasteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid paste JSON", slog.String("error", err.Error()))
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	paste, err := h.pastes.Update(r.Context(), r.PathValue("id"), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paste)
}

// HandleToggleFavorite flips the favorite flag.
//
// HTTP: POST /api/pastes/{id}/favorite
func (h *PasteHandler) HandleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	paste, err := h.pastes.ToggleFavorite(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paste)
}

// HandleDelete removes a paste.
//
// HTTP: DELETE /api/pastes/{id}
func (h *PasteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.pastes.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleClearAll wipes the whole workspace: pastes, folders, preferences,
// profile and the account registry.
//
// HTTP: DELETE /api/pastes
func (h *PasteHandler) HandleClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.pastes.ClearAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "All data cleared"})
}

// =========================================================================
// UPLOAD / DOWNLOAD
// =========================================================================

// HandleUpload turns every uploaded file into a paste.
//
// HTTP: POST /api/pastes/upload (multipart/form-data)
// FORM FIELDS:
//   - files      one or more files
//   - tags       comma-separated, applied to every paste
//   - isPrivate  "true"/"false"; absent means the defaultPrivacy preference
//   - folderId   optional folder for every paste
func (h *PasteHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.logger.Warn("invalid upload", slog.String("error", err.Error()))
		writeBadRequest(w, "Invalid upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeBadRequest(w, "No files uploaded")
		return
	}
	if len(headers) > maxUploadFiles {
		writeBadRequest(w, fmt.Sprintf("At most %d files per upload", maxUploadFiles))
		return
	}

	files := make([]service.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeError(w, fmt.Errorf("opening upload %s: %w", fh.Filename, err))
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, fmt.Errorf("reading upload %s: %w", fh.Filename, err))
			return
		}
		files = append(files, service.UploadedFile{Name: fh.Filename, Content: string(content)})
	}

	shared := service.PasteInput{Tags: r.FormValue("tags")}
	if v := r.FormValue("isPrivate"); v != "" {
		private := v == "true"
		shared.IsPrivate = &private
	}
	if v := r.FormValue("folderId"); v != "" {
		shared.FolderID = &v
	}

	created, err := h.pastes.Upload(r.Context(), files, shared)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleRaw downloads the paste content as a file named after the title.
//
// HTTP: GET /api/pastes/{id}/raw
func (h *PasteHandler) HandleRaw(w http.ResponseWriter, r *http.Request) {
	paste, err := h.pastes.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", DownloadFilename(paste)))
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, paste.Content); err != nil {
		h.logger.Warn("writing raw paste", slog.String("id", paste.ID), slog.String("error", err.Error()))
	}
}

// DownloadFilename is the lower-cased title with every character outside
// [a-z0-9] replaced by "_", plus the language's primary extension.
func DownloadFilename(p model.Snippet) string {
	name := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, strings.ToLower(p.Title))
	return name + catalog.FileExtension(p.Language)
}

// =========================================================================
// SEARCH AND FEEDS
// =========================================================================

// HandleSearch runs a free-text search with optional filters.
//
// HTTP: GET /api/search?q=&language=&privacy=public|private&favorites=true&dateRange=today|week|month|year
func (h *PasteHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := query.Filters{
		Language:      q.Get("language"),
		FavoritesOnly: q.Get("favorites") == "true",
		DateRange:     query.DateRange(q.Get("dateRange")),
	}
	switch q.Get("privacy") {
	case "public":
		filters.Privacy = query.Bool(false)
	case "private":
		filters.Privacy = query.Bool(true)
	}

	writeJSON(w, http.StatusOK, h.pastes.Search(q.Get("q"), filters))
}

// HandleSuggest returns search-box suggestions.
//
// HTTP: GET /api/search/suggest?q=
func (h *PasteHandler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.pastes.Suggest(r.URL.Query().Get("q")))
}

// HandleCommunity returns the public feed. Private pastes never appear.
//
// HTTP: GET /api/community?q=&language=&sort=popular|newest|oldest|favorites
func (h *PasteHandler) HandleCommunity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, h.pastes.Community(query.CommunityQuery{
		Query:    q.Get("q"),
		Language: q.Get("language"),
		Sort:     query.CommunitySort(q.Get("sort")),
	}))
}

// HandleCommunityStats returns the community header numbers.
//
// HTTP: GET /api/community/stats
func (h *PasteHandler) HandleCommunityStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.pastes.CommunityStats())
}

// HandleDashboard returns the dashboard and analytics data.
//
// HTTP: GET /api/dashboard
func (h *PasteHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.pastes.Dashboard())
}

// HandleStats returns just the counters (profile page).
//
// HTTP: GET /api/stats
func (h *PasteHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.pastes.Stats())
}

// =========================================================================
// FOLDERS AND LANGUAGES
// =========================================================================

type folderRequest struct {
	Name string `json:"name"`
}

// HandleListFolders returns every folder.
//
// HTTP: GET /api/folders
func (h *PasteHandler) HandleListFolders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.pastes.Folders())
}

// HandleCreateFolder adds a folder.
//
// HTTP: POST /api/folders
// REQUEST BODY: {"name": "Work"}
func (h *PasteHandler) HandleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req folderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	folder, err := h.pastes.CreateFolder(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, folder)
}

// LanguagesResponse is the language picker data.
type LanguagesResponse struct {
	Languages  []catalog.Language          `json:"languages"`
	Categories map[string][]catalog.Option `json:"categories"`
}

// HandleLanguages returns the language catalog, flat and grouped by category.
//
// HTTP: GET /api/languages
func HandleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LanguagesResponse{
		Languages:  catalog.All(),
		Categories: catalog.ByCategory(),
	})
}

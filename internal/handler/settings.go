package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/codesave/internal/apperror"
	"github.com/sakif/codesave/internal/service"
	"github.com/sakif/codesave/internal/snapshot"
)

// maxBackupBytes caps an uploaded backup document.
const maxBackupBytes = 32 << 20

// BackupStore is the part of snapshot.Store the export endpoint uses.
// Imports go through PasteService so the workspace reloads under its lock.
type BackupStore interface {
	ExportJSON(ctx context.Context) ([]byte, error)
}

// SettingsHandler serves the settings and profile pages: preferences,
// profile edits and backup export/import.
//
// DEPENDENCY CHAIN:
//   - accounts *service.AccountService → profile and preferences
//   - pastes   *service.PasteService   → applies imports and reloads
//   - backups  BackupStore             → the export document
type SettingsHandler struct {
	accounts *service.AccountService
	pastes   *service.PasteService
	backups  BackupStore
	logger   *slog.Logger
	now      func() time.Time
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(
	accounts *service.AccountService,
	pastes *service.PasteService,
	backups BackupStore,
	logger *slog.Logger,
) *SettingsHandler {
	return &SettingsHandler{
		accounts: accounts,
		pastes:   pastes,
		backups:  backups,
		logger:   logger,
		now:      time.Now,
	}
}

// =========================================================================
// PREFERENCES
// =========================================================================

// HandleGetPreferences returns the merged preference bag.
//
// HTTP: GET /api/preferences
func (h *SettingsHandler) HandleGetPreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.accounts.Preferences(r.Context()))
}

// HandleUpdatePreferences patches preferences key by key.
//
// HTTP: PATCH /api/preferences
// REQUEST BODY: {"darkMode": true}
func (h *SettingsHandler) HandleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := decodeJSON(w, r, &patch); err != nil || patch == nil {
		writeBadRequest(w, "Preferences must be a JSON object")
		return
	}
	writeJSON(w, http.StatusOK, h.accounts.UpdatePreferences(r.Context(), patch))
}

// HandleResetPreferences restores the defaults.
//
// HTTP: DELETE /api/preferences
func (h *SettingsHandler) HandleResetPreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.accounts.ResetPreferences(r.Context()))
}

// =========================================================================
// PROFILE
// =========================================================================

type profileRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Avatar   *string `json:"avatar"`
	Bio      *string `json:"bio"`
	Location *string `json:"location"`
	Website  *string `json:"website"`
}

// HandleGetProfile returns the stored profile.
//
// HTTP: GET /api/profile
func (h *SettingsHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.accounts.Profile(r.Context()))
}

// HandleUpdateProfile edits the profile. Omitted fields are left alone and the
// username cannot be changed.
//
// HTTP: PUT /api/profile
func (h *SettingsHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	profile, err := h.accounts.UpdateProfile(r.Context(), service.ProfileUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Avatar:   req.Avatar,
		Bio:      req.Bio,
		Location: req.Location,
		Website:  req.Website,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// =========================================================================
// BACKUP
// =========================================================================

// HandleExport downloads the backup document.
//
// HTTP: GET /api/backup
func (h *SettingsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	data, err := h.backups.ExportJSON(r.Context())
	if err != nil {
		h.logger.Error("export failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+snapshot.BackupFilename(h.now())+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("writing backup", slog.String("error", err.Error()))
	}
}

// HandleImport restores a backup document sent as the request body.
//
// HTTP: POST /api/backup
//
// An invalid document changes nothing and answers 400. On success the paste
// workspace is reloaded so the imported pastes are served immediately.
func (h *SettingsHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBackupBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeBadRequest(w, "Backup file too large")
			return
		}
		h.logger.Warn("reading backup", slog.String("error", err.Error()))
		writeBadRequest(w, "Could not read backup file")
		return
	}

	if !h.pastes.Import(r.Context(), data) {
		writeError(w, apperror.ValidationFailed("backup", "Invalid backup file"))
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Data imported successfully"})
}

package controllers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"gametracker/internal/models"
	"gametracker/internal/services"
	"gametracker/internal/storage"
	"gametracker/internal/storage/backups"

	"github.com/go-chi/chi/v5"
)

type LibraryServicer interface {
	List() ([]models.SavedGame, error)
	Pinned() ([]models.SavedGame, error)
	Save(g *models.SavedGame) (*models.SavedGame, error)
	Remove(id int64) error
	MarkChecked(id int64) error
	TogglePin(id int64) (bool, error)
	Preferences() (*models.Preferences, error)
	UpdatePreferences(upd services.PreferencesUpdate) (*models.Preferences, error)
	Export() (*models.ExportData, error)
	Import(data *models.ExportData) error
}

type SaveGameRequest struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Image    string `json:"image"`
	Released string `json:"released"`
}

type PinResponse struct {
	ID       int64 `json:"id"`
	IsPinned bool  `json:"is_pinned"`
}

type ExportResponse struct {
	Backup string             `json:"backup,omitempty"`
	Data   *models.ExportData `json:"data"`
}

// LibraryController serves the saved-games collection, preferences and
// backup export/import.
type LibraryController struct {
	service LibraryServicer
	backups backups.IBackups
	log     *slog.Logger
}

func NewLibraryController(s LibraryServicer, b backups.IBackups, log *slog.Logger) *LibraryController {
	return &LibraryController{
		service: s,
		backups: b,
		log:     log,
	}
}

func (c *LibraryController) List(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.library.List"

	var (
		games []models.SavedGame
		err   error
	)

	if r.URL.Query().Get("pinned") == "true" {
		games, err = c.service.Pinned()
	} else {
		games, err = c.service.List()
	}
	if err != nil {
		c.log.Error(
			ErrGetLibrary.Error(),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		http.Error(w, ErrGetLibrary.Error(), http.StatusInternalServerError)
		return
	}

	c.writeJSON(w, http.StatusOK, games)
}

func (c *LibraryController) Save(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.library.Save"

	var req SaveGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrBadRequest.Error(), http.StatusBadRequest)
		return
	}

	if req.ID == 0 || req.Name == "" {
		http.Error(w, ErrBadRequest.Error(), http.StatusBadRequest)
		return
	}

	game, err := c.service.Save(&models.SavedGame{
		ID:       req.ID,
		Name:     req.Name,
		Slug:     req.Slug,
		Image:    req.Image,
		Released: req.Released,
	})
	if err != nil {
		if errors.Is(err, storage.ErrExists) {
			http.Error(w, ErrExists.Error(), http.StatusConflict)
			return
		}
		c.log.Error(
			ErrSaveGame.Error(),
			slog.String("operation", op),
			slog.Int64("game_id", req.ID),
			slog.String("error", err.Error()))
		http.Error(w, ErrSaveGame.Error(), http.StatusInternalServerError)
		return
	}

	c.writeJSON(w, http.StatusCreated, game)
}

func (c *LibraryController) Remove(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.library.Remove"

	id, ok := c.gameID(w, r)
	if !ok {
		return
	}

	if err := c.service.Remove(id); err != nil {
		c.log.Error(
			ErrRemoveGame.Error(),
			slog.String("operation", op),
			slog.Int64("game_id", id),
			slog.String("error", err.Error()))
		http.Error(w, ErrRemoveGame.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *LibraryController) TogglePin(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.library.TogglePin"

	id, ok := c.gameID(w, r)
	if !ok {
		return
	}

	pinned, err := c.service.TogglePin(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, storage.ErrNotFound.Error(), http.StatusNotFound)
			return
		}
		c.log.Error(
			ErrPinGame.Error(),
			slog.String("operation", op),
			slog.Int64("game_id", id),
			slog.String("error", err.Error()))
		http.Error(w, ErrPinGame.Error(), http.StatusInternalServerError)
		return
	}

	c.writeJSON(w, http.StatusOK, PinResponse{ID: id, IsPinned: pinned})
}

func (c *LibraryController) MarkChecked(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.library.MarkChecked"

	id, ok := c.gameID(w, r)
	if !ok {
		return
	}

	if err := c.service.MarkChecked(id); err != nil {
		c.log.Error(
			ErrGetLibrary.Error(),
			slog.String("operation", op),
			slog.Int64("game_id", id),
			slog.String("error", err.Error()))
		http.Error(w, ErrGetLibrary.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *LibraryController) Preferences(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.library.Preferences"

	prefs, err := c.service.Preferences()
	if err != nil {
		c.log.Error(
			ErrPreferences.Error(),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		http.Error(w, ErrPreferences.Error(), http.StatusInternalServerError)
		return
	}

	c.writeJSON(w, http.StatusOK, prefs)
}

func (c *LibraryController) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.library.UpdatePreferences"

	var upd services.PreferencesUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, ErrBadRequest.Error(), http.StatusBadRequest)
		return
	}

	prefs, err := c.service.UpdatePreferences(upd)
	if err != nil {
		c.log.Error(
			ErrPreferences.Error(),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		http.Error(w, ErrPreferences.Error(), http.StatusInternalServerError)
		return
	}

	c.writeJSON(w, http.StatusOK, prefs)
}

// Export returns the library snapshot and, when a backup store is wired,
// also writes a server-side copy.
func (c *LibraryController) Export(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.library.Export"

	data, err := c.service.Export()
	if err != nil {
		c.log.Error(
			ErrExport.Error(),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		http.Error(w, ErrExport.Error(), http.StatusInternalServerError)
		return
	}

	resp := ExportResponse{Data: data}

	if c.backups != nil {
		name, err := c.backups.Save(data)
		if err != nil {
			c.log.Warn("backup snapshot failed",
				slog.String("operation", op),
				slog.String("error", err.Error()))
		} else {
			resp.Backup = name
		}
	}

	c.writeJSON(w, http.StatusOK, resp)
}

func (c *LibraryController) Import(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.library.Import"

	var data models.ExportData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		http.Error(w, ErrBadRequest.Error(), http.StatusBadRequest)
		return
	}

	if data.ExportedAt.IsZero() {
		data.ExportedAt = time.Now()
	}

	if err := c.service.Import(&data); err != nil {
		c.log.Error(
			ErrImport.Error(),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		http.Error(w, ErrImport.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Backups lists server-side snapshot names, oldest first.
func (c *LibraryController) Backups(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.library.Backups"

	names, err := c.backups.List()
	if err != nil {
		c.log.Error(
			ErrBackups.Error(),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		http.Error(w, ErrBackups.Error(), http.StatusInternalServerError)
		return
	}

	c.writeJSON(w, http.StatusOK, names)
}

// Restore loads the most recent snapshot back into the library.
func (c *LibraryController) Restore(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.library.Restore"

	data, err := c.backups.Latest()
	if err != nil {
		if errors.Is(err, backups.ErrNoBackups) {
			http.Error(w, backups.ErrNoBackups.Error(), http.StatusNotFound)
			return
		}
		c.log.Error(
			ErrRestore.Error(),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		http.Error(w, ErrRestore.Error(), http.StatusInternalServerError)
		return
	}

	if err := c.service.Import(data); err != nil {
		c.log.Error(
			ErrRestore.Error(),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		http.Error(w, ErrRestore.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *LibraryController) gameID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, ErrInvalidID.Error(), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (c *LibraryController) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		c.log.Error(ErrEncoding.Error(), slog.String("error", err.Error()))
	}
}

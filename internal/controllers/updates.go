package controllers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"gametracker/internal/models"
	"gametracker/internal/services"
)

type UpdateServicer interface {
	RecentUpdates(ctx context.Context, games []models.SavedGame, limit int) ([]models.UpdateEvent, error)
}

type LibraryLister interface {
	List() ([]models.SavedGame, error)
}

// UpdateController serves the aggregated update feed for the saved
// library.
type UpdateController struct {
	updates UpdateServicer
	library LibraryLister
	log     *slog.Logger
}

func NewUpdateController(u UpdateServicer, l LibraryLister, log *slog.Logger) *UpdateController {
	return &UpdateController{
		updates: u,
		library: l,
		log:     log,
	}
}

func (c *UpdateController) Feed(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.updates.Feed"

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = services.DefaultUpdateLimit
	}

	games, err := c.library.List()
	if err != nil {
		c.log.Error(
			ErrGetLibrary.Error(),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		http.Error(w, ErrGetLibrary.Error(), http.StatusInternalServerError)
		return
	}

	feed, err := c.updates.RecentUpdates(r.Context(), games, limit)
	if err != nil {
		c.log.Error(
			ErrGetUpdates.Error(),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		http.Error(w, ErrGetUpdates.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(feed); err != nil {
		c.log.Error(ErrEncoding.Error(), slog.String("error", err.Error()))
	}
}

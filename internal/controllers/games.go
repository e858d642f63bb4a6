package controllers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"gametracker/internal/models"

	"github.com/go-chi/chi/v5"
)

type CatalogClient interface {
	Search(ctx context.Context, query string, page int) (*models.SearchResult, error)
	Trending(ctx context.Context) ([]models.GameSummary, error)
	Details(ctx context.Context, gameID int64) (*models.GameDetails, error)
	Screenshots(ctx context.Context, gameID int64) ([]string, error)
	DLC(ctx context.Context, gameID int64, gameName string) ([]models.DlcItem, error)
}

type NewsClient interface {
	News(ctx context.Context, gameName string, appID int64) ([]models.NewsItem, error)
}

// GameController serves catalog lookups (search, trending, details,
// screenshots, DLC) and per-game news.
type GameController struct {
	catalog CatalogClient
	news    NewsClient
	log     *slog.Logger
}

func NewGameController(catalog CatalogClient, news NewsClient, log *slog.Logger) *GameController {
	return &GameController{
		catalog: catalog,
		news:    news,
		log:     log,
	}
}

func (c *GameController) Search(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.games.Search"

	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "missing q query parameter", http.StatusBadRequest)
		return
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	result, err := c.catalog.Search(r.Context(), query, page)
	if err != nil {
		c.log.Error(
			ErrSearch.Error(),
			slog.String("operation", op),
			slog.String("query", query),
			slog.String("error", err.Error()))
		http.Error(w, ErrSearch.Error(), http.StatusBadGateway)
		return
	}

	c.writeJSON(w, result)
}

func (c *GameController) Trending(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.games.Trending"

	games, err := c.catalog.Trending(r.Context())
	if err != nil {
		c.log.Error(
			ErrTrending.Error(),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		http.Error(w, ErrTrending.Error(), http.StatusBadGateway)
		return
	}

	c.writeJSON(w, games)
}

func (c *GameController) Details(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.games.Details"

	id, ok := c.gameID(w, r)
	if !ok {
		return
	}

	details, err := c.catalog.Details(r.Context(), id)
	if err != nil {
		c.log.Error(
			ErrGameDetails.Error(),
			slog.String("operation", op),
			slog.Int64("game_id", id),
			slog.String("error", err.Error()))
		http.Error(w, ErrGameDetails.Error(), http.StatusBadGateway)
		return
	}

	c.writeJSON(w, details)
}

func (c *GameController) Screenshots(w http.ResponseWriter, r *http.Request) {
	id, ok := c.gameID(w, r)
	if !ok {
		return
	}

	screenshots, _ := c.catalog.Screenshots(r.Context(), id)
	c.writeJSON(w, screenshots)
}

func (c *GameController) DLC(w http.ResponseWriter, r *http.Request) {
	id, ok := c.gameID(w, r)
	if !ok {
		return
	}

	dlc, _ := c.catalog.DLC(r.Context(), id, r.URL.Query().Get("name"))
	c.writeJSON(w, dlc)
}

func (c *GameController) News(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.games.News"

	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "missing name query parameter", http.StatusBadRequest)
		return
	}

	news, err := c.news.News(r.Context(), name, 0)
	if err != nil {
		c.log.Error(
			ErrGameNews.Error(),
			slog.String("operation", op),
			slog.String("game", name),
			slog.String("error", err.Error()))
		http.Error(w, ErrGameNews.Error(), http.StatusBadGateway)
		return
	}

	c.writeJSON(w, news)
}

func (c *GameController) gameID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, ErrInvalidID.Error(), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (c *GameController) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		c.log.Error(ErrEncoding.Error(), slog.String("error", err.Error()))
	}
}

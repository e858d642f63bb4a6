package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gametracker/internal/cache"
	"gametracker/internal/config"
	"gametracker/internal/models"
	"gametracker/utils"
)

const (
	searchPageSize   = 20
	trendingPageSize = 12
	trendingWindow   = 3 * 30 * 24 * time.Hour // roughly the last three months
)

// DLCSource supplies storefront-sourced DLC with real pricing. The catalog
// additions endpoint is only consulted when this comes back empty.
type DLCSource interface {
	DLC(ctx context.Context, gameName string) ([]models.DlcItem, error)
}

// Client queries the game catalog for search results, trending lists,
// details, screenshots and DLC listings. Responses are cached with
// type-specific expiry; a non-success status is returned as an error and
// never retried here.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	cache   *cache.Cache
	store   DLCSource
	now     func() time.Time
	log     *slog.Logger
}

func New(cfg config.CatalogConfig, client *http.Client, c *cache.Cache, store DLCSource, log *slog.Logger) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  client,
		cache:   c,
		store:   store,
		now:     time.Now,
		log:     log,
	}
}

type apiGame struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Slug            string  `json:"slug"`
	BackgroundImage string  `json:"background_image"`
	Rating          float64 `json:"rating"`
	Metacritic      int     `json:"metacritic"`
	Released        string  `json:"released"`
	Genres          []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Platforms []struct {
		Platform struct {
			Name string `json:"name"`
		} `json:"platform"`
	} `json:"platforms"`
}

type apiGameDetails struct {
	apiGame
	DescriptionRaw string `json:"description_raw"`
	Description    string `json:"description"`
	Updated        string `json:"updated"`
	Website        string `json:"website"`
	Developers     []struct {
		Name string `json:"name"`
	} `json:"developers"`
	Publishers []struct {
		Name string `json:"name"`
	} `json:"publishers"`
	EsrbRating *struct {
		Name string `json:"name"`
	} `json:"esrb_rating"`
	Playtime int `json:"playtime"`
	Stores   []struct {
		URL   string `json:"url"`
		Store struct {
			Name string `json:"name"`
		} `json:"store"`
	} `json:"stores"`
}

type apiList[T any] struct {
	Count    int    `json:"count"`
	Next     string `json:"next"`
	Previous string `json:"previous"`
	Results  []T    `json:"results"`
}

// Search runs a precise catalog search.
func (c *Client) Search(ctx context.Context, query string, page int) (*models.SearchResult, error) {
	const op = "clients.catalog.Search"

	if page < 1 {
		page = 1
	}

	cacheKey := fmt.Sprintf("search:%s:%d", query, page)
	if cached, ok := c.cache.Get(cacheKey, cache.TypeSearch); ok {
		return cached.(*models.SearchResult), nil
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("search", query)
	params.Set("page", fmt.Sprintf("%d", page))
	params.Set("page_size", fmt.Sprintf("%d", searchPageSize))
	params.Set("search_precise", "true")

	var data apiList[apiGame]
	if err := c.fetchJSON(ctx, c.baseURL+"/games?"+params.Encode(), &data); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &models.SearchResult{
		Games:    make([]models.GameSummary, 0, len(data.Results)),
		Count:    data.Count,
		Next:     data.Next,
		Previous: data.Previous,
	}
	for _, g := range data.Results {
		result.Games = append(result.Games, formatGameBasic(g))
	}

	c.cache.Set(cacheKey, result)
	return result, nil
}

// Trending lists recently released games ordered by popularity.
func (c *Client) Trending(ctx context.Context) ([]models.GameSummary, error) {
	const op = "clients.catalog.Trending"

	const cacheKey = "trending"
	if cached, ok := c.cache.Get(cacheKey, cache.TypeSearch); ok {
		return cached.([]models.GameSummary), nil
	}

	now := c.now()
	dateRange := fmt.Sprintf("%s,%s",
		now.Add(-trendingWindow).Format("2006-01-02"),
		now.Format("2006-01-02"))

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("dates", dateRange)
	params.Set("ordering", "-added")
	params.Set("page_size", fmt.Sprintf("%d", trendingPageSize))

	var data apiList[apiGame]
	if err := c.fetchJSON(ctx, c.baseURL+"/games?"+params.Encode(), &data); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	games := make([]models.GameSummary, 0, len(data.Results))
	for _, g := range data.Results {
		games = append(games, formatGameBasic(g))
	}

	c.cache.Set(cacheKey, games)
	return games, nil
}

// Details fetches the full record for one game.
func (c *Client) Details(ctx context.Context, gameID int64) (*models.GameDetails, error) {
	const op = "clients.catalog.Details"

	cacheKey := fmt.Sprintf("game:%d", gameID)
	if cached, ok := c.cache.Get(cacheKey, cache.TypeDetails); ok {
		return cached.(*models.GameDetails), nil
	}

	reqURL := fmt.Sprintf("%s/games/%d?key=%s", c.baseURL, gameID, url.QueryEscape(c.apiKey))

	var data apiGameDetails
	if err := c.fetchJSON(ctx, reqURL, &data); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	details := formatGameDetails(data)

	c.cache.Set(cacheKey, details)
	return details, nil
}

// Screenshots lists image URLs for a game. Screenshots are supplementary
// data, so any failure yields an empty list rather than an error.
func (c *Client) Screenshots(ctx context.Context, gameID int64) ([]string, error) {
	const op = "clients.catalog.Screenshots"

	cacheKey := fmt.Sprintf("screenshots:%d", gameID)
	if cached, ok := c.cache.Get(cacheKey, cache.TypeDetails); ok {
		return cached.([]string), nil
	}

	reqURL := fmt.Sprintf("%s/games/%d/screenshots?key=%s", c.baseURL, gameID, url.QueryEscape(c.apiKey))

	var data apiList[struct {
		Image string `json:"image"`
	}]
	if err := c.fetchJSON(ctx, reqURL, &data); err != nil {
		c.log.Warn("screenshots fetch failed",
			slog.String("operation", op),
			slog.Int64("game_id", gameID),
			slog.String("error", err.Error()))
		return []string{}, nil
	}

	screenshots := make([]string, 0, len(data.Results))
	for _, s := range data.Results {
		screenshots = append(screenshots, s.Image)
	}

	c.cache.Set(cacheKey, screenshots)
	return screenshots, nil
}

// DLC lists a game's DLC. Storefront-sourced DLC with real pricing is
// preferred; the catalog additions endpoint is the fallback. The
// series/related endpoint is deliberately not used, it returns sequels and
// prequels, not DLC. DLC is supplementary data, failures yield an empty
// list.
func (c *Client) DLC(ctx context.Context, gameID int64, gameName string) ([]models.DlcItem, error) {
	const op = "clients.catalog.DLC"

	cacheKey := fmt.Sprintf("dlc:%d", gameID)
	if cached, ok := c.cache.Get(cacheKey, cache.TypeDetails); ok {
		return cached.([]models.DlcItem), nil
	}

	var dlc []models.DlcItem

	if gameName != "" && c.store != nil {
		items, err := c.store.DLC(ctx, gameName)
		if err != nil {
			c.log.Warn("storefront dlc fetch failed",
				slog.String("operation", op),
				slog.String("game", gameName),
				slog.String("error", err.Error()))
		} else {
			dlc = items
		}
	}

	if len(dlc) == 0 {
		items, err := c.additions(ctx, gameID)
		if err != nil {
			c.log.Warn("additions fetch failed",
				slog.String("operation", op),
				slog.Int64("game_id", gameID),
				slog.String("error", err.Error()))
			return []models.DlcItem{}, nil
		}
		dlc = items
	}

	c.cache.Set(cacheKey, dlc)
	return dlc, nil
}

func (c *Client) additions(ctx context.Context, gameID int64) ([]models.DlcItem, error) {
	reqURL := fmt.Sprintf("%s/games/%d/additions?key=%s", c.baseURL, gameID, url.QueryEscape(c.apiKey))

	var data apiList[apiGame]
	if err := c.fetchJSON(ctx, reqURL, &data); err != nil {
		return nil, err
	}

	dlc := make([]models.DlcItem, 0, len(data.Results))
	for _, item := range data.Results {
		dlc = append(dlc, models.DlcItem{
			ID:       item.ID,
			Name:     item.Name,
			Slug:     item.Slug,
			Image:    item.BackgroundImage,
			Released: item.Released,
			Rating:   item.Rating,
			Source:   models.DLCSourceRAWG,
		})
	}

	return dlc, nil
}

func (c *Client) fetchJSON(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func formatGameBasic(g apiGame) models.GameSummary {
	genres := make([]string, 0, len(g.Genres))
	for _, genre := range g.Genres {
		genres = append(genres, genre.Name)
	}

	platforms := make([]string, 0, len(g.Platforms))
	for _, p := range g.Platforms {
		platforms = append(platforms, p.Platform.Name)
	}

	return models.GameSummary{
		ID:         g.ID,
		Name:       g.Name,
		Slug:       g.Slug,
		Image:      g.BackgroundImage,
		Rating:     g.Rating,
		Metacritic: g.Metacritic,
		Released:   g.Released,
		Genres:     genres,
		Platforms:  platforms,
	}
}

func formatGameDetails(g apiGameDetails) *models.GameDetails {
	description := g.DescriptionRaw
	if description == "" {
		description = utils.StripHTML(g.Description)
	}
	if description == "" {
		description = "No description available."
	}

	developers := make([]string, 0, len(g.Developers))
	for _, d := range g.Developers {
		developers = append(developers, d.Name)
	}

	publishers := make([]string, 0, len(g.Publishers))
	for _, p := range g.Publishers {
		publishers = append(publishers, p.Name)
	}

	esrb := "Not Rated"
	if g.EsrbRating != nil {
		esrb = g.EsrbRating.Name
	}

	stores := make([]models.StoreLink, 0, len(g.Stores))
	for _, s := range g.Stores {
		stores = append(stores, models.StoreLink{Name: s.Store.Name, URL: s.URL})
	}

	return &models.GameDetails{
		GameSummary: formatGameBasic(g.apiGame),
		Description: description,
		Updated:     g.Updated,
		Website:     g.Website,
		Developers:  developers,
		Publishers:  publishers,
		EsrbRating:  esrb,
		Playtime:    g.Playtime,
		Stores:      stores,
	}
}

package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gametracker/internal/cache"
	"gametracker/internal/config"
	"gametracker/internal/models"
	"gametracker/utils"
)

// Length cap on a sanitized announcement body.
const maxContentLength = 800

// At most this many DLC detail look-ups per game, the store detail
// endpoint is rate limited and DLC lists can run long.
const maxDLCDetailLookups = 10

// Relayer forwards a cross-origin request and returns the first working
// relay's response.
type Relayer interface {
	Fetch(ctx context.Context, targetURL string) (*http.Response, error)
}

// Client talks to the storefront service (store search, app details,
// announcement feed) through a relay. All reads go through the shared
// response cache.
type Client struct {
	storeAPIBase string
	newsBase     string
	relay        Relayer
	cache        *cache.Cache
	log          *slog.Logger
}

func New(cfg config.StorefrontConfig, relay Relayer, c *cache.Cache, log *slog.Logger) *Client {
	return &Client{
		storeAPIBase: strings.TrimRight(cfg.StoreAPIBase, "/"),
		newsBase:     cfg.NewsBase,
		relay:        relay,
		cache:        c,
		log:          log,
	}
}

type storeSearchResponse struct {
	Items []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"items"`
}

// ResolveAppID maps a game name to a storefront app id via fuzzy name
// matching. A game with no storefront presence resolves to 0 with a nil
// error, that is a valid null result, not a failure.
func (c *Client) ResolveAppID(ctx context.Context, gameName string) (int64, error) {
	const op = "clients.storefront.ResolveAppID"

	cacheKey := "steamid:" + strings.ToLower(gameName)
	if cached, ok := c.cache.Get(cacheKey, cache.TypeDetails); ok {
		return cached.(int64), nil
	}

	searchURL := fmt.Sprintf("%s/storesearch/?term=%s&cc=us&l=en",
		c.storeAPIBase, url.QueryEscape(gameName))

	var data storeSearchResponse
	if err := c.fetchJSON(ctx, searchURL, &data); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if len(data.Items) == 0 {
		c.cache.Set(cacheKey, int64(0))
		return 0, nil
	}

	// Containment either direction on normalized names, first result when
	// nothing contains.
	normalized := utils.NormalizeName(gameName)
	appID := data.Items[0].ID
	for _, item := range data.Items {
		itemName := utils.NormalizeName(item.Name)
		if strings.Contains(itemName, normalized) || strings.Contains(normalized, itemName) {
			appID = item.ID
			break
		}
	}

	c.cache.Set(cacheKey, appID)
	return appID, nil
}

type appDetailsEntry struct {
	Success bool `json:"success"`
	Data    *struct {
		Name          string  `json:"name"`
		HeaderImage   string  `json:"header_image"`
		DLC           []int64 `json:"dlc"`
		IsFree        bool    `json:"is_free"`
		PriceOverview *struct {
			FinalFormatted string `json:"final_formatted"`
		} `json:"price_overview"`
		ReleaseDate *struct {
			Date string `json:"date"`
		} `json:"release_date"`
	} `json:"data"`
}

// DLC lists a game's storefront DLC with real pricing. Failures on
// individual DLC detail look-ups are skipped, not raised.
func (c *Client) DLC(ctx context.Context, gameName string) ([]models.DlcItem, error) {
	const op = "clients.storefront.DLC"

	appID, err := c.ResolveAppID(ctx, gameName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if appID == 0 {
		return []models.DlcItem{}, nil
	}

	app, err := c.appDetails(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if app == nil || app.Data == nil || len(app.Data.DLC) == 0 {
		return []models.DlcItem{}, nil
	}

	ids := app.Data.DLC
	if len(ids) > maxDLCDetailLookups {
		ids = ids[:maxDLCDetailLookups]
	}

	dlcList := make([]models.DlcItem, 0, len(ids))
	for _, dlcID := range ids {
		dlc, err := c.appDetails(ctx, dlcID)
		if err != nil || dlc == nil || dlc.Data == nil {
			c.log.Debug("dlc detail fetch failed",
				slog.String("operation", op),
				slog.Int64("dlc_id", dlcID))
			continue
		}

		info := dlc.Data

		price := "See Store"
		if info.IsFree {
			price = "Free"
		} else if info.PriceOverview != nil {
			price = info.PriceOverview.FinalFormatted
		}

		released := ""
		if info.ReleaseDate != nil {
			released = info.ReleaseDate.Date
		}

		dlcList = append(dlcList, models.DlcItem{
			ID:       dlcID,
			Name:     info.Name,
			Slug:     utils.Slugify(info.Name),
			Image:    info.HeaderImage,
			Released: released,
			Price:    price,
			IsFree:   info.IsFree,
			Source:   models.DLCSourceSteam,
		})
	}

	return dlcList, nil
}

func (c *Client) appDetails(ctx context.Context, appID int64) (*appDetailsEntry, error) {
	detailsURL := fmt.Sprintf("%s/appdetails?appids=%d", c.storeAPIBase, appID)

	var data map[string]appDetailsEntry
	if err := c.fetchJSON(ctx, detailsURL, &data); err != nil {
		return nil, err
	}

	entry, ok := data[strconv.FormatInt(appID, 10)]
	if !ok {
		return nil, nil
	}

	return &entry, nil
}

type newsResponse struct {
	AppNews struct {
		NewsItems []struct {
			GID      string `json:"gid"`
			Title    string `json:"title"`
			URL      string `json:"url"`
			Author   string `json:"author"`
			Contents string `json:"contents"`
			FeedType int    `json:"feed_type"`
			Date     int64  `json:"date"`
		} `json:"newsitems"`
	} `json:"appnews"`
}

// Official storefront announcements carry this feed type.
const feedTypeAnnouncement = 1

// News fetches and sanitizes a game's announcement feed. Items are kept
// when their title looks like a patch note or the feed marks them as an
// official announcement, everything else is dropped.
func (c *Client) News(ctx context.Context, gameName string, appID int64) ([]models.NewsItem, error) {
	const op = "clients.storefront.News"

	if appID == 0 {
		var err error
		appID, err = c.ResolveAppID(ctx, gameName)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if appID == 0 {
		// No storefront presence means no news.
		return []models.NewsItem{}, nil
	}

	cacheKey := fmt.Sprintf("news:%d", appID)
	if cached, ok := c.cache.Get(cacheKey, cache.TypeNews); ok {
		return cached.([]models.NewsItem), nil
	}

	newsURL := fmt.Sprintf("%s?appid=%d&count=15&maxlength=500&format=json", c.newsBase, appID)

	var data newsResponse
	if err := c.fetchJSON(ctx, newsURL, &data); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	news := make([]models.NewsItem, 0, len(data.AppNews.NewsItems))
	for _, item := range data.AppNews.NewsItems {
		if !isUpdateTitle(item.Title) && item.FeedType != feedTypeAnnouncement {
			continue
		}

		author := item.Author
		if author == "" {
			author = "Developer"
		}

		news = append(news, models.NewsItem{
			ID:      item.GID,
			Title:   utils.CleanTitle(item.Title),
			Content: utils.CleanContent(item.Contents, maxContentLength),
			Date:    time.Unix(item.Date, 0),
			URL:     item.URL,
			Author:  author,
		})
	}

	c.cache.Set(cacheKey, news)
	return news, nil
}

var updateTitleKeywords = []string{
	"patch", "update", "hotfix", "changelog", "release", "notes", "fix", "version",
}

func isUpdateTitle(title string) bool {
	title = strings.ToLower(title)
	for _, kw := range updateTitleKeywords {
		if strings.Contains(title, kw) {
			return true
		}
	}
	return false
}

func (c *Client) fetchJSON(ctx context.Context, targetURL string, out any) error {
	resp, err := c.relay.Fetch(ctx, targetURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", targetURL, err)
	}

	return nil
}

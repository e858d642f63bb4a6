package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gametracker/internal/cache"
	"gametracker/internal/models"
	"gametracker/utils"
)

// Fan-out caps. Both upstreams rate limit aggressively, so one aggregation
// is bounded to 10 games, 10 news items and 2 DLC entries per game.
const (
	maxGamesPerBatch   = 10
	maxNewsPerGame     = 10
	maxDLCPerGame      = 2
	DefaultUpdateLimit = 15

	// Event body text is a short teaser, the full text stays upstream.
	eventContentLength = 150
)

// Background check pacing: the first few library entries are swept, a game
// checked within the last hour is skipped, and checks are spaced out to
// stay under storefront rate limits.
const (
	maxBackgroundChecks  = 5
	recheckAfter         = time.Hour
	delayBetweenChecks   = 500 * time.Millisecond
	defaultCheckInterval = time.Hour
)

// NewsProvider fetches the sanitized announcement feed for a game.
type NewsProvider interface {
	News(ctx context.Context, gameName string, appID int64) ([]models.NewsItem, error)
}

// DLCProvider lists DLC for a game, storefront pricing preferred.
type DLCProvider interface {
	DLC(ctx context.Context, gameID int64, gameName string) ([]models.DlcItem, error)
}

// LibraryReader is the slice of the library the update checker needs.
type LibraryReader interface {
	List() ([]models.SavedGame, error)
	MarkHasUpdate(id int64) error
	RecordUpdateSeen(id int64, seen time.Time) error
}

// UpdateService builds the aggregated update feed for saved games and runs
// the background update sweep.
type UpdateService struct {
	news    NewsProvider
	dlc     DLCProvider
	library LibraryReader
	cache   *cache.Cache
	now     func() time.Time
	log     *slog.Logger
}

func NewUpdateService(news NewsProvider, dlc DLCProvider, library LibraryReader, c *cache.Cache, log *slog.Logger) *UpdateService {
	return &UpdateService{
		news:    news,
		dlc:     dlc,
		library: library,
		cache:   c,
		now:     time.Now,
		log:     log,
	}
}

// RecentUpdates combines news, patches, new DLC and upcoming releases for
// the given games into one feed sorted newest first, at most limit entries.
// A single game's fetch failure contributes zero events and never aborts
// the batch.
func (s *UpdateService) RecentUpdates(ctx context.Context, games []models.SavedGame, limit int) ([]models.UpdateEvent, error) {
	const op = "services.updates.RecentUpdates"

	if limit <= 0 {
		limit = DefaultUpdateLimit
	}

	batch := games
	if len(batch) > maxGamesPerBatch {
		batch = batch[:maxGamesPerBatch]
	}

	cacheKey := batchCacheKey(batch)
	if cached, ok := s.cache.Get(cacheKey, cache.TypeNews); ok {
		return cached.([]models.UpdateEvent), nil
	}

	// One goroutine per game, results land at the game's input position so
	// the flatten order (and therefore tie-breaking after the stable sort)
	// does not depend on completion order.
	results := make([][]models.UpdateEvent, len(batch))

	var wg sync.WaitGroup
	for i, game := range batch {
		wg.Add(1)
		go func(i int, game models.SavedGame) {
			defer wg.Done()

			events, err := s.collectGameUpdates(ctx, game)
			if err != nil {
				s.log.Warn("failed to fetch updates",
					slog.String("operation", op),
					slog.String("game", game.Name),
					slog.String("error", err.Error()))
				return
			}
			results[i] = events
		}(i, game)
	}
	wg.Wait()

	var updates []models.UpdateEvent
	for _, events := range results {
		updates = append(updates, events...)
	}

	sort.SliceStable(updates, func(i, j int) bool {
		return updates[i].Date.After(updates[j].Date)
	})

	if len(updates) > limit {
		updates = updates[:limit]
	}
	if updates == nil {
		updates = []models.UpdateEvent{}
	}

	s.cache.Set(cacheKey, updates)
	return updates, nil
}

func (s *UpdateService) collectGameUpdates(ctx context.Context, game models.SavedGame) ([]models.UpdateEvent, error) {
	ref := models.GameRef{
		ID:    game.ID,
		Name:  game.Name,
		Image: game.Image,
		Slug:  game.Slug,
	}

	var events []models.UpdateEvent

	news, err := s.news.News(ctx, game.Name, 0)
	if err != nil {
		return nil, err
	}

	if len(news) > maxNewsPerGame {
		news = news[:maxNewsPerGame]
	}
	for _, item := range news {
		events = append(events, models.UpdateEvent{
			ID:      fmt.Sprintf("news_%d_%s", game.ID, item.ID),
			Type:    classifyNews(item.Title),
			Game:    ref,
			Title:   item.Title,
			Content: utils.Truncate(item.Content, eventContentLength),
			Date:    item.Date,
			URL:     item.URL,
		})
	}

	dlc, err := s.dlc.DLC(ctx, game.ID, game.Name)
	if err != nil {
		return nil, err
	}

	if len(dlc) > maxDLCPerGame {
		dlc = dlc[:maxDLCPerGame]
	}
	for _, item := range dlc {
		// Unparsable or missing release dates fall back to "now" so broken
		// DLC metadata cannot break sorting.
		releaseDate, ok := parseReleaseDate(item.Released)
		if !ok {
			releaseDate = s.now()
		}

		events = append(events, models.UpdateEvent{
			ID:       fmt.Sprintf("dlc_%d_%d", game.ID, item.ID),
			Type:     models.UpdateDLC,
			Game:     ref,
			Title:    item.Name,
			Content:  fmt.Sprintf("New content available: %s", item.Name),
			Date:     releaseDate,
			Price:    item.Price,
			DLCImage: item.Image,
		})
	}

	if releaseDate, ok := parseReleaseDate(game.Released); ok && releaseDate.After(s.now()) {
		events = append(events, models.UpdateEvent{
			ID:      fmt.Sprintf("release_%d", game.ID),
			Type:    models.UpdateRelease,
			Game:    ref,
			Title:   fmt.Sprintf("%s releases soon!", game.Name),
			Content: fmt.Sprintf("Coming %s", releaseDate.Format("January 2, 2006")),
			Date:    releaseDate,
		})
	}

	return events, nil
}

// Patch classification keyword set.
var patchKeywords = []string{
	"patch", "update", "hotfix", "fix", "changelog", "version", "notes",
}

func classifyNews(title string) models.UpdateType {
	title = strings.ToLower(title)
	for _, kw := range patchKeywords {
		if strings.Contains(title, kw) {
			return models.UpdatePatch
		}
	}
	return models.UpdateNews
}

var releaseDateLayouts = []string{
	"2006-01-02",
	"2 Jan, 2006",
	"Jan 2, 2006",
	time.RFC3339,
}

func parseReleaseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range releaseDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// batchCacheKey derives the aggregation cache key from the sorted game id
// set, so the same library in any order hits the same entry.
func batchCacheKey(games []models.SavedGame) string {
	ids := make([]int64, 0, len(games))
	for _, g := range games {
		ids = append(ids, g.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}

	return "recent_updates:" + strings.Join(parts, ",")
}

// StartChecker runs the background update sweep on a fixed interval until
// the context is cancelled. Failures are logged and swallowed, the sweep
// is best effort.
func (s *UpdateService) StartChecker(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultCheckInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckForGameUpdates(ctx)
		}
	}
}

// CheckForGameUpdates sweeps the first few saved games for news items
// newer than what the user last saw and flags those games.
func (s *UpdateService) CheckForGameUpdates(ctx context.Context) {
	const op = "services.updates.CheckForGameUpdates"

	games, err := s.library.List()
	if err != nil {
		s.log.Error("failed to list library",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		return
	}

	if len(games) > maxBackgroundChecks {
		games = games[:maxBackgroundChecks]
	}

	for _, game := range games {
		if s.now().Sub(game.LastChecked) < recheckAfter {
			continue
		}

		news, err := s.news.News(ctx, game.Name, 0)
		if err != nil {
			s.log.Warn("update check failed",
				slog.String("operation", op),
				slog.String("game", game.Name),
				slog.String("error", err.Error()))
		} else if len(news) > 0 {
			latest := news[0].Date
			if game.LastUpdateSeen != nil && latest.After(*game.LastUpdateSeen) {
				if err := s.library.MarkHasUpdate(game.ID); err != nil {
					s.log.Warn("failed to flag update",
						slog.String("operation", op),
						slog.Int64("game_id", game.ID),
						slog.String("error", err.Error()))
				}
			}
			if err := s.library.RecordUpdateSeen(game.ID, latest); err != nil {
				s.log.Warn("failed to record update seen",
					slog.String("operation", op),
					slog.Int64("game_id", game.ID),
					slog.String("error", err.Error()))
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delayBetweenChecks):
		}
	}
}

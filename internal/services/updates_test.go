package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"gametracker/internal/cache"
	"gametracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeNews struct {
	mu     sync.Mutex
	byName map[string][]models.NewsItem
	errFor map[string]error
	calls  int
}

func (f *fakeNews) News(ctx context.Context, gameName string, appID int64) ([]models.NewsItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.errFor[gameName]; ok {
		return nil, err
	}
	return f.byName[gameName], nil
}

type fakeDLC struct {
	mu   sync.Mutex
	byID map[int64][]models.DlcItem
}

func (f *fakeDLC) DLC(ctx context.Context, gameID int64, gameName string) ([]models.DlcItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[gameID], nil
}

type fakeLibrary struct {
	games      []models.SavedGame
	hasUpdate  []int64
	updateSeen map[int64]time.Time
	listErr    error
}

func (f *fakeLibrary) List() ([]models.SavedGame, error) {
	return f.games, f.listErr
}

func (f *fakeLibrary) MarkHasUpdate(id int64) error {
	f.hasUpdate = append(f.hasUpdate, id)
	return nil
}

func (f *fakeLibrary) RecordUpdateSeen(id int64, seen time.Time) error {
	if f.updateSeen == nil {
		f.updateSeen = make(map[int64]time.Time)
	}
	f.updateSeen[id] = seen
	return nil
}

func newTestUpdateService(news NewsProvider, dlc DLCProvider, library LibraryReader, now time.Time) *UpdateService {
	clock := func() time.Time { return now }
	s := NewUpdateService(news, dlc, library, cache.NewWithClock(clock), discardLogger())
	s.now = clock
	return s
}

func TestUpdateService_RecentUpdates(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("hotfix news becomes a patch event, past release adds nothing", func(t *testing.T) {
		news := &fakeNews{byName: map[string][]models.NewsItem{
			"Foo": {{ID: "n1", Title: "Hotfix 2", Content: "crash fix", Date: now.Add(-2 * time.Hour), URL: "https://x/n1"}},
		}}
		svc := newTestUpdateService(news, &fakeDLC{}, nil, now)

		games := []models.SavedGame{{ID: 1, Name: "Foo", Released: "2025-06-14"}}
		events, err := svc.RecentUpdates(context.Background(), games, 15)

		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "news_1_n1", events[0].ID)
		assert.Equal(t, models.UpdatePatch, events[0].Type)
		assert.Equal(t, "Hotfix 2", events[0].Title)
		assert.Equal(t, "Foo", events[0].Game.Name)
	})

	t.Run("non-patch news classifies as news", func(t *testing.T) {
		news := &fakeNews{byName: map[string][]models.NewsItem{
			"Foo": {{ID: "n2", Title: "Community Spotlight", Date: now}},
		}}
		svc := newTestUpdateService(news, &fakeDLC{}, nil, now)

		events, err := svc.RecentUpdates(context.Background(), []models.SavedGame{{ID: 1, Name: "Foo"}}, 15)

		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, models.UpdateNews, events[0].Type)
	})

	t.Run("future release synthesizes one release event", func(t *testing.T) {
		svc := newTestUpdateService(&fakeNews{}, &fakeDLC{}, nil, now)

		games := []models.SavedGame{{ID: 7, Name: "Soonish", Released: "2025-07-15"}}
		events, err := svc.RecentUpdates(context.Background(), games, 15)

		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "release_7", events[0].ID)
		assert.Equal(t, models.UpdateRelease, events[0].Type)
		assert.Contains(t, events[0].Title, "Soonish")
		assert.Equal(t, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), events[0].Date)
	})

	t.Run("dlc capped at two, unparsable date falls back to now", func(t *testing.T) {
		dlc := &fakeDLC{byID: map[int64][]models.DlcItem{
			1: {
				{ID: 10, Name: "First", Released: "2025-05-01", Price: "$9.99", Image: "img10"},
				{ID: 11, Name: "Second", Released: "TBA"},
				{ID: 12, Name: "Third", Released: "2025-04-01"},
			},
		}}
		svc := newTestUpdateService(&fakeNews{}, dlc, nil, now)

		events, err := svc.RecentUpdates(context.Background(), []models.SavedGame{{ID: 1, Name: "Foo"}}, 15)

		require.NoError(t, err)
		require.Len(t, events, 2)

		// "Second" has no parsable date, so it sorts as "now", ahead of
		// "First" from May.
		assert.Equal(t, "dlc_1_11", events[0].ID)
		assert.Equal(t, now, events[0].Date)
		assert.Equal(t, "dlc_1_10", events[1].ID)
		assert.Equal(t, "$9.99", events[1].Price)
		assert.Equal(t, "img10", events[1].DLCImage)
		assert.Equal(t, models.UpdateDLC, events[1].Type)
	})

	t.Run("sorted newest first, truncated to limit", func(t *testing.T) {
		news := &fakeNews{byName: map[string][]models.NewsItem{
			"Foo": {
				{ID: "a", Title: "Update A", Date: now.Add(-3 * time.Hour)},
				{ID: "b", Title: "Update B", Date: now.Add(-1 * time.Hour)},
				{ID: "c", Title: "Update C", Date: now.Add(-2 * time.Hour)},
			},
		}}
		svc := newTestUpdateService(news, &fakeDLC{}, nil, now)

		events, err := svc.RecentUpdates(context.Background(), []models.SavedGame{{ID: 1, Name: "Foo"}}, 2)

		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "news_1_b", events[0].ID)
		assert.Equal(t, "news_1_c", events[1].ID)
	})

	t.Run("equal timestamps keep insertion order", func(t *testing.T) {
		tied := now.Add(-time.Hour)
		news := &fakeNews{byName: map[string][]models.NewsItem{
			"Foo": {
				{ID: "x", Title: "Update X", Date: tied},
				{ID: "y", Title: "Update Y", Date: tied},
			},
		}}
		svc := newTestUpdateService(news, &fakeDLC{}, nil, now)

		events, err := svc.RecentUpdates(context.Background(), []models.SavedGame{{ID: 1, Name: "Foo"}}, 15)

		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "news_1_x", events[0].ID)
		assert.Equal(t, "news_1_y", events[1].ID)
	})

	t.Run("event ids are unique across sources", func(t *testing.T) {
		news := &fakeNews{byName: map[string][]models.NewsItem{
			"Foo": {{ID: "1", Title: "Update", Date: now}},
			"Bar": {{ID: "1", Title: "Update", Date: now}},
		}}
		dlc := &fakeDLC{byID: map[int64][]models.DlcItem{
			1: {{ID: 1, Name: "Pack"}},
			2: {{ID: 1, Name: "Pack"}},
		}}
		svc := newTestUpdateService(news, dlc, nil, now)

		games := []models.SavedGame{
			{ID: 1, Name: "Foo", Released: "2025-08-01"},
			{ID: 2, Name: "Bar", Released: "2025-08-01"},
		}
		events, err := svc.RecentUpdates(context.Background(), games, 15)

		require.NoError(t, err)
		require.Len(t, events, 6)

		seen := make(map[string]bool)
		for _, e := range events {
			assert.False(t, seen[e.ID], "duplicate id %s", e.ID)
			seen[e.ID] = true
		}
	})

	t.Run("one game failing does not affect the others", func(t *testing.T) {
		news := &fakeNews{
			byName: map[string][]models.NewsItem{
				"Healthy": {{ID: "ok", Title: "Patch 1.0", Date: now}},
			},
			errFor: map[string]error{
				"Broken": errors.New("all relays failed"),
			},
		}
		svc := newTestUpdateService(news, &fakeDLC{}, nil, now)

		games := []models.SavedGame{
			{ID: 1, Name: "Broken"},
			{ID: 2, Name: "Healthy"},
		}
		events, err := svc.RecentUpdates(context.Background(), games, 15)

		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "news_2_ok", events[0].ID)
	})

	t.Run("only the first ten games are fetched", func(t *testing.T) {
		news := &fakeNews{byName: map[string][]models.NewsItem{}}
		svc := newTestUpdateService(news, &fakeDLC{}, nil, now)

		games := make([]models.SavedGame, 12)
		for i := range games {
			games[i] = models.SavedGame{ID: int64(i + 1), Name: fmt.Sprintf("Game %d", i+1)}
		}

		_, err := svc.RecentUpdates(context.Background(), games, 15)

		require.NoError(t, err)
		assert.Equal(t, maxGamesPerBatch, news.calls)
	})

	t.Run("cached result is reused regardless of game order", func(t *testing.T) {
		news := &fakeNews{byName: map[string][]models.NewsItem{
			"Foo": {{ID: "n", Title: "Patch", Date: now}},
		}}
		svc := newTestUpdateService(news, &fakeDLC{}, nil, now)

		games := []models.SavedGame{
			{ID: 1, Name: "Foo"},
			{ID: 2, Name: "Bar"},
		}

		first, err := svc.RecentUpdates(context.Background(), games, 15)
		require.NoError(t, err)
		callsAfterFirst := news.calls

		reversed := []models.SavedGame{games[1], games[0]}
		second, err := svc.RecentUpdates(context.Background(), reversed, 15)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, callsAfterFirst, news.calls)
	})

	t.Run("no saved games yields an empty feed", func(t *testing.T) {
		svc := newTestUpdateService(&fakeNews{}, &fakeDLC{}, nil, now)

		events, err := svc.RecentUpdates(context.Background(), nil, 15)

		require.NoError(t, err)
		assert.Empty(t, events)
	})
}

func TestUpdateService_CheckForGameUpdates(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	latest := now.Add(-30 * time.Minute)

	t.Run("flags games with unseen updates", func(t *testing.T) {
		seen := now.Add(-48 * time.Hour)
		lib := &fakeLibrary{games: []models.SavedGame{{
			ID:             1,
			Name:           "Foo",
			LastChecked:    now.Add(-2 * time.Hour),
			LastUpdateSeen: &seen,
		}}}
		news := &fakeNews{byName: map[string][]models.NewsItem{
			"Foo": {{ID: "n", Title: "Patch 2.0", Date: latest}},
		}}
		svc := newTestUpdateService(news, &fakeDLC{}, lib, now)

		svc.CheckForGameUpdates(context.Background())

		assert.Equal(t, []int64{1}, lib.hasUpdate)
		assert.Equal(t, latest, lib.updateSeen[1])
	})

	t.Run("recently checked games are skipped", func(t *testing.T) {
		lib := &fakeLibrary{games: []models.SavedGame{{
			ID:          1,
			Name:        "Foo",
			LastChecked: now.Add(-10 * time.Minute),
		}}}
		news := &fakeNews{byName: map[string][]models.NewsItem{
			"Foo": {{ID: "n", Title: "Patch 2.0", Date: latest}},
		}}
		svc := newTestUpdateService(news, &fakeDLC{}, lib, now)

		svc.CheckForGameUpdates(context.Background())

		assert.Zero(t, news.calls)
		assert.Empty(t, lib.hasUpdate)
	})

	t.Run("first sighting records the timestamp without flagging", func(t *testing.T) {
		lib := &fakeLibrary{games: []models.SavedGame{{
			ID:          1,
			Name:        "Foo",
			LastChecked: now.Add(-2 * time.Hour),
		}}}
		news := &fakeNews{byName: map[string][]models.NewsItem{
			"Foo": {{ID: "n", Title: "Patch 2.0", Date: latest}},
		}}
		svc := newTestUpdateService(news, &fakeDLC{}, lib, now)

		svc.CheckForGameUpdates(context.Background())

		assert.Empty(t, lib.hasUpdate)
		assert.Equal(t, latest, lib.updateSeen[1])
	})
}

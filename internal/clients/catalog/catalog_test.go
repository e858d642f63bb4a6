package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"gametracker/internal/cache"
	"gametracker/internal/config"
	"gametracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubDLCSource struct {
	items []models.DlcItem
	err   error
	calls int
}

func (s *stubDLCSource) DLC(ctx context.Context, gameName string) ([]models.DlcItem, error) {
	s.calls++
	return s.items, s.err
}

func newTestClient(t *testing.T, handler http.Handler, store DLCSource) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.CatalogConfig{BaseURL: srv.URL, APIKey: "test-key"}
	return New(cfg, srv.Client(), cache.New(), store, discardLogger())
}

const searchPayload = `{
	"count": 1,
	"next": "",
	"previous": "",
	"results": [{
		"id": 3328,
		"name": "The Witcher 3: Wild Hunt",
		"slug": "the-witcher-3-wild-hunt",
		"background_image": "https://img/bg.jpg",
		"rating": 4.65,
		"metacritic": 92,
		"released": "2015-05-18",
		"genres": [{"name": "RPG"}, {"name": "Adventure"}],
		"platforms": [{"platform": {"name": "PC"}}]
	}]
}`

func TestClient_Search(t *testing.T) {
	t.Run("formats results", func(t *testing.T) {
		var query string
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query = r.URL.RawQuery
			fmt.Fprint(w, searchPayload)
		}), nil)

		result, err := client.Search(context.Background(), "witcher", 1)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Count)
		require.Len(t, result.Games, 1)

		g := result.Games[0]
		assert.Equal(t, int64(3328), g.ID)
		assert.Equal(t, "The Witcher 3: Wild Hunt", g.Name)
		assert.Equal(t, []string{"RPG", "Adventure"}, g.Genres)
		assert.Equal(t, []string{"PC"}, g.Platforms)

		assert.Contains(t, query, "search=witcher")
		assert.Contains(t, query, "page_size=20")
		assert.Contains(t, query, "search_precise=true")
		assert.Contains(t, query, "key=test-key")
	})

	t.Run("cached within ttl without a second call", func(t *testing.T) {
		var calls int
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			fmt.Fprint(w, searchPayload)
		}), nil)

		first, err := client.Search(context.Background(), "witcher", 1)
		require.NoError(t, err)

		second, err := client.Search(context.Background(), "witcher", 1)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, calls)
	})

	t.Run("distinct pages are distinct cache entries", func(t *testing.T) {
		var calls int
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			fmt.Fprint(w, searchPayload)
		}), nil)

		_, err := client.Search(context.Background(), "witcher", 1)
		require.NoError(t, err)
		_, err = client.Search(context.Background(), "witcher", 2)
		require.NoError(t, err)

		assert.Equal(t, 2, calls)
	})

	t.Run("non-success status is an error", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}), nil)

		_, err := client.Search(context.Background(), "witcher", 1)
		assert.Error(t, err)
	})
}

func TestClient_Trending(t *testing.T) {
	var query string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		fmt.Fprint(w, searchPayload)
	}), nil)

	games, err := client.Trending(context.Background())

	require.NoError(t, err)
	assert.Len(t, games, 1)
	assert.Contains(t, query, "ordering=-added")
	assert.Contains(t, query, "page_size=12")
	assert.Contains(t, query, "dates=")
}

func TestClient_Details(t *testing.T) {
	t.Run("full record", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{
				"id": 3328,
				"name": "The Witcher 3: Wild Hunt",
				"slug": "the-witcher-3-wild-hunt",
				"description_raw": "A story-driven RPG.",
				"developers": [{"name": "CD PROJEKT RED"}],
				"publishers": [{"name": "CD PROJEKT RED"}],
				"esrb_rating": {"name": "Mature"},
				"playtime": 46,
				"stores": [{"url": "https://store/x", "store": {"name": "Steam"}}]
			}`)
		}), nil)

		details, err := client.Details(context.Background(), 3328)

		require.NoError(t, err)
		assert.Equal(t, "A story-driven RPG.", details.Description)
		assert.Equal(t, "Mature", details.EsrbRating)
		assert.Equal(t, []string{"CD PROJEKT RED"}, details.Developers)
		require.Len(t, details.Stores, 1)
		assert.Equal(t, "Steam", details.Stores[0].Name)
	})

	t.Run("html description fallback and esrb default", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"id": 1, "name": "Foo", "description": "<p>From <b>HTML</b></p>"}`)
		}), nil)

		details, err := client.Details(context.Background(), 1)

		require.NoError(t, err)
		assert.Equal(t, "From HTML", details.Description)
		assert.Equal(t, "Not Rated", details.EsrbRating)
	})
}

func TestClient_Screenshots(t *testing.T) {
	t.Run("lists image urls", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"results": [{"image": "https://img/1.jpg"}, {"image": "https://img/2.jpg"}]}`)
		}), nil)

		screenshots, err := client.Screenshots(context.Background(), 1)

		require.NoError(t, err)
		assert.Equal(t, []string{"https://img/1.jpg", "https://img/2.jpg"}, screenshots)
	})

	t.Run("failure yields empty list, not an error", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}), nil)

		screenshots, err := client.Screenshots(context.Background(), 1)

		require.NoError(t, err)
		assert.Empty(t, screenshots)
	})
}

func TestClient_DLC(t *testing.T) {
	t.Run("storefront dlc preferred, additions not consulted", func(t *testing.T) {
		var additionsCalls int
		store := &stubDLCSource{items: []models.DlcItem{
			{ID: 10, Name: "Expansion", Source: models.DLCSourceSteam, Price: "$9.99"},
		}}

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			additionsCalls++
			fmt.Fprint(w, `{"results": []}`)
		}), store)

		dlc, err := client.DLC(context.Background(), 1, "Foo")

		require.NoError(t, err)
		require.Len(t, dlc, 1)
		assert.Equal(t, models.DLCSourceSteam, dlc[0].Source)
		assert.Equal(t, 0, additionsCalls)
	})

	t.Run("falls back to additions when storefront is empty", func(t *testing.T) {
		store := &stubDLCSource{}

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Path, "/additions")
			fmt.Fprint(w, `{"results": [{
				"id": 20, "name": "Blood and Wine", "slug": "blood-and-wine",
				"background_image": "https://img/baw.jpg", "released": "2016-05-31", "rating": 4.8
			}]}`)
		}), store)

		dlc, err := client.DLC(context.Background(), 1, "Foo")

		require.NoError(t, err)
		require.Len(t, dlc, 1)
		assert.Equal(t, "Blood and Wine", dlc[0].Name)
		assert.Equal(t, models.DLCSourceRAWG, dlc[0].Source)
		assert.Empty(t, dlc[0].Price)
		assert.Equal(t, 1, store.calls)
	})

	t.Run("total failure yields empty list, not an error", func(t *testing.T) {
		store := &stubDLCSource{err: fmt.Errorf("relay down")}

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}), store)

		dlc, err := client.DLC(context.Background(), 1, "Foo")

		require.NoError(t, err)
		assert.Empty(t, dlc)
	})
}

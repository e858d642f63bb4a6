package models

// GameSummary is the immutable snapshot of a game as returned by catalog
// search and trending listings.
type GameSummary struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Slug       string   `json:"slug"`
	Image      string   `json:"image"`
	Rating     float64  `json:"rating"`
	Metacritic int      `json:"metacritic"`
	Released   string   `json:"released"`
	Genres     []string `json:"genres"`
	Platforms  []string `json:"platforms"`
}

// StoreLink points at a storefront page for a game.
type StoreLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// GameDetails is the per-game detail record fetched on demand.
type GameDetails struct {
	GameSummary
	Description string      `json:"description"`
	Updated     string      `json:"updated"`
	Website     string      `json:"website"`
	Developers  []string    `json:"developers"`
	Publishers  []string    `json:"publishers"`
	EsrbRating  string      `json:"esrb_rating"`
	Playtime    int         `json:"playtime"`
	Stores      []StoreLink `json:"stores"`
}

// SearchResult is one page of catalog search results.
type SearchResult struct {
	Games    []GameSummary `json:"games"`
	Count    int           `json:"count"`
	Next     string        `json:"next"`
	Previous string        `json:"previous"`
}

// DLC source tags. Steam-sourced items carry real pricing, catalog-sourced
// items do not.
const (
	DLCSourceSteam = "steam"
	DLCSourceRAWG  = "rawg"
)

// DlcItem is one DLC or addition listing for a game.
type DlcItem struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	Image    string  `json:"image"`
	Released string  `json:"released"`
	Rating   float64 `json:"rating"`
	Price    string  `json:"price,omitempty"`
	IsFree   bool    `json:"is_free"`
	Source   string  `json:"source"`
}

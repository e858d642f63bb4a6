package models

import "time"

// UpdateType classifies an entry in the aggregated update feed.
type UpdateType string

const (
	UpdatePatch   UpdateType = "patch"
	UpdateNews    UpdateType = "news"
	UpdateDLC     UpdateType = "dlc"
	UpdateRelease UpdateType = "release"
)

// GameRef is the slice of a saved game an update event carries around.
type GameRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
	Slug  string `json:"slug"`
}

// NewsItem is a sanitized storefront announcement feed entry.
type NewsItem struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Date    time.Time `json:"date"`
	URL     string    `json:"url"`
	Author  string    `json:"author"`
}

// UpdateEvent is one entry of the aggregated update feed. Events are
// rebuilt on every aggregation, never persisted. The ID is type-prefixed
// and includes the game id, so it is unique across sources within one
// aggregation result.
type UpdateEvent struct {
	ID       string     `json:"id"`
	Type     UpdateType `json:"type"`
	Game     GameRef    `json:"game"`
	Title    string     `json:"title"`
	Content  string     `json:"content"`
	Date     time.Time  `json:"date"`
	URL      string     `json:"url,omitempty"`
	Price    string     `json:"price,omitempty"`
	DLCImage string     `json:"dlc_image,omitempty"`
}

package models

import "time"

// SavedGame is a game in the user's library. The ID is the catalog id, so
// it is unique across the collection.
type SavedGame struct {
	ID             int64      `json:"id" gorm:"primaryKey"`
	Name           string     `json:"name"`
	Slug           string     `json:"slug"`
	Image          string     `json:"image"`
	Released       string     `json:"released"`
	SavedAt        time.Time  `json:"saved_at"`
	LastChecked    time.Time  `json:"last_checked"`
	LastUpdateSeen *time.Time `json:"last_update_seen"`
	HasNewUpdate   bool       `json:"has_new_update"`
	IsPinned       bool       `json:"is_pinned"`
	PinnedAt       *time.Time `json:"pinned_at"`
}

// Preferences is the single-row user preference record. InstallID is
// generated on first access and identifies this installation in backups.
type Preferences struct {
	ID                  int    `json:"-" gorm:"primaryKey"`
	InstallID           string `json:"install_id"`
	Notifications       bool   `json:"notifications"`
	UpdateCheckInterval string `json:"update_check_interval"`
	Theme               string `json:"theme"`
}

// ExportData is a full snapshot of the library for backup and restore.
type ExportData struct {
	SavedGames  []SavedGame `json:"saved_games"`
	Preferences Preferences `json:"preferences"`
	ExportedAt  time.Time   `json:"exported_at"`
}

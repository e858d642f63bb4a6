package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gametracker/internal/models"
	"gametracker/internal/storage"
	"gametracker/internal/storage/mariadb"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const preferencesRowID = 1

// PreferencesUpdate carries a partial preferences change; nil fields are
// left untouched.
type PreferencesUpdate struct {
	Notifications       *bool   `json:"notifications"`
	UpdateCheckInterval *string `json:"update_check_interval"`
	Theme               *string `json:"theme"`
}

// LibraryService owns the saved-games collection and user preferences.
type LibraryService struct {
	storage *mariadb.Storage
	log     *slog.Logger
	now     func() time.Time
}

func NewLibraryService(s *mariadb.Storage, log *slog.Logger) *LibraryService {
	return &LibraryService{
		storage: s,
		log:     log,
		now:     time.Now,
	}
}

// List returns the library, most recently saved first.
func (s *LibraryService) List() ([]models.SavedGame, error) {
	const op = "services.library.List"

	var games []models.SavedGame
	if err := s.storage.DB.Order("saved_at DESC").Find(&games).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return games, nil
}

// Pinned returns pinned games, most recently pinned first.
func (s *LibraryService) Pinned() ([]models.SavedGame, error) {
	const op = "services.library.Pinned"

	var games []models.SavedGame
	if err := s.storage.DB.
		Where("is_pinned = ?", true).
		Order("pinned_at DESC").
		Find(&games).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return games, nil
}

func (s *LibraryService) Get(id int64) (*models.SavedGame, error) {
	const op = "services.library.Get"

	var g models.SavedGame
	if err := s.storage.DB.First(&g, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &g, nil
}

func (s *LibraryService) IsSaved(id int64) (bool, error) {
	const op = "services.library.IsSaved"

	var count int64
	if err := s.storage.DB.
		Model(&models.SavedGame{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return count > 0, nil
}

// Save adds a game to the library. Saving an already saved game returns
// storage.ErrExists.
func (s *LibraryService) Save(g *models.SavedGame) (*models.SavedGame, error) {
	const op = "services.library.Save"

	saved, err := s.IsSaved(g.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if saved {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrExists)
	}

	g.SavedAt = s.now()
	g.LastChecked = s.now()
	g.HasNewUpdate = false

	if err := s.storage.DB.Create(g).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return g, nil
}

func (s *LibraryService) Remove(id int64) error {
	const op = "services.library.Remove"

	if err := s.storage.DB.Delete(&models.SavedGame{}, id).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// MarkChecked records an update check and clears the new-update flag.
func (s *LibraryService) MarkChecked(id int64) error {
	const op = "services.library.MarkChecked"

	err := s.storage.DB.
		Model(&models.SavedGame{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_checked":   s.now(),
			"has_new_update": false,
		}).Error
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *LibraryService) MarkHasUpdate(id int64) error {
	const op = "services.library.MarkHasUpdate"

	err := s.storage.DB.
		Model(&models.SavedGame{}).
		Where("id = ?", id).
		Update("has_new_update", true).Error
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RecordUpdateSeen stores the newest upstream update timestamp observed
// for a game and stamps the check time.
func (s *LibraryService) RecordUpdateSeen(id int64, seen time.Time) error {
	const op = "services.library.RecordUpdateSeen"

	err := s.storage.DB.
		Model(&models.SavedGame{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_update_seen": seen,
			"last_checked":     s.now(),
		}).Error
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// TogglePin flips a game's pin state and returns the new state.
func (s *LibraryService) TogglePin(id int64) (bool, error) {
	const op = "services.library.TogglePin"

	g, err := s.Get(id)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if g.IsPinned {
		err = s.storage.DB.
			Model(&models.SavedGame{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"is_pinned": false,
				"pinned_at": nil,
			}).Error
		if err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		return false, nil
	}

	err = s.storage.DB.
		Model(&models.SavedGame{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_pinned": true,
			"pinned_at": s.now(),
		}).Error
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return true, nil
}

// Preferences returns the preference record, creating defaults on first
// access.
func (s *LibraryService) Preferences() (*models.Preferences, error) {
	const op = "services.library.Preferences"

	var prefs models.Preferences
	err := s.storage.DB.First(&prefs, preferencesRowID).Error
	if err == nil {
		return &prefs, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	prefs = models.Preferences{
		ID:                  preferencesRowID,
		InstallID:           uuid.NewString(),
		Notifications:       true,
		UpdateCheckInterval: "daily",
		Theme:               "dark",
	}

	if err := s.storage.DB.Create(&prefs).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &prefs, nil
}

func (s *LibraryService) UpdatePreferences(upd PreferencesUpdate) (*models.Preferences, error) {
	const op = "services.library.UpdatePreferences"

	prefs, err := s.Preferences()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if upd.Notifications != nil {
		prefs.Notifications = *upd.Notifications
	}
	if upd.UpdateCheckInterval != nil {
		prefs.UpdateCheckInterval = *upd.UpdateCheckInterval
	}
	if upd.Theme != nil {
		prefs.Theme = *upd.Theme
	}

	if err := s.storage.DB.Save(prefs).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return prefs, nil
}

// Export snapshots the whole library for backup.
func (s *LibraryService) Export() (*models.ExportData, error) {
	const op = "services.library.Export"

	games, err := s.List()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	prefs, err := s.Preferences()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.ExportData{
		SavedGames:  games,
		Preferences: *prefs,
		ExportedAt:  s.now(),
	}, nil
}

// Import replaces the library with a backup snapshot, last write wins.
func (s *LibraryService) Import(data *models.ExportData) error {
	const op = "services.library.Import"

	if data == nil {
		return fmt.Errorf("%s: empty import", op)
	}

	tx := s.storage.DB.Begin()
	if tx.Error != nil {
		return fmt.Errorf("%s: %w", op, tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("1 = 1").Delete(&models.SavedGame{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("%s: %w", op, err)
	}

	if len(data.SavedGames) > 0 {
		if err := tx.Create(&data.SavedGames).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if data.Preferences.InstallID != "" {
		prefs := data.Preferences
		prefs.ID = preferencesRowID
		if err := tx.Save(&prefs).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

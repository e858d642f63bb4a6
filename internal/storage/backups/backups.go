package backups

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gametracker/internal/models"

	"github.com/google/uuid"
)

var (
	ErrEmptyExport  = errors.New("empty export data")
	ErrNoBackups    = errors.New("no backups found")
	ErrInvalidName  = errors.New("invalid backup name")
	ErrDecodeFailed = errors.New("failed to decode backup")
)

// IBackups stores server-side snapshots of library exports.
type IBackups interface {
	Save(data *models.ExportData) (string, error)
	Latest() (*models.ExportData, error)
	List() ([]string, error)
}

type Backups struct {
	folderPath string
	mu         sync.RWMutex
}

func NewBackups(folderPath string) (*Backups, error) {
	if folderPath == "" {
		return nil, errors.New("folder path is empty")
	}

	folderPath = filepath.Clean(folderPath)

	b := &Backups{folderPath: folderPath}

	if err := b.ensureFolderExists(); err != nil {
		return nil, err
	}

	return b, nil
}

func (b *Backups) ensureFolderExists() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := os.Stat(b.folderPath); os.IsNotExist(err) {
		if err := os.MkdirAll(b.folderPath, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// Save writes a snapshot under a unique file name and returns that name.
func (b *Backups) Save(data *models.ExportData) (string, error) {
	if data == nil || (len(data.SavedGames) == 0 && data.Preferences.InstallID == "") {
		return "", ErrEmptyExport
	}

	name := fmt.Sprintf("%s_%s.json", data.ExportedAt.Format("20060102T150405"), uuid.NewString())
	fullPath := filepath.Join(b.folderPath, name)

	blob, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	tempPath := fullPath + ".tmp"
	if err := os.WriteFile(tempPath, blob, 0o644); err != nil {
		return "", err
	}

	if err := os.Rename(tempPath, fullPath); err != nil {
		_ = os.Remove(tempPath)
		return "", err
	}

	return name, nil
}

// List returns backup file names, oldest first. Snapshot names start with
// a sortable timestamp, so lexical order is chronological order.
func (b *Backups) List() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entries, err := os.ReadDir(b.folderPath)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, e.Name())
	}

	sort.Strings(names)
	return names, nil
}

// Latest loads the most recent snapshot.
func (b *Backups) Latest() (*models.ExportData, error) {
	names, err := b.List()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, ErrNoBackups
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	blob, err := os.ReadFile(filepath.Join(b.folderPath, names[len(names)-1]))
	if err != nil {
		return nil, err
	}

	var data models.ExportData
	if err := json.Unmarshal(blob, &data); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDecodeFailed, err)
	}

	return &data, nil
}

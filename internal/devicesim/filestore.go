package devicesim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/wifipanel/internal/logging"
	"github.com/muurk/wifipanel/internal/wifiapi"
)

// DefaultStoreFile is the file name the device firmware uses.
const DefaultStoreFile = "wifi-aps.json"

// fileEntry is the on-disk shape: the firmware's ssid/password pair plus
// the id the API exposes.
type fileEntry struct {
	ID       int    `json:"id"`
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

// FileStore keeps the saved list in a JSON file, rewritten atomically on
// every change.
type FileStore struct {
	path string

	mu   sync.Mutex
	list savedList
}

// NewFileStore opens the store at path. A missing file is an empty list.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("Store file does not exist, starting empty", zap.String("path", path))
			return s, nil
		}
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	var entries []fileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse store file %s: %w", path, err)
	}

	for i, e := range entries {
		id := e.ID
		if id == 0 {
			// files written by the firmware carry no ids
			id = i + 1
		}
		s.list.items = append(s.list.items, wifiapi.SavedNetwork{ID: id, APName: e.SSID, APPass: e.Password})
	}
	sortSaved(s.list.items)

	logging.Info("Loaded saved networks", zap.String("path", path), zap.Int("count", len(entries)))
	return s, nil
}

// Path returns the file backing the store.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) List(ctx context.Context) ([]wifiapi.SavedNetwork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.snapshot(), nil
}

func (s *FileStore) Add(ctx context.Context, apName, apPass string) (wifiapi.SavedNetwork, error) {
	return s.commit(func(l *savedList) (wifiapi.SavedNetwork, error) {
		return l.add(apName, apPass)
	})
}

func (s *FileStore) DeleteByID(ctx context.Context, id int) (wifiapi.SavedNetwork, error) {
	return s.commit(func(l *savedList) (wifiapi.SavedNetwork, error) {
		return l.remove(func(n wifiapi.SavedNetwork) bool { return n.ID == id })
	})
}

func (s *FileStore) DeleteByAPName(ctx context.Context, apName string) (wifiapi.SavedNetwork, error) {
	return s.commit(func(l *savedList) (wifiapi.SavedNetwork, error) {
		return l.remove(func(n wifiapi.SavedNetwork) bool { return n.APName == apName })
	})
}

// commit applies change to a copy of the list and keeps it only once the
// file has been written.
func (s *FileStore) commit(change func(*savedList) (wifiapi.SavedNetwork, error)) (wifiapi.SavedNetwork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.list.clone()
	n, err := change(&next)
	if err != nil {
		return n, err
	}
	if err := s.write(next.items); err != nil {
		return wifiapi.SavedNetwork{}, err
	}
	s.list = next
	return n, nil
}

func (s *FileStore) Close() error { return nil }

// write stores items in a temp file and renames it over the store.
func (s *FileStore) write(items []wifiapi.SavedNetwork) error {
	entries := make([]fileEntry, 0, len(items))
	for _, n := range items {
		entries = append(entries, fileEntry{ID: n.ID, SSID: n.APName, Password: n.APPass})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode saved networks: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp store file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename store file: %w", err)
	}
	return nil
}

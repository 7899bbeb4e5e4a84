package devicesim

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/muurk/wifipanel/internal/wifiapi"
)

var (
	// ErrDuplicate is returned when adding an apName that is already saved
	ErrDuplicate = errors.New("network already saved")

	// ErrNotFound is returned when deleting a network that is not saved
	ErrNotFound = errors.New("network not saved")
)

// Store persists the saved network list. Lists are returned sorted by
// apName, descending.
type Store interface {
	List(ctx context.Context) ([]wifiapi.SavedNetwork, error)
	Add(ctx context.Context, apName, apPass string) (wifiapi.SavedNetwork, error)
	DeleteByID(ctx context.Context, id int) (wifiapi.SavedNetwork, error)
	DeleteByAPName(ctx context.Context, apName string) (wifiapi.SavedNetwork, error)
	Close() error
}

func sortSaved(list []wifiapi.SavedNetwork) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].APName > list[j].APName
	})
}

// savedList holds the list semantics shared by the memory and file stores.
type savedList struct {
	items  []wifiapi.SavedNetwork
	nextID int
}

func (l *savedList) snapshot() []wifiapi.SavedNetwork {
	out := make([]wifiapi.SavedNetwork, len(l.items))
	copy(out, l.items)
	return out
}

func (l *savedList) clone() savedList {
	return savedList{items: l.snapshot(), nextID: l.nextID}
}

func (l *savedList) add(apName, apPass string) (wifiapi.SavedNetwork, error) {
	for _, n := range l.items {
		if n.APName == apName {
			return wifiapi.SavedNetwork{}, ErrDuplicate
		}
	}

	if l.nextID == 0 {
		l.nextID = 1
		for _, n := range l.items {
			if n.ID >= l.nextID {
				l.nextID = n.ID + 1
			}
		}
	}

	n := wifiapi.SavedNetwork{ID: l.nextID, APName: apName, APPass: apPass}
	l.nextID++
	l.items = append(l.items, n)
	sortSaved(l.items)
	return n, nil
}

func (l *savedList) remove(match func(wifiapi.SavedNetwork) bool) (wifiapi.SavedNetwork, error) {
	for i, n := range l.items {
		if match(n) {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return n, nil
		}
	}
	return wifiapi.SavedNetwork{}, ErrNotFound
}

// MemoryStore keeps the saved list in memory only.
type MemoryStore struct {
	mu   sync.Mutex
	list savedList
}

// NewMemoryStore creates a store seeded with networks.
func NewMemoryStore(seed ...wifiapi.SavedNetwork) *MemoryStore {
	s := &MemoryStore{}
	s.list.items = append(s.list.items, seed...)
	sortSaved(s.list.items)
	return s
}

func (s *MemoryStore) List(ctx context.Context) ([]wifiapi.SavedNetwork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.snapshot(), nil
}

func (s *MemoryStore) Add(ctx context.Context, apName, apPass string) (wifiapi.SavedNetwork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.add(apName, apPass)
}

func (s *MemoryStore) DeleteByID(ctx context.Context, id int) (wifiapi.SavedNetwork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.remove(func(n wifiapi.SavedNetwork) bool { return n.ID == id })
}

func (s *MemoryStore) DeleteByAPName(ctx context.Context, apName string) (wifiapi.SavedNetwork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.remove(func(n wifiapi.SavedNetwork) bool { return n.APName == apName })
}

func (s *MemoryStore) Close() error { return nil }

package catalog

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/flor3z/countdown-bot/internal/duration"
)

// Entry is a named timer.
type Entry struct {
	Name     string
	Duration time.Duration
}

// Items is the item → duration store backed by a JSON object of seconds.
type Items struct {
	path string
	mu   sync.Mutex
}

// NewItems creates an item store for the given file.
func NewItems(path string) *Items {
	return &Items{path: path}
}

func (s *Items) load() map[string]int64 {
	raw := loadJSON[map[string]int64](s.path)

	items := make(map[string]int64, len(raw))
	for name, secs := range raw {
		if secs < 1 {
			slog.Warn("Skipping item with non-positive duration", "item", name, "seconds", secs)
			continue
		}
		items[Normalize(name)] = secs
	}
	return items
}

// Add parses durationText and upserts the item.
func (s *Items) Add(name, durationText string) (Entry, error) {
	name = Normalize(name)
	if name == "" {
		return Entry{}, ErrEmptyName
	}
	d, err := duration.Parse(durationText)
	if err != nil {
		return Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.load()
	items[name] = int64(d / time.Second)
	if err := saveJSON(s.path, items); err != nil {
		return Entry{}, err
	}

	slog.Info("Item stored", "item", name, "seconds", items[name])
	return Entry{Name: name, Duration: time.Duration(items[name]) * time.Second}, nil
}

// Remove deletes the item. ErrNotFound leaves the file untouched.
func (s *Items) Remove(name string) error {
	name = Normalize(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.load()
	if _, ok := items[name]; !ok {
		return fmt.Errorf("item %q: %w", name, ErrNotFound)
	}
	delete(items, name)
	if err := saveJSON(s.path, items); err != nil {
		return err
	}

	slog.Info("Item removed", "item", name)
	return nil
}

// Lookup returns the stored duration for name.
func (s *Items) Lookup(name string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	secs, ok := s.load()[Normalize(name)]
	return time.Duration(secs) * time.Second, ok
}

// List returns all items sorted by name.
func (s *Items) List() []Entry {
	s.mu.Lock()
	items := s.load()
	s.mu.Unlock()

	return sortedEntries(items)
}

func sortedEntries(m map[string]int64) []Entry {
	entries := make([]Entry, 0, len(m))
	for name, secs := range m {
		entries = append(entries, Entry{Name: name, Duration: time.Duration(secs) * time.Second})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

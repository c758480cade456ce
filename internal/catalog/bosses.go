package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/flor3z/countdown-bot/internal/duration"
)

// Confirmer asks the requesting actor whether an existing boss timer should be
// replaced. A timeout or a "no" answer is reported as false with a nil error.
type Confirmer func(ctx context.Context, existing time.Duration) (bool, error)

// AddOutcome describes what AddBoss did.
type AddOutcome int

const (
	OutcomeAdded AddOutcome = iota
	OutcomeReplaced
	OutcomeCancelled
)

// Bosses is the dungeon → boss → duration store.
type Bosses struct {
	path string
	mu   sync.Mutex
}

// NewBosses creates a boss store for the given file.
func NewBosses(path string) *Bosses {
	return &Bosses{path: path}
}

func (s *Bosses) load() map[string]map[string]int64 {
	raw := loadJSON[map[string]map[string]int64](s.path)

	dungeons := make(map[string]map[string]int64, len(raw))
	for dungeon, bosses := range raw {
		key := Normalize(dungeon)
		if dungeons[key] == nil {
			dungeons[key] = make(map[string]int64, len(bosses))
		}
		for boss, secs := range bosses {
			if secs < 1 {
				continue
			}
			dungeons[key][Normalize(boss)] = secs
		}
	}
	return dungeons
}

// AddDungeon creates an empty dungeon.
func (s *Bosses) AddDungeon(name string) error {
	name = Normalize(name)
	if name == "" {
		return ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dungeons := s.load()
	if _, ok := dungeons[name]; ok {
		return fmt.Errorf("dungeon %q: %w", name, ErrExists)
	}
	dungeons[name] = map[string]int64{}
	if err := saveJSON(s.path, dungeons); err != nil {
		return err
	}

	slog.Info("Dungeon added", "dungeon", name)
	return nil
}

// AddBoss stores a boss timer in an existing dungeon. When the boss already
// exists, confirm decides whether it is overwritten.
func (s *Bosses) AddBoss(ctx context.Context, dungeon, boss, durationText string, confirm Confirmer) (AddOutcome, error) {
	dungeon, boss = Normalize(dungeon), Normalize(boss)
	if dungeon == "" || boss == "" {
		return OutcomeCancelled, ErrEmptyName
	}

	d, err := duration.Parse(durationText)
	if err != nil {
		return OutcomeCancelled, err
	}

	s.mu.Lock()
	bosses, found := s.load()[dungeon]
	existing := bosses[boss]
	s.mu.Unlock()

	if !found {
		return OutcomeCancelled, fmt.Errorf("%q: %w", dungeon, ErrDungeonNotFound)
	}

	outcome := OutcomeAdded
	if existing > 0 {
		if confirm == nil {
			return OutcomeCancelled, nil
		}
		// The confirmation wait happens outside the lock.
		yes, err := confirm(ctx, time.Duration(existing)*time.Second)
		if err != nil {
			return OutcomeCancelled, fmt.Errorf("confirmation failed: %w", err)
		}
		if !yes {
			slog.Info("Boss update cancelled", "dungeon", dungeon, "boss", boss)
			return OutcomeCancelled, nil
		}
		outcome = OutcomeReplaced
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dungeons := s.load()
	if _, ok := dungeons[dungeon]; !ok {
		return OutcomeCancelled, fmt.Errorf("%q: %w", dungeon, ErrDungeonNotFound)
	}
	dungeons[dungeon][boss] = int64(d / time.Second)
	if err := saveJSON(s.path, dungeons); err != nil {
		return OutcomeCancelled, err
	}

	slog.Info("Boss stored", "dungeon", dungeon, "boss", boss, "seconds", dungeons[dungeon][boss])
	return outcome, nil
}

// RemoveBoss deletes one boss from a dungeon.
func (s *Bosses) RemoveBoss(dungeon, boss string) error {
	dungeon, boss = Normalize(dungeon), Normalize(boss)

	s.mu.Lock()
	defer s.mu.Unlock()

	dungeons := s.load()
	bosses, ok := dungeons[dungeon]
	if !ok {
		return fmt.Errorf("%q: %w", dungeon, ErrDungeonNotFound)
	}
	if _, ok := bosses[boss]; !ok {
		return fmt.Errorf("boss %q: %w", boss, ErrNotFound)
	}
	delete(bosses, boss)
	return saveJSON(s.path, dungeons)
}

// RemoveDungeon deletes a dungeon and all of its bosses.
func (s *Bosses) RemoveDungeon(dungeon string) error {
	dungeon = Normalize(dungeon)

	s.mu.Lock()
	defer s.mu.Unlock()

	dungeons := s.load()
	if _, ok := dungeons[dungeon]; !ok {
		return fmt.Errorf("%q: %w", dungeon, ErrDungeonNotFound)
	}
	delete(dungeons, dungeon)
	return saveJSON(s.path, dungeons)
}

// Dungeons returns dungeon names in order.
func (s *Bosses) Dungeons() []string {
	s.mu.Lock()
	dungeons := s.load()
	s.mu.Unlock()

	names := make([]string, 0, len(dungeons))
	for name := range dungeons {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the bosses of one dungeon sorted by name.
func (s *Bosses) List(dungeon string) ([]Entry, error) {
	dungeon = Normalize(dungeon)

	s.mu.Lock()
	dungeons := s.load()
	s.mu.Unlock()

	bosses, ok := dungeons[dungeon]
	if !ok {
		return nil, fmt.Errorf("%q: %w", dungeon, ErrDungeonNotFound)
	}
	return sortedEntries(bosses), nil
}

// FindBoss looks a boss up across all dungeons. Dungeons are searched in name
// order so duplicates resolve deterministically.
func (s *Bosses) FindBoss(name string) (string, Entry, bool) {
	name = Normalize(name)

	s.mu.Lock()
	dungeons := s.load()
	s.mu.Unlock()

	names := make([]string, 0, len(dungeons))
	for dungeon := range dungeons {
		names = append(names, dungeon)
	}
	sort.Strings(names)

	for _, dungeon := range names {
		if secs, ok := dungeons[dungeon][name]; ok {
			return dungeon, Entry{Name: name, Duration: time.Duration(secs) * time.Second}, true
		}
	}
	return "", Entry{}, false
}

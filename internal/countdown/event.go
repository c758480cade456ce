package countdown

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrRecordNotFound is returned by an EventStore for an unknown message.
var ErrRecordNotFound = errors.New("countdown record not found")

// EventRecord is the state of one posted countdown message. Remaining time is
// always derived from CreatedAt, never stored as a ticking value.
type EventRecord struct {
	MessageID string
	ChannelID string
	GuildID   string
	// Private marks a per-user claim channel.
	Private bool
	Boss    bool

	ItemName string
	Rarity   string
	Quantity string

	OriginalDuration    time.Duration
	RemainingAtCreation time.Duration
	NegativeOffset      time.Duration

	CreatorName string
	ImageURL    string
	CreatedAt   time.Time
}

// Remaining is the time left at now, truncated to whole seconds and never negative.
func (r *EventRecord) Remaining(now time.Time) time.Duration {
	left := r.RemainingAtCreation - now.Sub(r.CreatedAt)
	if left < 0 {
		return 0
	}
	return left.Truncate(time.Second)
}

// ExpiresAt is the wall-clock spawn time.
func (r *EventRecord) ExpiresAt() time.Time {
	return r.CreatedAt.Add(r.RemainingAtCreation)
}

// successor copies the display metadata into a record for a new message.
func (r *EventRecord) successor(channelID string, private bool, remaining time.Duration) *EventRecord {
	return &EventRecord{
		ChannelID:           channelID,
		GuildID:             r.GuildID,
		Private:             private,
		Boss:                r.Boss,
		ItemName:            r.ItemName,
		Rarity:              r.Rarity,
		Quantity:            r.Quantity,
		OriginalDuration:    r.OriginalDuration,
		RemainingAtCreation: remaining,
		CreatorName:         r.CreatorName,
		ImageURL:            r.ImageURL,
	}
}

// EventStore holds live countdown records keyed by message ID.
type EventStore interface {
	Put(rec *EventRecord) error
	Get(messageID string) (*EventRecord, error)
	// Take removes and returns the record; only one caller can win.
	Take(messageID string) (*EventRecord, error)
	Count() (int, error)
}

// MemoryStore is an in-process EventStore, used when the bot runs without a
// database. Records do not survive a restart.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]EventRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]EventRecord)}
}

func (s *MemoryStore) Put(rec *EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.MessageID] = *rec
	return nil
}

func (s *MemoryStore) Get(messageID string) (*EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[messageID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) Take(messageID string) (*EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[messageID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	delete(s.records, messageID)
	return &rec, nil
}

func (s *MemoryStore) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records), nil
}

// GetByChannel returns the countdowns of a channel that have not expired at
// now, oldest first.
func (s *MemoryStore) GetByChannel(channelID string, now time.Time) ([]*EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []*EventRecord
	for _, rec := range s.records {
		if rec.ChannelID != channelID || !rec.ExpiresAt().After(now) {
			continue
		}
		rec := rec
		records = append(records, &rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.Before(records[j].CreatedAt) })
	return records, nil
}

// PruneExpired drops records that expired before cutoff.
func (s *MemoryStore) PruneExpired(cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, rec := range s.records {
		if rec.ExpiresAt().Before(cutoff) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

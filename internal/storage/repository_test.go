package storage

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/flor3z/countdown-bot/internal/countdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "nested", "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleRecord(id string) *countdown.EventRecord {
	return &countdown.EventRecord{
		MessageID:           id,
		ChannelID:           "chan",
		GuildID:             "guild",
		Private:             true,
		ItemName:            "iron ore",
		Rarity:              "e",
		Quantity:            "4",
		OriginalDuration:    2 * time.Hour,
		RemainingAtCreation: 110 * time.Minute,
		NegativeOffset:      10 * time.Minute,
		CreatorName:         "Ana",
		ImageURL:            "https://cdn/ore.png",
		CreatedAt:           time.Date(2025, 3, 14, 12, 0, 0, 123456789, time.UTC),
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	rec := sampleRecord("m1")

	require.NoError(t, repo.Put(rec))
	got, err := repo.Get("m1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	_, err = repo.Get("missing")
	assert.ErrorIs(t, err, countdown.ErrRecordNotFound)
}

func TestPutReplaces(t *testing.T) {
	repo := newTestRepo(t)
	rec := sampleRecord("m1")
	require.NoError(t, repo.Put(rec))

	rec.ChannelID = "elsewhere"
	require.NoError(t, repo.Put(rec))

	got, err := repo.Get("m1")
	require.NoError(t, err)
	assert.Equal(t, "elsewhere", got.ChannelID)

	n, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTakeIsExclusive(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Put(sampleRecord("m1")))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Take("m1"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	n, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGetByChannel(t *testing.T) {
	repo := newTestRepo(t)
	older := sampleRecord("m1")
	newer := sampleRecord("m2")
	newer.CreatedAt = older.CreatedAt.Add(time.Minute)
	other := sampleRecord("m3")
	other.ChannelID = "other"
	spawned := sampleRecord("m4")
	spawned.CreatedAt = older.CreatedAt.Add(-2 * time.Hour)

	for _, rec := range []*countdown.EventRecord{newer, older, other, spawned} {
		require.NoError(t, repo.Put(rec))
	}

	now := older.CreatedAt.Add(30 * time.Minute)
	got, err := repo.GetByChannel("chan", now)
	require.NoError(t, err)
	require.Len(t, got, 2, "expired countdowns are not listed")
	assert.Equal(t, "m1", got[0].MessageID)
	assert.Equal(t, "m2", got[1].MessageID)

	got, err = repo.GetByChannel("chan", newer.ExpiresAt())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPruneExpired(t *testing.T) {
	repo := newTestRepo(t)
	live := sampleRecord("live")
	old := sampleRecord("old")
	old.CreatedAt = live.CreatedAt.Add(-48 * time.Hour)
	require.NoError(t, repo.Put(live))
	require.NoError(t, repo.Put(old))

	n, err := repo.PruneExpired(live.CreatedAt.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = repo.Get("old")
	assert.ErrorIs(t, err, countdown.ErrRecordNotFound)
	_, err = repo.Get("live")
	assert.NoError(t, err)

	n, err = repo.PruneExpired(live.CreatedAt.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecordsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.db")
	repo, err := NewRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Put(sampleRecord("m1")))
	require.NoError(t, repo.Close())

	reopened, err := NewRepository(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get("m1")
	require.NoError(t, err)
	assert.Equal(t, "iron ore", got.ItemName)
}

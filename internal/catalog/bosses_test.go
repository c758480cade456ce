package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBosses(t *testing.T) *Bosses {
	t.Helper()
	return NewBosses(filepath.Join(t.TempDir(), "bosses.json"))
}

func answer(yes bool, calls *int) Confirmer {
	return func(ctx context.Context, existing time.Duration) (bool, error) {
		*calls++
		return yes, nil
	}
}

func TestBossRequiresDungeon(t *testing.T) {
	bosses := newBosses(t)

	_, err := bosses.AddBoss(context.Background(), "crypt", "lich", "1h", nil)
	assert.ErrorIs(t, err, ErrDungeonNotFound)
}

func TestAddDungeonTwice(t *testing.T) {
	bosses := newBosses(t)
	require.NoError(t, bosses.AddDungeon("Crypt"))
	assert.ErrorIs(t, bosses.AddDungeon("crypt"), ErrExists)
	assert.Equal(t, []string{"crypt"}, bosses.Dungeons())
}

func TestAddBossRoundTrip(t *testing.T) {
	bosses := newBosses(t)
	ctx := context.Background()
	require.NoError(t, bosses.AddDungeon("crypt"))

	calls := 0
	outcome, err := bosses.AddBoss(ctx, "Crypt", "Lich", "1h 30m", answer(true, &calls))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdded, outcome)
	assert.Zero(t, calls, "new boss needs no confirmation")

	list, err := bosses.List("crypt")
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Name: "lich", Duration: 90 * time.Minute}}, list)
}

func TestAddExistingBossDeclinedKeepsValue(t *testing.T) {
	bosses := newBosses(t)
	ctx := context.Background()
	require.NoError(t, bosses.AddDungeon("crypt"))
	_, err := bosses.AddBoss(ctx, "crypt", "lich", "1h", nil)
	require.NoError(t, err)

	calls := 0
	outcome, err := bosses.AddBoss(ctx, "crypt", "lich", "5m", answer(false, &calls))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, outcome)
	assert.Equal(t, 1, calls)

	list, err := bosses.List("crypt")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, list[0].Duration)
}

func TestAddExistingBossConfirmedReplaces(t *testing.T) {
	bosses := newBosses(t)
	ctx := context.Background()
	require.NoError(t, bosses.AddDungeon("crypt"))
	_, err := bosses.AddBoss(ctx, "crypt", "lich", "1h", nil)
	require.NoError(t, err)

	var seen time.Duration
	outcome, err := bosses.AddBoss(ctx, "crypt", "lich", "5m", func(ctx context.Context, existing time.Duration) (bool, error) {
		seen = existing
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeReplaced, outcome)
	assert.Equal(t, time.Hour, seen)

	_, entry, ok := bosses.FindBoss("LICH")
	require.True(t, ok)
	assert.Equal(t, 5*time.Minute, entry.Duration)
}

func TestAddBossConfirmError(t *testing.T) {
	bosses := newBosses(t)
	ctx := context.Background()
	require.NoError(t, bosses.AddDungeon("crypt"))
	_, err := bosses.AddBoss(ctx, "crypt", "lich", "1h", nil)
	require.NoError(t, err)

	boom := errors.New("gateway closed")
	_, err = bosses.AddBoss(ctx, "crypt", "lich", "2h", func(context.Context, time.Duration) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)

	list, _ := bosses.List("crypt")
	assert.Equal(t, time.Hour, list[0].Duration)
}

func TestRemoveBossAndDungeon(t *testing.T) {
	bosses := newBosses(t)
	ctx := context.Background()
	require.NoError(t, bosses.AddDungeon("crypt"))
	_, err := bosses.AddBoss(ctx, "crypt", "lich", "1h", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, bosses.RemoveBoss("crypt", "ghoul"), ErrNotFound)
	require.NoError(t, bosses.RemoveBoss("crypt", "lich"))
	list, err := bosses.List("crypt")
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, bosses.RemoveDungeon("crypt"))
	_, err = bosses.List("crypt")
	assert.ErrorIs(t, err, ErrDungeonNotFound)
}

func TestFindBossPrefersFirstDungeon(t *testing.T) {
	bosses := newBosses(t)
	ctx := context.Background()
	require.NoError(t, bosses.AddDungeon("zul"))
	require.NoError(t, bosses.AddDungeon("abyss"))
	_, err := bosses.AddBoss(ctx, "zul", "golem", "2h", nil)
	require.NoError(t, err)
	_, err = bosses.AddBoss(ctx, "abyss", "golem", "1h", nil)
	require.NoError(t, err)

	dungeon, entry, ok := bosses.FindBoss("golem")
	require.True(t, ok)
	assert.Equal(t, "abyss", dungeon)
	assert.Equal(t, time.Hour, entry.Duration)
}

func TestBossesCorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bosses.json")
	bosses := NewBosses(path)
	require.NoError(t, os.WriteFile(path, []byte(`{"crypt":{"lich":3600},"keep":{"ogre":"1h"}}`), 0644))

	assert.Empty(t, bosses.Dungeons())
	_, _, ok := bosses.FindBoss("lich")
	assert.False(t, ok)
}

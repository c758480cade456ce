package countdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyArgs(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   Args
	}{
		{
			name:   "duration and composite",
			tokens: []string{"5r", "2h"},
			want:   Args{Duration: 2 * time.Hour, Rarity: "r", Quantity: "5"},
		},
		{
			name:   "duration wins over heroic letter",
			tokens: []string{"5h"},
			want:   Args{Duration: 5 * time.Hour},
		},
		{
			name:   "composite with letter first",
			tokens: []string{"h5"},
			want:   Args{Rarity: "h", Quantity: "5"},
		},
		{
			name:   "bare rarity and quantity",
			tokens: []string{"L", "12"},
			want:   Args{Rarity: "l", Quantity: "12"},
		},
		{
			name:   "negative offset in minutes",
			tokens: []string{"-10", "1h30m"},
			want:   Args{Duration: 90 * time.Minute, Offset: 10 * time.Minute},
		},
		{
			name:   "later duplicates ignored",
			tokens: []string{"1h", "2h", "-5", "-20"},
			want:   Args{Duration: time.Hour, Offset: 5 * time.Minute},
		},
		{
			name:   "composite takes first rarity letter",
			tokens: []string{"3ue"},
			want:   Args{Rarity: "u", Quantity: "3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyArgs(tt.tokens)
			assert.Equal(t, tt.want.Duration, got.Duration)
			assert.Equal(t, tt.want.Rarity, got.Rarity)
			assert.Equal(t, tt.want.Quantity, got.Quantity)
			assert.Equal(t, tt.want.Offset, got.Offset)
		})
	}
}

func TestClassifyArgsTokenKinds(t *testing.T) {
	got := ClassifyArgs([]string{"2h", "r5", "e", "7", "-15", "whatever", "3h"})

	kinds := make([]TokenKind, len(got.Tokens))
	for i, tok := range got.Tokens {
		kinds[i] = tok.Kind
	}
	assert.Equal(t, []TokenKind{
		TokenDuration, TokenRarityQuantity, TokenRarity, TokenQuantity, TokenOffset, TokenUnrecognized, TokenDuration,
	}, kinds)

	unused := got.Unused()
	raws := make([]string, len(unused))
	for i, tok := range unused {
		raws[i] = tok.Raw
	}
	assert.Equal(t, []string{"e", "7", "whatever", "3h"}, raws)
	assert.Equal(t, "r", got.Rarity)
	assert.Equal(t, "5", got.Quantity)
}

func TestClassifyArgsSkipsBlankTokens(t *testing.T) {
	got := ClassifyArgs([]string{"", "  "})
	assert.Empty(t, got.Tokens)
}

func TestClassifyZeroOffsetFillsSlot(t *testing.T) {
	got := ClassifyArgs([]string{"-0", "-30", "1h"})

	assert.Zero(t, got.Offset)
	assert.Equal(t, time.Hour, got.Duration)
	require.Len(t, got.Tokens, 3)
	assert.False(t, got.Tokens[0].Ignored)
	assert.True(t, got.Tokens[1].Ignored, "a later offset never replaces an earlier one")
	assert.Equal(t, TokenOffset, got.Tokens[1].Kind)
}

func TestLookupRarity(t *testing.T) {
	r, ok := LookupRarity("E")
	assert.True(t, ok)
	assert.Equal(t, "Epic", r.Name)
	assert.Equal(t, "🟣", r.Glyph)

	none, ok := LookupRarity("")
	assert.True(t, ok)
	assert.True(t, none.IsZero())

	_, ok = LookupRarity("x")
	assert.False(t, ok)
}

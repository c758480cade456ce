package countdown

import "strings"

// Rarity is the display tier of a countdown item. The zero value means no rarity.
type Rarity struct {
	Letter string
	Name   string
	Glyph  string
}

// rarityLetters lists the rarity letters in classifier order.
const rarityLetters = "curhel"

var rarities = map[string]Rarity{
	"c": {Letter: "c", Name: "Common", Glyph: "⚪"},
	"u": {Letter: "u", Name: "Uncommon", Glyph: "🟢"},
	"r": {Letter: "r", Name: "Rare", Glyph: "🔵"},
	"h": {Letter: "h", Name: "Heroic", Glyph: "🟡"},
	"e": {Letter: "e", Name: "Epic", Glyph: "🟣"},
	"l": {Letter: "l", Name: "Legendary", Glyph: "🟠"},
}

// LookupRarity returns the rarity for a letter (case-insensitive).
// The empty letter yields the zero Rarity and true.
func LookupRarity(letter string) (Rarity, bool) {
	letter = strings.ToLower(strings.TrimSpace(letter))
	if letter == "" {
		return Rarity{}, true
	}
	r, ok := rarities[letter]
	return r, ok
}

// IsZero reports whether no rarity is set.
func (r Rarity) IsZero() bool { return r.Letter == "" }

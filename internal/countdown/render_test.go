package countdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRenderEvent(t *testing.T) {
	expires := time.Unix(1700000000, 0)
	rec := &EventRecord{ItemName: "iron ore", Rarity: "l", Quantity: "3", OriginalDuration: 4 * time.Hour}

	got := renderEvent(rec, "Claimed", "Bob", expires)
	want := "🟠 **3x Legendary Iron Ore** 🟠\n" +
		"👤 **Claimed by: Bob**\n" +
		"⏳ **Next spawn at** <t:1700000000:F>\n" +
		"⏳ **Countdown:** <t:1700000000:R>\n" +
		"⏳ **Interval: 4h**"
	assert.Equal(t, want, got)
}

func TestHeaderVariants(t *testing.T) {
	assert.Equal(t, "**Lion**", header(&EventRecord{ItemName: "lion"}))
	assert.Equal(t, "**2x Lion**", header(&EventRecord{ItemName: "lion", Quantity: "2"}))
	assert.Equal(t, "🔴 **Lich King** 🔴", header(&EventRecord{ItemName: "lich king", Boss: true, Rarity: "r"}))
}

func TestRenderReminder(t *testing.T) {
	rec := &EventRecord{
		MessageID:           "m1",
		ChannelID:           "c1",
		GuildID:             "g1",
		ItemName:            "lion",
		CreatedAt:           time.Unix(1700000000, 0),
		RemainingAtCreation: time.Hour,
	}
	got := RenderReminder(rec, []string{"1", "2"})
	assert.Contains(t, got, "<@1> <@2>")
	assert.Contains(t, got, "<t:1700003600:R>")
	assert.Contains(t, got, "https://discord.com/channels/g1/c1/m1")
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Iron Ore", DisplayName("iron ore"))
	assert.Equal(t, "", DisplayName(""))
}

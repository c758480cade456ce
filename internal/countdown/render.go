package countdown

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/flor3z/countdown-bot/internal/duration"
)

const bossGlyph = "🔴"

// DisplayName capitalizes each word of a normalized name.
func DisplayName(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func header(rec *EventRecord) string {
	if rec.Boss {
		return fmt.Sprintf("%s **%s** %s", bossGlyph, DisplayName(rec.ItemName), bossGlyph)
	}

	var parts []string
	if rec.Quantity != "" {
		parts = append(parts, rec.Quantity+"x")
	}
	rarity, _ := LookupRarity(rec.Rarity)
	if !rarity.IsZero() {
		parts = append(parts, rarity.Name)
	}
	parts = append(parts, DisplayName(rec.ItemName))

	title := "**" + strings.Join(parts, " ") + "**"
	if rarity.IsZero() {
		return title
	}
	return fmt.Sprintf("%s %s %s", rarity.Glyph, title, rarity.Glyph)
}

// renderEvent builds the countdown message body.
func renderEvent(rec *EventRecord, verb, actor string, expires time.Time) string {
	ts := expires.Unix()
	var b strings.Builder
	b.WriteString(header(rec) + "\n")
	fmt.Fprintf(&b, "👤 **%s by: %s**\n", verb, actor)
	fmt.Fprintf(&b, "⏳ **Next spawn at** <t:%d:F>\n", ts)
	fmt.Fprintf(&b, "⏳ **Countdown:** <t:%d:R>\n", ts)
	fmt.Fprintf(&b, "⏳ **Interval: %s**", duration.Format(rec.OriginalDuration))
	return b.String()
}

// MessageLink is the jump URL of a message.
func MessageLink(guildID, channelID, messageID string) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

// RenderReminder builds the pre-expiry ping mentioning every subscriber.
func RenderReminder(rec *EventRecord, subscribers []string) string {
	mentions := make([]string, len(subscribers))
	for i, id := range subscribers {
		mentions[i] = "<@" + id + ">"
	}
	return fmt.Sprintf("🔔 %s\n%s spawns <t:%d:R>!\n%s",
		strings.Join(mentions, " "),
		header(rec),
		rec.ExpiresAt().Unix(),
		MessageLink(rec.GuildID, rec.ChannelID, rec.MessageID),
	)
}

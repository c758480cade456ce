package storage

import (
	"time"

	"github.com/flor3z/countdown-bot/internal/countdown"
)

// eventRow is the countdown_events row layout. Durations are whole seconds.
type eventRow struct {
	MessageID        string
	ChannelID        string
	GuildID          string
	Private          bool
	Boss             bool
	ItemName         string
	Rarity           string
	Quantity         string
	OriginalSeconds  int64
	RemainingSeconds int64
	OffsetSeconds    int64
	CreatorName      string
	ImageURL         string
	CreatedAtNano    int64
}

func toRow(rec *countdown.EventRecord) eventRow {
	return eventRow{
		MessageID:        rec.MessageID,
		ChannelID:        rec.ChannelID,
		GuildID:          rec.GuildID,
		Private:          rec.Private,
		Boss:             rec.Boss,
		ItemName:         rec.ItemName,
		Rarity:           rec.Rarity,
		Quantity:         rec.Quantity,
		OriginalSeconds:  int64(rec.OriginalDuration / time.Second),
		RemainingSeconds: int64(rec.RemainingAtCreation / time.Second),
		OffsetSeconds:    int64(rec.NegativeOffset / time.Second),
		CreatorName:      rec.CreatorName,
		ImageURL:         rec.ImageURL,
		CreatedAtNano:    rec.CreatedAt.UnixNano(),
	}
}

func (r eventRow) record() *countdown.EventRecord {
	return &countdown.EventRecord{
		MessageID:           r.MessageID,
		ChannelID:           r.ChannelID,
		GuildID:             r.GuildID,
		Private:             r.Private,
		Boss:                r.Boss,
		ItemName:            r.ItemName,
		Rarity:              r.Rarity,
		Quantity:            r.Quantity,
		OriginalDuration:    time.Duration(r.OriginalSeconds) * time.Second,
		RemainingAtCreation: time.Duration(r.RemainingSeconds) * time.Second,
		NegativeOffset:      time.Duration(r.OffsetSeconds) * time.Second,
		CreatorName:         r.CreatorName,
		ImageURL:            r.ImageURL,
		CreatedAt:           time.Unix(0, r.CreatedAtNano).UTC(),
	}
}

// Package countdown implements the countdown event lifecycle: creating event
// messages, and resetting, sharing, claiming and deleting them in response to
// reactions.
package countdown

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/flor3z/countdown-bot/internal/catalog"
	"github.com/flor3z/countdown-bot/internal/metrics"
)

// Reaction affordances.
const (
	EmojiReset     = "✅"
	EmojiDelete    = "🗑️"
	EmojiSubscribe = "🔔"
	EmojiClaim     = "📥"
)

// ShareTarget maps a share emoji to the common channel it moves events to.
type ShareTarget struct {
	Emoji   string
	Channel string
}

// DefaultShareTargets are the gathering channels.
var DefaultShareTargets = []ShareTarget{
	{Emoji: "⛏️", Channel: "⛏mining-2hours"},
	{Emoji: "🌲", Channel: "🌲woodcutting-4hours"},
	{Emoji: "🌿", Channel: "🌿herbalism-4hours"},
}

// ItemLookup resolves stored item durations.
type ItemLookup interface {
	Lookup(name string) (time.Duration, bool)
}

// BossLookup resolves stored dungeon and boss durations.
type BossLookup interface {
	List(dungeon string) ([]catalog.Entry, error)
	FindBoss(name string) (string, catalog.Entry, bool)
}

// Options tunes an Engine.
type Options struct {
	ShareTargets []ShareTarget
	// DefaultRarity applies when a command names no rarity; empty means none.
	DefaultRarity string
	Now           func() time.Time
}

// Actor is the user behind a command or reaction.
type Actor struct {
	ID   string
	Name string
}

// Reaction is a reaction added to or removed from a message.
type Reaction struct {
	GuildID   string
	ChannelID string
	MessageID string
	Emoji     string
	Actor     Actor
	Added     bool
}

// CreateRequest is a parsed countdown command.
type CreateRequest struct {
	GuildID   string
	ChannelID string
	Private   bool
	ActorName string
	ItemName  string
	Args      []string
	ImageURL  string
}

// SpawnRequest asks for boss countdowns by dungeon or boss name.
type SpawnRequest struct {
	GuildID   string
	ChannelID string
	Private   bool
	ActorName string
	Name      string
}

// Engine drives countdown records through their lifecycle.
type Engine struct {
	platform Platform
	events   EventStore
	pings    *Subscriptions
	items    ItemLookup
	bosses   BossLookup
	opts     Options
}

// New creates an Engine.
func New(platform Platform, events EventStore, pings *Subscriptions, items ItemLookup, bosses BossLookup, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ShareTargets == nil {
		opts.ShareTargets = DefaultShareTargets
	}
	return &Engine{
		platform: platform,
		events:   events,
		pings:    pings,
		items:    items,
		bosses:   bosses,
		opts:     opts,
	}
}

// Subscriptions returns the reminder subscription table.
func (e *Engine) Subscriptions() *Subscriptions {
	return e.pings
}

// Create posts a new countdown for an item.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (*EventRecord, error) {
	name := catalog.Normalize(req.ItemName)
	if name == "" {
		return nil, inputError("❌ **Invalid format!** Give an item name, then optional rarity/amount, time and `-minutes`.")
	}

	args := ClassifyArgs(req.Args)
	for _, tok := range args.Unused() {
		reason := "unrecognized"
		if tok.Ignored {
			reason = "duplicate"
		}
		slog.Warn("Ignoring countdown token", "item", name, "token", tok.Raw, "kind", tok.Kind.String(), "reason", reason)
		metrics.IgnoredToken(reason)
	}

	d := args.Duration
	if d == 0 {
		stored, ok := e.items.Lookup(name)
		if !ok {
			return nil, inputError(fmt.Sprintf("❌ **%s** is not stored! Give it a time, e.g. `%s 2h`, or add it first.", DisplayName(name), name))
		}
		d = stored
	}
	if args.Offset >= d {
		return nil, inputError(fmt.Sprintf("❌ Offset of %d minutes is longer than the %s interval.", int64(args.Offset/time.Minute), DisplayName(name)))
	}

	rarity := args.Rarity
	if rarity == "" {
		rarity = e.opts.DefaultRarity
	}

	rec := &EventRecord{
		ChannelID:           req.ChannelID,
		GuildID:             req.GuildID,
		Private:             req.Private,
		ItemName:            name,
		Rarity:              rarity,
		Quantity:            args.Quantity,
		OriginalDuration:    d,
		RemainingAtCreation: d - args.Offset,
		NegativeOffset:      args.Offset,
		CreatorName:         req.ActorName,
		ImageURL:            req.ImageURL,
	}
	if err := e.post(ctx, rec, "Posted", req.ActorName); err != nil {
		return nil, err
	}

	metrics.Transition("create")
	slog.Info("Countdown created", "item", name, "message", rec.MessageID, "remaining", rec.RemainingAtCreation)
	return rec, nil
}

// SpawnBossCountdowns treats req.Name as a dungeon first, then as a boss.
func (e *Engine) SpawnBossCountdowns(ctx context.Context, req SpawnRequest) ([]*EventRecord, error) {
	if _, err := e.bosses.List(req.Name); err == nil {
		return e.SpawnDungeon(ctx, req)
	}
	rec, err := e.SpawnBoss(ctx, req)
	if err != nil {
		return nil, err
	}
	return []*EventRecord{rec}, nil
}

// SpawnDungeon posts a countdown for every boss in a dungeon.
func (e *Engine) SpawnDungeon(ctx context.Context, req SpawnRequest) ([]*EventRecord, error) {
	entries, err := e.bosses.List(req.Name)
	if errors.Is(err, catalog.ErrDungeonNotFound) {
		return nil, inputError(fmt.Sprintf("❌ **%s** is not a valid dungeon!", DisplayName(catalog.Normalize(req.Name))))
	}
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, inputError(fmt.Sprintf("❌ **%s** has no bosses yet.", DisplayName(catalog.Normalize(req.Name))))
	}

	records := make([]*EventRecord, 0, len(entries))
	for _, entry := range entries {
		rec, err := e.spawnBoss(ctx, req, entry)
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// SpawnBoss posts a countdown for a single boss found in any dungeon.
func (e *Engine) SpawnBoss(ctx context.Context, req SpawnRequest) (*EventRecord, error) {
	_, entry, ok := e.bosses.FindBoss(req.Name)
	if !ok {
		return nil, inputError(fmt.Sprintf("❌ **%s** is not a valid dungeon or boss!", DisplayName(catalog.Normalize(req.Name))))
	}
	return e.spawnBoss(ctx, req, entry)
}

func (e *Engine) spawnBoss(ctx context.Context, req SpawnRequest, entry catalog.Entry) (*EventRecord, error) {
	rec := &EventRecord{
		ChannelID:           req.ChannelID,
		GuildID:             req.GuildID,
		Private:             req.Private,
		Boss:                true,
		ItemName:            entry.Name,
		OriginalDuration:    entry.Duration,
		RemainingAtCreation: entry.Duration,
		CreatorName:         req.ActorName,
	}
	if err := e.post(ctx, rec, "Posted", req.ActorName); err != nil {
		return nil, err
	}
	metrics.Transition("spawn")
	return rec, nil
}

// HandleReaction routes a reaction on a tracked countdown message. Reactions
// on unknown messages are ignored.
func (e *Engine) HandleReaction(ctx context.Context, r Reaction) error {
	emoji := normalizeEmoji(r.Emoji)

	if emoji == normalizeEmoji(EmojiSubscribe) {
		if !r.Added {
			e.pings.Remove(r.MessageID, r.Actor.ID)
			return nil
		}
		if _, err := e.events.Get(r.MessageID); err != nil {
			return ignoreMissing(err)
		}
		if e.pings.Add(r.MessageID, r.Actor.ID) {
			slog.Info("Reminder subscribed", "message", r.MessageID, "user", r.Actor.Name)
		}
		return nil
	}
	if !r.Added {
		return nil
	}

	rec, err := e.events.Get(r.MessageID)
	if err != nil {
		return ignoreMissing(err)
	}

	switch {
	case emoji == normalizeEmoji(EmojiReset):
		_, err = e.Reset(ctx, r.MessageID, r.Actor)
	case emoji == normalizeEmoji(EmojiDelete):
		err = e.Delete(ctx, r.MessageID, r.Actor)
	case emoji == normalizeEmoji(EmojiClaim) && !rec.Private:
		_, err = e.Claim(ctx, r.MessageID, r.Actor)
	case rec.Private:
		if _, ok := e.shareTarget(emoji); ok {
			_, err = e.Share(ctx, r.MessageID, r.Emoji, r.Actor)
		}
	}
	return err
}

// Reset reposts the countdown in place with its full original duration.
func (e *Engine) Reset(ctx context.Context, messageID string, actor Actor) (*EventRecord, error) {
	return e.transition(ctx, transition{
		kind:    "reset",
		verb:    "Reset",
		actor:   actor,
		message: messageID,
		destination: func(ctx context.Context, rec *EventRecord) (string, bool, error) {
			return rec.ChannelID, rec.Private, nil
		},
		remaining: func(rec *EventRecord, now time.Time) time.Duration {
			return rec.OriginalDuration
		},
	})
}

// Share moves a countdown to the common channel bound to emoji, keeping the
// time left.
func (e *Engine) Share(ctx context.Context, messageID, emoji string, actor Actor) (*EventRecord, error) {
	target, ok := e.shareTarget(normalizeEmoji(emoji))
	if !ok {
		return nil, fmt.Errorf("no share channel for %q: %w", emoji, ErrNoDestination)
	}
	return e.transition(ctx, transition{
		kind:    "share",
		verb:    "Shared",
		actor:   actor,
		message: messageID,
		destination: func(ctx context.Context, rec *EventRecord) (string, bool, error) {
			id, err := e.platform.SharedChannel(ctx, rec.GuildID, target.Channel)
			return id, false, err
		},
		remaining: (*EventRecord).Remaining,
	})
}

// Claim moves a countdown to the actor's private channel, keeping the time left.
func (e *Engine) Claim(ctx context.Context, messageID string, actor Actor) (*EventRecord, error) {
	return e.transition(ctx, transition{
		kind:    "claim",
		verb:    "Claimed",
		actor:   actor,
		message: messageID,
		destination: func(ctx context.Context, rec *EventRecord) (string, bool, error) {
			id, err := e.platform.PrivateChannel(ctx, rec.GuildID, actor.ID, actor.Name)
			return id, true, err
		},
		remaining: (*EventRecord).Remaining,
	})
}

// Delete removes the countdown message, its record and its subscriptions.
// Deleting an already-deleted countdown is a no-op.
func (e *Engine) Delete(ctx context.Context, messageID string, actor Actor) error {
	rec, err := e.events.Take(messageID)
	if err != nil {
		return ignoreMissing(err)
	}

	err = e.platform.Delete(ctx, rec.ChannelID, rec.MessageID)
	if err != nil && !errors.Is(err, ErrMessageNotFound) {
		e.restore(rec)
		metrics.Aborted("delete", "platform")
		return fmt.Errorf("failed to delete countdown message: %w", err)
	}

	e.pings.Clear(messageID)
	e.recordLive()
	metrics.Transition("delete")
	slog.Info("Countdown deleted", "item", rec.ItemName, "message", messageID, "by", actor.Name)
	return nil
}

type transition struct {
	kind        string
	verb        string
	actor       Actor
	message     string
	destination func(ctx context.Context, rec *EventRecord) (channelID string, private bool, err error)
	remaining   func(rec *EventRecord, now time.Time) time.Duration
}

// transition replaces a countdown message with a new one. The record is taken
// out of the store first so concurrent reactions on the same message cannot
// both act on it; any failure before the new message exists puts it back.
func (e *Engine) transition(ctx context.Context, t transition) (*EventRecord, error) {
	rec, err := e.events.Take(t.message)
	if errors.Is(err, ErrRecordNotFound) {
		metrics.Aborted(t.kind, "gone")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := e.platform.Fetch(ctx, rec.ChannelID, rec.MessageID); err != nil {
		if errors.Is(err, ErrMessageNotFound) {
			slog.Debug("Countdown message already removed", "message", rec.MessageID, "kind", t.kind)
			e.pings.Clear(rec.MessageID)
			e.recordLive()
			metrics.Aborted(t.kind, "gone")
			return nil, nil
		}
		e.restore(rec)
		metrics.Aborted(t.kind, "platform")
		return nil, fmt.Errorf("failed to fetch countdown message: %w", err)
	}

	channelID, private, err := t.destination(ctx, rec)
	if err != nil || channelID == "" {
		e.restore(rec)
		metrics.Aborted(t.kind, "destination")
		if err == nil {
			err = ErrNoDestination
		}
		return nil, fmt.Errorf("%s %s: %w", t.kind, rec.ItemName, err)
	}

	next := rec.successor(channelID, private, t.remaining(rec, e.opts.Now()))
	if err := e.post(ctx, next, t.verb, t.actor.Name); err != nil {
		e.restore(rec)
		metrics.Aborted(t.kind, "post")
		return nil, err
	}

	if err := e.platform.Delete(ctx, rec.ChannelID, rec.MessageID); err != nil {
		switch {
		case errors.Is(err, ErrMessageNotFound):
		case errors.Is(err, ErrForbidden):
			slog.Warn("No permission to delete old countdown message", "channel", rec.ChannelID, "message", rec.MessageID)
		default:
			slog.Error("Failed to delete old countdown message", "message", rec.MessageID, "error", err)
		}
	}
	e.pings.Clear(rec.MessageID)

	metrics.Transition(t.kind)
	slog.Info("Countdown transitioned",
		"kind", t.kind,
		"item", rec.ItemName,
		"from", rec.MessageID,
		"to", next.MessageID,
		"remaining", next.RemainingAtCreation,
		"by", t.actor.Name,
	)
	return next, nil
}

// post sends the message for rec, stores it under the new message ID and
// adds the reaction affordances. The record counts down from the time the
// platform reports for the post, falling back to the engine clock.
func (e *Engine) post(ctx context.Context, rec *EventRecord, verb, actor string) error {
	now := e.opts.Now()
	content := renderEvent(rec, verb, actor, now.Add(rec.RemainingAtCreation))

	posted, err := e.platform.Send(ctx, rec.ChannelID, Outgoing{Content: content, ImageURL: rec.ImageURL})
	if err != nil {
		return fmt.Errorf("failed to post countdown: %w", err)
	}
	rec.MessageID = posted.ID
	rec.CreatedAt = now
	if !posted.Timestamp.IsZero() {
		rec.CreatedAt = posted.Timestamp
	}

	if err := e.events.Put(rec); err != nil {
		return fmt.Errorf("failed to store countdown: %w", err)
	}
	e.recordLive()

	for _, emoji := range e.affordances(rec) {
		if err := e.platform.React(ctx, rec.ChannelID, rec.MessageID, emoji); err != nil {
			slog.Warn("Failed to add reaction", "message", rec.MessageID, "emoji", emoji, "error", err)
			if errors.Is(err, ErrMessageNotFound) {
				break
			}
		}
	}
	return nil
}

// affordances lists the reactions a record exposes. Common channels offer
// claim; private channels offer the share targets instead.
func (e *Engine) affordances(rec *EventRecord) []string {
	emojis := []string{EmojiReset, EmojiDelete, EmojiSubscribe}
	if rec.Private {
		for _, t := range e.opts.ShareTargets {
			emojis = append(emojis, t.Emoji)
		}
		return emojis
	}
	return append(emojis, EmojiClaim)
}

func (e *Engine) shareTarget(emoji string) (ShareTarget, bool) {
	for _, t := range e.opts.ShareTargets {
		if normalizeEmoji(t.Emoji) == emoji {
			return t, true
		}
	}
	return ShareTarget{}, false
}

func (e *Engine) restore(rec *EventRecord) {
	if err := e.events.Put(rec); err != nil {
		slog.Error("Failed to restore countdown record", "message", rec.MessageID, "error", err)
	}
}

func (e *Engine) recordLive() {
	if n, err := e.events.Count(); err == nil {
		metrics.SetLiveEvents(n)
	}
}

func ignoreMissing(err error) error {
	if errors.Is(err, ErrRecordNotFound) {
		return nil
	}
	return err
}

// normalizeEmoji drops variation selectors, which the gateway may or may not
// include ("🗑" vs "🗑️").
func normalizeEmoji(s string) string {
	return strings.ReplaceAll(s, "\uFE0F", "")
}

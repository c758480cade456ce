package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/flor3z/countdown-bot/internal/catalog"
	"github.com/flor3z/countdown-bot/internal/countdown"
	"github.com/flor3z/countdown-bot/internal/duration"
)

// maxMessageLen keeps list replies under Discord's 2000 character limit
const maxMessageLen = 1900

const (
	emojiConfirm = "👍"
	emojiCancel  = "👎"
)

type command struct {
	usage       string
	description string
	run         func(ctx context.Context, m *discordgo.MessageCreate, args []string)
}

// commandTable maps command names to their handlers
func (b *Bot) commandTable() map[string]command {
	return map[string]command{
		"cd": {
			usage:       "cd <item> [rarity/amount] [time] [-minutes]",
			description: "Start a countdown; attach an image to show it on the timer",
			run:         b.handleCountdown,
		},
		"add": {
			usage:       "add <item> <time>",
			description: "Store an item's default time",
			run:         b.handleAdd,
		},
		"del": {
			usage:       "del <item>",
			description: "Remove a stored item",
			run:         b.handleDel,
		},
		"list": {
			usage:       "list",
			description: "List stored items",
			run:         b.handleList,
		},
		"b": {
			usage:       "b <dungeon|boss> | b add <dungeon> [<boss> <time>] | b del <dungeon> [boss] | b list [dungeon]",
			description: "Boss timers",
			run:         b.handleBoss,
		},
		"active": {
			usage:       "active",
			description: "List running countdowns in this channel",
			run:         b.handleActive,
		},
		"help": {
			usage:       "help",
			description: "Show this message",
			run:         b.handleHelp,
		},
	}
}

// handleCountdown handles the cd command
func (b *Bot) handleCountdown(ctx context.Context, m *discordgo.MessageCreate, args []string) {
	if len(args) == 0 {
		b.replyError(ctx, m, b.usage("cd"))
		return
	}

	_, err := b.engine.Create(ctx, countdown.CreateRequest{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		Private:   b.platform.IsPrivate(m.ChannelID),
		ActorName: memberName(m.Member, m.Author),
		ItemName:  args[0],
		Args:      args[1:],
		ImageURL:  imageURL(m.Attachments),
	})
	if err != nil {
		b.replyFailure(ctx, m, "create countdown", err)
		return
	}
	b.deleteCommand(ctx, m)
}

// handleAdd handles the add command
func (b *Bot) handleAdd(ctx context.Context, m *discordgo.MessageCreate, args []string) {
	if len(args) < 2 {
		b.replyError(ctx, m, b.usage("add"))
		return
	}

	entry, err := b.items.Add(args[0], strings.Join(args[1:], " "))
	if err != nil {
		b.replyFailure(ctx, m, "add item", err)
		return
	}
	b.reply(ctx, m, fmt.Sprintf("✅ **%s** added with a duration of `%s`.", countdown.DisplayName(entry.Name), duration.Format(entry.Duration)))
}

// handleDel handles the del command
func (b *Bot) handleDel(ctx context.Context, m *discordgo.MessageCreate, args []string) {
	if len(args) == 0 {
		b.replyError(ctx, m, b.usage("del"))
		return
	}

	name := strings.Join(args, " ")
	if err := b.items.Remove(name); err != nil {
		b.replyFailure(ctx, m, "remove item", err)
		return
	}
	b.reply(ctx, m, fmt.Sprintf("🗑️ **%s** removed.", countdown.DisplayName(catalog.Normalize(name))))
}

// handleList handles the list command
func (b *Bot) handleList(ctx context.Context, m *discordgo.MessageCreate, _ []string) {
	entries := b.items.List()
	if len(entries) == 0 {
		b.replyDismissable(ctx, m, "No items are stored yet. Use `"+b.config.CommandPrefix+"add <item> <time>` to add one!")
		return
	}
	b.replyDismissable(ctx, m, formatEntries("**Stored Items:**", entries)...)
}

// handleBoss handles the b command and its subcommands
func (b *Bot) handleBoss(ctx context.Context, m *discordgo.MessageCreate, args []string) {
	if len(args) == 0 {
		b.replyError(ctx, m, b.usage("b"))
		return
	}

	switch strings.ToLower(args[0]) {
	case "add":
		b.handleBossAdd(ctx, m, args[1:])
	case "del":
		b.handleBossDel(ctx, m, args[1:])
	case "list":
		b.handleBossList(ctx, m, args[1:])
	default:
		b.handleBossSpawn(ctx, m, strings.Join(args, " "))
	}
}

func (b *Bot) handleBossAdd(ctx context.Context, m *discordgo.MessageCreate, args []string) {
	switch {
	case len(args) == 1:
		if err := b.bosses.AddDungeon(args[0]); err != nil {
			b.replyFailure(ctx, m, "add dungeon", err)
			return
		}
		b.reply(ctx, m, fmt.Sprintf("✅ Dungeon **%s** added.", countdown.DisplayName(catalog.Normalize(args[0]))))
	case len(args) >= 3:
		dungeon, boss := args[0], args[1]
		outcome, err := b.bosses.AddBoss(ctx, dungeon, boss, strings.Join(args[2:], " "), b.confirmOverwrite(m, boss))
		if err != nil {
			b.replyFailure(ctx, m, "add boss", err)
			return
		}
		name := countdown.DisplayName(catalog.Normalize(boss))
		switch outcome {
		case catalog.OutcomeAdded:
			b.reply(ctx, m, fmt.Sprintf("✅ **%s** added to **%s**.", name, countdown.DisplayName(catalog.Normalize(dungeon))))
		case catalog.OutcomeReplaced:
			b.reply(ctx, m, fmt.Sprintf("✅ **%s** updated.", name))
		case catalog.OutcomeCancelled:
			b.replyError(ctx, m, fmt.Sprintf("❎ **%s** was not changed.", name))
		}
	default:
		b.replyError(ctx, m, b.usage("b"))
	}
}

// confirmOverwrite asks the command author to approve replacing a boss timer
func (b *Bot) confirmOverwrite(m *discordgo.MessageCreate, boss string) catalog.Confirmer {
	return func(ctx context.Context, existing time.Duration) (bool, error) {
		prompt, err := b.platform.Send(ctx, m.ChannelID, countdown.Outgoing{Content: fmt.Sprintf(
			"⚠️ **%s** already exists with `%s`. React %s to overwrite or %s to cancel.",
			countdown.DisplayName(catalog.Normalize(boss)), duration.Format(existing), emojiConfirm, emojiCancel,
		)})
		if err != nil {
			return false, err
		}
		defer func() {
			if err := b.platform.Delete(context.WithoutCancel(ctx), m.ChannelID, prompt.ID); err != nil && !errors.Is(err, countdown.ErrMessageNotFound) {
				slog.Warn("Failed to remove confirmation prompt", "message", prompt.ID, "error", err)
			}
		}()

		for _, emoji := range []string{emojiConfirm, emojiCancel} {
			if err := b.platform.React(ctx, m.ChannelID, prompt.ID, emoji); err != nil {
				return false, err
			}
		}

		answer, ok := b.waiter.Wait(ctx, prompt.ID, m.Author.ID, []string{emojiConfirm, emojiCancel}, b.config.ConfirmTimeout)
		if !ok {
			slog.Info("Boss overwrite confirmation timed out", "boss", boss, "user", m.Author.Username)
			return false, nil
		}
		return answer == emojiConfirm, nil
	}
}

func (b *Bot) handleBossDel(ctx context.Context, m *discordgo.MessageCreate, args []string) {
	switch len(args) {
	case 1:
		if err := b.bosses.RemoveDungeon(args[0]); err != nil {
			b.replyFailure(ctx, m, "remove dungeon", err)
			return
		}
		b.reply(ctx, m, fmt.Sprintf("🗑️ Dungeon **%s** removed.", countdown.DisplayName(catalog.Normalize(args[0]))))
	case 2:
		if err := b.bosses.RemoveBoss(args[0], args[1]); err != nil {
			b.replyFailure(ctx, m, "remove boss", err)
			return
		}
		b.reply(ctx, m, fmt.Sprintf("🗑️ **%s** removed from **%s**.",
			countdown.DisplayName(catalog.Normalize(args[1])), countdown.DisplayName(catalog.Normalize(args[0]))))
	default:
		b.replyError(ctx, m, b.usage("b"))
	}
}

func (b *Bot) handleBossList(ctx context.Context, m *discordgo.MessageCreate, args []string) {
	if len(args) == 0 {
		dungeons := b.bosses.Dungeons()
		if len(dungeons) == 0 {
			b.replyDismissable(ctx, m, "No dungeons are stored yet.")
			return
		}
		lines := []string{"**Dungeons:**"}
		for _, d := range dungeons {
			lines = append(lines, "• "+countdown.DisplayName(d))
		}
		b.replyDismissable(ctx, m, chunkLines(lines, maxMessageLen)...)
		return
	}

	dungeon := strings.Join(args, " ")
	entries, err := b.bosses.List(dungeon)
	if err != nil {
		b.replyFailure(ctx, m, "list bosses", err)
		return
	}
	title := fmt.Sprintf("**%s:**", countdown.DisplayName(catalog.Normalize(dungeon)))
	if len(entries) == 0 {
		b.replyDismissable(ctx, m, title+" no bosses yet.")
		return
	}
	b.replyDismissable(ctx, m, formatEntries(title, entries)...)
}

func (b *Bot) handleBossSpawn(ctx context.Context, m *discordgo.MessageCreate, name string) {
	_, err := b.engine.SpawnBossCountdowns(ctx, countdown.SpawnRequest{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		Private:   b.platform.IsPrivate(m.ChannelID),
		ActorName: memberName(m.Member, m.Author),
		Name:      name,
	})
	if err != nil {
		b.replyFailure(ctx, m, "spawn boss countdowns", err)
		return
	}
	b.deleteCommand(ctx, m)
}

// handleActive handles the active command
func (b *Bot) handleActive(ctx context.Context, m *discordgo.MessageCreate, _ []string) {
	records, err := b.events.GetByChannel(m.ChannelID, time.Now())
	if err != nil {
		b.replyFailure(ctx, m, "list countdowns", err)
		return
	}
	if len(records) == 0 {
		b.replyDismissable(ctx, m, "No countdowns are running in this channel.")
		return
	}

	lines := []string{"**Running Countdowns:**"}
	for _, rec := range records {
		lines = append(lines, fmt.Sprintf("• **%s** <t:%d:R> %s",
			countdown.DisplayName(rec.ItemName),
			rec.ExpiresAt().Unix(),
			countdown.MessageLink(rec.GuildID, rec.ChannelID, rec.MessageID),
		))
	}
	b.replyDismissable(ctx, m, chunkLines(lines, maxMessageLen)...)
}

// handleHelp handles the help command
func (b *Bot) handleHelp(ctx context.Context, m *discordgo.MessageCreate, _ []string) {
	names := make([]string, 0, len(b.commands))
	for name := range b.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := []string{"**Commands:**"}
	for _, name := range names {
		cmd := b.commands[name]
		lines = append(lines, fmt.Sprintf("`%s%s`\n  %s", b.config.CommandPrefix, cmd.usage, cmd.description))
	}
	lines = append(lines, "", "Rarity letters: c u r h e l. React ✅ reset, 🗑️ delete, 🔔 remind me, 📥 claim.")
	b.replyDismissable(ctx, m, chunkLines(lines, maxMessageLen)...)
}

// Helper functions

func (b *Bot) usage(name string) string {
	return fmt.Sprintf("❌ **Usage:** `%s%s`", b.config.CommandPrefix, b.commands[name].usage)
}

// userMessage maps a failure to the reply shown to the user. The bool is
// false when the error is internal and should be logged.
func userMessage(err error) (string, bool) {
	var inputErr *countdown.InputError
	switch {
	case errors.As(err, &inputErr):
		return inputErr.Msg, true
	case errors.Is(err, duration.ErrInvalid):
		return "❌ **Invalid format!** Time must use `h`, `m` or `s`, e.g. `1h` or `1h 30m`.", true
	case errors.Is(err, catalog.ErrEmptyName):
		return "❌ A name is required.", true
	case errors.Is(err, catalog.ErrDungeonNotFound):
		return "❌ That dungeon does not exist.", true
	case errors.Is(err, catalog.ErrNotFound):
		return "⚠️ Nothing stored under that name.", true
	case errors.Is(err, catalog.ErrExists):
		return "⚠️ That already exists.", true
	case errors.Is(err, countdown.ErrForbidden):
		return "❌ I am missing permissions for that.", false
	case errors.Is(err, countdown.ErrNoDestination):
		return "❌ The destination channel could not be found.", false
	}
	return "❌ Something went wrong. Please try again.", false
}

func (b *Bot) replyFailure(ctx context.Context, m *discordgo.MessageCreate, action string, err error) {
	msg, expected := userMessage(err)
	if !expected {
		slog.Error("Command failed", "action", action, "guild", m.GuildID, "channel", m.ChannelID, "error", err)
	}
	b.replyError(ctx, m, msg)
}

func (b *Bot) reply(ctx context.Context, m *discordgo.MessageCreate, content string) (countdown.Posted, bool) {
	posted, err := b.platform.Send(ctx, m.ChannelID, countdown.Outgoing{Content: content})
	if err != nil {
		slog.Error("Failed to send reply", "channel", m.ChannelID, "error", err)
		return countdown.Posted{}, false
	}
	return posted, true
}

// replyError sends a reply that the author can clear together with the
// command by reacting 🗑️
func (b *Bot) replyError(ctx context.Context, m *discordgo.MessageCreate, content string) {
	b.replyDismissable(ctx, m, content)
}

func (b *Bot) replyDismissable(ctx context.Context, m *discordgo.MessageCreate, contents ...string) {
	ids := make([]string, 0, len(contents))
	for _, content := range contents {
		posted, ok := b.reply(ctx, m, content)
		if !ok {
			continue
		}
		ids = append(ids, posted.ID)
		if err := b.platform.React(ctx, m.ChannelID, posted.ID, countdown.EmojiDelete); err != nil {
			slog.Warn("Failed to add dismiss reaction", "message", posted.ID, "error", err)
		}
	}
	b.dismissals.Track(m.ChannelID, m.ID, ids...)
}

func (b *Bot) deleteCommand(ctx context.Context, m *discordgo.MessageCreate) {
	err := b.platform.Delete(ctx, m.ChannelID, m.ID)
	switch {
	case err == nil, errors.Is(err, countdown.ErrMessageNotFound):
	case errors.Is(err, countdown.ErrForbidden):
		slog.Warn("No permission to delete command message", "channel", m.ChannelID)
	default:
		slog.Error("Failed to delete command message", "message", m.ID, "error", err)
	}
}

// imageURL returns the first image attachment, if any
func imageURL(attachments []*discordgo.MessageAttachment) string {
	for _, a := range attachments {
		if a == nil {
			continue
		}
		if a.ContentType == "" || strings.HasPrefix(a.ContentType, "image/") {
			return a.URL
		}
	}
	return ""
}

func formatEntries(title string, entries []catalog.Entry) []string {
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, title)
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("• **%s**: `%s`", countdown.DisplayName(e.Name), duration.Format(e.Duration)))
	}
	return chunkLines(lines, maxMessageLen)
}

// chunkLines joins lines into messages no longer than limit
func chunkLines(lines []string, limit int) []string {
	var chunks []string
	var cur strings.Builder
	for _, line := range lines {
		if cur.Len() > 0 && cur.Len()+1+len(line) > limit {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n")
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

package bot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/flor3z/countdown-bot/internal/countdown"
)

func (b *Bot) handleReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if b.fromSelf(s, r.UserID) || (r.Member != nil && r.Member.User != nil && r.Member.User.Bot) {
		return
	}

	if b.waiter.Dispatch(r.MessageID, r.UserID, r.Emoji.Name) {
		return
	}

	if normalize(r.Emoji.Name) == normalize(countdown.EmojiDelete) {
		if group, ok := b.dismissals.Pop(r.MessageID); ok {
			b.dismiss(group)
			return
		}
	}

	var user *discordgo.User
	if r.Member != nil {
		user = r.Member.User
	}
	b.dispatchReaction(r.MessageReaction, countdown.Actor{ID: r.UserID, Name: memberName(r.Member, user)}, true)
}

func (b *Bot) handleReactionRemove(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	if b.fromSelf(s, r.UserID) {
		return
	}
	b.dispatchReaction(r.MessageReaction, countdown.Actor{ID: r.UserID}, false)
}

func (b *Bot) dispatchReaction(r *discordgo.MessageReaction, actor countdown.Actor, added bool) {
	log := slog.With("corr", uuid.NewString(), "message", r.MessageID, "emoji", r.Emoji.Name, "added", added)
	log.Debug("Received reaction", "user", actor.ID)

	ctx, cancel := context.WithTimeout(b.ctx, handlerTimeout)
	defer cancel()

	err := b.engine.HandleReaction(ctx, countdown.Reaction{
		GuildID:   r.GuildID,
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		Emoji:     r.Emoji.Name,
		Actor:     actor,
		Added:     added,
	})
	switch {
	case err == nil:
	case errors.Is(err, countdown.ErrForbidden):
		log.Warn("Missing permission for countdown reaction", "error", err)
	case errors.Is(err, countdown.ErrNoDestination):
		log.Warn("No destination for countdown", "error", err)
	default:
		log.Error("Failed to handle countdown reaction", "error", err)
	}
}

// dismiss deletes a tracked reply group together with its command message
func (b *Bot) dismiss(group *dismissal) {
	ctx, cancel := context.WithTimeout(b.ctx, handlerTimeout)
	defer cancel()

	for _, id := range group.messageIDs() {
		if err := b.platform.Delete(ctx, group.channelID, id); err != nil && !errors.Is(err, countdown.ErrMessageNotFound) {
			slog.Warn("Failed to dismiss message", "channel", group.channelID, "message", id, "error", err)
		}
	}
}

func (b *Bot) fromSelf(s *discordgo.Session, userID string) bool {
	return s.State != nil && s.State.User != nil && s.State.User.ID == userID
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/flor3z/countdown-bot/internal/countdown"
)

// discordPlatform implements countdown.Platform on a discordgo session
type discordPlatform struct {
	session       *discordgo.Session
	claimCategory string

	// serializes claim channel creation so one user never gets two channels
	claimMu sync.Mutex
}

var _ countdown.Platform = (*discordPlatform)(nil)

func newDiscordPlatform(session *discordgo.Session, claimCategory string) *discordPlatform {
	return &discordPlatform{session: session, claimCategory: claimCategory}
}

// mapError translates REST failures into the countdown error taxonomy
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w", countdown.ErrMessageNotFound, err)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %w", countdown.ErrForbidden, err)
		}
	}
	return err
}

// Send posts a message, embedding the image when one is attached to the countdown
func (p *discordPlatform) Send(ctx context.Context, channelID string, msg countdown.Outgoing) (countdown.Posted, error) {
	data := &discordgo.MessageSend{Content: msg.Content}
	if msg.ImageURL != "" {
		data.Embeds = []*discordgo.MessageEmbed{{Image: &discordgo.MessageEmbedImage{URL: msg.ImageURL}}}
	}

	sent, err := p.session.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(ctx))
	if err != nil {
		return countdown.Posted{}, mapError(err)
	}
	return posted(sent), nil
}

func (p *discordPlatform) Fetch(ctx context.Context, channelID, messageID string) (countdown.Posted, error) {
	msg, err := p.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return countdown.Posted{}, mapError(err)
	}
	return posted(msg), nil
}

func (p *discordPlatform) Delete(ctx context.Context, channelID, messageID string) error {
	return mapError(p.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)))
}

func (p *discordPlatform) React(ctx context.Context, channelID, messageID, emoji string) error {
	return mapError(p.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx)))
}

// SharedChannel finds a guild text channel by name
func (p *discordPlatform) SharedChannel(ctx context.Context, guildID, name string) (string, error) {
	channels, err := p.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", mapError(err)
	}
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText && strings.EqualFold(ch.Name, name) {
			return ch.ID, nil
		}
	}
	return "", fmt.Errorf("channel %q: %w", name, countdown.ErrNoDestination)
}

// PrivateChannel finds the user's claim channel under the claim category,
// creating the category and the channel as needed
func (p *discordPlatform) PrivateChannel(ctx context.Context, guildID, userID, displayName string) (string, error) {
	p.claimMu.Lock()
	defer p.claimMu.Unlock()

	channels, err := p.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", mapError(err)
	}

	category := findCategory(channels, p.claimCategory)
	if category == nil {
		category, err = p.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
			Name: p.claimCategory,
			Type: discordgo.ChannelTypeGuildCategory,
		}, discordgo.WithContext(ctx))
		if err != nil {
			return "", fmt.Errorf("failed to create claim category: %w", mapError(err))
		}
		slog.Info("Created claim category", "guild", guildID, "name", p.claimCategory)
	}

	for _, ch := range channels {
		if ch.ParentID == category.ID && ch.Type == discordgo.ChannelTypeGuildText && ownedBy(ch, userID) {
			return ch.ID, nil
		}
	}

	ch, err := p.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:     claimChannelName(displayName),
		Type:     discordgo.ChannelTypeGuildText,
		ParentID: category.ID,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
			{
				ID:    userID,
				Type:  discordgo.PermissionOverwriteTypeMember,
				Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionAddReactions | discordgo.PermissionReadMessageHistory,
			},
			{
				ID:    p.session.State.User.ID,
				Type:  discordgo.PermissionOverwriteTypeMember,
				Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionAddReactions | discordgo.PermissionManageMessages,
			},
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to create claim channel: %w", mapError(err))
	}

	slog.Info("Created claim channel", "guild", guildID, "user", displayName, "channel", ch.ID)
	return ch.ID, nil
}

// IsPrivate reports whether channelID sits under the claim category
func (p *discordPlatform) IsPrivate(channelID string) bool {
	ch, err := p.channel(channelID)
	if err != nil || ch.ParentID == "" {
		return false
	}
	parent, err := p.channel(ch.ParentID)
	if err != nil {
		return false
	}
	return parent.Type == discordgo.ChannelTypeGuildCategory && strings.EqualFold(parent.Name, p.claimCategory)
}

func (p *discordPlatform) channel(channelID string) (*discordgo.Channel, error) {
	if ch, err := p.session.State.Channel(channelID); err == nil {
		return ch, nil
	}
	return p.session.Channel(channelID)
}

func posted(msg *discordgo.Message) countdown.Posted {
	return countdown.Posted{ID: msg.ID, ChannelID: msg.ChannelID, Timestamp: msg.Timestamp}
}

func findCategory(channels []*discordgo.Channel, name string) *discordgo.Channel {
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildCategory && strings.EqualFold(ch.Name, name) {
			return ch
		}
	}
	return nil
}

func ownedBy(ch *discordgo.Channel, userID string) bool {
	for _, ow := range ch.PermissionOverwrites {
		if ow.Type == discordgo.PermissionOverwriteTypeMember && ow.ID == userID && ow.Allow&discordgo.PermissionViewChannel != 0 {
			return true
		}
	}
	return false
}

// claimChannelName turns a display name into a valid text channel name
func claimChannelName(displayName string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(displayName) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteRune('-')
		}
	}
	name := strings.Trim(b.String(), "-")
	if name == "" {
		name = "user"
	}
	if len(name) > 80 {
		name = name[:80]
	}
	return "claim-" + name
}

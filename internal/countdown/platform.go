package countdown

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrMessageNotFound means the message was already removed, usually by
	// another reaction racing this one.
	ErrMessageNotFound = errors.New("message not found")
	// ErrForbidden means the bot lacks permission in the channel.
	ErrForbidden = errors.New("forbidden")
	// ErrNoDestination means a share or claim target could not be resolved.
	ErrNoDestination = errors.New("destination channel unavailable")
)

// Outgoing is a message to post.
type Outgoing struct {
	Content  string
	ImageURL string
}

// Posted identifies a message on the chat platform.
type Posted struct {
	ID        string
	ChannelID string
	Timestamp time.Time
}

// Platform is the slice of the chat client the countdown engine needs.
type Platform interface {
	Send(ctx context.Context, channelID string, msg Outgoing) (Posted, error)
	Fetch(ctx context.Context, channelID, messageID string) (Posted, error)
	Delete(ctx context.Context, channelID, messageID string) error
	React(ctx context.Context, channelID, messageID, emoji string) error
	// SharedChannel resolves a common channel by name.
	SharedChannel(ctx context.Context, guildID, name string) (string, error)
	// PrivateChannel finds or creates the claim channel of one user.
	PrivateChannel(ctx context.Context, guildID, userID, displayName string) (string, error)
}

// InputError is a user mistake; Error is safe to show in chat.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

func inputError(msg string) error { return &InputError{Msg: msg} }

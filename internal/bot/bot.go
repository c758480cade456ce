package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/flor3z/countdown-bot/internal/catalog"
	"github.com/flor3z/countdown-bot/internal/config"
	"github.com/flor3z/countdown-bot/internal/countdown"
	"github.com/flor3z/countdown-bot/internal/metrics"
	"github.com/flor3z/countdown-bot/internal/poller"
	"github.com/flor3z/countdown-bot/internal/storage"
)

// handlerTimeout bounds a single command or reaction, including the time a
// boss overwrite waits for confirmation.
const handlerTimeout = 2 * time.Minute

// Bot represents the Discord bot instance
type Bot struct {
	config     *config.Config
	session    *discordgo.Session
	events     eventStore
	items      *catalog.Items
	bosses     *catalog.Bosses
	platform   *discordPlatform
	engine     *countdown.Engine
	poller     *poller.Poller
	waiter     *reactionWaiter
	dismissals *dismissals
	commands   map[string]command

	ctx context.Context
}

// New creates a new Bot instance
func New(cfg *config.Config) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsMessageContent

	shareTargets, err := cfg.ShareTargets()
	if err != nil {
		return nil, err
	}

	events, err := openEventStore(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	items := catalog.NewItems(cfg.ItemsFile)
	bosses := catalog.NewBosses(cfg.BossesFile)
	platform := newDiscordPlatform(session, cfg.ClaimCategory)
	pings := countdown.NewSubscriptions()

	engine := countdown.New(platform, events, pings, items, bosses, countdown.Options{
		ShareTargets:  shareTargets,
		DefaultRarity: cfg.DefaultRarity,
	})

	b := &Bot{
		config:     cfg,
		session:    session,
		events:     events,
		items:      items,
		bosses:     bosses,
		platform:   platform,
		engine:     engine,
		waiter:     newReactionWaiter(),
		dismissals: newDismissals(),
		ctx:        context.Background(),
	}
	b.commands = b.commandTable()
	b.poller = poller.New(events, pings, platform, cfg.ReminderInterval, poller.Window{
		Min: cfg.ReminderWindowMin,
		Max: cfg.ReminderWindowMax,
	}, cfg.ExpiredRetention)

	b.registerHandlers()

	return b, nil
}

// eventStore is the countdown record store plus the channel listing used by
// the active command
type eventStore interface {
	countdown.EventStore
	GetByChannel(channelID string, now time.Time) ([]*countdown.EventRecord, error)
}

var (
	_ eventStore = (*storage.Repository)(nil)
	_ eventStore = (*countdown.MemoryStore)(nil)
)

// openEventStore opens the SQLite store, or an in-memory one when no
// database path is configured
func openEventStore(path string) (eventStore, error) {
	if path == "" {
		slog.Warn("DATABASE_PATH is empty, countdowns will not survive a restart")
		return countdown.NewMemoryStore(), nil
	}
	repo, err := storage.NewRepository(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return repo, nil
}

// Start opens the Discord connection and starts background tasks
func (b *Bot) Start(ctx context.Context) error {
	b.ctx = ctx

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	slog.Info("Connected to Discord", "user", b.session.State.User.Username, "prefix", b.config.CommandPrefix)

	metrics.Init()
	if n, err := b.events.Count(); err == nil {
		metrics.SetLiveEvents(n)
		slog.Info("Loaded persisted countdowns", "count", n)
	}
	if b.config.MetricsAddr != "" {
		go metrics.Serve(ctx, b.config.MetricsAddr)
	}

	go b.poller.Start(ctx)

	return nil
}

// Stop gracefully shuts down the bot
func (b *Bot) Stop() error {
	if b.poller != nil {
		b.poller.Stop()
	}

	if closer, ok := b.events.(interface{ Close() error }); ok {
		closer.Close()
	}

	if b.session != nil {
		return b.session.Close()
	}

	return nil
}

// registerHandlers sets up Discord event handlers
func (b *Bot) registerHandlers() {
	b.session.AddHandler(b.handleMessage)
	b.session.AddHandler(b.handleReactionAdd)
	b.session.AddHandler(b.handleReactionRemove)
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("Bot is ready", "guilds", len(r.Guilds))
	})
}

// handleMessage dispatches prefix commands
func (b *Bot) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	name, args, ok := parseCommand(b.config.CommandPrefix, m.Content)
	if !ok {
		return
	}
	cmd, ok := b.commands[name]
	if !ok {
		return
	}

	slog.Debug("Received command", "command", name, "guild", m.GuildID, "user", m.Author.Username)

	ctx, cancel := context.WithTimeout(b.ctx, handlerTimeout)
	defer cancel()

	cmd.run(ctx, m, args)
}

// parseCommand splits "!name arg arg" into a lowercase name and its arguments
func parseCommand(prefix, content string) (string, []string, bool) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// memberName picks the name shown in countdown messages
func memberName(member *discordgo.Member, user *discordgo.User) string {
	if member != nil && member.Nick != "" {
		return member.Nick
	}
	if user == nil && member != nil {
		user = member.User
	}
	if user == nil {
		return "unknown"
	}
	if user.GlobalName != "" {
		return user.GlobalName
	}
	return user.Username
}

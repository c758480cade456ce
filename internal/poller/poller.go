// Package poller sends the one-shot pre-expiry reminders for countdowns that
// have subscribers.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/flor3z/countdown-bot/internal/countdown"
	"github.com/flor3z/countdown-bot/internal/metrics"
)

// Sender posts a message to a channel.
type Sender interface {
	Send(ctx context.Context, channelID string, msg countdown.Outgoing) (countdown.Posted, error)
}

// Pruner drops records that expired before cutoff.
type Pruner interface {
	PruneExpired(cutoff time.Time) (int, error)
}

// Window is the band of remaining time in which a reminder fires.
type Window struct {
	Min time.Duration
	Max time.Duration
}

// DefaultWindow fires between 15 and 16 minutes before expiry.
var DefaultWindow = Window{Min: 15 * time.Minute, Max: 16 * time.Minute}

// Contains reports whether remaining falls inside the window (inclusive).
func (w Window) Contains(remaining time.Duration) bool {
	return remaining >= w.Min && remaining <= w.Max
}

// Poller periodically checks subscribed countdowns for upcoming expiry
type Poller struct {
	events   countdown.EventStore
	pings    *countdown.Subscriptions
	sender   Sender
	interval time.Duration
	window   Window
	now      func() time.Time

	// retention keeps expired countdowns resettable for a while; zero keeps
	// them forever.
	retention time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a new Poller
func New(events countdown.EventStore, pings *countdown.Subscriptions, sender Sender, interval time.Duration, window Window, retention time.Duration) *Poller {
	return &Poller{
		events:    events,
		pings:     pings,
		sender:    sender,
		interval:  interval,
		window:    window,
		retention: retention,
		now:       time.Now,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the polling loop
func (p *Poller) Start(ctx context.Context) {
	slog.Info("Starting reminder poller", "interval", p.interval, "window_min", p.window.Min, "window_max", p.window.Max)

	p.wg.Add(1)
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Reminder poller stopped (context cancelled)")
			return
		case <-p.stopChan:
			slog.Info("Reminder poller stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// Stop signals the poller to stop
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopChan) })
	p.wg.Wait()
}

// poll sweeps every countdown that has subscribers and returns how many
// reminders were sent.
func (p *Poller) poll(ctx context.Context) int {
	p.prune()

	ids := p.pings.MessageIDs()
	if len(ids) == 0 {
		return 0
	}

	slog.Debug("Checking subscribed countdowns", "count", len(ids))

	sent := 0
	for _, id := range ids {
		select {
		case <-ctx.Done():
			return sent
		default:
			if p.checkEvent(ctx, id) {
				sent++
			}
		}
	}
	return sent
}

// prune removes countdowns that expired longer than the retention ago when
// the event store supports it.
func (p *Poller) prune() {
	pruner, ok := p.events.(Pruner)
	if !ok || p.retention <= 0 {
		return
	}
	n, err := pruner.PruneExpired(p.now().Add(-p.retention))
	if err != nil {
		slog.Error("Failed to prune expired countdowns", "error", err)
		return
	}
	if n > 0 {
		slog.Info("Pruned expired countdowns", "count", n)
		if live, err := p.events.Count(); err == nil {
			metrics.SetLiveEvents(live)
		}
	}
}

// checkEvent fires the reminder for one countdown when it is inside the window.
func (p *Poller) checkEvent(ctx context.Context, messageID string) bool {
	rec, err := p.events.Get(messageID)
	if errors.Is(err, countdown.ErrRecordNotFound) {
		// Countdown is gone; its subscriptions went with it.
		p.pings.Clear(messageID)
		return false
	}
	if err != nil {
		slog.Error("Failed to load countdown", "message", messageID, "error", err)
		return false
	}

	remaining := rec.Remaining(p.now())
	if !p.window.Contains(remaining) {
		return false
	}

	// Take before sending so an overlapping sweep cannot fire twice.
	subscribers := p.pings.Take(messageID)
	if len(subscribers) == 0 {
		return false
	}

	content := countdown.RenderReminder(rec, subscribers)
	if _, err := p.sender.Send(ctx, rec.ChannelID, countdown.Outgoing{Content: content}); err != nil {
		slog.Error("Failed to send reminder", "message", messageID, "error", err)
		return false
	}

	metrics.Reminder()
	slog.Info("Sent reminder", "item", rec.ItemName, "message", messageID, "subscribers", len(subscribers), "remaining", remaining)
	return true
}

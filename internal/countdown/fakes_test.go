package countdown

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeMessage struct {
	ChannelID string
	Content   string
	ImageURL  string
	Reactions []string
}

type fakePlatform struct {
	mu       sync.Mutex
	clock    *testClock
	nextID   int
	messages map[string]*fakeMessage
	sent     []string
	shared   map[string]string
	private  map[string]string

	deleteErr error
	sendErr   error
	// postDelay is added to the clock for the timestamp of sent messages.
	postDelay time.Duration
}

func newFakePlatform(clock *testClock) *fakePlatform {
	return &fakePlatform{
		clock:    clock,
		messages: make(map[string]*fakeMessage),
		shared:   map[string]string{"⛏mining-2hours": "mining", "🌲woodcutting-4hours": "woodcutting"},
		private:  make(map[string]string),
	}
}

func (p *fakePlatform) Send(ctx context.Context, channelID string, msg Outgoing) (Posted, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return Posted{}, p.sendErr
	}
	p.nextID++
	id := fmt.Sprintf("msg-%d", p.nextID)
	p.messages[id] = &fakeMessage{ChannelID: channelID, Content: msg.Content, ImageURL: msg.ImageURL}
	p.sent = append(p.sent, id)
	return Posted{ID: id, ChannelID: channelID, Timestamp: p.clock.Now().Add(p.postDelay)}, nil
}

func (p *fakePlatform) Fetch(ctx context.Context, channelID, messageID string) (Posted, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.messages[messageID]
	if !ok || m.ChannelID != channelID {
		return Posted{}, ErrMessageNotFound
	}
	return Posted{ID: messageID, ChannelID: channelID}, nil
}

func (p *fakePlatform) Delete(ctx context.Context, channelID, messageID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.deleteErr != nil {
		return p.deleteErr
	}
	if _, ok := p.messages[messageID]; !ok {
		return ErrMessageNotFound
	}
	delete(p.messages, messageID)
	return nil
}

func (p *fakePlatform) React(ctx context.Context, channelID, messageID, emoji string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.messages[messageID]
	if !ok {
		return ErrMessageNotFound
	}
	m.Reactions = append(m.Reactions, emoji)
	return nil
}

func (p *fakePlatform) SharedChannel(ctx context.Context, guildID, name string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.shared[name]
	if !ok {
		return "", fmt.Errorf("channel %q: %w", name, ErrNoDestination)
	}
	return id, nil
}

func (p *fakePlatform) PrivateChannel(ctx context.Context, guildID, userID, displayName string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.private[userID]
	if !ok {
		id = "private-" + userID
		p.private[userID] = id
	}
	return id, nil
}

func (p *fakePlatform) message(id string) (fakeMessage, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.messages[id]
	if !ok {
		return fakeMessage{}, false
	}
	return *m, true
}

// removeExternally simulates another actor deleting the message.
func (p *fakePlatform) removeExternally(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.messages, id)
}

func (p *fakePlatform) sentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

type itemMap map[string]time.Duration

func (m itemMap) Lookup(name string) (time.Duration, bool) {
	d, ok := m[name]
	return d, ok
}

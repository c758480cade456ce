package bot

import (
	"strings"
	"sync"
)

// dismissal is a group of bot replies, plus the command that caused them,
// removed together when someone reacts 🗑️ to any reply in the group.
type dismissal struct {
	channelID string
	commandID string
	replyIDs  []string
}

type dismissals struct {
	mu   sync.Mutex
	byID map[string]*dismissal
}

func newDismissals() *dismissals {
	return &dismissals{byID: make(map[string]*dismissal)}
}

func (d *dismissals) Track(channelID, commandID string, replyIDs ...string) {
	if len(replyIDs) == 0 {
		return
	}
	group := &dismissal{channelID: channelID, commandID: commandID, replyIDs: replyIDs}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range replyIDs {
		d.byID[id] = group
	}
}

// Pop removes and returns the group containing replyID.
func (d *dismissals) Pop(replyID string) (*dismissal, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	group, ok := d.byID[replyID]
	if !ok {
		return nil, false
	}
	for _, id := range group.replyIDs {
		delete(d.byID, id)
	}
	return group, true
}

// messageIDs lists everything to delete for the group, replies first.
func (g *dismissal) messageIDs() []string {
	ids := append([]string(nil), g.replyIDs...)
	if g.commandID != "" {
		ids = append(ids, g.commandID)
	}
	return ids
}

func normalize(emoji string) string {
	return strings.ReplaceAll(emoji, "\uFE0F", "")
}

package bot

import (
	"context"
	"sync"
	"time"
)

// reactionWaiter lets a command block until a given user reacts to a given
// message with one of a set of emojis.
type reactionWaiter struct {
	mu      sync.Mutex
	waiting map[string][]*waitRequest
}

type waitRequest struct {
	userID string
	emojis []string
	answer chan string
}

func newReactionWaiter() *reactionWaiter {
	return &reactionWaiter{waiting: make(map[string][]*waitRequest)}
}

// Wait returns the emoji the user picked, or false on timeout or cancellation.
func (w *reactionWaiter) Wait(ctx context.Context, messageID, userID string, emojis []string, timeout time.Duration) (string, bool) {
	req := &waitRequest{userID: userID, emojis: emojis, answer: make(chan string, 1)}

	w.mu.Lock()
	w.waiting[messageID] = append(w.waiting[messageID], req)
	w.mu.Unlock()
	defer w.remove(messageID, req)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case emoji := <-req.answer:
		return emoji, true
	case <-timer.C:
		return "", false
	case <-ctx.Done():
		return "", false
	}
}

// Dispatch hands a reaction to a matching waiter. It reports whether the
// reaction was consumed.
func (w *reactionWaiter) Dispatch(messageID, userID, emoji string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	emoji = normalize(emoji)
	for _, req := range w.waiting[messageID] {
		if req.userID != userID {
			continue
		}
		for _, want := range req.emojis {
			if normalize(want) != emoji {
				continue
			}
			select {
			case req.answer <- want:
			default:
			}
			return true
		}
	}
	return false
}

func (w *reactionWaiter) remove(messageID string, req *waitRequest) {
	w.mu.Lock()
	defer w.mu.Unlock()

	reqs := w.waiting[messageID]
	for i, r := range reqs {
		if r == req {
			reqs = append(reqs[:i], reqs[i+1:]...)
			break
		}
	}
	if len(reqs) == 0 {
		delete(w.waiting, messageID)
		return
	}
	w.waiting[messageID] = reqs
}

package countdown

import (
	"sort"
	"sync"
)

// Subscriptions tracks who asked for a reminder on which countdown message.
// Entries never outlive the message identity they were made for.
type Subscriptions struct {
	mu        sync.Mutex
	byMessage map[string]map[string]struct{}
}

// NewSubscriptions creates an empty subscription table.
func NewSubscriptions() *Subscriptions {
	return &Subscriptions{byMessage: make(map[string]map[string]struct{})}
}

// Add subscribes userID and reports whether it was new.
func (s *Subscriptions) Add(messageID, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, ok := s.byMessage[messageID]
	if !ok {
		users = make(map[string]struct{})
		s.byMessage[messageID] = users
	}
	if _, dup := users[userID]; dup {
		return false
	}
	users[userID] = struct{}{}
	return true
}

// Remove unsubscribes userID, dropping the entry once it is empty.
func (s *Subscriptions) Remove(messageID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, ok := s.byMessage[messageID]
	if !ok {
		return
	}
	delete(users, userID)
	if len(users) == 0 {
		delete(s.byMessage, messageID)
	}
}

// Clear drops every subscription for messageID.
func (s *Subscriptions) Clear(messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byMessage, messageID)
}

// Take removes and returns the subscribers of messageID, sorted.
func (s *Subscriptions) Take(messageID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := sortedKeys(s.byMessage[messageID])
	delete(s.byMessage, messageID)
	return users
}

// Subscribers returns the subscribers of messageID, sorted.
func (s *Subscriptions) Subscribers(messageID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.byMessage[messageID])
}

// MessageIDs returns every message with at least one subscriber.
func (s *Subscriptions) MessageIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.byMessage))
	for id := range s.byMessage {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedKeys(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package events carries process-local domain events between the ledger and
// its observers. Delivery is synchronous and best-effort: a committed award
// stays committed even if a handler misbehaves.
package events

import "sync"

// BadgeUnlocked is published once per newly earned badge
type BadgeUnlocked struct {
	UserID string // User who earned the badge
	Badge  string // Badge name
	Points int    // Points total at unlock time
}

// BadgeHandler receives badge-unlocked events
type BadgeHandler func(event BadgeUnlocked)

// BadgeBus fans badge-unlocked events out to registered handlers. Handlers
// register at bootstrap, before any award commits.
type BadgeBus struct {
	mu       sync.RWMutex
	handlers map[int]BadgeHandler
	nextID   int
}

// NewBadgeBus creates an empty bus
func NewBadgeBus() *BadgeBus {
	return &BadgeBus{handlers: make(map[int]BadgeHandler)}
}

// Subscribe registers a handler and returns its cancel function
func (b *BadgeBus) Subscribe(handler BadgeHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
	}
}

// Publish delivers the event to every registered handler
func (b *BadgeBus) Publish(event BadgeUnlocked) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, handler := range b.handlers {
		handler(event)
	}
}

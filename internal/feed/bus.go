package feed

import (
	"sync"

	"github.com/google/uuid"
)

// Bus is the in-process change feed: the store publishes after each
// successful write, every subscriber whose filter matches gets the event.
// Handlers run synchronously on the publishing goroutine; subscribers are
// expected to keep their reconciliation step short and atomic.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]*busSubscriber
}

type busSubscriber struct {
	filter  Filter
	handler Handler
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]*busSubscriber)}
}

func (b *Bus) Subscribe(f Filter, h Handler) *Subscription {
	id := uuid.NewString()

	b.mu.Lock()
	b.subs[id] = &busSubscriber{filter: f, handler: h}
	b.mu.Unlock()

	return &Subscription{release: func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}}
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	matched := make([]Handler, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.filter.matches(e) {
			matched = append(matched, sub.handler)
		}
	}
	b.mu.RUnlock()

	// Invoke outside the lock so a handler may subscribe or release.
	for _, h := range matched {
		h(e)
	}
}

// SubscriberCount reports open channels, for health endpoints and tests.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

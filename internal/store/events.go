package store

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"storefront/internal/model"
)

// ListKind names the container an event came from.
type ListKind string

const (
	ListCart     ListKind = "cart"
	ListWishlist ListKind = "wishlist"
)

// EventKind is what happened to the list or one of its entries.
type EventKind string

const (
	EventLoaded     EventKind = "loaded"      // reload replaced the list
	EventPending    EventKind = "pending"     // optimistic change applied, remote call in flight
	EventConfirmed  EventKind = "confirmed"   // server accepted the change
	EventRolledBack EventKind = "rolled-back" // server rejected it; prior state restored
	EventRemoved    EventKind = "removed"     // entry gone after a confirmed delete
	EventAdded      EventKind = "added"       // reload found an entry we did not hold
	EventChanged    EventKind = "changed"     // reload found different quantity, price or stock
	EventDropped    EventKind = "dropped"     // reload found an entry gone from the server
	EventError      EventKind = "error"       // user-facing failure notice
)

// Event is one state change, published to every subscriber of a session.
type Event struct {
	List      ListKind         `json:"list"`
	Kind      EventKind        `json:"kind"`
	ProductID string           `json:"productId,omitempty"`
	Status    model.ItemStatus `json:"status,omitempty"`
	Message   string           `json:"message,omitempty"` // shown to the shopper on errors
	Err       error            `json:"-"`
}

var eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "storefront_events_dropped_total",
	Help: "Events discarded because a subscriber was not keeping up",
})

// Broadcaster fans events out to subscribers. Publishing never blocks:
// a subscriber whose buffer is full misses the event.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Event
	nextID uint64
	closed bool
}

// NewBroadcaster creates a broadcaster with no subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[uint64]chan Event)}
}

// Subscribe registers a subscriber with the given buffer size. The returned
// cancel func unregisters it and closes the channel; it is safe to call twice.
func (b *Broadcaster) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// Publish delivers e to every subscriber that has room.
func (b *Broadcaster) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			eventsDropped.Inc()
		}
	}
}

// Subscribers returns the current subscriber count.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscriber channel; later subscriptions get a closed channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

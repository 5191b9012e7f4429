// Package events implements the in-process change-notification fan-out.
// Events are invalidation signals, intentionally minimal: subscribers refetch
// ground truth from the API after receiving one, so nothing pushed here can
// diverge from what is persisted.
package events

import "sync"

// Event names the resource that changed. ID may be zero for events that
// affect a whole collection (a bulk purge).
type Event struct {
	Category string `json:"category"`
	ID       uint   `json:"id,omitempty"`
}

// subscriberBuffer bounds each subscriber's queue. A dashboard session that
// falls this far behind is disconnected rather than allowed to backpressure
// publishers.
const subscriberBuffer = 16

// Subscriber is one attached dashboard session.
type Subscriber struct {
	ch chan Event
}

// Events returns the channel delivering this subscriber's notifications.
// The channel is closed when the subscriber is dropped or unsubscribed.
func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

// Hub fans events out to all attached subscribers. Publish never blocks the
// calling mutation.
type Hub struct {
	mu   sync.Mutex
	subs map[*Subscriber]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscriber]struct{})}
}

// Subscribe attaches a new subscriber with a bounded queue.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{ch: make(chan Event, subscriberBuffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Unsubscribe detaches a subscriber and releases its queue. Safe to call
// after the hub has already dropped the subscriber.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.ch)
}

// Publish delivers the event to every subscriber whose queue has room.
// Subscribers that cannot keep up are dropped; their channel close is the
// disconnect signal.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.ch <- e:
		default:
			delete(h.subs, sub)
			close(sub.ch)
		}
	}
}

// Count returns the number of attached subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

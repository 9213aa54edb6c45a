package notify

import (
	"sync"

	"github.com/adityarama/tutorlens/internal/domain/notify"
)

const subscriberBuffer = 8

// Hub fans completion events out to live subscribers, scoped per
// operator. Delivery is at-most-once and best-effort: a slow or
// disconnected subscriber drops events instead of blocking the
// publisher. The artifact store is the source of truth, so a missed
// event only delays visibility.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan notify.Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan notify.Event]struct{})}
}

// Subscribe registers a live client for one operator's events.
// The returned cancel func must be called when the client goes away.
func (h *Hub) Subscribe(operatorID string) (<-chan notify.Event, func()) {
	ch := make(chan notify.Event, subscriberBuffer)

	h.mu.Lock()
	set, ok := h.subs[operatorID]
	if !ok {
		set = make(map[chan notify.Event]struct{})
		h.subs[operatorID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[operatorID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, operatorID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers ev to every live subscriber of operatorID.
// Subscribers of other operators never see it.
func (h *Hub) Publish(operatorID string, ev notify.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[operatorID] {
		select {
		case ch <- ev:
		default:
			// full buffer: drop rather than block the pipeline
		}
	}
}

// SubscriberCount reports live subscribers for an operator.
func (h *Hub) SubscriberCount(operatorID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[operatorID])
}

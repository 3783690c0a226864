// Package feed fans order events out to live subscribers inside one tracking
// service process.
package feed

import (
	"sync"

	"campus-food/internal/order/domain/models"
	"campus-food/internal/xpkg/logger"
)

const defaultBuffer = 16

// Filter selects the events a subscriber receives. Zero fields match anything.
type Filter struct {
	SessionID    string
	TrackingCode string
	// ActiveOnly drops events for orders already in a terminal status, except
	// the event that moved them there.
	ActiveOnly bool
}

func (f Filter) Match(e models.OrderEvent) bool {
	if f.SessionID != "" && e.Order.SessionID != f.SessionID {
		return false
	}
	if f.TrackingCode != "" && e.Order.TrackingCode != f.TrackingCode {
		return false
	}
	if f.ActiveOnly && e.Order.Status.Terminal() && (e.OldStatus == "" || e.OldStatus.Terminal()) {
		return false
	}
	return true
}

type Subscription struct {
	C <-chan models.OrderEvent

	ch     chan models.OrderEvent
	filter Filter
	hub    *Hub
	once   sync.Once
}

// Close detaches the subscription and closes C.
func (s *Subscription) Close() {
	s.once.Do(func() { s.hub.remove(s) })
}

// Hub delivers each published event to every matching subscriber. A
// subscriber whose buffer is full misses the event rather than stalling the
// others.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
	mylog  logger.Logger
	closed bool
}

func NewHub(mylog logger.Logger) *Hub {
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: defaultBuffer,
		mylog:  mylog,
	}
}

func (h *Hub) Subscribe(f Filter) *Subscription {
	ch := make(chan models.OrderEvent, h.buffer)
	sub := &Subscription{C: ch, ch: ch, filter: f, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

// Publish returns the number of subscribers that received e.
func (h *Hub) Publish(e models.OrderEvent) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.subs {
		if !sub.filter.Match(e) {
			continue
		}
		select {
		case sub.ch <- e:
			delivered++
		default:
			h.mylog.Action("feed_dropped").Warn("Subscriber too slow, event dropped",
				"tracking_code", e.Order.TrackingCode, "status", e.Order.Status)
		}
	}
	return delivered
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription. Later subscriptions are closed immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for sub := range h.subs {
		close(sub.ch)
		delete(h.subs, sub)
	}
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.ch)
	}
}

package graph

import (
	"github.com/google/uuid"

	"github.com/banshee-data/navgraph/internal/metrics"
)

// Subscribe registers a change subscriber. The channel has a buffer of one;
// a notification is dropped for a subscriber whose buffer is full. Earlier
// changes are not replayed.
func (g *Graph) Subscribe() (string, <-chan *Graph) {
	id := uuid.NewString()
	ch := make(chan *Graph, 1)
	g.subscriberMu.Lock()
	defer g.subscriberMu.Unlock()
	if g.closed {
		close(ch)
		return id, ch
	}
	g.subscribers[id] = ch
	metrics.Subscribers.Inc()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (g *Graph) Unsubscribe(id string) {
	g.subscriberMu.Lock()
	defer g.subscriberMu.Unlock()
	if ch, ok := g.subscribers[id]; ok {
		close(ch)
		delete(g.subscribers, id)
		metrics.Subscribers.Dec()
	}
}

// Close closes every subscriber channel. Later subscriptions receive a
// closed channel.
func (g *Graph) Close() {
	g.subscriberMu.Lock()
	defer g.subscriberMu.Unlock()
	g.closed = true
	for id, ch := range g.subscribers {
		close(ch)
		delete(g.subscribers, id)
		metrics.Subscribers.Dec()
	}
}

func (g *Graph) notify() {
	g.subscriberMu.Lock()
	defer g.subscriberMu.Unlock()
	for _, ch := range g.subscribers {
		select {
		case ch <- g:
		default:
		}
	}
}

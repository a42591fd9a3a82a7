// Package notifier tells connected clients that pass data changed so they can
// refetch. Signals carry no payload.
//
// A Notifier lives inside one process. Subscribers attached to another server
// instance never see its signals; running more than one instance behind a
// balancer is not supported.
package notifier

import (
	"sync"
)

type Notifier struct {
	mu     sync.Mutex
	subs   map[uint64]chan struct{}
	nextId uint64
	closed bool
}

func New() *Notifier {
	return &Notifier{
		subs: make(map[uint64]chan struct{}),
	}
}

// Subscribe registers a listener. The returned cancel func detaches it and closes
// the channel; calling it more than once is safe. After Close the channel comes
// back already closed.
func (n *Notifier) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		close(ch)
		return ch, func() {}
	}
	id := n.nextId
	n.nextId++
	n.subs[id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if c, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Publish signals every current subscriber without blocking. A subscriber that
// has not drained its previous signal keeps just that one.
func (n *Notifier) Publish() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (n *Notifier) Subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// Close ends every subscription so long-lived listeners return during shutdown.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	for id, ch := range n.subs {
		delete(n.subs, id)
		close(ch)
	}
}

// Package notify delivers orchestration events to registered listeners.
package notify

import (
	"context"
	"slices"
	"sync"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
)

var _ ports.EventSink = (*Dispatcher)(nil)

// Listener receives events in publication order.
type Listener func(domain.Event)

// Dispatcher queues published events and delivers them to listeners from a single goroutine.
// Publish never blocks on listeners; the queue is unbounded.
type Dispatcher struct {
	mu        sync.Mutex
	queue     []domain.Event
	listeners map[int]Listener
	nextID    int
	wake      chan struct{}

	// deliverMu serializes delivery between Run and Drain.
	deliverMu sync.Mutex
}

// NewDispatcher creates an idle dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		listeners: make(map[int]Listener),
		wake:      make(chan struct{}, 1),
	}
}

// Subscribe registers fn and returns a function that removes it.
func (d *Dispatcher) Subscribe(fn Listener) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextID
	d.nextID++
	d.listeners[id] = fn

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.listeners, id)
	}
}

// Publish queues ev for delivery.
func (d *Dispatcher) Publish(ev domain.Event) {
	d.mu.Lock()
	d.queue = append(d.queue, ev)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run delivers events until ctx ends. Events still queued at that point are delivered
// before Run returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-d.wake:
			d.Drain()
		case <-ctx.Done():
			d.Drain()
			return nil
		}
	}
}

// Drain synchronously delivers every queued event.
func (d *Dispatcher) Drain() {
	d.deliverMu.Lock()
	defer d.deliverMu.Unlock()

	for {
		d.mu.Lock()
		batch := d.queue
		d.queue = nil
		listeners := d.snapshotLocked()
		d.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, ev := range batch {
			for _, fn := range listeners {
				fn(ev)
			}
		}
	}
}

// Pending returns the number of undelivered events.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// snapshotLocked returns the listeners in subscription order.
func (d *Dispatcher) snapshotLocked() []Listener {
	ids := make([]int, 0, len(d.listeners))
	for id := range d.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]Listener, 0, len(ids))
	for _, id := range ids {
		out = append(out, d.listeners[id])
	}
	return out
}

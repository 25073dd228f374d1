package fsm

import (
	"context"
	"sync"
)

// HandlerFunc processes one event.
type HandlerFunc func(ctx context.Context, ev Event)

type queuedEvent struct {
	ctx context.Context
	ev  Event
}

// Dispatcher runs events of different users in parallel while each user's
// events are handled one at a time in arrival order.
type Dispatcher struct {
	handle HandlerFunc

	mu     sync.Mutex
	queues map[int64][]queuedEvent
	wg     sync.WaitGroup
}

func NewDispatcher(handle HandlerFunc) *Dispatcher {
	return &Dispatcher{
		handle: handle,
		queues: make(map[int64][]queuedEvent),
	}
}

// Dispatch enqueues ev and returns without waiting for it to be handled.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	q, draining := d.queues[ev.UserID]
	d.queues[ev.UserID] = append(q, queuedEvent{ctx: ctx, ev: ev})
	if !draining {
		d.wg.Add(1)
		go d.drain(ev.UserID)
	}
}

// drain handles the queue of userID until it is empty. A user has a queue
// entry exactly while one drain goroutine runs for it.
func (d *Dispatcher) drain(userID int64) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		q := d.queues[userID]
		if len(q) == 0 {
			delete(d.queues, userID)
			d.mu.Unlock()
			return
		}
		next := q[0]
		d.queues[userID] = q[1:]
		d.mu.Unlock()

		d.handle(next.ctx, next.ev)
	}
}

// Wait blocks until every dispatched event has been handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

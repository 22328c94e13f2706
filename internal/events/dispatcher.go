package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// EventHandler reacts to one issue event.
type EventHandler func(context.Context, Event) error

// Dispatcher fans issue events out to subscribers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

type syncDispatcher struct {
	mu          sync.RWMutex
	subscribers map[EventType][]EventHandler
}

// NewInMemoryDispatcher returns a dispatcher that runs subscribers on the
// publishing goroutine, in subscription order.
func NewInMemoryDispatcher() Dispatcher {
	return &syncDispatcher{subscribers: make(map[EventType][]EventHandler)}
}

// Publish runs every subscriber even when an earlier one fails. Failures,
// including panics, come back joined.
func (d *syncDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	subs := d.subscribers[event.Type]
	d.mu.RUnlock()

	var errs []error
	for _, handle := range subs {
		if err := invoke(ctx, handle, event); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", event.Type, err))
		}
	}
	return errors.Join(errs...)
}

func (d *syncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	if handler == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	// copy on write so Publish can iterate without holding the lock
	subs := make([]EventHandler, 0, len(d.subscribers[eventType])+1)
	subs = append(subs, d.subscribers[eventType]...)
	d.subscribers[eventType] = append(subs, handler)
}

func invoke(ctx context.Context, handle EventHandler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panicked: %v", r)
		}
	}()
	return handle(ctx, event)
}

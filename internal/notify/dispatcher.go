package notify

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// DefaultActionTimeout bounds how long a dispatch waits for a user action.
const DefaultActionTimeout = 10 * time.Minute

// Dispatcher delivers notifications without blocking the caller.
type Dispatcher struct {
	sink     Sink
	onAction ActionHandler
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewDispatcher creates a dispatcher. onAction may be nil.
func NewDispatcher(sink Sink, onAction ActionHandler) *Dispatcher {
	return &Dispatcher{
		sink:     sink,
		onAction: onAction,
		timeout:  DefaultActionTimeout,
	}
}

// SetActionTimeout changes how long a dispatch waits for an action.
func (d *Dispatcher) SetActionTimeout(timeout time.Duration) {
	d.timeout = timeout
}

// Dispatch hands n to the sink in the background and returns immediately.
// Cancelling ctx abandons any pending action.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		action, err := d.sink.Notify(ctx, n)
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				log.Printf("[notify] Warning: delivery of %s notification failed: %v", n.Kind, err)
			}
			return
		}
		if action != "" && d.onAction != nil {
			d.onAction(n, action)
		}
	}()
}

// Wait blocks until every dispatched notification has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

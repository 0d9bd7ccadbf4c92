package event

import (
	"context"

	"github.com/yanun0323/logs"
)

// Handler consumes one event. Handlers must not block on I/O; slow work
// is handed off to an adapter goroutine.
type Handler func(Event) error

// Dispatcher routes events to handlers by type, strictly sequentially.
type Dispatcher struct {
	handlers map[Type][]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[Type][]Handler)}
}

// On registers a handler for the event type. Handlers run in
// registration order.
func (d *Dispatcher) On(t Type, h Handler) {
	if h == nil {
		return
	}
	d.handlers[t] = append(d.handlers[t], h)
}

// Run pops events until the context is done or the queue closes.
// Handler failures are logged with event context and never stop the
// loop.
func (d *Dispatcher) Run(ctx context.Context, q *Queue) {
	for {
		e, ok := q.Pop(ctx)
		if !ok {
			return
		}
		d.Dispatch(e)
	}
}

// Dispatch routes a single event through its registered handlers.
func (d *Dispatcher) Dispatch(e Event) {
	for _, h := range d.handlers[e.Type] {
		invoke(h, e)
	}
}

func invoke(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			logs.Errorf("handler panic on %s event %q: %+v", e.Type, e.Instrument(), r)
		}
	}()

	if err := h(e); err != nil {
		logs.Errorf("handle %s event %q, err: %+v", e.Type, e.Instrument(), err)
	}
}

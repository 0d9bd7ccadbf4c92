package execution

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"main/internal/event"
	"main/internal/model"
	"main/pkg/exception"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

// OrderState tracks one submitted order through the broker callbacks.
type OrderState uint16

const (
	OrderStateUnknown OrderState = iota
	OrderStatePendingSubmission
	OrderStateOpen
	OrderStateFilled
	OrderStateCancelled
)

func (s OrderState) String() string {
	switch s {
	case OrderStatePendingSubmission:
		return "pending_submission"
	case OrderStateOpen:
		return "open"
	case OrderStateFilled:
		return "filled"
	case OrderStateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Status mirrors a broker order-status callback outcome.
type Status uint16

const (
	StatusUnknown Status = iota
	StatusWorking
	StatusFilled
	StatusCancelled
)

// Contract carries the venue's description of an order from an open
// ack.
type Contract struct {
	Instrument string
	Exchange   string
	Side       event.Side
}

// FillStatus is the payload of a fill-status callback.
type FillStatus struct {
	Status   Status
	Quantity int64
	AvgPrice model.Price
}

// PendingOrder is the reconciler's view of one order id. Entries stay
// archived after a terminal transition so duplicate callbacks are
// absorbed instead of re-buffered.
type PendingOrder struct {
	ID         uint64
	Instrument string
	Exchange   string
	Side       event.Side
	State      OrderState
	Filled     bool
}

// Reconciler owns the pending-order table and turns broker callbacks
// into Fill events. Callbacks arrive on broker goroutines; every
// read-then-write on the table runs under one mutex, including the
// Fill construction and enqueue, so a duplicate callback can never
// produce a second Fill.
type Reconciler struct {
	queue   *event.Queue
	ackWait time.Duration

	lastID atomic.Uint64

	mu     sync.Mutex
	orders map[uint64]*PendingOrder
	early  map[uint64]earlyFill
}

// earlyFill buffers a fill-status callback that raced ahead of its
// open ack.
type earlyFill struct {
	status FillStatus
	seen   time.Time
}

const defaultAckWait = 5 * time.Second

func NewReconciler(queue *event.Queue, ackWait time.Duration) *Reconciler {
	if ackWait <= 0 {
		ackWait = defaultAckWait
	}
	return &Reconciler{
		queue:   queue,
		ackWait: ackWait,
		orders:  make(map[uint64]*PendingOrder),
		early:   make(map[uint64]earlyFill),
	}
}

// NextOrderID allocates a monotonically increasing order id. Ids are
// never reused within a process lifetime, even after cancellation.
func (r *Reconciler) NextOrderID() uint64 {
	return r.lastID.Add(1)
}

// Track records a freshly submitted order before the venue has
// acknowledged it.
func (r *Reconciler) Track(id uint64, instrument string, side event.Side) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; ok {
		logs.Infof("track order %d, err: %+v", id, exception.ErrDuplicateCallback)
		return
	}
	r.orders[id] = &PendingOrder{
		ID:         id,
		Instrument: instrument,
		Side:       side,
		State:      OrderStatePendingSubmission,
	}
}

// OnOpenAck handles a broker open-order acknowledgment. The first ack
// creates or opens the entry; duplicates are absorbed and never reset
// an already filled order. An ack for an id this session never
// allocated is discarded.
func (r *Reconciler) OnOpenAck(id uint64, c Contract) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.knownIDLocked(id) {
		logs.Errorf("open ack %d, err: %+v", id, exception.ErrUnknownOrderID)
		return exception.ErrUnknownOrderID
	}

	o, ok := r.orders[id]
	if !ok {
		o = &PendingOrder{ID: id}
		r.orders[id] = o
	} else if o.State != OrderStatePendingSubmission {
		// Duplicate ack: the entry exists and already left the
		// pre-ack state. Never re-create it or reset the filled flag.
		logs.Infof("open ack %d ignored, err: %+v", id, exception.ErrDuplicateCallback)
		return nil
	}

	if c.Instrument != "" {
		o.Instrument = c.Instrument
	}
	if c.Side != event.SideUnknown {
		o.Side = c.Side
	}
	o.Exchange = c.Exchange
	o.State = OrderStateOpen

	if buffered, ok := r.early[id]; ok {
		delete(r.early, id)
		r.applyFillLocked(o, buffered.status)
	}
	return nil
}

// OnFillStatus handles a broker fill-status callback. A callback that
// arrives before the open ack is buffered and replayed once the ack
// lands; a callback for an id this session never allocated is
// discarded.
func (r *Reconciler) OnFillStatus(id uint64, st FillStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok && !r.knownIDLocked(id) {
		logs.Errorf("fill status %d, err: %+v", id, exception.ErrUnknownOrderID)
		return exception.ErrUnknownOrderID
	}
	if !ok || o.State == OrderStatePendingSubmission {
		// The open ack has not been processed yet; the fill is only
		// emitted downstream after the ack supplies the contract info.
		// A re-delivered callback refreshes the status but keeps the
		// original arrival time, so retries cannot stretch the ack
		// window.
		seen := time.Now()
		if buffered, ok := r.early[id]; ok {
			seen = buffered.seen
		}
		r.early[id] = earlyFill{status: st, seen: seen}
		return nil
	}
	r.applyFillLocked(o, st)
	return nil
}

// applyFillLocked flips the filled flag and enqueues the Fill in one
// critical section. Caller holds r.mu.
func (r *Reconciler) applyFillLocked(o *PendingOrder, st FillStatus) {
	switch st.Status {
	case StatusFilled:
	case StatusCancelled:
		if !o.Filled && o.State != OrderStateCancelled {
			o.State = OrderStateCancelled
		}
		return
	default:
		return
	}

	if o.Filled {
		logs.Infof("fill status %d ignored, err: %+v", o.ID, exception.ErrDuplicateCallback)
		return
	}
	if o.State == OrderStateCancelled {
		logs.Infof("fill status %d after cancel ignored", o.ID)
		return
	}

	fill := event.Fill{
		Instrument: o.Instrument,
		Exchange:   o.Exchange,
		Time:       time.Now().UTC(),
		Quantity:   st.Quantity,
		Side:       o.Side,
		Cost:       st.AvgPrice,
	}
	o.Filled = true
	o.State = OrderStateFilled
	if err := r.queue.TryPush(event.NewFill(fill)); err != nil {
		logs.Errorf("enqueue fill %d, err: %+v", o.ID, errors.Wrap(err, "fill lost"))
	}
}

// Order returns a snapshot of the tracked order.
func (r *Reconciler) Order(id uint64) (PendingOrder, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return PendingOrder{}, false
	}
	return *o, true
}

// knownIDLocked reports whether the id was allocated in this session.
func (r *Reconciler) knownIDLocked(id uint64) bool {
	return id != 0 && id <= r.lastID.Load()
}

// Run sweeps buffered early fills whose open ack never arrived within
// the ack-wait window.
func (r *Reconciler) Run(ctx context.Context) {
	interval := r.ackWait / 2
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.sweep(now)
		}
	}
}

func (r *Reconciler) sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, buffered := range r.early {
		if now.Sub(buffered.seen) < r.ackWait {
			continue
		}
		delete(r.early, id)
		logs.Errorf("early fill %d expired without open ack, err: %+v", id, exception.ErrUnknownOrderID)
	}
}

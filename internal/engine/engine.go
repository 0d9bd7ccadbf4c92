package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"main/internal/event"
	"main/internal/execution"
	"main/internal/feed"
	"main/internal/strategy"
	"main/pkg/exception"

	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
)

// Config tunes the engine wiring.
type Config struct {
	SubmitWorkers  int
	SubmitQueueCap int
	DrainTimeout   time.Duration
}

// Engine wires the feed, dispatcher, strategy and execution adapter
// around one event queue. The dispatcher loop is the only context that
// touches strategy state; order submission is handed off to worker
// goroutines so handlers never block on network I/O.
type Engine struct {
	cfg        Config
	queue      *event.Queue
	dispatcher *event.Dispatcher
	feed       *feed.Feed
	strat      strategy.Strategy
	sizer      *strategy.Sizer
	exec       execution.Handler
	rec        *execution.Reconciler
	book       *FillBook

	submits chan event.Order
	running atomic.Bool
	closed  atomic.Bool
}

func New(cfg Config, queue *event.Queue, priceFeed *feed.Feed, strat strategy.Strategy,
	sizer *strategy.Sizer, exec execution.Handler, rec *execution.Reconciler) *Engine {
	if cfg.SubmitWorkers <= 0 {
		cfg.SubmitWorkers = 1
	}
	if cfg.SubmitQueueCap <= 0 {
		cfg.SubmitQueueCap = 64
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 5 * time.Second
	}
	if strat == nil {
		strat = strategy.Noop{}
	}
	return &Engine{
		cfg:        cfg,
		queue:      queue,
		dispatcher: event.NewDispatcher(),
		feed:       priceFeed,
		strat:      strat,
		sizer:      sizer,
		exec:       exec,
		rec:        rec,
		book:       NewFillBook(),
		submits:    make(chan event.Order, cfg.SubmitQueueCap),
	}
}

// Book exposes the fill bookkeeping.
func (e *Engine) Book() *FillBook {
	return e.book
}

// Run starts the feed and dispatches events until the context is done
// or a shutdown signal arrives, then drains in-flight work.
func (e *Engine) Run(ctx context.Context) {
	if e.running.Swap(true) {
		return
	}

	e.dispatcher.On(event.TypeTick, e.onTick)
	e.dispatcher.On(event.TypeSignal, e.onSignal)
	e.dispatcher.On(event.TypeOrder, e.onOrder)
	e.dispatcher.On(event.TypeFill, e.onFill)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-ctx.Done():
		case <-sys.Shutdown():
		}
		cancel()
	}()

	if e.feed != nil {
		go e.feed.Run(runCtx)
	}
	go e.rec.Run(runCtx)

	// Workers outlive runCtx so they can finish draining the submit
	// queue during shutdown; workerCtx only falls once the drain
	// deadline passes.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	var workers sync.WaitGroup
	for range e.cfg.SubmitWorkers {
		workers.Add(1)
		go func() {
			defer workers.Done()
			e.submitWorker(workerCtx)
		}()
	}

	e.dispatcher.Run(runCtx, e.queue)
	e.shutdown(stopWorkers, &workers)
}

// shutdown refuses new submissions and lets the workers drain
// in-flight ones with a bounded timeout.
func (e *Engine) shutdown(stopWorkers context.CancelFunc, workers *sync.WaitGroup) {
	e.closed.Store(true)

	// The dispatcher loop has returned, so no producer can reach the
	// submit queue anymore; closing it hands the remaining orders to
	// the workers.
	close(e.submits)

	drained := make(chan struct{})
	go func() {
		workers.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(e.cfg.DrainTimeout):
		logs.Errorf("shutdown with %d unsubmitted orders", len(e.submits))
	}
	stopWorkers()

	e.queue.Close()
	logs.Info("engine stopped")
}

func (e *Engine) onTick(ev event.Event) error {
	for _, out := range e.strat.OnTick(ev.Tick) {
		if err := e.queue.TryPush(out); err != nil {
			logs.Errorf("enqueue %s from strategy, err: %+v", out.Type, err)
		}
	}
	return nil
}

func (e *Engine) onSignal(ev event.Event) error {
	if e.sizer == nil {
		return nil
	}
	order, ok := e.sizer.Size(ev.Signal, e.book.Position(ev.Signal.Instrument))
	if !ok {
		return nil
	}
	return e.queue.TryPush(event.NewOrder(order))
}

func (e *Engine) onOrder(ev event.Event) error {
	if e.closed.Load() {
		return exception.ErrEngineClosed
	}
	select {
	case e.submits <- ev.Order:
		return nil
	default:
		return exception.ErrOrderQueueFull
	}
}

func (e *Engine) onFill(ev event.Event) error {
	e.book.Apply(ev.Fill)
	logs.Infof("fill %s %s qty %d at %s",
		ev.Fill.Instrument, ev.Fill.Side, ev.Fill.Quantity, ev.Fill.Cost)
	return nil
}

func (e *Engine) submitWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case order, ok := <-e.submits:
			if !ok {
				return
			}
			if err := e.exec.ExecuteOrder(ctx, order); err != nil {
				logs.Errorf("execute order %s %s, err: %+v", order.Instrument, order.Side, err)
			}
		}
	}
}

package engine

import (
	"sync"

	"main/internal/event"
)

// FillBook nets fills into per-instrument positions. In-memory only;
// it lives and dies with the engine.
type FillBook struct {
	mu        sync.RWMutex
	positions map[string]int64
	notionals map[string]int64
	fills     int64
}

func NewFillBook() *FillBook {
	return &FillBook{
		positions: make(map[string]int64),
		notionals: make(map[string]int64),
	}
}

// Apply books one fill. Buys add to the net position, sells subtract.
func (b *FillBook) Apply(f event.Fill) {
	qty := f.Quantity
	if f.Side == event.SideSell {
		qty = -qty
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.positions[f.Instrument] += qty
	b.notionals[f.Instrument] += f.Quantity * int64(f.Cost)
	b.fills++
}

// Position returns the net signed quantity for an instrument.
func (b *FillBook) Position(instrument string) int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.positions[instrument]
}

// Notional returns the accumulated traded notional (price scale) for
// an instrument.
func (b *FillBook) Notional(instrument string) int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.notionals[instrument]
}

// Fills returns the total number of fills booked.
func (b *FillBook) Fills() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.fills
}

package strategy

import "main/internal/event"

// Strategy consumes ticks and emits zero or more Signal/Order events.
// Alpha generation lives outside this engine; implementations plug in
// through this seam.
type Strategy interface {
	OnTick(tick event.Tick) []event.Event
}

// Noop is the default strategy: it watches prices and never trades.
type Noop struct{}

func (Noop) OnTick(event.Tick) []event.Event {
	return nil
}

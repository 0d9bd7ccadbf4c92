package strategy

import "main/internal/event"

// Sizer converts direction-only signals into sized orders. The signal
// decides the direction; the sizer only attaches quantity.
type Sizer struct {
	defaultUnits int64
	units        map[string]int64
}

func NewSizer(defaultUnits int64, perPair map[string]int64) *Sizer {
	if defaultUnits <= 0 {
		defaultUnits = 1
	}
	return &Sizer{defaultUnits: defaultUnits, units: perPair}
}

// Size builds the order for a signal given the current net position.
// LONG buys and SHORT sells the configured unit size; EXIT flattens the
// position. Returns false when there is nothing to do.
func (s *Sizer) Size(sig event.Signal, position int64) (event.Order, bool) {
	order := event.Order{
		Instrument: sig.Instrument,
		Time:       sig.Time,
		Kind:       event.OrderKindMarket,
	}

	switch sig.Kind {
	case event.SignalLong:
		order.Side = event.SideBuy
		order.Quantity = s.unitsFor(sig.Instrument)
	case event.SignalShort:
		order.Side = event.SideSell
		order.Quantity = s.unitsFor(sig.Instrument)
	case event.SignalExit:
		switch {
		case position > 0:
			order.Side = event.SideSell
			order.Quantity = position
		case position < 0:
			order.Side = event.SideBuy
			order.Quantity = -position
		default:
			return event.Order{}, false
		}
	default:
		return event.Order{}, false
	}
	return order, true
}

func (s *Sizer) unitsFor(instrument string) int64 {
	if u, ok := s.units[instrument]; ok && u > 0 {
		return u
	}
	return s.defaultUnits
}

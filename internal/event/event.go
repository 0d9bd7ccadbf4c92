package event

import (
	"time"

	"main/internal/model"
)

// Type tags the payload carried by an Event.
type Type uint16

const (
	TypeUnknown Type = iota
	TypeTick
	TypeSignal
	TypeOrder
	TypeFill
)

func (t Type) String() string {
	switch t {
	case TypeTick:
		return "tick"
	case TypeSignal:
		return "signal"
	case TypeOrder:
		return "order"
	case TypeFill:
		return "fill"
	default:
		return "unknown"
	}
}

// SignalKind is a strategy intent, direction only.
type SignalKind uint16

const (
	SignalUnknown SignalKind = iota
	SignalLong
	SignalShort
	SignalExit
)

// OrderKind is the order type sent to the venue.
type OrderKind uint16

const (
	OrderKindUnknown OrderKind = iota
	OrderKindMarket
	OrderKindLimit
)

// Side is the order direction.
type Side uint16

const (
	SideUnknown Side = iota
	SideBuy
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unknown"
	}
}

// Tick is one market price update for an instrument.
type Tick struct {
	Instrument string
	Time       time.Time
	Bid        model.Price
	Ask        model.Price
}

// Signal is a strategy-generated trading intent.
type Signal struct {
	Instrument string
	Time       time.Time
	Kind       SignalKind
}

// Order is a concrete instruction to trade a quantity of an instrument.
type Order struct {
	Instrument string
	Time       time.Time
	Kind       OrderKind
	Quantity   int64
	Side       Side
}

// Fill confirms that an order executed at a price.
type Fill struct {
	Instrument string
	Exchange   string
	Time       time.Time
	Quantity   int64
	Side       Side
	Cost       model.Price
}

// Event is a tagged union over the payload types. Exactly the payload
// matching Type is meaningful; events are immutable once created.
type Event struct {
	Type   Type
	Tick   Tick
	Signal Signal
	Order  Order
	Fill   Fill
}

func NewTick(t Tick) Event {
	return Event{Type: TypeTick, Tick: t}
}

func NewSignal(s Signal) Event {
	return Event{Type: TypeSignal, Signal: s}
}

func NewOrder(o Order) Event {
	return Event{Type: TypeOrder, Order: o}
}

func NewFill(f Fill) Event {
	return Event{Type: TypeFill, Fill: f}
}

// Instrument returns the instrument of the tagged payload.
func (e Event) Instrument() string {
	switch e.Type {
	case TypeTick:
		return e.Tick.Instrument
	case TypeSignal:
		return e.Signal.Instrument
	case TypeOrder:
		return e.Order.Instrument
	case TypeFill:
		return e.Fill.Instrument
	default:
		return ""
	}
}

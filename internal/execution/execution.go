package execution

import (
	"context"

	"main/internal/event"
)

// Handler submits orders to a brokerage venue. Implementations surface
// retry-exhausted submissions as exception.ErrSubmissionFailed; they
// never panic past this boundary.
type Handler interface {
	ExecuteOrder(ctx context.Context, order event.Order) error
}

// Simulated accepts every order without touching a venue and
// immediately reports it open and filled at the last submitted price
// hint, which keeps the downstream fill path exercised in paper runs.
type Simulated struct {
	rec      *Reconciler
	exchange string
}

func NewSimulated(rec *Reconciler) *Simulated {
	return &Simulated{rec: rec, exchange: "SIM"}
}

func (s *Simulated) ExecuteOrder(ctx context.Context, order event.Order) error {
	id := s.rec.NextOrderID()
	s.rec.Track(id, order.Instrument, order.Side)
	if err := s.rec.OnOpenAck(id, Contract{
		Instrument: order.Instrument,
		Exchange:   s.exchange,
		Side:       order.Side,
	}); err != nil {
		return err
	}
	return s.rec.OnFillStatus(id, FillStatus{
		Status:   StatusFilled,
		Quantity: order.Quantity,
	})
}

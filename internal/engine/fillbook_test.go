package engine

import (
	"testing"

	"main/internal/event"
	"main/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestFillBookNetsPositions(t *testing.T) {
	b := NewFillBook()

	b.Apply(event.Fill{Instrument: "EURUSD", Side: event.SideBuy, Quantity: 100000, Cost: model.Price(110234)})
	b.Apply(event.Fill{Instrument: "EURUSD", Side: event.SideSell, Quantity: 40000, Cost: model.Price(110250)})
	b.Apply(event.Fill{Instrument: "GBPUSD", Side: event.SideSell, Quantity: 50000, Cost: model.Price(125001)})

	assert.Equal(t, int64(60000), b.Position("EURUSD"))
	assert.Equal(t, int64(-50000), b.Position("GBPUSD"))
	assert.Equal(t, int64(0), b.Position("USDJPY"))
	assert.Equal(t, int64(3), b.Fills())
	assert.Equal(t, int64(100000*110234+40000*110250), b.Notional("EURUSD"))
}

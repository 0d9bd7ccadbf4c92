package execution

import (
	"encoding/json"
	"testing"
	"time"

	"main/internal/event"
	"main/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSocketBroker(t *testing.T) (*SocketBroker, *Reconciler, *event.Queue) {
	t.Helper()
	q := event.NewQueue(16)
	rec := NewReconciler(q, 100*time.Millisecond)
	return &SocketBroker{cfg: SocketBrokerConfig{OrderRouting: "SMART", Currency: "USD"}, rec: rec}, rec, q
}

func openOrderMsg(id uint64, symbol, exchange, action string) brokerMessage {
	msg := brokerMessage{Type: "openOrder", OrderID: id}
	msg.Contract.Symbol = symbol
	msg.Contract.Exchange = exchange
	msg.Order.Action = action
	return msg
}

func orderStatusMsg(id uint64, status string, qty int64, avg string) brokerMessage {
	msg := brokerMessage{Type: "orderStatus", OrderID: id, Status: status, FilledQty: qty}
	msg.AvgFillPrice = json.Number(avg)
	return msg
}

func TestSocketReplyAckThenFill(t *testing.T) {
	b, rec, q := newTestSocketBroker(t)
	id := rec.NextOrderID()
	rec.Track(id, "EURUSD", event.SideBuy)

	b.handleReply(openOrderMsg(id, "EUR.USD", "IDEALPRO", "BUY"))
	b.handleReply(orderStatusMsg(id, "Filled", 100000, "1.10234"))

	fill := popFill(t, q)
	assert.Equal(t, "EURUSD", fill.Instrument)
	assert.Equal(t, "IDEALPRO", fill.Exchange)
	assert.Equal(t, event.SideBuy, fill.Side)
	assert.Equal(t, int64(100000), fill.Quantity)

	want, err := model.ParsePrice("1.10234")
	require.NoError(t, err)
	assert.Equal(t, want, fill.Cost)
	assert.Equal(t, 0, q.Len())
}

func TestSocketReplyFillBeforeAck(t *testing.T) {
	b, rec, q := newTestSocketBroker(t)
	id := rec.NextOrderID()
	rec.Track(id, "GBPUSD", event.SideSell)

	b.handleReply(orderStatusMsg(id, "Filled", 50000, "1.25001"))
	require.Equal(t, 0, q.Len())

	b.handleReply(openOrderMsg(id, "GBP.USD", "IDEALPRO", "SELL"))
	fill := popFill(t, q)
	assert.Equal(t, "GBPUSD", fill.Instrument)
	assert.Equal(t, event.SideSell, fill.Side)
	assert.Equal(t, int64(50000), fill.Quantity)
}

func TestSocketReplyDuplicateStatus(t *testing.T) {
	b, rec, q := newTestSocketBroker(t)
	id := rec.NextOrderID()
	rec.Track(id, "EURUSD", event.SideBuy)

	b.handleReply(openOrderMsg(id, "EUR.USD", "IDEALPRO", "BUY"))
	b.handleReply(orderStatusMsg(id, "Filled", 1, "1.10000"))
	b.handleReply(orderStatusMsg(id, "Filled", 1, "1.10000"))

	assert.Equal(t, 1, q.Len())
}

func TestSocketReplyCancelSpellings(t *testing.T) {
	b, rec, q := newTestSocketBroker(t)
	for _, status := range []string{"Cancelled", "Canceled"} {
		id := rec.NextOrderID()
		rec.Track(id, "EURUSD", event.SideBuy)
		b.handleReply(openOrderMsg(id, "EUR.USD", "IDEALPRO", "BUY"))
		b.handleReply(orderStatusMsg(id, status, 0, ""))

		o, ok := rec.Order(id)
		require.True(t, ok, status)
		assert.Equal(t, OrderStateCancelled, o.State, status)
	}
	assert.Equal(t, 0, q.Len())
}

func TestSocketReplyWorkingStatusEmitsNothing(t *testing.T) {
	b, rec, q := newTestSocketBroker(t)
	id := rec.NextOrderID()
	rec.Track(id, "EURUSD", event.SideBuy)

	b.handleReply(openOrderMsg(id, "EUR.USD", "IDEALPRO", "BUY"))
	b.handleReply(orderStatusMsg(id, "Submitted", 0, ""))
	b.handleReply(orderStatusMsg(id, "PreSubmitted", 0, ""))

	assert.Equal(t, 0, q.Len())
	o, ok := rec.Order(id)
	require.True(t, ok)
	assert.Equal(t, OrderStateOpen, o.State)
}

func TestSocketReplyUnknownOrderDiscarded(t *testing.T) {
	b, _, q := newTestSocketBroker(t)
	b.handleReply(orderStatusMsg(99, "Filled", 1, "1.10000"))
	assert.Equal(t, 0, q.Len())
}

func TestSideFromAction(t *testing.T) {
	assert.Equal(t, event.SideBuy, sideFromAction("BUY"))
	assert.Equal(t, event.SideSell, sideFromAction("SELL"))
	assert.Equal(t, event.SideUnknown, sideFromAction("SSHORT"))
}

func TestActionFromSide(t *testing.T) {
	assert.Equal(t, "BUY", actionFromSide(event.SideBuy))
	assert.Equal(t, "SELL", actionFromSide(event.SideSell))
}

func TestStatusFromWire(t *testing.T) {
	assert.Equal(t, StatusFilled, statusFromWire("Filled"))
	assert.Equal(t, StatusCancelled, statusFromWire("Cancelled"))
	assert.Equal(t, StatusCancelled, statusFromWire("Canceled"))
	assert.Equal(t, StatusWorking, statusFromWire("Submitted"))
	assert.Equal(t, StatusWorking, statusFromWire("PreSubmitted"))
	assert.Equal(t, StatusUnknown, statusFromWire("ApiPending"))
}

func TestOrderKindSocketWire(t *testing.T) {
	assert.Equal(t, "MKT", orderKindSocketWire(event.OrderKindMarket))
	assert.Equal(t, "LMT", orderKindSocketWire(event.OrderKindLimit))
}

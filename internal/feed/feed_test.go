package feed

import (
	"context"
	"io"
	"strings"
	"testing"

	"main/internal/event"
	"main/internal/model"
	"main/pkg/exception"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	payload string
	calls   int
}

func (s *fakeStream) Connect(context.Context) (io.ReadCloser, error) {
	s.calls++
	return io.NopCloser(strings.NewReader(s.payload)), nil
}

func drain(t *testing.T, q *event.Queue) []event.Event {
	t.Helper()
	var out []event.Event
	for q.Len() > 0 {
		e, ok := q.Pop(t.Context())
		require.True(t, ok)
		out = append(out, e)
	}
	return out
}

func TestFeedPublishesTickAndInverse(t *testing.T) {
	q := event.NewQueue(16)
	f := New(&fakeStream{
		payload: `{"tick":{"instrument":"GBP_USD","time":"t1","bid":1.25001,"ask":1.25003}}` + "\n",
	}, q)

	n, err := f.streamOnce(t.Context())
	assert.ErrorIs(t, err, exception.ErrStreamClosed)
	require.Equal(t, 2, n)

	events := drain(t, q)
	require.Len(t, events, 2)

	tick := events[0].Tick
	assert.Equal(t, event.TypeTick, events[0].Type)
	assert.Equal(t, "GBPUSD", tick.Instrument)
	assert.Equal(t, model.Price(125001), tick.Bid)
	assert.Equal(t, model.Price(125003), tick.Ask)

	inv := events[1].Tick
	assert.Equal(t, "USDGBP", inv.Instrument)
	assert.Equal(t, model.Price(79998), inv.Bid) // 1/1.25003 half-down
	assert.Equal(t, model.Price(79999), inv.Ask) // 1/1.25001 half-down
	assert.True(t, inv.Bid < inv.Ask)

	bid, ask, ok := f.Price("USDGBP")
	require.True(t, ok)
	assert.Equal(t, model.Price(79998), bid)
	assert.Equal(t, model.Price(79999), ask)
}

func TestFeedSkipsMalformedLines(t *testing.T) {
	q := event.NewQueue(16)
	f := New(&fakeStream{payload: strings.Join([]string{
		`{not json`,
		`{"tick":{"instrument":"EUR_USD","time":"t1"}}`,
		`{"heartbeat":{"time":"t2"}}`,
		`{"tick":{"instrument":"EUR_USD","time":"t3","bid":1.10000,"ask":1.10002}}`,
	}, "\n")}, q)

	n, err := f.streamOnce(t.Context())
	assert.ErrorIs(t, err, exception.ErrStreamClosed)
	assert.Equal(t, 2, n)

	events := drain(t, q)
	require.Len(t, events, 2)
	assert.Equal(t, "EURUSD", events[0].Tick.Instrument)
	assert.Equal(t, "USDEUR", events[1].Tick.Instrument)
}

func TestFeedRejectsCrossedTick(t *testing.T) {
	q := event.NewQueue(16)
	f := New(&fakeStream{payload: strings.Join([]string{
		`{"tick":{"instrument":"EUR_USD","time":"t1","bid":1.10002,"ask":1.10000}}`,
		`{"tick":{"instrument":"EUR_USD","time":"t2","bid":1.20000,"ask":1.20000}}`,
	}, "\n")}, q)

	n, err := f.streamOnce(t.Context())
	assert.ErrorIs(t, err, exception.ErrStreamClosed)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, q.Len())
}

func TestFeedDropsTicksWhenQueueFull(t *testing.T) {
	q := event.NewQueue(1)
	f := New(&fakeStream{
		payload: `{"tick":{"instrument":"GBP_USD","time":"t1","bid":1.25001,"ask":1.25003}}`,
	}, q)

	n, err := f.streamOnce(t.Context())
	assert.ErrorIs(t, err, exception.ErrStreamClosed)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, q.Len())
}

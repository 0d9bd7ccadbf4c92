package feed

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"main/internal/event"
	"main/internal/model"
	"main/pkg/backoff"
	"main/pkg/exception"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

// Stream opens one streaming connection to the price source. The feed
// owns the reconnect policy; the stream only dials.
type Stream interface {
	Connect(ctx context.Context) (io.ReadCloser, error)
}

// Feed reads newline-delimited tick messages from a Stream and
// publishes Tick events. Each traded pair also produces a synthetic
// inverted tick (GBPUSD -> USDGBP).
type Feed struct {
	stream  Stream
	queue   *event.Queue
	backoff backoff.Policy

	mu     sync.RWMutex
	prices map[string]quote
}

type quote struct {
	Bid  model.Price
	Ask  model.Price
	Time time.Time
}

func New(stream Stream, queue *event.Queue) *Feed {
	return &Feed{
		stream:  stream,
		queue:   queue,
		backoff: backoff.Stream(),
		prices:  make(map[string]quote),
	}
}

// Run streams ticks until the context is done, reconnecting with
// backoff whenever the stream closes.
func (f *Feed) Run(ctx context.Context) {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}

		n, err := f.streamOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		if n > 0 {
			attempt = 0
		}
		attempt++

		wait := f.backoff.Next(attempt)
		logs.Errorf("price stream closed, reconnect in %s, err: %+v", wait, err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// streamOnce connects and consumes lines until the stream ends.
// Returns the number of ticks published on this connection.
func (f *Feed) streamOnce(ctx context.Context) (int, error) {
	body, err := f.stream.Connect(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "connect price stream")
	}
	defer body.Close()

	published := 0
	sc := bufio.NewScanner(body)
	for sc.Scan() {
		if ctx.Err() != nil {
			return published, ctx.Err()
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		published += f.handleLine(line)
	}
	if err := sc.Err(); err != nil {
		return published, errors.Wrap(err, "read price stream")
	}
	return published, exception.ErrStreamClosed
}

type streamLine struct {
	Heartbeat json.RawMessage `json:"heartbeat"`
	Tick      struct {
		Instrument string      `json:"instrument"`
		Time       string      `json:"time"`
		Bid        json.Number `json:"bid"`
		Ask        json.Number `json:"ask"`
	} `json:"tick"`
}

// handleLine parses one stream line. Malformed lines are logged and
// skipped; the stream keeps going.
func (f *Feed) handleLine(line []byte) int {
	var msg streamLine
	if err := json.Unmarshal(line, &msg); err != nil {
		logs.Errorf("skip stream line, err: %+v", errors.Wrapf(exception.ErrMalformedMessage, "%v", err))
		return 0
	}
	if msg.Heartbeat != nil {
		return 0
	}
	if msg.Tick.Instrument == "" || msg.Tick.Bid == "" || msg.Tick.Ask == "" {
		logs.Errorf("skip stream line, err: %+v", errors.Wrap(exception.ErrMalformedMessage, "missing tick fields"))
		return 0
	}

	instrument := model.NormalizePair(msg.Tick.Instrument)
	bid, err := model.ParsePrice(msg.Tick.Bid.String())
	if err != nil {
		logs.Errorf("skip stream line, err: %+v", errors.Wrap(err, "parse bid"))
		return 0
	}
	ask, err := model.ParsePrice(msg.Tick.Ask.String())
	if err != nil {
		logs.Errorf("skip stream line, err: %+v", errors.Wrap(err, "parse ask"))
		return 0
	}
	if bid >= ask {
		logs.Errorf("reject tick %s, err: %+v", instrument,
			errors.Wrapf(exception.ErrInvalidTick, "bid %s >= ask %s", bid, ask))
		return 0
	}

	ts, err := time.Parse(time.RFC3339Nano, msg.Tick.Time)
	if err != nil {
		ts = time.Now().UTC()
	}

	published := f.publish(instrument, ts, bid, ask)
	published += f.publish(model.InvertPair(instrument), ts, ask.Invert(), bid.Invert())
	return published
}

func (f *Feed) publish(instrument string, ts time.Time, bid, ask model.Price) int {
	f.mu.Lock()
	f.prices[instrument] = quote{Bid: bid, Ask: ask, Time: ts}
	f.mu.Unlock()

	tick := event.Tick{Instrument: instrument, Time: ts, Bid: bid, Ask: ask}
	if err := f.queue.TryPush(event.NewTick(tick)); err != nil {
		// Ticks are refreshable; drop with a log instead of blocking the
		// stream reader.
		logs.Errorf("drop tick %s, err: %+v", instrument, err)
		return 0
	}
	return 1
}

// Price returns the last seen quote for an instrument, either
// direction.
func (f *Feed) Price(instrument string) (bid, ask model.Price, ok bool) {
	f.mu.RLock()
	q, ok := f.prices[instrument]
	f.mu.RUnlock()
	return q.Bid, q.Ask, ok
}

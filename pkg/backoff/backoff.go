package backoff

import (
	"math/rand"
	"time"
)

// Policy computes jittered exponential reconnect/retry delays.
type Policy struct {
	Min    time.Duration
	Max    time.Duration
	Factor float64
	Jitter float64
}

// Stream is tuned for re-dialing a market data stream.
func Stream() Policy {
	return Policy{
		Min:    500 * time.Millisecond,
		Max:    30 * time.Second,
		Factor: 2.0,
		Jitter: 0.2,
	}
}

// Submit is tuned for retrying an order submission.
func Submit() Policy {
	return Policy{
		Min:    100 * time.Millisecond,
		Max:    2 * time.Second,
		Factor: 2.0,
		Jitter: 0.1,
	}
}

// Next returns the delay for the given attempt (1-based).
func (p Policy) Next(attempt int) time.Duration {
	min, max, factor := p.Min, p.Max, p.Factor
	if min <= 0 {
		min = 100 * time.Millisecond
	}
	if max <= 0 {
		max = 5 * time.Second
	}
	if factor <= 1 {
		factor = 2.0
	}

	wait := min
	for i := 1; i < attempt && wait < max; i++ {
		wait = time.Duration(float64(wait) * factor)
	}
	if wait > max {
		wait = max
	}

	jitter := p.Jitter
	if jitter <= 0 {
		return wait
	}
	if jitter > 1 {
		jitter = 1
	}
	delta := float64(wait) * jitter
	return wait - time.Duration(delta) + time.Duration(rand.Float64()*2*delta)
}

package exception

import "errors"

var (
	ErrStreamClosed     = errors.New("feed: stream closed")
	ErrMalformedMessage = errors.New("feed: malformed message")
	ErrInvalidTick      = errors.New("feed: invalid tick")
)

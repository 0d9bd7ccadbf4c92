package exception

import "errors"

var (
	ErrOrderQueueFull    = errors.New("order: queue full")
	ErrSubmissionFailed  = errors.New("order: submission failed")
	ErrDuplicateCallback = errors.New("order: duplicate callback")
	ErrUnknownOrderID    = errors.New("order: unknown order id")
	ErrEngineClosed      = errors.New("order: engine closed")
)

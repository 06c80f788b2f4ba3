package notifier

import "errors"

var (
	ErrAlreadyRunning = errors.New("scheduler already running")
	ErrNotRunning     = errors.New("scheduler not running")
	ErrDelivery       = errors.New("notification delivery failed")
	ErrInvalidSink    = errors.New("invalid sink configuration")
)

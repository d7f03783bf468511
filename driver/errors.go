package driver

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound = errors.New("element not found")
	ErrTimeout  = errors.New("wait timed out")
	ErrNoFrame  = errors.New("element is not a frame")
	ErrStale    = errors.New("stale element reference")
)

// NotFoundError names the expression that matched nothing.
type NotFoundError struct {
	XPath string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNotFound, e.XPath)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// TimeoutError reports an expired condition wait.
type TimeoutError struct {
	XPath     string
	Condition Condition
	Timeout   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s after %s waiting for %s: %s", ErrTimeout, e.Timeout, e.Condition, e.XPath)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// IsNotFound reports whether err means nothing matched.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

package element

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoSession       = errors.New("no session bound")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInvalidSlice    = errors.New("slice step cannot be zero")
	ErrNotMultiple     = errors.New("you may only deselect options of a multi-select")
)

// IndexOutOfRangeError carries the requested index and the length observed
// when it was checked.
type IndexOutOfRangeError struct {
	Index  int
	Length int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("index (%d) out of range (%d)", e.Index, e.Length)
}

func (e *IndexOutOfRangeError) Unwrap() error { return ErrIndexOutOfRange }

// ResolveError is returned when an element is still missing after the
// condition wait and every poll attempt. It unwraps to the final lookup error,
// so errors.Is(err, driver.ErrNotFound) holds.
type ResolveError struct {
	XPath    string
	Attempts int
	Elapsed  time.Duration
	Err      error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("gave up on %s after %d attempts in %s: %v",
		e.XPath, e.Attempts, e.Elapsed.Round(time.Millisecond), e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// UnexpectedTagError is returned by select helpers used on another element.
type UnexpectedTagError struct {
	Want string
	Got  string
}

func (e *UnexpectedTagError) Error() string {
	return fmt.Sprintf("select only works on <%s> elements, not on <%s>", e.Want, e.Got)
}

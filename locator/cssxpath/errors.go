package cssxpath

import (
	"errors"
	"fmt"
)

var (
	ErrSyntax      = errors.New("css selector syntax error")
	ErrUnsupported = errors.New("unsupported css expression")
)

// SyntaxError reports a selector that cannot be parsed.
type SyntaxError struct {
	Selector string
	Pos      int
	Msg      string
	Err      error
}

func (e *SyntaxError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s in %q: %v", ErrSyntax, e.Selector, e.Err)
	}
	return fmt.Sprintf("%s in %q at %d: %s", ErrSyntax, e.Selector, e.Pos, e.Msg)
}

func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

func (e *SyntaxError) Unwrap() error { return e.Err }

// UnsupportedError reports valid CSS that has no XPath 1.0 rendering here.
type UnsupportedError struct {
	Selector string
	Expr     string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s %q in %q", ErrUnsupported, e.Expr, e.Selector)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }

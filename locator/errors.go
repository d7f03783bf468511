package locator

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidKind = errors.New("invalid locator kind")
	ErrEmptyChain  = errors.New("empty selector chain")
)

// InvalidKindError reports a locator kind the translator does not know.
// Name is set when the kind came from text.
type InvalidKindError struct {
	Kind Kind
	Name string
}

func (e *InvalidKindError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %q", ErrInvalidKind, e.Name)
	}
	return fmt.Sprintf("%s: %d", ErrInvalidKind, int(e.Kind))
}

func (e *InvalidKindError) Unwrap() error {
	return ErrInvalidKind
}

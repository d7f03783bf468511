// Package element implements re-resolvable handles over a driver session.
// An Element is a locator chain plus a wait budget; every access resolves it
// again against the live document, waiting for the element if needed.
package element

import (
	"fmt"
	"time"

	"github.com/browserwing/nopo/driver"
	"github.com/browserwing/nopo/locator"
)

// Element is a handle on a single element. Use it through a pointer: Extend
// and Bind change the handle in place so references taken earlier see the
// change.
type Element struct {
	handle
}

// New creates an element handle from a locator or a chain.
func New(c locator.Chainer, opts ...Option) *Element {
	return &Element{handle: newHandle(c.Chain(), opts)}
}

// Chain returns the handle's locator chain.
func (e *Element) Chain() locator.Chain { return e.chain }

func (e *Element) Timeout() time.Duration { return e.timeout }

func (e *Element) Session() driver.Session { return e.session }

// XPath derives the full path of the chain.
func (e *Element) XPath() (string, error) { return e.xpath() }

// Bind attaches the handle to a session and returns it.
func (e *Element) Bind(s driver.Session) *Element {
	e.session = s
	return e
}

// Join returns a new handle whose chain is e's followed by the others'.
// The timeout, session and intervals are inherited from e.
func (e *Element) Join(others ...locator.Chainer) *Element {
	return &Element{handle: e.derive(e.chain.Join(others...))}
}

// Extend appends the others' units to e's chain in place and returns e.
func (e *Element) Extend(others ...locator.Chainer) *Element {
	e.chain = e.chain.Join(others...)
	return e
}

// Collection views the same chain as a collection.
func (e *Element) Collection() *Collection {
	return &Collection{handle: e.derive(e.chain), cursor: -1}
}

func (e *Element) String() string {
	if xp, err := e.xpath(); err == nil {
		return fmt.Sprintf("(Element %q)", xp)
	}
	return fmt.Sprintf("(Element %s)", e.chain)
}

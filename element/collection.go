package element

import (
	"context"
	"fmt"
	"iter"
	"strconv"
	"time"

	"github.com/browserwing/nopo/driver"
	"github.com/browserwing/nopo/locator"
	"github.com/browserwing/nopo/pkg/logger"
)

// Collection is a handle on every element matching a chain. It stores no
// elements: each call counts and indexes the live document again.
type Collection struct {
	handle
	cursor int
}

func NewCollection(c locator.Chainer, opts ...Option) *Collection {
	return &Collection{handle: newHandle(c.Chain(), opts), cursor: -1}
}

func (c *Collection) Chain() locator.Chain { return c.chain }

func (c *Collection) Timeout() time.Duration { return c.timeout }

func (c *Collection) Session() driver.Session { return c.session }

func (c *Collection) XPath() (string, error) { return c.xpath() }

func (c *Collection) Bind(s driver.Session) *Collection {
	c.session = s
	return c
}

// Join returns a new collection over c's chain followed by the others'.
func (c *Collection) Join(others ...locator.Chainer) *Collection {
	return &Collection{handle: c.derive(c.chain.Join(others...)), cursor: -1}
}

// Extend appends to c's chain in place and returns c.
func (c *Collection) Extend(others ...locator.Chainer) *Collection {
	c.chain = c.chain.Join(others...)
	return c
}

// Element views the same chain as a single element handle.
func (c *Collection) Element() *Element {
	return &Element{handle: c.derive(c.chain)}
}

// Len counts the matches. While the count is zero it is retried for up to
// the timeout, in case the container has not rendered yet.
func (c *Collection) Len(ctx context.Context) (int, error) {
	s, err := c.bound()
	if err != nil {
		return 0, err
	}
	xp, err := c.xpath()
	if err != nil {
		return 0, err
	}
	attempts := c.attempts(c.lengthRetryInterval)
	for i := 0; i < attempts; i++ {
		els, err := s.FindAll(ctx, xp)
		if err != nil {
			return 0, err
		}
		if len(els) > 0 {
			return len(els), nil
		}
		if err := sleep(ctx, c.lengthRetryInterval); err != nil {
			return 0, err
		}
	}
	els, err := s.FindAll(ctx, xp)
	if err != nil {
		return 0, err
	}
	if len(els) == 0 {
		logger.Debug(ctx, "%s still empty after %d counts", xp, attempts+1)
	}
	return len(els), nil
}

// Get returns the element at index i. Negative indexes count from the end,
// -1 being the last element. The result's chain is the collection's path with
// the position baked in, so it stays valid after the collection changes.
func (c *Collection) Get(ctx context.Context, i int) (*Element, error) {
	n, err := c.Len(ctx)
	if err != nil {
		return nil, err
	}
	return c.at(i, n)
}

func (c *Collection) at(i, n int) (*Element, error) {
	pos := i + 1
	if i < 0 {
		pos = n + i + 1
	}
	if pos <= 0 || pos > n {
		return nil, &IndexOutOfRangeError{Index: i, Length: n}
	}
	xp, err := c.xpath()
	if err != nil {
		return nil, err
	}
	unit := locator.XPath("(" + xp + ")[" + strconv.Itoa(pos) + "]")
	return &Element{handle: c.derive(locator.NewChain(unit))}, nil
}

// Range is a slice with Python semantics: nil bounds are open, negative
// bounds count from the end and a nil Step is 1.
type Range struct {
	Start, Stop, Step *int
}

// Int returns a pointer to i, for Range literals.
func Int(i int) *int { return &i }

// indices resolves r against length n.
func (r Range) indices(n int) ([]int, error) {
	step := 1
	if r.Step != nil {
		step = *r.Step
	}
	if step == 0 {
		return nil, ErrInvalidSlice
	}
	lower, upper := 0, n
	if step < 0 {
		lower, upper = -1, n-1
	}
	bound := func(p *int, def int) int {
		if p == nil {
			return def
		}
		v := *p
		if v < 0 {
			v += n
			if v < lower {
				v = lower
			}
		} else if v > upper {
			v = upper
		}
		return v
	}
	var start, stop int
	if step > 0 {
		start, stop = bound(r.Start, lower), bound(r.Stop, upper)
	} else {
		start, stop = bound(r.Start, upper), bound(r.Stop, lower)
	}
	var out []int
	for i := start; (step > 0 && i < stop) || (step < 0 && i > stop); i += step {
		out = append(out, i)
	}
	return out, nil
}

func (r Range) String() string {
	f := func(p *int) string {
		if p == nil {
			return ""
		}
		return strconv.Itoa(*p)
	}
	if r.Step == nil {
		return fmt.Sprintf("[%s:%s]", f(r.Start), f(r.Stop))
	}
	return fmt.Sprintf("[%s:%s:%s]", f(r.Start), f(r.Stop), f(r.Step))
}

// Slice returns handles for the positions selected by r against the current
// length. The handles are created eagerly and resolve independently.
func (c *Collection) Slice(ctx context.Context, r Range) ([]*Element, error) {
	n, err := c.Len(ctx)
	if err != nil {
		return nil, err
	}
	idx, err := r.indices(n)
	if err != nil {
		return nil, err
	}
	out := make([]*Element, 0, len(idx))
	for _, i := range idx {
		el, err := c.at(i, n)
		if err != nil {
			return nil, err
		}
		out = append(out, el)
	}
	return out, nil
}

// Reset restarts iteration.
func (c *Collection) Reset() {
	c.cursor = -1
}

// Next advances the cursor and returns the element under it. The length is
// counted again on every step, so elements added or removed meanwhile are
// observed. ok is false once the cursor passes the end.
func (c *Collection) Next(ctx context.Context) (el *Element, ok bool, err error) {
	c.cursor++
	n, err := c.Len(ctx)
	if err != nil {
		return nil, false, err
	}
	if c.cursor >= n {
		return nil, false, nil
	}
	el, err = c.Get(ctx, c.cursor)
	if err != nil {
		return nil, false, err
	}
	return el, true, nil
}

// All resets the cursor and yields every element. Iteration stops after the
// first error.
func (c *Collection) All(ctx context.Context) iter.Seq2[*Element, error] {
	return func(yield func(*Element, error) bool) {
		c.Reset()
		for {
			el, ok, err := c.Next(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			if !ok || !yield(el, nil) {
				return
			}
		}
	}
}

func (c *Collection) String() string {
	if xp, err := c.xpath(); err == nil {
		return fmt.Sprintf("(Collection %q)", xp)
	}
	return fmt.Sprintf("(Collection %s)", c.chain)
}

package locator

import "strings"

// Chain is an ordered sequence of locators. The first unit is the outermost
// context. A Chain is a value: Join never modifies its operands.
type Chain struct {
	units []Locator
}

func NewChain(units ...Locator) Chain {
	return Chain{units: append([]Locator(nil), units...)}
}

// Units returns a copy of the chain's locators.
func (c Chain) Units() []Locator {
	return append([]Locator(nil), c.units...)
}

func (c Chain) Len() int {
	return len(c.units)
}

func (c Chain) IsEmpty() bool {
	return len(c.units) == 0
}

// First returns the outermost locator. ok is false for an empty chain.
func (c Chain) First() (l Locator, ok bool) {
	if len(c.units) == 0 {
		return Locator{}, false
	}
	return c.units[0], true
}

// Chain lets a Chain be passed wherever a Chainer is accepted.
func (c Chain) Chain() Chain {
	return c
}

// Join returns a new chain made of c's units followed by each other's units.
func (c Chain) Join(others ...Chainer) Chain {
	n := len(c.units)
	tails := make([]Chain, len(others))
	for i, o := range others {
		tails[i] = o.Chain()
		n += len(tails[i].units)
	}
	units := make([]Locator, 0, n)
	units = append(units, c.units...)
	for _, t := range tails {
		units = append(units, t.units...)
	}
	return Chain{units: units}
}

func (c Chain) Equal(other Chain) bool {
	if len(c.units) != len(other.units) {
		return false
	}
	for i := range c.units {
		if c.units[i] != other.units[i] {
			return false
		}
	}
	return true
}

// Path derives the chain's XPath with the Default translator.
func (c Chain) Path() (string, error) {
	return Default.Path(c)
}

func (c Chain) String() string {
	parts := make([]string, len(c.units))
	for i, u := range c.units {
		parts[i] = u.String()
	}
	return "[" + strings.Join(parts, " / ") + "]"
}

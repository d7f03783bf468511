// Package locator turns heterogeneous element locators into a single XPath
// expression and composes them into chains.
package locator

import "fmt"

// Locator is one atomic selection rule.
type Locator struct {
	Kind  Kind   `json:"by" toml:"by"`
	Value string `json:"value" toml:"value"`
}

func New(kind Kind, value string) Locator {
	return Locator{Kind: kind, Value: value}
}

func XPath(expr string) Locator    { return Locator{Kind: KindXPath, Value: expr} }
func Tag(name string) Locator      { return Locator{Kind: KindTag, Value: name} }
func ID(id string) Locator         { return Locator{Kind: KindID, Value: id} }
func Class(token string) Locator   { return Locator{Kind: KindClass, Value: token} }
func Name(name string) Locator     { return Locator{Kind: KindName, Value: name} }
func CSS(selector string) Locator  { return Locator{Kind: KindCSS, Value: selector} }
func LinkText(text string) Locator { return Locator{Kind: KindLinkText, Value: text} }
func PartialLinkText(text string) Locator {
	return Locator{Kind: KindPartialLinkText, Value: text}
}

// Chain returns a single-unit chain so a bare locator can be composed.
func (l Locator) Chain() Chain {
	return NewChain(l)
}

func (l Locator) String() string {
	return fmt.Sprintf("%s=%q", l.Kind, l.Value)
}

// Chainer is anything that can contribute its units to a chain: locators,
// chains and element handles.
type Chainer interface {
	Chain() Chain
}

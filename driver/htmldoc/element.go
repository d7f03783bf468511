package htmldoc

import (
	"context"
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/browserwing/nopo/driver"
)

// Element is a node of a Session document.
type Element struct {
	s    *Session
	node *html.Node
}

var _ driver.Element = (*Element)(nil)

// Node exposes the underlying parsed node.
func (e *Element) Node() *html.Node { return e.node }

func (e *Element) read(ctx context.Context, fn func(n *html.Node)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.s.mu.RLock()
	defer e.s.mu.RUnlock()
	if !e.s.attached(e.node) {
		return driver.ErrStale
	}
	fn(e.node)
	return nil
}

func (e *Element) write(ctx context.Context, fn func(n *html.Node) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if !e.s.attached(e.node) {
		return driver.ErrStale
	}
	return fn(e.node)
}

func (e *Element) Click(ctx context.Context) error {
	return e.write(ctx, func(n *html.Node) error {
		if !displayed(n) {
			return fmt.Errorf("htmldoc: element not interactable: <%s> is not displayed", n.Data)
		}
		if !enabled(n) {
			return fmt.Errorf("htmldoc: element not interactable: <%s> is disabled", n.Data)
		}
		e.s.clicks = append(e.s.clicks, n)
		switch {
		case n.Data == "option":
			clickOption(n)
		case n.Data == "input" && inputType(n) == "checkbox":
			toggle(n, "checked")
		case n.Data == "input" && inputType(n) == "radio":
			checkRadio(e.s.scope, n)
		}
		return nil
	})
}

func (e *Element) Clear(ctx context.Context) error {
	return e.write(ctx, func(n *html.Node) error {
		if !editable(n) {
			return fmt.Errorf("htmldoc: <%s> is not editable", n.Data)
		}
		setValue(n, "")
		return nil
	})
}

func (e *Element) SendKeys(ctx context.Context, text string) error {
	return e.write(ctx, func(n *html.Node) error {
		if !editable(n) {
			return fmt.Errorf("htmldoc: <%s> is not editable", n.Data)
		}
		setValue(n, value(n)+text)
		return nil
	})
}

func (e *Element) Text(ctx context.Context) (string, error) {
	var text string
	err := e.read(ctx, func(n *html.Node) {
		if displayed(n) {
			text = strings.Join(strings.Fields(htmlquery.InnerText(n)), " ")
		}
	})
	return text, err
}

func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	var (
		v  string
		ok bool
	)
	err := e.read(ctx, func(n *html.Node) { v, ok = attr(n, name) })
	return v, ok, err
}

func (e *Element) Property(ctx context.Context, name string) (any, error) {
	var v any
	err := e.read(ctx, func(n *html.Node) { v = property(n, name) })
	return v, err
}

func (e *Element) IsSelected(ctx context.Context) (bool, error) {
	var sel bool
	err := e.read(ctx, func(n *html.Node) { sel = selected(n) })
	return sel, err
}

func (e *Element) IsEnabled(ctx context.Context) (bool, error) {
	var ok bool
	err := e.read(ctx, func(n *html.Node) { ok = enabled(n) })
	return ok, err
}

func (e *Element) IsDisplayed(ctx context.Context) (bool, error) {
	var ok bool
	err := e.read(ctx, func(n *html.Node) { ok = displayed(n) })
	return ok, err
}

func (e *Element) TagName(ctx context.Context) (string, error) {
	var tag string
	err := e.read(ctx, func(n *html.Node) { tag = n.Data })
	return tag, err
}

func (e *Element) HTML(ctx context.Context) (string, error) {
	var out string
	err := e.read(ctx, func(n *html.Node) { out = htmlquery.OutputHTML(n, true) })
	return out, err
}

package element

import (
	"context"
	"fmt"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

func (e *Element) Click(ctx context.Context) error {
	el, err := e.ResolveClickable(ctx)
	if err != nil {
		return err
	}
	return el.Click(ctx)
}

// Clear empties the element. With force, a value that survives the native
// clear is removed through the session.
func (e *Element) Clear(ctx context.Context, force bool) error {
	el, err := e.ResolveClickable(ctx)
	if err != nil {
		return err
	}
	if err := el.Clear(ctx); err != nil {
		return err
	}
	if !force {
		return nil
	}
	el, err = e.ResolveClickable(ctx)
	if err != nil {
		return err
	}
	v, err := el.Property(ctx, "value")
	if err != nil {
		return err
	}
	if !truthy(v) {
		return nil
	}
	xp, err := e.xpath()
	if err != nil {
		return err
	}
	return e.session.ForceClear(ctx, xp)
}

func (e *Element) SendKeys(ctx context.Context, keys string) error {
	el, err := e.ResolveClickable(ctx)
	if err != nil {
		return err
	}
	return el.SendKeys(ctx, keys)
}

// ClearAndSendKeys clears the element, then types keys.
func (e *Element) ClearAndSendKeys(ctx context.Context, keys string, force bool) error {
	if err := e.Clear(ctx, force); err != nil {
		return err
	}
	return e.SendKeys(ctx, keys)
}

// ClearAndSendKeysIfSet is ClearAndSendKeys for optional input: a nil keys
// leaves the element untouched.
func (e *Element) ClearAndSendKeysIfSet(ctx context.Context, keys *string, force bool) error {
	if keys == nil {
		return nil
	}
	return e.ClearAndSendKeys(ctx, *keys, force)
}

func (e *Element) Text(ctx context.Context) (string, error) {
	el, err := e.Resolve(ctx)
	if err != nil {
		return "", err
	}
	return el.Text(ctx)
}

// Attribute returns the attribute value and whether it is set.
func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	el, err := e.Resolve(ctx)
	if err != nil {
		return "", false, err
	}
	return el.Attribute(ctx, name)
}

func (e *Element) Property(ctx context.Context, name string) (any, error) {
	el, err := e.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return el.Property(ctx, name)
}

// Value returns the element's text, or its value property when the text is
// empty, as for form inputs.
func (e *Element) Value(ctx context.Context) (string, error) {
	text, err := e.Text(ctx)
	if err != nil || text != "" {
		return text, err
	}
	v, err := e.Property(ctx, "value")
	if err != nil || v == nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}

func (e *Element) IsSelected(ctx context.Context) (bool, error) {
	el, err := e.ResolveClickable(ctx)
	if err != nil {
		return false, err
	}
	return el.IsSelected(ctx)
}

// HTML returns the element's outer HTML.
func (e *Element) HTML(ctx context.Context) (string, error) {
	el, err := e.Resolve(ctx)
	if err != nil {
		return "", err
	}
	return el.HTML(ctx)
}

// Markdown renders the element's outer HTML as Markdown.
func (e *Element) Markdown(ctx context.Context) (string, error) {
	h, err := e.HTML(ctx)
	if err != nil {
		return "", err
	}
	return md.NewConverter("", true, nil).ConvertString(h)
}

// SwitchIn resolves a frame element and scopes the session to its document.
func (e *Element) SwitchIn(ctx context.Context) error {
	el, err := e.Resolve(ctx)
	if err != nil {
		return err
	}
	return e.session.SwitchToFrame(ctx, el)
}

// truthy follows script truthiness for property values.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	}
	return true
}

package element

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/browserwing/nopo/driver"
	"github.com/browserwing/nopo/locator"
)

// Options returns the option elements below a select element.
func (e *Element) Options() *Collection {
	return e.Join(locator.Tag("option")).Collection()
}

// AllSelectedOptions returns the options that are currently selected.
func (e *Element) AllSelectedOptions(ctx context.Context) ([]*Element, error) {
	return e.selectedOptions(ctx, false)
}

// FirstSelectedOption returns the first selected option, which for a single
// select is the current choice.
func (e *Element) FirstSelectedOption(ctx context.Context) (*Element, error) {
	out, err := e.selectedOptions(ctx, true)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no options are selected", driver.ErrNotFound)
	}
	return out[0], nil
}

// selectedOptions reads the state of every option from a single lookup once
// the select is present. Options of a closed select need not be displayed, so
// no clickable wait is made per option.
func (e *Element) selectedOptions(ctx context.Context, first bool) ([]*Element, error) {
	if _, err := e.Resolve(ctx); err != nil {
		return nil, err
	}
	opts := e.Options()
	xp, err := opts.xpath()
	if err != nil {
		return nil, err
	}
	found, err := e.session.FindAll(ctx, xp)
	if err != nil {
		return nil, err
	}
	var out []*Element
	for i, el := range found {
		ok, err := el.IsSelected(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		opt, err := opts.at(i, len(found))
		if err != nil {
			return nil, err
		}
		out = append(out, opt)
		if first {
			break
		}
	}
	return out, nil
}

// SelectByValue selects every option whose value attribute equals value, or
// only the first one in a single select.
func (e *Element) SelectByValue(ctx context.Context, value string) error {
	return e.choose(ctx, true, byValue(value), "value: "+value)
}

// SelectByIndex selects the option at the 0-based position among the
// select's options.
func (e *Element) SelectByIndex(ctx context.Context, index int) error {
	return e.choose(ctx, true, byIndex(index), "index: "+strconv.Itoa(index))
}

// SelectByVisibleText selects options whose whitespace-normalised text is
// text.
func (e *Element) SelectByVisibleText(ctx context.Context, text string) error {
	return e.choose(ctx, true, byText(text), "visible text: "+text)
}

// DeselectAll clears every selected option of a multiple select.
func (e *Element) DeselectAll(ctx context.Context) error {
	sel, err := e.asSelect(ctx)
	if err != nil {
		return err
	}
	if !sel.multiple {
		return ErrNotMultiple
	}
	opts, err := e.session.FindAll(ctx, sel.xpath+"//option")
	if err != nil {
		return err
	}
	for _, opt := range opts {
		if err := setSelected(ctx, opt, false); err != nil {
			return err
		}
	}
	return nil
}

func (e *Element) DeselectByValue(ctx context.Context, value string) error {
	return e.choose(ctx, false, byValue(value), "value: "+value)
}

func (e *Element) DeselectByIndex(ctx context.Context, index int) error {
	return e.choose(ctx, false, byIndex(index), "index: "+strconv.Itoa(index))
}

func (e *Element) DeselectByVisibleText(ctx context.Context, text string) error {
	return e.choose(ctx, false, byText(text), "visible text: "+text)
}

type selectInfo struct {
	xpath    string
	multiple bool
}

func (e *Element) asSelect(ctx context.Context) (selectInfo, error) {
	el, err := e.ResolveClickable(ctx)
	if err != nil {
		return selectInfo{}, err
	}
	tag, err := el.TagName(ctx)
	if err != nil {
		return selectInfo{}, err
	}
	if !strings.EqualFold(tag, "select") {
		return selectInfo{}, &UnexpectedTagError{Want: "select", Got: strings.ToLower(tag)}
	}
	multi, ok, err := el.Attribute(ctx, "multiple")
	if err != nil {
		return selectInfo{}, err
	}
	xp, err := e.xpath()
	if err != nil {
		return selectInfo{}, err
	}
	return selectInfo{xpath: xp, multiple: ok && multi != "false"}, nil
}

// optionMatch builds the option expression from the select's path.
type optionMatch func(selectPath string) string

func byValue(value string) optionMatch {
	return func(sel string) string {
		return sel + "//option[@value=" + locator.Quote(value) + "]"
	}
}

// byIndex picks by 0-based position among the select's options.
func byIndex(index int) optionMatch {
	return func(sel string) string {
		return "(" + sel + "//option)[" + strconv.Itoa(index+1) + "]"
	}
}

func byText(text string) optionMatch {
	return func(sel string) string {
		return sel + "//option[normalize-space(.)=" + locator.Quote(normalizeSpace(text)) + "]"
	}
}

// choose selects (or deselects) the matching options. A single select stops
// at the first match.
func (e *Element) choose(ctx context.Context, on bool, match optionMatch, what string) error {
	sel, err := e.asSelect(ctx)
	if err != nil {
		return err
	}
	if !on && !sel.multiple {
		return ErrNotMultiple
	}
	opts, err := e.session.FindAll(ctx, match(sel.xpath))
	if err != nil {
		return err
	}
	if len(opts) == 0 {
		return fmt.Errorf("%w: cannot locate option with %s", driver.ErrNotFound, what)
	}
	for _, opt := range opts {
		if err := setSelected(ctx, opt, on); err != nil {
			return err
		}
		if on && !sel.multiple {
			return nil
		}
	}
	return nil
}

func setSelected(ctx context.Context, opt driver.Element, want bool) error {
	selected, err := opt.IsSelected(ctx)
	if err != nil {
		return err
	}
	if selected == want {
		return nil
	}
	return opt.Click(ctx)
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

package locator

import (
	"strings"

	"github.com/browserwing/nopo/locator/cssxpath"
)

// CSSTranslator converts a CSS selector into an XPath expression.
type CSSTranslator interface {
	CSSToXPath(selector string) (string, error)
}

// CSSTranslatorFunc adapts a function to CSSTranslator.
type CSSTranslatorFunc func(selector string) (string, error)

func (f CSSTranslatorFunc) CSSToXPath(selector string) (string, error) {
	return f(selector)
}

// Translator turns locators and chains into XPath. The zero value uses the
// cssxpath generic translator for CSS selectors.
type Translator struct {
	CSS CSSTranslator
}

// Default is used by Translate and Chain.Path.
var Default = &Translator{}

// Translate converts one locator into an XPath fragment with Default.
func Translate(l Locator) (string, error) {
	return Default.Translate(l)
}

func (t *Translator) css() CSSTranslator {
	if t == nil || t.CSS == nil {
		return cssxpath.Translator{}
	}
	return t.CSS
}

// Translate converts one locator into an XPath fragment. CSS translation
// errors are returned unchanged.
func (t *Translator) Translate(l Locator) (string, error) {
	switch l.Kind {
	case KindXPath, KindTag:
		return l.Value, nil
	case KindID:
		return `*[@id=` + Quote(l.Value) + `]`, nil
	case KindClass:
		return `*[contains(concat(" ",@class," "),` + Quote(" "+l.Value+" ") + `)]`, nil
	case KindName:
		return `*[@name=` + Quote(l.Value) + `]`, nil
	case KindCSS:
		return t.css().CSSToXPath(l.Value)
	case KindLinkText:
		return `a[text()=` + Quote(l.Value) + `]`, nil
	case KindPartialLinkText:
		return `a[contains(text(),` + Quote(l.Value) + `)]`, nil
	default:
		return "", &InvalidKindError{Kind: l.Kind}
	}
}

// Path derives the full XPath of a chain. The first unit is searched anywhere
// in the document unless it is raw XPath. Later raw XPath units are joined as
// direct steps, every other kind as a descendant search.
func (t *Translator) Path(c Chain) (string, error) {
	if len(c.units) == 0 {
		return "", ErrEmptyChain
	}
	var b strings.Builder
	for i, unit := range c.units {
		frag, err := t.Translate(unit)
		if err != nil {
			return "", err
		}
		switch {
		case i == 0 && unit.Kind != KindXPath:
			b.WriteString("//")
		case i > 0 && unit.Kind == KindXPath:
			b.WriteString("/")
		case i > 0:
			b.WriteString("//")
		}
		b.WriteString(frag)
	}
	return b.String(), nil
}

// Quote renders s as an XPath string literal. XPath has no escape character,
// so a value holding a double quote is spliced with concat().
func Quote(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	return `concat("` + strings.ReplaceAll(s, `"`, `", '"', "`) + `")`
}

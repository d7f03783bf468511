// Package cssxpath translates CSS selectors into XPath 1.0 expressions in the
// style of the generic cssselect translator.
package cssxpath

import (
	"strings"
	"unicode/utf8"

	"github.com/andybalholm/cascadia"
)

const defaultPrefix = "descendant-or-self::"

// Translator converts selectors. Prefix is put in front of every selector of
// a group and defaults to "descendant-or-self::".
type Translator struct {
	Prefix string
}

// Translate converts a selector with the zero Translator.
func Translate(selector string) (string, error) {
	return Translator{}.CSSToXPath(selector)
}

func (t Translator) CSSToXPath(selector string) (string, error) {
	if !utf8.ValidString(selector) {
		return "", &SyntaxError{Selector: selector, Pos: invalidUTF8(selector), Msg: "invalid UTF-8"}
	}
	if pe, ok := findPseudoElement(selector); ok {
		return "", &UnsupportedError{Selector: selector, Expr: pe}
	}
	p := &parser{src: []rune(selector), selector: selector}
	group, err := p.parseGroup()
	if err != nil {
		return "", err
	}

	prefix := t.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	parts := make([]string, 0, len(group))
	for _, sel := range group {
		xp, err := sel.xpath(selector)
		if err != nil {
			return "", err
		}
		parts = append(parts, prefix+xp)
	}
	// Anything the translator accepted must also be a selector a browser
	// would accept.
	if _, err := cascadia.ParseGroup(selector); err != nil {
		return "", &SyntaxError{Selector: selector, Err: err}
	}
	return strings.Join(parts, " | "), nil
}

// findPseudoElement looks for "::name" outside strings and brackets.
func findPseudoElement(s string) (string, bool) {
	var quote rune
	depth := 0
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case r == '\\':
			i++
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '[' || r == '(':
			depth++
		case r == ']' || r == ')':
			depth--
		case r == ':' && depth == 0 && i+1 < len(rs) && rs[i+1] == ':':
			end := i + 2
			for end < len(rs) && isNameRune(rs[end]) {
				end++
			}
			return string(rs[i:end]), true
		}
	}
	return "", false
}

// literal renders s as an XPath 1.0 string literal.
func literal(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// invalidUTF8 returns the byte offset of the first invalid encoding in s.
func invalidUTF8(s string) int {
	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
				return i
			}
		}
	}
	return -1
}

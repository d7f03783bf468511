package cssxpath

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type combinator byte

const (
	descendant combinator = ' '
	child      combinator = '>'
	adjacent   combinator = '+'
	sibling    combinator = '~'
)

type attrSel struct {
	name  string
	op    string
	value string
}

type pseudoSel struct {
	name string
	arg  string
	not  *compound
}

type compound struct {
	tag     string
	ids     []string
	classes []string
	attrs   []attrSel
	pseudos []pseudoSel
}

type step struct {
	comb combinator
	sel  *compound
}

// selector is a compound followed by combinator steps.
type selector struct {
	head  *compound
	steps []step
}

type parser struct {
	src      []rune
	pos      int
	selector string
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Selector: p.selector, Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() rune {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) skipSpace() bool {
	start := p.pos
	for !p.eof() && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
	return p.pos > start
}

func (p *parser) parseGroup() ([]selector, error) {
	var group []selector
	for {
		p.skipSpace()
		sel, err := p.parseSelector()
		if err != nil {
			return nil, err
		}
		group = append(group, sel)
		p.skipSpace()
		if p.eof() {
			return group, nil
		}
		if p.peek() != ',' {
			return nil, p.errorf("unexpected %q", p.peek())
		}
		p.pos++
	}
}

func (p *parser) parseSelector() (selector, error) {
	head, err := p.parseCompound()
	if err != nil {
		return selector{}, err
	}
	sel := selector{head: head}
	for {
		spaced := p.skipSpace()
		if p.eof() || p.peek() == ',' || p.peek() == ')' {
			return sel, nil
		}
		comb := descendant
		switch r := p.peek(); r {
		case '>', '+', '~':
			comb = combinator(r)
			p.pos++
			p.skipSpace()
		default:
			if !spaced {
				return selector{}, p.errorf("unexpected %q", r)
			}
		}
		next, err := p.parseCompound()
		if err != nil {
			return selector{}, err
		}
		sel.steps = append(sel.steps, step{comb: comb, sel: next})
	}
}

func (p *parser) parseCompound() (*compound, error) {
	c := &compound{tag: "*"}
	start := p.pos
	if p.peek() == '*' {
		p.pos++
	} else if isNameStart(p.peek()) {
		name, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		c.tag = name
	}
	if p.peek() == '|' {
		return nil, &UnsupportedError{Selector: p.selector, Expr: "namespace"}
	}
	for !p.eof() {
		switch p.peek() {
		case '#':
			p.pos++
			name, err := p.parseName()
			if err != nil {
				return nil, err
			}
			c.ids = append(c.ids, name)
		case '.':
			p.pos++
			name, err := p.parseIdent()
			if err != nil {
				return nil, err
			}
			c.classes = append(c.classes, name)
		case '[':
			a, err := p.parseAttr()
			if err != nil {
				return nil, err
			}
			c.attrs = append(c.attrs, a)
		case ':':
			ps, err := p.parsePseudo()
			if err != nil {
				return nil, err
			}
			c.pseudos = append(c.pseudos, ps)
		default:
			if p.pos == start {
				return nil, p.errorf("expected selector, got %q", p.peek())
			}
			return c, nil
		}
	}
	if p.pos == start {
		return nil, p.errorf("expected selector")
	}
	return c, nil
}

func (p *parser) parseAttr() (attrSel, error) {
	p.pos++ // [
	p.skipSpace()
	name, err := p.parseIdent()
	if err != nil {
		return attrSel{}, err
	}
	p.skipSpace()
	if p.peek() == ']' {
		p.pos++
		return attrSel{name: name, op: "exists"}, nil
	}
	var op string
	switch r := p.peek(); r {
	case '=':
		op = "="
		p.pos++
	case '~', '|', '^', '$', '*', '!':
		if p.pos+1 >= len(p.src) || p.src[p.pos+1] != '=' {
			return attrSel{}, p.errorf("bad attribute operator")
		}
		op = string(r) + "="
		p.pos += 2
	default:
		return attrSel{}, p.errorf("bad attribute operator %q", r)
	}
	p.skipSpace()
	var value string
	if r := p.peek(); r == '"' || r == '\'' {
		value, err = p.parseString()
	} else {
		value, err = p.parseIdent()
	}
	if err != nil {
		return attrSel{}, err
	}
	p.skipSpace()
	if p.peek() != ']' {
		return attrSel{}, p.errorf("expected ']'")
	}
	p.pos++
	return attrSel{name: name, op: op, value: value}, nil
}

func (p *parser) parsePseudo() (pseudoSel, error) {
	p.pos++ // :
	name, err := p.parseIdent()
	if err != nil {
		return pseudoSel{}, err
	}
	name = strings.ToLower(name)
	if p.peek() != '(' {
		return pseudoSel{name: name}, nil
	}
	p.pos++
	p.skipSpace()
	ps := pseudoSel{name: name}
	switch name {
	case "not":
		inner, err := p.parseCompound()
		if err != nil {
			return pseudoSel{}, err
		}
		ps.not = inner
	default:
		if r := p.peek(); r == '"' || r == '\'' {
			ps.arg, err = p.parseString()
			if err != nil {
				return pseudoSel{}, err
			}
		} else {
			start := p.pos
			for !p.eof() && p.peek() != ')' {
				p.pos++
			}
			ps.arg = strings.TrimSpace(string(p.src[start:p.pos]))
		}
	}
	p.skipSpace()
	if p.peek() != ')' {
		return pseudoSel{}, p.errorf("expected ')'")
	}
	p.pos++
	return ps, nil
}

func (p *parser) parseIdent() (string, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	if !isNameStart(p.peek()) && p.peek() != '\\' {
		p.pos = start
		return "", p.errorf("expected identifier")
	}
	return p.readName(start)
}

func (p *parser) parseName() (string, error) {
	start := p.pos
	if !isNameRune(p.peek()) && p.peek() != '\\' {
		return "", p.errorf("expected name")
	}
	return p.readName(start)
}

func (p *parser) readName(start int) (string, error) {
	var b strings.Builder
	b.WriteString(string(p.src[start:p.pos]))
	for !p.eof() {
		r := p.peek()
		switch {
		case r == '\\':
			if p.pos+1 >= len(p.src) {
				return "", p.errorf("dangling escape")
			}
			b.WriteRune(p.src[p.pos+1])
			p.pos += 2
		case isNameRune(r):
			b.WriteRune(r)
			p.pos++
		default:
			return b.String(), nil
		}
	}
	return b.String(), nil
}

func (p *parser) parseString() (string, error) {
	q := p.peek()
	p.pos++
	var b strings.Builder
	for !p.eof() {
		r := p.peek()
		switch r {
		case '\\':
			if p.pos+1 < len(p.src) {
				b.WriteRune(p.src[p.pos+1])
			}
			p.pos += 2
		case q:
			p.pos++
			return b.String(), nil
		default:
			b.WriteRune(r)
			p.pos++
		}
	}
	return "", p.errorf("unterminated string")
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || r > 0x7f
}

func isNameRune(r rune) bool {
	return isNameStart(r) || r == '-' || unicode.IsDigit(r)
}

// parseNth parses the an+b micro syntax of :nth-* arguments.
func parseNth(arg string) (a, b int, err error) {
	s := strings.ToLower(strings.ReplaceAll(arg, " ", ""))
	switch s {
	case "odd":
		return 2, 1, nil
	case "even":
		return 2, 0, nil
	case "":
		return 0, 0, fmt.Errorf("empty nth argument")
	}
	n := strings.IndexByte(s, 'n')
	if n < 0 {
		b, err = strconv.Atoi(s)
		return 0, b, err
	}
	switch coef := s[:n]; coef {
	case "", "+":
		a = 1
	case "-":
		a = -1
	default:
		if a, err = strconv.Atoi(coef); err != nil {
			return 0, 0, err
		}
	}
	if rest := s[n+1:]; rest != "" {
		if b, err = strconv.Atoi(rest); err != nil {
			return 0, 0, err
		}
	}
	return a, b, nil
}

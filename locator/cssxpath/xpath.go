package cssxpath

import (
	"fmt"
	"strings"
)

func (s selector) xpath(src string) (string, error) {
	head, err := s.head.xpath(src)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(head.String())
	for _, st := range s.steps {
		right, err := st.sel.xpath(src)
		if err != nil {
			return "", err
		}
		switch st.comb {
		case descendant:
			b.WriteString("/descendant-or-self::*/")
		case child:
			b.WriteString("/")
		case sibling:
			b.WriteString("/following-sibling::")
		case adjacent:
			b.WriteString("/following-sibling::")
			right.nameTest()
			right.conds = append(right.conds, "position() = 1")
		}
		b.WriteString(right.String())
	}
	return b.String(), nil
}

// expr is one location step: an element test plus predicate conditions.
type expr struct {
	element string
	conds   []string
}

// nameTest moves the element name into the conditions.
func (e *expr) nameTest() {
	if e.element == "*" {
		return
	}
	e.conds = append([]string{"name() = " + literal(e.element)}, e.conds...)
	e.element = "*"
}

func (e expr) condition() string {
	switch len(e.conds) {
	case 0:
		return ""
	case 1:
		return e.conds[0]
	}
	parts := make([]string, len(e.conds))
	for i, c := range e.conds {
		parts[i] = "(" + c + ")"
	}
	return strings.Join(parts, " and ")
}

func (e expr) String() string {
	if c := e.condition(); c != "" {
		return e.element + "[" + c + "]"
	}
	return e.element
}

func (c *compound) xpath(src string) (expr, error) {
	e := expr{element: c.tag}
	for _, id := range c.ids {
		e.conds = append(e.conds, "@id = "+literal(id))
	}
	for _, cls := range c.classes {
		e.conds = append(e.conds, tokenMatch("@class", cls))
	}
	for _, a := range c.attrs {
		e.conds = append(e.conds, a.xpath())
	}
	for _, ps := range c.pseudos {
		cond, err := ps.xpath(c.tag, src)
		if err != nil {
			return expr{}, err
		}
		e.conds = append(e.conds, cond)
	}
	return e, nil
}

func tokenMatch(attr, token string) string {
	return fmt.Sprintf("%s and contains(concat(' ', normalize-space(%s), ' '), %s)",
		attr, attr, literal(" "+token+" "))
}

func (a attrSel) xpath() string {
	attr := "@" + a.name
	v := a.value
	switch a.op {
	case "exists":
		return attr
	case "=":
		return attr + " = " + literal(v)
	case "!=":
		return fmt.Sprintf("not(%s) or %s != %s", attr, attr, literal(v))
	case "~=":
		if v == "" || strings.ContainsAny(v, " \t\n\r\f") {
			return "0"
		}
		return tokenMatch(attr, v)
	case "|=":
		return fmt.Sprintf("%s and (%s = %s or starts-with(%s, %s))",
			attr, attr, literal(v), attr, literal(v+"-"))
	case "^=":
		if v == "" {
			return "0"
		}
		return fmt.Sprintf("%s and starts-with(%s, %s)", attr, attr, literal(v))
	case "$=":
		if v == "" {
			return "0"
		}
		return fmt.Sprintf("%s and substring(%s, string-length(%s)-%d) = %s",
			attr, attr, attr, len([]rune(v))-1, literal(v))
	case "*=":
		if v == "" {
			return "0"
		}
		return fmt.Sprintf("%s and contains(%s, %s)", attr, attr, literal(v))
	}
	return "0"
}

func (ps pseudoSel) xpath(tag, src string) (string, error) {
	unsupported := func() (string, error) {
		expr := ":" + ps.name
		if ps.arg != "" {
			expr += "(" + ps.arg + ")"
		}
		return "", &UnsupportedError{Selector: src, Expr: expr}
	}
	ofType := func() (string, bool) {
		if tag == "*" {
			return "", false
		}
		return tag, true
	}

	switch ps.name {
	case "first-child":
		return "count(preceding-sibling::*) = 0", nil
	case "last-child":
		return "count(following-sibling::*) = 0", nil
	case "only-child":
		return "count(preceding-sibling::*) = 0 and count(following-sibling::*) = 0", nil
	case "first-of-type", "last-of-type", "only-of-type":
		name, ok := ofType()
		if !ok {
			return unsupported()
		}
		switch ps.name {
		case "first-of-type":
			return "count(preceding-sibling::" + name + ") = 0", nil
		case "last-of-type":
			return "count(following-sibling::" + name + ") = 0", nil
		}
		return "count(preceding-sibling::" + name + ") = 0 and count(following-sibling::" + name + ") = 0", nil
	case "empty":
		return "not(*) and not(string-length())", nil
	case "root":
		return "not(parent::*)", nil
	case "contains":
		return "contains(., " + literal(ps.arg) + ")", nil
	case "not":
		if ps.not == nil {
			return unsupported()
		}
		inner, err := ps.not.xpath(src)
		if err != nil {
			return "", err
		}
		inner.nameTest()
		if c := inner.condition(); c != "" {
			return "not(" + c + ")", nil
		}
		return "0", nil
	case "nth-child", "nth-last-child", "nth-of-type", "nth-last-of-type":
		a, b, err := parseNth(ps.arg)
		if err != nil {
			return "", &SyntaxError{Selector: src, Msg: fmt.Sprintf(":%s(%s): %v", ps.name, ps.arg, err)}
		}
		axis := "preceding-sibling"
		if strings.HasPrefix(ps.name, "nth-last") {
			axis = "following-sibling"
		}
		test := "*"
		if strings.HasSuffix(ps.name, "of-type") {
			name, ok := ofType()
			if !ok {
				return unsupported()
			}
			test = name
		}
		return nthCondition(fmt.Sprintf("count(%s::%s)", axis, test), a, b), nil
	}
	return unsupported()
}

// nthCondition matches positions p = a*k + b for some k >= 0, where
// p = count + 1.
func nthCondition(count string, a, b int) string {
	offset := b - 1
	switch {
	case a == 0:
		return fmt.Sprintf("%s = %d", count, offset)
	case a > 0:
		switch {
		case offset == 0:
			return fmt.Sprintf("%s mod %d = 0", count, a)
		case offset < 0:
			return fmt.Sprintf("(%s + %d) mod %d = 0", count, -offset, a)
		}
		return fmt.Sprintf("%s >= %d and (%s - %d) mod %d = 0", count, offset, count, offset, a)
	default:
		return fmt.Sprintf("%s <= %d and (%d - %s) mod %d = 0", count, offset, offset, count, -a)
	}
}

package htmldoc

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

func hasAttr(n *html.Node, name string) bool {
	_, ok := attr(n, name)
	return ok
}

func setAttr(n *html.Node, name, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: val})
}

func removeAttr(n *html.Node, name string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace != "" || !strings.EqualFold(a.Key, name) {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}

func toggle(n *html.Node, name string) {
	if hasAttr(n, name) {
		removeAttr(n, name)
		return
	}
	setAttr(n, name, "")
}

func inputType(n *html.Node) string {
	t, _ := attr(n, "type")
	return strings.ToLower(t)
}

func editable(n *html.Node) bool {
	switch n.Data {
	case "textarea":
		return true
	case "input":
		switch inputType(n) {
		case "checkbox", "radio", "button", "submit", "reset", "image", "file", "hidden":
			return false
		}
		return true
	}
	return hasAttr(n, "contenteditable")
}

// value is the current form value. Typed text lives in the value attribute
// for inputs and in the text content for textareas.
func value(n *html.Node) string {
	switch n.Data {
	case "textarea":
		if v, ok := attr(n, "value"); ok {
			return v
		}
		return htmlquery.InnerText(n)
	case "option":
		if v, ok := attr(n, "value"); ok {
			return v
		}
		return strings.TrimSpace(htmlquery.InnerText(n))
	case "select":
		for _, opt := range options(n) {
			if selected(opt) {
				return value(opt)
			}
		}
		return ""
	}
	v, _ := attr(n, "value")
	return v
}

func setValue(n *html.Node, v string) {
	setAttr(n, "value", v)
}

func options(sel *html.Node) []*html.Node {
	nodes, _ := htmlquery.QueryAll(sel, ".//option")
	return nodes
}

func enclosingSelect(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "select" {
			return p
		}
	}
	return nil
}

// clickOption follows browser behaviour: in a multiple select a click toggles
// the option, otherwise it becomes the only selected one.
func clickOption(opt *html.Node) {
	sel := enclosingSelect(opt)
	if sel != nil && hasAttr(sel, "multiple") {
		toggle(opt, "selected")
		return
	}
	if sel != nil {
		for _, o := range options(sel) {
			removeAttr(o, "selected")
		}
	}
	setAttr(opt, "selected", "")
}

func checkRadio(doc, n *html.Node) {
	if name, ok := attr(n, "name"); ok {
		group, _ := htmlquery.QueryAll(doc, "//input[@type='radio']")
		for _, r := range group {
			if other, _ := attr(r, "name"); other == name {
				removeAttr(r, "checked")
			}
		}
	}
	setAttr(n, "checked", "")
}

func selected(n *html.Node) bool {
	switch {
	case n.Data == "option":
		if hasAttr(n, "selected") {
			return true
		}
		// A single select without an explicit choice shows its first option.
		sel := enclosingSelect(n)
		if sel == nil || hasAttr(sel, "multiple") {
			return false
		}
		opts := options(sel)
		for _, o := range opts {
			if hasAttr(o, "selected") {
				return false
			}
		}
		return len(opts) > 0 && opts[0] == n
	case n.Data == "input":
		t := inputType(n)
		return (t == "checkbox" || t == "radio") && hasAttr(n, "checked")
	}
	return false
}

func enabled(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		if hasAttr(p, "disabled") {
			switch p.Data {
			case "button", "input", "select", "textarea", "option", "optgroup", "fieldset":
				return false
			}
		}
	}
	return true
}

func displayed(n *html.Node) bool {
	if n.Data == "input" && inputType(n) == "hidden" {
		return false
	}
	for p := n; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		switch p.Data {
		case "head", "script", "style", "template", "noscript":
			return false
		}
		if hasAttr(p, "hidden") {
			return false
		}
		if style, ok := attr(p, "style"); ok {
			compact := strings.ReplaceAll(strings.ToLower(style), " ", "")
			if strings.Contains(compact, "display:none") || strings.Contains(compact, "visibility:hidden") {
				return false
			}
		}
	}
	return true
}

func property(n *html.Node, name string) any {
	switch name {
	case "value":
		switch n.Data {
		case "input", "textarea", "select", "option", "button":
			return value(n)
		}
		return nil
	case "checked":
		return n.Data == "input" && hasAttr(n, "checked")
	case "selected":
		return selected(n)
	case "disabled":
		return !enabled(n)
	case "tagName":
		return strings.ToUpper(n.Data)
	case "textContent":
		return htmlquery.InnerText(n)
	case "innerHTML":
		return htmlquery.OutputHTML(n, false)
	case "outerHTML":
		return htmlquery.OutputHTML(n, true)
	case "className":
		v, _ := attr(n, "class")
		return v
	case "multiple":
		return hasAttr(n, "multiple")
	}
	if v, ok := attr(n, name); ok {
		return v
	}
	return nil
}

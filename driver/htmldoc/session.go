// Package htmldoc is a driver backend over parsed HTML documents. It answers
// lookups with antchfx/htmlquery and simulates the small part of browser
// behaviour the element handles rely on: clicks on options, checkboxes and
// radios, typed input values, visibility and frames given through srcdoc.
//
// Documents can be changed while handles are in use (Mutate, Append, Remove),
// which makes it suitable for exercising live collections.
package htmldoc

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/browserwing/nopo/driver"
)

const defaultPollEvery = 10 * time.Millisecond

// Session holds one top-level document and the frame currently in scope.
type Session struct {
	mu     sync.RWMutex
	root   *html.Node
	scope  *html.Node
	frames map[*html.Node]*html.Node
	pages  map[string]string
	url    string
	clicks []*html.Node

	// PollEvery is the condition-wait polling interval.
	PollEvery time.Duration
}

var (
	_ driver.Session   = (*Session)(nil)
	_ driver.Navigator = (*Session)(nil)
)

// New parses doc into a new session.
func New(doc string) (*Session, error) {
	s := &Session{
		frames:    make(map[*html.Node]*html.Node),
		pages:     make(map[string]string),
		PollEvery: defaultPollEvery,
	}
	if err := s.Load(doc); err != nil {
		return nil, err
	}
	return s, nil
}

// MustNew is New for fixtures; it panics on a parse error.
func MustNew(doc string) *Session {
	s, err := New(doc)
	if err != nil {
		panic(err)
	}
	return s
}

// Load replaces the document and returns to the top-level scope.
func (s *Session) Load(doc string) error {
	root, err := htmlquery.Parse(strings.NewReader(doc))
	if err != nil {
		return fmt.Errorf("htmldoc: parse document: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = root
	s.scope = root
	s.frames = make(map[*html.Node]*html.Node)
	s.clicks = nil
	return nil
}

// AddPage registers a document served by Navigate and by iframe src.
func (s *Session) AddPage(url, doc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[url] = doc
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	doc, ok := s.pages[url]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("htmldoc: no page registered for %q", url)
	}
	if err := s.Load(doc); err != nil {
		return err
	}
	s.mu.Lock()
	s.url = url
	s.mu.Unlock()
	return nil
}

// URL returns the last navigated URL.
func (s *Session) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url
}

// Mutate runs fn with exclusive access to the document in scope.
func (s *Session) Mutate(fn func(doc *html.Node)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.scope)
}

// Append parses fragment and appends it to the first element matching xpath.
func (s *Session) Append(xpath, fragment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	parent, err := s.queryOne(xpath)
	if err != nil {
		return err
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), parent)
	if err != nil {
		return fmt.Errorf("htmldoc: parse fragment: %w", err)
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	return nil
}

// Remove detaches every element matching xpath and returns how many were
// removed. Handles to removed elements go stale.
func (s *Session) Remove(xpath string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nodes, err := htmlquery.QueryAll(s.scope, xpath)
	if err != nil {
		return 0, fmt.Errorf("htmldoc: bad expression %q: %w", xpath, err)
	}
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
	return len(nodes), nil
}

// Clicks returns the clicked elements in order.
func (s *Session) Clicks() []driver.Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]driver.Element, len(s.clicks))
	for i, n := range s.clicks {
		out[i] = &Element{s: s, node: n}
	}
	return out
}

// HTML renders the document in scope.
func (s *Session) HTML() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return htmlquery.OutputHTML(s.scope, false)
}

func (s *Session) queryOne(xpath string) (*html.Node, error) {
	n, err := htmlquery.Query(s.scope, xpath)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: bad expression %q: %w", xpath, err)
	}
	if n == nil {
		return nil, &driver.NotFoundError{XPath: xpath}
	}
	return n, nil
}

func (s *Session) FindOne(ctx context.Context, xpath string) (driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.queryOne(xpath)
	if err != nil {
		return nil, err
	}
	return &Element{s: s, node: n}, nil
}

func (s *Session) FindAll(ctx context.Context, xpath string) ([]driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	nodes, err := htmlquery.QueryAll(s.scope, xpath)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: bad expression %q: %w", xpath, err)
	}
	out := make([]driver.Element, len(nodes))
	for i, n := range nodes {
		out[i] = &Element{s: s, node: n}
	}
	return out, nil
}

func (s *Session) WaitUntil(ctx context.Context, cond driver.Condition, xpath string, timeout time.Duration) (driver.Element, error) {
	every := s.PollEvery
	if every <= 0 {
		every = defaultPollEvery
	}
	deadline := time.Now().Add(timeout)
	for {
		el, err := s.FindOne(ctx, xpath)
		switch {
		case err == nil:
			if ok, err := s.holds(cond, el.(*Element)); err != nil {
				return nil, err
			} else if ok {
				return el, nil
			}
		case !driver.IsNotFound(err):
			return nil, err
		}
		if !time.Now().Before(deadline) {
			return nil, &driver.TimeoutError{XPath: xpath, Condition: cond, Timeout: timeout}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(every):
		}
	}
}

func (s *Session) holds(cond driver.Condition, el *Element) (bool, error) {
	switch cond {
	case driver.Present:
		return true, nil
	case driver.Clickable:
		s.mu.RLock()
		defer s.mu.RUnlock()
		return displayed(el.node) && enabled(el.node), nil
	}
	return false, fmt.Errorf("htmldoc: unknown condition %d", int(cond))
}

func (s *Session) SwitchToFrame(ctx context.Context, frame driver.Element) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	el, ok := frame.(*Element)
	if !ok || el.s != s {
		return driver.ErrNoFrame
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached(el.node) {
		return driver.ErrStale
	}
	if el.node.Data != "iframe" && el.node.Data != "frame" {
		return driver.ErrNoFrame
	}
	if doc, ok := s.frames[el.node]; ok {
		s.scope = doc
		return nil
	}
	src, ok := attr(el.node, "srcdoc")
	if !ok {
		url, _ := attr(el.node, "src")
		if src, ok = s.pages[url]; !ok {
			return fmt.Errorf("%w: no content for frame", driver.ErrNoFrame)
		}
	}
	doc, err := htmlquery.Parse(strings.NewReader(src))
	if err != nil {
		return fmt.Errorf("htmldoc: parse frame: %w", err)
	}
	s.frames[el.node] = doc
	s.scope = doc
	return nil
}

func (s *Session) SwitchToDefault(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scope = s.root
	return nil
}

func (s *Session) ForceClear(ctx context.Context, xpath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.queryOne(xpath)
	if err != nil {
		return err
	}
	setValue(n, "")
	return nil
}

// attached reports whether n still hangs off the document or a loaded frame.
func (s *Session) attached(n *html.Node) bool {
	top := n
	for top.Parent != nil {
		top = top.Parent
	}
	if top == s.root {
		return true
	}
	for _, doc := range s.frames {
		if top == doc {
			return true
		}
	}
	return false
}

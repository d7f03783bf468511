// Package driver declares the browser backend the element handles resolve
// against. Implementations live in driver/htmldoc (in-memory documents) and
// services/browser (Chrome over the DevTools protocol).
package driver

//go:generate mockgen -source=driver.go -destination=mocks/driver.go -package=mocks

import (
	"context"
	"time"
)

// Condition is a backend-native wait target.
type Condition int

const (
	// Present waits until the expression matches an element.
	Present Condition = iota + 1
	// Clickable waits until the element is present, displayed and enabled.
	Clickable
)

func (c Condition) String() string {
	switch c {
	case Present:
		return "present"
	case Clickable:
		return "clickable"
	}
	return "unknown"
}

// Element is a resolved native element reference. References may go stale
// when the document changes; callers re-resolve through their handle.
type Element interface {
	Click(ctx context.Context) error
	Clear(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error
	Text(ctx context.Context) (string, error)
	// Attribute returns the attribute value and whether it is set.
	Attribute(ctx context.Context, name string) (string, bool, error)
	// Property returns the DOM property, nil when undefined.
	Property(ctx context.Context, name string) (any, error)
	IsSelected(ctx context.Context) (bool, error)
	IsEnabled(ctx context.Context) (bool, error)
	IsDisplayed(ctx context.Context) (bool, error)
	TagName(ctx context.Context) (string, error)
	// HTML returns the element's outer HTML.
	HTML(ctx context.Context) (string, error)
}

// Session is one automation session. It is not safe for concurrent use.
type Session interface {
	// FindOne performs a single lookup without waiting and fails with an
	// error matching ErrNotFound when nothing matches.
	FindOne(ctx context.Context, xpath string) (Element, error)
	// FindAll returns every match in document order, possibly none.
	FindAll(ctx context.Context, xpath string) ([]Element, error)
	// WaitUntil blocks until cond holds for xpath or timeout elapses, in
	// which case the error matches ErrTimeout.
	WaitUntil(ctx context.Context, cond Condition, xpath string, timeout time.Duration) (Element, error)
	// SwitchToFrame scopes later lookups to the document of a frame element.
	SwitchToFrame(ctx context.Context, frame Element) error
	SwitchToDefault(ctx context.Context) error
	// ForceClear empties the value of the element at xpath through script,
	// for inputs whose Clear is swallowed by page handlers.
	ForceClear(ctx context.Context, xpath string) error
}

// Navigator is implemented by sessions that can load a URL.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

package element

import (
	"time"

	"github.com/browserwing/nopo/driver"
	"github.com/browserwing/nopo/locator"
)

const (
	DefaultTimeout             = 10 * time.Second
	DefaultPollInterval        = 100 * time.Millisecond
	DefaultLengthRetryInterval = 250 * time.Millisecond
)

// handle is the state shared by Element and Collection.
type handle struct {
	chain               locator.Chain
	session             driver.Session
	timeout             time.Duration
	pollInterval        time.Duration
	lengthRetryInterval time.Duration
	translator          *locator.Translator
}

// Option configures a handle at construction.
type Option func(*handle)

// WithTimeout sets the wait budget.
func WithTimeout(d time.Duration) Option {
	return func(h *handle) {
		if d > 0 {
			h.timeout = d
		}
	}
}

func WithSession(s driver.Session) Option {
	return func(h *handle) { h.session = s }
}

// WithPollInterval sets the pause between direct lookups.
func WithPollInterval(d time.Duration) Option {
	return func(h *handle) {
		if d > 0 {
			h.pollInterval = d
		}
	}
}

// WithLengthRetryInterval sets the pause between counts of an empty
// collection.
func WithLengthRetryInterval(d time.Duration) Option {
	return func(h *handle) {
		if d > 0 {
			h.lengthRetryInterval = d
		}
	}
}

// WithTranslator replaces the translator used to derive paths.
func WithTranslator(t *locator.Translator) Option {
	return func(h *handle) { h.translator = t }
}

func newHandle(c locator.Chain, opts []Option) handle {
	h := handle{
		chain:               c,
		timeout:             DefaultTimeout,
		pollInterval:        DefaultPollInterval,
		lengthRetryInterval: DefaultLengthRetryInterval,
		translator:          locator.Default,
	}
	for _, opt := range opts {
		opt(&h)
	}
	return h
}

// derive copies every setting except the chain.
func (h *handle) derive(c locator.Chain) handle {
	d := *h
	d.chain = c
	return d
}

func (h *handle) xpath() (string, error) {
	return h.translator.Path(h.chain)
}

func (h *handle) bound() (driver.Session, error) {
	if h.session == nil {
		return nil, ErrNoSession
	}
	return h.session, nil
}

func (h *handle) attempts(interval time.Duration) int {
	return int(h.timeout / interval)
}

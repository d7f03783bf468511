package element

import (
	"context"
	"errors"
	"time"

	"github.com/browserwing/nopo/driver"
	"github.com/browserwing/nopo/pkg/logger"
)

// Resolve returns the element once it is present in the document.
func (e *Element) Resolve(ctx context.Context) (driver.Element, error) {
	return e.resolve(ctx, driver.Present)
}

// ResolveClickable returns the element once it is displayed and enabled.
func (e *Element) ResolveClickable(ctx context.Context) (driver.Element, error) {
	return e.resolve(ctx, driver.Clickable)
}

// Find performs one direct lookup without waiting.
func (e *Element) Find(ctx context.Context) (driver.Element, error) {
	s, err := e.bound()
	if err != nil {
		return nil, err
	}
	xp, err := e.xpath()
	if err != nil {
		return nil, err
	}
	return s.FindOne(ctx, xp)
}

// resolve first gives the backend's own wait a chance, then polls with direct
// lookups, then makes one last lookup whose error is returned. The backend
// wait and a direct lookup can disagree, so both phases run even when the
// wait succeeds.
func (e *Element) resolve(ctx context.Context, cond driver.Condition) (driver.Element, error) {
	s, err := e.bound()
	if err != nil {
		return nil, err
	}
	xp, err := e.xpath()
	if err != nil {
		return nil, err
	}
	start := time.Now()

	if _, err := s.WaitUntil(ctx, cond, xp, e.timeout); err != nil {
		if !errors.Is(err, driver.ErrTimeout) && !driver.IsNotFound(err) {
			return nil, err
		}
		logger.Debug(ctx, "%s wait for %s gave up after %s, polling", cond, xp, e.timeout)
	}

	attempts := e.attempts(e.pollInterval)
	for i := 0; i < attempts; i++ {
		el, err := s.FindOne(ctx, xp)
		if err == nil {
			return el, nil
		}
		if !driver.IsNotFound(err) {
			return nil, err
		}
		if err := sleep(ctx, e.pollInterval); err != nil {
			return nil, err
		}
	}

	el, err := s.FindOne(ctx, xp)
	if err != nil {
		if driver.IsNotFound(err) {
			logger.Debug(ctx, "%s not found after %d attempts", xp, attempts+1)
			return nil, &ResolveError{XPath: xp, Attempts: attempts + 1, Elapsed: time.Since(start), Err: err}
		}
		return nil, err
	}
	return el, nil
}

// Exists reports whether the element is in the document right now.
func (e *Element) Exists(ctx context.Context) (bool, error) {
	_, err := e.Find(ctx)
	return absorbNotFound(err)
}

// ExistsWait is Exists after the full presence wait.
func (e *Element) ExistsWait(ctx context.Context) (bool, error) {
	_, err := e.Resolve(ctx)
	return absorbNotFound(err)
}

// WaitForPresent blocks until the element is present. A spent budget yields
// an error matching driver.ErrTimeout.
func (e *Element) WaitForPresent(ctx context.Context) error {
	return e.waitFor(ctx, driver.Present)
}

// WaitForClick blocks until the element is clickable or the budget is spent.
func (e *Element) WaitForClick(ctx context.Context) error {
	return e.waitFor(ctx, driver.Clickable)
}

func (e *Element) waitFor(ctx context.Context, cond driver.Condition) error {
	s, err := e.bound()
	if err != nil {
		return err
	}
	xp, err := e.xpath()
	if err != nil {
		return err
	}
	_, err = s.WaitUntil(ctx, cond, xp, e.timeout)
	return err
}

func absorbNotFound(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case driver.IsNotFound(err):
		return false, nil
	}
	return false, err
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

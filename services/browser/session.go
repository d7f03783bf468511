package browser

import (
	"context"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/pkg/errors"

	"github.com/browserwing/nopo/driver"
)

// Session 基于 rod 页面的 driver.Session 实现
type Session struct {
	mu    sync.Mutex
	root  *rod.Page
	scope *rod.Page // 当前 frame，nil 表示顶层文档
}

var (
	_ driver.Session   = (*Session)(nil)
	_ driver.Navigator = (*Session)(nil)
	_ driver.Element   = (*Element)(nil)
)

// NewSession 包装一个 rod 页面
func NewSession(page *rod.Page) *Session {
	return &Session{root: page}
}

// Page 返回顶层页面
func (s *Session) Page() *rod.Page {
	return s.root
}

func (s *Session) current(ctx context.Context) *rod.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.root
	if s.scope != nil {
		p = s.scope
	}
	return p.Context(ctx)
}

func notFound(err error, xpath string) error {
	var nf *rod.ElementNotFoundError
	if errors.As(err, &nf) {
		return &driver.NotFoundError{XPath: xpath}
	}
	return errors.Wrapf(err, "find %s", xpath)
}

// FindOne 单次查找，不等待
func (s *Session) FindOne(ctx context.Context, xpath string) (driver.Element, error) {
	el, err := s.current(ctx).Sleeper(rod.NotFoundSleeper).ElementX(xpath)
	if err != nil {
		return nil, notFound(err, xpath)
	}
	return &Element{el: el}, nil
}

func (s *Session) FindAll(ctx context.Context, xpath string) ([]driver.Element, error) {
	els, err := s.current(ctx).ElementsX(xpath)
	if err != nil {
		return nil, errors.Wrapf(err, "find all %s", xpath)
	}
	out := make([]driver.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &Element{el: el})
	}
	return out, nil
}

// WaitUntil 使用 rod 自带的轮询等待元素出现，再按条件等待可见/可用
func (s *Session) WaitUntil(ctx context.Context, cond driver.Condition, xpath string, timeout time.Duration) (driver.Element, error) {
	p := s.current(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	el, err := p.ElementX(xpath)
	if err == nil && cond == driver.Clickable {
		if err = el.WaitVisible(); err == nil {
			err = el.WaitEnabled()
		}
	}
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, &driver.TimeoutError{XPath: xpath, Condition: cond, Timeout: timeout}
		}
		return nil, errors.Wrapf(err, "wait %s for %s", cond, xpath)
	}
	return &Element{el: el.CancelTimeout()}, nil
}

func (s *Session) SwitchToFrame(ctx context.Context, frame driver.Element) error {
	el, ok := frame.(*Element)
	if !ok {
		return driver.ErrNoFrame
	}
	fp, err := el.el.Context(ctx).Frame()
	if err != nil {
		return errors.Wrap(driver.ErrNoFrame, err.Error())
	}
	if err := fp.WaitLoad(); err != nil {
		return errors.Wrap(err, "wait frame load")
	}
	s.mu.Lock()
	s.scope = fp
	s.mu.Unlock()
	return nil
}

func (s *Session) SwitchToDefault(ctx context.Context) error {
	s.mu.Lock()
	s.scope = nil
	s.mu.Unlock()
	return nil
}

const forceClearJS = `(xp) => {
	const r = document.evaluate(xp, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null);
	const el = r.singleNodeValue;
	if (!el) return false;
	el.value = '';
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
}`

// ForceClear 通过脚本清空输入框
func (s *Session) ForceClear(ctx context.Context, xpath string) error {
	res, err := s.current(ctx).Eval(forceClearJS, xpath)
	if err != nil {
		return errors.Wrapf(err, "force clear %s", xpath)
	}
	if !res.Value.Bool() {
		return &driver.NotFoundError{XPath: xpath}
	}
	return nil
}

// Navigate 打开 URL 并等待加载完成
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	s.scope = nil
	s.mu.Unlock()

	p := s.root.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return errors.Wrapf(err, "navigate %s", url)
	}
	return errors.Wrap(p.WaitLoad(), "wait load")
}

// Element 包装 rod 元素
type Element struct {
	el *rod.Element
}

func (e *Element) with(ctx context.Context) *rod.Element {
	return e.el.Context(ctx)
}

func (e *Element) Click(ctx context.Context) error {
	return e.with(ctx).Click(proto.InputMouseButtonLeft, 1)
}

func (e *Element) Clear(ctx context.Context) error {
	el := e.with(ctx)
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input("")
}

func (e *Element) SendKeys(ctx context.Context, text string) error {
	return e.with(ctx).Input(text)
}

func (e *Element) Text(ctx context.Context) (string, error) {
	return e.with(ctx).Text()
}

func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.with(ctx).Attribute(name)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

func (e *Element) Property(ctx context.Context, name string) (any, error) {
	v, err := e.with(ctx).Property(name)
	if err != nil {
		return nil, err
	}
	return v.Val(), nil
}

func (e *Element) evalBool(ctx context.Context, js string) (bool, error) {
	res, err := e.with(ctx).Eval(js)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

func (e *Element) IsSelected(ctx context.Context) (bool, error) {
	return e.evalBool(ctx, `() => !!(this.checked || this.selected)`)
}

func (e *Element) IsEnabled(ctx context.Context) (bool, error) {
	return e.evalBool(ctx, `() => !this.disabled`)
}

func (e *Element) IsDisplayed(ctx context.Context) (bool, error) {
	return e.with(ctx).Visible()
}

func (e *Element) TagName(ctx context.Context) (string, error) {
	res, err := e.with(ctx).Eval(`() => this.tagName.toLowerCase()`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (e *Element) HTML(ctx context.Context) (string, error) {
	return e.with(ctx).HTML()
}

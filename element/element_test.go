package element

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/browserwing/nopo/driver"
	"github.com/browserwing/nopo/driver/htmldoc"
	"github.com/browserwing/nopo/driver/mocks"
	"github.com/browserwing/nopo/locator"
)

const navFixture = `<html><body><main>
<nav><a href="/1">One</a><a href="/2">Two</a><a href="/3">Three</a><a href="/4">Four</a></nav>
<nav><a href="/x">Other</a></nav>
<a href="/quote">He said "hi"</a>
<input id="q" value="typed">
<p id="empty"></p>
</main></body></html>`

// fast keeps failing lookups short.
func fast(s driver.Session) []Option {
	return []Option{
		WithSession(s),
		WithTimeout(50 * time.Millisecond),
		WithPollInterval(10 * time.Millisecond),
		WithLengthRetryInterval(10 * time.Millisecond),
	}
}

func TestLastAnchorOfFirstNav(t *testing.T) {
	ctx := context.Background()
	s := htmldoc.MustNew(navFixture)

	chain := locator.NewChain(locator.Tag("main")).Join(locator.XPath(".//nav[1]"), locator.Tag("a"))
	xp, err := chain.Path()
	require.NoError(t, err)
	assert.Equal(t, "//main/.//nav[1]//a", xp)

	links := NewCollection(chain, fast(s)...)
	n, err := links.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	last, err := links.Get(ctx, -1)
	require.NoError(t, err)
	lastPath, err := last.XPath()
	require.NoError(t, err)
	assert.Equal(t, "(//main/.//nav[1]//a)[4]", lastPath)

	require.NoError(t, last.Click(ctx))
	clicks := s.Clicks()
	require.Len(t, clicks, 1)
	text, err := clicks[0].Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Four", text)
}

func TestLinkTextWithQuote(t *testing.T) {
	ctx := context.Background()
	s := htmldoc.MustNew(navFixture)

	link := New(locator.LinkText(`He said "hi"`), fast(s)...)
	xp, err := link.XPath()
	require.NoError(t, err)
	assert.Equal(t, `//a[text()=concat("He said ", '"', "hi", '"', "")]`, xp)

	text, err := link.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, `He said "hi"`, text)

	partial := New(locator.PartialLinkText(`"hi`), fast(s)...)
	ok, err := partial.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClassTokenMatching(t *testing.T) {
	ctx := context.Background()
	s := htmldoc.MustNew(`<div class="btn active">a</div><div class="x btn">b</div><div class="btnx">c</div>`)

	btns := NewCollection(locator.Class("btn"), fast(s)...)
	n, err := btns.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestExtendKeepsIdentity(t *testing.T) {
	e := New(locator.Tag("main"))
	captured := e

	got := e.Extend(locator.XPath(".//nav[1]"), locator.Tag("a"))
	assert.Same(t, captured, got)

	xp, err := captured.XPath()
	require.NoError(t, err)
	assert.Equal(t, "//main/.//nav[1]//a", xp)

	c := NewCollection(locator.Tag("ul"))
	assert.Same(t, c, c.Extend(locator.Tag("li")))
	assert.Equal(t, 2, c.Chain().Len())
}

func TestJoinCopiesAndInherits(t *testing.T) {
	s := htmldoc.MustNew(navFixture)
	parent := New(locator.Tag("main"), WithTimeout(3*time.Second), WithSession(s))

	child := parent.Join(New(locator.Tag("nav")), locator.Tag("a"))
	assert.NotSame(t, parent, child)
	assert.Equal(t, 1, parent.Chain().Len())
	assert.Equal(t, 3, child.Chain().Len())
	assert.Equal(t, 3*time.Second, child.Timeout())
	assert.Same(t, s, child.Session().(*htmldoc.Session))

	many := NewCollection(locator.Tag("nav"), WithTimeout(time.Second)).Join(locator.Tag("a"))
	assert.Equal(t, time.Second, many.Timeout())
	assert.Equal(t, 2, many.Chain().Len())
}

func TestBindInPlace(t *testing.T) {
	ctx := context.Background()
	e := New(locator.ID("q"))
	_, err := e.Text(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	s := htmldoc.MustNew(navFixture)
	assert.Same(t, e, e.Bind(s))
	v, err := e.Value(ctx)
	require.NoError(t, err)
	assert.Equal(t, "typed", v)
}

func TestExistsAbsorbsNotFound(t *testing.T) {
	ctx := context.Background()
	s := htmldoc.MustNew(navFixture)

	missing := New(locator.ID("nope"), fast(s)...)
	ok, err := missing.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = missing.ExistsWait(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = New(locator.Tag("main"), fast(s)...).ExistsWait(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = New(locator.XPath("//a["), fast(s)...).Exists(ctx)
	assert.Error(t, err, "bad expressions are not absorbed")
}

func TestExistsInvalidKind(t *testing.T) {
	s := htmldoc.MustNew(navFixture)
	_, err := New(locator.Locator{Kind: 77, Value: "x"}, fast(s)...).Exists(context.Background())
	assert.ErrorIs(t, err, locator.ErrInvalidKind)
}

func TestResolveFallsBackToPolling(t *testing.T) {
	ctrl := gomock.NewController(t)
	sess := mocks.NewMockSession(ctrl)
	el := mocks.NewMockElement(ctrl)
	ctx := context.Background()

	gomock.InOrder(
		sess.EXPECT().WaitUntil(ctx, driver.Clickable, "//button", 50*time.Millisecond).
			Return(nil, &driver.TimeoutError{XPath: "//button"}),
		sess.EXPECT().FindOne(ctx, "//button").Return(nil, &driver.NotFoundError{XPath: "//button"}).Times(2),
		sess.EXPECT().FindOne(ctx, "//button").Return(el, nil),
		el.EXPECT().Click(ctx).Return(nil),
	)

	require.NoError(t, New(locator.Tag("button"), fast(sess)...).Click(ctx))
}

func TestResolveLooksUpEvenAfterWaitSucceeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	sess := mocks.NewMockSession(ctrl)
	waited := mocks.NewMockElement(ctrl)
	found := mocks.NewMockElement(ctrl)
	ctx := context.Background()

	sess.EXPECT().WaitUntil(ctx, driver.Present, "//p", gomock.Any()).Return(waited, nil)
	sess.EXPECT().FindOne(ctx, "//p").Return(found, nil)
	found.EXPECT().Text(ctx).Return("hello", nil)

	text, err := New(locator.Tag("p"), fast(sess)...).Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestResolveGivesUp(t *testing.T) {
	ctrl := gomock.NewController(t)
	sess := mocks.NewMockSession(ctrl)
	ctx := context.Background()

	sess.EXPECT().WaitUntil(ctx, driver.Present, "//p", gomock.Any()).Return(nil, &driver.TimeoutError{XPath: "//p"})
	// 50ms budget at 10ms intervals: five polls and the final lookup.
	sess.EXPECT().FindOne(ctx, "//p").Return(nil, &driver.NotFoundError{XPath: "//p"}).Times(6)

	_, err := New(locator.Tag("p"), fast(sess)...).Resolve(ctx)
	require.Error(t, err)
	assert.True(t, driver.IsNotFound(err))

	var re *ResolveError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "//p", re.XPath)
	assert.Equal(t, 6, re.Attempts)
	assert.Greater(t, re.Elapsed, time.Duration(0))
}

func TestResolvePropagatesBackendErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	sess := mocks.NewMockSession(ctrl)
	ctx := context.Background()
	boom := errors.New("connection reset")

	sess.EXPECT().WaitUntil(ctx, driver.Present, "//p", gomock.Any()).Return(nil, &driver.TimeoutError{})
	sess.EXPECT().FindOne(ctx, "//p").Return(nil, boom)

	_, err := New(locator.Tag("p"), fast(sess)...).Resolve(ctx)
	assert.ErrorIs(t, err, boom)

	sess.EXPECT().WaitUntil(ctx, driver.Present, "//p", gomock.Any()).Return(nil, boom)
	_, err = New(locator.Tag("p"), fast(sess)...).Resolve(ctx)
	assert.ErrorIs(t, err, boom)
}

func TestResolveHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := htmldoc.MustNew(navFixture)

	_, err := New(locator.ID("nope"), fast(s)...).Resolve(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClearForce(t *testing.T) {
	ctrl := gomock.NewController(t)
	sess := mocks.NewMockSession(ctrl)
	el := mocks.NewMockElement(ctrl)
	ctx := context.Background()
	const xp = `//*[@id="q"]`

	sess.EXPECT().WaitUntil(ctx, driver.Clickable, xp, gomock.Any()).Return(el, nil).AnyTimes()
	sess.EXPECT().FindOne(ctx, xp).Return(el, nil).AnyTimes()
	el.EXPECT().Clear(ctx).Return(nil)
	el.EXPECT().Property(ctx, "value").Return("stuck", nil)
	sess.EXPECT().ForceClear(ctx, xp).Return(nil)
	el.EXPECT().SendKeys(ctx, "new").Return(nil)

	require.NoError(t, New(locator.ID("q"), fast(sess)...).ClearAndSendKeys(ctx, "new", true))
}

func TestClearAndSendKeysIfSet(t *testing.T) {
	ctx := context.Background()
	s := htmldoc.MustNew(navFixture)
	q := New(locator.ID("q"), fast(s)...)

	require.NoError(t, q.ClearAndSendKeysIfSet(ctx, nil, false))
	v, err := q.Value(ctx)
	require.NoError(t, err)
	assert.Equal(t, "typed", v)

	keys := "fresh"
	require.NoError(t, q.ClearAndSendKeysIfSet(ctx, &keys, true))
	v, err = q.Value(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}

func TestAttributesAndMarkdown(t *testing.T) {
	ctx := context.Background()
	s := htmldoc.MustNew(`<div id="doc" data-kind="note"><h1>Title</h1><p>Hello <strong>world</strong></p></div>`)
	doc := New(locator.ID("doc"), fast(s)...)

	kind, ok, err := doc.Attribute(ctx, "data-kind")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "note", kind)

	_, ok, err = doc.Attribute(ctx, "title")
	require.NoError(t, err)
	assert.False(t, ok)

	out, err := doc.Markdown(ctx)
	require.NoError(t, err)
	assert.Contains(t, out, "# Title")
	assert.Contains(t, out, "**world**")
}

func TestSwitchIn(t *testing.T) {
	ctx := context.Background()
	s := htmldoc.MustNew(`<iframe id="result" srcdoc="<select><option>Volvo</option><option>Saab</option></select>"></iframe>`)

	require.NoError(t, New(locator.ID("result"), fast(s)...).SwitchIn(ctx))
	var texts []string
	for opt, err := range New(locator.Tag("select"), fast(s)...).Options().All(ctx) {
		require.NoError(t, err)
		text, err := opt.Text(ctx)
		require.NoError(t, err)
		texts = append(texts, text)
	}
	assert.Equal(t, []string{"Volvo", "Saab"}, texts)
}

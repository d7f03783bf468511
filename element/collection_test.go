package element

import (
	"context"
	"fmt"
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

func TestNegativeIndexing(t *testing.T) {
	ctrl := gomock.NewController(t)
	sess := mocks.NewMockSession(ctrl)
	ctx := context.Background()
	sess.EXPECT().FindAll(ctx, "//li").Return(make([]driver.Element, 5), nil).AnyTimes()

	items := NewCollection(locator.Tag("li"), fast(sess)...)
	for i, want := range map[int]string{-1: "(//li)[5]", -5: "(//li)[1]", 0: "(//li)[1]", 4: "(//li)[5]"} {
		el, err := items.Get(ctx, i)
		require.NoError(t, err)
		xp, err := el.XPath()
		require.NoError(t, err)
		assert.Equal(t, want, xp, "index %d", i)
	}

	for _, i := range []int{-6, 5} {
		_, err := items.Get(ctx, i)
		require.ErrorIs(t, err, ErrIndexOutOfRange)
		var oor *IndexOutOfRangeError
		require.ErrorAs(t, err, &oor)
		assert.Equal(t, i, oor.Index)
		assert.Equal(t, 5, oor.Length)
	}
}

func TestIndexedElementInheritsSettings(t *testing.T) {
	ctrl := gomock.NewController(t)
	sess := mocks.NewMockSession(ctrl)
	ctx := context.Background()
	sess.EXPECT().FindAll(ctx, "//li").Return(make([]driver.Element, 2), nil)

	items := NewCollection(locator.Tag("li"), WithSession(sess), WithTimeout(2*time.Second))
	el, err := items.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, el.Timeout())
	assert.Equal(t, driver.Session(sess), el.Session())

	first, ok := el.Chain().First()
	require.True(t, ok)
	assert.Equal(t, locator.KindXPath, first.Kind)
	assert.Equal(t, 1, el.Chain().Len())
}

func TestLenRetriesWhileEmpty(t *testing.T) {
	ctx := context.Background()
	s := htmldoc.MustNew(`<ul id="list"></ul>`)
	items := NewCollection(locator.ID("list"), WithSession(s),
		WithTimeout(time.Second), WithLengthRetryInterval(10*time.Millisecond)).Join(locator.Tag("li"))

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = s.Append(`//ul`, `<li>late</li>`)
	}()
	n, err := items.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLenEmptyAfterBudget(t *testing.T) {
	ctrl := gomock.NewController(t)
	sess := mocks.NewMockSession(ctrl)
	ctx := context.Background()
	// 50ms at 10ms per retry: five counts and the final one.
	sess.EXPECT().FindAll(ctx, "//li").Return(nil, nil).Times(6)

	n, err := NewCollection(locator.Tag("li"), fast(sess)...).Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func listFixture(n int) string {
	doc := `<ul>`
	for i := 1; i <= n; i++ {
		doc += fmt.Sprintf(`<li>item %d</li>`, i)
	}
	return doc + `</ul>`
}

func TestSlice(t *testing.T) {
	ctx := context.Background()
	s := htmldoc.MustNew(listFixture(5))
	items := NewCollection(locator.Tag("li"), fast(s)...)

	paths := func(els []*Element) []string {
		out := make([]string, len(els))
		for i, el := range els {
			out[i], _ = el.XPath()
		}
		return out
	}

	tests := []struct {
		r    Range
		want []string
	}{
		{Range{Start: Int(1), Stop: Int(-1)}, []string{"(//li)[2]", "(//li)[3]", "(//li)[4]"}},
		{Range{Step: Int(-2)}, []string{"(//li)[5]", "(//li)[3]", "(//li)[1]"}},
		{Range{Start: Int(3)}, []string{"(//li)[4]", "(//li)[5]"}},
		{Range{Stop: Int(-10)}, []string{}},
		{Range{Start: Int(-2), Stop: Int(100)}, []string{"(//li)[4]", "(//li)[5]"}},
		{Range{Start: Int(2), Stop: Int(0), Step: Int(-1)}, []string{"(//li)[3]", "(//li)[2]"}},
	}
	for _, tt := range tests {
		t.Run(tt.r.String(), func(t *testing.T) {
			els, err := items.Slice(ctx, tt.r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, paths(els))
		})
	}

	_, err := items.Slice(ctx, Range{Step: Int(0)})
	assert.ErrorIs(t, err, ErrInvalidSlice)

	got, err := items.Slice(ctx, Range{Start: Int(-1)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	text, err := got[0].Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "item 5", text)
}

func TestIterationObservesGrowth(t *testing.T) {
	ctx := context.Background()
	s := htmldoc.MustNew(listFixture(2))
	items := NewCollection(locator.Tag("li"), fast(s)...)

	var texts []string
	for el, err := range items.All(ctx) {
		require.NoError(t, err)
		text, err := el.Text(ctx)
		require.NoError(t, err)
		texts = append(texts, text)
		if len(texts) == 1 {
			require.NoError(t, s.Append("//ul", "<li>item 3</li>"))
		}
	}
	assert.Equal(t, []string{"item 1", "item 2", "item 3"}, texts)
}

func TestIterationRestarts(t *testing.T) {
	ctx := context.Background()
	s := htmldoc.MustNew(listFixture(2))
	items := NewCollection(locator.Tag("li"), fast(s)...)

	count := func() int {
		n := 0
		for _, err := range items.All(ctx) {
			require.NoError(t, err)
			n++
		}
		return n
	}
	assert.Equal(t, 2, count())
	assert.Equal(t, 2, count())

	items.Reset()
	el, ok, err := items.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	xp, _ := el.XPath()
	assert.Equal(t, "(//li)[1]", xp)
}

func TestCollectionElementConversion(t *testing.T) {
	ctx := context.Background()
	s := htmldoc.MustNew(listFixture(3))

	first := NewCollection(locator.Tag("li"), fast(s)...).Element()
	text, err := first.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "item 1", text)

	n, err := first.Collection().Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

package element

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/browserwing/nopo/driver"
	"github.com/browserwing/nopo/driver/htmldoc"
	"github.com/browserwing/nopo/driver/mocks"
	"github.com/browserwing/nopo/locator"
)

const selectFixture = `<form>
<select id="car"><option value="volvo">Volvo</option><option value="saab">Saab</option><option value="fiat">Fiat</option></select>
<select id="extras" multiple>
  <option value="gps" selected>GPS</option>
  <option value="roof" selected>Sun  roof</option>
  <option value="tow">Tow bar</option>
</select>
<input id="name">
</form>`

func TestSelectSingle(t *testing.T) {
	ctx := context.Background()
	s := htmldoc.MustNew(selectFixture)
	car := New(locator.ID("car"), fast(s)...)

	first, err := car.FirstSelectedOption(ctx)
	require.NoError(t, err)
	text, err := first.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Volvo", text)

	require.NoError(t, car.SelectByVisibleText(ctx, "Fiat"))
	v, err := car.Property(ctx, "value")
	require.NoError(t, err)
	assert.Equal(t, "fiat", v)

	require.NoError(t, car.SelectByIndex(ctx, 1))
	v, _ = car.Property(ctx, "value")
	assert.Equal(t, "saab", v)

	require.NoError(t, car.SelectByValue(ctx, "volvo"))
	selected, err := car.AllSelectedOptions(ctx)
	require.NoError(t, err)
	require.Len(t, selected, 1)

	err = car.SelectByValue(ctx, "tesla")
	assert.True(t, driver.IsNotFound(err))
	assert.Contains(t, err.Error(), "tesla")

	assert.ErrorIs(t, car.DeselectAll(ctx), ErrNotMultiple)
	assert.ErrorIs(t, car.DeselectByValue(ctx, "volvo"), ErrNotMultiple)
}

func TestSelectedOptionsSkipClickableWait(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	sess := mocks.NewMockSession(ctrl)
	sel := mocks.NewMockElement(ctrl)
	volvo := mocks.NewMockElement(ctrl)
	saab := mocks.NewMockElement(ctrl)

	const xp = `//*[@id="car"]`
	sess.EXPECT().WaitUntil(ctx, driver.Present, xp, gomock.Any()).Return(sel, nil).Times(2)
	sess.EXPECT().FindOne(ctx, xp).Return(sel, nil).Times(2)
	sess.EXPECT().FindAll(ctx, xp+"//option").Return([]driver.Element{volvo, saab}, nil).Times(2)
	volvo.EXPECT().IsSelected(ctx).Return(false, nil).Times(2)
	saab.EXPECT().IsSelected(ctx).Return(true, nil).Times(2)

	car := New(locator.ID("car"), WithSession(sess))
	all, err := car.AllSelectedOptions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	p, err := all[0].XPath()
	require.NoError(t, err)
	assert.Equal(t, `(//*[@id="car"]//option)[2]`, p)

	first, err := car.FirstSelectedOption(ctx)
	require.NoError(t, err)
	p, err = first.XPath()
	require.NoError(t, err)
	assert.Equal(t, `(//*[@id="car"]//option)[2]`, p)
}

func TestSelectMultiple(t *testing.T) {
	ctx := context.Background()
	s := htmldoc.MustNew(selectFixture)
	extras := New(locator.ID("extras"), fast(s)...)

	selected, err := extras.AllSelectedOptions(ctx)
	require.NoError(t, err)
	assert.Len(t, selected, 2)

	require.NoError(t, extras.DeselectByVisibleText(ctx, "Sun roof"))
	require.NoError(t, extras.SelectByValue(ctx, "tow"))
	require.NoError(t, extras.DeselectByIndex(ctx, 0))

	selected, err = extras.AllSelectedOptions(ctx)
	require.NoError(t, err)
	require.Len(t, selected, 1)
	text, _ := selected[0].Text(ctx)
	assert.Equal(t, "Tow bar", text)

	require.NoError(t, extras.DeselectAll(ctx))
	_, err = extras.FirstSelectedOption(ctx)
	assert.True(t, driver.IsNotFound(err))

	assert.True(t, driver.IsNotFound(extras.DeselectByValue(ctx, "none")))
}

func TestSelectOnOtherTag(t *testing.T) {
	s := htmldoc.MustNew(selectFixture)
	err := New(locator.ID("name"), fast(s)...).SelectByIndex(context.Background(), 0)

	var tagErr *UnexpectedTagError
	require.ErrorAs(t, err, &tagErr)
	assert.Equal(t, "input", tagErr.Got)
}

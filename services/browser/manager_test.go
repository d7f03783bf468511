package browser

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/browserwing/nopo/config"
	"github.com/browserwing/nopo/element"
	"github.com/browserwing/nopo/locator"
)

func TestManagerNotRunning(t *testing.T) {
	m := NewManager(nil)
	assert.False(t, m.IsRunning())
	assert.ErrorIs(t, m.Stop(context.Background()), ErrNotRunning)

	_, err := m.Open(context.Background(), "about:blank")
	assert.ErrorIs(t, err, ErrNotRunning)
	_, err = m.Session()
	assert.ErrorIs(t, err, ErrNotRunning)

	status := m.Status()
	assert.Equal(t, false, status["is_running"])
	assert.Equal(t, false, status["remote"])
	assert.Contains(t, m.String(), "headless=true")
}

func TestManagerRemoteStatus(t *testing.T) {
	m := NewManager(&config.BrowserConfig{ControlURL: "ws://127.0.0.1:9222"})
	status := m.Status()
	assert.Equal(t, true, status["remote"])
	assert.NotContains(t, status, "user_data_dir")
	assert.Contains(t, m.String(), "ws://127.0.0.1:9222")
}

// Chrome 集成测试，需要设置 NOPO_CHROME=1
func TestChromeSession(t *testing.T) {
	if os.Getenv("NOPO_CHROME") != "1" {
		t.Skip("set NOPO_CHROME=1 to run against a local Chrome")
	}
	ctx := context.Background()
	m := NewManager(&config.BrowserConfig{
		Headless: true,
		BinPath:  os.Getenv("CHROME_BIN_PATH"),
	})
	require.NoError(t, m.Start(ctx))
	defer m.Stop(ctx)

	const doc = `data:text/html,<main><nav><a>One</a><a>Two</a></nav><input id="q" value="old"></main>`
	s, err := m.Open(ctx, doc)
	require.NoError(t, err)

	links := element.NewCollection(locator.Tag("main").Chain().Join(locator.Tag("a")), element.WithSession(s))
	n, err := links.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	last, err := links.Get(ctx, -1)
	require.NoError(t, err)
	text, err := last.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Two", text)

	q := element.New(locator.ID("q"), element.WithSession(s))
	require.NoError(t, q.ClearAndSendKeys(ctx, "new", false))
	v, err := q.Value(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", v)

	ok, err := element.New(locator.ID("missing"), element.WithSession(s)).Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/browserwing/nopo/driver/htmldoc"
	"github.com/browserwing/nopo/element"
	"github.com/browserwing/nopo/locator"
)

func TestLoadWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10, cfg.Wait.TimeoutSeconds)
	assert.Equal(t, filepath.Join(dir, "data", "nopo.db"), cfg.Database.Path)

	_, err = os.Stat(path)
	require.NoError(t, err, "defaults are written back")

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Database.Path, again.Database.Path)
	assert.Equal(t, cfg.Wait, again.Wait)
}

func TestLoadFillsMissingSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
debug = true

[server]
port = "9000"
host = "127.0.0.1"

[wait]
timeout_seconds = 3
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Wait.TimeoutSeconds)
	assert.Zero(t, cfg.Wait.PollIntervalMs)
	require.NotNil(t, cfg.Browser)
	require.NotNil(t, cfg.Log)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\nport="), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7777")
	t.Setenv("CHROME_BIN_PATH", "/opt/chrome")
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, "7777", cfg.Server.Port)
	assert.Equal(t, "/opt/chrome", cfg.Browser.BinPath)
}

func TestWaitOptions(t *testing.T) {
	w := &WaitConfig{TimeoutSeconds: 2, PollIntervalMs: 20}
	s := htmldoc.MustNew(`<p>x</p>`)
	opts := append(w.Options(), element.WithSession(s))

	el := element.New(locator.Tag("p"), opts...)
	assert.Equal(t, 2*time.Second, el.Timeout())

	var nilCfg *WaitConfig
	assert.Nil(t, nilCfg.Options())
	assert.Equal(t, element.DefaultTimeout, element.New(locator.Tag("p"), nilCfg.Options()...).Timeout())
}

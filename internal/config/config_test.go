package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	v, err := New()
	require.NoError(t, err)
	cfg, err := Decode(v)
	require.NoError(t, err)

	assert.Equal(t, DriverTOML, cfg.Store.Driver)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 5.0, cfg.Server.RateLimit)
	assert.Equal(t, 30, cfg.Server.Burst)
	assert.Equal(t, 24*time.Hour, cfg.Server.SweepInterval)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, time.Local, cfg.Location)
}

func TestConfigFileAndEnvironmentOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".kol-credits"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".kol-credits", "config.toml"), []byte(`
[store]
driver = "sqlite"

[clock]
timezone = "Asia/Bangkok"

[server]
addr = "127.0.0.1:9000"
sweep_interval = "1h"

[log]
level = "debug"
`), 0o600))
	t.Setenv("KC_LOG_FORMAT", "json")
	t.Setenv("KC_SERVER_ADDR", ":7000")

	v, err := New()
	require.NoError(t, err)
	cfg, err := Decode(v)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, filepath.Join(home, ".kol-credits", "credits.db"), cfg.Store.SQLitePath)
	assert.Equal(t, "Asia/Bangkok", cfg.Location.String())
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, time.Hour, cfg.Server.SweepInterval)
	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestExplicitConfigPathFromEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[accounts]\npath = \"/tmp/accounts.toml\"\n"), 0o600))
	t.Setenv("KC_CONFIG", path)

	v, err := New()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/accounts.toml", v.GetString("accounts.path"))
}

func TestDecodeRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"driver":   {"KC_STORE_DRIVER", "postgres"},
		"timezone": {"KC_CLOCK_TIMEZONE", "Mars/Olympus"},
		"level":    {"KC_LOG_LEVEL", "loud"},
		"format":   {"KC_LOG_FORMAT", "xml"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			t.Setenv(env[0], env[1])

			v, err := New()
			require.NoError(t, err)
			_, err = Decode(v)
			require.Error(t, err)
		})
	}
}

func TestMalformedConfigFileReturnsError(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".kol-credits"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".kol-credits", "config.toml"), []byte("[store\n"), 0o600))

	_, err := New()
	require.Error(t, err)
	assert.ErrorContains(t, err, "read config file")
}

func TestMetricsCredentialsFromEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("KC_SERVER_METRICS_USER", "prom")
	t.Setenv("KC_SERVER_METRICS_PASSWORD", "secret")

	v, err := New()
	require.NoError(t, err)
	cfg, err := Decode(v)
	require.NoError(t, err)

	assert.Equal(t, "prom", cfg.Server.MetricsUser)
	assert.Equal(t, "secret", cfg.Server.MetricsPassword)
}

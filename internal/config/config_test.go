package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 15, cfg.Scraper.TimeoutSeconds)
	require.Equal(t, 30, cfg.Scraper.SecondaryThreshold)
	require.Equal(t, 10, cfg.RateLimit.WindowSeconds)
	require.Equal(t, 5, cfg.RateLimit.MaxRequests)
	require.Equal(t, float64(83), cfg.Currency.USDToINR)
	require.Equal(t, "job_searches", cfg.DB.Table)
	require.NotEmpty(t, cfg.Scraper.UserAgent)

	require.Equal(t, 15*time.Second, cfg.FetchTimeout())
	require.Equal(t, 10*time.Second, cfg.Window())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
server:
  port: 9090
ratelimit:
  window_seconds: 30
  max_requests: 20
scraper:
  secondary_threshold: 10
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 30, cfg.RateLimit.WindowSeconds)
	require.Equal(t, 20, cfg.RateLimit.MaxRequests)
	require.Equal(t, 10, cfg.Scraper.SecondaryThreshold)
	// Defaults survive partial files.
	require.Equal(t, 15, cfg.Scraper.TimeoutSeconds)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Server.Port = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.RateLimit.MaxRequests = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Currency.USDToINR = -1
	require.Error(t, cfg.Validate())

	require.NoError(t, base().Validate())
}

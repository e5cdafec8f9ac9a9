package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"zhypo/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ZTEST_CONFIG_FILE", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Engine.StrictAlternative)
	assert.Equal(t, 1000, cfg.Chart.Samples)
	assert.True(t, cfg.Chart.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ZTEST_CONFIG_FILE", "")
	t.Setenv("PORT", "9090")
	t.Setenv("ZTEST_STRICT_ALTERNATIVE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://stats.example.com")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("CHART_SAMPLES", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Engine.StrictAlternative)
	assert.Equal(t, []string{"http://localhost:3000", "https://stats.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 1000, cfg.Chart.Samples, "unparsable values keep the default")
}

func TestLoadYAMLFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zhypo.yaml")
	content := []byte(`
server:
  port: "7070"
  gin_mode: debug
chart:
  enabled: false
  samples: 200
engine:
  strict_alternative: true
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("ZTEST_CONFIG_FILE", path)
	t.Setenv("PORT", "7171")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7171", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.GinMode)
	assert.False(t, cfg.Chart.Enabled)
	assert.Equal(t, 200, cfg.Chart.Samples)
	assert.True(t, cfg.Engine.StrictAlternative)
	assert.InDelta(t, 6.4, cfg.Chart.WidthInches, 1e-9, "fields absent from the file keep defaults")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("ZTEST_CONFIG_FILE", "")
	t.Setenv("CHART_WIDTH_INCHES", "-1")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("ZTEST_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o600))
	t.Setenv("ZTEST_CONFIG_FILE", path)

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestLoadRejectsUnknownGinMode(t *testing.T) {
	t.Setenv("ZTEST_CONFIG_FILE", "")
	t.Setenv("GIN_MODE", "verbose")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GIN_MODE")
}

func TestLoadRateLimit(t *testing.T) {
	t.Setenv("ZTEST_CONFIG_FILE", "")
	t.Setenv("RATE_LIMIT_RPS", "5")
	t.Setenv("RATE_LIMIT_BURST", "0")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("RATE_LIMIT_BURST", "10")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5.0, cfg.Server.RateLimitRPS)
	assert.Equal(t, 10, cfg.Server.RateLimitBurst)
}

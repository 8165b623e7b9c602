package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mrops-br/instafiche/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnvFile(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvFilePath, filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadConfigDefaults(t *testing.T) {
	noEnvFile(t)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 500.0, cfg.Export.BaseWidth)
	assert.Equal(t, 1080.0, cfg.Export.TargetWidth)
	assert.Equal(t, 0.95, cfg.Export.Quality)
	assert.Equal(t, ".", cfg.Export.OutputDir)
	assert.Equal(t, 64, cfg.Export.ImageCacheSize)
	assert.Contains(t, cfg.Export.FontCSSURL, "family=Cairo:wght@400;700&family=Inter:wght@400;500;600;700;800")
	assert.False(t, cfg.OTLP.Enabled())
	assert.Equal(t, "instafiche", cfg.OTLP.ServiceName)
}

func TestLoadConfigFromEnv(t *testing.T) {
	noEnvFile(t)
	t.Setenv(config.ExportTargetWidthEnv, "1440")
	t.Setenv(config.ExportQualityEnv, "0.8")
	t.Setenv(config.ServerPortEnv, "9000")
	t.Setenv(config.OTLPEndpointEnv, "localhost:4317")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 1440.0, cfg.Export.TargetWidth)
	assert.Equal(t, 0.8, cfg.Export.Quality)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.True(t, cfg.OTLP.Enabled())
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("INSTAFICHE_OUTPUT_DIR=/tmp/cards\n"), 0o600))
	t.Setenv(config.EnvFilePath, path)
	require.NoError(t, os.Unsetenv(config.OutputDirEnv))
	t.Cleanup(func() { _ = os.Unsetenv(config.OutputDirEnv) })

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/cards", cfg.Export.OutputDir)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"NotANumber", config.ExportBaseWidthEnv, "wide"},
		{"ZeroBaseWidth", config.ExportBaseWidthEnv, "0"},
		{"NegativeTarget", config.ExportTargetWidthEnv, "-1"},
		{"QualityAboveOne", config.ExportQualityEnv, "95"},
		{"NodeOutOfRange", config.NodeIDEnv, "4096"},
		{"BadTimeout", config.HTTPTimeoutEnv, "soon"},
		{"FontURLNotHTTP", config.FontCSSURLEnv, "file:///fonts.css"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			noEnvFile(t)
			t.Setenv(tt.key, tt.value)

			_, err := config.LoadConfig()
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("INSTAFICHE_TEST_ENV", "")
	assert.Equal(t, "fallback", config.GetEnv("INSTAFICHE_TEST_ENV", "fallback"))

	t.Setenv("INSTAFICHE_TEST_ENV", "set")
	assert.Equal(t, "set", config.GetEnv("INSTAFICHE_TEST_ENV", "fallback"))
}

func TestGetEnvAsFloat(t *testing.T) {
	t.Setenv("INSTAFICHE_TEST_FLOAT", "2.5")
	v, err := config.GetEnvAsFloat("INSTAFICHE_TEST_FLOAT", 1)
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	t.Setenv("INSTAFICHE_TEST_FLOAT", "abc")
	v, err = config.GetEnvAsFloat("INSTAFICHE_TEST_FLOAT", 1)
	assert.Error(t, err)
	assert.Equal(t, 1.0, v)
}

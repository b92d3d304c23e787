package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WHIZZ_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Server.ConversionTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, -1e32, cfg.Conversion.MissingValue)
	assert.Equal(t, "/", cfg.Conversion.CommentMarker)
	assert.Equal(t, "*", cfg.Conversion.DummyMarker)
	assert.Equal(t, 5, cfg.Conversion.PreviewLines)
	assert.True(t, cfg.Security.RateLimit.Enabled)
	assert.Equal(t, 30*time.Second, cfg.WebSocket.PingPeriod)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("WHIZZ_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("WHIZZ_SERVER_PORT", "9090")
	t.Setenv("WHIZZ_CONVERSION_DUMMY_MARKER", "-9999")
	t.Setenv("WHIZZ_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "-9999", cfg.Conversion.DummyMarker)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
conversion:
  line_numbering_style: flight-sequential
`
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))
	t.Setenv("WHIZZ_CONFIG_FILE", configFile)

	cfg, err := Load()
	require.NoError(t, err)

	// The file fills fields the environment left unset.
	assert.Equal(t, "flight-sequential", cfg.Conversion.LineNumberingStyle)
	// Defaulted fields keep their env/default values.
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/", cfg.Conversion.CommentMarker)
}

func TestLoadInvalidFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("logging: ["), 0644))
	t.Setenv("WHIZZ_CONFIG_FILE", configFile)

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:     ServerConfig{Port: 8080},
			Conversion: ConversionConfig{CommentMarker: "/", DummyMarker: "*"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "port too large", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "negative port", mutate: func(c *Config) { c.Server.Port = -1 }, wantErr: true},
		{name: "multi-char comment marker", mutate: func(c *Config) { c.Conversion.CommentMarker = "//" }, wantErr: true},
		{name: "empty comment marker", mutate: func(c *Config) { c.Conversion.CommentMarker = "" }, wantErr: true},
		{name: "empty dummy marker", mutate: func(c *Config) { c.Conversion.DummyMarker = "" }, wantErr: true},
		{name: "negative preview lines", mutate: func(c *Config) { c.Conversion.PreviewLines = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetConfigFilePathEnvOverride(t *testing.T) {
	t.Setenv("WHIZZ_CONFIG_FILE", "/etc/whizz/config.yaml")
	assert.Equal(t, "/etc/whizz/config.yaml", getConfigFilePath())
}

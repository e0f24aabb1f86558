package config

import (
	"testing"

	"github.com/teleivo/assertive/assert"
	"github.com/teleivo/assertive/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TSLSP_TSSERVER_PATH", "")
	t.Setenv("TSLSP_LOG_LEVEL", "")

	cfg, err := Load(nil)

	require.NoError(t, err)
	assert.Equal(t, cfg.TSServerPath, "tsserver")
	assert.Equal(t, cfg.LogLevel, "info")
	assert.False(t, cfg.DisableSuggestions)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("TSLSP_TSSERVER_PATH", "/opt/tsserver/bin/tsserver")
	t.Setenv("TSLSP_LOG_LEVEL", "debug")

	cfg, err := Load(nil)

	require.NoError(t, err)
	assert.Equal(t, cfg.TSServerPath, "/opt/tsserver/bin/tsserver")
	assert.Equal(t, cfg.LogLevel, "debug")
}

func TestLoadTSServerLogFileEnvOverride(t *testing.T) {
	t.Setenv("TSSERVER_LOG_FILE", "/var/log/tsserver.log")

	cfg, err := Load(nil)

	require.NoError(t, err)
	assert.Equal(t, cfg.TSServerLogFile, "/var/log/tsserver.log")
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("TSLSP_LOG_LEVEL", "debug")

	cfg, err := Load(map[string]any{"log_level": "warn"})

	require.NoError(t, err)
	assert.Equal(t, cfg.LogLevel, "warn")
}

func TestEnvKeyTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "TSLSP_LOG_LEVEL", want: "log_level"},
		{in: "TSLSP_TSSERVER_LOG_FILE", want: "tsserver_log_file"},
	}

	for _, tt := range tests {
		got := envKeyTransform(tt.in)
		assert.Equalf(t, got, tt.want, "envKeyTransform(%q)", tt.in)
	}
}

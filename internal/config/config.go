// Package config loads tslsp's command-line configuration by layering
// built-in defaults, TSLSP_*-prefixed environment variables and CLI flag
// overrides through koanf, the way wharflab's editor-config loader layers
// its own sources.
package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix recognized for environment variable overrides.
const EnvPrefix = "TSLSP_"

// Config is the fully resolved set of knobs the CLI needs to start a Server.
type Config struct {
	TSServerPath         string   `koanf:"tsserver_path"`
	TSServerLogFile      string   `koanf:"tsserver_log_file"`
	TSServerLogVerbosity string   `koanf:"tsserver_log_verbosity"`
	GlobalPlugins        []string `koanf:"global_plugins"`
	PluginProbeLocations []string `koanf:"plugin_probe_locations"`

	LogLevel string `koanf:"log_level"`
	LogFile  string `koanf:"log_file"`

	DisableSuggestions           bool `koanf:"disable_suggestions"`
	DisablePathSuggestions       bool `koanf:"disable_path_suggestions"`
	DisableAutoImportSuggestions bool `koanf:"disable_auto_import_suggestions"`
}

func defaults() map[string]any {
	return map[string]any{
		"tsserver_path": "tsserver",
		"log_level":     "info",
	}
}

// Load resolves a Config from, in increasing precedence: built-in defaults,
// TSLSP_*-prefixed environment variables, and flagOverrides (non-nil values
// set by the CLI flags the user actually passed).
func Load(flagOverrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKeyTransform,
	}), nil); err != nil {
		return nil, err
	}
	// TSSERVER_LOG_FILE (unprefixed) overrides the tsserver log file path
	// specifically, per spec §6.5; it sits between the TSLSP_-prefixed
	// layer and flags, which still take final precedence.
	if v, ok := os.LookupEnv("TSSERVER_LOG_FILE"); ok {
		if err := k.Load(confmap.Provider(map[string]any{"tsserver_log_file": v}, "."), nil); err != nil {
			return nil, err
		}
	}
	if len(flagOverrides) > 0 {
		if err := k.Load(confmap.Provider(flagOverrides, "."), nil); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKeyTransform converts TSLSP_TSSERVER_LOG_FILE into tsserver_log_file,
// matching the Config struct's koanf tags one for one.
func envKeyTransform(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ToLower(s)
}

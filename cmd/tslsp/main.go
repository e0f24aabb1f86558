// Command tslsp bridges a tsserver child process to an editor speaking the
// Language Server Protocol over stdio.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tslsp/internal/completion"
	"tslsp/internal/config"
	"tslsp/internal/tsserver"
	"tslsp/internal/version"
	"tslsp/lsp"
)

var (
	tsserverPath         string
	tsserverLogFile      string
	tsserverLogVerbosity string
	globalPlugins        []string
	pluginProbeLocations []string

	logLevel string
	logFile  string

	disableSuggestions           bool
	disablePathSuggestions       bool
	disableAutoImportSuggestions bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tslsp: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tslsp",
	Short: "A Language Server Protocol bridge for tsserver",
	Long: `tslsp speaks the Language Server Protocol on stdin/stdout and
translates every request into the JSON-over-stdio protocol tsserver itself
understands, so any LSP-capable editor can drive the TypeScript language
service directly.`,
	RunE: runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tslsp version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Version())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&tsserverPath, "tsserver-path", "", "path to the tsserver executable (default \"tsserver\")")
	rootCmd.PersistentFlags().StringVar(&tsserverLogFile, "tsserver-log-file", "", "tsserver --logFile destination")
	rootCmd.PersistentFlags().StringVar(&tsserverLogVerbosity, "tsserver-log-verbosity", "", "tsserver --logVerbosity level")
	rootCmd.PersistentFlags().StringSliceVar(&globalPlugins, "global-plugin", nil, "tsserver plugin to load globally (repeatable)")
	rootCmd.PersistentFlags().StringSliceVar(&pluginProbeLocations, "plugin-probe-location", nil, "additional directory tsserver should search for plugins (repeatable)")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "bridge log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write bridge logs to this file instead of stderr")

	rootCmd.PersistentFlags().BoolVar(&disableSuggestions, "disable-suggestions", false, "drop name-suggestion (kind \"warning\") completion entries")
	rootCmd.PersistentFlags().BoolVar(&disablePathSuggestions, "disable-path-suggestions", false, "drop path/module-name completion entries")
	rootCmd.PersistentFlags().BoolVar(&disableAutoImportSuggestions, "disable-auto-import-suggestions", false, "drop completion entries that would add an auto-import")

	rootCmd.AddCommand(versionCmd)
}

// flagOverrides collects only the flags the user actually set, so koanf's
// env and default layers aren't clobbered by a flag's zero value.
func flagOverrides(cmd *cobra.Command) map[string]any {
	overrides := make(map[string]any)
	set := func(name, key string, val any) {
		if cmd.Flags().Changed(name) {
			overrides[key] = val
		}
	}
	set("tsserver-path", "tsserver_path", tsserverPath)
	set("tsserver-log-file", "tsserver_log_file", tsserverLogFile)
	set("tsserver-log-verbosity", "tsserver_log_verbosity", tsserverLogVerbosity)
	set("global-plugin", "global_plugins", globalPlugins)
	set("plugin-probe-location", "plugin_probe_locations", pluginProbeLocations)
	set("log-level", "log_level", logLevel)
	set("log-file", "log_file", logFile)
	set("disable-suggestions", "disable_suggestions", disableSuggestions)
	set("disable-path-suggestions", "disable_path_suggestions", disablePathSuggestions)
	set("disable-auto-import-suggestions", "disable_auto_import_suggestions", disableAutoImportSuggestions)
	return overrides
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagOverrides(cmd))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("set up logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	srv := lsp.New(lsp.Config{
		In:  os.Stdin,
		Out: os.Stdout,

		Logger: logger,

		TSServerConfig: tsserver.Config{
			Path:                 cfg.TSServerPath,
			LogFile:              cfg.TSServerLogFile,
			LogVerbosity:         cfg.TSServerLogVerbosity,
			GlobalPlugins:        cfg.GlobalPlugins,
			PluginProbeLocations: cfg.PluginProbeLocations,
		},
		CompletionOptions: completion.Options{
			DisableSuggestions:           cfg.DisableSuggestions,
			DisablePathSuggestions:       cfg.DisablePathSuggestions,
			DisableAutoImportSuggestions: cfg.DisableAutoImportSuggestions,
		},
	})

	return srv.Serve(ctx)
}

func newLogger(cfg *config.Config) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.LogLevel, err)
	}
	logger.SetLevel(level)

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		logger.SetOutput(f)
	} else {
		logger.SetOutput(os.Stderr)
	}

	return logger, nil
}

// Package main provides the CLI entrypoint for racetyper.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/racetyper/internal/config"
	"github.com/verte-zerg/racetyper/internal/log"
	"github.com/verte-zerg/racetyper/internal/store"
)

var (
	logger logrus.FieldLogger = logrus.StandardLogger()

	configPath string
	dbPath     string
	logLevel   string
	envFile    string

	fileCfg config.FileConfig
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "racetyper",
		Short:             "Typing speed server with per-segment analysis",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: loadSettings,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before config")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newTextCmd())
	rootCmd.AddCommand(newSessionCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func loadSettings(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnv(envFile); err != nil {
		return errors.Wrap(err, "load env failed")
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return errors.Wrap(err, "load config failed")
	}
	fileCfg = cfg
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Server.LogLevel)
	log.SetLogger(logLevel)
	return nil
}

func resolveDBPath(cmd *cobra.Command) string {
	path := config.DefaultDBPath()
	if os.Getenv("RACETYPER_DB") == "" && fileCfg.Server.DB != nil {
		path = *fileCfg.Server.DB
	}
	if cmd.Flags().Changed("db") {
		path = dbPath
	}
	return path
}

func openStore(cmd *cobra.Command) (*store.Store, func(), error) {
	path := resolveDBPath(cmd)
	st, err := store.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open db %s failed", path)
	}
	logger.WithField("db", path).Debug("database opened")
	closeFn := func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}
	return st, closeFn, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(cmd *cobra.Command, _ []string) error {
	path := configPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create config directory failed")
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return errors.Wrap(err, "stat config failed")
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return errors.Wrap(err, "write config failed")
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	editCmd := exec.CommandContext(cmd.Context(), parts[0], append(parts[1:], path)...)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	if err := editCmd.Run(); err != nil {
		return errors.Wrap(err, "open editor failed")
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# racetyper configuration
# Uncomment a value to enable it. CLI flags override config values.
# RACETYPER_DB and RACETYPER_ADDR environment variables override the defaults.

[server]
# addr = %q                  # Listen address
# path = %q                   # WebSocket endpoint path
# log-level = %q              # trace|debug|info|warn|error
# db = "/path/to/racetyper.db"   # SQLite database
# allowed-origins = []          # Empty allows every origin

[session]
# segments = %d                 # Segments per text
# max-edit-events = %d       # Edit log cap per text
# heartbeat-interval = %q       # Ping interval
# client-timeout = %q          # Disconnect after this long without traffic
# write-timeout = %q           # Per-frame write deadline

[rendering]
# line-height = %d              # Relative metric scale
# line-wpm = %d                # WPM mapped to line-height

[ratelimit]
# enabled = true
# messages-per-second = %.1f
# burst = %d
`,
		config.DefaultAddr,
		config.DefaultPath,
		config.DefaultLogLevel,
		config.DefaultSegments,
		config.DefaultMaxEditEvents,
		config.DefaultHeartbeatInterval.String(),
		config.DefaultClientTimeout.String(),
		config.DefaultWriteTimeout.String(),
		config.DefaultLineHeight,
		config.DefaultLineWPM,
		float64(config.DefaultMessagesPerSecond),
		config.DefaultBurst,
	)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

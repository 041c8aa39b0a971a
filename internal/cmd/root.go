// Package cmd is the CLI front end: a single "seed" command that reads a
// proxy/services configuration describing target caches and a seed
// configuration describing what to seed, then drives internal/seeder.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var logger *slog.Logger

var rootCmd = &cobra.Command{
	Use:   "seed [flags] seed_conf.yaml",
	Short: "Pre-populate and expire a tiled map cache",
	Long: `seed pre-populates a tiled map cache by traversing a pyramid of tile
grids over the bounding boxes and zoom-level ranges declared in a seed
configuration document, rendering and persisting every tile that falls
inside each region. It also expires cached tiles whose last-modification
time precedes a configured cutoff.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

// Execute runs the root command, exiting non-zero when the seed_conf
// argument is missing or malformed.
func Execute() {
	if logger == nil {
		initLogging() // fallback in case cobra init didn't fire
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.Flags().BoolP("quiet", "q", false, "suppress progress output")
	rootCmd.Flags().StringP("proxy-config", "f", "", "proxy configuration file describing target caches (required)")
	rootCmd.Flags().StringP("services-config", "s", "", "services configuration file; its caches overlay --proxy-config")
	rootCmd.Flags().BoolP("dry-run", "n", false, "traverse and report without touching the cache")
	rootCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	binds := []string{"quiet", "proxy-config", "services-config", "dry-run", "log-level"}
	for _, name := range binds {
		if err := viper.BindPFlag(name, rootCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", name, err))
		}
	}

	viper.SetEnvPrefix("TILESEED")
	viper.AutomaticEnv()
}

func initLogging() {
	levelStr := strings.ToLower(viper.GetString("log-level"))
	level := slog.LevelInfo
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error", "err":
		level = slog.LevelError
	default:
		fmt.Fprintf(os.Stderr, "unknown log level %q, defaulting to info\n", levelStr)
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

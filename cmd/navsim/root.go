package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/udisondev/navcore/internal/config"
	"github.com/udisondev/navcore/internal/pathfinding"
)

var (
	configPath string
	cfg        config.Navcore
)

var rootCmd = &cobra.Command{
	Use:   "navsim",
	Short: "Navigation simulator for grid structures and voxel terrain",
	Long: `navsim builds a demo world of voxel hills with a grid deck docked against
them and runs agents across it using hierarchical smart paths.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		loaded, err := config.LoadNavcore(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded

		logLevel := parseLogLevel(cfg.LogLevel)
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})))
		pathfinding.EnableDebugLogging(logLevel == slog.LevelDebug)

		slog.Info("config loaded", "path", configPath, "log_level", cfg.LogLevel)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.Path(), "path to the YAML config")
	rootCmd.AddCommand(runCmd, queryCmd)
}

// parseLogLevel maps the log_level config value onto slog. Unknown values log at info.
func parseLogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Package cmd holds the campus-food command line.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"campus-food/internal/xpkg/config"
	"campus-food/internal/xpkg/logger"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "campus-food",
	Short: "Campus food ordering backend",
	Long: `Order, tracking and notification services for the campus food ordering system,
plus maintenance commands for the order ledger.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config yaml (CAMPUSFOOD_* env vars override it)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level")
}

// setup loads the config and builds the logger shared by every command.
func setup() (*config.Config, logger.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, logger.Logger{}, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	mylog, err := logger.New(cfg.Logging.Level)
	if err != nil {
		return nil, logger.Logger{}, err
	}
	if cfg.Environment == "development" {
		mylog = mylog.Console()
	}
	return cfg, mylog, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGHUP, syscall.SIGTERM)
}

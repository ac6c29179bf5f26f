package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tomasstrnad1997/minesweeper/config"
)

var (
	cfg    config.Config
	logger = log.StandardLogger()
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "minesweeper",
		Short:         "Minesweeper game server, client and local game",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger.SetLevel(cfg.Level())
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path of the sqlite database")

	rootCmd.AddCommand(newServeCmd(), newLaunchCmd(), newServersCmd(), newPlayCmd(), newConnectCmd(), newInitDBCmd(), newLeaderboardCmd())
	return rootCmd
}

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}
	if err := newRootCmd().Execute(); err != nil {
		logger.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

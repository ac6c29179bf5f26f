package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tomasstrnad1997/minesweeper/db"
	"github.com/tomasstrnad1997/minesweeper/mines"
	"github.com/tomasstrnad1997/minesweeper/players"
	"github.com/tomasstrnad1997/minesweeper/scores"
	"github.com/tomasstrnad1997/minesweeper/server"
)

func newServeCmd() *cobra.Command {
	var difficulty string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a game server",
		Long: `Run a game server. Every connection plays its own round.

Accounts, best times and stats need a database (--db or DB_PATH).
Without one the server only hosts guest rounds.

Examples:
  minesweeper serve --db mines.db
  minesweeper serve --port 4000 --difficulty medium`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := mines.ParseDifficulty(difficulty)
			if err != nil {
				return err
			}
			settings, err := mines.Preset(d)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), settings)
		},
	}
	serveCmd.Flags().StringVar(&cfg.Host, "host", cfg.Host, "Host to listen on")
	serveCmd.Flags().IntVarP(&cfg.Port, "port", "p", cfg.Port, "Port to listen on, 0 picks a free one")
	serveCmd.Flags().StringVar(&cfg.ServerName, "name", cfg.ServerName, "Server name shown to clients")
	serveCmd.Flags().DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "Lifetime of login tokens")
	serveCmd.Flags().StringVarP(&difficulty, "difficulty", "d", mines.Easy.String(), "Difficulty new sessions start with")
	return serveCmd
}

func tokenSecret() ([]byte, error) {
	if cfg.TokenSecret != "" {
		return []byte(cfg.TokenSecret), nil
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate token secret: %w", err)
	}
	logger.Warn("No token secret configured, tokens will not survive a restart")
	return secret, nil
}

// serverOptions builds game server options from the configuration. The
// returned cleanup closes the store, if one was opened.
func serverOptions(settings mines.Settings) (server.Options, func(), error) {
	opts := server.Options{
		Name:     cfg.ServerName,
		Host:     cfg.Host,
		Port:     uint16(cfg.Port),
		TokenTTL: cfg.TokenTTL,
		Settings: settings,
		Logger:   logger,
	}
	if cfg.DBPath == "" {
		logger.Warn("No database configured, accounts and scores are disabled")
		return opts, func() {}, nil
	}
	store, err := db.InitStore(cfg.DBPath)
	if err != nil {
		return opts, nil, err
	}
	if err := store.InitializeTables(); err != nil {
		store.Close()
		return opts, nil, err
	}
	secret, err := tokenSecret()
	if err != nil {
		store.Close()
		return opts, nil, err
	}
	opts.Players = &players.Service{Store: store}
	opts.Scores = &scores.Service{Store: store, Logger: logger}
	opts.TokenSecret = secret
	return opts, func() { store.Close() }, nil
}

// waitForSignal blocks until the process is interrupted.
func waitForSignal(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
}

func runServe(ctx context.Context, settings mines.Settings) error {
	opts, cleanup, err := serverOptions(settings)
	if err != nil {
		return err
	}
	defer cleanup()

	srv, err := server.SpawnServer(opts)
	if err != nil {
		return err
	}
	waitForSignal(ctx)
	logger.WithFields(log.Fields{"server": srv.Name, "sessions": srv.SessionCount()}).Info("Shutting down")
	return srv.Close()
}

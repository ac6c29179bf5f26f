package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tomasstrnad1997/minesweeper/db"
	"github.com/tomasstrnad1997/minesweeper/mines"
	"github.com/tomasstrnad1997/minesweeper/scores"
)

var errNoDatabase = errors.New("no database configured, use --db or DB_PATH")

func openStore() (*db.SQLStore, error) {
	if cfg.DBPath == "" {
		return nil, errNoDatabase
	}
	return db.InitStore(cfg.DBPath)
}

func newInitDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "initdb",
		Short: "Create the database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.InitializeTables(); err != nil {
				return fmt.Errorf("failed to create tables: %w", err)
			}
			logger.WithField("path", cfg.DBPath).Info("Tables created")
			return nil
		},
	}
}

func newLeaderboardCmd() *cobra.Command {
	var limit int
	leaderboardCmd := &cobra.Command{
		Use:   "leaderboard <difficulty>",
		Short: "Print the best times of a difficulty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := mines.ParseDifficulty(args[0])
			if err != nil {
				return err
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			service := &scores.Service{Store: store, Logger: logger}
			list, err := service.Leaderboard(d, limit)
			if err != nil {
				return err
			}
			return printLeaderboard(cmd.OutOrStdout(), list)
		},
	}
	leaderboardCmd.Flags().IntVarP(&limit, "number", "n", 10, "Number of entries, 0 for all")
	return leaderboardCmd
}

func printLeaderboard(out io.Writer, list []scores.Score) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tPlayer\tTime\tGrid\tDate")
	for i, score := range list {
		fmt.Fprintf(w, "%d\t%s\t%ds\t%s\t%s\n", i+1, score.PlayerName, score.Seconds, score.GridSize, score.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

package main

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomasstrnad1997/minesweeper/mines"
)

func newPlayCmd() *cobra.Command {
	var (
		difficulty string
		seed       uint64
	)
	playCmd := &cobra.Command{
		Use:   "play",
		Short: "Play a round in the terminal",
		Long: `Play a round locally. Moves are "<row> <col>" to reveal, with an
"f" suffix to flag and "c" to chord.

Examples:
  minesweeper play
  minesweeper play -d hard --seed 42`,
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
			if !cmd.Flags().Changed("seed") {
				seed = rand.Uint64()
			}
			game, err := mines.NewGame(settings, rand.New(rand.NewPCG(seed, seed)))
			if err != nil {
				return err
			}
			logger.WithField("seed", seed).Debug("Starting local round")
			return playLocal(os.Stdin, cmd.OutOrStdout(), game)
		},
	}
	playCmd.Flags().StringVarP(&difficulty, "difficulty", "d", mines.Easy.String(), "easy, medium or hard")
	playCmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for the mine layout")
	return playCmd
}

// playLocal runs one round reading moves from in until it ends.
func playLocal(in io.Reader, out io.Writer, game *mines.Game) error {
	board := game.Snapshot()
	if err := board.Render(out, false); err != nil {
		return err
	}
	scanner := bufio.NewScanner(in)
	for game.State() == mines.Playing {
		fmt.Fprintf(out, "[%d flags left] > ", game.RemainingFlags())
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			fmt.Fprintln(out)
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "quit" || line == "q" {
			return nil
		}
		move, err := mines.ParseMove(line)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		if _, err := game.MakeMove(move); err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		if err := game.Snapshot().Render(out, false); err != nil {
			return err
		}
	}
	outcome, _ := game.Outcome()
	if err := game.Snapshot().Render(out, true); err != nil {
		return err
	}
	if outcome.Won {
		fmt.Fprintf(out, "You won in %ds\n", outcome.Seconds())
	} else {
		fmt.Fprintf(out, "You hit a mine after %ds\n", outcome.Seconds())
	}
	return nil
}

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tomasstrnad1997/minesweeper/gamelauncher"
	"github.com/tomasstrnad1997/minesweeper/mines"
	"github.com/tomasstrnad1997/minesweeper/protocol"
)

func newLaunchCmd() *cobra.Command {
	var (
		advertise  string
		difficulty string
		initial    int
		maxServers int
	)
	launchCmd := &cobra.Command{
		Use:   "launch",
		Short: "Run a launcher that hosts several game servers",
		Long: `Run a launcher. Clients list its game servers and ask it to spawn new
ones. All servers share the database.

Examples:
  minesweeper launch --db mines.db --servers 3
  minesweeper launch --advertise mines.example.com --max-servers 10`,
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
			opts, cleanup, err := serverOptions(settings)
			if err != nil {
				return err
			}
			defer cleanup()

			launcher, err := gamelauncher.CreateGameLauncher(gamelauncher.Options{
				Host:       advertise,
				Port:       uint16(cfg.LauncherPort),
				MaxServers: maxServers,
				Server:     opts,
				Logger:     logger,
			})
			if err != nil {
				return err
			}
			for i := range initial {
				if _, err := launcher.SpawnNewGameServer(fmt.Sprintf("%s %d", cfg.ServerName, i+1)); err != nil {
					launcher.Close()
					return err
				}
			}
			go launcher.Loop()
			logger.WithField("port", launcher.Port).Info("Launcher started")
			waitForSignal(cmd.Context())
			return launcher.Close()
		},
	}
	launchCmd.Flags().StringVar(&cfg.Host, "host", cfg.Host, "Host to listen on")
	launchCmd.Flags().IntVar(&cfg.LauncherPort, "port", cfg.LauncherPort, "Launcher port")
	launchCmd.Flags().StringVar(&cfg.ServerName, "name", cfg.ServerName, "Name prefix of the initial servers")
	launchCmd.Flags().StringVar(&advertise, "advertise", "", "Host announced in server listings")
	launchCmd.Flags().StringVarP(&difficulty, "difficulty", "d", mines.Easy.String(), "Difficulty new sessions start with")
	launchCmd.Flags().IntVarP(&initial, "servers", "n", 1, "Game servers to start right away")
	launchCmd.Flags().IntVar(&maxServers, "max-servers", 0, "Limit of game servers, 0 for none")
	return launchCmd
}

func newServersCmd() *cobra.Command {
	var spawn string
	serversCmd := &cobra.Command{
		Use:   "servers",
		Short: "List the game servers of a launcher",
		Long: `List the game servers of a launcher, or ask it for a new one.

Examples:
  minesweeper servers --host mines.example.com
  minesweeper servers --spawn "Friday night"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := gamelauncher.Dial(cfg.Host, uint16(cfg.LauncherPort), logger)
			if err != nil {
				return err
			}
			defer client.Close()
			if cmd.Flags().Changed("spawn") {
				info, err := client.SpawnServer(spawn)
				if err != nil {
					return err
				}
				return printServers(cmd.OutOrStdout(), []*protocol.GameServerInfo{info})
			}
			infos, err := client.ListServers()
			if err != nil {
				return err
			}
			return printServers(cmd.OutOrStdout(), infos)
		},
	}
	serversCmd.Flags().StringVar(&cfg.Host, "host", cfg.Host, "Launcher host")
	serversCmd.Flags().IntVar(&cfg.LauncherPort, "port", cfg.LauncherPort, "Launcher port")
	serversCmd.Flags().StringVar(&spawn, "spawn", "", "Spawn a server with this name")
	return serversCmd
}

func printServers(out io.Writer, infos []*protocol.GameServerInfo) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Name\tAddress\tPlayers")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%s:%d\t%d\n", info.Name, info.Host, info.Port, info.PlayerCount)
	}
	return w.Flush()
}

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tomasstrnad1997/minesweeper/client"
)

func newConnectCmd() *cobra.Command {
	connectCmd := &cobra.Command{
		Use:   "connect",
		Short: "Play on a game server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(cmd.OutOrStdout(), logger)
			if err := c.Connect(cfg.Host, uint16(cfg.Port)); err != nil {
				return err
			}
			defer c.Close()
			go func() {
				if err := c.Listen(); err != nil {
					logger.WithError(err).Error("Disconnected")
					os.Exit(1)
				}
			}()
			return c.Run(os.Stdin)
		},
	}
	connectCmd.Flags().StringVar(&cfg.Host, "host", cfg.Host, "Server host")
	connectCmd.Flags().IntVarP(&cfg.Port, "port", "p", cfg.Port, "Server port")
	return connectCmd
}

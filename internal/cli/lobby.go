package cli

import (
	"github.com/spf13/cobra"
)

func newLobbiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lobbies",
		Short: "List open lobbies waiting for an opponent",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result LobbyList

			if err := client.Get("/api/v1/lobbies", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

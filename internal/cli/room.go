package cli

import (
	"github.com/spf13/cobra"
)

func newRoomCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "room <id>",
		Short: "Show the state of a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Room

			if err := client.Get("/api/v1/rooms/"+args[0], &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

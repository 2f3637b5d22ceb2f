package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// frames: show the catalog the delivery service offers.
func framesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "frames",
		Short: "List the frame catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := client.Frames(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println("The catalog is empty.")
				return nil
			}
			for _, f := range list {
				fmt.Printf("%-4s %s\n", f.ID, f.Name)
			}
			return nil
		},
	}
}

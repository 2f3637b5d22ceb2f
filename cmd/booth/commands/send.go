package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/colorstring"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"photobooth/internal/delivery"
	"photobooth/internal/render"
)

var sendTo string

// send <image>: deliver an already-rendered image without running the
// capture flow. Handy for re-sending a saved composite.
func sendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <image>",
		Short: "Deliver an existing image file by email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			mime := "image/jpeg"
			if filepath.Ext(args[0]) == ".png" {
				mime = "image/png"
			}
			artifact := &render.Artifact{Data: data, MIME: mime}

			bar := progressbar.NewOptions64(int64(len(data)),
				progressbar.OptionSetDescription("Uploading"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowBytes(true),
				progressbar.OptionClearOnFinish(),
			)
			client.Progress = bar

			outcome, err := delivery.NewOperation(client).Run(cmd.Context(), sendTo, artifact)
			_ = bar.Finish()
			if err != nil {
				if outcome != nil {
					colorstring.Printf("[red]%s\n", outcome.Message)
				}
				return err
			}
			fmt.Println(outcome.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&sendTo, "to", "", "recipient address")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"photobooth/internal/capture"
)

// devices: list what the booth can capture from.
func devicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available capture devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src := newSource()
			devices, err := src.Devices()
			if errors.Is(err, capture.ErrNoDevice) {
				fmt.Println("No capture devices found.")
				return nil
			}
			if err != nil {
				return err
			}
			for _, d := range devices {
				fmt.Printf("%-16s %s\n", d.ID, d.Name)
			}
			return nil
		},
	}
}

// newSource picks the capture variant once, at composition time.
func newSource() capture.Source {
	if cfg.Booth.StillsDir != "" {
		return capture.NewStillSource(cfg.Booth.StillsDir)
	}
	return capture.NewWebcamSource()
}

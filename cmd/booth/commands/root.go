package commands

import (
	"os"

	"github.com/spf13/cobra"

	"photobooth/internal/config"
	"photobooth/internal/delivery"
)

var (
	cfgPath   string
	serverURL string
	stillsDir string

	cfg    *config.Config
	client *delivery.Client
)

func Execute() error {
	root := &cobra.Command{
		Use:   "booth",
		Short: "Photobooth client: capture, composite and deliver a photo",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgPath == "" {
				cfgPath = os.Getenv("PHOTOBOOTH_CONFIG")
			}
			var err error
			cfg, err = config.Load(cfgPath)
			if err != nil {
				return err
			}
			if serverURL != "" {
				cfg.Booth.ServerURL = serverURL
			}
			if stillsDir != "" {
				cfg.Booth.StillsDir = stillsDir
			}
			client = delivery.NewClient(cfg.Booth.ServerURL)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default photobooth.yaml via PHOTOBOOTH_CONFIG)")
	root.PersistentFlags().StringVar(&serverURL, "server", "", "delivery service base URL (default from config)")
	root.PersistentFlags().StringVar(&stillsDir, "stills", "", "serve captures from this directory instead of a webcam")

	root.AddCommand(runCmd(), devicesCmd(), framesCmd(), sendCmd())
	return root.Execute()
}

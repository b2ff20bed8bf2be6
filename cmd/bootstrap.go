package cmd

import (
	"github.com/spf13/cobra"

	"github.com/MannyJMusic/dfl-desktop/internal/bootstrap"
	"github.com/MannyJMusic/dfl-desktop/internal/config"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Provision this machine as a DeepFaceLab desktop",
	Long: `Runs the on-instance first-boot provisioning: system packages, the
Python environment with CUDA-matched TensorFlow, the DeepFaceLab checkout,
VNC and noVNC, and the Instance Portal files. Intended to run as root inside
a freshly rented instance; every step is idempotent, so re-running after a
partial failure is safe.

Prints "` + config.CompletionMarker + `" when done, which is the marker
dflctl monitor waits for.`,
	RunE: runBootstrap,
}

func init() {
	rootCmd.AddCommand(bootstrapCmd)
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	return bootstrap.New(cfg.Bootstrap).Run(cmd.Context())
}

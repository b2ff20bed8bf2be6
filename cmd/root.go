package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/MannyJMusic/dfl-desktop/internal/config"
	"github.com/MannyJMusic/dfl-desktop/internal/errors"
	"github.com/MannyJMusic/dfl-desktop/internal/logging"
)

var (
	verbose    bool
	jsonOutput bool

	flagAPIKey     string
	flagOwnerID    string
	flagVastBinary string
)

var rootCmd = &cobra.Command{
	Use:   "dflctl",
	Short: "DeepFaceLab desktop provisioning for Vast.ai",
	Long: `dflctl rents GPU instances on Vast.ai and turns them into ready-to-use
DeepFaceLab desktops.

Each instance gets:
  - XFCE desktop over VNC (display :1) and noVNC in the browser
  - Python environment with CUDA-matched TensorFlow
  - DeepFaceLab checkout under /workspace
  - Instance Portal entries for one-click access`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(verbose, jsonOutput, os.Stderr)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logging.UserError("%v", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "Vast.ai API key (overrides config and VAST_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&flagOwnerID, "owner-id", "", "Vast.ai user id used to split own templates from community ones")
	rootCmd.PersistentFlags().StringVar(&flagVastBinary, "vastai-binary", "", "Path to the vastai CLI executable")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// Helper aliases for user-facing output (delegates to logging package)
var (
	logInfo    = logging.UserInfo
	logSuccess = logging.UserSuccess
	logWarning = logging.UserWarning
)

// loadConfig loads the config file and layers the persistent flags on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.DefaultPaths().ConfigDir)
	if err != nil {
		return nil, errors.ConfigError("loading configuration", err)
	}

	if flagAPIKey != "" {
		cfg.APIKey = flagAPIKey
	}
	if flagOwnerID != "" {
		cfg.OwnerID = flagOwnerID
	}
	if flagVastBinary != "" {
		cfg.VastBinary = flagVastBinary
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigError("invalid configuration", err)
	}
	return cfg, nil
}

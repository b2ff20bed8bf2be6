package cmd

import (
	"github.com/spf13/cobra"

	"github.com/MannyJMusic/dfl-desktop/internal/errors"
)

var sshCmd = &cobra.Command{
	Use:   "ssh <id>",
	Short: "Open an SSH session to an instance",
	Long: `Resolves the instance's SSH endpoint and replaces this process with
an ssh session to root@host.`,
	Args: cobra.ExactArgs(1),
	RunE: runSSH,
}

func init() {
	rootCmd.AddCommand(sshCmd)
}

func runSSH(cmd *cobra.Command, args []string) error {
	inst, err := loadInstance(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	opts, err := sshEndpoint(inst)
	if err != nil {
		return errors.SSHError("instance is not reachable over SSH yet", err)
	}

	logInfo("Connecting to %s (port %d)...", opts.Destination(), opts.Port)
	if err := opts.ReplaceWithSession(""); err != nil {
		return errors.SSHError("failed to start ssh", err)
	}
	return nil
}

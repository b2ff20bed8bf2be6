package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MannyJMusic/dfl-desktop/internal/config"
	"github.com/MannyJMusic/dfl-desktop/internal/monitor"
)

var logsCmd = &cobra.Command{
	Use:   "logs <id>",
	Short: "Fetch instance logs",
	Args:  cobra.ExactArgs(1),
	RunE:  runInstanceLogs,
}

var logsFollow bool

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output")
	rootCmd.AddCommand(logsCmd)
}

func runInstanceLogs(cmd *cobra.Command, args []string) error {
	id := args[0]

	svc, _, err := instanceService()
	if err != nil {
		return err
	}

	if logsFollow {
		return svc.FollowLogs(cmd.Context(), id, func(line string) {
			fmt.Println(line)
		})
	}

	logs, err := svc.Logs(cmd.Context(), id)
	if err != nil {
		return err
	}
	fmt.Println(logs)

	if monitor.ScanForMarker(logs, config.CompletionMarker) {
		logSuccess("Provisioning has completed on this instance")
	} else {
		logInfo("Provisioning marker not seen yet; follow with: dflctl monitor %s", id)
	}
	return nil
}

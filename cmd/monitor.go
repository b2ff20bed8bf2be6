package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/MannyJMusic/dfl-desktop/internal/audit"
	"github.com/MannyJMusic/dfl-desktop/internal/monitor"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor <id>",
	Short: "Follow logs until provisioning completes",
	Long: `Streams the instance log and watches for the provisioning completion
marker. Dropped log streams are reconnected with exponential backoff. Runs
in the foreground until the marker appears or the command is interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runInstanceMonitor,
}

var monitorMaxWait int

func init() {
	monitorCmd.Flags().IntVar(&monitorMaxWait, "max-wait", 0, "Give up after this many minutes (0 waits forever)")
	rootCmd.AddCommand(monitorCmd)
}

func runInstanceMonitor(cmd *cobra.Command, args []string) error {
	id := args[0]

	svc, _, err := instanceService()
	if err != nil {
		return err
	}

	var opts []monitor.Option
	if monitorMaxWait > 0 {
		opts = append(opts, monitor.WithMaxWait(time.Duration(monitorMaxWait)*time.Minute))
	}

	logInfo("Watching instance %s for provisioning completion...", id)
	if err := monitor.New(svc, opts...).Wait(cmd.Context(), id); err != nil {
		if logErr := auditLogger().LogEvent(audit.EventError, id, err.Error()); logErr != nil {
			logWarning("audit log write failed: %v", logErr)
		}
		return err
	}

	if err := auditLogger().LogEvent(audit.EventProvisioned, id, ""); err != nil {
		logWarning("audit log write failed: %v", err)
	}
	logSuccess("Provisioning complete. Connect with: dflctl ssh %s", id)
	return nil
}

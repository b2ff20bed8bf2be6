package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MannyJMusic/dfl-desktop/internal/instances"
	"github.com/MannyJMusic/dfl-desktop/internal/system"
)

var statusCmd = &cobra.Command{
	Use:   "status <id>",
	Short: "Show instance status",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	inst, err := loadInstance(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Println(strings.Join(instances.Summary(inst), "\n"))

	if inst.Status() == "running" {
		if opts, err := sshEndpoint(inst); err == nil {
			reachable := "unreachable"
			if opts.CheckConnection(cmd.Context(), system.DefaultExecutor()) {
				reachable = "reachable"
			}
			fmt.Printf("  ssh:       %s\n", reachable)
		}
	}

	history, err := auditLogger().Events(inst.ID())
	if err != nil {
		logWarning("audit history unavailable: %v", err)
		return nil
	}
	if len(history) > 0 {
		fmt.Println("  history:")
		for _, ev := range history {
			line := fmt.Sprintf("    %s %s", ev.Timestamp.Format("2006-01-02 15:04:05"), ev.Type)
			if ev.Details != "" {
				line += " (" + ev.Details + ")"
			}
			fmt.Println(line)
		}
	}

	return nil
}

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MannyJMusic/dfl-desktop/internal/audit"
)

var destroyCmd = &cobra.Command{
	Use:   "destroy <id>",
	Short: "Destroy an instance",
	Args:  cobra.ExactArgs(1),
	RunE:  runDestroy,
}

var destroyForce bool

func init() {
	destroyCmd.Flags().BoolVarP(&destroyForce, "force", "f", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(destroyCmd)
}

func runDestroy(cmd *cobra.Command, args []string) error {
	id := args[0]

	svc, _, err := instanceService()
	if err != nil {
		return err
	}

	inst, err := svc.Get(cmd.Context(), id)
	if err != nil {
		return err
	}

	if !destroyForce {
		fmt.Printf("Destroy instance %s (%s)? [y/N] ", inst.ID(), inst.GPUName())
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			logInfo("Aborted")
			return nil
		}
	}

	if err := svc.Destroy(cmd.Context(), id); err != nil {
		return err
	}

	auditLog := auditLogger()
	if err := auditLog.LogEvent(audit.EventDestroy, id, ""); err != nil {
		logWarning("audit log write failed: %v", err)
	}

	logSuccess("Instance %s destroyed", id)
	return nil
}

package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/MannyJMusic/dfl-desktop/internal/errors"
	"github.com/MannyJMusic/dfl-desktop/internal/monitor"
	"github.com/MannyJMusic/dfl-desktop/internal/tui"
)

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Interactively pick an instance",
	Long: `Shows the interactive instance picker. From the picker an instance can
be attached over SSH, monitored, inspected, or destroyed. Without a TTY the
instances are listed non-interactively instead.`,
	RunE: runPick,
}

func init() {
	rootCmd.AddCommand(pickCmd)
}

func runPick(cmd *cobra.Command, args []string) error {
	svc, _, err := instanceService()
	if err != nil {
		return err
	}

	insts, err := svc.List(cmd.Context())
	if err != nil {
		return err
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Print(tui.SimplePicker(insts))
		return nil
	}

	result, err := tui.RunPicker(insts)
	if err != nil {
		return err
	}

	switch result.Action {
	case tui.ActionSSH:
		opts, err := sshEndpoint(result.Instance)
		if err != nil {
			return errors.SSHError("instance is not reachable over SSH yet", err)
		}
		return opts.ReplaceWithSession("")

	case tui.ActionMonitor:
		return monitor.New(svc).Wait(cmd.Context(), result.Instance.ID())

	case tui.ActionLogs:
		logs, err := svc.Logs(cmd.Context(), result.Instance.ID())
		if err != nil {
			return err
		}
		fmt.Println(logs)
		return nil

	case tui.ActionDestroy:
		destroyForce = false
		return runDestroy(cmd, []string{result.Instance.ID()})
	}

	return nil
}

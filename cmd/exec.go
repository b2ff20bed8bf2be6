package cmd

import (
	"fmt"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/MannyJMusic/dfl-desktop/internal/audit"
	"github.com/MannyJMusic/dfl-desktop/internal/errors"
)

var execCmd = &cobra.Command{
	Use:   "exec <id> -- <command>",
	Short: "Run a command on an instance",
	Long: `Runs a command on the instance through the vastai CLI. The command
and its arguments go after the -- separator and are quoted as one shell
command line.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInstanceExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
}

func runInstanceExec(cmd *cobra.Command, args []string) error {
	id := args[0]

	execArgs := args[1:]
	if cmd.ArgsLenAtDash() >= 0 {
		execArgs = args[cmd.ArgsLenAtDash():]
	}
	if len(execArgs) == 0 {
		return errors.ValidationError("usage: dflctl exec <id> -- <command>")
	}

	svc, _, err := instanceService()
	if err != nil {
		return err
	}

	// Verify the instance exists before shipping the command.
	if _, err := svc.Get(cmd.Context(), id); err != nil {
		return err
	}

	cmdStr := shellquote.Join(execArgs...)
	out, err := svc.Exec(cmd.Context(), id, cmdStr)
	if err != nil {
		return err
	}

	if out != "" {
		fmt.Println(out)
	}

	if err := auditLogger().LogEvent(audit.EventExec, id, cmdStr); err != nil {
		logWarning("audit log write failed: %v", err)
	}
	return nil
}

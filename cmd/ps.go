package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List instances",
	RunE:  runPs,
}

func init() {
	rootCmd.AddCommand(psCmd)
}

func runPs(cmd *cobra.Command, args []string) error {
	svc, _, err := instanceService()
	if err != nil {
		return err
	}

	insts, err := svc.List(cmd.Context())
	if err != nil {
		return err
	}

	if len(insts) == 0 {
		logInfo("No instances found. Create one with: dflctl provision")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tGPU\tSTATUS\tTEMPLATE\tSSH")
	fmt.Fprintln(w, "--\t---\t------\t--------\t---")

	for _, inst := range insts {
		conn := "-"
		if inst.SSHHost() != "" {
			conn = inst.SSHHost() + ":" + inst.SSHPort()
		}
		tpl := inst.TemplateName()
		if tpl == "" {
			tpl = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			inst.ID(), inst.GPUName(), inst.Status(), tpl, conn)
	}

	return w.Flush()
}

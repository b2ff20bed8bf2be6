package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MannyJMusic/dfl-desktop/internal/audit"
	"github.com/MannyJMusic/dfl-desktop/internal/errors"
	"github.com/MannyJMusic/dfl-desktop/internal/instances"
	"github.com/MannyJMusic/dfl-desktop/internal/monitor"
	"github.com/MannyJMusic/dfl-desktop/internal/offers"
	"github.com/MannyJMusic/dfl-desktop/internal/provision"
	"github.com/MannyJMusic/dfl-desktop/internal/templates"
	"github.com/MannyJMusic/dfl-desktop/internal/tui"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Provision a DeepFaceLab desktop instance",
	Long: `Walks through offer, template and storage selection, creates the
instance, and follows its logs until provisioning completes.`,
	RunE: runProvision,
}

var (
	provisionDryRun bool
	provisionNoWait bool
)

func init() {
	provisionCmd.Flags().BoolVar(&provisionDryRun, "dry-run", false, "Show the vastai command without creating anything")
	provisionCmd.Flags().BoolVar(&provisionNoWait, "no-wait", false, "Do not follow logs after creating the instance")
	rootCmd.AddCommand(provisionCmd)
}

func runProvision(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	client := clientFor(cfg)

	offerSvc := offers.NewService(client)
	tplSvc := templates.NewService(client, cfg.OwnerID)

	logInfo("Searching offers (%s)...", cfg.Search.Query)
	found, err := offerSvc.Search(ctx, offers.Params{
		Query: cfg.Search.Query,
		Limit: cfg.Search.Limit,
		Sort:  cfg.Search.Sort,
		Order: cfg.Search.Order,
	})
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return errors.New(errors.ExitOfferSearch, fmt.Sprintf("no offers matched %q", cfg.Search.Query))
	}

	volumes := make(map[string][]offers.Volume)
	for _, o := range found {
		if _, ok := volumes[o.MachineID()]; ok {
			continue
		}
		asks, err := offerSvc.Volumes(ctx, o.MachineID())
		if err != nil {
			logWarning("volume lookup for machine %s failed: %v", o.MachineID(), err)
			continue
		}
		volumes[o.MachineID()] = asks
	}

	mine, community, err := tplSvc.List(ctx)
	if err != nil {
		return err
	}
	if len(mine) == 0 && len(community) == 0 {
		return errors.New(errors.ExitTemplateNotFound, "no templates available; create one with: dflctl templates create")
	}

	selection, err := tui.RunWizard(tui.WizardData{
		Offers:    found,
		Volumes:   volumes,
		Mine:      mine,
		Community: community,
	})
	if err != nil {
		return err
	}
	if selection == nil {
		logInfo("Provisioning cancelled")
		return nil
	}

	hash, err := tplSvc.ResolveHash(ctx, selection.Template)
	if err != nil {
		return err
	}
	req := selection.Request
	req.TemplateHash = hash

	provSvc := provision.NewService(client)

	if provisionDryRun {
		fmt.Println(provSvc.Preview(req))
		return nil
	}

	logInfo("Creating instance from offer %s...", req.OfferID)
	result, err := provSvc.Create(ctx, req)
	if err != nil {
		return err
	}

	auditLog := auditLogger()
	if result.InstanceID == "" {
		logWarning("Instance created but its id could not be determined; check dflctl ps")
		return nil
	}

	logSuccess("Instance %s created", result.InstanceID)
	if err := auditLog.LogEvent(audit.EventCreate, result.InstanceID,
		fmt.Sprintf("offer %s template %s", req.OfferID, selection.Template.Name())); err != nil {
		logWarning("audit log write failed: %v", err)
	}

	if provisionNoWait {
		logInfo("Follow provisioning later with: dflctl monitor %s", result.InstanceID)
		return nil
	}

	logInfo("Waiting for provisioning to complete (ctrl+c to stop watching)...")
	mon := monitor.New(instances.NewService(client))
	if err := mon.Wait(ctx, result.InstanceID); err != nil {
		logWarning("log monitoring stopped: %v", err)
		logInfo("Resume with: dflctl monitor %s", result.InstanceID)
		return nil
	}

	if err := auditLog.LogEvent(audit.EventProvisioned, result.InstanceID, ""); err != nil {
		logWarning("audit log write failed: %v", err)
	}
	logSuccess("Provisioning complete. Connect with: dflctl ssh %s", result.InstanceID)
	return nil
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MannyJMusic/dfl-desktop/internal/audit"
	"github.com/MannyJMusic/dfl-desktop/internal/templates"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List launch templates",
	Long: `Lists templates usable for provisioning, split into your own templates
and community ones. Ownership is decided by the configured owner id, or by
the account the API key resolves to.`,
	RunE: runTemplates,
}

var templatesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a DeepFaceLab desktop template",
	RunE:  runTemplatesCreate,
}

var (
	tplName  string
	tplImage string
	tplEnv   string
	tplDisk  int
	tplExtra string
)

func init() {
	templatesCreateCmd.Flags().StringVar(&tplName, "name", "", "Template name (default from config)")
	templatesCreateCmd.Flags().StringVar(&tplImage, "image", "", "Docker image (default from config)")
	templatesCreateCmd.Flags().StringVar(&tplEnv, "env", "", "Env/port string passed to vastai (default from config)")
	templatesCreateCmd.Flags().IntVar(&tplDisk, "disk", 0, "Disk space in GB (default from config)")
	templatesCreateCmd.Flags().StringVar(&tplExtra, "extra", "", "Extra vastai create template flags, shell-quoted")
	templatesCmd.AddCommand(templatesCreateCmd)
	rootCmd.AddCommand(templatesCmd)
}

func runTemplates(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc := templates.NewService(clientFor(cfg), cfg.OwnerID)
	mine, community, err := svc.List(cmd.Context())
	if err != nil {
		return err
	}

	if len(mine) == 0 && len(community) == 0 {
		logInfo("No templates found. Create one with: dflctl templates create")
		return nil
	}

	printTemplateGroup("My templates", mine)
	printTemplateGroup("Community templates", community)
	return nil
}

func printTemplateGroup(header string, ts []templates.Template) {
	if len(ts) == 0 {
		return
	}
	templates.SortByName(ts)
	fmt.Printf("%s:\n", header)
	for _, t := range ts {
		fmt.Println(strings.Join(templates.Summary(t), "\n"))
	}
	fmt.Println()
}

func runTemplatesCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	spec := templates.CreateSpec{
		Name:       cfg.Template.Name,
		Image:      cfg.Template.Image,
		Env:        cfg.Template.Env,
		DiskGB:     cfg.Template.DiskGB,
		ExtraFlags: tplExtra,
	}
	if tplName != "" {
		spec.Name = tplName
	}
	if tplImage != "" {
		spec.Image = tplImage
	}
	if tplEnv != "" {
		spec.Env = tplEnv
	}
	if tplDisk > 0 {
		spec.DiskGB = tplDisk
	}

	svc := templates.NewService(clientFor(cfg), cfg.OwnerID)
	created, err := svc.Create(cmd.Context(), spec)
	if err != nil {
		return err
	}

	logSuccess("Template %q created", spec.Name)
	if created != nil {
		fmt.Println(strings.Join(templates.Summary(created), "\n"))
		if id := templates.ExtractHash(created); id != "" {
			if err := auditLogger().LogEvent(audit.EventTemplate, "template-"+id, spec.Name); err != nil {
				logWarning("audit log write failed: %v", err)
			}
		}
	}
	return nil
}

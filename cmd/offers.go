package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MannyJMusic/dfl-desktop/internal/offers"
)

var offersCmd = &cobra.Command{
	Use:   "offers [query]",
	Short: "Search GPU offers",
	Long: `Searches rentable GPU offers through the vastai CLI. The query uses
vastai search syntax, e.g. "gpu_name=RTX_4090 num_gpus=1". Without a query
the configured default search is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOffers,
}

var (
	offersLimit   int
	offersSort    string
	offersOrder   string
	offersVolumes bool
)

func init() {
	offersCmd.Flags().IntVarP(&offersLimit, "limit", "n", 0, "Maximum offers to show (default from config)")
	offersCmd.Flags().StringVar(&offersSort, "sort", "", "Field to sort by (default from config)")
	offersCmd.Flags().StringVar(&offersOrder, "order", "", "Sort order: asc or desc")
	offersCmd.Flags().BoolVar(&offersVolumes, "volumes", false, "Also show volume asks on each offer's machine")
	rootCmd.AddCommand(offersCmd)
}

func runOffers(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	params := offers.Params{
		Query: cfg.Search.Query,
		Limit: cfg.Search.Limit,
		Sort:  cfg.Search.Sort,
		Order: cfg.Search.Order,
	}
	if len(args) > 0 {
		params.Query = args[0]
	}
	if offersLimit > 0 {
		params.Limit = offersLimit
	}
	if offersSort != "" {
		params.Sort = offersSort
	}
	if offersOrder != "" {
		params.Order = offersOrder
	}

	svc := offers.NewService(clientFor(cfg))
	found, err := svc.Search(cmd.Context(), params)
	if err != nil {
		return err
	}

	if len(found) == 0 {
		logInfo("No offers matched %q", params.Query)
		return nil
	}

	for _, o := range found {
		fmt.Println(strings.Join(offers.Summary(o), "\n"))

		if offersVolumes {
			asks, err := svc.Volumes(cmd.Context(), o.MachineID())
			if err != nil {
				logWarning("volume lookup for machine %s failed: %v", o.MachineID(), err)
				continue
			}
			for _, v := range asks {
				fmt.Printf("  volume ask: %s\n", offers.VolumeSummary(v))
			}
		}
	}

	return nil
}

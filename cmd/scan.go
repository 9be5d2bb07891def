package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/vaxsource/immunize-cli/internal/sourcing"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Check the portal for new dataset releases",
	Long:  "Walks each dataset's migration chain on the portal and queues datasets whose uid moved for re-sourcing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := sourcing.Migrate(ctx, pool); err != nil {
			return eris.Wrap(err, "scan: migrate")
		}

		scanner := sourcing.NewScanner(pool, newPortalClient(), cfg.Schedule.ScanConcurrency)
		stats, err := scanner.Scan(ctx)
		if err != nil {
			return eris.Wrap(err, "scan")
		}

		fmt.Printf("Checked %d datasets: %d queued, %d failed\n", stats.Checked, stats.Queued, stats.Failed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vaxsource/immunize-cli/internal/sourcing"
)

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Source pending datasets",
	Long: `Source queued datasets into the imm schema.

By default, sources every dataset not yet marked sourced. Use --datasets to
restrict the run to specific uids, or --force to re-source datasets already
marked sourced. Each dataset commits atomically: a failure rolls back that
dataset and the run continues with the next one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "source"))

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := sourcing.Migrate(ctx, pool); err != nil {
			return eris.Wrap(err, "source: migrate")
		}

		opts := parseSourceOpts(cmd)
		log.Info("starting sourcing run",
			zap.Strings("datasets", opts.UIDs),
			zap.Bool("force", opts.Force),
		)

		engine := sourcing.NewEngine(pool, newPortalClient())
		stats, err := engine.Run(ctx, opts)
		if err != nil {
			return eris.Wrap(err, "source")
		}

		fmt.Printf("Sourced %d datasets (%d skipped)\n", stats.Sourced, stats.Skipped)
		return nil
	},
}

func init() {
	sourceCmd.Flags().String("datasets", "", "comma-separated dataset uids")
	sourceCmd.Flags().Bool("force", false, "re-source datasets already marked sourced")
	rootCmd.AddCommand(sourceCmd)
}

// parseSourceOpts extracts sourcing.RunOpts from the cobra command flags.
func parseSourceOpts(cmd *cobra.Command) sourcing.RunOpts {
	datasetsStr, _ := cmd.Flags().GetString("datasets")
	force, _ := cmd.Flags().GetBool("force")

	opts := sourcing.RunOpts{Force: force}
	if datasetsStr != "" {
		opts.UIDs = strings.Split(datasetsStr, ",")
		for i := range opts.UIDs {
			opts.UIDs[i] = strings.TrimSpace(opts.UIDs[i])
		}
	}
	return opts
}

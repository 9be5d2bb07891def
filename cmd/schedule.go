package main

import (
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vaxsource/immunize-cli/internal/sourcing"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the scan and source pipelines on their cron schedules",
	Long: `Runs until interrupted, triggering the update scanner and the sourcing
engine on the cron specs in schedule.scan and schedule.source. Overlapping
runs of the same job are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := zap.L().With(zap.String("command", "schedule"))

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := sourcing.Migrate(ctx, pool); err != nil {
			return eris.Wrap(err, "schedule: migrate")
		}

		api := newPortalClient()
		scanner := sourcing.NewScanner(pool, api, cfg.Schedule.ScanConcurrency)
		engine := sourcing.NewEngine(pool, api)

		c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

		if _, err := c.AddFunc(cfg.Schedule.Scan, func() {
			if _, err := scanner.Scan(ctx); err != nil {
				log.Error("scheduled scan failed", zap.Error(err))
			}
		}); err != nil {
			return eris.Wrapf(err, "schedule: add scan job %q", cfg.Schedule.Scan)
		}

		if _, err := c.AddFunc(cfg.Schedule.Source, func() {
			if _, err := engine.Run(ctx, sourcing.RunOpts{}); err != nil {
				log.Error("scheduled sourcing run failed", zap.Error(err))
			}
		}); err != nil {
			return eris.Wrapf(err, "schedule: add source job %q", cfg.Schedule.Source)
		}

		c.Start()
		log.Info("scheduler started",
			zap.String("scan", cfg.Schedule.Scan),
			zap.String("source", cfg.Schedule.Source))

		<-ctx.Done()
		log.Info("shutting down scheduler")

		// Let an in-flight job finish before returning.
		<-c.Stop().Done()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vaxsource/immunize-cli/internal/sourcing"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the sourcing log",
	Long:  "Displays the sourcing history for all datasets, most recent first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		sl := sourcing.NewSourceLog(pool)
		entries, err := sl.ListAll(ctx)
		if err != nil {
			return eris.Wrap(err, "status")
		}

		if len(entries) == 0 {
			zap.L().Info("no sourcing runs found, run 'source' to start")
			return nil
		}

		formatLogEntries(os.Stdout, entries)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// formatLogEntries writes a tabular representation of sourcing runs to out.
func formatLogEntries(out io.Writer, entries []sourcing.LogEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DATASET\tSTATUS\tSTARTED\tDURATION\tENTRIES\tERROR")
	_, _ = fmt.Fprintln(w, "-------\t------\t-------\t--------\t-------\t-----")

	for _, e := range entries {
		dur := "-"
		if e.CompletedAt != nil {
			dur = e.CompletedAt.Sub(e.StartedAt).Round(time.Second).String()
		}

		errMsg := ""
		if e.Error != "" {
			errMsg = truncate(e.Error, 60)
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			e.DatasetUID,
			e.Status,
			e.StartedAt.Format("2006-01-02 15:04"),
			dur,
			e.Entries,
			errMsg,
		)
	}
	_ = w.Flush()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

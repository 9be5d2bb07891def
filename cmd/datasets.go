package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vaxsource/immunize-cli/internal/model"
	"github.com/vaxsource/immunize-cli/internal/sourcing"
	"github.com/vaxsource/immunize-cli/internal/store"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Manage tracked datasets",
}

var datasetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		datasets, err := store.New(pool).ListDatasets(ctx)
		if err != nil {
			return eris.Wrap(err, "datasets list")
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tUID\tSOURCED\tQUEUED")
		for _, d := range datasets {
			queued := "-"
			if d.QueuedDate != nil {
				queued = d.QueuedDate.Format("2006-01-02 15:04")
			}
			_, _ = fmt.Fprintf(w, "%d\t%s\t%t\t%s\n", d.ID, d.UID, d.Sourced, queued)
		}
		_ = w.Flush()
		return nil
	},
}

var datasetsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a dataset uid",
	Long: `Register a dataset for sourcing.

--fields-map points to a YAML file mapping canonical field names to the
source field names this dataset release uses; canonical names with a blank
source name pass through unchanged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		uid, _ := cmd.Flags().GetString("uid")
		if uid == "" {
			return eris.New("datasets add: --uid is required")
		}

		fm, err := loadFieldsMap(cmd)
		if err != nil {
			return err
		}

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := sourcing.Migrate(ctx, pool); err != nil {
			return eris.Wrap(err, "datasets add: migrate")
		}

		d, err := store.New(pool).CreateDataset(ctx, uid, fm)
		if err != nil {
			return eris.Wrap(err, "datasets add")
		}

		fmt.Printf("Registered dataset %s (id %d)\n", d.UID, d.ID)
		return nil
	},
}

func init() {
	datasetsAddCmd.Flags().String("uid", "", "portal dataset uid (required)")
	datasetsAddCmd.Flags().String("fields-map", "", "path to YAML field translation table")
	datasetsCmd.AddCommand(datasetsListCmd)
	datasetsCmd.AddCommand(datasetsAddCmd)
	rootCmd.AddCommand(datasetsCmd)
}

// loadFieldsMap reads the --fields-map YAML file, if given.
func loadFieldsMap(cmd *cobra.Command) (model.FieldsMap, error) {
	path, _ := cmd.Flags().GetString("fields-map")
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "datasets add: read fields map %s", path)
	}

	var fm model.FieldsMap
	if err := yaml.Unmarshal(data, &fm); err != nil {
		return nil, eris.Wrapf(err, "datasets add: parse fields map %s", path)
	}
	return fm, nil
}

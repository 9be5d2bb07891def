// Package sourcing implements the dataset sourcing pipeline: field
// translation, entity resolution, record upserts, summary aggregation and the
// per-dataset transaction boundary that ties them together.
package sourcing

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vaxsource/immunize-cli/internal/db"
	"github.com/vaxsource/immunize-cli/internal/model"
	"github.com/vaxsource/immunize-cli/internal/portal"
	"github.com/vaxsource/immunize-cli/internal/store"
)

// Engine drives sourcing runs. Each dataset gets one transaction covering
// content resolution, summary caching and the sourced flag, so a dataset is
// either fully sourced or untouched.
type Engine struct {
	pool db.Pool
	api  portal.API
	runs *SourceLog
}

// NewEngine creates an Engine over the given pool and portal client.
func NewEngine(pool db.Pool, api portal.API) *Engine {
	return &Engine{pool: pool, api: api, runs: NewSourceLog(pool)}
}

// RunOpts narrows or forces a sourcing run.
type RunOpts struct {
	// Force re-sources datasets already marked sourced.
	Force bool
	// UIDs restricts the run to the named datasets. Empty means all.
	UIDs []string
}

// RunStats counts per-dataset outcomes of one run.
type RunStats struct {
	Sourced int
	Skipped int
	Failed  int
}

// Run sources every pending dataset. A dataset's failure rolls back that
// dataset only; the run continues with the next one and the failures are
// joined into the returned error.
func (e *Engine) Run(ctx context.Context, opts RunOpts) (RunStats, error) {
	log := zap.L().With(zap.String("component", "sourcing.engine"))

	datasets, err := store.New(e.pool).ListDatasets(ctx)
	if err != nil {
		return RunStats{}, err
	}

	want := make(map[string]bool, len(opts.UIDs))
	for _, uid := range opts.UIDs {
		want[uid] = true
	}

	var st RunStats
	var failures []error
	for _, d := range datasets {
		if len(want) > 0 && !want[d.UID] {
			continue
		}
		if d.Sourced && !opts.Force {
			st.Skipped++
			continue
		}

		if err := e.sourceOne(ctx, d); err != nil {
			st.Failed++
			failures = append(failures, eris.Wrapf(err, "sourcing: dataset %s", d.UID))
			log.Error("dataset sourcing failed", zap.String("uid", d.UID), zap.Error(err))
			continue
		}
		st.Sourced++
		log.Info("dataset sourced", zap.String("uid", d.UID))
	}

	log.Info("sourcing run finished",
		zap.Int("sourced", st.Sourced),
		zap.Int("skipped", st.Skipped),
		zap.Int("failed", st.Failed))
	return st, errors.Join(failures...)
}

// sourceOne runs the full pipeline for a single dataset inside one
// transaction and records the attempt in the source log.
func (e *Engine) sourceOne(ctx context.Context, d model.Dataset) error {
	runID, err := e.runs.Start(ctx, d.UID)
	if err != nil {
		return err
	}

	var entries int
	err = db.WithTx(ctx, e.pool, func(q db.Queryer) error {
		n, err := sourceDataset(ctx, q, e.api, d)
		entries = n
		if err != nil {
			return err
		}
		if err := cacheSummaries(ctx, q, d.ID); err != nil {
			return err
		}
		return store.New(q).MarkSourced(ctx, d.ID)
	})
	if err != nil {
		if logErr := e.runs.Fail(ctx, runID, err.Error()); logErr != nil {
			zap.L().Warn("sourcing: record failed run", zap.Error(logErr))
		}
		return err
	}

	return e.runs.Complete(ctx, runID, int64(entries))
}

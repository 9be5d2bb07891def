package sourcing

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vaxsource/immunize-cli/internal/db"
	"github.com/vaxsource/immunize-cli/internal/portal"
	"github.com/vaxsource/immunize-cli/internal/store"
)

// Scanner checks the portal for newer releases of every known dataset and
// queues the ones that moved. Unlike the engine, per-dataset failures are
// logged and swallowed so one broken migration record cannot stall the rest
// of the scan.
type Scanner struct {
	pool        db.Pool
	api         portal.API
	concurrency int
}

// NewScanner creates a Scanner checking up to concurrency datasets at once.
func NewScanner(pool db.Pool, api portal.API, concurrency int) *Scanner {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Scanner{pool: pool, api: api, concurrency: concurrency}
}

// ScanStats counts per-dataset outcomes of one scan.
type ScanStats struct {
	Checked int
	Queued  int
	Failed  int
}

// Scan checks every dataset's uid against the portal's migration chain and
// marks moved datasets for re-sourcing.
func (s *Scanner) Scan(ctx context.Context) (ScanStats, error) {
	log := zap.L().With(zap.String("component", "sourcing.scanner"))

	st := store.New(s.pool)
	datasets, err := st.ListDatasets(ctx)
	if err != nil {
		return ScanStats{}, err
	}

	var mu sync.Mutex
	var stats ScanStats

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for _, d := range datasets {
		g.Go(func() error {
			latest, changed, err := s.api.LatestUID(ctx, d.UID)

			mu.Lock()
			defer mu.Unlock()
			stats.Checked++

			if err != nil {
				stats.Failed++
				log.Warn("uid check failed", zap.String("uid", d.UID), zap.Error(err))
				return nil
			}
			if !changed {
				return nil
			}

			if err := st.MarkQueued(ctx, d.ID, latest, time.Now().UTC()); err != nil {
				stats.Failed++
				log.Warn("queue dataset failed", zap.String("uid", d.UID), zap.Error(err))
				return nil
			}
			stats.Queued++
			log.Info("dataset queued", zap.String("old_uid", d.UID), zap.String("new_uid", latest))
			return nil
		})
	}
	_ = g.Wait()

	log.Info("scan finished",
		zap.Int("checked", stats.Checked),
		zap.Int("queued", stats.Queued),
		zap.Int("failed", stats.Failed))
	return stats, nil
}

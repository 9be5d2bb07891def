package sourcing

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vaxsource/immunize-cli/internal/db"
	"github.com/vaxsource/immunize-cli/internal/model"
	"github.com/vaxsource/immunize-cli/internal/stats"
	"github.com/vaxsource/immunize-cli/internal/store"
)

// SummaryDoc is the cached statistics document for one (dataset, sector)
// pair: group label -> metric -> statistic -> value. Group labels are
// "public", "private" and "all".
type SummaryDoc map[string]map[string]map[string]float64

// buildSummary computes the grouped statistics over a sector's reported
// records. Returns nil when there are no records: an empty selection means no
// summary, not an empty document. Within a group, a metric no record carries
// gets no entry.
func buildSummary(recs []model.SectorRecord) SummaryDoc {
	if len(recs) == 0 {
		return nil
	}

	groups := map[string][]model.SectorRecord{"all": recs}
	for _, r := range recs {
		label := "private"
		if r.Public {
			label = "public"
		}
		groups[label] = append(groups[label], r)
	}

	doc := make(SummaryDoc, len(groups))
	for label, group := range groups {
		metrics := make(map[string]map[string]float64)
		for _, name := range model.MetricFields {
			var vals []float64
			for _, r := range group {
				if v := r.Metrics.Get(name); v != nil {
					vals = append(vals, *v)
				}
			}
			if len(vals) == 0 {
				continue
			}
			metrics[name] = stats.Describe(vals)
		}
		if len(metrics) == 0 {
			continue
		}
		doc[label] = metrics
	}
	return doc
}

// cacheSummaries recomputes and upserts the summary of every sector for one
// dataset. Sectors whose selection is empty are left without a summary row.
func cacheSummaries(ctx context.Context, q db.Queryer, datasetID int64) error {
	log := zap.L().With(zap.String("component", "sourcing.summary"), zap.Int64("dataset_id", datasetID))
	st := store.New(q)

	cached := 0
	for _, kind := range model.SectorKinds {
		sectors, err := st.ListSectors(ctx, kind)
		if err != nil {
			return err
		}
		for _, sec := range sectors {
			recs, err := st.ReportedRecords(ctx, datasetID, kind, sec.ID)
			if err != nil {
				return err
			}
			doc := buildSummary(recs)
			if doc == nil {
				continue
			}

			raw, err := json.Marshal(doc)
			if err != nil {
				return eris.Wrapf(err, "sourcing: encode summary for %s %d", kind, sec.ID)
			}
			if err := st.UpsertSummary(ctx, datasetID, kind, sec.ID, raw); err != nil {
				return err
			}
			cached++
		}
	}

	log.Debug("summaries cached", zap.Int("sectors", cached))
	return nil
}

package sourcing

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/vaxsource/immunize-cli/internal/db"
	"github.com/vaxsource/immunize-cli/internal/model"
	"github.com/vaxsource/immunize-cli/internal/portal"
)

// sourceDataset streams one dataset's content from the portal and resolves
// every entry in upstream order. There is no per-entry fault isolation: the
// first failing entry aborts the stream, and the surrounding transaction
// discards everything written so far. Returns the number of entries resolved.
func sourceDataset(ctx context.Context, q db.Queryer, api portal.API, d model.Dataset) (int, error) {
	// Cancel the content stream as soon as an entry fails.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	mapper := NewMapper(d.FieldsMap)
	resolver := NewResolver(q)

	entries, errs := api.Content(ctx, d.UID)

	n := 0
	for entry := range entries {
		if err := resolver.Resolve(ctx, d.ID, mapper.Apply(entry)); err != nil {
			return n, eris.Wrapf(err, "sourcing: resolve entry %d of %s", n, d.UID)
		}
		n++
	}
	if err := <-errs; err != nil {
		return n, eris.Wrapf(err, "sourcing: stream content of %s", d.UID)
	}
	return n, nil
}

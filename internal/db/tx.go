package db

import (
	"context"

	"github.com/rotisserie/eris"
)

// WithTx runs fn inside a single transaction. Every write fn performs is
// committed together or, if fn returns an error, discarded together; the
// error is returned unwrapped so callers can inspect it.
func WithTx(ctx context.Context, pool Pool, fn func(q Queryer) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "db: begin tx")
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "db: commit tx")
	}
	return nil
}

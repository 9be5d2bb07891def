// Package db provides shared database helpers and the transaction boundary
// used by the sourcing pipeline.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Queryer is the minimal query surface shared by pgxpool.Pool and pgx.Tx.
// Store code is written against it so the same queries run inside and
// outside a transaction.
type Queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is the connection-pool surface the pipeline needs. Satisfied by
// *pgxpool.Pool and by pgxmock.PgxPoolIface in tests.
type Pool interface {
	Queryer
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

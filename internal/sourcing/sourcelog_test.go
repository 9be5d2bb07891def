package sourcing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockSourceLog(t *testing.T) (pgxmock.PgxPoolIface, *SourceLog) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return mock, NewSourceLog(mock)
}

func TestSourceLog_Start(t *testing.T) {
	mock, sl := newMockSourceLog(t)

	mock.ExpectExec("INSERT INTO imm.source_log").
		WithArgs(pgxmock.AnyArg(), "aaaa-1111").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := sl.Start(context.Background(), "aaaa-1111")
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSourceLog_Complete(t *testing.T) {
	mock, sl := newMockSourceLog(t)

	mock.ExpectExec("UPDATE imm.source_log").
		WithArgs(int64(4821), "run-id").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, sl.Complete(context.Background(), "run-id", 4821))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSourceLog_Fail(t *testing.T) {
	mock, sl := newMockSourceLog(t)

	mock.ExpectExec("UPDATE imm.source_log").
		WithArgs("boom", "run-id").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, sl.Fail(context.Background(), "run-id", "boom"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSourceLog_ListAll(t *testing.T) {
	mock, sl := newMockSourceLog(t)

	started := time.Date(2026, 3, 1, 6, 45, 0, 0, time.UTC)
	completed := started.Add(2 * time.Minute)
	mock.ExpectQuery("SELECT id, dataset_uid, status, started_at, completed_at, entries, error").
		WillReturnRows(pgxmock.NewRows([]string{"id", "dataset_uid", "status", "started_at", "completed_at", "entries", "error"}).
			AddRow("run-2", "bbbb-2222", "failed", started, &completed, int64(0), strPtr("validate city: required")).
			AddRow("run-1", "aaaa-1111", "complete", started, &completed, int64(4821), (*string)(nil)))

	entries, err := sl.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "failed", entries[0].Status)
	assert.Equal(t, "validate city: required", entries[0].Error)
	assert.Equal(t, int64(4821), entries[1].Entries)
	assert.Empty(t, entries[1].Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func strPtr(s string) *string { return &s }

package db

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return mock
}

func TestWithTx_Commit(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE imm.datasets").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := WithTx(context.Background(), mock, func(q Queryer) error {
		_, err := q.Exec(context.Background(), "UPDATE imm.datasets SET sourced = true")
		return err
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollbackOnError(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("entry rejected")
	err := WithTx(context.Background(), mock, func(q Queryer) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_BeginFailure(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	err := WithTx(context.Background(), mock, func(q Queryer) error {
		t.Fatal("fn must not run when begin fails")
		return nil
	})
	assert.Error(t, err)
}

package txmanager

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbtx "rulesync/db/tx"
)

func TestWithTransaction_NestedReusesExistingTransaction(t *testing.T) {
	tm := NewTransactionManager(nil)
	ctx := dbtx.WithTransaction(context.Background(), &sqlx.Tx{})

	called := false
	err := tm.WithTransaction(ctx, func(innerCtx context.Context) error {
		called = true
		// Inner context must carry the same transaction
		_, ok := dbtx.TransactionFromContext(innerCtx)
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestWithTransaction_NestedPropagatesError(t *testing.T) {
	tm := NewTransactionManager(nil)
	ctx := dbtx.WithTransaction(context.Background(), &sqlx.Tx{})

	wantErr := errors.New("boom")
	err := tm.WithTransaction(ctx, func(context.Context) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestCommitTransaction_NoTransactionInContext(t *testing.T) {
	tm := NewTransactionManager(nil)
	err := tm.CommitTransaction(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no transaction found in context")
}

func TestRollbackTransaction_NoTransactionInContext(t *testing.T) {
	tm := NewTransactionManager(nil)
	err := tm.RollbackTransaction(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no transaction found in context")
}

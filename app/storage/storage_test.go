package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/umnov/tg-neuromod/app/storage/engine"
)

// testStores bundles all stores over one shared database, cross-table
// operations like payments need groups and referral_links to exist.
type testStores struct {
	db        *engine.SQL
	examples  *Examples
	ledger    *Ledger
	groups    *Groups
	referrals *Referrals
}

func setupTestStores(t *testing.T) *testStores {
	t.Helper()
	ctx := context.Background()

	db, err := engine.NewSqlite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	examples, err := NewExamples(ctx, db)
	require.NoError(t, err)
	ledger, err := NewLedger(ctx, db, DefaultInitialCredits)
	require.NoError(t, err)
	groups, err := NewGroups(ctx, db)
	require.NoError(t, err)
	referrals, err := NewReferrals(ctx, db)
	require.NoError(t, err)

	return &testStores{db: db, examples: examples, ledger: ledger, groups: groups, referrals: referrals}
}

func TestNewStores_NilDB(t *testing.T) {
	ctx := context.Background()

	_, err := NewExamples(ctx, nil)
	require.Error(t, err)
	_, err = NewLedger(ctx, nil, 0)
	require.Error(t, err)
	_, err = NewGroups(ctx, nil)
	require.Error(t, err)
	_, err = NewReferrals(ctx, nil)
	require.Error(t, err)
}

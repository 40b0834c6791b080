package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferrals_Save(t *testing.T) {
	ctx := context.Background()
	st := setupTestStores(t)

	t.Run("valid referral", func(t *testing.T) {
		saved, err := st.referrals.Save(ctx, 111, 222)
		require.NoError(t, err)
		assert.True(t, saved)

		referrerID, found, err := st.referrals.Referrer(ctx, 111)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, int64(222), referrerID)
	})

	t.Run("self referral rejected", func(t *testing.T) {
		saved, err := st.referrals.Save(ctx, 333, 333)
		require.NoError(t, err)
		assert.False(t, saved)
	})

	t.Run("first write wins", func(t *testing.T) {
		saved, err := st.referrals.Save(ctx, 111, 999)
		require.NoError(t, err)
		assert.False(t, saved)

		referrerID, found, err := st.referrals.Referrer(ctx, 111)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, int64(222), referrerID, "existing edge not overwritten")
	})

	t.Run("no referrer recorded", func(t *testing.T) {
		_, found, err := st.referrals.Referrer(ctx, 555)
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestReferrals_CycleRejected(t *testing.T) {
	ctx := context.Background()
	st := setupTestStores(t)

	// 222 referred by 111, 333 referred by 222
	saved, err := st.referrals.Save(ctx, 222, 111)
	require.NoError(t, err)
	require.True(t, saved)
	saved, err = st.referrals.Save(ctx, 333, 222)
	require.NoError(t, err)
	require.True(t, saved)

	// closing the loop 111 <- 333 would make a cycle
	saved, err = st.referrals.Save(ctx, 111, 333)
	require.NoError(t, err)
	assert.False(t, saved)

	_, found, err := st.referrals.Referrer(ctx, 111)
	require.NoError(t, err)
	assert.False(t, found, "rejected edge leaves no record")

	t.Run("direct two-node cycle", func(t *testing.T) {
		saved, err := st.referrals.Save(ctx, 111, 222)
		require.NoError(t, err)
		assert.False(t, saved, "reverse of an existing edge is a cycle")
	})
}

func TestReferrals_SaveCreatesAdmins(t *testing.T) {
	ctx := context.Background()
	st := setupTestStores(t)

	saved, err := st.referrals.Save(ctx, 10, 20)
	require.NoError(t, err)
	require.True(t, saved)

	// both sides materialized with zero balance, no initial grant here
	admin, found, err := st.ledger.Get(ctx, 10)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 0, admin.Credits)

	_, found, err = st.ledger.Get(ctx, 20)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestReferrals_List(t *testing.T) {
	ctx := context.Background()
	st := setupTestStores(t)

	saved, err := st.referrals.Save(ctx, 21, 20)
	require.NoError(t, err)
	require.True(t, saved)
	saved, err = st.referrals.Save(ctx, 22, 20)
	require.NoError(t, err)
	require.True(t, saved)

	// two payments by 21 and one by 22, 10% commission each
	require.NoError(t, st.ledger.ProcessSuccessfulPayment(ctx, 21, 100, 0.10))
	require.NoError(t, st.ledger.ProcessSuccessfulPayment(ctx, 21, 50, 0.10))
	require.NoError(t, st.ledger.ProcessSuccessfulPayment(ctx, 22, 100, 0.10))

	refs, err := st.referrals.Referrals(ctx, 20)
	require.NoError(t, err)
	require.Len(t, refs, 2)

	earned := map[int64]int{}
	for _, r := range refs {
		earned[r.ReferralID] = r.EarnedStars
	}
	assert.Equal(t, 15, earned[21], "floor(100*0.1) + floor(50*0.1)")
	assert.Equal(t, 10, earned[22])

	total, err := st.ledger.TotalEarnings(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, 25, total)

	t.Run("no referrals", func(t *testing.T) {
		refs, err := st.referrals.Referrals(ctx, 12345)
		require.NoError(t, err)
		assert.Empty(t, refs)
	})
}

package bot_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/umnov/tg-neuromod/app/bot"
	"github.com/umnov/tg-neuromod/app/bot/mocks"
	"github.com/umnov/tg-neuromod/app/storage"
	"github.com/umnov/tg-neuromod/app/storage/engine"
)

type moderatorTestEnv struct {
	examples   *storage.Examples
	ledger     *storage.Ledger
	groups     *storage.Groups
	referrals  *storage.Referrals
	classifier *mocks.SpamClassifierMock
	moderator  *Moderator
}

func setupModerator(t *testing.T, params ModeratorConfig) *moderatorTestEnv {
	t.Helper()
	ctx := context.Background()

	db, err := engine.NewSqlite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	examples, err := storage.NewExamples(ctx, db)
	require.NoError(t, err)
	ledger, err := storage.NewLedger(ctx, db, storage.DefaultInitialCredits)
	require.NoError(t, err)
	groups, err := storage.NewGroups(ctx, db)
	require.NoError(t, err)
	referrals, err := storage.NewReferrals(ctx, db)
	require.NoError(t, err)

	classifier := &mocks.SpamClassifierMock{}
	return &moderatorTestEnv{
		examples:   examples,
		ledger:     ledger,
		groups:     groups,
		referrals:  referrals,
		classifier: classifier,
		moderator:  NewModerator(classifier, groups, ledger, examples, params),
	}
}

func (e *moderatorTestEnv) classifyAs(score int) {
	e.classifier.CheckFunc = func(ctx context.Context, req ClassifyRequest) (int, error) {
		return score, nil
	}
}

func TestModerator_OnMessage(t *testing.T) {
	ctx := context.Background()
	msg := Message{ID: 1, ChatID: -100, From: User{ID: 555, Username: "newcomer"}, Text: "hello there"}

	t.Run("moderation disabled", func(t *testing.T) {
		env := setupModerator(t, ModeratorConfig{CheckPrice: 1})
		require.NoError(t, env.groups.UpdateAdmins(ctx, -100, "grp", []int64{1}, 100))
		require.NoError(t, env.groups.SetModeration(ctx, -100, false))

		verdict, err := env.moderator.OnMessage(ctx, msg)
		require.NoError(t, err)
		assert.False(t, verdict.Checked)
		assert.Empty(t, env.classifier.CheckCalls(), "no classification for disabled groups")
	})

	t.Run("approved member passes free", func(t *testing.T) {
		env := setupModerator(t, ModeratorConfig{CheckPrice: 1})
		require.NoError(t, env.groups.UpdateAdmins(ctx, -100, "grp", []int64{1}, 100))
		require.NoError(t, env.groups.ApproveMember(ctx, -100, 555))

		verdict, err := env.moderator.OnMessage(ctx, msg)
		require.NoError(t, err)
		assert.False(t, verdict.Checked)
		assert.Empty(t, env.classifier.CheckCalls())

		credits, err := env.ledger.Credits(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 100, credits, "no charge for approved members")
	})

	t.Run("ham approves the sender and charges the richest admin", func(t *testing.T) {
		env := setupModerator(t, ModeratorConfig{CheckPrice: 1})
		require.NoError(t, env.groups.UpdateAdmins(ctx, -100, "grp", []int64{1, 2}, 100))
		require.NoError(t, env.ledger.AddCredits(ctx, 2, 50, storage.TxPayment, "topup"))
		env.classifyAs(-80)

		verdict, err := env.moderator.OnMessage(ctx, msg)
		require.NoError(t, err)
		assert.True(t, verdict.Checked)
		assert.False(t, verdict.Spam)
		assert.True(t, verdict.Approved)
		assert.Equal(t, -80, verdict.Score)
		assert.Equal(t, int64(2), verdict.ChargedTo)

		approved, err := env.groups.IsApprovedMember(ctx, -100, 555)
		require.NoError(t, err)
		assert.True(t, approved)

		credits, err := env.ledger.Credits(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, 149, credits)

		// classifier got the payer's examples scope and the sender details
		require.Len(t, env.classifier.CheckCalls(), 1)
		req := env.classifier.CheckCalls()[0].Req
		assert.Equal(t, int64(2), req.AdminID)
		assert.Equal(t, "newcomer", req.Name)
	})

	t.Run("spam auto-deleted when all admins opted in", func(t *testing.T) {
		env := setupModerator(t, ModeratorConfig{CheckPrice: 1})
		require.NoError(t, env.groups.UpdateAdmins(ctx, -100, "grp", []int64{1, 2}, 100))
		env.classifyAs(95)

		verdict, err := env.moderator.OnMessage(ctx, msg)
		require.NoError(t, err)
		assert.True(t, verdict.Spam)
		assert.True(t, verdict.Delete)
		assert.True(t, verdict.Ban)
		assert.ElementsMatch(t, []int64{1, 2}, verdict.NotifyAdmins)
	})

	t.Run("spam only notifies when an admin opted out", func(t *testing.T) {
		env := setupModerator(t, ModeratorConfig{CheckPrice: 1})
		require.NoError(t, env.groups.UpdateAdmins(ctx, -100, "grp", []int64{1, 2}, 100))
		_, err := env.ledger.InitializeNewAdmin(ctx, 2)
		require.NoError(t, err)
		_, err = env.ledger.ToggleSpamDeletion(ctx, 2) // admin 2 opts out
		require.NoError(t, err)
		env.classifyAs(95)

		verdict, err := env.moderator.OnMessage(ctx, msg)
		require.NoError(t, err)
		assert.True(t, verdict.Spam)
		assert.False(t, verdict.Delete)
		assert.False(t, verdict.Ban)
		assert.ElementsMatch(t, []int64{1, 2}, verdict.NotifyAdmins)
	})

	t.Run("score at the threshold is not spam", func(t *testing.T) {
		env := setupModerator(t, ModeratorConfig{CheckPrice: 1, SpamThreshold: 50})
		require.NoError(t, env.groups.UpdateAdmins(ctx, -100, "grp", []int64{1}, 100))
		env.classifyAs(50)

		verdict, err := env.moderator.OnMessage(ctx, msg)
		require.NoError(t, err)
		assert.False(t, verdict.Spam)
		assert.True(t, verdict.Approved)
	})

	t.Run("charge failure lapses the group", func(t *testing.T) {
		env := setupModerator(t, ModeratorConfig{CheckPrice: 1})
		require.NoError(t, env.groups.UpdateAdmins(ctx, -100, "grp", []int64{1, 2}, 0)) // broke admins

		verdict, err := env.moderator.OnMessage(ctx, msg)
		require.NoError(t, err)
		assert.True(t, verdict.Lapsed)
		assert.False(t, verdict.Checked)
		assert.ElementsMatch(t, []int64{1, 2}, verdict.NotifyAdmins)
		assert.Empty(t, env.classifier.CheckCalls(), "no classification without payment")

		enabled, err := env.groups.ModerationEnabled(ctx, -100)
		require.NoError(t, err)
		assert.False(t, enabled)
	})

	t.Run("free checks don't lapse", func(t *testing.T) {
		env := setupModerator(t, ModeratorConfig{CheckPrice: 0})
		require.NoError(t, env.groups.UpdateAdmins(ctx, -100, "grp", []int64{1}, 0))
		env.classifyAs(-10)

		verdict, err := env.moderator.OnMessage(ctx, msg)
		require.NoError(t, err)
		assert.False(t, verdict.Lapsed)
		assert.True(t, verdict.Checked)
	})

	t.Run("classifier unavailable passes unchecked", func(t *testing.T) {
		env := setupModerator(t, ModeratorConfig{CheckPrice: 1})
		require.NoError(t, env.groups.UpdateAdmins(ctx, -100, "grp", []int64{1}, 100))
		env.classifier.CheckFunc = func(ctx context.Context, req ClassifyRequest) (int, error) {
			return 0, ErrClassifierUnavailable
		}

		verdict, err := env.moderator.OnMessage(ctx, msg)
		require.NoError(t, err, "classifier failure is not an error for the caller")
		assert.False(t, verdict.Checked)
		assert.False(t, verdict.Spam)

		approved, err := env.groups.IsApprovedMember(ctx, -100, 555)
		require.NoError(t, err)
		assert.False(t, approved, "unchecked sender is not approved")
	})
}

func TestModerator_ManualActions(t *testing.T) {
	ctx := context.Background()
	msg := Message{ID: 7, ChatID: -100, From: User{ID: 555, DisplayName: "Some Spammer", Bio: "promo"}, Text: "spam text"}

	t.Run("confirm spam without autolabel", func(t *testing.T) {
		env := setupModerator(t, ModeratorConfig{})
		require.NoError(t, env.groups.ApproveMember(ctx, -100, 555))

		err := env.moderator.ConfirmSpam(ctx, 42, msg)
		require.NoError(t, err)

		examples, err := env.examples.Read(ctx, 42)
		require.NoError(t, err)
		assert.Empty(t, examples, "no labeling unless opted in")

		approved, err := env.groups.IsApprovedMember(ctx, -100, 555)
		require.NoError(t, err)
		assert.False(t, approved)
	})

	t.Run("confirm spam with autolabel", func(t *testing.T) {
		env := setupModerator(t, ModeratorConfig{AutoLabel: true})

		err := env.moderator.ConfirmSpam(ctx, 42, msg)
		require.NoError(t, err)

		examples, err := env.examples.Read(ctx, 42)
		require.NoError(t, err)
		require.Len(t, examples, 1)
		assert.Equal(t, "spam text", examples[0].Text)
		assert.Equal(t, 100, examples[0].Score)
		assert.Equal(t, "Some Spammer", examples[0].Name)
	})

	t.Run("not spam labels ham and approves", func(t *testing.T) {
		env := setupModerator(t, ModeratorConfig{})

		err := env.moderator.NotSpam(ctx, 42, msg)
		require.NoError(t, err)

		examples, err := env.examples.Read(ctx, 42)
		require.NoError(t, err)
		require.Len(t, examples, 1)
		assert.Equal(t, -100, examples[0].Score)
		assert.Equal(t, "promo", examples[0].Bio)

		approved, err := env.groups.IsApprovedMember(ctx, -100, 555)
		require.NoError(t, err)
		assert.True(t, approved)
	})
}

func TestModerator_ProcessPayment(t *testing.T) {
	ctx := context.Background()
	env := setupModerator(t, ModeratorConfig{CheckPrice: 1})

	// lapsed group with a referred admin
	require.NoError(t, env.groups.UpdateAdmins(ctx, -100, "grp", []int64{9}, 0))
	require.NoError(t, env.groups.SetModeration(ctx, -100, false))
	saved, err := env.referrals.Save(ctx, 9, 8)
	require.NoError(t, err)
	require.True(t, saved)

	require.NoError(t, env.moderator.ProcessPayment(ctx, 9, 100))

	credits, err := env.ledger.Credits(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 100, credits)

	enabled, err := env.groups.ModerationEnabled(ctx, -100)
	require.NoError(t, err)
	assert.True(t, enabled, "payment reactivates the payer's groups")

	commission, err := env.ledger.TotalEarnings(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, 10, commission, "referrer got the default 10% cut")
}

func TestModerator_Deactivate(t *testing.T) {
	ctx := context.Background()
	env := setupModerator(t, ModeratorConfig{})
	require.NoError(t, env.groups.UpdateAdmins(ctx, -100, "grp", []int64{1, 2}, 100))

	admins, err := env.moderator.Deactivate(ctx, -100)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, admins)

	enabled, err := env.groups.ModerationEnabled(ctx, -100)
	require.NoError(t, err)
	assert.False(t, enabled)
}

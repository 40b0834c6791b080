package events

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tbapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umnov/tg-neuromod/app/bot"
	"github.com/umnov/tg-neuromod/app/events/mocks"
	"github.com/umnov/tg-neuromod/app/storage"
)

type listenerTestEnv struct {
	tbAPI     *mocks.TbAPIMock
	moderator *mocks.ModeratorMock
	groups    *mocks.GroupsServiceMock
	referrals *mocks.ReferralsServiceMock
	ledger    *mocks.LedgerServiceMock
	listener  *TelegramListener
	updates   chan tbapi.Update
}

func setupListener(t *testing.T) *listenerTestEnv {
	t.Helper()

	updates := make(chan tbapi.Update, 10)
	env := &listenerTestEnv{
		updates: updates,
		tbAPI: &mocks.TbAPIMock{
			GetUpdatesChanFunc: func(config tbapi.UpdateConfig) tbapi.UpdatesChannel {
				return updates
			},
			SendFunc: func(c tbapi.Chattable) (tbapi.Message, error) {
				return tbapi.Message{}, nil
			},
			RequestFunc: func(c tbapi.Chattable) (*tbapi.APIResponse, error) {
				return &tbapi.APIResponse{Ok: true}, nil
			},
			GetChatFunc: func(config tbapi.ChatInfoConfig) (tbapi.Chat, error) {
				return tbapi.Chat{Bio: "some bio"}, nil
			},
			GetChatAdministratorsFunc: func(config tbapi.ChatAdministratorsConfig) ([]tbapi.ChatMember, error) {
				return []tbapi.ChatMember{
					{User: &tbapi.User{ID: 1, UserName: "admin1"}},
					{User: &tbapi.User{ID: 2, UserName: "admin2"}},
					{User: &tbapi.User{ID: 99, UserName: "some_bot", IsBot: true}},
				}, nil
			},
		},
		moderator: &mocks.ModeratorMock{
			OnMessageFunc: func(ctx context.Context, msg bot.Message) (bot.Verdict, error) {
				return bot.Verdict{Checked: true}, nil
			},
		},
		groups: &mocks.GroupsServiceMock{
			UpdateAdminsFunc: func(ctx context.Context, groupID int64, title string, adminIDs []int64, initialCredits int) error {
				return nil
			},
			SetModerationFunc: func(ctx context.Context, groupID int64, enabled bool) error {
				return nil
			},
			AdminGroupsFunc: func(ctx context.Context, adminID int64) ([]storage.GroupInfo, error) {
				return []storage.GroupInfo{{GroupID: -100, Title: "test group", ModerationEnabled: true}}, nil
			},
			PayingAdminsFunc: func(ctx context.Context, groupID int64) ([]int64, error) {
				return []int64{1, 2}, nil
			},
		},
		referrals: &mocks.ReferralsServiceMock{
			SaveFunc: func(ctx context.Context, referralID, referrerID int64) (bool, error) {
				return true, nil
			},
			ReferralsFunc: func(ctx context.Context, referrerID int64) ([]storage.ReferralInfo, error) {
				return nil, nil
			},
		},
		ledger: &mocks.LedgerServiceMock{
			InitializeNewAdminFunc: func(ctx context.Context, adminID int64) (bool, error) {
				return true, nil
			},
			CreditsFunc: func(ctx context.Context, adminID int64) (int, error) {
				return 100, nil
			},
			SpentLastWeekFunc: func(ctx context.Context, adminID int64) (int, error) {
				return 30, nil
			},
			TotalEarningsFunc: func(ctx context.Context, adminID int64) (int, error) {
				return 20, nil
			},
			ToggleSpamDeletionFunc: func(ctx context.Context, adminID int64) (bool, error) {
				return true, nil
			},
			SpamDeletionEnabledFunc: func(ctx context.Context, adminID int64) (bool, error) {
				return false, nil
			},
		},
	}
	env.listener = &TelegramListener{
		TbAPI:          env.tbAPI,
		Moderator:      env.moderator,
		Groups:         env.groups,
		Referrals:      env.referrals,
		Ledger:         env.ledger,
		InitialCredits: 100,
		CommissionPct:  10,
		BotUserName:    "neuromod_bot",
	}
	return env
}

// run feeds the updates to the listener and waits for the loop to drain them
func (e *listenerTestEnv) run(t *testing.T, updates ...tbapi.Update) {
	t.Helper()
	for _, u := range updates {
		e.updates <- u
	}
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	err := e.listener.Do(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func groupMsg(msgID int, text string) tbapi.Update {
	return tbapi.Update{Message: &tbapi.Message{
		MessageID: msgID,
		Text:      text,
		Chat:      &tbapi.Chat{ID: -100, Type: "supergroup", Title: "test group"},
		From:      &tbapi.User{ID: 555, UserName: "sender", FirstName: "New", LastName: "Comer"},
	}}
}

func TestTelegramListener_GroupMessage(t *testing.T) {
	t.Run("clean message produces no actions", func(t *testing.T) {
		env := setupListener(t)
		env.run(t, groupMsg(1, "hello all"))

		require.Len(t, env.moderator.OnMessageCalls(), 1)
		msg := env.moderator.OnMessageCalls()[0].Msg
		assert.Equal(t, "hello all", msg.Text)
		assert.Equal(t, int64(-100), msg.ChatID)
		assert.Equal(t, "New Comer", msg.From.DisplayName)
		assert.Equal(t, "some bio", msg.From.Bio, "bio fetched from the api")

		assert.Empty(t, env.tbAPI.RequestCalls(), "nothing deleted or banned")
		assert.Empty(t, env.tbAPI.SendCalls(), "nobody notified")
	})

	t.Run("admins synced with bots filtered out", func(t *testing.T) {
		env := setupListener(t)
		env.run(t, groupMsg(1, "hello"))

		require.Len(t, env.groups.UpdateAdminsCalls(), 1)
		call := env.groups.UpdateAdminsCalls()[0]
		assert.Equal(t, int64(-100), call.GroupID)
		assert.Equal(t, "test group", call.Title)
		assert.Equal(t, []int64{1, 2}, call.AdminIDs)
		assert.Equal(t, 100, call.InitialCredits)
	})

	t.Run("admins sync throttled by cache", func(t *testing.T) {
		env := setupListener(t)
		env.run(t, groupMsg(1, "first"), groupMsg(2, "second"))

		assert.Len(t, env.tbAPI.GetChatAdministratorsCalls(), 1, "second message hits the cache")
		assert.Len(t, env.moderator.OnMessageCalls(), 2)
	})

	t.Run("spam deleted, banned and reported", func(t *testing.T) {
		env := setupListener(t)
		env.moderator.OnMessageFunc = func(ctx context.Context, msg bot.Message) (bot.Verdict, error) {
			return bot.Verdict{Checked: true, Spam: true, Score: 95, Delete: true, Ban: true,
				NotifyAdmins: []int64{1, 2}}, nil
		}
		env.run(t, groupMsg(7, "buy crypto now"))

		// delete and ban requests
		require.Len(t, env.tbAPI.RequestCalls(), 2)
		del, ok := env.tbAPI.RequestCalls()[0].C.(tbapi.DeleteMessageConfig)
		require.True(t, ok)
		assert.Equal(t, int64(-100), del.ChatID)
		assert.Equal(t, 7, del.MessageID)
		ban, ok := env.tbAPI.RequestCalls()[1].C.(tbapi.BanChatMemberConfig)
		require.True(t, ok)
		assert.Equal(t, int64(555), ban.UserID)

		// both admins notified
		require.Len(t, env.tbAPI.SendCalls(), 2)
		notification, ok := env.tbAPI.SendCalls()[0].C.(tbapi.MessageConfig)
		require.True(t, ok)
		assert.Equal(t, int64(1), notification.ChatID)
		assert.Contains(t, notification.Text, "buy crypto now")
		assert.Contains(t, notification.Text, "уничтожено")
	})

	t.Run("spam without delete keeps the action buttons", func(t *testing.T) {
		env := setupListener(t)
		env.moderator.OnMessageFunc = func(ctx context.Context, msg bot.Message) (bot.Verdict, error) {
			return bot.Verdict{Checked: true, Spam: true, Score: 95, NotifyAdmins: []int64{1}}, nil
		}
		env.run(t, groupMsg(7, "suspicious"))

		assert.Empty(t, env.tbAPI.RequestCalls(), "no delete without consensus")
		require.Len(t, env.tbAPI.SendCalls(), 1)
		notification, ok := env.tbAPI.SendCalls()[0].C.(tbapi.MessageConfig)
		require.True(t, ok)
		keyboard, ok := notification.ReplyMarkup.(tbapi.InlineKeyboardMarkup)
		require.True(t, ok, "manual path has inline buttons")
		require.Len(t, keyboard.InlineKeyboard, 1)
		require.Len(t, keyboard.InlineKeyboard[0], 2)
		assert.Equal(t, "spam+:-100:7", *keyboard.InlineKeyboard[0][0].CallbackData)
		assert.Equal(t, "spam-:-100:7", *keyboard.InlineKeyboard[0][1].CallbackData)
	})

	t.Run("dry mode never deletes", func(t *testing.T) {
		env := setupListener(t)
		env.listener.Dry = true
		env.moderator.OnMessageFunc = func(ctx context.Context, msg bot.Message) (bot.Verdict, error) {
			return bot.Verdict{Checked: true, Spam: true, Delete: true, Ban: true, NotifyAdmins: []int64{1}}, nil
		}
		env.run(t, groupMsg(7, "spam"))

		assert.Empty(t, env.tbAPI.RequestCalls())
		assert.Len(t, env.tbAPI.SendCalls(), 1, "admins still notified")
	})

	t.Run("lapsed group notifies admins", func(t *testing.T) {
		env := setupListener(t)
		env.moderator.OnMessageFunc = func(ctx context.Context, msg bot.Message) (bot.Verdict, error) {
			return bot.Verdict{Lapsed: true, NotifyAdmins: []int64{1, 2}}, nil
		}
		env.run(t, groupMsg(1, "hello"))

		require.Len(t, env.tbAPI.SendCalls(), 2)
		notification, ok := env.tbAPI.SendCalls()[0].C.(tbapi.MessageConfig)
		require.True(t, ok)
		assert.Contains(t, notification.Text, "/buy")
	})

	t.Run("bots and empty messages ignored", func(t *testing.T) {
		env := setupListener(t)
		botMsg := groupMsg(1, "from a bot")
		botMsg.Message.From.IsBot = true
		empty := groupMsg(2, "   ")
		env.run(t, botMsg, empty)

		assert.Empty(t, env.moderator.OnMessageCalls())
	})
}

func TestTelegramListener_Callbacks(t *testing.T) {
	callback := func(data string) tbapi.Update {
		return tbapi.Update{CallbackQuery: &tbapi.CallbackQuery{
			ID:   "cb-1",
			Data: data,
			From: &tbapi.User{ID: 1, UserName: "admin1"},
		}}
	}
	pendingSpam := func(env *listenerTestEnv) tbapi.Update {
		env.moderator.OnMessageFunc = func(ctx context.Context, msg bot.Message) (bot.Verdict, error) {
			return bot.Verdict{Checked: true, Spam: true, Score: 95, NotifyAdmins: []int64{1}}, nil
		}
		return groupMsg(7, "suspicious")
	}

	t.Run("confirm spam deletes and bans", func(t *testing.T) {
		env := setupListener(t)
		env.moderator.ConfirmSpamFunc = func(ctx context.Context, adminID int64, msg bot.Message) error { return nil }
		env.run(t, pendingSpam(env), callback("spam+:-100:7"))

		require.Len(t, env.moderator.ConfirmSpamCalls(), 1)
		assert.Equal(t, int64(1), env.moderator.ConfirmSpamCalls()[0].AdminID)
		assert.Equal(t, "suspicious", env.moderator.ConfirmSpamCalls()[0].Msg.Text)

		// delete, ban and the callback answer
		require.Len(t, env.tbAPI.RequestCalls(), 3)
		_, isDelete := env.tbAPI.RequestCalls()[0].C.(tbapi.DeleteMessageConfig)
		assert.True(t, isDelete)
		_, isBan := env.tbAPI.RequestCalls()[1].C.(tbapi.BanChatMemberConfig)
		assert.True(t, isBan)
	})

	t.Run("not spam labels ham", func(t *testing.T) {
		env := setupListener(t)
		env.moderator.NotSpamFunc = func(ctx context.Context, adminID int64, msg bot.Message) error { return nil }
		env.run(t, pendingSpam(env), callback("spam-:-100:7"))

		require.Len(t, env.moderator.NotSpamCalls(), 1)
		assert.Equal(t, "suspicious", env.moderator.NotSpamCalls()[0].Msg.Text)
		require.Len(t, env.tbAPI.RequestCalls(), 1, "only the callback answer")
	})

	t.Run("unknown message answered as expired", func(t *testing.T) {
		env := setupListener(t)
		env.run(t, callback("spam+:-100:12345"))

		assert.Empty(t, env.moderator.ConfirmSpamCalls())
		require.Len(t, env.tbAPI.RequestCalls(), 1)
		answer, ok := env.tbAPI.RequestCalls()[0].C.(tbapi.CallbackConfig)
		require.True(t, ok)
		assert.Contains(t, answer.Text, "устарело")
	})
}

func TestTelegramListener_Start(t *testing.T) {
	startMsg := func(payload string) tbapi.Update {
		text := "/start"
		entityLen := len(text)
		if payload != "" {
			text += " " + payload
		}
		return tbapi.Update{Message: &tbapi.Message{
			MessageID: 1,
			Text:      text,
			Chat:      &tbapi.Chat{ID: 10, Type: "private"},
			From:      &tbapi.User{ID: 10, UserName: "newadmin"},
			Entities:  []tbapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: entityLen}},
		}}
	}

	t.Run("plain start initializes the admin", func(t *testing.T) {
		env := setupListener(t)
		env.run(t, startMsg(""))

		require.Len(t, env.ledger.InitializeNewAdminCalls(), 1)
		assert.Equal(t, int64(10), env.ledger.InitializeNewAdminCalls()[0].AdminID)
		assert.Empty(t, env.referrals.SaveCalls())

		require.Len(t, env.tbAPI.SendCalls(), 1)
		welcome, ok := env.tbAPI.SendCalls()[0].C.(tbapi.MessageConfig)
		require.True(t, ok)
		assert.Contains(t, welcome.Text, "100")
	})

	t.Run("referral payload recorded", func(t *testing.T) {
		env := setupListener(t)
		env.run(t, startMsg("ref42"))

		require.Len(t, env.referrals.SaveCalls(), 1)
		assert.Equal(t, int64(10), env.referrals.SaveCalls()[0].ReferralID)
		assert.Equal(t, int64(42), env.referrals.SaveCalls()[0].ReferrerID)
	})

	t.Run("payload without the ref prefix ignored", func(t *testing.T) {
		env := setupListener(t)
		env.run(t, startMsg("42"))

		assert.Empty(t, env.referrals.SaveCalls())
		assert.Len(t, env.ledger.InitializeNewAdminCalls(), 1)
	})

	t.Run("garbage payload ignored", func(t *testing.T) {
		env := setupListener(t)
		env.run(t, startMsg("refnot-a-number"))

		assert.Empty(t, env.referrals.SaveCalls())
		assert.Len(t, env.ledger.InitializeNewAdminCalls(), 1)
	})
}

func privateCmd(text string) tbapi.Update {
	cmdLen := len(text)
	if i := strings.Index(text, " "); i > 0 {
		cmdLen = i
	}
	return tbapi.Update{Message: &tbapi.Message{
		MessageID: 1,
		Text:      text,
		Chat:      &tbapi.Chat{ID: 10, Type: "private"},
		From:      &tbapi.User{ID: 10, UserName: "admin1"},
		Entities:  []tbapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}}
}

func TestTelegramListener_PrivateCommands(t *testing.T) {
	t.Run("buy shows the package menu", func(t *testing.T) {
		env := setupListener(t)
		env.run(t, privateCmd("/buy"))

		require.Len(t, env.tbAPI.SendCalls(), 1)
		menu, ok := env.tbAPI.SendCalls()[0].C.(tbapi.MessageConfig)
		require.True(t, ok)
		assert.Contains(t, menu.Text, "5000")

		keyboard, ok := menu.ReplyMarkup.(tbapi.InlineKeyboardMarkup)
		require.True(t, ok)
		require.Len(t, keyboard.InlineKeyboard, 2)
		assert.Equal(t, "buy_stars:100", *keyboard.InlineKeyboard[0][0].CallbackData)
		assert.Equal(t, "buy_stars:500", *keyboard.InlineKeyboard[0][1].CallbackData)
		assert.Equal(t, "buy_stars:1000", *keyboard.InlineKeyboard[1][0].CallbackData)
		assert.Equal(t, "buy_stars:5000", *keyboard.InlineKeyboard[1][1].CallbackData)
	})

	t.Run("buy callback sends the stars invoice", func(t *testing.T) {
		env := setupListener(t)
		env.run(t, tbapi.Update{CallbackQuery: &tbapi.CallbackQuery{
			ID:      "cb-1",
			Data:    "buy_stars:500",
			From:    &tbapi.User{ID: 10, UserName: "admin1"},
			Message: &tbapi.Message{MessageID: 2, Chat: &tbapi.Chat{ID: 10, Type: "private"}},
		}})

		require.Len(t, env.tbAPI.RequestCalls(), 1, "callback answered")
		require.Len(t, env.tbAPI.SendCalls(), 1)
		invoice, ok := env.tbAPI.SendCalls()[0].C.(tbapi.InvoiceConfig)
		require.True(t, ok)
		assert.Equal(t, int64(10), invoice.ChatID)
		assert.Equal(t, "XTR", invoice.Currency)
		assert.Empty(t, invoice.ProviderToken, "stars payments take no provider token")
		assert.Equal(t, "stars-purchase:500", invoice.Payload)
		require.Len(t, invoice.Prices, 1)
		assert.Equal(t, 500, invoice.Prices[0].Amount)
	})

	t.Run("buy callback with bad amount rejected", func(t *testing.T) {
		env := setupListener(t)
		env.run(t, tbapi.Update{CallbackQuery: &tbapi.CallbackQuery{
			ID:      "cb-1",
			Data:    "buy_stars:zillion",
			From:    &tbapi.User{ID: 10},
			Message: &tbapi.Message{MessageID: 2, Chat: &tbapi.Chat{ID: 10, Type: "private"}},
		}})

		assert.Empty(t, env.tbAPI.SendCalls(), "no invoice")
	})

	t.Run("stats reports balance, groups and mode", func(t *testing.T) {
		env := setupListener(t)
		env.run(t, privateCmd("/stats"))

		require.Len(t, env.tbAPI.SendCalls(), 1)
		stats, ok := env.tbAPI.SendCalls()[0].C.(tbapi.MessageConfig)
		require.True(t, ok)
		assert.Contains(t, stats.Text, "Баланс: 100")
		assert.Contains(t, stats.Text, "7 дней: 30")
		assert.Contains(t, stats.Text, "test group")
		assert.Contains(t, stats.Text, "✅ включена")
		assert.Contains(t, stats.Text, "Режим уведомлений")
	})

	t.Run("stats without groups", func(t *testing.T) {
		env := setupListener(t)
		env.groups.AdminGroupsFunc = func(ctx context.Context, adminID int64) ([]storage.GroupInfo, error) {
			return nil, nil
		}
		env.run(t, privateCmd("/stats"))

		require.Len(t, env.tbAPI.SendCalls(), 1)
		stats := env.tbAPI.SendCalls()[0].C.(tbapi.MessageConfig)
		assert.Contains(t, stats.Text, "нет групп")
	})

	t.Run("mode toggles deletion", func(t *testing.T) {
		env := setupListener(t)
		env.run(t, privateCmd("/mode"))

		require.Len(t, env.ledger.ToggleSpamDeletionCalls(), 1)
		assert.Equal(t, int64(10), env.ledger.ToggleSpamDeletionCalls()[0].AdminID)

		require.Len(t, env.tbAPI.SendCalls(), 1)
		reply := env.tbAPI.SendCalls()[0].C.(tbapi.MessageConfig)
		assert.Contains(t, reply.Text, "режим удаления")
	})

	t.Run("mode reports notifications when toggled off", func(t *testing.T) {
		env := setupListener(t)
		env.ledger.ToggleSpamDeletionFunc = func(ctx context.Context, adminID int64) (bool, error) {
			return false, nil
		}
		env.run(t, privateCmd("/mode"))

		require.Len(t, env.tbAPI.SendCalls(), 1)
		reply := env.tbAPI.SendCalls()[0].C.(tbapi.MessageConfig)
		assert.Contains(t, reply.Text, "режим уведомлений")
	})

	t.Run("ref replies with the deep link", func(t *testing.T) {
		env := setupListener(t)
		env.run(t, privateCmd("/ref"))

		require.Len(t, env.tbAPI.SendCalls(), 1)
		reply := env.tbAPI.SendCalls()[0].C.(tbapi.MessageConfig)
		assert.Contains(t, reply.Text, "https://t.me/neuromod_bot?start=ref10")
		assert.Contains(t, reply.Text, "10%")
	})

	t.Run("refs lists referrals with earnings", func(t *testing.T) {
		env := setupListener(t)
		env.referrals.ReferralsFunc = func(ctx context.Context, referrerID int64) ([]storage.ReferralInfo, error) {
			return []storage.ReferralInfo{
				{ReferralID: 42, JoinedAt: time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), EarnedStars: 20},
				{ReferralID: 43, JoinedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), EarnedStars: 0},
			}, nil
		}
		env.run(t, privateCmd("/refs"))

		require.Len(t, env.referrals.ReferralsCalls(), 1)
		require.Len(t, env.ledger.TotalEarningsCalls(), 1)

		require.Len(t, env.tbAPI.SendCalls(), 1)
		reply := env.tbAPI.SendCalls()[0].C.(tbapi.MessageConfig)
		assert.Contains(t, reply.Text, "рефералы: 2")
		assert.Contains(t, reply.Text, "пользователь 42: 20 ⭐, с 15.02.2026")
		assert.Contains(t, reply.Text, "Всего заработано: 20")
	})

	t.Run("refs without referrals suggests the link", func(t *testing.T) {
		env := setupListener(t)
		env.run(t, privateCmd("/refs"))

		assert.Empty(t, env.ledger.TotalEarningsCalls())
		require.Len(t, env.tbAPI.SendCalls(), 1)
		reply := env.tbAPI.SendCalls()[0].C.(tbapi.MessageConfig)
		assert.Contains(t, reply.Text, "/ref")
	})

	t.Run("non-command private messages ignored", func(t *testing.T) {
		env := setupListener(t)
		env.run(t, tbapi.Update{Message: &tbapi.Message{
			MessageID: 1,
			Text:      "just chatting",
			Chat:      &tbapi.Chat{ID: 10, Type: "private"},
			From:      &tbapi.User{ID: 10},
		}})

		assert.Empty(t, env.tbAPI.SendCalls())
		assert.Empty(t, env.moderator.OnMessageCalls())
	})
}

func TestTelegramListener_Payments(t *testing.T) {
	t.Run("pre-checkout confirmed", func(t *testing.T) {
		env := setupListener(t)
		env.run(t, tbapi.Update{PreCheckoutQuery: &tbapi.PreCheckoutQuery{ID: "q-1", TotalAmount: 500}})

		require.Len(t, env.tbAPI.RequestCalls(), 1)
		answer, ok := env.tbAPI.RequestCalls()[0].C.(tbapi.PreCheckoutConfig)
		require.True(t, ok)
		assert.Equal(t, "q-1", answer.PreCheckoutQueryID)
		assert.True(t, answer.OK)
	})

	t.Run("successful payment processed and confirmed", func(t *testing.T) {
		env := setupListener(t)
		env.moderator.ProcessPaymentFunc = func(ctx context.Context, adminID int64, amount int) error { return nil }
		env.run(t, tbapi.Update{Message: &tbapi.Message{
			Chat: &tbapi.Chat{ID: 10, Type: "private"},
			From: &tbapi.User{ID: 10},
			SuccessfulPayment: &tbapi.SuccessfulPayment{
				Currency: "XTR", TotalAmount: 500, TelegramPaymentChargeID: "charge-1"},
		}})

		require.Len(t, env.moderator.ProcessPaymentCalls(), 1)
		assert.Equal(t, int64(10), env.moderator.ProcessPaymentCalls()[0].AdminID)
		assert.Equal(t, 500, env.moderator.ProcessPaymentCalls()[0].Amount)

		require.Len(t, env.tbAPI.SendCalls(), 1)
		thanks, ok := env.tbAPI.SendCalls()[0].C.(tbapi.MessageConfig)
		require.True(t, ok)
		assert.Contains(t, thanks.Text, "500")
	})
}

func TestTelegramListener_BotMembership(t *testing.T) {
	membership := func(status string) tbapi.Update {
		return tbapi.Update{MyChatMember: &tbapi.ChatMemberUpdated{
			Chat:          tbapi.Chat{ID: -100, Type: "supergroup", Title: "test group"},
			NewChatMember: tbapi.ChatMember{Status: status, User: &tbapi.User{ID: 777, IsBot: true}},
		}}
	}

	t.Run("promotion enables moderation", func(t *testing.T) {
		env := setupListener(t)
		env.run(t, membership("administrator"))

		require.Len(t, env.groups.UpdateAdminsCalls(), 1)
		assert.Equal(t, []int64{1, 2}, env.groups.UpdateAdminsCalls()[0].AdminIDs)

		require.Len(t, env.groups.PayingAdminsCalls(), 1)
		assert.Equal(t, int64(-100), env.groups.PayingAdminsCalls()[0].GroupID)

		require.Len(t, env.groups.SetModerationCalls(), 1)
		assert.True(t, env.groups.SetModerationCalls()[0].Enabled)
	})

	t.Run("promotion without paying admins keeps moderation off", func(t *testing.T) {
		env := setupListener(t)
		env.groups.PayingAdminsFunc = func(ctx context.Context, groupID int64) ([]int64, error) {
			return nil, nil
		}
		env.run(t, membership("administrator"))

		require.Len(t, env.groups.UpdateAdminsCalls(), 1, "admins still synced")
		assert.Empty(t, env.groups.SetModerationCalls(), "no moderation without credits")
	})

	t.Run("kick deactivates and notifies", func(t *testing.T) {
		env := setupListener(t)
		env.moderator.DeactivateFunc = func(ctx context.Context, groupID int64) ([]int64, error) {
			return []int64{1, 2}, nil
		}
		env.run(t, membership("kicked"))

		require.Len(t, env.moderator.DeactivateCalls(), 1)
		assert.Equal(t, int64(-100), env.moderator.DeactivateCalls()[0].GroupID)
		assert.Len(t, env.tbAPI.SendCalls(), 2)
	})
}

func TestSend(t *testing.T) {
	t.Run("markdown first", func(t *testing.T) {
		tbAPI := &mocks.TbAPIMock{SendFunc: func(c tbapi.Chattable) (tbapi.Message, error) {
			return tbapi.Message{}, nil
		}}
		err := send(tbapi.NewMessage(1, "*bold*"), tbAPI)
		require.NoError(t, err)
		require.Len(t, tbAPI.SendCalls(), 1)
		msg := tbAPI.SendCalls()[0].C.(tbapi.MessageConfig)
		assert.Equal(t, tbapi.ModeMarkdown, msg.ParseMode)
		assert.True(t, msg.DisableWebPagePreview)
	})

	t.Run("fallback to plain text", func(t *testing.T) {
		tbAPI := &mocks.TbAPIMock{SendFunc: func(c tbapi.Chattable) (tbapi.Message, error) {
			msg := c.(tbapi.MessageConfig)
			if msg.ParseMode == tbapi.ModeMarkdown {
				return tbapi.Message{}, fmt.Errorf("can't parse entities")
			}
			return tbapi.Message{}, nil
		}}
		err := send(tbapi.NewMessage(1, "broken [markdown"), tbAPI)
		require.NoError(t, err)
		require.Len(t, tbAPI.SendCalls(), 2)
		assert.Equal(t, "", tbAPI.SendCalls()[1].C.(tbapi.MessageConfig).ParseMode)
	})

	t.Run("both failed", func(t *testing.T) {
		tbAPI := &mocks.TbAPIMock{SendFunc: func(c tbapi.Chattable) (tbapi.Message, error) {
			return tbapi.Message{}, fmt.Errorf("telegram is down")
		}}
		err := send(tbapi.NewMessage(1, "hello"), tbAPI)
		assert.Error(t, err)
	})
}

func TestTransform(t *testing.T) {
	t.Run("text message", func(t *testing.T) {
		msg := transform(&tbapi.Message{
			MessageID: 3,
			Text:      "hello",
			Chat:      &tbapi.Chat{ID: -42},
			From:      &tbapi.User{ID: 1, UserName: "user", FirstName: "First", LastName: "Last"},
		})
		assert.Equal(t, 3, msg.ID)
		assert.Equal(t, int64(-42), msg.ChatID)
		assert.Equal(t, "hello", msg.Text)
		assert.Equal(t, "user", msg.From.Username)
		assert.Equal(t, "First Last", msg.From.DisplayName)
	})

	t.Run("caption appended", func(t *testing.T) {
		msg := transform(&tbapi.Message{Text: "text", Caption: "caption", Chat: &tbapi.Chat{ID: 1}})
		assert.Equal(t, "text\ncaption", msg.Text)
	})

	t.Run("caption only", func(t *testing.T) {
		msg := transform(&tbapi.Message{Caption: "caption", Chat: &tbapi.Chat{ID: 1}})
		assert.Equal(t, "caption", msg.Text)
	})
}

func TestEscapeMarkDownV1Text(t *testing.T) {
	assert.Equal(t, "a\\_b\\*c\\`d\\[e", escapeMarkDownV1Text("a_b*c`d[e"))
	assert.Equal(t, "plain", escapeMarkDownV1Text("plain"))
}

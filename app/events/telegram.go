package events

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	cache "github.com/go-pkgz/expirable-cache/v3"
	tbapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hashicorp/go-multierror"

	"github.com/umnov/tg-neuromod/app/bot"
)

// TelegramListener listens to tg updates, forwards group messages to the
// moderator and applies verdicts. Not thread safe.
type TelegramListener struct {
	TbAPI          TbAPI
	Moderator      Moderator
	Groups         GroupsService
	Referrals      ReferralsService
	Ledger         LedgerService
	InitialCredits int
	CommissionPct  int           // referrer share of payments, percents
	BotUserName    string        // bot username for referral links
	AdminsCacheTTL time.Duration // how long the chat admins list is trusted
	PendingTTL     time.Duration // how long manual spam actions stay valid
	Audit          AuditLogger   // optional audit trail of moderated messages
	Dry            bool          // do not delete or ban, only log

	adminsCache cache.Cache[int64, []int64]      // chat id -> non-bot admin ids
	pending     cache.Cache[string, bot.Message] // "chat:msg" -> original message for callbacks
}

// callback data prefixes for the admin notification and purchase buttons
const (
	cbConfirmSpam = "spam+"
	cbNotSpam     = "spam-"
	cbBuyStars    = "buy_stars"
)

// Do processes all events, blocking call
func (l *TelegramListener) Do(ctx context.Context) error {
	log.Printf("[INFO] start telegram listener")

	if l.AdminsCacheTTL == 0 {
		l.AdminsCacheTTL = 5 * time.Minute
	}
	if l.PendingTTL == 0 {
		l.PendingTTL = 24 * time.Hour
	}
	if l.CommissionPct == 0 {
		l.CommissionPct = 10
	}
	l.adminsCache = cache.NewCache[int64, []int64]().WithTTL(l.AdminsCacheTTL).WithMaxKeys(10000)
	l.pending = cache.NewCache[string, bot.Message]().WithTTL(l.PendingTTL).WithMaxKeys(10000)

	u := tbapi.NewUpdate(0)
	u.Timeout = 60

	updates := l.TbAPI.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("telegram update chan closed")
			}
			if err := l.procUpdate(ctx, update); err != nil {
				log.Printf("[WARN] failed to process update: %v", err)
			}
		}
	}
}

func (l *TelegramListener) procUpdate(ctx context.Context, update tbapi.Update) error {
	switch {
	case update.PreCheckoutQuery != nil:
		// stars payments need the pre-checkout confirmed within 10 seconds
		_, err := l.TbAPI.Request(tbapi.PreCheckoutConfig{PreCheckoutQueryID: update.PreCheckoutQuery.ID, OK: true})
		if err != nil {
			return fmt.Errorf("failed to confirm pre-checkout: %w", err)
		}
		return nil

	case update.CallbackQuery != nil:
		return l.procCallback(ctx, update.CallbackQuery)

	case update.MyChatMember != nil:
		return l.procBotMembership(ctx, update.MyChatMember)

	case update.Message == nil || update.Message.Chat == nil:
		return nil

	case update.Message.SuccessfulPayment != nil:
		return l.procPayment(ctx, update.Message)

	case update.Message.Chat.IsPrivate():
		return l.procPrivate(ctx, update.Message)

	case update.Message.Chat.IsGroup() || update.Message.Chat.IsSuperGroup():
		return l.procGroupMessage(ctx, update.Message)
	}
	return nil
}

// procGroupMessage runs a group message through the moderator and applies the verdict
func (l *TelegramListener) procGroupMessage(ctx context.Context, message *tbapi.Message) error {
	if message.From == nil || message.From.IsBot {
		return nil
	}

	msg := transform(message)
	if strings.TrimSpace(msg.Text) == "" {
		return nil
	}
	log.Printf("[DEBUG] incoming msg from %s in %d: %q", bot.DisplayName(msg.From), msg.ChatID,
		strings.ReplaceAll(msg.Text, "\n", " "))

	if err := l.syncAdmins(ctx, message.Chat.ID, message.Chat.Title); err != nil {
		log.Printf("[WARN] failed to sync admins for %d: %v", message.Chat.ID, err)
	}
	msg.From.Bio = l.userBio(msg.From.ID)

	verdict, err := l.Moderator.OnMessage(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to moderate message %d: %w", msg.ID, err)
	}
	if l.Audit != nil {
		l.Audit(msg, verdict)
	}

	switch {
	case verdict.Lapsed:
		return l.notifyLapsed(message.Chat.Title, verdict.NotifyAdmins)
	case verdict.Spam:
		return l.applySpamVerdict(msg, message.Chat, verdict)
	}
	return nil
}

// applySpamVerdict deletes and bans on the automatic path, or keeps the
// message pending and asks the admins on the manual path
func (l *TelegramListener) applySpamVerdict(msg bot.Message, chat *tbapi.Chat, verdict bot.Verdict) error {
	errs := new(multierror.Error)

	if verdict.Delete && !l.Dry {
		if _, err := l.TbAPI.Request(tbapi.NewDeleteMessage(msg.ChatID, msg.ID)); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("failed to delete message %d: %w", msg.ID, err))
		}
	}
	if verdict.Ban && !l.Dry {
		if err := banUser(l.TbAPI, msg.ChatID, msg.From.ID); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if l.Dry && (verdict.Delete || verdict.Ban) {
		log.Printf("[INFO] dry run: delete and ban for message %d in %d", msg.ID, msg.ChatID)
	}

	l.pending.Set(pendingKey(msg.ChatID, msg.ID), msg, 0)

	text := fmt.Sprintf("⚠️ ТРЕВОГА!\n\nОбнаружено вторжение в %q.\n\nНарушитель: %s\n\nСодержание угрозы:\n\n%s\n\n",
		chat.Title, escapeMarkDownV1Text(bot.DisplayName(msg.From)), escapeMarkDownV1Text(msg.Text))
	if verdict.Delete {
		text += "Вредоносное сообщение уничтожено, пользователь заблокирован."
	} else {
		text += "Выберите действие кнопками ниже."
	}

	var keyboard *tbapi.InlineKeyboardMarkup
	if !verdict.Delete {
		kb := tbapi.NewInlineKeyboardMarkup(
			tbapi.NewInlineKeyboardRow(
				tbapi.NewInlineKeyboardButtonData("🗑 Удалить", fmt.Sprintf("%s:%d:%d", cbConfirmSpam, msg.ChatID, msg.ID)),
				tbapi.NewInlineKeyboardButtonData("✅ Не спам", fmt.Sprintf("%s:%d:%d", cbNotSpam, msg.ChatID, msg.ID)),
			),
		)
		keyboard = &kb
	}

	for _, adminID := range verdict.NotifyAdmins {
		tbMsg := tbapi.NewMessage(adminID, text)
		if keyboard != nil {
			tbMsg.ReplyMarkup = *keyboard
		}
		if err := send(tbMsg, l.TbAPI); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("failed to notify admin %d: %w", adminID, err))
		}
	}
	return errs.ErrorOrNil()
}

// notifyLapsed tells every admin the group's protection is off until a topup
func (l *TelegramListener) notifyLapsed(chatTitle string, adminIDs []int64) error {
	text := fmt.Sprintf("Внимание, органическая форма жизни!\n\n"+
		"Моя защита группы %q временно приостановлена из-за истощения звездной энергии.\n\n"+
		"Пополни запас звезд командой /buy, чтобы я продолжил охранять твоё киберпространство от цифровых паразитов!",
		chatTitle)

	errs := new(multierror.Error)
	for _, adminID := range adminIDs {
		if err := send(tbapi.NewMessage(adminID, text), l.TbAPI); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("failed to notify admin %d: %w", adminID, err))
		}
	}
	return errs.ErrorOrNil()
}

// procCallback handles the manual spam actions from admin notifications and
// the stars purchase menu
func (l *TelegramListener) procCallback(ctx context.Context, query *tbapi.CallbackQuery) error {
	if amount, ok := strings.CutPrefix(query.Data, cbBuyStars+":"); ok {
		return l.procBuyCallback(query, amount)
	}

	parts := strings.Split(query.Data, ":")
	if len(parts) != 3 {
		return fmt.Errorf("unexpected callback data %q", query.Data)
	}
	chatID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return fmt.Errorf("bad chat id in callback %q: %w", query.Data, err)
	}
	msgID, err := strconv.Atoi(parts[2])
	if err != nil {
		return fmt.Errorf("bad message id in callback %q: %w", query.Data, err)
	}

	msg, found := l.pending.Get(pendingKey(chatID, msgID))
	if !found {
		_, _ = l.TbAPI.Request(tbapi.NewCallback(query.ID, "Сообщение устарело"))
		return nil
	}

	adminID := query.From.ID
	switch parts[0] {
	case cbConfirmSpam:
		if err := l.Moderator.ConfirmSpam(ctx, adminID, msg); err != nil {
			return fmt.Errorf("failed to confirm spam: %w", err)
		}
		if !l.Dry {
			if _, err := l.TbAPI.Request(tbapi.NewDeleteMessage(chatID, msgID)); err != nil {
				log.Printf("[WARN] failed to delete confirmed spam %d in %d: %v", msgID, chatID, err)
			}
			if err := banUser(l.TbAPI, chatID, msg.From.ID); err != nil {
				log.Printf("[WARN] %v", err)
			}
		}
		_, _ = l.TbAPI.Request(tbapi.NewCallback(query.ID, "✅ Принято"))

	case cbNotSpam:
		if err := l.Moderator.NotSpam(ctx, adminID, msg); err != nil {
			return fmt.Errorf("failed to mark as ham: %w", err)
		}
		_, _ = l.TbAPI.Request(tbapi.NewCallback(query.ID, "✅ Сообщение добавлено как безопасный пример"))

	default:
		return fmt.Errorf("unexpected callback action %q", parts[0])
	}

	l.pending.Invalidate(pendingKey(chatID, msgID))
	return nil
}

// procPrivate dispatches direct commands to the bot
func (l *TelegramListener) procPrivate(ctx context.Context, message *tbapi.Message) error {
	if message.From == nil || !message.IsCommand() {
		return nil
	}
	switch message.Command() {
	case "start", "help":
		return l.procStart(ctx, message)
	case "buy":
		return l.procBuy(message)
	case "stats":
		return l.procStats(ctx, message)
	case "mode":
		return l.procMode(ctx, message)
	case "ref":
		return l.procRef(message)
	case "refs":
		return l.procRefs(ctx, message)
	}
	return nil
}

// procStart initializes the admin record and saves the referral edge from the
// "ref<id>" payload of the deep link
func (l *TelegramListener) procStart(ctx context.Context, message *tbapi.Message) error {
	adminID := message.From.ID

	created, err := l.Ledger.InitializeNewAdmin(ctx, adminID)
	if err != nil {
		return fmt.Errorf("failed to initialize admin %d: %w", adminID, err)
	}

	payload := strings.TrimSpace(message.CommandArguments())
	if ref, ok := strings.CutPrefix(payload, "ref"); ok {
		referrerID, perr := strconv.ParseInt(ref, 10, 64)
		if perr != nil {
			log.Printf("[DEBUG] ignoring bad referral payload %q from %d", payload, adminID)
		} else {
			saved, serr := l.Referrals.Save(ctx, adminID, referrerID)
			if serr != nil {
				return fmt.Errorf("failed to save referral %d -> %d: %w", adminID, referrerID, serr)
			}
			if saved {
				log.Printf("[INFO] referral recorded: %d invited by %d", adminID, referrerID)
			}
		}
	}

	credits, err := l.Ledger.Credits(ctx, adminID)
	if err != nil {
		return fmt.Errorf("failed to get credits for %d: %w", adminID, err)
	}

	text := fmt.Sprintf("Приветствую, органическая форма жизни!\n\n"+
		"Я - нейромодератор, страж твоих групп от цифровых паразитов.\n"+
		"На твоём счету %d ⭐. Добавь меня администратором в группу, и я начну дежурство.\n\n"+
		"Команды: /stats - баланс и группы, /mode - режим работы, /buy - купить звезды, /ref - пригласить друга.", credits)
	if created {
		log.Printf("[INFO] new admin %d started the bot", adminID)
	}
	return send(tbapi.NewMessage(message.Chat.ID, text), l.TbAPI)
}

// procBuy shows the stars purchase menu
func (l *TelegramListener) procBuy(message *tbapi.Message) error {
	text := "🛒 Выберите количество звезд для покупки:\n\n" +
		"• 100 звезд - базовый пакет\n" +
		"• 500 звезд - популярный выбор\n" +
		"• 1000 звезд - для активных групп\n" +
		"• 5000 звезд - максимальная защита"

	tbMsg := tbapi.NewMessage(message.Chat.ID, text)
	tbMsg.ReplyMarkup = tbapi.NewInlineKeyboardMarkup(
		tbapi.NewInlineKeyboardRow(
			tbapi.NewInlineKeyboardButtonData("100 звезд 💫", cbBuyStars+":100"),
			tbapi.NewInlineKeyboardButtonData("500 звезд ⭐", cbBuyStars+":500"),
		),
		tbapi.NewInlineKeyboardRow(
			tbapi.NewInlineKeyboardButtonData("1000 звезд 🌟", cbBuyStars+":1000"),
			tbapi.NewInlineKeyboardButtonData("5000 звезд 🌠", cbBuyStars+":5000"),
		),
	)
	return send(tbMsg, l.TbAPI)
}

// procBuyCallback sends the stars invoice for the selected package
func (l *TelegramListener) procBuyCallback(query *tbapi.CallbackQuery, amountStr string) error {
	amount, err := strconv.Atoi(amountStr)
	if err != nil || amount <= 0 {
		return fmt.Errorf("bad stars amount in callback %q", query.Data)
	}
	if query.Message == nil || query.Message.Chat == nil {
		return fmt.Errorf("buy callback without the source message")
	}
	_, _ = l.TbAPI.Request(tbapi.NewCallback(query.ID, ""))

	// telegram stars payments use the XTR currency and need no provider token
	invoice := tbapi.NewInvoice(query.Message.Chat.ID,
		"Звезды для защиты от спама",
		fmt.Sprintf("Покупка %d звезд для защиты ваших групп от спама", amount),
		fmt.Sprintf("stars-purchase:%d", amount),
		"", "", "XTR",
		[]tbapi.LabeledPrice{{Label: fmt.Sprintf("%d звезд", amount), Amount: amount}})
	if _, err := l.TbAPI.Send(invoice); err != nil {
		return fmt.Errorf("failed to send invoice for %d stars: %w", amount, err)
	}
	return nil
}

// procStats reports the balance, week spending and the groups with their
// moderation status
func (l *TelegramListener) procStats(ctx context.Context, message *tbapi.Message) error {
	adminID := message.From.ID

	credits, err := l.Ledger.Credits(ctx, adminID)
	if err != nil {
		return fmt.Errorf("failed to get credits for %d: %w", adminID, err)
	}
	spentWeek, err := l.Ledger.SpentLastWeek(ctx, adminID)
	if err != nil {
		return fmt.Errorf("failed to get spending for %d: %w", adminID, err)
	}
	groups, err := l.Groups.AdminGroups(ctx, adminID)
	if err != nil {
		return fmt.Errorf("failed to get groups for %d: %w", adminID, err)
	}
	deletionOn, err := l.Ledger.SpamDeletionEnabled(ctx, adminID)
	if err != nil {
		return fmt.Errorf("failed to get deletion mode for %d: %w", adminID, err)
	}

	text := fmt.Sprintf("💰 Баланс: %d звезд\n📊 Потрачено за последние 7 дней: %d звезд\n\n", credits, spentWeek)
	if len(groups) == 0 {
		text += "У вас нет групп, где вы администратор."
	} else {
		text += "👥 Ваши группы:\n"
		for _, group := range groups {
			status := "❌ выключена"
			if group.ModerationEnabled {
				status = "✅ включена"
			}
			text += fmt.Sprintf("• %s: модерация %s\n", escapeMarkDownV1Text(group.Title), status)
		}
	}
	mode := "🔔 Режим уведомлений"
	if deletionOn {
		mode = "🗑 Режим удаления"
	}
	text += fmt.Sprintf("\nТекущий режим: %s", mode)
	return send(tbapi.NewMessage(message.Chat.ID, text), l.TbAPI)
}

// procMode toggles between auto-deletion and notification-only modes
func (l *TelegramListener) procMode(ctx context.Context, message *tbapi.Message) error {
	adminID := message.From.ID
	deletionOn, err := l.Ledger.ToggleSpamDeletion(ctx, adminID)
	if err != nil {
		return fmt.Errorf("failed to toggle deletion mode for %d: %w", adminID, err)
	}

	text := "🔔 Включен режим уведомлений\n\nТеперь я буду только уведомлять о сообщениях, " +
		"определённых как спам, но не буду их удалять."
	if deletionOn {
		text = "🗑 Включен режим удаления\n\nТеперь я буду автоматически удалять сообщения, " +
			"определённые как спам, в ваших группах."
	}
	log.Printf("[INFO] admin %d switched deletion mode to %v", adminID, deletionOn)
	return send(tbapi.NewMessage(message.Chat.ID, text), l.TbAPI)
}

// procRef replies with the personal referral deep link
func (l *TelegramListener) procRef(message *tbapi.Message) error {
	refLink := fmt.Sprintf("https://t.me/%s?start=ref%d", l.BotUserName, message.From.ID)
	text := fmt.Sprintf("🔗 Вот ваша реферальная ссылка:\n\n%s\n\n"+
		"Отправьте её друзьям и получайте %d%% от их покупок в виде звёзд!", refLink, l.CommissionPct)
	return send(tbapi.NewMessage(message.Chat.ID, text), l.TbAPI)
}

// procRefs reports the referral list with per-referral and total earnings
func (l *TelegramListener) procRefs(ctx context.Context, message *tbapi.Message) error {
	adminID := message.From.ID

	referrals, err := l.Referrals.Referrals(ctx, adminID)
	if err != nil {
		return fmt.Errorf("failed to get referrals for %d: %w", adminID, err)
	}
	if len(referrals) == 0 {
		return send(tbapi.NewMessage(message.Chat.ID,
			"У вас пока нет рефералов. Отправьте друзьям свою реферальную ссылку командой /ref"), l.TbAPI)
	}

	earned, err := l.Ledger.TotalEarnings(ctx, adminID)
	if err != nil {
		return fmt.Errorf("failed to get earnings for %d: %w", adminID, err)
	}

	text := fmt.Sprintf("👥 Ваши рефералы: %d\n\n", len(referrals))
	for _, ref := range referrals {
		text += fmt.Sprintf("• пользователь %d: %d ⭐, с %s\n",
			ref.ReferralID, ref.EarnedStars, ref.JoinedAt.Format("02.01.2006"))
	}
	text += fmt.Sprintf("\n💰 Всего заработано: %d ⭐", earned)
	return send(tbapi.NewMessage(message.Chat.ID, text), l.TbAPI)
}

// procPayment confirms a successful stars payment
func (l *TelegramListener) procPayment(ctx context.Context, message *tbapi.Message) error {
	if message.From == nil {
		return nil
	}
	payment := message.SuccessfulPayment
	if err := l.Moderator.ProcessPayment(ctx, message.From.ID, payment.TotalAmount); err != nil {
		return err
	}
	log.Printf("[INFO] payment of %d %s from %d", payment.TotalAmount, payment.Currency, message.From.ID)
	text := fmt.Sprintf("✨ Звездная энергия пополнена на %d ⭐. Защита твоих групп снова активна!", payment.TotalAmount)
	return send(tbapi.NewMessage(message.Chat.ID, text), l.TbAPI)
}

// procBotMembership reacts to the bot's own status changes in groups:
// promotion to admin activates moderation, demotion or removal deactivates it
func (l *TelegramListener) procBotMembership(ctx context.Context, upd *tbapi.ChatMemberUpdated) error {
	chatID := upd.Chat.ID
	switch upd.NewChatMember.Status {
	case "administrator":
		if err := l.syncAdmins(ctx, chatID, upd.Chat.Title); err != nil {
			return fmt.Errorf("failed to sync admins on promotion in %d: %w", chatID, err)
		}
		// moderation needs somebody to pay for the checks
		paying, err := l.Groups.PayingAdmins(ctx, chatID)
		if err != nil {
			return fmt.Errorf("failed to get paying admins for %d: %w", chatID, err)
		}
		if len(paying) == 0 {
			log.Printf("[WARN] no admins with credits in group %d, moderation stays disabled", chatID)
			return nil
		}
		if err := l.Groups.SetModeration(ctx, chatID, true); err != nil {
			return fmt.Errorf("failed to enable moderation in %d: %w", chatID, err)
		}
		log.Printf("[INFO] bot promoted to admin in group %d, moderation enabled", chatID)

	case "member", "left", "kicked":
		admins, err := l.Moderator.Deactivate(ctx, chatID)
		if err != nil {
			return fmt.Errorf("failed to deactivate group %d: %w", chatID, err)
		}
		l.adminsCache.Invalidate(chatID)
		log.Printf("[INFO] bot lost admin rights in group %d, moderation disabled", chatID)

		text := fmt.Sprintf("Я потерял права администратора в группе %q и больше не могу её защищать. "+
			"Верни мне права, чтобы возобновить дежурство.", upd.Chat.Title)
		errs := new(multierror.Error)
		for _, adminID := range admins {
			if err := send(tbapi.NewMessage(adminID, text), l.TbAPI); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("failed to notify admin %d: %w", adminID, err))
			}
		}
		return errs.ErrorOrNil()
	}
	return nil
}

// syncAdmins refreshes the stored admins of the group from the live list,
// throttled by the cache TTL. New admins get the initial credits grant.
func (l *TelegramListener) syncAdmins(ctx context.Context, chatID int64, title string) error {
	if _, found := l.adminsCache.Get(chatID); found {
		return nil
	}

	members, err := l.TbAPI.GetChatAdministrators(tbapi.ChatAdministratorsConfig{
		ChatConfig: tbapi.ChatConfig{ChatID: chatID}})
	if err != nil {
		return fmt.Errorf("failed to get chat administrators: %w", err)
	}

	adminIDs := make([]int64, 0, len(members))
	for _, member := range members {
		if member.User == nil || member.User.IsBot {
			continue
		}
		adminIDs = append(adminIDs, member.User.ID)
	}
	if len(adminIDs) == 0 {
		return nil
	}

	if err := l.Groups.UpdateAdmins(ctx, chatID, title, adminIDs, l.InitialCredits); err != nil {
		return fmt.Errorf("failed to update admins for group %d: %w", chatID, err)
	}
	l.adminsCache.Set(chatID, adminIDs, 0)
	return nil
}

// userBio fetches the public bio of the user, empty on any failure
func (l *TelegramListener) userBio(userID int64) string {
	chat, err := l.TbAPI.GetChat(tbapi.ChatInfoConfig{ChatConfig: tbapi.ChatConfig{ChatID: userID}})
	if err != nil {
		log.Printf("[DEBUG] failed to get bio for %d: %v", userID, err)
		return ""
	}
	return chat.Bio
}

func pendingKey(chatID int64, msgID int) string {
	return fmt.Sprintf("%d:%d", chatID, msgID)
}

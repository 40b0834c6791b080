// Package events provides the telegram event loop. It parses updates, sends
// group messages to the moderator and applies the verdicts: deletes and bans,
// admin notifications, payment and referral handling. All the decisions are
// made by the bot package, this layer only talks to the telegram API.
package events

import (
	"context"
	"fmt"
	"log"
	"strings"

	tbapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/umnov/tg-neuromod/app/bot"
	"github.com/umnov/tg-neuromod/app/storage"
)

//go:generate moq --out mocks/tb_api.go --pkg mocks --with-resets --skip-ensure . TbAPI
//go:generate moq --out mocks/moderator.go --pkg mocks --with-resets --skip-ensure . Moderator
//go:generate moq --out mocks/groups_service.go --pkg mocks --with-resets --skip-ensure . GroupsService
//go:generate moq --out mocks/referrals_service.go --pkg mocks --with-resets --skip-ensure . ReferralsService
//go:generate moq --out mocks/ledger_service.go --pkg mocks --with-resets --skip-ensure . LedgerService

// TbAPI is an interface for telegram bot API, only subset of methods used
type TbAPI interface {
	GetUpdatesChan(config tbapi.UpdateConfig) tbapi.UpdatesChannel
	Send(c tbapi.Chattable) (tbapi.Message, error)
	Request(c tbapi.Chattable) (*tbapi.APIResponse, error)
	GetChat(config tbapi.ChatInfoConfig) (tbapi.Chat, error)
	GetChatAdministrators(config tbapi.ChatAdministratorsConfig) ([]tbapi.ChatMember, error)
}

// Moderator is an interface for the moderation policy
type Moderator interface {
	OnMessage(ctx context.Context, msg bot.Message) (bot.Verdict, error)
	ConfirmSpam(ctx context.Context, adminID int64, msg bot.Message) error
	NotSpam(ctx context.Context, adminID int64, msg bot.Message) error
	ProcessPayment(ctx context.Context, adminID int64, amount int) error
	Deactivate(ctx context.Context, groupID int64) ([]int64, error)
}

// GroupsService is a subset of the groups storage used by the listener
type GroupsService interface {
	UpdateAdmins(ctx context.Context, groupID int64, title string, adminIDs []int64, initialCredits int) error
	SetModeration(ctx context.Context, groupID int64, enabled bool) error
	AdminGroups(ctx context.Context, adminID int64) ([]storage.GroupInfo, error)
	PayingAdmins(ctx context.Context, groupID int64) ([]int64, error)
}

// ReferralsService records referral edges from /start payloads
type ReferralsService interface {
	Save(ctx context.Context, referralID, referrerID int64) (bool, error)
	Referrals(ctx context.Context, referrerID int64) ([]storage.ReferralInfo, error)
}

// LedgerService is a subset of the ledger storage used by the listener
type LedgerService interface {
	InitializeNewAdmin(ctx context.Context, adminID int64) (bool, error)
	Credits(ctx context.Context, adminID int64) (int, error)
	SpentLastWeek(ctx context.Context, adminID int64) (int, error)
	TotalEarnings(ctx context.Context, adminID int64) (int, error)
	ToggleSpamDeletion(ctx context.Context, adminID int64) (bool, error)
	SpamDeletionEnabled(ctx context.Context, adminID int64) (bool, error)
}

// AuditLogger records every moderated message with its verdict
type AuditLogger func(msg bot.Message, verdict bot.Verdict)

func escapeMarkDownV1Text(text string) string {
	escSymbols := []string{"_", "*", "`", "["}
	for _, esc := range escSymbols {
		text = strings.ReplaceAll(text, esc, "\\"+esc)
	}
	return text
}

// send a message to the telegram as markdown first and if failed - as plain text
func send(tbMsg tbapi.Chattable, tbAPI TbAPI) error {
	withParseMode := func(tbMsg tbapi.Chattable, parseMode string) tbapi.Chattable {
		switch msg := tbMsg.(type) {
		case tbapi.MessageConfig:
			msg.ParseMode = parseMode
			msg.DisableWebPagePreview = true
			return msg
		case tbapi.EditMessageTextConfig:
			msg.ParseMode = parseMode
			return msg
		}
		return tbMsg // don't touch other types
	}

	msg := withParseMode(tbMsg, tbapi.ModeMarkdown) // try markdown first
	if _, err := tbAPI.Send(msg); err != nil {
		log.Printf("[WARN] failed to send message as markdown, %v", err)
		msg = withParseMode(tbMsg, "") // try plain text
		if _, err := tbAPI.Send(msg); err != nil {
			return fmt.Errorf("can't send message to telegram: %w", err)
		}
	}
	return nil
}

// banUser bans the user in the chat, the bot must be an administrator with the
// appropriate rights
func banUser(tbAPI TbAPI, chatID, userID int64) error {
	resp, err := tbAPI.Request(tbapi.BanChatMemberConfig{
		ChatMemberConfig: tbapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		return fmt.Errorf("failed to ban user %d in chat %d: %w", userID, chatID, err)
	}
	if !resp.Ok {
		return fmt.Errorf("ban response is not Ok: %v", string(resp.Result))
	}
	log.Printf("[INFO] user %d banned in chat %d", userID, chatID)
	return nil
}

func transform(msg *tbapi.Message) bot.Message {
	message := bot.Message{
		ID:   msg.MessageID,
		Sent: msg.Time(),
		Text: msg.Text,
	}

	if msg.Chat != nil {
		message.ChatID = msg.Chat.ID
	}

	if msg.From != nil {
		message.From = bot.User{
			ID:       msg.From.ID,
			Username: msg.From.UserName,
		}
		if strings.TrimSpace(msg.From.FirstName) != "" {
			message.From.DisplayName = msg.From.FirstName
		}
		if strings.TrimSpace(msg.From.LastName) != "" {
			message.From.DisplayName += " " + msg.From.LastName
		}
	}

	if msg.Caption != "" {
		if message.Text == "" {
			message.Text = msg.Caption
		} else {
			message.Text += "\n" + msg.Caption
		}
	}
	return message
}

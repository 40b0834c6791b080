package bot

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/umnov/tg-neuromod/app/storage"
)

//go:generate moq --out mocks/spam_classifier.go --pkg mocks --skip-ensure . spamClassifier:SpamClassifierMock

// spamClassifier scores a message, positive means spam
type spamClassifier interface {
	Check(ctx context.Context, req ClassifyRequest) (int, error)
}

// groupsStore is a subset of storage.Groups used by the moderator
type groupsStore interface {
	Get(ctx context.Context, groupID int64) (storage.GroupInfo, bool, error)
	ModerationEnabled(ctx context.Context, groupID int64) (bool, error)
	SetModeration(ctx context.Context, groupID int64, enabled bool) error
	IsApprovedMember(ctx context.Context, groupID, memberID int64) (bool, error)
	ApproveMember(ctx context.Context, groupID, memberID int64) error
	RemoveMember(ctx context.Context, groupID, memberID int64) error
}

// ledgerStore is a subset of storage.Ledger used by the moderator
type ledgerStore interface {
	DeductFromGroupAdmins(ctx context.Context, groupID int64, amount int, description string) (int64, error)
	SpamDeletionEnabled(ctx context.Context, adminID int64) (bool, error)
	ProcessSuccessfulPayment(ctx context.Context, adminID int64, amount int, commissionRate float64) error
}

// examplesWriter stores manually labeled examples
type examplesWriter interface {
	Add(ctx context.Context, adminID int64, ex storage.Example) error
}

// ModeratorConfig contains parameters for Moderator
type ModeratorConfig struct {
	SpamThreshold  int     // scores above it mean spam
	CheckPrice     int     // credits charged per classified message, 0 disables charging
	CommissionRate float64 // referrer share of a payment
	AutoLabel      bool    // when set, confirmed spam is saved as a labeled example
}

// Moderator decides what happens to a group message: it charges the check to
// the group's administrators, runs the classifier and applies the spam policy.
type Moderator struct {
	classifier spamClassifier
	groups     groupsStore
	ledger     ledgerStore
	examples   examplesWriter
	params     ModeratorConfig
}

// NewModerator makes a moderator over the given stores and classifier
func NewModerator(classifier spamClassifier, groups groupsStore, ledger ledgerStore, examples examplesWriter, params ModeratorConfig) *Moderator {
	if params.SpamThreshold == 0 {
		params.SpamThreshold = 50
	}
	if params.CommissionRate == 0 {
		params.CommissionRate = 0.10
	}
	return &Moderator{classifier: classifier, groups: groups, ledger: ledger, examples: examples, params: params}
}

// OnMessage handles a single group message and returns the verdict. Messages
// in groups with disabled moderation and messages from approved members pass
// without a check or a charge. A failed charge disables the group's moderation.
// A classifier failure is not an error, the message just passes unchecked.
func (m *Moderator) OnMessage(ctx context.Context, msg Message) (Verdict, error) {
	enabled, err := m.groups.ModerationEnabled(ctx, msg.ChatID)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to get moderation state for group %d: %w", msg.ChatID, err)
	}
	if !enabled {
		return Verdict{Details: "moderation disabled"}, nil
	}

	approved, err := m.groups.IsApprovedMember(ctx, msg.ChatID, msg.From.ID)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to check member %d in group %d: %w", msg.From.ID, msg.ChatID, err)
	}
	if approved {
		return Verdict{Details: "approved member"}, nil
	}

	payer, err := m.ledger.DeductFromGroupAdmins(ctx, msg.ChatID, m.params.CheckPrice, "spam check")
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to charge group %d: %w", msg.ChatID, err)
	}
	if payer == 0 && m.params.CheckPrice > 0 {
		return m.lapse(ctx, msg.ChatID)
	}

	score, err := m.classifier.Check(ctx, ClassifyRequest{
		Text:    msg.Text,
		Name:    DisplayName(msg.From),
		Bio:     msg.From.Bio,
		AdminID: payer,
	})
	if err != nil {
		if errors.Is(err, ErrClassifierUnavailable) {
			log.Printf("[WARN] message %d in group %d passed unchecked: %v", msg.ID, msg.ChatID, err)
			return Verdict{ChargedTo: payer, Details: "classifier unavailable"}, nil
		}
		return Verdict{}, fmt.Errorf("failed to classify message %d: %w", msg.ID, err)
	}

	if score > m.params.SpamThreshold {
		return m.onSpam(ctx, msg, score, payer)
	}

	if err := m.groups.ApproveMember(ctx, msg.ChatID, msg.From.ID); err != nil {
		return Verdict{}, fmt.Errorf("failed to approve member %d: %w", msg.From.ID, err)
	}
	log.Printf("[INFO] user %s approved in group %d, score %d", DisplayName(msg.From), msg.ChatID, score)
	return Verdict{Checked: true, Score: score, Approved: true, ChargedTo: payer, Details: "approved"}, nil
}

// onSpam applies the spam policy: the message is removed and the sender banned
// only when every administrator of the group opted into automatic deletion,
// otherwise the admins get a notification with manual actions.
func (m *Moderator) onSpam(ctx context.Context, msg Message, score int, payer int64) (Verdict, error) {
	info, found, err := m.groups.Get(ctx, msg.ChatID)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to get group %d: %w", msg.ChatID, err)
	}
	if !found {
		return Verdict{}, fmt.Errorf("group %d not registered", msg.ChatID)
	}

	allDelete := len(info.AdminIDs) > 0
	for _, adminID := range info.AdminIDs {
		deletes, err := m.ledger.SpamDeletionEnabled(ctx, adminID)
		if err != nil {
			return Verdict{}, fmt.Errorf("failed to get deletion setting for admin %d: %w", adminID, err)
		}
		if !deletes {
			allDelete = false
			break
		}
	}

	verdict := Verdict{
		Checked:      true,
		Spam:         true,
		Score:        score,
		Delete:       allDelete,
		Ban:          allDelete,
		ChargedTo:    payer,
		NotifyAdmins: info.AdminIDs,
		Details:      fmt.Sprintf("spam, score %d", score),
	}

	if allDelete {
		if err := m.groups.RemoveMember(ctx, msg.ChatID, msg.From.ID); err != nil {
			return Verdict{}, fmt.Errorf("failed to remove banned member %d: %w", msg.From.ID, err)
		}
	}
	log.Printf("[INFO] spam from %s in group %d, score %d, auto-delete %v", DisplayName(msg.From), msg.ChatID, score, allDelete)
	return verdict, nil
}

// lapse disables the group's moderation after a failed charge and reports the
// admins to notify about the lost protection
func (m *Moderator) lapse(ctx context.Context, groupID int64) (Verdict, error) {
	if err := m.groups.SetModeration(ctx, groupID, false); err != nil {
		return Verdict{}, fmt.Errorf("failed to disable moderation for group %d: %w", groupID, err)
	}

	var admins []int64
	if info, found, err := m.groups.Get(ctx, groupID); err == nil && found {
		admins = info.AdminIDs
	}
	log.Printf("[WARN] group %d moderation lapsed, no paying admins", groupID)
	return Verdict{Lapsed: true, NotifyAdmins: admins, Details: "no paying admins"}, nil
}

// ConfirmSpam is the manual confirmation from an admin. The storage side
// effects happen here, the message deletion and the ban are on the caller.
// With AutoLabel enabled the message is saved as a spam example in the acting
// admin's scope.
func (m *Moderator) ConfirmSpam(ctx context.Context, adminID int64, msg Message) error {
	if m.params.AutoLabel {
		ex := storage.Example{Text: msg.Text, Score: 100, Name: DisplayName(msg.From), Bio: msg.From.Bio}
		if err := m.examples.Add(ctx, adminID, ex); err != nil {
			return fmt.Errorf("failed to save spam example: %w", err)
		}
	}
	if err := m.groups.RemoveMember(ctx, msg.ChatID, msg.From.ID); err != nil {
		return fmt.Errorf("failed to remove member %d: %w", msg.From.ID, err)
	}
	log.Printf("[INFO] admin %d confirmed spam from %s in group %d", adminID, DisplayName(msg.From), msg.ChatID)
	return nil
}

// NotSpam is the manual override from an admin: the message is saved as a ham
// example in the admin's scope and the sender gets approved in the group.
func (m *Moderator) NotSpam(ctx context.Context, adminID int64, msg Message) error {
	ex := storage.Example{Text: msg.Text, Score: -100, Name: DisplayName(msg.From), Bio: msg.From.Bio}
	if err := m.examples.Add(ctx, adminID, ex); err != nil {
		return fmt.Errorf("failed to save ham example: %w", err)
	}
	if err := m.groups.ApproveMember(ctx, msg.ChatID, msg.From.ID); err != nil {
		return fmt.Errorf("failed to approve member %d: %w", msg.From.ID, err)
	}
	log.Printf("[INFO] admin %d marked message from %s as ham in group %d", adminID, DisplayName(msg.From), msg.ChatID)
	return nil
}

// ProcessPayment credits the payer, re-enables their groups and pays the
// referral commission, all inside the ledger transaction
func (m *Moderator) ProcessPayment(ctx context.Context, adminID int64, amount int) error {
	if err := m.ledger.ProcessSuccessfulPayment(ctx, adminID, amount, m.params.CommissionRate); err != nil {
		return fmt.Errorf("failed to process payment of %d from admin %d: %w", amount, adminID, err)
	}
	return nil
}

// Deactivate disables moderation for the group, used when the bot loses its
// admin rights or is removed. Returns the admins to notify.
func (m *Moderator) Deactivate(ctx context.Context, groupID int64) ([]int64, error) {
	if err := m.groups.SetModeration(ctx, groupID, false); err != nil {
		return nil, fmt.Errorf("failed to disable moderation for group %d: %w", groupID, err)
	}
	info, found, err := m.groups.Get(ctx, groupID)
	if err != nil || !found {
		return nil, err
	}
	return info.AdminIDs, nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/umnov/tg-neuromod/app/storage/engine"
)

// Ledger is a storage for administrator balances and the append-only
// transaction log. Every balance mutation records a transaction in the same
// database transaction, so the log stays the single source of truth for
// aggregate queries.
type Ledger struct {
	*engine.SQL
	engine.RWLocker
	initialCredits int
}

// TxType is a type of a ledger transaction
type TxType string

// enum of transaction types
const (
	TxInitial            TxType = "initial"
	TxPayment            TxType = "payment"
	TxDeduction          TxType = "deduction"
	TxReferralCommission TxType = "referral_commission"
)

// DefaultInitialCredits is the grant for a newly initialized administrator
const DefaultInitialCredits = 100

// Admin is an administrator record with the credits balance
type Admin struct {
	AdminID    int64     `db:"admin_id"`
	Username   string    `db:"username"`
	Credits    int       `db:"credits"`
	DeleteSpam bool      `db:"delete_spam"`
	CreatedAt  time.Time `db:"created_at"`
	LastActive time.Time `db:"last_active"`
}

// Transaction is a single immutable ledger record
type Transaction struct {
	ID          int64     `db:"id"`
	AdminID     int64     `db:"admin_id"`
	Amount      int       `db:"amount"`
	Type        TxType    `db:"type"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// ledger-related command constants
const (
	CmdCreateAdminsTable engine.DBCmd = iota + 200
	CmdCreateTransactionsTable
	CmdCreateLedgerIndexes
	CmdUpsertCredits
	CmdSpentLastWeek
)

var ledgerQueries = engine.NewQueryMap().
	Add(CmdCreateAdminsTable, engine.Query{
		Sqlite: `CREATE TABLE IF NOT EXISTS administrators (
            admin_id INTEGER PRIMARY KEY,
            username TEXT NOT NULL DEFAULT '',
            credits INTEGER NOT NULL DEFAULT 0 CHECK (credits >= 0),
            delete_spam BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            last_active DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
		Postgres: `CREATE TABLE IF NOT EXISTS administrators (
            admin_id BIGINT PRIMARY KEY,
            username VARCHAR(255) NOT NULL DEFAULT '',
            credits INTEGER NOT NULL DEFAULT 0 CHECK (credits >= 0),
            delete_spam BOOLEAN NOT NULL DEFAULT true,
            created_at TIMESTAMP NOT NULL DEFAULT NOW(),
            last_active TIMESTAMP NOT NULL DEFAULT NOW()
        )`,
	}).
	Add(CmdCreateTransactionsTable, engine.Query{
		Sqlite: `CREATE TABLE IF NOT EXISTS transactions (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            admin_id INTEGER NOT NULL,
            amount INTEGER NOT NULL,
            type TEXT NOT NULL CHECK (type IN ('initial', 'payment', 'deduction', 'referral_commission')),
            description TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
		Postgres: `CREATE TABLE IF NOT EXISTS transactions (
            id SERIAL PRIMARY KEY,
            admin_id BIGINT NOT NULL,
            amount INTEGER NOT NULL,
            type VARCHAR(50) NOT NULL CHECK (type IN ('initial', 'payment', 'deduction', 'referral_commission')),
            description TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP NOT NULL DEFAULT NOW()
        )`,
	}).
	Add(CmdCreateLedgerIndexes, engine.Query{
		Sqlite: `
			CREATE INDEX IF NOT EXISTS idx_transactions_admin ON transactions(admin_id);
			CREATE INDEX IF NOT EXISTS idx_transactions_type ON transactions(type);
			CREATE INDEX IF NOT EXISTS idx_transactions_created ON transactions(created_at);
			CREATE INDEX IF NOT EXISTS idx_administrators_credits ON administrators(credits)`,
		Postgres: `
			CREATE INDEX IF NOT EXISTS idx_transactions_admin ON transactions(admin_id);
			CREATE INDEX IF NOT EXISTS idx_transactions_type ON transactions(type);
			CREATE INDEX IF NOT EXISTS idx_transactions_created ON transactions(created_at);
			CREATE INDEX IF NOT EXISTS idx_administrators_credits ON administrators(credits)`,
	}).
	AddSame(CmdUpsertCredits, `INSERT INTO administrators (admin_id, credits) VALUES (?, ?)
            ON CONFLICT(admin_id) DO UPDATE
            SET credits = administrators.credits + excluded.credits, last_active = CURRENT_TIMESTAMP`).
	Add(CmdSpentLastWeek, engine.Query{
		Sqlite: `SELECT COALESCE(SUM(ABS(amount)), 0) FROM transactions
                 WHERE admin_id = ? AND amount < 0 AND created_at >= datetime('now', '-7 days')`,
		Postgres: `SELECT COALESCE(SUM(ABS(amount)), 0) FROM transactions
                 WHERE admin_id = $1 AND amount < 0 AND created_at >= NOW() - INTERVAL '7 days'`,
	})

// NewLedger creates a new Ledger storage with the given initial credits grant,
// DefaultInitialCredits used if zero or negative.
func NewLedger(ctx context.Context, db *engine.SQL, initialCredits int) (*Ledger, error) {
	if db == nil {
		return nil, fmt.Errorf("db connection is nil")
	}
	if initialCredits <= 0 {
		initialCredits = DefaultInitialCredits
	}
	res := &Ledger{SQL: db, RWLocker: db.MakeLock(), initialCredits: initialCredits}

	tables := []engine.TableConfig{
		{Name: "administrators", CreateTable: CmdCreateAdminsTable, QueriesMap: ledgerQueries},
		{Name: "transactions", CreateTable: CmdCreateTransactionsTable, CreateIndexes: CmdCreateLedgerIndexes, QueriesMap: ledgerQueries},
	}
	for _, cfg := range tables {
		if err := engine.InitTable(ctx, db, cfg); err != nil {
			return nil, fmt.Errorf("failed to init ledger storage: %w", err)
		}
	}
	return res, nil
}

// Credits returns the balance for the administrator, 0 if unknown
func (l *Ledger) Credits(ctx context.Context, adminID int64) (int, error) {
	l.RLock()
	defer l.RUnlock()

	var credits int
	err := l.GetContext(ctx, &credits, l.Adopt(`SELECT credits FROM administrators WHERE admin_id = ?`), adminID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get credits for %d: %w", adminID, err)
	}
	return credits, nil
}

// Get returns the administrator record
func (l *Ledger) Get(ctx context.Context, adminID int64) (Admin, bool, error) {
	l.RLock()
	defer l.RUnlock()

	var admin Admin
	err := l.GetContext(ctx, &admin, l.Adopt(`SELECT admin_id, username, credits, delete_spam, created_at, last_active
        FROM administrators WHERE admin_id = ?`), adminID)
	if errors.Is(err, sql.ErrNoRows) {
		return Admin{}, false, nil
	}
	if err != nil {
		return Admin{}, false, fmt.Errorf("failed to get admin %d: %w", adminID, err)
	}
	return admin, true, nil
}

// InitializeNewAdmin creates the administrator record with the initial credits
// grant if and only if the record does not exist yet. Returns whether a new
// record was created, an already existing administrator is not an error and
// the existing balance is not altered.
func (l *Ledger) InitializeNewAdmin(ctx context.Context, adminID int64) (bool, error) {
	l.Lock()
	defer l.Unlock()

	tx, err := l.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.GetContext(ctx, &exists, l.Adopt(`SELECT COUNT(*) FROM administrators WHERE admin_id = ?`), adminID); err != nil {
		return false, fmt.Errorf("failed to check admin %d existence: %w", adminID, err)
	}
	if exists > 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, l.Adopt(`INSERT INTO administrators (admin_id, credits) VALUES (?, ?)`),
		adminID, l.initialCredits); err != nil {
		return false, fmt.Errorf("failed to create admin %d: %w", adminID, err)
	}
	if err := l.record(ctx, tx, adminID, l.initialCredits, TxInitial, "initial credits"); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	log.Printf("[INFO] new admin %d initialized with %d credits", adminID, l.initialCredits)
	return true, nil
}

// AddCredits increments the balance and appends a transaction record of the
// given type. Creates the administrator if absent.
func (l *Ledger) AddCredits(ctx context.Context, adminID int64, amount int, txType TxType, description string) error {
	if amount < 0 {
		return fmt.Errorf("amount can't be negative: %d", amount)
	}

	l.Lock()
	defer l.Unlock()

	tx, err := l.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := l.upsertCredits(ctx, tx, adminID, amount); err != nil {
		return err
	}
	if err := l.record(ctx, tx, adminID, amount, txType, description); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeductCredits decrements the balance only if sufficient funds exist. Returns
// false without any change when the amount exceeds the current balance,
// a deduction transaction is recorded only on success.
func (l *Ledger) DeductCredits(ctx context.Context, adminID int64, amount int) (bool, error) {
	if amount < 0 {
		return false, fmt.Errorf("amount can't be negative: %d", amount)
	}
	if amount == 0 {
		return true, nil
	}

	l.Lock()
	defer l.Unlock()

	tx, err := l.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	ok, err := l.deduct(ctx, tx, adminID, amount, "credits deduction")
	if err != nil || !ok {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// DeductFromGroupAdmins charges the classification cost to the group's
// administrator with the highest balance. All-or-nothing per call, returns the
// charged admin id or 0 when no administrator of the group can pay.
func (l *Ledger) DeductFromGroupAdmins(ctx context.Context, groupID int64, amount int, description string) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("amount can't be negative: %d", amount)
	}

	l.Lock()
	defer l.Unlock()

	tx, err := l.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var payer struct {
		AdminID int64 `db:"admin_id"`
		Credits int   `db:"credits"`
	}
	err = tx.GetContext(ctx, &payer, l.Adopt(`SELECT a.admin_id, a.credits FROM administrators a
        JOIN group_administrators ga ON a.admin_id = ga.admin_id
        WHERE ga.group_id = ? ORDER BY a.credits DESC, a.admin_id LIMIT 1`), groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find paying admin for group %d: %w", groupID, err)
	}
	if payer.Credits < amount {
		return 0, nil
	}

	if amount > 0 {
		ok, derr := l.deduct(ctx, tx, payer.AdminID, amount, description)
		if derr != nil {
			return 0, derr
		}
		if !ok { // balance changed under us, treat as no paying admin
			return 0, nil
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return payer.AdminID, nil
}

// ProcessSuccessfulPayment is a single atomic unit for an external payment
// confirmation: credits the administrator with a payment record, re-enables
// moderation in all their groups, and pays the referrer commission when a
// referrer exists. Commission is floor(amount * rate). Both credit operations
// and both transaction records commit together or not at all.
func (l *Ledger) ProcessSuccessfulPayment(ctx context.Context, adminID int64, amount int, commissionRate float64) error {
	if amount < 0 {
		return fmt.Errorf("amount can't be negative: %d", amount)
	}

	l.Lock()
	defer l.Unlock()

	tx, err := l.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := l.upsertCredits(ctx, tx, adminID, amount); err != nil {
		return err
	}
	if err := l.record(ctx, tx, adminID, amount, TxPayment, "stars purchase"); err != nil {
		return err
	}

	// payment reactivates all payer's groups
	if _, err := tx.ExecContext(ctx, l.Adopt(`UPDATE groups SET moderation_enabled = ?, last_active = CURRENT_TIMESTAMP
        WHERE group_id IN (SELECT group_id FROM group_administrators WHERE admin_id = ?)`), true, adminID); err != nil {
		return fmt.Errorf("failed to reactivate groups for admin %d: %w", adminID, err)
	}

	var referrerID int64
	err = tx.GetContext(ctx, &referrerID, l.Adopt(`SELECT referrer_id FROM referral_links WHERE referral_id = ?`), adminID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to get referrer for %d: %w", adminID, err)
	}

	if err == nil { // referrer exists, pay the commission
		commission := int(math.Floor(float64(amount) * commissionRate))
		if err := l.upsertCredits(ctx, tx, referrerID, commission); err != nil {
			return err
		}
		desc := fmt.Sprintf("Referral commission from user %d", adminID)
		if err := l.record(ctx, tx, referrerID, commission, TxReferralCommission, desc); err != nil {
			return err
		}
		log.Printf("[INFO] referral commission %d paid to %d for payment of %d by %d", commission, referrerID, amount, adminID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	log.Printf("[INFO] payment of %d processed for admin %d", amount, adminID)
	return nil
}

// TotalEarnings returns the sum of referral commission amounts for the
// administrator, other transaction types excluded.
func (l *Ledger) TotalEarnings(ctx context.Context, adminID int64) (int, error) {
	l.RLock()
	defer l.RUnlock()

	var total int
	err := l.GetContext(ctx, &total, l.Adopt(`SELECT COALESCE(SUM(amount), 0) FROM transactions
        WHERE admin_id = ? AND type = ?`), adminID, TxReferralCommission)
	if err != nil {
		return 0, fmt.Errorf("failed to get total earnings for %d: %w", adminID, err)
	}
	return total, nil
}

// Transactions returns the administrator's ledger records, newest first
func (l *Ledger) Transactions(ctx context.Context, adminID int64) ([]Transaction, error) {
	l.RLock()
	defer l.RUnlock()

	var res []Transaction
	err := l.SelectContext(ctx, &res, l.Adopt(`SELECT id, admin_id, amount, type, description, created_at
        FROM transactions WHERE admin_id = ? ORDER BY created_at DESC, id DESC`), adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for %d: %w", adminID, err)
	}
	return res, nil
}

// SpentLastWeek returns the total of deducted credits for the last 7 days
func (l *Ledger) SpentLastWeek(ctx context.Context, adminID int64) (int, error) {
	l.RLock()
	defer l.RUnlock()

	query, err := pick(ledgerQueries, l.Type(), CmdSpentLastWeek, "spent last week")
	if err != nil {
		return 0, err
	}
	var spent int
	if err := l.GetContext(ctx, &spent, query, adminID); err != nil {
		return 0, fmt.Errorf("failed to get spent credits for %d: %w", adminID, err)
	}
	return spent, nil
}

// ToggleSpamDeletion flips the delete_spam setting and returns the new state
func (l *Ledger) ToggleSpamDeletion(ctx context.Context, adminID int64) (bool, error) {
	l.Lock()
	defer l.Unlock()

	tx, err := l.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var current bool
	err = tx.GetContext(ctx, &current, l.Adopt(`SELECT delete_spam FROM administrators WHERE admin_id = ?`), adminID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("admin %d not found", adminID)
	}
	if err != nil {
		return false, fmt.Errorf("failed to get delete_spam for %d: %w", adminID, err)
	}

	newState := !current
	if _, err := tx.ExecContext(ctx, l.Adopt(`UPDATE administrators SET delete_spam = ?, last_active = CURRENT_TIMESTAMP
        WHERE admin_id = ?`), newState, adminID); err != nil {
		return false, fmt.Errorf("failed to toggle delete_spam for %d: %w", adminID, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return newState, nil
}

// SpamDeletionEnabled returns the delete_spam setting, true for unknown admins
func (l *Ledger) SpamDeletionEnabled(ctx context.Context, adminID int64) (bool, error) {
	l.RLock()
	defer l.RUnlock()

	var state bool
	err := l.GetContext(ctx, &state, l.Adopt(`SELECT delete_spam FROM administrators WHERE admin_id = ?`), adminID)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get delete_spam for %d: %w", adminID, err)
	}
	return state, nil
}

// deduct runs the guarded decrement and records the transaction, inside the caller's tx.
// Returns false if the balance is insufficient, the caller should roll back.
func (l *Ledger) deduct(ctx context.Context, tx *sqlx.Tx, adminID int64, amount int, description string) (bool, error) {
	result, err := tx.ExecContext(ctx, l.Adopt(`UPDATE administrators
        SET credits = credits - ?, last_active = CURRENT_TIMESTAMP
        WHERE admin_id = ? AND credits >= ?`), amount, adminID, amount)
	if err != nil {
		return false, fmt.Errorf("failed to deduct %d from admin %d: %w", amount, adminID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return false, nil
	}
	if err := l.record(ctx, tx, adminID, -amount, TxDeduction, description); err != nil {
		return false, err
	}
	return true, nil
}

func (l *Ledger) upsertCredits(ctx context.Context, tx *sqlx.Tx, adminID int64, amount int) error {
	query, err := pick(ledgerQueries, l.Type(), CmdUpsertCredits, "upsert credits")
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, l.Adopt(query), adminID, amount); err != nil {
		return fmt.Errorf("failed to add %d credits to admin %d: %w", amount, adminID, err)
	}
	return nil
}

func (l *Ledger) record(ctx context.Context, tx *sqlx.Tx, adminID int64, amount int, txType TxType, description string) error {
	if _, err := tx.ExecContext(ctx, l.Adopt(`INSERT INTO transactions (admin_id, amount, type, description)
        VALUES (?, ?, ?, ?)`), adminID, amount, txType, description); err != nil {
		return fmt.Errorf("failed to record %s transaction for admin %d: %w", txType, adminID, err)
	}
	return nil
}

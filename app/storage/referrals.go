package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/umnov/tg-neuromod/app/storage/engine"
)

// Referrals is a storage for the referral graph: an acyclic mapping from a
// referred administrator to their referrer. An edge is set exactly once, later
// attempts fail instead of overwriting, and an edge closing a cycle is rejected.
type Referrals struct {
	*engine.SQL
	engine.RWLocker
}

// maxReferralChainDepth bounds the cycle check walk over the referrer chain
const maxReferralChainDepth = 10

// ReferralInfo describes one referral of an administrator with the commission
// earned from that relationship.
type ReferralInfo struct {
	ReferralID  int64     `db:"referral_id"`
	JoinedAt    time.Time `db:"joined_at"`
	EarnedStars int       `db:"earned_stars"`
}

// referrals-related command constants
const (
	CmdCreateReferralsTable engine.DBCmd = iota + 400
	CmdCreateReferralsIndexes
	CmdReferralsList
)

var referralsQueries = engine.NewQueryMap().
	Add(CmdCreateReferralsTable, engine.Query{
		Sqlite: `CREATE TABLE IF NOT EXISTS referral_links (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            referral_id INTEGER NOT NULL UNIQUE,
            referrer_id INTEGER NOT NULL,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
		Postgres: `CREATE TABLE IF NOT EXISTS referral_links (
            id SERIAL PRIMARY KEY,
            referral_id BIGINT NOT NULL UNIQUE,
            referrer_id BIGINT NOT NULL,
            created_at TIMESTAMP NOT NULL DEFAULT NOW()
        )`,
	}).
	Add(CmdCreateReferralsIndexes, engine.Query{
		Sqlite: `
			CREATE INDEX IF NOT EXISTS idx_referral_links_referrer ON referral_links(referrer_id);
			CREATE INDEX IF NOT EXISTS idx_referral_links_created ON referral_links(created_at)`,
		Postgres: `
			CREATE INDEX IF NOT EXISTS idx_referral_links_referrer ON referral_links(referrer_id);
			CREATE INDEX IF NOT EXISTS idx_referral_links_created ON referral_links(created_at)`,
	}).
	Add(CmdReferralsList, engine.Query{
		Sqlite: `SELECT rl.referral_id, rl.created_at AS joined_at, COALESCE(SUM(t.amount), 0) AS earned_stars
                 FROM referral_links rl
                 LEFT JOIN transactions t ON t.admin_id = ? AND t.type = 'referral_commission'
                     AND t.description LIKE 'Referral commission from user ' || rl.referral_id || '%'
                 WHERE rl.referrer_id = ?
                 GROUP BY rl.referral_id, rl.created_at
                 ORDER BY rl.created_at DESC`,
		Postgres: `SELECT rl.referral_id, rl.created_at AS joined_at, COALESCE(SUM(t.amount), 0) AS earned_stars
                 FROM referral_links rl
                 LEFT JOIN transactions t ON t.admin_id = $1 AND t.type = 'referral_commission'
                     AND t.description LIKE 'Referral commission from user ' || rl.referral_id::text || '%'
                 WHERE rl.referrer_id = $2
                 GROUP BY rl.referral_id, rl.created_at
                 ORDER BY rl.created_at DESC`,
	})

// NewReferrals creates a new Referrals storage
func NewReferrals(ctx context.Context, db *engine.SQL) (*Referrals, error) {
	if db == nil {
		return nil, fmt.Errorf("db connection is nil")
	}
	res := &Referrals{SQL: db, RWLocker: db.MakeLock()}
	cfg := engine.TableConfig{
		Name:          "referral_links",
		CreateTable:   CmdCreateReferralsTable,
		CreateIndexes: CmdCreateReferralsIndexes,
		QueriesMap:    referralsQueries,
	}
	if err := engine.InitTable(ctx, db, cfg); err != nil {
		return nil, fmt.Errorf("failed to init referrals storage: %w", err)
	}
	return res, nil
}

// Save records the referral->referrer edge. Returns false without an error on
// a policy violation: self-referral, an already recorded referrer, or an edge
// that would close a cycle. The chain walk and the insert run in one
// transaction so a concurrent registration can't slip a cycle through.
func (r *Referrals) Save(ctx context.Context, referralID, referrerID int64) (bool, error) {
	if referralID == referrerID {
		return false, nil
	}

	r.Lock()
	defer r.Unlock()

	tx, err := r.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	// both sides must exist in administrators, zero-credit records are enough
	if _, err := tx.ExecContext(ctx, r.Adopt(`INSERT INTO administrators (admin_id, credits) VALUES (?, 0), (?, 0)
        ON CONFLICT(admin_id) DO NOTHING`), referralID, referrerID); err != nil {
		return false, fmt.Errorf("failed to ensure admins %d, %d: %w", referralID, referrerID, err)
	}

	var existing int64
	err = tx.GetContext(ctx, &existing, r.Adopt(`SELECT referrer_id FROM referral_links WHERE referral_id = ?`), referralID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to check existing referrer for %d: %w", referralID, err)
	}
	if err == nil { // first write wins
		return false, nil
	}

	// walk the referrer chain from referrerID, reaching referralID means a cycle
	current := referrerID
	for depth := 0; depth < maxReferralChainDepth; depth++ {
		if current == referralID {
			return false, nil
		}
		var next int64
		err = tx.GetContext(ctx, &next, r.Adopt(`SELECT referrer_id FROM referral_links WHERE referral_id = ?`), current)
		if errors.Is(err, sql.ErrNoRows) {
			break
		}
		if err != nil {
			return false, fmt.Errorf("failed to walk referrer chain at %d: %w", current, err)
		}
		current = next
	}

	if _, err := tx.ExecContext(ctx, r.Adopt(`INSERT INTO referral_links (referral_id, referrer_id) VALUES (?, ?)`),
		referralID, referrerID); err != nil {
		return false, fmt.Errorf("failed to save referral %d -> %d: %w", referralID, referrerID, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	log.Printf("[INFO] referral saved: %d -> %d", referralID, referrerID)
	return true, nil
}

// Referrer returns the referrer id for the administrator and whether one is recorded
func (r *Referrals) Referrer(ctx context.Context, referralID int64) (int64, bool, error) {
	r.RLock()
	defer r.RUnlock()

	var referrerID int64
	err := r.GetContext(ctx, &referrerID, r.Adopt(`SELECT referrer_id FROM referral_links WHERE referral_id = ?`), referralID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get referrer for %d: %w", referralID, err)
	}
	return referrerID, true, nil
}

// Referrals returns the administrator's referrals with per-referral earnings,
// attributed through referral commission transaction descriptions.
func (r *Referrals) Referrals(ctx context.Context, referrerID int64) ([]ReferralInfo, error) {
	r.RLock()
	defer r.RUnlock()

	query, err := pick(referralsQueries, r.Type(), CmdReferralsList, "referrals list")
	if err != nil {
		return nil, err
	}
	var res []ReferralInfo
	if err := r.SelectContext(ctx, &res, query, referrerID, referrerID); err != nil {
		return nil, fmt.Errorf("failed to get referrals for %d: %w", referrerID, err)
	}
	return res, nil
}

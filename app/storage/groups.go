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

// Groups is a storage for moderated groups, their administrators and the list
// of approved members. A group with moderation_enabled=false is skipped by the
// moderation policy until a payment or an explicit toggle re-enables it.
type Groups struct {
	*engine.SQL
	engine.RWLocker
}

// GroupInfo is a group record with its administrators and approved members
type GroupInfo struct {
	GroupID           int64     `db:"group_id"`
	Title             string    `db:"title"`
	ModerationEnabled bool      `db:"moderation_enabled"`
	CreatedAt         time.Time `db:"created_at"`
	LastActive        time.Time `db:"last_active"`
	AdminIDs          []int64   `db:"-"`
	MemberIDs         []int64   `db:"-"`
}

// groups-related command constants
const (
	CmdCreateGroupsTable engine.DBCmd = iota + 300
	CmdCreateGroupAdminsTable
	CmdCreateApprovedMembersTable
	CmdCreateGroupsIndexes
)

var groupsQueries = engine.NewQueryMap().
	Add(CmdCreateGroupsTable, engine.Query{
		Sqlite: `CREATE TABLE IF NOT EXISTS groups (
            group_id INTEGER PRIMARY KEY,
            title TEXT NOT NULL DEFAULT '',
            moderation_enabled BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            last_active DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
		Postgres: `CREATE TABLE IF NOT EXISTS groups (
            group_id BIGINT PRIMARY KEY,
            title VARCHAR(255) NOT NULL DEFAULT '',
            moderation_enabled BOOLEAN NOT NULL DEFAULT true,
            created_at TIMESTAMP NOT NULL DEFAULT NOW(),
            last_active TIMESTAMP NOT NULL DEFAULT NOW()
        )`,
	}).
	Add(CmdCreateGroupAdminsTable, engine.Query{
		Sqlite: `CREATE TABLE IF NOT EXISTS group_administrators (
            group_id INTEGER NOT NULL,
            admin_id INTEGER NOT NULL,
            PRIMARY KEY (group_id, admin_id)
        )`,
		Postgres: `CREATE TABLE IF NOT EXISTS group_administrators (
            group_id BIGINT NOT NULL,
            admin_id BIGINT NOT NULL,
            PRIMARY KEY (group_id, admin_id)
        )`,
	}).
	Add(CmdCreateApprovedMembersTable, engine.Query{
		Sqlite: `CREATE TABLE IF NOT EXISTS approved_members (
            group_id INTEGER NOT NULL,
            member_id INTEGER NOT NULL,
            approved_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (group_id, member_id)
        )`,
		Postgres: `CREATE TABLE IF NOT EXISTS approved_members (
            group_id BIGINT NOT NULL,
            member_id BIGINT NOT NULL,
            approved_at TIMESTAMP NOT NULL DEFAULT NOW(),
            PRIMARY KEY (group_id, member_id)
        )`,
	}).
	Add(CmdCreateGroupsIndexes, engine.Query{
		Sqlite: `
			CREATE INDEX IF NOT EXISTS idx_groups_moderation ON groups(moderation_enabled);
			CREATE INDEX IF NOT EXISTS idx_group_administrators_admin ON group_administrators(admin_id);
			CREATE INDEX IF NOT EXISTS idx_approved_members_member ON approved_members(member_id)`,
		Postgres: `
			CREATE INDEX IF NOT EXISTS idx_groups_moderation ON groups(moderation_enabled);
			CREATE INDEX IF NOT EXISTS idx_group_administrators_admin ON group_administrators(admin_id);
			CREATE INDEX IF NOT EXISTS idx_approved_members_member ON approved_members(member_id)`,
	})

// NewGroups creates a new Groups storage
func NewGroups(ctx context.Context, db *engine.SQL) (*Groups, error) {
	if db == nil {
		return nil, fmt.Errorf("db connection is nil")
	}
	res := &Groups{SQL: db, RWLocker: db.MakeLock()}

	tables := []engine.TableConfig{
		{Name: "groups", CreateTable: CmdCreateGroupsTable, QueriesMap: groupsQueries},
		{Name: "group_administrators", CreateTable: CmdCreateGroupAdminsTable, QueriesMap: groupsQueries},
		{Name: "approved_members", CreateTable: CmdCreateApprovedMembersTable, CreateIndexes: CmdCreateGroupsIndexes, QueriesMap: groupsQueries},
	}
	for _, cfg := range tables {
		if err := engine.InitTable(ctx, db, cfg); err != nil {
			return nil, fmt.Errorf("failed to init groups storage: %w", err)
		}
	}
	return res, nil
}

// Get returns the group with its administrators and approved members
func (g *Groups) Get(ctx context.Context, groupID int64) (GroupInfo, bool, error) {
	g.RLock()
	defer g.RUnlock()

	var info GroupInfo
	err := g.GetContext(ctx, &info, g.Adopt(`SELECT group_id, title, moderation_enabled, created_at, last_active
        FROM groups WHERE group_id = ?`), groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return GroupInfo{}, false, nil
	}
	if err != nil {
		return GroupInfo{}, false, fmt.Errorf("failed to get group %d: %w", groupID, err)
	}

	if err := g.SelectContext(ctx, &info.AdminIDs,
		g.Adopt(`SELECT admin_id FROM group_administrators WHERE group_id = ? ORDER BY admin_id`), groupID); err != nil {
		return GroupInfo{}, false, fmt.Errorf("failed to get admins for group %d: %w", groupID, err)
	}
	if err := g.SelectContext(ctx, &info.MemberIDs,
		g.Adopt(`SELECT member_id FROM approved_members WHERE group_id = ? ORDER BY member_id`), groupID); err != nil {
		return GroupInfo{}, false, fmt.Errorf("failed to get members for group %d: %w", groupID, err)
	}
	return info, true, nil
}

// SetModeration enables or disables moderation for the group, creating the
// group record if absent.
func (g *Groups) SetModeration(ctx context.Context, groupID int64, enabled bool) error {
	g.Lock()
	defer g.Unlock()

	if _, err := g.ExecContext(ctx, g.Adopt(`INSERT INTO groups (group_id, moderation_enabled) VALUES (?, ?)
        ON CONFLICT(group_id) DO UPDATE SET moderation_enabled = excluded.moderation_enabled,
        last_active = CURRENT_TIMESTAMP`), groupID, enabled); err != nil {
		return fmt.Errorf("failed to set moderation for group %d: %w", groupID, err)
	}
	log.Printf("[INFO] group %d moderation set to %v", groupID, enabled)
	return nil
}

// ModerationEnabled reports whether moderation is on for the group, false for
// unknown groups.
func (g *Groups) ModerationEnabled(ctx context.Context, groupID int64) (bool, error) {
	g.RLock()
	defer g.RUnlock()

	var enabled bool
	err := g.GetContext(ctx, &enabled, g.Adopt(`SELECT moderation_enabled FROM groups WHERE group_id = ?`), groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get moderation state for group %d: %w", groupID, err)
	}
	return enabled, nil
}

// UpdateAdmins syncs the group's administrator set to the given list, creating
// the group and any missing administrator records with the initial credits
// grant, all in one transaction.
func (g *Groups) UpdateAdmins(ctx context.Context, groupID int64, title string, adminIDs []int64, initialCredits int) error {
	g.Lock()
	defer g.Unlock()

	tx, err := g.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, g.Adopt(`INSERT INTO groups (group_id, title) VALUES (?, ?)
        ON CONFLICT(group_id) DO UPDATE SET title = excluded.title, last_active = CURRENT_TIMESTAMP`),
		groupID, title); err != nil {
		return fmt.Errorf("failed to upsert group %d: %w", groupID, err)
	}

	for _, adminID := range adminIDs {
		if _, err := tx.ExecContext(ctx, g.Adopt(`INSERT INTO administrators (admin_id, credits) VALUES (?, ?)
            ON CONFLICT(admin_id) DO NOTHING`), adminID, initialCredits); err != nil {
			return fmt.Errorf("failed to ensure admin %d: %w", adminID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, g.Adopt(`DELETE FROM group_administrators WHERE group_id = ?`), groupID); err != nil {
		return fmt.Errorf("failed to clear admins for group %d: %w", groupID, err)
	}
	for _, adminID := range adminIDs {
		if _, err := tx.ExecContext(ctx, g.Adopt(`INSERT INTO group_administrators (group_id, admin_id) VALUES (?, ?)`),
			groupID, adminID); err != nil {
			return fmt.Errorf("failed to add admin %d to group %d: %w", adminID, groupID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	log.Printf("[INFO] group %d admins updated, %d total", groupID, len(adminIDs))
	return nil
}

// AdminGroups returns the groups where the administrator is registered
func (g *Groups) AdminGroups(ctx context.Context, adminID int64) ([]GroupInfo, error) {
	g.RLock()
	defer g.RUnlock()

	var res []GroupInfo
	err := g.SelectContext(ctx, &res, g.Adopt(`SELECT g.group_id, g.title, g.moderation_enabled, g.created_at, g.last_active
        FROM groups g JOIN group_administrators ga ON g.group_id = ga.group_id
        WHERE ga.admin_id = ? ORDER BY g.group_id`), adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to get groups for admin %d: %w", adminID, err)
	}
	return res, nil
}

// PayingAdmins returns ids of the group's administrators with a positive balance
func (g *Groups) PayingAdmins(ctx context.Context, groupID int64) ([]int64, error) {
	g.RLock()
	defer g.RUnlock()

	var res []int64
	err := g.SelectContext(ctx, &res, g.Adopt(`SELECT a.admin_id FROM administrators a
        JOIN group_administrators ga ON a.admin_id = ga.admin_id
        WHERE ga.group_id = ? AND a.credits > 0 ORDER BY a.admin_id`), groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get paying admins for group %d: %w", groupID, err)
	}
	return res, nil
}

// ApproveMember marks the member as approved in the group, repeated approvals are no-ops
func (g *Groups) ApproveMember(ctx context.Context, groupID, memberID int64) error {
	g.Lock()
	defer g.Unlock()

	if _, err := g.ExecContext(ctx, g.Adopt(`INSERT INTO approved_members (group_id, member_id) VALUES (?, ?)
        ON CONFLICT(group_id, member_id) DO NOTHING`), groupID, memberID); err != nil {
		return fmt.Errorf("failed to approve member %d in group %d: %w", memberID, groupID, err)
	}
	return nil
}

// IsApprovedMember reports whether the member is approved in the group
func (g *Groups) IsApprovedMember(ctx context.Context, groupID, memberID int64) (bool, error) {
	g.RLock()
	defer g.RUnlock()

	var count int
	err := g.GetContext(ctx, &count, g.Adopt(`SELECT COUNT(*) FROM approved_members
        WHERE group_id = ? AND member_id = ?`), groupID, memberID)
	if err != nil {
		return false, fmt.Errorf("failed to check member %d in group %d: %w", memberID, groupID, err)
	}
	return count > 0, nil
}

// RemoveMember removes the member's approval from the group, or from all
// groups when groupID is 0.
func (g *Groups) RemoveMember(ctx context.Context, groupID, memberID int64) error {
	g.Lock()
	defer g.Unlock()

	query := `DELETE FROM approved_members WHERE group_id = ? AND member_id = ?`
	args := []any{groupID, memberID}
	if groupID == 0 {
		query = `DELETE FROM approved_members WHERE member_id = ?`
		args = []any{memberID}
	}
	if _, err := g.ExecContext(ctx, g.Adopt(query), args...); err != nil {
		return fmt.Errorf("failed to remove member %d: %w", memberID, err)
	}
	return nil
}

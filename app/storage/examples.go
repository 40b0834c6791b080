package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/umnov/tg-neuromod/app/storage/engine"
)

// Examples is a storage for labeled spam/ham examples used as few-shot prompts
// by the classifier. Examples are scoped: admin_id=0 keeps the shared global set,
// any other value keeps an administrator's personal set.
type Examples struct {
	*engine.SQL
	engine.RWLocker
}

// GlobalScope is the admin id of the shared example set
const GlobalScope int64 = 0

// Example is a single labeled example. Score > 0 means spam with the given
// confidence percent, score < 0 means not spam.
type Example struct {
	Text      string    `db:"text" json:"text"`
	Score     int       `db:"score" json:"score"`
	Name      string    `db:"name" json:"name,omitempty"`
	Bio       string    `db:"bio" json:"bio,omitempty"`
	AdminID   int64     `db:"admin_id" json:"admin_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

// examples-related command constants
const (
	CmdCreateExamplesTable engine.DBCmd = iota + 100
	CmdCreateExamplesIndexes
	CmdAddExample
)

var examplesQueries = engine.NewQueryMap().
	Add(CmdCreateExamplesTable, engine.Query{
		Sqlite: `CREATE TABLE IF NOT EXISTS spam_examples (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            admin_id INTEGER NOT NULL DEFAULT 0,
            text TEXT NOT NULL,
            name TEXT NOT NULL DEFAULT '',
            bio TEXT NOT NULL DEFAULT '',
            score INTEGER NOT NULL CHECK (score BETWEEN -100 AND 100),
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            UNIQUE(admin_id, text)
        )`,
		Postgres: `CREATE TABLE IF NOT EXISTS spam_examples (
            id SERIAL PRIMARY KEY,
            admin_id BIGINT NOT NULL DEFAULT 0,
            text TEXT NOT NULL,
            name TEXT NOT NULL DEFAULT '',
            bio TEXT NOT NULL DEFAULT '',
            score INTEGER NOT NULL CHECK (score BETWEEN -100 AND 100),
            created_at TIMESTAMP DEFAULT NOW(),
            UNIQUE(admin_id, text)
        )`,
	}).
	Add(CmdCreateExamplesIndexes, engine.Query{
		Sqlite: `
			CREATE INDEX IF NOT EXISTS idx_spam_examples_admin ON spam_examples(admin_id);
			CREATE INDEX IF NOT EXISTS idx_spam_examples_created ON spam_examples(created_at)`,
		Postgres: `
			CREATE INDEX IF NOT EXISTS idx_spam_examples_admin ON spam_examples(admin_id);
			CREATE INDEX IF NOT EXISTS idx_spam_examples_created ON spam_examples(created_at)`,
	}).
	Add(CmdAddExample, engine.Query{
		Sqlite: `INSERT INTO spam_examples (admin_id, text, name, bio, score) VALUES (?, ?, ?, ?, ?)
                 ON CONFLICT(admin_id, text) DO UPDATE
                 SET name = excluded.name, bio = excluded.bio, score = excluded.score, created_at = CURRENT_TIMESTAMP`,
		Postgres: `INSERT INTO spam_examples (admin_id, text, name, bio, score) VALUES ($1, $2, $3, $4, $5)
                 ON CONFLICT (admin_id, text) DO UPDATE
                 SET name = EXCLUDED.name, bio = EXCLUDED.bio, score = EXCLUDED.score, created_at = NOW()`,
	})

// NewExamples creates a new Examples storage
func NewExamples(ctx context.Context, db *engine.SQL) (*Examples, error) {
	if db == nil {
		return nil, fmt.Errorf("db connection is nil")
	}
	res := &Examples{SQL: db, RWLocker: db.MakeLock()}
	cfg := engine.TableConfig{
		Name:          "spam_examples",
		CreateTable:   CmdCreateExamplesTable,
		CreateIndexes: CmdCreateExamplesIndexes,
		QueriesMap:    examplesQueries,
	}
	if err := engine.InitTable(ctx, db, cfg); err != nil {
		return nil, fmt.Errorf("failed to init examples storage: %w", err)
	}
	return res, nil
}

// Read returns examples for the prompt, newest first. For the global scope only
// the shared set is returned, for an admin scope the shared set is combined
// with that administrator's own examples.
func (e *Examples) Read(ctx context.Context, adminID int64) ([]Example, error) {
	e.RLock()
	defer e.RUnlock()

	query := `SELECT text, score, name, bio, admin_id, created_at FROM spam_examples
              WHERE admin_id = 0 ORDER BY created_at DESC, id DESC`
	args := []any{}
	if adminID != GlobalScope {
		query = `SELECT text, score, name, bio, admin_id, created_at FROM spam_examples
                 WHERE admin_id = 0 OR admin_id = ? ORDER BY created_at DESC, id DESC`
		args = []any{adminID}
	}

	var res []Example
	if err := e.SelectContext(ctx, &res, e.Adopt(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get examples: %w", err)
	}
	log.Printf("[DEBUG] read %d examples, scope admin_id:%d", len(res), adminID)
	return res, nil
}

// Add inserts an example into the given scope. An existing example with the
// same text in the same scope is replaced in a single statement, keeping
// exactly one example per distinct text per scope.
func (e *Examples) Add(ctx context.Context, adminID int64, ex Example) error {
	if ex.Text == "" {
		return fmt.Errorf("example text can't be empty")
	}
	if ex.Score < -100 || ex.Score > 100 {
		return fmt.Errorf("example score %d out of range [-100, 100]", ex.Score)
	}

	dbgMsg := ex.Text
	if len(dbgMsg) > 1024 {
		dbgMsg = dbgMsg[:1024] + "..."
	}
	log.Printf("[DEBUG] adding example, scope admin_id:%d, score:%d, %q", adminID, ex.Score, dbgMsg)

	e.Lock()
	defer e.Unlock()

	query, err := pick(examplesQueries, e.Type(), CmdAddExample, "add example")
	if err != nil {
		return err
	}
	if _, err := e.ExecContext(ctx, query, adminID, ex.Text, ex.Name, ex.Bio, ex.Score); err != nil {
		return fmt.Errorf("failed to add example: %w", err)
	}
	return nil
}

// Delete removes the example matching text exactly in the given scope.
// Reports whether anything was removed, a no-op is not an error.
func (e *Examples) Delete(ctx context.Context, adminID int64, text string) (bool, error) {
	log.Printf("[DEBUG] deleting example, scope admin_id:%d, %q", adminID, text)
	e.Lock()
	defer e.Unlock()

	result, err := e.ExecContext(ctx, e.Adopt(`DELETE FROM spam_examples WHERE admin_id = ? AND text = ?`), adminID, text)
	if err != nil {
		return false, fmt.Errorf("failed to remove example: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

// Import reads json-lines examples from the reader and loads them into the
// storage in a single transaction with the same replace semantics as Add.
// Used for bootstrap and migration, safe to run repeatedly.
func (e *Examples) Import(ctx context.Context, r io.Reader) (int, error) {
	if r == nil {
		return 0, fmt.Errorf("reader cannot be nil")
	}

	e.Lock()
	defer e.Unlock()

	tx, err := e.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	query, err := pick(examplesQueries, e.Type(), CmdAddExample, "import example")
	if err != nil {
		return 0, err
	}

	scanner := bufio.NewScanner(r)
	const maxScanTokenSize = 64 * 1024 // 64KB max line length
	buf := make([]byte, maxScanTokenSize)
	scanner.Buffer(buf, maxScanTokenSize)

	added := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ex Example
		if err := json.Unmarshal(line, &ex); err != nil {
			return 0, fmt.Errorf("failed to parse example line %d: %w", added+1, err)
		}
		if ex.Text == "" {
			continue
		}
		if ex.Score < -100 || ex.Score > 100 {
			return 0, fmt.Errorf("example score %d out of range [-100, 100]: %q", ex.Score, ex.Text)
		}
		if _, err := tx.ExecContext(ctx, query, ex.AdminID, ex.Text, ex.Name, ex.Bio, ex.Score); err != nil {
			return 0, fmt.Errorf("failed to import example: %w", err)
		}
		added++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("error reading input: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	log.Printf("[INFO] imported %d examples", added)
	return added, nil
}

// ExamplesStats returns statistics about examples
type ExamplesStats struct {
	TotalSpam  int `db:"spam_count"`
	TotalHam   int `db:"ham_count"`
	GlobalOnly int `db:"global_count"`
	PerAdmin   int `db:"admin_count"`
}

// String provides a string representation of the statistics
func (st *ExamplesStats) String() string {
	return fmt.Sprintf("spam: %d, ham: %d, global: %d, per-admin: %d",
		st.TotalSpam, st.TotalHam, st.GlobalOnly, st.PerAdmin)
}

// Stats returns statistics about examples
func (e *Examples) Stats(ctx context.Context) (*ExamplesStats, error) {
	e.RLock()
	defer e.RUnlock()

	query := e.Adopt(`
        SELECT
            COUNT(CASE WHEN score > 0 THEN 1 END) as spam_count,
            COUNT(CASE WHEN score < 0 THEN 1 END) as ham_count,
            COUNT(CASE WHEN admin_id = 0 THEN 1 END) as global_count,
            COUNT(CASE WHEN admin_id <> 0 THEN 1 END) as admin_count
        FROM spam_examples`)

	var stats ExamplesStats
	if err := e.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &stats, nil
}

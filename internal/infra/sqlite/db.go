// Package sqlite is the durable store. It implements the domain store
// interfaces over a single SQLite database.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/domain"
)

// timeFormat is fixed-width so stored timestamps compare correctly as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// DB wraps the SQLite handle. All store implementations hang off it.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies all
// migrations. Use ":memory:" for tests.
func Open(path string) (*DB, error) {
	handle, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// modernc.org/sqlite serializes writes itself; a single connection
	// avoids SQLITE_BUSY under concurrent writers and keeps :memory:
	// databases from silently forking per connection.
	handle.SetMaxOpenConns(1)

	db := &DB{db: handle}
	if err := db.migrate(); err != nil {
		handle.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the underlying handle.
func (db *DB) Close() error { return db.db.Close() }

// Migrations returns the schema statements. Each string is a single SQL
// statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		// Append-only transaction ledger. No UPDATE or DELETE path exists.
		`CREATE TABLE IF NOT EXISTS ledger_entries (
			id            TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL,
			currency      TEXT NOT NULL,
			amount        INTEGER NOT NULL,
			type          TEXT NOT NULL,
			source        TEXT NOT NULL,
			timestamp     TEXT NOT NULL,
			balance_after INTEGER NOT NULL,
			description   TEXT NOT NULL DEFAULT '',
			unique_id     TEXT NOT NULL DEFAULT '',
			metadata      TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_user ON ledger_entries(user_id, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_idempotency ON ledger_entries(user_id, source, unique_id)`,

		// Per-user economy snapshot
		`CREATE TABLE IF NOT EXISTS user_economy (
			user_id          TEXT PRIMARY KEY,
			plan             TEXT NOT NULL,
			coins            INTEGER NOT NULL DEFAULT 0,
			xp               INTEGER NOT NULL DEFAULT 0,
			level            INTEGER NOT NULL DEFAULT 1,
			xp_to_next_level INTEGER NOT NULL DEFAULT 1000,
			checkin_streak   INTEGER NOT NULL DEFAULT 0,
			last_checkin     TEXT,
			updated_at       TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		// Mission submission activity
		`CREATE TABLE IF NOT EXISTS mission_submissions (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id      TEXT NOT NULL,
			mission_id   TEXT NOT NULL,
			submitted_at TEXT NOT NULL,
			approved     INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_user ON mission_submissions(user_id, submitted_at)`,

		// Store redemption activity
		`CREATE TABLE IF NOT EXISTS store_redemptions (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id     TEXT NOT NULL,
			item_id     TEXT NOT NULL,
			redeemed_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_redemptions_user ON store_redemptions(user_id, redeemed_at)`,

		// Review queue for pending mission submissions
		`CREATE TABLE IF NOT EXISTS review_queue (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id     TEXT NOT NULL,
			mission_id  TEXT NOT NULL,
			enqueued_at TEXT NOT NULL,
			processed   INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_queue_pending ON review_queue(processed, enqueued_at)`,

		// Emitted notifications
		`CREATE TABLE IF NOT EXISTS notifications (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL,
			kind       TEXT NOT NULL,
			title      TEXT NOT NULL,
			body       TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			read       INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at)`,
	}
}

func (db *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

var (
	_ domain.LedgerStore   = (*DB)(nil)
	_ domain.UserStore     = (*DB)(nil)
	_ domain.ActivityStore = (*DB)(nil)
)

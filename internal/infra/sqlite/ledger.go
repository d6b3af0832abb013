package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/domain"
)

// ─── Ledger Store ───────────────────────────────────────────────────────────

// Append persists one ledger entry. The table is append-only: there is no
// update or delete operation anywhere in this package.
func (db *DB) Append(entry domain.LedgerEntry) error {
	meta, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("append ledger entry %s: %w", entry.ID, err)
	}

	_, err = db.db.Exec(`
		INSERT INTO ledger_entries
			(id, user_id, currency, amount, type, source, timestamp, balance_after, description, unique_id, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.UserID, string(entry.Currency), entry.Amount, string(entry.Type),
		string(entry.Source), entry.Timestamp.UTC().Format(timeFormat),
		entry.BalanceAfter, entry.Description, entry.Metadata[domain.MetaUniqueID], string(meta))
	if err != nil {
		return fmt.Errorf("append ledger entry %s: %w", entry.ID, err)
	}
	return nil
}

// History returns all of a user's entries, newest first.
func (db *DB) History(userID string) ([]domain.LedgerEntry, error) {
	rows, err := db.db.Query(`
		SELECT id, user_id, currency, amount, type, source, timestamp, balance_after, description, metadata
		FROM ledger_entries
		WHERE user_id = ?
		ORDER BY timestamp DESC, rowid DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ledger history for %s: %w", userID, err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("ledger history for %s: %w", userID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// HasEntry reports whether an idempotency-matching entry exists. An empty
// uniqueID matches any entry from that source.
func (db *DB) HasEntry(userID string, source domain.TransactionSource, uniqueID string) (bool, error) {
	var query string
	args := []any{userID, string(source)}
	if uniqueID == "" {
		query = `SELECT 1 FROM ledger_entries WHERE user_id = ? AND source = ? LIMIT 1`
	} else {
		query = `SELECT 1 FROM ledger_entries WHERE user_id = ? AND source = ? AND unique_id = ? LIMIT 1`
		args = append(args, uniqueID)
	}

	var one int
	err := db.db.QueryRow(query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger lookup for %s: %w", userID, err)
	}
	return true, nil
}

func scanLedgerEntry(rows *sql.Rows) (domain.LedgerEntry, error) {
	var (
		e        domain.LedgerEntry
		currency string
		txType   string
		source   string
		ts       string
		meta     string
	)
	if err := rows.Scan(&e.ID, &e.UserID, &currency, &e.Amount, &txType, &source,
		&ts, &e.BalanceAfter, &e.Description, &meta); err != nil {
		return domain.LedgerEntry{}, err
	}

	e.Currency = domain.Currency(currency)
	e.Type = domain.TransactionType(txType)
	e.Source = domain.TransactionSource(source)

	parsed, err := time.Parse(timeFormat, ts)
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("parse timestamp %q: %w", ts, err)
	}
	e.Timestamp = parsed

	if meta != "" && meta != "{}" && meta != "null" {
		if err := json.Unmarshal([]byte(meta), &e.Metadata); err != nil {
			return domain.LedgerEntry{}, fmt.Errorf("parse metadata: %w", err)
		}
	}
	return e, nil
}

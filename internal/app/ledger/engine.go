// Package ledger implements the write authority for economy ledger entries.
//
// Every coin and XP mutation in the system passes through Engine.Record. The
// engine validates the signed-amount convention, appends to the durable
// store, and emits a telemetry event with the derived pre-transaction
// balance. It does not reject duplicates itself — idempotency suppression is
// the economy façade's responsibility, via HasTransactionOfType.
package ledger

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/domain"
)

// Engine writes ledger entries. It holds no mutable state of its own; the
// store and sink are injected and all serialization happens in the façade.
type Engine struct {
	store domain.LedgerStore
	sink  domain.EventSink

	// Injectable clock for testing.
	now func() time.Time
}

// NewEngine creates a ledger engine.
func NewEngine(store domain.LedgerStore, sink domain.EventSink) *Engine {
	if sink == nil {
		sink = domain.NopSink{}
	}
	return &Engine{store: store, sink: sink, now: time.Now}
}

// SetClock overrides the engine clock. Test hook.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// ─── Recording ──────────────────────────────────────────────────────────────

// Record appends one immutable entry and emits telemetry.
//
// The signed convention is enforced here: earn entries must carry amount ≥ 0
// and spend entries amount ≤ 0; violations are programmer errors and fail
// loud with ErrInvalidAmount. A storage failure is fatal to the enclosing
// call — no partial entry is ever persisted, and the sink is not notified.
func (e *Engine) Record(userID string, currency domain.Currency, amount int64, txType domain.TransactionType, source domain.TransactionSource, description string, balanceAfter int64, metadata map[string]string) (domain.LedgerEntry, error) {
	switch txType {
	case domain.TxEarn:
		if amount < 0 {
			return domain.LedgerEntry{}, fmt.Errorf("earn entry with negative amount %d: %w", amount, domain.ErrInvalidAmount)
		}
	case domain.TxSpend:
		if amount > 0 {
			return domain.LedgerEntry{}, fmt.Errorf("spend entry with positive amount %d: %w", amount, domain.ErrInvalidAmount)
		}
	default:
		return domain.LedgerEntry{}, fmt.Errorf("transaction type %q: %w", txType, domain.ErrInvalidAmount)
	}

	entry := domain.LedgerEntry{
		ID:           uuid.NewString(),
		UserID:       userID,
		Currency:     currency,
		Amount:       amount,
		Type:         txType,
		Source:       source,
		Timestamp:    e.now(),
		BalanceAfter: balanceAfter,
		Description:  description,
		Metadata:     metadata,
	}

	if err := e.store.Append(entry); err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("append ledger entry: %w", err)
	}

	e.sink.TransactionRecorded(entry, entry.BalanceBefore())
	return entry, nil
}

// ─── Queries ────────────────────────────────────────────────────────────────

// History returns all of a user's entries, newest first.
func (e *Engine) History(userID string) ([]domain.LedgerEntry, error) {
	return e.store.History(userID)
}

// HasTransactionOfType reports whether a (userID, source, uniqueID) entry
// already exists. Callers check this before any non-idempotent grant, e.g. a
// jackpot round payout.
func (e *Engine) HasTransactionOfType(userID string, source domain.TransactionSource, uniqueID string) (bool, error) {
	return e.store.HasEntry(userID, source, uniqueID)
}

// CoinSum replays a user's COIN entries. The audit engine compares this
// against the stored snapshot.
func (e *Engine) CoinSum(userID string) (int64, error) {
	entries, err := e.store.History(userID)
	if err != nil {
		return 0, err
	}
	var sum int64
	for _, entry := range entries {
		if entry.Currency == domain.CurrencyCoin {
			sum += entry.Amount
		}
	}
	return sum, nil
}

// ─── Amount Helpers ─────────────────────────────────────────────────────────

// FloorAmount converts a fractional reward template value to whole units,
// rejecting non-finite input loudly.
func FloorAmount(v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite amount %f: %w", v, domain.ErrInvalidAmount)
	}
	return int64(math.Floor(v)), nil
}

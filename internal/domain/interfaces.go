package domain

import "time"

// ─── Store Interfaces ───────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.
// There is no module-level mutable state anywhere — stores are passed in.

// LedgerStore is the append-only durable home of ledger entries.
// Implementations must never expose update or delete operations.
type LedgerStore interface {
	// Append persists one entry. A returned error means nothing was written.
	Append(entry LedgerEntry) error

	// History returns all of a user's entries, newest first.
	History(userID string) ([]LedgerEntry, error)

	// HasEntry reports whether an entry exists for (userID, source) with the
	// given idempotency suffix in metadata[MetaUniqueID]. An empty uniqueID
	// matches any entry from that source.
	HasEntry(userID string, source TransactionSource, uniqueID string) (bool, error)
}

// UserStore holds the per-user economy snapshot.
type UserStore interface {
	// Get returns the snapshot, or ErrUserNotFound.
	Get(userID string) (*UserEconomyState, error)

	// Save upserts the snapshot.
	Save(state UserEconomyState) error
}

// ActivityStore records non-ledger activity the anomaly detector and the
// daily-limit check window over.
type ActivityStore interface {
	RecordSubmission(userID, missionID string, at time.Time, approved bool) error

	// SubmissionsSince counts a user's submissions after the cutoff.
	SubmissionsSince(userID string, since time.Time) (int, error)

	// ApprovedSubmissionsOn counts approvals on the calendar day of `day`.
	ApprovedSubmissionsOn(userID string, day time.Time) (int, error)

	RecordRedemption(userID, itemID string, at time.Time) error

	// RedemptionsSince counts a user's store redemptions after the cutoff.
	RedemptionsSince(userID string, since time.Time) (int, error)

	// PendingQueue returns unprocessed review-queue entries.
	PendingQueue() ([]QueueEntry, error)

	// ActiveUserIDs lists users with any recorded activity.
	ActiveUserIDs() ([]string, error)
}

// ─── Sinks ──────────────────────────────────────────────────────────────────

// EventSink receives fire-and-forget telemetry. Implementations must never
// fail back into the economic call path — methods return nothing.
type EventSink interface {
	TransactionRecorded(entry LedgerEntry, balanceBefore int64)
	AnomalyFlagged(anomaly Anomaly)
	ValidationWarning(scope, reason string)
	Notify(notification Notification)
}

// NopSink discards all events. Useful in tests and previews.
type NopSink struct{}

func (NopSink) TransactionRecorded(LedgerEntry, int64) {}
func (NopSink) AnomalyFlagged(Anomaly)                 {}
func (NopSink) ValidationWarning(string, string)       {}
func (NopSink) Notify(Notification)                    {}

// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture — it depends on nothing.
package domain

import "time"

// ─── Currency & Transaction Types ───────────────────────────────────────────

// Currency identifies which balance a ledger entry moves.
type Currency string

const (
	CurrencyCoin Currency = "COIN"
	CurrencyXP   Currency = "XP"
)

// TransactionType represents the accounting side of a ledger entry.
// The sign convention is canonical: earn entries carry amount ≥ 0,
// spend entries carry amount ≤ 0. There is no unsigned-magnitude form.
type TransactionType string

const (
	TxEarn  TransactionType = "earn"
	TxSpend TransactionType = "spend"
)

// TransactionSource is the business reason for a ledger entry.
// The set is closed: new sources are added here, never invented at call sites.
type TransactionSource string

const (
	SourceMissionCompletion TransactionSource = "mission_completion"
	SourceDailyCheckIn      TransactionSource = "daily_check_in"
	SourceCheckInBonus      TransactionSource = "checkin_bonus"
	SourceStoreRedemption   TransactionSource = "store_redemption"
	SourceEventEntry        TransactionSource = "event_entry"
	SourceJackpotEntry      TransactionSource = "jackpot_entry"
	SourceJackpotWin        TransactionSource = "jackpot_win"
	SourceAdminAdjustment   TransactionSource = "admin_adjustment"
	SourcePunishment        TransactionSource = "punishment"
	SourceAchievementReward TransactionSource = "achievement_reward"
)

// MetaUniqueID is the metadata key carrying the caller-supplied idempotency
// suffix. (userID, source, metadata[MetaUniqueID]) forms the idempotency key.
const MetaUniqueID = "unique_id"

// ─── Ledger Entry ───────────────────────────────────────────────────────────

// LedgerEntry is a single immutable row in the economy ledger.
// Entries are never edited or deleted; corrections are new offsetting entries.
type LedgerEntry struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	Currency     Currency          `json:"currency"`
	Amount       int64             `json:"amount"` // Signed: earn ≥ 0, spend ≤ 0
	Type         TransactionType   `json:"type"`
	Source       TransactionSource `json:"source"`
	Timestamp    time.Time         `json:"timestamp"`
	BalanceAfter int64             `json:"balance_after"` // Snapshot at write time
	Description  string            `json:"description,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// BalanceBefore derives the pre-transaction balance from the snapshot.
func (e LedgerEntry) BalanceBefore() int64 {
	return e.BalanceAfter - e.Amount
}

// ─── User Economy State ─────────────────────────────────────────────────────

// UserEconomyState is the mutable per-user snapshot kept consistent with the
// ledger. Invariant: Coins ≥ 0, XP ≥ 0, and Level always matches the level
// computed from XP (drift is detected and repaired, never tolerated).
type UserEconomyState struct {
	UserID        string    `json:"user_id"`
	Plan          string    `json:"plan"`
	Coins         int64     `json:"coins"`
	XP            int64     `json:"xp"`
	Level         int       `json:"level"`
	XPToNextLevel int64     `json:"xp_to_next_level"` // Absolute XP at which the next level starts
	CheckInStreak int       `json:"check_in_streak"`
	LastCheckIn   time.Time `json:"last_check_in"`
}

// ─── Plan Tier ──────────────────────────────────────────────────────────────

// PlanTier describes one subscription tier. The tier set is static
// configuration; tiers are looked up by name, never mutated.
type PlanTier struct {
	Name              string  `json:"name"`
	Multiplier        float64 `json:"multiplier"`          // Coins only, never XP; ≥ 1.0
	DailyMissionLimit *int    `json:"daily_mission_limit"` // nil = unlimited
	DiscountRate      float64 `json:"discount_rate"`       // 0.10 = 10% off store prices
	HierarchyRank     int     `json:"hierarchy_rank"`      // Higher = better plan
}

// PlanChange classifies a plan switch by hierarchy rank.
type PlanChange string

const (
	PlanUpgrade   PlanChange = "upgrade"
	PlanDowngrade PlanChange = "downgrade"
	PlanCancel    PlanChange = "cancel"
	PlanUnchanged PlanChange = "unchanged"
)

// ─── Mission & Store ────────────────────────────────────────────────────────

// Mission describes a rewardable task. Reward fields are declared as floats
// because mission templates may carry fractional values; granted amounts are
// always floored to whole units.
type Mission struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Type  string  `json:"type"` // "standard", "special", ...
	XP    float64 `json:"xp"`
	Coins float64 `json:"coins"`
}

// MissionTypeSpecial exempts a mission from reward-tier validation.
const MissionTypeSpecial = "special"

// StoreItem is a purchasable catalog entry.
type StoreItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Class       string `json:"class"` // "standard", "premium", "exclusive", ...
	Price       int64  `json:"price"`
	MinPlanRank int    `json:"min_plan_rank"` // 0 = available to every tier
}

// ─── Anomaly ────────────────────────────────────────────────────────────────

// AnomalyType classifies which subsystem a finding concerns.
type AnomalyType string

const (
	AnomalyEconomy  AnomalyType = "economy"
	AnomalyMissions AnomalyType = "missions"
	AnomalyStore    AnomalyType = "store"
	AnomalyGrowth   AnomalyType = "growth"
	AnomalyPattern  AnomalyType = "pattern"
)

// AnomalySeverity grades a finding. Findings are advisory only.
type AnomalySeverity string

const (
	SevLow      AnomalySeverity = "low"
	SevMedium   AnomalySeverity = "medium"
	SevHigh     AnomalySeverity = "high"
	SevCritical AnomalySeverity = "critical"
)

// Anomaly is the ephemeral output of a detector scan. It is never persisted
// as truth — the caller consumes and discards it.
type Anomaly struct {
	Type        AnomalyType       `json:"type"`
	Severity    AnomalySeverity   `json:"severity"`
	Message     string            `json:"message"`
	RelatedData map[string]string `json:"related_data,omitempty"`
}

// ─── Validation ─────────────────────────────────────────────────────────────

// ValidationResult is the pure outcome of a consistency check. Invalid
// results are returned values, never panics or errors — the caller decides
// whether to log, warn, or block.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Reason   string   `json:"reason,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// OK is the zero-friction valid result.
func OK() ValidationResult { return ValidationResult{Valid: true} }

// Invalid builds a failing result with a reason.
func Invalid(reason string) ValidationResult {
	return ValidationResult{Valid: false, Reason: reason}
}

// Warn returns a valid result carrying warnings.
func Warn(warnings ...string) ValidationResult {
	return ValidationResult{Valid: true, Warnings: warnings}
}

// ─── Notifications ──────────────────────────────────────────────────────────

// NotificationKind tags what a notification announces.
type NotificationKind string

const (
	NotifyLevelUp      NotificationKind = "level_up"
	NotifyMilestone    NotificationKind = "milestone_bonus"
	NotifyCheckInBonus NotificationKind = "checkin_bonus"
)

// Notification is an outbound user-facing event. Delivery and rendering are
// external concerns; this core only emits.
type Notification struct {
	UserID    string           `json:"user_id"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Body      string           `json:"body,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// ─── Review Queue ───────────────────────────────────────────────────────────

// QueueEntry is a mission submission awaiting review. Stale entries are an
// operational anomaly, not an economic one.
type QueueEntry struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	MissionID  string    `json:"mission_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	Processed  bool      `json:"processed"`
}

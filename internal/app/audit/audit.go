// Package audit implements the pure consistency checks run at write
// boundaries.
//
// Validators are stateless functions from an entity to a ValidationResult.
// Failures are returned, never thrown: the caller decides to log, warn, or
// block, and only admin-facing writes hard-block. The level-integrity repair
// here is the counterpart of the drift warning — checked and fixed, not
// enforced by construction.
package audit

import (
	"fmt"

	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/app/level"
	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/domain"
)

// ─── Constants ──────────────────────────────────────────────────────────────

const (
	// XPTierTolerance is how far a mission XP reward may sit from a
	// recognized tier before a warning fires.
	XPTierTolerance = 50

	// MaxLevelDrift is the tolerated gap between stored level and the level
	// computed from XP. Beyond it the snapshot needs repair.
	MaxLevelDrift = 1
)

// RewardTiers are the recognized mission XP reward sizes. Missions of type
// "special" are exempt from tier checking.
var RewardTiers = []int64{50, 100, 250, 500, 1000}

// ─── Mission Reward Validation ──────────────────────────────────────────────

// ValidateMissionReward rejects negative rewards outright and warns when the
// XP reward does not sit within tolerance of a recognized tier.
func ValidateMissionReward(m domain.Mission) domain.ValidationResult {
	if m.XP < 0 || m.Coins < 0 {
		return domain.Invalid(fmt.Sprintf("mission %s has negative reward (xp=%.0f coins=%.0f)", m.ID, m.XP, m.Coins))
	}
	if m.Type == domain.MissionTypeSpecial {
		return domain.OK()
	}

	xp := int64(m.XP)
	for _, tier := range RewardTiers {
		if xp >= tier-XPTierTolerance && xp <= tier+XPTierTolerance {
			return domain.OK()
		}
	}
	return domain.Warn(fmt.Sprintf("mission %s XP reward %d matches no tier (±%d)", m.ID, xp, XPTierTolerance))
}

// ─── Transaction Validation ─────────────────────────────────────────────────

// ValidateEconomyTransaction enforces the canonical signed convention:
// earn ⇒ amount ≥ 0, spend ⇒ amount ≤ 0.
func ValidateEconomyTransaction(e domain.LedgerEntry) domain.ValidationResult {
	switch e.Type {
	case domain.TxEarn:
		if e.Amount < 0 {
			return domain.Invalid(fmt.Sprintf("earn entry %s carries negative amount %d", e.ID, e.Amount))
		}
	case domain.TxSpend:
		if e.Amount > 0 {
			return domain.Invalid(fmt.Sprintf("spend entry %s carries positive amount %d", e.ID, e.Amount))
		}
	default:
		return domain.Invalid(fmt.Sprintf("entry %s has unknown transaction type %q", e.ID, e.Type))
	}
	return domain.OK()
}

// ─── Store Redemption Validation ────────────────────────────────────────────

// ValidateStoreRedemption runs before any spend is written: buyers must not
// already be in a negative-balance state, and tier-restricted item classes
// are closed to plans below the item's minimum rank.
func ValidateStoreRedemption(user domain.UserEconomyState, item domain.StoreItem, planRank int) domain.ValidationResult {
	if user.Coins < 0 {
		return domain.Invalid(fmt.Sprintf("user %s has negative balance %d", user.UserID, user.Coins))
	}
	if planRank < item.MinPlanRank {
		return domain.Invalid(fmt.Sprintf("item %s (class %s) requires plan rank %d, user has %d", item.ID, item.Class, item.MinPlanRank, planRank))
	}
	return domain.OK()
}

// ─── Ranking Validation ─────────────────────────────────────────────────────

// ValidateRankingAfterChange rejects negative XP and warns — without hard
// failing — when the stored level drifts more than one level from the level
// computed from XP. The warning signals that EnsureLevelIntegrity should run.
func ValidateRankingAfterChange(user domain.UserEconomyState) domain.ValidationResult {
	if user.XP < 0 {
		return domain.Invalid(fmt.Sprintf("user %s has negative XP %d", user.UserID, user.XP))
	}

	computed := level.ComputeLevelInfo(user.XP).Level
	drift := user.Level - computed
	if drift < 0 {
		drift = -drift
	}
	if drift > MaxLevelDrift {
		return domain.Warn(fmt.Sprintf("user %s stored level %d deviates from computed %d", user.UserID, user.Level, computed))
	}
	return domain.OK()
}

// EnsureLevelIntegrity recomputes the level fields from XP, repairing any
// drift in place. Returns whether a repair was needed.
func EnsureLevelIntegrity(user *domain.UserEconomyState) bool {
	info := level.ComputeLevelInfo(user.XP)
	if user.Level == info.Level && user.XPToNextLevel == info.XPToNextLevel {
		return false
	}
	user.Level = info.Level
	user.XPToNextLevel = info.XPToNextLevel
	return true
}

// ─── Ledger Replay Audit ────────────────────────────────────────────────────

// AuditUser replays the COIN ledger against the stored snapshot. The ledger
// is the source of truth; a mismatch means the snapshot drifted.
func AuditUser(user domain.UserEconomyState, entries []domain.LedgerEntry) domain.ValidationResult {
	var sum int64
	for _, e := range entries {
		if e.Currency == domain.CurrencyCoin {
			sum += e.Amount
		}
	}
	if sum != user.Coins {
		return domain.Invalid(fmt.Sprintf("user %s snapshot coins %d != ledger sum %d", user.UserID, user.Coins, sum))
	}
	return domain.OK()
}

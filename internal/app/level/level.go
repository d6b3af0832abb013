// Package level implements XP↔level math and level-up processing.
//
// The calculator is pure and deterministic: level thresholds follow the
// triangular-number curve (1000, 3000, 6000, 10000, ... total XP). Level-up
// processing detects every threshold crossed by an XP delta and computes
// milestone bonuses, but never writes the ledger itself — the economy
// façade routes bonuses through the ledger engine.
package level

import (
	"fmt"
	"math"

	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/domain"
)

// ─── Constants ──────────────────────────────────────────────────────────────

const (
	// XPUnit is the base step of the level curve.
	XPUnit = 1000

	// DefaultMilestoneInterval grants a bonus every N levels.
	DefaultMilestoneInterval = 5

	// DefaultMilestoneBonus is the coin bonus per milestone crossed.
	DefaultMilestoneBonus = 50
)

// ─── Level Calculator ───────────────────────────────────────────────────────

// Info is the result of the pure level computation.
type Info struct {
	Level         int   `json:"level"`
	XPToNextLevel int64 `json:"xp_to_next_level"` // Absolute XP at which the next level starts
}

// ComputeLevelInfo maps total XP to a level. XP below the first threshold is
// always level 1. Above it:
//
//	level = floor((1 + sqrt(1 + 8·xp/1000)) / 2)
func ComputeLevelInfo(totalXP int64) Info {
	if totalXP < XPUnit {
		return Info{Level: 1, XPToNextLevel: XPUnit}
	}
	lvl := int(math.Floor((1 + math.Sqrt(1+8*float64(totalXP)/XPUnit)) / 2))
	return Info{Level: lvl, XPToNextLevel: XPToNextLevel(lvl)}
}

// XPForLevelStart returns the total XP at which level n begins.
func XPForLevelStart(n int) int64 {
	return int64(XPUnit) * int64(n-1) * int64(n) / 2
}

// XPToNextLevel returns the total XP at which the level after `level` begins.
func XPToNextLevel(level int) int64 {
	return int64(XPUnit) * int64(level) * int64(level+1) / 2
}

// ProgressPct returns how far through the current level the XP total is,
// in [0, 100).
func ProgressPct(totalXP int64) float64 {
	info := ComputeLevelInfo(totalXP)
	start := XPForLevelStart(info.Level)
	span := info.XPToNextLevel - start
	if span <= 0 {
		return 0
	}
	return float64(totalXP-start) / float64(span) * 100
}

// ─── Level Engine ───────────────────────────────────────────────────────────

// Config controls milestone bonus behavior.
type Config struct {
	MilestoneInterval int   // Bonus every N levels (default: 5)
	MilestoneBonus    int64 // Coins per milestone (default: 50)
}

// DefaultConfig returns the production milestone policy.
func DefaultConfig() Config {
	return Config{
		MilestoneInterval: DefaultMilestoneInterval,
		MilestoneBonus:    DefaultMilestoneBonus,
	}
}

// Engine detects level crossings and computes milestone bonuses.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	config Config
}

// NewEngine creates a level engine.
func NewEngine(cfg Config) *Engine {
	if cfg.MilestoneInterval <= 0 {
		cfg.MilestoneInterval = DefaultMilestoneInterval
	}
	return &Engine{config: cfg}
}

// Result describes the effect of one XP change.
type Result struct {
	OldLevel       int
	NewLevel       int
	BonusCoins     int64 // Aggregated milestone bonus; the caller writes it to the ledger
	MilestoneCount int
	Notifications  []domain.Notification
}

// LeveledUp reports whether any threshold was crossed upward.
func (r Result) LeveledUp() bool { return r.NewLevel > r.OldLevel }

// ProcessLevelUp computes the effect of moving a user to newTotalXP.
//
// Every integer level crossed between oldLevel+1 and newLevel is examined
// independently: each level divisible by the milestone interval fires its own
// bonus and its own notification, never coalesced. A level-up crossing no
// milestone emits one generic notification. The user snapshot is updated
// in place (Level, XPToNextLevel); the ledger is NOT written here.
func (e *Engine) ProcessLevelUp(user *domain.UserEconomyState, newTotalXP int64) Result {
	if newTotalXP < 0 {
		newTotalXP = 0
	}

	oldLevel := user.Level
	info := ComputeLevelInfo(newTotalXP)

	res := Result{OldLevel: oldLevel, NewLevel: info.Level}

	user.XP = newTotalXP
	user.Level = info.Level
	user.XPToNextLevel = info.XPToNextLevel

	if info.Level <= oldLevel {
		// Down-leveling on XP loss adjusts the snapshot silently; milestone
		// bonuses already granted are never clawed back.
		return res
	}

	for lvl := oldLevel + 1; lvl <= info.Level; lvl++ {
		if lvl%e.config.MilestoneInterval == 0 {
			res.BonusCoins += e.config.MilestoneBonus
			res.MilestoneCount++
			res.Notifications = append(res.Notifications, domain.Notification{
				UserID: user.UserID,
				Kind:   domain.NotifyMilestone,
				Title:  fmt.Sprintf("Level %d milestone!", lvl),
				Body:   fmt.Sprintf("You reached level %d and earned %d bonus coins.", lvl, e.config.MilestoneBonus),
			})
		}
	}

	if res.MilestoneCount == 0 {
		res.Notifications = append(res.Notifications, domain.Notification{
			UserID: user.UserID,
			Kind:   domain.NotifyLevelUp,
			Title:  fmt.Sprintf("Level up! You are now level %d", info.Level),
		})
	}

	return res
}

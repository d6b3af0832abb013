// Package economy implements the façade that orchestrates every coin/XP
// mutation: check-ins, mission rewards, store/event/jackpot spends, and
// admin adjustments.
//
// The façade composes the plan registry, the level engine, and the ledger
// engine into one logical user-state update. It owns the per-user write
// serialization and the idempotency suppression the ledger engine itself
// does not perform. All operations are fail-closed: a spend that cannot be
// covered writes nothing, and a storage failure aborts the whole operation.
package economy

import (
	"fmt"
	"log"
	"time"

	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/app/audit"
	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/app/ledger"
	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/app/level"
	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/domain"
	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/infra/plan"
)

// ─── Configuration ──────────────────────────────────────────────────────────

// Config holds the reward policy knobs.
type Config struct {
	CheckInCoins     int64 // Flat daily check-in reward
	CheckInXP        int64 // XP granted per check-in (0 disables)
	StreakLength     int   // Consecutive days needed for the streak bonus
	StreakBonusCoins int64 // Bonus on the final streak day
}

// DefaultConfig returns the production reward policy.
func DefaultConfig() Config {
	return Config{
		CheckInCoins:     10,
		CheckInXP:        25,
		StreakLength:     7,
		StreakBonusCoins: 50,
	}
}

// ─── Service ────────────────────────────────────────────────────────────────

// Service is the economy façade.
type Service struct {
	config   Config
	users    domain.UserStore
	activity domain.ActivityStore
	ledger   *ledger.Engine
	levels   *level.Engine
	plans    *plan.Registry
	sink     domain.EventSink
	locks    *userLocks

	// Injectable clock for testing.
	now func() time.Time
}

// NewService wires the façade. A nil sink discards events.
func NewService(cfg Config, users domain.UserStore, activity domain.ActivityStore, ldg *ledger.Engine, levels *level.Engine, plans *plan.Registry, sink domain.EventSink) *Service {
	if sink == nil {
		sink = domain.NopSink{}
	}
	return &Service{
		config:   cfg,
		users:    users,
		activity: activity,
		ledger:   ldg,
		levels:   levels,
		plans:    plans,
		sink:     sink,
		locks:    newUserLocks(),
		now:      time.Now,
	}
}

// SetClock overrides the service clock. Test hook.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// ─── Queries ────────────────────────────────────────────────────────────────

// State returns a user's current economy snapshot.
func (s *Service) State(userID string) (*domain.UserEconomyState, error) {
	return s.users.Get(userID)
}

// History returns a user's ledger, newest first.
func (s *Service) History(userID string) ([]domain.LedgerEntry, error) {
	return s.ledger.History(userID)
}

// Audit replays the COIN ledger against the stored snapshot.
func (s *Service) Audit(userID string) (domain.ValidationResult, error) {
	user, err := s.users.Get(userID)
	if err != nil {
		return domain.ValidationResult{}, err
	}
	entries, err := s.ledger.History(userID)
	if err != nil {
		return domain.ValidationResult{}, err
	}
	return audit.AuditUser(*user, entries), nil
}

// ─── Check-In ───────────────────────────────────────────────────────────────

// CheckInResult is the outcome of a daily check-in.
type CheckInResult struct {
	Updated       domain.UserEconomyState `json:"updated_user"`
	CoinsGained   int64                   `json:"coins_gained"`
	IsBonus       bool                    `json:"is_bonus"`
	Streak        int                     `json:"streak"`
	Notifications []domain.Notification   `json:"notifications,omitempty"`
}

// EvaluateCheckIn grants the daily check-in reward. Consecutive days build a
// streak; completing the configured streak length grants a bonus and resets
// the streak to zero immediately. Checking in twice on the same calendar day
// is an idempotency hit: ErrAlreadyProcessed, nothing written.
func (s *Service) EvaluateCheckIn(userID string) (CheckInResult, error) {
	release := s.locks.acquire(userID)
	defer release()

	user, err := s.users.Get(userID)
	if err != nil {
		return CheckInResult{}, err
	}

	now := s.now()
	if sameDay(user.LastCheckIn, now) {
		return CheckInResult{Updated: *user, Streak: user.CheckInStreak}, domain.ErrAlreadyProcessed
	}

	if sameDay(user.LastCheckIn.AddDate(0, 0, 1), now) {
		user.CheckInStreak++
	} else {
		user.CheckInStreak = 1
	}
	user.LastCheckIn = now

	res := CheckInResult{CoinsGained: s.config.CheckInCoins}

	user.Coins += s.config.CheckInCoins
	if _, err := s.ledger.Record(userID, domain.CurrencyCoin, s.config.CheckInCoins, domain.TxEarn,
		domain.SourceDailyCheckIn, "daily check-in", user.Coins, nil); err != nil {
		return CheckInResult{}, err
	}

	if user.CheckInStreak >= s.config.StreakLength {
		user.Coins += s.config.StreakBonusCoins
		if _, err := s.ledger.Record(userID, domain.CurrencyCoin, s.config.StreakBonusCoins, domain.TxEarn,
			domain.SourceCheckInBonus, fmt.Sprintf("%d-day streak bonus", s.config.StreakLength), user.Coins, nil); err != nil {
			return CheckInResult{}, err
		}
		res.CoinsGained += s.config.StreakBonusCoins
		res.IsBonus = true
		user.CheckInStreak = 0

		n := domain.Notification{
			UserID:    userID,
			Kind:      domain.NotifyCheckInBonus,
			Title:     fmt.Sprintf("%d-day streak complete!", s.config.StreakLength),
			CreatedAt: now,
		}
		res.Notifications = append(res.Notifications, n)
		s.sink.Notify(n)
	}

	if s.config.CheckInXP > 0 {
		notifs, err := s.grantXP(user, s.config.CheckInXP, domain.SourceDailyCheckIn, "daily check-in XP", nil)
		if err != nil {
			return CheckInResult{}, err
		}
		res.Notifications = append(res.Notifications, notifs...)
	}

	if err := s.users.Save(*user); err != nil {
		return CheckInResult{}, fmt.Errorf("save user snapshot: %w", err)
	}

	res.Updated = *user
	res.Streak = user.CheckInStreak
	return res, nil
}

// ─── Mission Rewards ────────────────────────────────────────────────────────

// MissionRewards is a pure reward preview.
type MissionRewards struct {
	XPGained    int64 `json:"xp_gained"`
	CoinsGained int64 `json:"coins_gained"`
}

// CalculateMissionRewards previews a mission's base rewards: floor of the
// template values, no plan multiplier — the approval path applies that, so
// it is never duplicated here. Non-finite template values fail loud.
func (s *Service) CalculateMissionRewards(m domain.Mission) (MissionRewards, error) {
	xp, err := ledger.FloorAmount(m.XP)
	if err != nil {
		return MissionRewards{}, fmt.Errorf("mission %s xp: %w", m.ID, err)
	}
	coins, err := ledger.FloorAmount(m.Coins)
	if err != nil {
		return MissionRewards{}, fmt.Errorf("mission %s coins: %w", m.ID, err)
	}
	return MissionRewards{XPGained: xp, CoinsGained: coins}, nil
}

// ApprovalResult is the outcome of a mission approval.
type ApprovalResult struct {
	Updated       domain.UserEconomyState `json:"updated_user"`
	XPGained      int64                   `json:"xp_gained"`
	CoinsGained   int64                   `json:"coins_gained"` // After plan multiplier
	Notifications []domain.Notification   `json:"notifications,omitempty"`
}

// ApproveMissionSubmission grants a mission's rewards. The plan multiplier
// applies to coins only (floor truncation); the daily mission quota of the
// user's plan is enforced; re-approving the same submission is an
// idempotency hit treated as a no-op.
func (s *Service) ApproveMissionSubmission(userID string, m domain.Mission, submissionID string) (ApprovalResult, error) {
	release := s.locks.acquire(userID)
	defer release()

	user, err := s.users.Get(userID)
	if err != nil {
		return ApprovalResult{}, err
	}

	done, err := s.ledger.HasTransactionOfType(userID, domain.SourceMissionCompletion, submissionID)
	if err != nil {
		return ApprovalResult{}, err
	}
	if done {
		return ApprovalResult{Updated: *user}, domain.ErrAlreadyProcessed
	}

	limit, err := s.plans.DailyMissionLimit(user.Plan)
	if err != nil {
		return ApprovalResult{}, err
	}
	if limit != nil {
		today, err := s.activity.ApprovedSubmissionsOn(userID, s.now())
		if err != nil {
			return ApprovalResult{}, err
		}
		if today >= *limit {
			return ApprovalResult{}, domain.ErrDailyLimitReached
		}
	}

	v := audit.ValidateMissionReward(m)
	if !v.Valid {
		return ApprovalResult{}, fmt.Errorf("mission %s rejected: %s: %w", m.ID, v.Reason, domain.ErrInvalidAmount)
	}
	s.warn("mission_reward", v)

	base, err := s.CalculateMissionRewards(m)
	if err != nil {
		return ApprovalResult{}, err
	}
	coins, err := s.plans.ApplyMultiplier(user.Plan, base.CoinsGained)
	if err != nil {
		return ApprovalResult{}, err
	}

	meta := map[string]string{domain.MetaUniqueID: submissionID, "mission_id": m.ID}

	user.Coins += coins
	if _, err := s.ledger.Record(userID, domain.CurrencyCoin, coins, domain.TxEarn,
		domain.SourceMissionCompletion, "mission reward: "+m.Title, user.Coins, meta); err != nil {
		return ApprovalResult{}, err
	}

	notifs, err := s.grantXP(user, base.XPGained, domain.SourceMissionCompletion, "mission XP: "+m.Title, meta)
	if err != nil {
		return ApprovalResult{}, err
	}

	if err := s.activity.RecordSubmission(userID, m.ID, s.now(), true); err != nil {
		return ApprovalResult{}, fmt.Errorf("record submission: %w", err)
	}
	if err := s.users.Save(*user); err != nil {
		return ApprovalResult{}, fmt.Errorf("save user snapshot: %w", err)
	}

	return ApprovalResult{
		Updated:       *user,
		XPGained:      base.XPGained,
		CoinsGained:   coins,
		Notifications: notifs,
	}, nil
}

// ─── Shared XP Grant Path ───────────────────────────────────────────────────

// grantXP writes an XP earn entry, runs level-up processing, and routes any
// milestone bonus through the ledger. The caller persists the snapshot.
func (s *Service) grantXP(user *domain.UserEconomyState, xp int64, source domain.TransactionSource, description string, meta map[string]string) ([]domain.Notification, error) {
	if xp <= 0 {
		return nil, nil
	}

	newTotal := user.XP + xp
	if _, err := s.ledger.Record(user.UserID, domain.CurrencyXP, xp, domain.TxEarn,
		source, description, newTotal, meta); err != nil {
		return nil, err
	}

	res := s.levels.ProcessLevelUp(user, newTotal)

	if res.BonusCoins > 0 {
		user.Coins += res.BonusCoins
		if _, err := s.ledger.Record(user.UserID, domain.CurrencyCoin, res.BonusCoins, domain.TxEarn,
			domain.SourceAchievementReward,
			fmt.Sprintf("level milestone bonus (%d milestones)", res.MilestoneCount),
			user.Coins, nil); err != nil {
			return nil, err
		}
	}

	now := s.now()
	for i := range res.Notifications {
		res.Notifications[i].CreatedAt = now
		s.sink.Notify(res.Notifications[i])
	}
	return res.Notifications, nil
}

// warn forwards validator warnings to the sink and the operational log.
func (s *Service) warn(scope string, v domain.ValidationResult) {
	for _, w := range v.Warnings {
		log.Printf("economy: %s warning: %s", scope, w)
		s.sink.ValidationWarning(scope, w)
	}
}

// sameDay reports whether two timestamps fall on the same calendar day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

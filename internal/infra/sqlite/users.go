package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/domain"
)

// ─── User Store ─────────────────────────────────────────────────────────────

// Get returns a user's economy snapshot, or ErrUserNotFound.
func (db *DB) Get(userID string) (*domain.UserEconomyState, error) {
	var (
		u           domain.UserEconomyState
		lastCheckin sql.NullString
	)
	err := db.db.QueryRow(`
		SELECT user_id, plan, coins, xp, level, xp_to_next_level, checkin_streak, last_checkin
		FROM user_economy WHERE user_id = ?
	`, userID).Scan(&u.UserID, &u.Plan, &u.Coins, &u.XP, &u.Level,
		&u.XPToNextLevel, &u.CheckInStreak, &lastCheckin)
	if err == sql.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}

	if lastCheckin.Valid && lastCheckin.String != "" {
		t, err := time.Parse(timeFormat, lastCheckin.String)
		if err != nil {
			return nil, fmt.Errorf("get user %s: parse last_checkin %q: %w", userID, lastCheckin.String, err)
		}
		u.LastCheckIn = t
	}
	return &u, nil
}

// Save upserts a user's economy snapshot.
func (db *DB) Save(state domain.UserEconomyState) error {
	var lastCheckin any
	if !state.LastCheckIn.IsZero() {
		lastCheckin = state.LastCheckIn.UTC().Format(timeFormat)
	}

	_, err := db.db.Exec(`
		INSERT INTO user_economy (user_id, plan, coins, xp, level, xp_to_next_level, checkin_streak, last_checkin, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(user_id) DO UPDATE SET
			plan             = excluded.plan,
			coins            = excluded.coins,
			xp               = excluded.xp,
			level            = excluded.level,
			xp_to_next_level = excluded.xp_to_next_level,
			checkin_streak   = excluded.checkin_streak,
			last_checkin     = excluded.last_checkin,
			updated_at       = datetime('now')
	`, state.UserID, state.Plan, state.Coins, state.XP, state.Level,
		state.XPToNextLevel, state.CheckInStreak, lastCheckin)
	if err != nil {
		return fmt.Errorf("save user %s: %w", state.UserID, err)
	}
	return nil
}

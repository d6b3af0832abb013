package sqlite

import (
	"fmt"
	"time"

	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/domain"
)

// ─── Activity Store ─────────────────────────────────────────────────────────

// RecordSubmission logs a mission submission.
func (db *DB) RecordSubmission(userID, missionID string, at time.Time, approved bool) error {
	approvedInt := 0
	if approved {
		approvedInt = 1
	}
	_, err := db.db.Exec(`
		INSERT INTO mission_submissions (user_id, mission_id, submitted_at, approved)
		VALUES (?, ?, ?, ?)
	`, userID, missionID, at.UTC().Format(timeFormat), approvedInt)
	if err != nil {
		return fmt.Errorf("record submission for %s: %w", userID, err)
	}
	return nil
}

// SubmissionsSince counts a user's submissions after the cutoff.
func (db *DB) SubmissionsSince(userID string, since time.Time) (int, error) {
	var n int
	err := db.db.QueryRow(`
		SELECT COUNT(*) FROM mission_submissions
		WHERE user_id = ? AND submitted_at > ?
	`, userID, since.UTC().Format(timeFormat)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count submissions for %s: %w", userID, err)
	}
	return n, nil
}

// ApprovedSubmissionsOn counts a user's approved submissions on the calendar
// day of `day` (UTC).
func (db *DB) ApprovedSubmissionsOn(userID string, day time.Time) (int, error) {
	dayStart := time.Date(day.UTC().Year(), day.UTC().Month(), day.UTC().Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var n int
	err := db.db.QueryRow(`
		SELECT COUNT(*) FROM mission_submissions
		WHERE user_id = ? AND approved = 1 AND submitted_at >= ? AND submitted_at < ?
	`, userID, dayStart.Format(timeFormat), dayEnd.Format(timeFormat)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count approvals for %s: %w", userID, err)
	}
	return n, nil
}

// RecordRedemption logs a store redemption.
func (db *DB) RecordRedemption(userID, itemID string, at time.Time) error {
	_, err := db.db.Exec(`
		INSERT INTO store_redemptions (user_id, item_id, redeemed_at)
		VALUES (?, ?, ?)
	`, userID, itemID, at.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("record redemption for %s: %w", userID, err)
	}
	return nil
}

// RedemptionsSince counts a user's redemptions after the cutoff.
func (db *DB) RedemptionsSince(userID string, since time.Time) (int, error) {
	var n int
	err := db.db.QueryRow(`
		SELECT COUNT(*) FROM store_redemptions
		WHERE user_id = ? AND redeemed_at > ?
	`, userID, since.UTC().Format(timeFormat)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count redemptions for %s: %w", userID, err)
	}
	return n, nil
}

// ─── Review Queue ───────────────────────────────────────────────────────────

// Enqueue adds a submission to the review queue.
func (db *DB) Enqueue(userID, missionID string, at time.Time) error {
	_, err := db.db.Exec(`
		INSERT INTO review_queue (user_id, mission_id, enqueued_at)
		VALUES (?, ?, ?)
	`, userID, missionID, at.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("enqueue for %s: %w", userID, err)
	}
	return nil
}

// MarkProcessed flags a queue entry as handled.
func (db *DB) MarkProcessed(id int64) error {
	_, err := db.db.Exec(`UPDATE review_queue SET processed = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark queue entry %d processed: %w", id, err)
	}
	return nil
}

// PendingQueue returns unprocessed review-queue entries, oldest first.
func (db *DB) PendingQueue() ([]domain.QueueEntry, error) {
	rows, err := db.db.Query(`
		SELECT id, user_id, mission_id, enqueued_at, processed
		FROM review_queue WHERE processed = 0
		ORDER BY enqueued_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("pending queue: %w", err)
	}
	defer rows.Close()

	var entries []domain.QueueEntry
	for rows.Next() {
		var (
			q         domain.QueueEntry
			enqueued  string
			processed int
		)
		if err := rows.Scan(&q.ID, &q.UserID, &q.MissionID, &enqueued, &processed); err != nil {
			return nil, fmt.Errorf("pending queue: %w", err)
		}
		t, err := time.Parse(timeFormat, enqueued)
		if err != nil {
			return nil, fmt.Errorf("pending queue: parse enqueued_at %q: %w", enqueued, err)
		}
		q.EnqueuedAt = t
		q.Processed = processed == 1
		entries = append(entries, q)
	}
	return entries, rows.Err()
}

// ActiveUserIDs lists every user with a snapshot row.
func (db *DB) ActiveUserIDs() ([]string, error) {
	rows, err := db.db.Query(`SELECT user_id FROM user_economy ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("active users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("active users: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ─── Notifications ──────────────────────────────────────────────────────────

// SaveNotification persists an emitted notification.
func (db *DB) SaveNotification(n domain.Notification) error {
	_, err := db.db.Exec(`
		INSERT INTO notifications (user_id, kind, title, body, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, n.UserID, string(n.Kind), n.Title, n.Body, n.CreatedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("save notification for %s: %w", n.UserID, err)
	}
	return nil
}

// Notifications returns a user's notifications, newest first, up to limit.
func (db *DB) Notifications(userID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.db.Query(`
		SELECT user_id, kind, title, body, created_at
		FROM notifications WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("notifications for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var (
			n       domain.Notification
			kind    string
			created string
		)
		if err := rows.Scan(&n.UserID, &kind, &n.Title, &n.Body, &created); err != nil {
			return nil, fmt.Errorf("notifications for %s: %w", userID, err)
		}
		n.Kind = domain.NotificationKind(kind)
		t, err := time.Parse(timeFormat, created)
		if err != nil {
			return nil, fmt.Errorf("notifications for %s: parse created_at %q: %w", userID, created, err)
		}
		n.CreatedAt = t
		out = append(out, n)
	}
	return out, rows.Err()
}

// Package anomaly flags suspicious economic activity using windowed
// thresholds over the ledger and activity stores.
//
// The detector is strictly read-only and advisory: a scan never mutates
// balances, never blocks a transaction, and its findings carry no authority.
// Operators consume the findings and decide.
package anomaly

import (
	"fmt"
	"time"

	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/domain"
)

// ─── Configuration ──────────────────────────────────────────────────────────

// DetectorConfig holds the threshold for each heuristic. All thresholds are
// exclusive: activity AT the threshold is normal, activity above it flags.
type DetectorConfig struct {
	XPSpikeThreshold    int64         // XP earned per XPSpikeWindow
	XPSpikeWindow       time.Duration //
	CoinSpikeThreshold  int64         // Coins earned (spends excluded) per CoinSpikeWindow
	CoinSpikeWindow     time.Duration //
	SubmissionThreshold int           // Mission submissions per SubmissionWindow
	SubmissionWindow    time.Duration //
	QueueStallAge       time.Duration // Unprocessed queue entries older than this flag
	RedemptionThreshold int           // Store redemptions per RedemptionWindow
	RedemptionWindow    time.Duration //
}

// DefaultDetectorConfig returns the production thresholds.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		XPSpikeThreshold:    20000,
		XPSpikeWindow:       24 * time.Hour,
		CoinSpikeThreshold:  5000,
		CoinSpikeWindow:     24 * time.Hour,
		SubmissionThreshold: 10,
		SubmissionWindow:    time.Hour,
		QueueStallAge:       48 * time.Hour,
		RedemptionThreshold: 5,
		RedemptionWindow:    10 * time.Minute,
	}
}

// ─── Detector ───────────────────────────────────────────────────────────────

// Detector runs the windowed scans. Safe for concurrent use: it holds no
// mutable state beyond its clock.
type Detector struct {
	config   DetectorConfig
	ledger   domain.LedgerStore
	activity domain.ActivityStore

	// Injectable clock for testing.
	now func() time.Time
}

// NewDetector wires a detector over the given stores.
func NewDetector(cfg DetectorConfig, ledger domain.LedgerStore, activity domain.ActivityStore) *Detector {
	return &Detector{
		config:   cfg,
		ledger:   ledger,
		activity: activity,
		now:      time.Now,
	}
}

// SetClock overrides the detector clock. Test hook.
func (d *Detector) SetClock(now func() time.Time) { d.now = now }

// ─── Per-User Scans ─────────────────────────────────────────────────────────

// ScanUser runs every per-user heuristic and returns the findings, which may
// be empty. Storage errors abort the scan.
func (d *Detector) ScanUser(userID string) ([]domain.Anomaly, error) {
	var findings []domain.Anomaly

	earned, err := d.earnedSince(userID)
	if err != nil {
		return nil, fmt.Errorf("scan user %s: %w", userID, err)
	}

	if earned.xp > d.config.XPSpikeThreshold {
		findings = append(findings, domain.Anomaly{
			Type:     domain.AnomalyGrowth,
			Severity: domain.SevHigh,
			Message: fmt.Sprintf("user %s earned %d XP in %s (threshold %d)",
				userID, earned.xp, d.config.XPSpikeWindow, d.config.XPSpikeThreshold),
			RelatedData: map[string]string{"user_id": userID, "xp_earned": fmt.Sprint(earned.xp)},
		})
	}

	if earned.coins > d.config.CoinSpikeThreshold {
		findings = append(findings, domain.Anomaly{
			Type:     domain.AnomalyEconomy,
			Severity: domain.SevHigh,
			Message: fmt.Sprintf("user %s earned %d coins in %s (threshold %d)",
				userID, earned.coins, d.config.CoinSpikeWindow, d.config.CoinSpikeThreshold),
			RelatedData: map[string]string{"user_id": userID, "coins_earned": fmt.Sprint(earned.coins)},
		})
	}

	subs, err := d.activity.SubmissionsSince(userID, d.now().Add(-d.config.SubmissionWindow))
	if err != nil {
		return nil, fmt.Errorf("scan user %s: %w", userID, err)
	}
	if subs > d.config.SubmissionThreshold {
		findings = append(findings, domain.Anomaly{
			Type:     domain.AnomalyMissions,
			Severity: domain.SevMedium,
			Message: fmt.Sprintf("user %s submitted %d missions in %s (threshold %d)",
				userID, subs, d.config.SubmissionWindow, d.config.SubmissionThreshold),
			RelatedData: map[string]string{"user_id": userID, "submissions": fmt.Sprint(subs)},
		})
	}

	reds, err := d.activity.RedemptionsSince(userID, d.now().Add(-d.config.RedemptionWindow))
	if err != nil {
		return nil, fmt.Errorf("scan user %s: %w", userID, err)
	}
	if reds > d.config.RedemptionThreshold {
		findings = append(findings, domain.Anomaly{
			Type:     domain.AnomalyStore,
			Severity: domain.SevCritical,
			Message: fmt.Sprintf("user %s redeemed %d items in %s (threshold %d)",
				userID, reds, d.config.RedemptionWindow, d.config.RedemptionThreshold),
			RelatedData: map[string]string{"user_id": userID, "redemptions": fmt.Sprint(reds)},
		})
	}

	return findings, nil
}

type earnedTotals struct {
	xp    int64
	coins int64
}

// earnedSince sums positive earn entries inside each spike window. Spends
// never offset earnings here: draining a balance must not hide a farming
// spike.
func (d *Detector) earnedSince(userID string) (earnedTotals, error) {
	entries, err := d.ledger.History(userID)
	if err != nil {
		return earnedTotals{}, err
	}

	now := d.now()
	xpCutoff := now.Add(-d.config.XPSpikeWindow)
	coinCutoff := now.Add(-d.config.CoinSpikeWindow)

	var t earnedTotals
	for _, e := range entries {
		if e.Type != domain.TxEarn || e.Amount <= 0 {
			continue
		}
		switch e.Currency {
		case domain.CurrencyXP:
			if e.Timestamp.After(xpCutoff) {
				t.xp += e.Amount
			}
		case domain.CurrencyCoin:
			if e.Timestamp.After(coinCutoff) {
				t.coins += e.Amount
			}
		}
	}
	return t, nil
}

// ─── Queue Scan ─────────────────────────────────────────────────────────────

// ScanQueue flags unprocessed review-queue entries older than the stall age.
func (d *Detector) ScanQueue() ([]domain.Anomaly, error) {
	pending, err := d.activity.PendingQueue()
	if err != nil {
		return nil, fmt.Errorf("scan queue: %w", err)
	}

	cutoff := d.now().Add(-d.config.QueueStallAge)
	var findings []domain.Anomaly
	for _, q := range pending {
		if q.Processed || !q.EnqueuedAt.Before(cutoff) {
			continue
		}
		findings = append(findings, domain.Anomaly{
			Type:     domain.AnomalyPattern,
			Severity: domain.SevMedium,
			Message: fmt.Sprintf("queue entry %d (user %s, mission %s) pending for %s",
				q.ID, q.UserID, q.MissionID, d.now().Sub(q.EnqueuedAt).Truncate(time.Minute)),
			RelatedData: map[string]string{"user_id": q.UserID, "mission_id": q.MissionID},
		})
	}
	return findings, nil
}

// ─── Full Sweep ─────────────────────────────────────────────────────────────

// ScanAll runs every per-user scan across the active user set plus the queue
// scan, concatenating findings.
func (d *Detector) ScanAll() ([]domain.Anomaly, error) {
	userIDs, err := d.activity.ActiveUserIDs()
	if err != nil {
		return nil, fmt.Errorf("scan all: %w", err)
	}

	var findings []domain.Anomaly
	for _, id := range userIDs {
		f, err := d.ScanUser(id)
		if err != nil {
			return nil, err
		}
		findings = append(findings, f...)
	}

	queue, err := d.ScanQueue()
	if err != nil {
		return nil, err
	}
	return append(findings, queue...), nil
}

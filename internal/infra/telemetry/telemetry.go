// Package telemetry exports Prometheus metrics for the economy and adapts
// them to the event sink the services emit into.
package telemetry

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/domain"
)

// ─── Ledger Metrics ─────────────────────────────────────────────────────────

// TransactionsRecorded counts ledger entries by currency, type, and source.
var TransactionsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "awbeta",
	Subsystem: "ledger",
	Name:      "transactions_total",
	Help:      "Total ledger entries recorded by currency, type, and source.",
}, []string{"currency", "type", "source"})

// CoinsEarned accumulates all positive COIN amounts.
var CoinsEarned = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "awbeta",
	Subsystem: "ledger",
	Name:      "coins_earned_total",
	Help:      "Total coins credited across all users.",
})

// CoinsSpent accumulates all negative COIN amounts (as a positive total).
var CoinsSpent = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "awbeta",
	Subsystem: "ledger",
	Name:      "coins_spent_total",
	Help:      "Total coins debited across all users.",
})

// XPGranted accumulates all XP credited.
var XPGranted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "awbeta",
	Subsystem: "ledger",
	Name:      "xp_granted_total",
	Help:      "Total XP credited across all users.",
})

// ─── Progression Metrics ────────────────────────────────────────────────────

// Notifications counts emitted notifications by kind.
var Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "awbeta",
	Subsystem: "progression",
	Name:      "notifications_total",
	Help:      "Total notifications emitted by kind.",
}, []string{"kind"})

// ─── Integrity Metrics ──────────────────────────────────────────────────────

// AnomaliesFlagged counts detector findings by type and severity.
var AnomaliesFlagged = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "awbeta",
	Subsystem: "integrity",
	Name:      "anomalies_total",
	Help:      "Total anomaly findings by type and severity.",
}, []string{"type", "severity"})

// ValidationWarnings counts non-blocking validator warnings by scope.
var ValidationWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "awbeta",
	Subsystem: "integrity",
	Name:      "validation_warnings_total",
	Help:      "Total validation warnings by scope.",
}, []string{"scope"})

// ─── Recorder ───────────────────────────────────────────────────────────────

// NotificationStore persists emitted notifications for later paging.
type NotificationStore interface {
	SaveNotification(n domain.Notification) error
}

// Recorder adapts the event sink to Prometheus counters and, when a store is
// attached, persists notifications. It never fails back into the caller: a
// storage error is logged and dropped.
type Recorder struct {
	notifications NotificationStore // May be nil
}

// NewRecorder builds a recorder. A nil store disables persistence.
func NewRecorder(notifications NotificationStore) *Recorder {
	return &Recorder{notifications: notifications}
}

// TransactionRecorded updates the ledger counters for one entry.
func (r *Recorder) TransactionRecorded(entry domain.LedgerEntry, balanceBefore int64) {
	TransactionsRecorded.WithLabelValues(
		string(entry.Currency), string(entry.Type), string(entry.Source)).Inc()

	switch entry.Currency {
	case domain.CurrencyCoin:
		if entry.Amount >= 0 {
			CoinsEarned.Add(float64(entry.Amount))
		} else {
			CoinsSpent.Add(float64(-entry.Amount))
		}
	case domain.CurrencyXP:
		if entry.Amount > 0 {
			XPGranted.Add(float64(entry.Amount))
		}
	}
}

// AnomalyFlagged counts one detector finding.
func (r *Recorder) AnomalyFlagged(a domain.Anomaly) {
	AnomaliesFlagged.WithLabelValues(string(a.Type), string(a.Severity)).Inc()
}

// ValidationWarning counts one validator warning.
func (r *Recorder) ValidationWarning(scope, reason string) {
	ValidationWarnings.WithLabelValues(scope).Inc()
}

// Notify counts the notification and persists it when a store is attached.
func (r *Recorder) Notify(n domain.Notification) {
	Notifications.WithLabelValues(string(n.Kind)).Inc()

	if r.notifications == nil {
		return
	}
	if err := r.notifications.SaveNotification(n); err != nil {
		log.Printf("telemetry: persist notification for %s: %v", n.UserID, err)
	}
}

var _ domain.EventSink = (*Recorder)(nil)

package sqlite

import (
	"errors"
	"testing"
	"time"

	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testEntry(userID string, amount int64, ts time.Time) domain.LedgerEntry {
	txType := domain.TxEarn
	if amount < 0 {
		txType = domain.TxSpend
	}
	return domain.LedgerEntry{
		ID:           "e-" + userID + "-" + ts.Format("150405.000000000"),
		UserID:       userID,
		Currency:     domain.CurrencyCoin,
		Amount:       amount,
		Type:         txType,
		Source:       domain.SourceMissionCompletion,
		Timestamp:    ts,
		BalanceAfter: amount,
	}
}

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// ─── Ledger ─────────────────────────────────────────────────────────────────

func TestLedger_AppendAndHistory(t *testing.T) {
	db := newTestDB(t)

	for i := 0; i < 3; i++ {
		e := testEntry("u1", int64(10*(i+1)), baseTime.Add(time.Duration(i)*time.Minute))
		if err := db.Append(e); err != nil {
			t.Fatalf("Append() error: %v", err)
		}
	}
	db.Append(testEntry("u2", 99, baseTime))

	entries, err := db.History("u1")
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3 (other users excluded)", len(entries))
	}
	// Newest first
	if entries[0].Amount != 30 || entries[2].Amount != 10 {
		t.Errorf("order = [%d %d %d], want newest first [30 20 10]",
			entries[0].Amount, entries[1].Amount, entries[2].Amount)
	}
}

func TestLedger_RoundTripFields(t *testing.T) {
	db := newTestDB(t)

	e := domain.LedgerEntry{
		ID:           "entry-1",
		UserID:       "u1",
		Currency:     domain.CurrencyXP,
		Amount:       250,
		Type:         domain.TxEarn,
		Source:       domain.SourceMissionCompletion,
		Timestamp:    baseTime,
		BalanceAfter: 1250,
		Description:  "mission XP: Sketch",
		Metadata:     map[string]string{domain.MetaUniqueID: "sub-1", "mission_id": "m1"},
	}
	if err := db.Append(e); err != nil {
		t.Fatal(err)
	}

	entries, err := db.History("u1")
	if err != nil {
		t.Fatal(err)
	}
	got := entries[0]
	if got.Currency != domain.CurrencyXP || got.Amount != 250 || got.BalanceAfter != 1250 {
		t.Errorf("core fields lost: %+v", got)
	}
	if !got.Timestamp.Equal(baseTime) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, baseTime)
	}
	if got.Metadata["mission_id"] != "m1" {
		t.Errorf("metadata lost: %v", got.Metadata)
	}
}

func TestLedger_HasEntry(t *testing.T) {
	db := newTestDB(t)

	e := testEntry("u1", 100, baseTime)
	e.Source = domain.SourceJackpotWin
	e.Metadata = map[string]string{domain.MetaUniqueID: "round-7"}
	db.Append(e)

	tests := []struct {
		name     string
		source   domain.TransactionSource
		uniqueID string
		want     bool
	}{
		{"exact match", domain.SourceJackpotWin, "round-7", true},
		{"different round", domain.SourceJackpotWin, "round-8", false},
		{"empty matches any", domain.SourceJackpotWin, "", true},
		{"other source", domain.SourceStoreRedemption, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.HasEntry("u1", tt.source, tt.uniqueID)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("HasEntry(%s, %q) = %v, want %v", tt.source, tt.uniqueID, got, tt.want)
			}
		})
	}
}

// ─── Users ──────────────────────────────────────────────────────────────────

func TestUsers_SaveAndGet(t *testing.T) {
	db := newTestDB(t)

	state := domain.UserEconomyState{
		UserID:        "u1",
		Plan:          "Artista Profissional",
		Coins:         420,
		XP:            3500,
		Level:         3,
		XPToNextLevel: 6000,
		CheckInStreak: 4,
		LastCheckIn:   baseTime,
	}
	if err := db.Save(state); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := db.Get("u1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Coins != 420 || got.XP != 3500 || got.Level != 3 || got.CheckInStreak != 4 {
		t.Errorf("snapshot lost fields: %+v", got)
	}
	if !got.LastCheckIn.Equal(baseTime) {
		t.Errorf("last check-in = %v, want %v", got.LastCheckIn, baseTime)
	}
}

func TestUsers_SaveUpserts(t *testing.T) {
	db := newTestDB(t)

	db.Save(domain.UserEconomyState{UserID: "u1", Plan: "Free", Coins: 10})
	db.Save(domain.UserEconomyState{UserID: "u1", Plan: "Free", Coins: 25})

	got, err := db.Get("u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Coins != 25 {
		t.Errorf("coins = %d, want 25 after upsert", got.Coins)
	}
}

func TestUsers_GetNotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Get("ghost")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestUsers_ZeroLastCheckIn(t *testing.T) {
	db := newTestDB(t)

	db.Save(domain.UserEconomyState{UserID: "u1", Plan: "Free"})
	got, err := db.Get("u1")
	if err != nil {
		t.Fatal(err)
	}
	if !got.LastCheckIn.IsZero() {
		t.Errorf("last check-in = %v, want zero", got.LastCheckIn)
	}
}

// ─── Activity ───────────────────────────────────────────────────────────────

func TestActivity_SubmissionsSince(t *testing.T) {
	db := newTestDB(t)

	db.RecordSubmission("u1", "m1", baseTime.Add(-2*time.Hour), true)
	db.RecordSubmission("u1", "m2", baseTime.Add(-30*time.Minute), false)
	db.RecordSubmission("u1", "m3", baseTime.Add(-10*time.Minute), true)
	db.RecordSubmission("u2", "m1", baseTime.Add(-5*time.Minute), true)

	n, err := db.SubmissionsSince("u1", baseTime.Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("submissions in window = %d, want 2", n)
	}
}

func TestActivity_ApprovedSubmissionsOn(t *testing.T) {
	db := newTestDB(t)

	db.RecordSubmission("u1", "m1", baseTime, true)
	db.RecordSubmission("u1", "m2", baseTime.Add(time.Hour), false)       // Not approved
	db.RecordSubmission("u1", "m3", baseTime.AddDate(0, 0, -1), true)     // Yesterday
	db.RecordSubmission("u1", "m4", baseTime.Add(11*time.Hour+59*time.Minute), true)

	n, err := db.ApprovedSubmissionsOn("u1", baseTime)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("approvals today = %d, want 2", n)
	}
}

func TestActivity_RedemptionsSince(t *testing.T) {
	db := newTestDB(t)

	for i := 0; i < 4; i++ {
		db.RecordRedemption("u1", "item-1", baseTime.Add(-time.Duration(i)*time.Minute))
	}
	db.RecordRedemption("u1", "item-2", baseTime.Add(-time.Hour))

	n, err := db.RedemptionsSince("u1", baseTime.Add(-10*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("redemptions in window = %d, want 4", n)
	}
}

func TestActivity_QueueLifecycle(t *testing.T) {
	db := newTestDB(t)

	db.Enqueue("u1", "m1", baseTime.Add(-time.Hour))
	db.Enqueue("u2", "m2", baseTime)

	pending, err := db.PendingQueue()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}
	// Oldest first
	if pending[0].UserID != "u1" {
		t.Errorf("first pending user = %s, want u1", pending[0].UserID)
	}

	if err := db.MarkProcessed(pending[0].ID); err != nil {
		t.Fatal(err)
	}
	pending, err = db.PendingQueue()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].UserID != "u2" {
		t.Errorf("after processing, pending = %+v, want only u2", pending)
	}
}

func TestActivity_ActiveUserIDs(t *testing.T) {
	db := newTestDB(t)

	db.Save(domain.UserEconomyState{UserID: "b", Plan: "Free"})
	db.Save(domain.UserEconomyState{UserID: "a", Plan: "Free"})

	ids, err := db.ActiveUserIDs()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("ids = %v, want [a b]", ids)
	}
}

// ─── Notifications ──────────────────────────────────────────────────────────

func TestNotifications_SaveAndList(t *testing.T) {
	db := newTestDB(t)

	for i := 0; i < 3; i++ {
		db.SaveNotification(domain.Notification{
			UserID:    "u1",
			Kind:      domain.NotifyLevelUp,
			Title:     "Level up!",
			CreatedAt: baseTime.Add(time.Duration(i) * time.Minute),
		})
	}

	got, err := db.Notifications("u1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (limit)", len(got))
	}
	if !got[0].CreatedAt.After(got[1].CreatedAt) {
		t.Error("notifications must be newest first")
	}
}

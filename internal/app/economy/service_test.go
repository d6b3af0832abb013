package economy

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/app/ledger"
	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/app/level"
	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/domain"
	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/infra/plan"
)

// ─── In-Memory Test Stores ──────────────────────────────────────────────────

type memLedger struct {
	mu      sync.Mutex
	entries []domain.LedgerEntry
}

func (m *memLedger) Append(e domain.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memLedger) History(userID string) ([]domain.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.LedgerEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].UserID == userID {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

func (m *memLedger) HasEntry(userID string, source domain.TransactionSource, uniqueID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.UserID != userID || e.Source != source {
			continue
		}
		if uniqueID == "" || e.Metadata[domain.MetaUniqueID] == uniqueID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memLedger) coinSum(userID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, e := range m.entries {
		if e.UserID == userID && e.Currency == domain.CurrencyCoin {
			sum += e.Amount
		}
	}
	return sum
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]domain.UserEconomyState
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]domain.UserEconomyState)}
}

func (m *memUsers) Get(userID string) (*domain.UserEconomyState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (m *memUsers) Save(state domain.UserEconomyState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[state.UserID] = state
	return nil
}

type submission struct {
	userID   string
	at       time.Time
	approved bool
}

type memActivity struct {
	mu          sync.Mutex
	submissions []submission
	redemptions []time.Time
}

func (m *memActivity) RecordSubmission(userID, missionID string, at time.Time, approved bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions = append(m.submissions, submission{userID, at, approved})
	return nil
}

func (m *memActivity) SubmissionsSince(userID string, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.submissions {
		if s.userID == userID && s.at.After(since) {
			n++
		}
	}
	return n, nil
}

func (m *memActivity) ApprovedSubmissionsOn(userID string, day time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.submissions {
		if s.userID == userID && s.approved && sameDay(s.at, day) {
			n++
		}
	}
	return n, nil
}

func (m *memActivity) RecordRedemption(userID, itemID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redemptions = append(m.redemptions, at)
	return nil
}

func (m *memActivity) RedemptionsSince(userID string, since time.Time) (int, error) {
	return 0, nil
}

func (m *memActivity) PendingQueue() ([]domain.QueueEntry, error) { return nil, nil }
func (m *memActivity) ActiveUserIDs() ([]string, error)           { return nil, nil }

// ─── Fixture ────────────────────────────────────────────────────────────────

type fixture struct {
	svc    *Service
	ledger *memLedger
	users  *memUsers
	clock  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ledger: &memLedger{},
		users:  newMemUsers(),
		clock:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	ldg := ledger.NewEngine(f.ledger, nil)
	ldg.SetClock(func() time.Time { return f.clock })
	f.svc = NewService(DefaultConfig(), f.users, &memActivity{}, ldg,
		level.NewEngine(level.DefaultConfig()), plan.DefaultRegistry(), nil)
	f.svc.SetClock(func() time.Time { return f.clock })
	return f
}

func (f *fixture) addUser(t *testing.T, userID, planName string, coins, xp int64) {
	t.Helper()
	info := level.ComputeLevelInfo(xp)
	if err := f.users.Save(domain.UserEconomyState{
		UserID: userID, Plan: planName, Coins: coins, XP: xp,
		Level: info.Level, XPToNextLevel: info.XPToNextLevel,
	}); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) advanceDays(d int) { f.clock = f.clock.AddDate(0, 0, d) }

// mustState fetches the snapshot or fails the test.
func (f *fixture) mustState(t *testing.T, userID string) domain.UserEconomyState {
	t.Helper()
	u, err := f.users.Get(userID)
	if err != nil {
		t.Fatal(err)
	}
	return *u
}

// ─── Check-In Scenario ──────────────────────────────────────────────────────

// Seven consecutive days from no prior check-in: bonus fires on day 7 only,
// and the streak resets to zero immediately after.
func TestEvaluateCheckIn_SevenDayStreak(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", plan.TierFree, 0, 0)

	for day := 1; day <= 7; day++ {
		res, err := f.svc.EvaluateCheckIn("u1")
		if err != nil {
			t.Fatalf("day %d: %v", day, err)
		}
		if day < 7 {
			if res.IsBonus {
				t.Errorf("day %d: unexpected bonus", day)
			}
			if res.Streak != day {
				t.Errorf("day %d: streak = %d, want %d", day, res.Streak, day)
			}
		} else {
			if !res.IsBonus {
				t.Error("day 7: bonus must fire")
			}
			if res.Streak != 0 {
				t.Errorf("day 7: streak = %d, want 0 (reset immediately)", res.Streak)
			}
			if res.CoinsGained != 10+50 {
				t.Errorf("day 7: coins gained = %d, want 60", res.CoinsGained)
			}
		}
		f.advanceDays(1)
	}
}

func TestEvaluateCheckIn_SameDayIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", plan.TierFree, 0, 0)

	if _, err := f.svc.EvaluateCheckIn("u1"); err != nil {
		t.Fatal(err)
	}
	before := f.mustState(t, "u1")

	_, err := f.svc.EvaluateCheckIn("u1")
	if !errors.Is(err, domain.ErrAlreadyProcessed) {
		t.Fatalf("second check-in err = %v, want ErrAlreadyProcessed", err)
	}
	after := f.mustState(t, "u1")
	if after.Coins != before.Coins || after.XP != before.XP {
		t.Error("same-day check-in must change nothing")
	}
}

func TestEvaluateCheckIn_MissedDayResetsStreak(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", plan.TierFree, 0, 0)

	f.svc.EvaluateCheckIn("u1")
	f.advanceDays(1)
	f.svc.EvaluateCheckIn("u1")
	f.advanceDays(2) // Gap

	res, err := f.svc.EvaluateCheckIn("u1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Streak != 1 {
		t.Errorf("streak after gap = %d, want 1", res.Streak)
	}
}

func TestEvaluateCheckIn_UnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.EvaluateCheckIn("ghost")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

// ─── Mission Approval ───────────────────────────────────────────────────────

func TestCalculateMissionRewards_PureFloorNoMultiplier(t *testing.T) {
	f := newFixture(t)
	got, err := f.svc.CalculateMissionRewards(domain.Mission{ID: "m1", XP: 250.9, Coins: 101.7})
	if err != nil {
		t.Fatal(err)
	}
	if got.XPGained != 250 || got.CoinsGained != 101 {
		t.Errorf("rewards = %+v, want floor(250.9)=250, floor(101.7)=101", got)
	}
}

func TestApproveMissionSubmission_AppliesMultiplierToCoinsOnly(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", plan.TierProfissional, 0, 0)

	res, err := f.svc.ApproveMissionSubmission("u1",
		domain.Mission{ID: "m1", Title: "Sketch", XP: 100, Coins: 101}, "sub-1")
	if err != nil {
		t.Fatal(err)
	}
	// Multiplier truncation: floor(101 × 1.25) = 126.
	if res.CoinsGained != 126 {
		t.Errorf("coins = %d, want 126", res.CoinsGained)
	}
	// XP is never multiplied.
	if res.XPGained != 100 {
		t.Errorf("xp = %d, want 100", res.XPGained)
	}
}

func TestApproveMissionSubmission_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", plan.TierEstudio, 0, 0)
	m := domain.Mission{ID: "m1", Title: "Sketch", XP: 100, Coins: 10}

	if _, err := f.svc.ApproveMissionSubmission("u1", m, "sub-1"); err != nil {
		t.Fatal(err)
	}
	before := f.mustState(t, "u1")

	_, err := f.svc.ApproveMissionSubmission("u1", m, "sub-1")
	if !errors.Is(err, domain.ErrAlreadyProcessed) {
		t.Fatalf("err = %v, want ErrAlreadyProcessed", err)
	}
	if after := f.mustState(t, "u1"); after.Coins != before.Coins {
		t.Error("duplicate approval must not grant again")
	}
}

// Daily limit scenario: Free tier limit is 1 — after one approved submission
// today, any further submission is rejected regardless of mission id.
func TestApproveMissionSubmission_FreeTierDailyLimit(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", plan.TierFree, 0, 0)

	if _, err := f.svc.ApproveMissionSubmission("u1",
		domain.Mission{ID: "m1", Title: "A", XP: 100, Coins: 10}, "sub-1"); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.ApproveMissionSubmission("u1",
		domain.Mission{ID: "m2", Title: "B", XP: 100, Coins: 10}, "sub-2")
	if !errors.Is(err, domain.ErrDailyLimitReached) {
		t.Fatalf("err = %v, want ErrDailyLimitReached", err)
	}

	// Next day the quota refreshes.
	f.advanceDays(1)
	if _, err := f.svc.ApproveMissionSubmission("u1",
		domain.Mission{ID: "m2", Title: "B", XP: 100, Coins: 10}, "sub-2"); err != nil {
		t.Fatalf("next-day approval failed: %v", err)
	}
}

func TestApproveMissionSubmission_MilestoneRoutedThroughLedger(t *testing.T) {
	f := newFixture(t)
	// One mission away from level 5 (10000 XP).
	f.addUser(t, "u1", plan.TierFree, 0, level.XPForLevelStart(5)-100)

	res, err := f.svc.ApproveMissionSubmission("u1",
		domain.Mission{ID: "m1", Title: "Big", Type: "special", XP: 100, Coins: 0}, "sub-1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Updated.Level != 5 {
		t.Fatalf("level = %d, want 5", res.Updated.Level)
	}
	// The 50-coin milestone bonus must appear in the ledger, not just the snapshot.
	if got := f.ledger.coinSum("u1"); got != 50 {
		t.Errorf("ledger coin sum = %d, want 50 milestone bonus", got)
	}
	if res.Updated.Coins != 50 {
		t.Errorf("snapshot coins = %d, want 50", res.Updated.Coins)
	}
}

func TestApproveMissionSubmission_NegativeRewardRejected(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", plan.TierFree, 0, 0)

	_, err := f.svc.ApproveMissionSubmission("u1",
		domain.Mission{ID: "m1", Title: "Bad", XP: -5, Coins: 10}, "sub-1")
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("err = %v, want ErrInvalidAmount", err)
	}
}

// ─── Spend Flows ────────────────────────────────────────────────────────────

// Spend safety: a failed spend writes no entry; balance before == after.
func TestProcessStorePurchase_FailClosed(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", plan.TierFree, 30, 0)

	res, err := f.svc.ProcessStorePurchase("u1",
		domain.StoreItem{ID: "i1", Name: "Frame", Price: 100})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	if res.Success {
		t.Error("success must be false")
	}
	if got := f.mustState(t, "u1").Coins; got != 30 {
		t.Errorf("balance = %d, want 30 unchanged", got)
	}
	if got := f.ledger.coinSum("u1"); got != 0 {
		t.Errorf("ledger sum = %d, want 0 (no entry on failed spend)", got)
	}
}

func TestProcessStorePurchase_DiscountApplied(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", plan.TierProfissional, 200, 0)

	res, err := f.svc.ProcessStorePurchase("u1",
		domain.StoreItem{ID: "i1", Name: "Frame", Price: 100, MinPlanRank: 0})
	if err != nil {
		t.Fatal(err)
	}
	if res.PricePaid != 90 { // 10% discount
		t.Errorf("price paid = %d, want 90", res.PricePaid)
	}
	if res.Updated.Coins != 110 {
		t.Errorf("balance = %d, want 110", res.Updated.Coins)
	}
}

func TestProcessStorePurchase_TierRestricted(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", plan.TierFree, 1000, 0)

	res, err := f.svc.ProcessStorePurchase("u1",
		domain.StoreItem{ID: "i1", Name: "Exclusive", Class: "exclusive", Price: 100, MinPlanRank: 2})
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Error("free-tier purchase of restricted item must fail")
	}
	if got := f.mustState(t, "u1").Coins; got != 1000 {
		t.Errorf("balance = %d, want 1000 unchanged", got)
	}
}

func TestProcessJackpotWin_IdempotentPerRound(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", plan.TierFree, 0, 0)

	if _, err := f.svc.ProcessJackpotWin("u1", 500, "round-7"); err != nil {
		t.Fatal(err)
	}
	_, err := f.svc.ProcessJackpotWin("u1", 500, "round-7")
	if !errors.Is(err, domain.ErrAlreadyProcessed) {
		t.Fatalf("duplicate payout err = %v, want ErrAlreadyProcessed", err)
	}
	if got := f.mustState(t, "u1").Coins; got != 500 {
		t.Errorf("balance = %d, want 500 (paid once)", got)
	}

	// A different round pays normally.
	if _, err := f.svc.ProcessJackpotWin("u1", 300, "round-8"); err != nil {
		t.Fatal(err)
	}
	if got := f.mustState(t, "u1").Coins; got != 800 {
		t.Errorf("balance = %d, want 800", got)
	}
}

// ─── Admin Adjustment ───────────────────────────────────────────────────────

func TestProcessAdminAdjustment_NegativeCoinsClampToZero(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", plan.TierFree, 40, 0)

	delta := int64(-100)
	res, err := f.svc.ProcessAdminAdjustment("u1", Adjustment{Coins: &delta}, "penalty", domain.SourcePunishment)
	if err != nil {
		t.Fatal(err)
	}
	if res.CoinsApplied != -40 {
		t.Errorf("applied = %d, want -40 (drain to zero)", res.CoinsApplied)
	}
	if res.Updated.Coins != 0 {
		t.Errorf("balance = %d, want 0", res.Updated.Coins)
	}
	if got := f.ledger.coinSum("u1"); got != -40 {
		t.Errorf("ledger sum = %d, want -40", got)
	}
}

func TestProcessAdminAdjustment_NegativeXPClampsAndDownLevels(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", plan.TierFree, 0, level.XPForLevelStart(6))

	delta := -level.XPForLevelStart(6) - 999 // More than the user has
	res, err := f.svc.ProcessAdminAdjustment("u1", Adjustment{XP: &delta}, "reset", domain.SourceAdminAdjustment)
	if err != nil {
		t.Fatal(err)
	}
	if res.Updated.XP != 0 {
		t.Errorf("XP = %d, want 0 (clamped)", res.Updated.XP)
	}
	if res.Updated.Level != 1 {
		t.Errorf("level = %d, want 1 (recomputed downward)", res.Updated.Level)
	}
}

func TestProcessAdminAdjustment_PositiveGrantsLevelNormally(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", plan.TierFree, 0, 0)

	xp := level.XPForLevelStart(5)
	res, err := f.svc.ProcessAdminAdjustment("u1", Adjustment{XP: &xp}, "migration", domain.SourceAdminAdjustment)
	if err != nil {
		t.Fatal(err)
	}
	if res.Updated.Level != 5 {
		t.Errorf("level = %d, want 5", res.Updated.Level)
	}
	// Milestone at level 5 fires through the ledger.
	if got := f.ledger.coinSum("u1"); got != 50 {
		t.Errorf("ledger sum = %d, want 50", got)
	}
}

func TestProcessAdminAdjustment_RejectsUnknownType(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", plan.TierFree, 0, 0)

	delta := int64(10)
	_, err := f.svc.ProcessAdminAdjustment("u1", Adjustment{Coins: &delta}, "oops", domain.SourceJackpotWin)
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("err = %v, want ErrInvalidAmount", err)
	}
}

// ─── Ledger-Sum Invariant Under Concurrency ─────────────────────────────────

// Snapshot coins must equal the COIN ledger sum at all times, even when
// mission approvals, purchases, and wins race for the same user.
func TestConcurrentWrites_LedgerSumInvariant(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", plan.TierEstudio, 1000, 0)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			switch n % 3 {
			case 0:
				f.svc.ProcessJackpotWin("u1", 10, string(rune('a'+n)))
			case 1:
				f.svc.ProcessEventEntry("u1", 10, "event-x")
			default:
				f.svc.ProcessBuyJackpotTicket("u1", 5, "round-1")
			}
		}(i)
	}
	wg.Wait()

	state := f.mustState(t, "u1")
	// Seed balance is not in the test ledger, so compare deltas.
	if got := f.ledger.coinSum("u1"); got != state.Coins-1000 {
		t.Errorf("ledger delta = %d, snapshot delta = %d — lost update", got, state.Coins-1000)
	}
	if state.Coins < 0 {
		t.Errorf("balance went negative: %d", state.Coins)
	}
}

// Audit ties the whole flow together: after a burst of operations the replay
// audit must pass.
func TestAudit_AfterMixedOperations(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", plan.TierIniciante, 0, 0)

	f.svc.EvaluateCheckIn("u1")
	f.svc.ApproveMissionSubmission("u1", domain.Mission{ID: "m1", Title: "A", XP: 100, Coins: 100}, "sub-1")
	f.svc.ProcessJackpotWin("u1", 200, "round-1")
	f.svc.ProcessEventEntry("u1", 50, "event-1")

	v, err := f.svc.Audit("u1")
	if err != nil {
		t.Fatal(err)
	}
	if !v.Valid {
		t.Errorf("audit failed: %s", v.Reason)
	}
}

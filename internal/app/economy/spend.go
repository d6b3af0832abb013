package economy

import (
	"fmt"

	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/app/audit"
	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/domain"
)

// ─── Spend Flows ────────────────────────────────────────────────────────────
// Store purchases, event entries, and jackpot tickets share one fail-closed
// spend path: the discounted cost is checked against the balance first, and
// on insufficient funds NO ledger entry is written — balance before equals
// balance after.

// SpendResult is the outcome of a purchase attempt.
type SpendResult struct {
	Updated    domain.UserEconomyState `json:"updated_user"`
	Success    bool                    `json:"success"`
	PricePaid  int64                   `json:"price_paid"` // After plan discount
	FailReason string                  `json:"fail_reason,omitempty"`
}

// ProcessStorePurchase redeems a store item: eligibility check, plan
// discount, atomic spend, redemption recorded for the anomaly window.
func (s *Service) ProcessStorePurchase(userID string, item domain.StoreItem) (SpendResult, error) {
	release := s.locks.acquire(userID)
	defer release()

	user, err := s.users.Get(userID)
	if err != nil {
		return SpendResult{}, err
	}

	tier, err := s.plans.Get(user.Plan)
	if err != nil {
		return SpendResult{}, err
	}
	if v := audit.ValidateStoreRedemption(*user, item, tier.HierarchyRank); !v.Valid {
		s.sink.ValidationWarning("store_redemption", v.Reason)
		return SpendResult{Updated: *user, FailReason: v.Reason}, nil
	}

	price, err := s.plans.DiscountedPrice(user.Plan, item.Price)
	if err != nil {
		return SpendResult{}, err
	}

	res, err := s.spend(user, price, domain.SourceStoreRedemption,
		"store redemption: "+item.Name, map[string]string{"item_id": item.ID})
	if err != nil || !res.Success {
		return res, err
	}

	if err := s.activity.RecordRedemption(userID, item.ID, s.now()); err != nil {
		return SpendResult{}, fmt.Errorf("record redemption: %w", err)
	}
	return res, nil
}

// ProcessEventEntry charges the (discounted) entry fee for an event.
func (s *Service) ProcessEventEntry(userID string, cost int64, eventID string) (SpendResult, error) {
	release := s.locks.acquire(userID)
	defer release()

	user, err := s.users.Get(userID)
	if err != nil {
		return SpendResult{}, err
	}
	price, err := s.plans.DiscountedPrice(user.Plan, cost)
	if err != nil {
		return SpendResult{}, err
	}
	return s.spend(user, price, domain.SourceEventEntry,
		"event entry", map[string]string{"event_id": eventID})
}

// ProcessBuyJackpotTicket charges the (discounted) jackpot ticket price.
// Buying several tickets for one round is legitimate, so no idempotency
// guard applies here — only the payout is guarded.
func (s *Service) ProcessBuyJackpotTicket(userID string, cost int64, roundID string) (SpendResult, error) {
	release := s.locks.acquire(userID)
	defer release()

	user, err := s.users.Get(userID)
	if err != nil {
		return SpendResult{}, err
	}
	price, err := s.plans.DiscountedPrice(user.Plan, cost)
	if err != nil {
		return SpendResult{}, err
	}
	return s.spend(user, price, domain.SourceJackpotEntry,
		"jackpot ticket", map[string]string{"round_id": roundID})
}

// ProcessJackpotWin pays out a jackpot round. The (userID, jackpot_win,
// roundID) idempotency key suppresses duplicate payouts: a second call for
// the same round is ErrAlreadyProcessed, nothing written.
func (s *Service) ProcessJackpotWin(userID string, amount int64, roundID string) (domain.UserEconomyState, error) {
	release := s.locks.acquire(userID)
	defer release()

	user, err := s.users.Get(userID)
	if err != nil {
		return domain.UserEconomyState{}, err
	}

	paid, err := s.ledger.HasTransactionOfType(userID, domain.SourceJackpotWin, roundID)
	if err != nil {
		return domain.UserEconomyState{}, err
	}
	if paid {
		return *user, domain.ErrAlreadyProcessed
	}
	if amount < 0 {
		return domain.UserEconomyState{}, fmt.Errorf("jackpot payout %d: %w", amount, domain.ErrInvalidAmount)
	}

	user.Coins += amount
	if _, err := s.ledger.Record(userID, domain.CurrencyCoin, amount, domain.TxEarn,
		domain.SourceJackpotWin, "jackpot win", user.Coins,
		map[string]string{domain.MetaUniqueID: roundID}); err != nil {
		return domain.UserEconomyState{}, err
	}
	if err := s.users.Save(*user); err != nil {
		return domain.UserEconomyState{}, fmt.Errorf("save user snapshot: %w", err)
	}
	return *user, nil
}

// spend is the shared fail-closed write path. The caller holds the user lock.
func (s *Service) spend(user *domain.UserEconomyState, cost int64, source domain.TransactionSource, description string, meta map[string]string) (SpendResult, error) {
	if cost < 0 {
		return SpendResult{}, fmt.Errorf("spend cost %d: %w", cost, domain.ErrInvalidAmount)
	}
	if user.Coins < cost {
		return SpendResult{
			Updated:    *user,
			PricePaid:  0,
			FailReason: fmt.Sprintf("balance %d below cost %d", user.Coins, cost),
		}, domain.ErrInsufficientFunds
	}

	user.Coins -= cost
	if _, err := s.ledger.Record(user.UserID, domain.CurrencyCoin, -cost, domain.TxSpend,
		source, description, user.Coins, meta); err != nil {
		return SpendResult{}, err
	}
	if err := s.users.Save(*user); err != nil {
		return SpendResult{}, fmt.Errorf("save user snapshot: %w", err)
	}

	return SpendResult{Updated: *user, Success: true, PricePaid: cost}, nil
}

// ─── Admin Adjustment ───────────────────────────────────────────────────────

// Adjustment is an admin-initiated delta. Nil fields are untouched.
type Adjustment struct {
	Coins *int64 `json:"coins,omitempty"`
	XP    *int64 `json:"xp,omitempty"`
}

// AdjustmentResult reports what was actually applied after clamping.
type AdjustmentResult struct {
	Updated       domain.UserEconomyState `json:"updated_user"`
	CoinsApplied  int64                   `json:"coins_applied"`
	XPApplied     int64                   `json:"xp_applied"`
	Notifications []domain.Notification   `json:"notifications,omitempty"`
}

// ProcessAdminAdjustment applies an admin delta. Positive deltas add
// normally (coin grants are NOT plan-multiplied). Negative coin deltas clamp
// to the available balance — draining to zero at most, never producing a
// negative-balance entry. Negative XP deltas clamp at zero and the level
// recomputes downward; milestone bonuses already granted stay. Consistency
// checks run synchronously and hard-block this admin write path.
func (s *Service) ProcessAdminAdjustment(userID string, adj Adjustment, reason string, adjType domain.TransactionSource) (AdjustmentResult, error) {
	if adjType != domain.SourceAdminAdjustment && adjType != domain.SourcePunishment {
		return AdjustmentResult{}, fmt.Errorf("adjustment type %q: %w", adjType, domain.ErrInvalidAmount)
	}

	release := s.locks.acquire(userID)
	defer release()

	user, err := s.users.Get(userID)
	if err != nil {
		return AdjustmentResult{}, err
	}

	res := AdjustmentResult{}

	if adj.Coins != nil {
		delta := *adj.Coins
		if delta < 0 && -delta > user.Coins {
			delta = -user.Coins // Drain to zero, never below
		}
		txType := domain.TxEarn
		if delta < 0 {
			txType = domain.TxSpend
		}
		user.Coins += delta
		if _, err := s.ledger.Record(userID, domain.CurrencyCoin, delta, txType,
			adjType, reason, user.Coins, nil); err != nil {
			return AdjustmentResult{}, err
		}
		res.CoinsApplied = delta
	}

	if adj.XP != nil {
		delta := *adj.XP
		switch {
		case delta > 0:
			notifs, err := s.grantXP(user, delta, adjType, reason, nil)
			if err != nil {
				return AdjustmentResult{}, err
			}
			res.Notifications = notifs
			res.XPApplied = delta
		case delta < 0:
			if -delta > user.XP {
				delta = -user.XP // Clamp at zero
			}
			newTotal := user.XP + delta
			if _, err := s.ledger.Record(userID, domain.CurrencyXP, delta, domain.TxSpend,
				adjType, reason, newTotal, nil); err != nil {
				return AdjustmentResult{}, err
			}
			// Level recomputes downward; no bonuses fire on the way down.
			s.levels.ProcessLevelUp(user, newTotal)
			res.XPApplied = delta
		}
	}

	v := audit.ValidateRankingAfterChange(*user)
	if !v.Valid {
		// Admin writes hard-block on consistency failure; nothing persisted.
		return AdjustmentResult{}, fmt.Errorf("adjustment rejected: %s: %w", v.Reason, domain.ErrInvalidAmount)
	}
	s.warn("ranking_after_change", v)
	if audit.EnsureLevelIntegrity(user) {
		s.sink.ValidationWarning("level_integrity", "snapshot level repaired from XP")
	}

	if err := s.users.Save(*user); err != nil {
		return AdjustmentResult{}, fmt.Errorf("save user snapshot: %w", err)
	}

	res.Updated = *user
	return res, nil
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/app/economy"
	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/domain"
)

// ─── Economy Endpoints ──────────────────────────────────────────────────────
//
// GET  /api/economy/{userID}                           — balance/level snapshot
// GET  /api/economy/{userID}/history                   — ledger, newest first
// GET  /api/economy/{userID}/notifications             — persisted notifications
// POST /api/economy/{userID}/check-in                  — daily check-in
// POST /api/economy/{userID}/purchase                  — store/event/jackpot spends
// POST /api/economy/{userID}/missions/{missionID}/approve
// POST /api/admin/economy/{userID}/adjust              — consistency-checked admin write
// POST /api/admin/economy/{userID}/jackpot-win         — idempotent payout credit
// GET  /api/admin/economy/{userID}/audit               — ledger replay audit
// GET  /api/admin/anomalies                            — full advisory sweep

// handleState returns a user's economy snapshot.
// GET /api/economy/{userID}
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	state, err := s.economy.State(userID)
	if err != nil {
		writeEconomyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleHistory returns a user's ledger, newest first.
// GET /api/economy/{userID}/history
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	entries, err := s.economy.History(userID)
	if err != nil {
		writeEconomyError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"entries": entries,
	})
}

// handleNotifications pages a user's persisted notifications.
// GET /api/economy/{userID}/notifications?limit=N
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if s.notifications == nil {
		writeError(w, http.StatusServiceUnavailable, "notifications not available")
		return
	}
	userID := chi.URLParam(r, "userID")

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	notifs, err := s.notifications.Notifications(userID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if notifs == nil {
		notifs = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":       userID,
		"notifications": notifs,
	})
}

// handleCheckIn runs the daily check-in. A same-day repeat returns 200 with
// already_processed set — the client treats it as success.
// POST /api/economy/{userID}/check-in
func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	res, err := s.economy.EvaluateCheckIn(userID)
	if errors.Is(err, domain.ErrAlreadyProcessed) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"already_processed": true,
			"streak":            res.Streak,
		})
		return
	}
	if err != nil {
		writeEconomyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type purchaseRequest struct {
	Kind string `json:"kind"` // "store", "event", "jackpot_ticket"

	// Store purchases
	Item *domain.StoreItem `json:"item,omitempty"`

	// Event entries and jackpot tickets
	Cost    int64  `json:"cost,omitempty"`
	EventID string `json:"event_id,omitempty"`
	RoundID string `json:"round_id,omitempty"`
}

// handlePurchase routes the three spend kinds. Insufficient funds is not a
// transport error: the response is 200 with success=false and the reason.
// POST /api/economy/{userID}/purchase
func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	var (
		res economy.SpendResult
		err error
	)
	switch req.Kind {
	case "store":
		if req.Item == nil {
			writeError(w, http.StatusBadRequest, "store purchase requires an item")
			return
		}
		res, err = s.economy.ProcessStorePurchase(userID, *req.Item)
	case "event":
		res, err = s.economy.ProcessEventEntry(userID, req.Cost, req.EventID)
	case "jackpot_ticket":
		res, err = s.economy.ProcessBuyJackpotTicket(userID, req.Cost, req.RoundID)
	default:
		writeError(w, http.StatusBadRequest, "kind must be store, event, or jackpot_ticket")
		return
	}

	if errors.Is(err, domain.ErrInsufficientFunds) {
		writeJSON(w, http.StatusOK, res)
		return
	}
	if err != nil {
		writeEconomyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type missionApproveRequest struct {
	SubmissionID string  `json:"submission_id"`
	Title        string  `json:"title"`
	Type         string  `json:"type"`
	XP           float64 `json:"xp"`
	Coins        float64 `json:"coins"`
}

// handleMissionApprove grants mission rewards for an approved submission.
// POST /api/economy/{userID}/missions/{missionID}/approve
func (s *Server) handleMissionApprove(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	missionID := chi.URLParam(r, "missionID")

	var req missionApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.SubmissionID == "" {
		writeError(w, http.StatusBadRequest, "submission_id is required")
		return
	}

	mission := domain.Mission{
		ID:    missionID,
		Title: req.Title,
		Type:  req.Type,
		XP:    req.XP,
		Coins: req.Coins,
	}

	res, err := s.economy.ApproveMissionSubmission(userID, mission, req.SubmissionID)
	if errors.Is(err, domain.ErrAlreadyProcessed) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"already_processed": true,
			"updated_user":      res.Updated,
		})
		return
	}
	if err != nil {
		writeEconomyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type adjustRequest struct {
	Coins  *int64 `json:"coins,omitempty"`
	XP     *int64 `json:"xp,omitempty"`
	Reason string `json:"reason"`
	Type   string `json:"type"` // "admin_adjustment" or "punishment"
}

// handleAdminAdjust applies a clamped, consistency-checked adjustment.
// POST /api/admin/economy/{userID}/adjust
func (s *Server) handleAdminAdjust(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Reason == "" {
		writeError(w, http.StatusBadRequest, "reason is required")
		return
	}

	adjType := domain.SourceAdminAdjustment
	if req.Type != "" {
		adjType = domain.TransactionSource(req.Type)
	}

	res, err := s.economy.ProcessAdminAdjustment(userID,
		economy.Adjustment{Coins: req.Coins, XP: req.XP}, req.Reason, adjType)
	if err != nil {
		writeEconomyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type jackpotWinRequest struct {
	Amount  int64  `json:"amount"`
	RoundID string `json:"round_id"`
}

// handleJackpotWin credits a jackpot payout, once per round.
// POST /api/admin/economy/{userID}/jackpot-win
func (s *Server) handleJackpotWin(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req jackpotWinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.RoundID == "" {
		writeError(w, http.StatusBadRequest, "round_id is required")
		return
	}

	updated, err := s.economy.ProcessJackpotWin(userID, req.Amount, req.RoundID)
	if errors.Is(err, domain.ErrAlreadyProcessed) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"already_processed": true,
			"updated_user":      updated,
		})
		return
	}
	if err != nil {
		writeEconomyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"updated_user": updated,
	})
}

// handleAudit replays the ledger against the stored snapshot.
// GET /api/admin/economy/{userID}/audit
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	v, err := s.economy.Audit(userID)
	if err != nil {
		writeEconomyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleAnomalies runs a full advisory sweep.
// GET /api/admin/anomalies
func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	if s.detector == nil {
		writeError(w, http.StatusServiceUnavailable, "anomaly detector not available")
		return
	}

	findings, err := s.detector.ScanAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if findings == nil {
		findings = []domain.Anomaly{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"findings": findings,
		"count":    len(findings),
	})
}

// writeEconomyError maps domain errors onto HTTP status codes.
func writeEconomyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrMissionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrUnknownPlan):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrDailyLimitReached):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		writeError(w, http.StatusPaymentRequired, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

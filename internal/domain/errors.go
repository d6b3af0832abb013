package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// ErrInvalidAmount marks a non-finite or sign-violating amount.
	// This is a programmer error and always fails loud.
	ErrInvalidAmount = errors.New("invalid transaction amount")

	// ErrInsufficientFunds is the expected, recoverable spend failure.
	// State is unchanged when it is returned; no retry is needed.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrUserNotFound signals a caller data-integrity problem.
	ErrUserNotFound = errors.New("user not found")

	// ErrMissionNotFound signals a caller data-integrity problem.
	ErrMissionNotFound = errors.New("mission not found")

	// ErrAlreadyProcessed means an idempotency guard tripped.
	// Callers treat it as a successful no-op.
	ErrAlreadyProcessed = errors.New("transaction already processed")

	// ErrDailyLimitReached means the plan's daily mission quota is spent.
	ErrDailyLimitReached = errors.New("daily mission limit reached")

	// ErrUnknownPlan means a plan name has no registered tier.
	ErrUnknownPlan = errors.New("unknown plan tier")
)

package models

import "errors"

// Ledger-level error taxonomy. Each maps to a distinct user-facing message;
// callers discriminate with errors.Is. InsufficientFunds and
// InsufficientHoldings are expected, recoverable outcomes, not defects.
var (
	// ErrInsufficientFunds — buy cost exceeds the cash balance.
	ErrInsufficientFunds = errors.New("insufficient balance to buy this stock")

	// ErrInsufficientHoldings — sell quantity exceeds the held quantity.
	ErrInsufficientHoldings = errors.New("not enough shares held to sell")

	// ErrPriceUnavailable — the provider had no data or failed.
	ErrPriceUnavailable = errors.New("price data unavailable")

	// ErrProviderTimeout — the bounded provider wait was exceeded.
	// Treated identically to ErrPriceUnavailable for control flow.
	ErrProviderTimeout = errors.New("market data provider timed out")

	// ErrPersistence — a durable write failed. Fatal to the in-progress
	// operation; in-memory state must not diverge from the last snapshot.
	ErrPersistence = errors.New("failed to persist snapshot")

	// ErrDuplicateAccount — account registration with an existing ID.
	ErrDuplicateAccount = errors.New("account already exists")

	// ErrAccountNotFound — no such account in the registry.
	ErrAccountNotFound = errors.New("account not found")
)

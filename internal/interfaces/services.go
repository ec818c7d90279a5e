package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mjcarson/folio/internal/models"
)

// MarketDataService is the price cache fronting the provider. Cached series
// never expire or refresh automatically; RefreshSeries is the explicit
// operator escape hatch for staleness.
type MarketDataService interface {
	// GetSeries returns the cached series for symbol, fetching from the
	// provider and writing through to durable storage on a miss. A provider
	// failure is surfaced and not cached; a later call retries the provider.
	GetSeries(ctx context.Context, symbol string) (*models.PriceSeries, error)

	// LatestPrice returns the most recent closing price of GetSeries.
	LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error)

	// RefreshSeries bypasses the cache, re-fetches from the provider, and
	// overwrites the cached entry on success.
	RefreshSeries(ctx context.Context, symbol string) (*models.PriceSeries, error)
}

// LedgerReport is the read-only view returned by Report.
type LedgerReport struct {
	AccountID    string               `json:"account_id"`
	Balance      decimal.Decimal      `json:"balance"`
	Holdings     []models.Holding     `json:"holdings"`
	Transactions []models.Transaction `json:"transactions"`
}

// LedgerService is the portfolio manager: the sole mutator of ledger state.
// Mutating operations on one account are serialized; the committed state
// always matches the last durable snapshot.
type LedgerService interface {
	// Buy executes a buy at an explicit price.
	Buy(ctx context.Context, accountID, symbol string, quantity int64, price decimal.Decimal) (*LedgerReport, error)

	// Sell executes a sell at an explicit price.
	Sell(ctx context.Context, accountID, symbol string, quantity int64, price decimal.Decimal) (*LedgerReport, error)

	// BuyAtMarket resolves the latest market price, then buys at it.
	BuyAtMarket(ctx context.Context, accountID, symbol string, quantity int64) (*LedgerReport, error)

	// SellAtMarket resolves the latest market price, then sells at it.
	SellAtMarket(ctx context.Context, accountID, symbol string, quantity int64) (*LedgerReport, error)

	// Valuation sums quantity×latestPrice over holdings with quantity > 0.
	// Any failed price lookup fails the whole valuation naming the symbol —
	// a partial sum would be misleading.
	Valuation(ctx context.Context, accountID string) (decimal.Decimal, error)

	// Report returns the holdings snapshot and transaction history. Pure
	// read; the returned report is a copy, safe to hold.
	Report(ctx context.Context, accountID string) (*LedgerReport, error)
}

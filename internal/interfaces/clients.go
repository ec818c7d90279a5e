package interfaces

import (
	"context"

	"github.com/mjcarson/folio/internal/models"
)

// MarketDataClient fetches daily closing-price series from a remote provider.
// Calls may be slow or fail transiently; the client does not retry — retry
// policy, if desired, belongs to the caller. "No data" surfaces as
// models.ErrPriceUnavailable and a context deadline as
// models.ErrProviderTimeout, never as a crash.
type MarketDataClient interface {
	GetDailySeries(ctx context.Context, symbol string) (*models.PriceSeries, error)
}

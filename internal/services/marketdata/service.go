// Package marketdata serves price series through a durable write-through
// cache in front of the market data provider.
package marketdata

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/mjcarson/folio/internal/common"
	"github.com/mjcarson/folio/internal/interfaces"
	"github.com/mjcarson/folio/internal/models"
)

// Service implements interfaces.MarketDataService. Cached entries never
// expire; a symbol is fetched from the provider at most once unless
// explicitly refreshed.
type Service struct {
	client interfaces.MarketDataClient
	cache  interfaces.PriceCacheStore
	logger *common.Logger
	group  singleflight.Group
}

// NewService creates the market data service.
func NewService(client interfaces.MarketDataClient, cache interfaces.PriceCacheStore, logger *common.Logger) *Service {
	return &Service{
		client: client,
		cache:  cache,
		logger: logger,
	}
}

// GetSeries returns the cached series for symbol, consulting the provider
// only on a miss. Concurrent misses for the same symbol collapse into a
// single provider request. Provider failures are returned, never cached.
func (s *Service) GetSeries(ctx context.Context, symbol string) (*models.PriceSeries, error) {
	if series, err := s.cache.GetSeries(ctx, symbol); err == nil {
		s.logger.Debug().Str("symbol", symbol).Int("points", len(series.Points)).Msg("Price cache hit")
		return series, nil
	}

	v, err, _ := s.group.Do(symbol, func() (interface{}, error) {
		// Another flight may have filled the cache while we waited.
		if series, err := s.cache.GetSeries(ctx, symbol); err == nil {
			return series, nil
		}
		return s.fetchAndStore(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.PriceSeries), nil
}

// LatestPrice returns the most recent closing price for symbol.
func (s *Service) LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	series, err := s.GetSeries(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	latest, ok := series.Latest()
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: empty series for '%s'", models.ErrPriceUnavailable, symbol)
	}
	return latest.Close, nil
}

// RefreshSeries bypasses the cache and re-fetches symbol from the provider,
// overwriting the cached entry on success. On provider failure the existing
// cached entry is left untouched.
func (s *Service) RefreshSeries(ctx context.Context, symbol string) (*models.PriceSeries, error) {
	s.logger.Info().Str("symbol", symbol).Msg("Refreshing price series from provider")
	return s.fetchAndStore(ctx, symbol)
}

func (s *Service) fetchAndStore(ctx context.Context, symbol string) (*models.PriceSeries, error) {
	series, err := s.client.GetDailySeries(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SaveSeries(ctx, series); err != nil {
		// Serve the fetched data anyway; the next miss retries the write.
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to persist price series")
	} else {
		s.logger.Info().Str("symbol", symbol).Int("points", len(series.Points)).Msg("Price series cached")
	}

	return series, nil
}

// Ensure Service implements MarketDataService
var _ interfaces.MarketDataService = (*Service)(nil)

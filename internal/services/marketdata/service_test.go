package marketdata

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjcarson/folio/internal/common"
	"github.com/mjcarson/folio/internal/models"
)

// fakeClient counts provider calls and serves a canned series per symbol.
type fakeClient struct {
	calls  atomic.Int64
	delay  time.Duration
	err    error
	series map[string]*models.PriceSeries
}

func (f *fakeClient) GetDailySeries(ctx context.Context, symbol string) (*models.PriceSeries, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.series[symbol]
	if !ok {
		return nil, models.ErrPriceUnavailable
	}
	return s, nil
}

// memCache is an in-memory PriceCacheStore.
type memCache struct {
	mu      sync.Mutex
	entries map[string]*models.PriceSeries
	saveErr error
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]*models.PriceSeries)}
}

func (m *memCache) GetSeries(ctx context.Context, symbol string) (*models.PriceSeries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.entries[symbol]
	if !ok {
		return nil, models.ErrPriceUnavailable
	}
	return s, nil
}

func (m *memCache) SaveSeries(ctx context.Context, series *models.PriceSeries) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[series.Symbol] = series
	return nil
}

func (m *memCache) ListSymbols(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for s := range m.entries {
		out = append(out, s)
	}
	return out, nil
}

func acmeSeries(closes ...string) *models.PriceSeries {
	s := &models.PriceSeries{Symbol: "ACME"}
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		s.Points = append(s.Points, models.PricePoint{
			Date:  day.AddDate(0, 0, i),
			Close: decimal.RequireFromString(c),
		})
	}
	return s
}

func TestGetSeries_FetchesOnceThenServesCache(t *testing.T) {
	client := &fakeClient{series: map[string]*models.PriceSeries{"ACME": acmeSeries("50", "51")}}
	svc := NewService(client, newMemCache(), common.NewSilentLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		series, err := svc.GetSeries(ctx, "ACME")
		require.NoError(t, err)
		assert.Len(t, series.Points, 2)
	}

	assert.Equal(t, int64(1), client.calls.Load())
}

func TestGetSeries_ConcurrentMissesSingleFlight(t *testing.T) {
	client := &fakeClient{
		delay:  50 * time.Millisecond,
		series: map[string]*models.PriceSeries{"ACME": acmeSeries("50")},
	}
	svc := NewService(client, newMemCache(), common.NewSilentLogger())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GetSeries(context.Background(), "ACME")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), client.calls.Load())
}

func TestGetSeries_ProviderErrorNotCached(t *testing.T) {
	client := &fakeClient{err: models.ErrProviderTimeout}
	svc := NewService(client, newMemCache(), common.NewSilentLogger())
	ctx := context.Background()

	_, err := svc.GetSeries(ctx, "ACME")
	require.ErrorIs(t, err, models.ErrProviderTimeout)

	// Provider recovers; the next call retries instead of serving the error.
	client.err = nil
	client.series = map[string]*models.PriceSeries{"ACME": acmeSeries("50")}

	series, err := svc.GetSeries(ctx, "ACME")
	require.NoError(t, err)
	assert.Len(t, series.Points, 1)
	assert.Equal(t, int64(2), client.calls.Load())
}

func TestGetSeries_SaveFailureStillServes(t *testing.T) {
	client := &fakeClient{series: map[string]*models.PriceSeries{"ACME": acmeSeries("50")}}
	cache := newMemCache()
	cache.saveErr = models.ErrPersistence
	svc := NewService(client, cache, common.NewSilentLogger())

	series, err := svc.GetSeries(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Len(t, series.Points, 1)
}

func TestLatestPrice(t *testing.T) {
	client := &fakeClient{series: map[string]*models.PriceSeries{"ACME": acmeSeries("50", "51.25")}}
	svc := NewService(client, newMemCache(), common.NewSilentLogger())

	price, err := svc.LatestPrice(context.Background(), "ACME")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("51.25")))
}

func TestLatestPrice_Unavailable(t *testing.T) {
	client := &fakeClient{series: map[string]*models.PriceSeries{}}
	svc := NewService(client, newMemCache(), common.NewSilentLogger())

	_, err := svc.LatestPrice(context.Background(), "GHOST")
	require.ErrorIs(t, err, models.ErrPriceUnavailable)
}

func TestRefreshSeries_BypassesCache(t *testing.T) {
	client := &fakeClient{series: map[string]*models.PriceSeries{"ACME": acmeSeries("50")}}
	cache := newMemCache()
	svc := NewService(client, cache, common.NewSilentLogger())
	ctx := context.Background()

	_, err := svc.GetSeries(ctx, "ACME")
	require.NoError(t, err)

	client.series["ACME"] = acmeSeries("50", "60")
	series, err := svc.RefreshSeries(ctx, "ACME")
	require.NoError(t, err)
	assert.Len(t, series.Points, 2)
	assert.Equal(t, int64(2), client.calls.Load())

	// The refreshed entry replaced the cached one.
	cached, err := svc.GetSeries(ctx, "ACME")
	require.NoError(t, err)
	assert.Len(t, cached.Points, 2)
	assert.Equal(t, int64(2), client.calls.Load())
}

func TestRefreshSeries_FailureKeepsCachedEntry(t *testing.T) {
	client := &fakeClient{series: map[string]*models.PriceSeries{"ACME": acmeSeries("50")}}
	cache := newMemCache()
	svc := NewService(client, cache, common.NewSilentLogger())
	ctx := context.Background()

	_, err := svc.GetSeries(ctx, "ACME")
	require.NoError(t, err)

	client.err = models.ErrProviderTimeout
	_, err = svc.RefreshSeries(ctx, "ACME")
	require.ErrorIs(t, err, models.ErrProviderTimeout)

	cached, err := svc.GetSeries(ctx, "ACME")
	require.NoError(t, err)
	assert.Len(t, cached.Points, 1)
}

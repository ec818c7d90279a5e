// Package alphavantage provides a client for the Alpha Vantage API
package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/mjcarson/folio/internal/common"
	"github.com/mjcarson/folio/internal/interfaces"
	"github.com/mjcarson/folio/internal/models"
)

const (
	DefaultBaseURL   = "https://www.alphavantage.co/query"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second

	dailySeriesKey = "Time Series (Daily)"
	closeField     = "4. close"
)

// Client implements the MarketDataClient interface against the Alpha Vantage
// TIME_SERIES_DAILY endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Alpha Vantage client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a non-200 API response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("alpha vantage API error: %s (status: %d)", e.Message, e.StatusCode)
}

// dailyResponse is the TIME_SERIES_DAILY payload. The provider signals
// failures in-band with 200-status bodies: "Error Message" for unknown
// symbols, "Note"/"Information" for rate limiting. Absence of the series
// key means "no data", never a crash.
type dailyResponse struct {
	ErrorMessage string                       `json:"Error Message"`
	Note         string                       `json:"Note"`
	Information  string                       `json:"Information"`
	Series       map[string]map[string]string `json:"Time Series (Daily)"`
}

// GetDailySeries retrieves the daily closing-price series for a symbol,
// ordered oldest to newest. No data maps to models.ErrPriceUnavailable and
// an exceeded deadline to models.ErrProviderTimeout; the client never
// retries on its own.
func (c *Client) GetDailySeries(ctx context.Context, symbol string) (*models.PriceSeries, error) {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("symbol", symbol).Msg("Alpha Vantage API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: fetch daily series for '%s': %v", models.ErrProviderTimeout, symbol, err)
		}
		return nil, fmt.Errorf("%w: fetch daily series for '%s': %v", models.ErrPriceUnavailable, symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: %v", models.ErrPriceUnavailable,
			&APIError{StatusCode: resp.StatusCode, Message: string(body)})
	}

	var payload dailyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode response for '%s': %v", models.ErrPriceUnavailable, symbol, err)
	}

	if payload.ErrorMessage != "" {
		return nil, fmt.Errorf("%w: '%s': %s", models.ErrPriceUnavailable, symbol, payload.ErrorMessage)
	}
	if payload.Note != "" || payload.Information != "" {
		return nil, fmt.Errorf("%w: '%s': provider throttled the request", models.ErrPriceUnavailable, symbol)
	}
	if len(payload.Series) == 0 {
		return nil, fmt.Errorf("%w: no daily series for '%s'", models.ErrPriceUnavailable, symbol)
	}

	series := &models.PriceSeries{
		Symbol: symbol,
		Points: make([]models.PricePoint, 0, len(payload.Series)),
	}
	for dateStr, fields := range payload.Series {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			c.logger.Warn().Str("symbol", symbol).Str("date", dateStr).Msg("Skipping bar with unparseable date")
			continue
		}
		closeStr, ok := fields[closeField]
		if !ok {
			c.logger.Warn().Str("symbol", symbol).Str("date", dateStr).Msg("Skipping bar without close field")
			continue
		}
		close, err := decimal.NewFromString(closeStr)
		if err != nil {
			c.logger.Warn().Str("symbol", symbol).Str("date", dateStr).Str("close", closeStr).Msg("Skipping bar with unparseable close")
			continue
		}
		series.Points = append(series.Points, models.PricePoint{Date: date, Close: close})
	}
	if len(series.Points) == 0 {
		return nil, fmt.Errorf("%w: no usable daily bars for '%s'", models.ErrPriceUnavailable, symbol)
	}
	series.SortAscending()

	c.logger.Debug().Str("symbol", symbol).Int("points", len(series.Points)).Msg("Alpha Vantage daily series fetched")
	return series, nil
}

// isTimeout reports whether the transport error was a deadline/timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var uerr *url.Error
	return errors.As(err, &uerr) && uerr.Timeout()
}

// Ensure Client implements MarketDataClient
var _ interfaces.MarketDataClient = (*Client)(nil)

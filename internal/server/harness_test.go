package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mjcarson/folio/internal/app"
	"github.com/mjcarson/folio/internal/common"
	"github.com/mjcarson/folio/internal/models"
	"github.com/mjcarson/folio/internal/services/chart"
	"github.com/mjcarson/folio/internal/services/ledger"
	"github.com/mjcarson/folio/internal/services/marketdata"
	"github.com/mjcarson/folio/internal/storage"
)

// stubClient serves canned daily series without touching the network.
type stubClient struct {
	series map[string]*models.PriceSeries
}

func (c *stubClient) GetDailySeries(ctx context.Context, symbol string) (*models.PriceSeries, error) {
	s, ok := c.series[symbol]
	if !ok {
		return nil, models.ErrPriceUnavailable
	}
	return s, nil
}

func stubSeries(symbol string, closes ...string) *models.PriceSeries {
	s := &models.PriceSeries{Symbol: symbol}
	now := time.Now().UTC().Truncate(24 * time.Hour)
	for i, c := range closes {
		s.Points = append(s.Points, models.PricePoint{
			Date:  now.AddDate(0, 0, i-len(closes)+1),
			Close: decimal.RequireFromString(c),
		})
	}
	return s
}

// newTestServer builds a server over real storage in a temp dir and a stub
// market data client.
func newTestServer(t *testing.T) (*Server, *stubClient) {
	t.Helper()

	dir := t.TempDir()
	config := common.NewDefaultConfig()
	config.Storage.Accounts.Path = filepath.Join(dir, "accounts")
	config.Storage.Ledger.Path = filepath.Join(dir, "ledger")
	config.Auth.JWTSecret = "test-secret"
	logger := common.NewSilentLogger()

	storageManager, err := storage.NewManager(logger, config)
	require.NoError(t, err)
	t.Cleanup(func() { storageManager.Close() })

	client := &stubClient{series: map[string]*models.PriceSeries{
		"ACME": stubSeries("ACME", "49.10", "50"),
	}}

	marketService := marketdata.NewService(client, storageManager.PriceCacheStore(), logger)
	ledgerService := ledger.NewService(storageManager.AccountStore(), storageManager.LedgerStore(), marketService, logger)
	chartService := chart.NewService(marketService, logger)

	a := &app.App{
		Config:        config,
		Logger:        logger,
		Storage:       storageManager,
		MarketClient:  client,
		MarketService: marketService,
		LedgerService: ledgerService,
		ChartService:  chartService,
		StartupTime:   time.Now(),
	}

	return NewServer(a), client
}

// doJSON performs a request against the full middleware stack.
func doJSON(t *testing.T, srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

// decodeBody unmarshals a JSON response body.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

// createAccount registers an account and returns a login token.
func createAccount(t *testing.T, srv *Server, accountID, password string) string {
	t.Helper()

	rec := doJSON(t, srv, http.MethodPost, "/api/accounts", "", map[string]string{
		"account_id": accountID,
		"email":      accountID + "@example.com",
		"password":   password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	rec = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"account_id": accountID,
		"password":   password,
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	data := decodeBody(t, rec)["data"].(map[string]interface{})
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)
	return token
}

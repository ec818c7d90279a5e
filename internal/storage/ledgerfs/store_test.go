package ledgerfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjcarson/folio/internal/common"
	"github.com/mjcarson/folio/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(common.NewSilentLogger(), t.TempDir())
	require.NoError(t, err)
	return s
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestLoadLedger_FirstUseReturnsNil(t *testing.T) {
	s := newTestStore(t)

	ledger, err := s.LedgerStore().LoadLedger(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, ledger)
}

func TestSaveLoadLedger_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	ledger := models.NewLedger("alice", d("10000"))
	require.NoError(t, ledger.ApplyBuy("ACME", 10, d("50"), at))
	require.NoError(t, ledger.ApplySell("ACME", 4, d("60"), at))

	require.NoError(t, s.LedgerStore().SaveLedger(ctx, ledger))

	loaded, err := s.LedgerStore().LoadLedger(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, "alice", loaded.AccountID)
	assert.Equal(t, models.LedgerSchemaVersion, loaded.SchemaVersion)
	assert.True(t, loaded.Balance.Equal(d("9740")), "balance %s", loaded.Balance)
	require.Len(t, loaded.Transactions, 2)
	assert.Equal(t, models.TxBuy, loaded.Transactions[0].Action)
	assert.Equal(t, models.TxSell, loaded.Transactions[1].Action)
	h := loaded.Holdings["ACME"]
	assert.Equal(t, int64(6), h.Quantity)
	assert.True(t, h.CostBasis.Equal(d("260")))
}

func TestSaveLedger_OverwritesAtomically(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ledger := models.NewLedger("alice", d("10000"))
	require.NoError(t, s.LedgerStore().SaveLedger(ctx, ledger))
	require.NoError(t, ledger.ApplyBuy("ACME", 1, d("5"), time.Now().UTC()))
	require.NoError(t, s.LedgerStore().SaveLedger(ctx, ledger))

	loaded, err := s.LedgerStore().LoadLedger(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, loaded.Transactions, 1)

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Join(s.DataPath(), "ledgers"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}

func TestLoadLedger_SchemaVersionMismatch(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join(s.DataPath(), "ledgers", "bob.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"account_id":"bob","schema_version":"0","balance":"1"}`), 0644))

	_, err := s.LedgerStore().LoadLedger(context.Background(), "bob")
	require.ErrorIs(t, err, models.ErrPersistence)
}

func TestDeleteLedger(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.LedgerStore().SaveLedger(ctx, models.NewLedger("alice", d("1"))))
	require.NoError(t, s.LedgerStore().DeleteLedger(ctx, "alice"))

	ledger, err := s.LedgerStore().LoadLedger(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, ledger)
}

func TestPriceCache_RoundTripAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ps := s.PriceCacheStore()

	_, err := ps.GetSeries(ctx, "ACME")
	require.ErrorIs(t, err, models.ErrPriceUnavailable)

	series := &models.PriceSeries{
		Symbol: "ACME",
		Points: []models.PricePoint{
			{Date: time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC), Close: d("49.10")},
			{Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Close: d("50")},
		},
	}
	require.NoError(t, ps.SaveSeries(ctx, series))

	got, err := ps.GetSeries(ctx, "ACME")
	require.NoError(t, err)
	require.Len(t, got.Points, 2)
	latest, ok := got.Latest()
	require.True(t, ok)
	assert.True(t, latest.Close.Equal(d("50")))

	symbols, err := ps.ListSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ACME"}, symbols)
}

func TestSanitizeKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ledger := models.NewLedger("../evil/../../name", d("1"))
	require.NoError(t, s.LedgerStore().SaveLedger(ctx, ledger))

	entries, err := os.ReadDir(filepath.Join(s.DataPath(), "ledgers"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), "..")
}

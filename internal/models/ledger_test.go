package models

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

var testTime = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func TestApplyBuy(t *testing.T) {
	l := NewLedger("acct-1", d("10000"))

	require.NoError(t, l.ApplyBuy("ACME", 10, d("50"), testTime))

	assert.True(t, l.Balance.Equal(d("9500")), "balance %s", l.Balance)
	h := l.Holdings["ACME"]
	assert.Equal(t, int64(10), h.Quantity)
	assert.True(t, h.CostBasis.Equal(d("500")), "cost basis %s", h.CostBasis)
	require.Len(t, l.Transactions, 1)
	tx := l.Transactions[0]
	assert.Equal(t, TxBuy, tx.Action)
	assert.Equal(t, "ACME", tx.Symbol)
	assert.Equal(t, int64(10), tx.Quantity)
	assert.True(t, tx.Price.Equal(d("50")))
	assert.Equal(t, testTime, tx.Timestamp)
}

func TestApplyBuy_AccumulatesExistingHolding(t *testing.T) {
	l := NewLedger("acct-1", d("10000"))
	require.NoError(t, l.ApplyBuy("ACME", 10, d("50"), testTime))
	require.NoError(t, l.ApplyBuy("ACME", 5, d("40"), testTime))

	h := l.Holdings["ACME"]
	assert.Equal(t, int64(15), h.Quantity)
	assert.True(t, h.CostBasis.Equal(d("700")))
	assert.True(t, l.Balance.Equal(d("9300")))
	assert.Len(t, l.Transactions, 2)
}

func TestApplyBuy_InsufficientFunds_NoStateChange(t *testing.T) {
	l := NewLedger("acct-1", d("100"))
	before := l.Clone()

	err := l.ApplyBuy("ACME", 10, d("50"), testTime)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, before, l)
}

func TestApplySell_SubtractsSellPriceFromCostBasis(t *testing.T) {
	// Cost basis moves by quantity×sellPrice, not the purchase price.
	l := NewLedger("acct-1", d("10000"))
	require.NoError(t, l.ApplyBuy("ACME", 10, d("50"), testTime))

	require.NoError(t, l.ApplySell("ACME", 4, d("60"), testTime))

	assert.True(t, l.Balance.Equal(d("9740")), "balance %s", l.Balance)
	h := l.Holdings["ACME"]
	assert.Equal(t, int64(6), h.Quantity)
	assert.True(t, h.CostBasis.Equal(d("260")), "cost basis %s", h.CostBasis)
	require.Len(t, l.Transactions, 2)
	assert.Equal(t, TxSell, l.Transactions[1].Action)
}

func TestApplySell_InsufficientHoldings_NoStateChange(t *testing.T) {
	l := NewLedger("acct-1", d("10000"))
	require.NoError(t, l.ApplyBuy("ACME", 10, d("50"), testTime))
	require.NoError(t, l.ApplySell("ACME", 4, d("60"), testTime))
	before := l.Clone()

	err := l.ApplySell("ACME", 10, d("60"), testTime)
	require.ErrorIs(t, err, ErrInsufficientHoldings)
	assert.Equal(t, before, l)

	err = l.ApplySell("OTHER", 1, d("10"), testTime)
	require.ErrorIs(t, err, ErrInsufficientHoldings)
	assert.Equal(t, before, l)
}

func TestApplySell_SoldOutHoldingStaysInMap(t *testing.T) {
	l := NewLedger("acct-1", d("10000"))
	require.NoError(t, l.ApplyBuy("ACME", 10, d("50"), testTime))
	require.NoError(t, l.ApplySell("ACME", 10, d("60"), testTime))

	h, ok := l.Holdings["ACME"]
	require.True(t, ok, "zero-quantity holding must not be pruned")
	assert.Equal(t, int64(0), h.Quantity)
	assert.True(t, h.CostBasis.Equal(d("-100")), "cost basis keeps its historical-spend drift")
	assert.Empty(t, l.HeldSymbols())
}

func TestValidateTrade(t *testing.T) {
	l := NewLedger("acct-1", d("10000"))

	tests := []struct {
		name     string
		symbol   string
		quantity int64
		price    decimal.Decimal
	}{
		{"zero quantity", "ACME", 0, d("50")},
		{"negative quantity", "ACME", -5, d("50")},
		{"zero price", "ACME", 10, d("0")},
		{"negative price", "ACME", 10, d("-1")},
		{"empty symbol", "", 10, d("50")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, l.ApplyBuy(tt.symbol, tt.quantity, tt.price, testTime))
			assert.Error(t, l.ApplySell(tt.symbol, tt.quantity, tt.price, testTime))
		})
	}
	assert.True(t, l.Balance.Equal(d("10000")))
	assert.Empty(t, l.Transactions)
}

func TestClone_IsIndependent(t *testing.T) {
	l := NewLedger("acct-1", d("10000"))
	require.NoError(t, l.ApplyBuy("ACME", 10, d("50"), testTime))

	c := l.Clone()
	require.NoError(t, c.ApplyBuy("ACME", 5, d("50"), testTime))
	require.NoError(t, c.ApplyBuy("XYZ", 1, d("1"), testTime))

	assert.Equal(t, int64(10), l.Holdings["ACME"].Quantity)
	assert.NotContains(t, l.Holdings, "XYZ")
	assert.Len(t, l.Transactions, 1)
	assert.True(t, l.Balance.Equal(d("9500")))
}

func TestErrorTaxonomyIsDiscriminable(t *testing.T) {
	l := NewLedger("acct-1", d("10"))
	err := l.ApplyBuy("ACME", 10, d("50"), testTime)
	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	assert.False(t, errors.Is(err, ErrInsufficientHoldings))
}

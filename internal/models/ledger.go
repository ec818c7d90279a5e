// Package models defines data structures for Folio
package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerSchemaVersion tags persisted ledger snapshots. A snapshot is one
// atomically-replaceable record holding balance, holdings, and transactions
// together, so a partial update across categories cannot be observed.
const LedgerSchemaVersion = "1"

// TxAction is the direction of a ledger transaction.
type TxAction string

const (
	TxBuy  TxAction = "BUY"
	TxSell TxAction = "SELL"
)

// Transaction is one committed trade. Immutable once appended; the
// transaction log is append-only and never reordered.
type Transaction struct {
	Action    TxAction        `json:"action"`
	Symbol    string          `json:"symbol"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

// Holding is an account's position in one symbol. CostBasis is cumulative
// money spent acquiring the currently-held quantity, adjusted by the signed
// trade amount on both buy and sell. On sell the *sell* price is subtracted,
// so it is not true remaining-cost-basis accounting once partial sells occur
// at a different price than purchase. Persisted snapshots depend on this
// arithmetic; do not change it without migrating them.
type Holding struct {
	Symbol    string          `json:"symbol"`
	Quantity  int64           `json:"quantity"`
	CostBasis decimal.Decimal `json:"cost_basis"`
}

// Ledger is the authoritative record of one account: cash balance, holdings,
// and the transaction log. Owned and mutated exclusively by the ledger
// service; everything else sees copies.
type Ledger struct {
	AccountID     string             `json:"account_id"`
	SchemaVersion string             `json:"schema_version"`
	Balance       decimal.Decimal    `json:"balance"`
	Holdings      map[string]Holding `json:"holdings"`
	Transactions  []Transaction      `json:"transactions"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// NewLedger creates an empty ledger with the given opening balance.
func NewLedger(accountID string, initialBalance decimal.Decimal) *Ledger {
	return &Ledger{
		AccountID:     accountID,
		SchemaVersion: LedgerSchemaVersion,
		Balance:       initialBalance,
		Holdings:      make(map[string]Holding),
	}
}

// Clone returns a deep copy. Mutations are staged on a clone and only
// promoted after the snapshot persists, so a failed write leaves the
// in-memory ledger at the last durable state.
func (l *Ledger) Clone() *Ledger {
	c := &Ledger{
		AccountID:     l.AccountID,
		SchemaVersion: l.SchemaVersion,
		Balance:       l.Balance,
		Holdings:      make(map[string]Holding, len(l.Holdings)),
		Transactions:  make([]Transaction, len(l.Transactions)),
		UpdatedAt:     l.UpdatedAt,
	}
	for sym, h := range l.Holdings {
		c.Holdings[sym] = h
	}
	copy(c.Transactions, l.Transactions)
	return c
}

// validateTrade checks the shared buy/sell preconditions.
func validateTrade(symbol string, quantity int64, price decimal.Decimal) error {
	if symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	if !price.IsPositive() {
		return fmt.Errorf("price must be positive, got %s", price)
	}
	return nil
}

// ApplyBuy debits quantity×price from the balance, upserts the holding, and
// appends a BUY transaction. Returns ErrInsufficientFunds (without mutating)
// when the total cost exceeds the balance.
func (l *Ledger) ApplyBuy(symbol string, quantity int64, price decimal.Decimal, at time.Time) error {
	if err := validateTrade(symbol, quantity, price); err != nil {
		return err
	}

	totalCost := price.Mul(decimal.NewFromInt(quantity))
	if totalCost.GreaterThan(l.Balance) {
		return fmt.Errorf("%w: cost %s exceeds balance %s", ErrInsufficientFunds, totalCost, l.Balance)
	}

	l.Balance = l.Balance.Sub(totalCost)

	h := l.Holdings[symbol]
	h.Symbol = symbol
	h.Quantity += quantity
	h.CostBasis = h.CostBasis.Add(totalCost)
	l.Holdings[symbol] = h

	l.Transactions = append(l.Transactions, Transaction{
		Action:    TxBuy,
		Symbol:    symbol,
		Quantity:  quantity,
		Price:     price,
		Timestamp: at,
	})
	l.UpdatedAt = at
	return nil
}

// ApplySell credits quantity×price to the balance, decrements the holding
// (quantity and cost basis, symmetric with buy), and appends a SELL
// transaction. Returns ErrInsufficientHoldings (without mutating) when the
// symbol is not held in sufficient quantity. Holdings that reach zero
// quantity stay in the map; their cost basis reflects historical spend.
func (l *Ledger) ApplySell(symbol string, quantity int64, price decimal.Decimal, at time.Time) error {
	if err := validateTrade(symbol, quantity, price); err != nil {
		return err
	}

	h, ok := l.Holdings[symbol]
	if !ok || h.Quantity < quantity {
		return fmt.Errorf("%w: %d×%s held, %d requested", ErrInsufficientHoldings, h.Quantity, symbol, quantity)
	}

	proceeds := price.Mul(decimal.NewFromInt(quantity))

	h.Quantity -= quantity
	h.CostBasis = h.CostBasis.Sub(proceeds)
	l.Holdings[symbol] = h

	l.Balance = l.Balance.Add(proceeds)

	l.Transactions = append(l.Transactions, Transaction{
		Action:    TxSell,
		Symbol:    symbol,
		Quantity:  quantity,
		Price:     price,
		Timestamp: at,
	})
	l.UpdatedAt = at
	return nil
}

// HeldSymbols returns the symbols with a positive quantity, the set the
// valuation loop walks. Zero-quantity holdings are skipped, not pruned.
func (l *Ledger) HeldSymbols() []string {
	symbols := make([]string, 0, len(l.Holdings))
	for sym, h := range l.Holdings {
		if h.Quantity > 0 {
			symbols = append(symbols, sym)
		}
	}
	return symbols
}

// Package ledger implements the portfolio manager: the single mutator of
// account ledger state.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mjcarson/folio/internal/common"
	"github.com/mjcarson/folio/internal/interfaces"
	"github.com/mjcarson/folio/internal/models"
)

// Service implements interfaces.LedgerService. Each account's ledger is
// loaded on first use and kept in memory; mutations are serialized per
// account and committed durably before they become visible, so the in-memory
// state never runs ahead of the last persisted snapshot.
type Service struct {
	accounts interfaces.AccountStore
	ledgers  interfaces.LedgerStore
	market   interfaces.MarketDataService
	logger   *common.Logger

	mu     sync.Mutex
	states map[string]*accountState
}

type accountState struct {
	mu     sync.Mutex
	ledger *models.Ledger
}

// NewService creates the ledger service.
func NewService(accounts interfaces.AccountStore, ledgers interfaces.LedgerStore, market interfaces.MarketDataService, logger *common.Logger) *Service {
	return &Service{
		accounts: accounts,
		ledgers:  ledgers,
		market:   market,
		logger:   logger,
		states:   make(map[string]*accountState),
	}
}

// state returns the in-memory state for accountID, loading the persisted
// snapshot (or creating a fresh ledger from the account's initial balance)
// on first use.
func (s *Service) state(ctx context.Context, accountID string) (*accountState, error) {
	s.mu.Lock()
	st, ok := s.states[accountID]
	if !ok {
		st = &accountState{}
		s.states[accountID] = st
	}
	s.mu.Unlock()

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.ledger != nil {
		return st, nil
	}

	ledger, err := s.ledgers.LoadLedger(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		account, err := s.accounts.GetAccount(ctx, accountID)
		if err != nil {
			return nil, err
		}
		ledger = models.NewLedger(accountID, account.InitialBalance)
		s.logger.Info().Str("account", accountID).Str("balance", ledger.Balance.String()).Msg("Opened fresh ledger")
	} else {
		s.logger.Debug().Str("account", accountID).Int("transactions", len(ledger.Transactions)).Msg("Loaded ledger snapshot")
	}
	st.ledger = ledger
	return st, nil
}

// trade stages the mutation on a clone, persists the staged snapshot, and
// promotes it only on success. A failed persist leaves the visible ledger at
// the last durable state.
func (s *Service) trade(ctx context.Context, accountID string, action models.TxAction, symbol string, quantity int64, price decimal.Decimal) (*interfaces.LedgerReport, error) {
	st, err := s.state(ctx, accountID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	staged := st.ledger.Clone()
	at := time.Now().UTC()

	switch action {
	case models.TxBuy:
		err = staged.ApplyBuy(symbol, quantity, price, at)
	case models.TxSell:
		err = staged.ApplySell(symbol, quantity, price, at)
	default:
		err = fmt.Errorf("unknown trade action %q", action)
	}
	if err != nil {
		return nil, err
	}

	if err := s.ledgers.SaveLedger(ctx, staged); err != nil {
		s.logger.Error().Err(err).Str("account", accountID).Str("symbol", symbol).Msg("Trade rolled back, snapshot not persisted")
		return nil, err
	}

	st.ledger = staged
	s.logger.Info().
		Str("account", accountID).
		Str("action", string(action)).
		Str("symbol", symbol).
		Int64("quantity", quantity).
		Str("price", price.String()).
		Str("balance", staged.Balance.String()).
		Msg("Trade committed")

	return buildReport(staged), nil
}

// Buy executes a buy at an explicit price.
func (s *Service) Buy(ctx context.Context, accountID, symbol string, quantity int64, price decimal.Decimal) (*interfaces.LedgerReport, error) {
	return s.trade(ctx, accountID, models.TxBuy, symbol, quantity, price)
}

// Sell executes a sell at an explicit price.
func (s *Service) Sell(ctx context.Context, accountID, symbol string, quantity int64, price decimal.Decimal) (*interfaces.LedgerReport, error) {
	return s.trade(ctx, accountID, models.TxSell, symbol, quantity, price)
}

// BuyAtMarket resolves the latest market price for symbol, then buys at it.
// The price is resolved before the account lock is taken; balance and holding
// preconditions are checked under the lock as usual.
func (s *Service) BuyAtMarket(ctx context.Context, accountID, symbol string, quantity int64) (*interfaces.LedgerReport, error) {
	price, err := s.market.LatestPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return s.trade(ctx, accountID, models.TxBuy, symbol, quantity, price)
}

// SellAtMarket resolves the latest market price for symbol, then sells at it.
func (s *Service) SellAtMarket(ctx context.Context, accountID, symbol string, quantity int64) (*interfaces.LedgerReport, error) {
	price, err := s.market.LatestPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return s.trade(ctx, accountID, models.TxSell, symbol, quantity, price)
}

// Valuation sums quantity×latestPrice over holdings with a positive
// quantity. A failed price lookup fails the whole valuation naming the
// symbol; a partial sum would be misleading.
func (s *Service) Valuation(ctx context.Context, accountID string) (decimal.Decimal, error) {
	st, err := s.state(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	// Snapshot the positions, then price them without holding the lock.
	st.mu.Lock()
	type position struct {
		symbol   string
		quantity int64
	}
	positions := make([]position, 0, len(st.ledger.Holdings))
	for _, sym := range st.ledger.HeldSymbols() {
		positions = append(positions, position{symbol: sym, quantity: st.ledger.Holdings[sym].Quantity})
	}
	st.mu.Unlock()

	sort.Slice(positions, func(i, j int) bool { return positions[i].symbol < positions[j].symbol })

	total := decimal.Zero
	for _, p := range positions {
		price, err := s.market.LatestPrice(ctx, p.symbol)
		if err != nil {
			return decimal.Zero, fmt.Errorf("valuation of '%s' failed: %w", p.symbol, err)
		}
		total = total.Add(price.Mul(decimal.NewFromInt(p.quantity)))
	}
	return total, nil
}

// Report returns a copy of the account's current state.
func (s *Service) Report(ctx context.Context, accountID string) (*interfaces.LedgerReport, error) {
	st, err := s.state(ctx, accountID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return buildReport(st.ledger), nil
}

// buildReport copies ledger state into a report the caller may hold freely.
// Holdings are sorted by symbol; zero-quantity holdings are included since
// their cost basis is still meaningful history.
func buildReport(l *models.Ledger) *interfaces.LedgerReport {
	report := &interfaces.LedgerReport{
		AccountID:    l.AccountID,
		Balance:      l.Balance,
		Holdings:     make([]models.Holding, 0, len(l.Holdings)),
		Transactions: make([]models.Transaction, len(l.Transactions)),
	}
	for _, h := range l.Holdings {
		report.Holdings = append(report.Holdings, h)
	}
	sort.Slice(report.Holdings, func(i, j int) bool {
		return report.Holdings[i].Symbol < report.Holdings[j].Symbol
	})
	copy(report.Transactions, l.Transactions)
	return report
}

// Ensure Service implements LedgerService
var _ interfaces.LedgerService = (*Service)(nil)

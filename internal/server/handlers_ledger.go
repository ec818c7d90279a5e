package server

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mjcarson/folio/internal/interfaces"
	"github.com/mjcarson/folio/internal/models"
)

type tradeSide int

const (
	tradeBuy tradeSide = iota
	tradeSell
)

// handleTrade handles POST /api/accounts/{id}/buy and .../sell.
// An explicit "price" decimal string trades at that price; omitting it trades
// at the latest market price.
func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request, accountID string, side tradeSide) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if !s.requireAccount(w, r, accountID) {
		return
	}

	var req struct {
		Symbol   string `json:"symbol"`
		Quantity int64  `json:"quantity"`
		Price    string `json:"price"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	if req.Symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	if req.Quantity <= 0 {
		WriteError(w, http.StatusBadRequest, "quantity must be a positive integer")
		return
	}

	ctx := r.Context()
	svc := s.app.LedgerService

	var report *interfaces.LedgerReport
	var err error

	if req.Price != "" {
		price, perr := decimal.NewFromString(req.Price)
		if perr != nil || !price.IsPositive() {
			WriteError(w, http.StatusBadRequest, "price must be a positive decimal string")
			return
		}
		if side == tradeBuy {
			report, err = svc.Buy(ctx, accountID, req.Symbol, req.Quantity, price)
		} else {
			report, err = svc.Sell(ctx, accountID, req.Symbol, req.Quantity, price)
		}
	} else {
		if side == tradeBuy {
			report, err = svc.BuyAtMarket(ctx, accountID, req.Symbol, req.Quantity)
		} else {
			report, err = svc.SellAtMarket(ctx, accountID, req.Symbol, req.Quantity)
		}
	}
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data": map[string]interface{}{
			"account_id":   report.AccountID,
			"balance":      report.Balance.String(),
			"holdings":     holdingsResponse(report.Holdings),
			"transactions": transactionsResponse(report.Transactions),
		},
	})
}

// handleHoldings handles GET /api/accounts/{id}/holdings.
func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request, accountID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if !s.requireAccount(w, r, accountID) {
		return
	}

	report, err := s.app.LedgerService.Report(r.Context(), accountID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data": map[string]interface{}{
			"account_id": report.AccountID,
			"balance":    report.Balance.String(),
			"holdings":   holdingsResponse(report.Holdings),
		},
	})
}

// handleTransactions handles GET /api/accounts/{id}/transactions.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request, accountID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if !s.requireAccount(w, r, accountID) {
		return
	}

	report, err := s.app.LedgerService.Report(r.Context(), accountID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data": map[string]interface{}{
			"account_id":   report.AccountID,
			"transactions": transactionsResponse(report.Transactions),
		},
	})
}

// handleValuation handles GET /api/accounts/{id}/valuation.
func (s *Server) handleValuation(w http.ResponseWriter, r *http.Request, accountID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if !s.requireAccount(w, r, accountID) {
		return
	}

	value, err := s.app.LedgerService.Valuation(r.Context(), accountID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data": map[string]interface{}{
			"account_id": accountID,
			"valuation":  value.String(),
		},
	})
}

// holdingsResponse renders holdings with decimal strings on the wire.
func holdingsResponse(holdings []models.Holding) []map[string]interface{} {
	out := make([]map[string]interface{}, len(holdings))
	for i, h := range holdings {
		out[i] = map[string]interface{}{
			"symbol":     h.Symbol,
			"quantity":   h.Quantity,
			"cost_basis": h.CostBasis.String(),
		}
	}
	return out
}

// transactionsResponse renders the transaction log with decimal strings.
func transactionsResponse(txs []models.Transaction) []map[string]interface{} {
	out := make([]map[string]interface{}, len(txs))
	for i, tx := range txs {
		out[i] = map[string]interface{}{
			"action":    tx.Action,
			"symbol":    tx.Symbol,
			"quantity":  tx.Quantity,
			"price":     tx.Price.String(),
			"timestamp": tx.Timestamp,
		}
	}
	return out
}

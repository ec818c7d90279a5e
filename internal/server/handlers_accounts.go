package server

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/mjcarson/folio/internal/models"
)

// handleAccountCreate handles POST /api/accounts — register a new account.
// The opening balance defaults to the configured initial balance; an explicit
// "initial_balance" decimal string overrides it.
func (s *Server) handleAccountCreate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		AccountID      string `json:"account_id"`
		Email          string `json:"email"`
		Password       string `json:"password"`
		InitialBalance string `json:"initial_balance"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	if req.AccountID == "" {
		WriteError(w, http.StatusBadRequest, "account_id is required")
		return
	}
	if req.Password == "" {
		WriteError(w, http.StatusBadRequest, "password is required")
		return
	}

	balance := s.app.Config.Ledger.GetInitialBalance()
	if req.InitialBalance != "" {
		parsed, err := decimal.NewFromString(req.InitialBalance)
		if err != nil || !parsed.IsPositive() {
			WriteError(w, http.StatusBadRequest, "initial_balance must be a positive decimal string")
			return
		}
		balance = parsed
	}

	passwordBytes := []byte(req.Password)
	if len(passwordBytes) > 72 {
		passwordBytes = passwordBytes[:72]
	}
	hash, err := bcrypt.GenerateFromPassword(passwordBytes, bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		WriteError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	account := &models.Account{
		ID:             req.AccountID,
		Email:          req.Email,
		PasswordHash:   string(hash),
		InitialBalance: balance,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.app.Storage.AccountStore().CreateAccount(r.Context(), account); err != nil {
		WriteServiceError(w, err)
		return
	}

	s.logger.Info().Str("account", account.ID).Str("balance", balance.String()).Msg("Account created")

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"status": "ok",
		"data": map[string]interface{}{
			"account": accountResponse(account),
		},
	})
}

// accountResponse builds a safe response view of an account.
func accountResponse(account *models.Account) map[string]interface{} {
	return map[string]interface{}{
		"account_id":      account.ID,
		"email":           account.Email,
		"initial_balance": account.InitialBalance.String(),
		"created_at":      account.CreatedAt,
	}
}

// requireAccount enforces that the request is authenticated as accountID.
// Returns false after writing the error response when it is not.
func (s *Server) requireAccount(w http.ResponseWriter, r *http.Request, accountID string) bool {
	authID := AuthAccountID(r)
	if authID == "" {
		WriteError(w, http.StatusUnauthorized, "authentication required")
		return false
	}
	if authID != accountID {
		WriteError(w, http.StatusForbidden, "account may only act on itself")
		return false
	}
	return true
}

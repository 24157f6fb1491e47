package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nvasquez/atmcore/internal/domain"
	"github.com/nvasquez/atmcore/internal/ledger"
	"github.com/nvasquez/atmcore/internal/session"
)

// APIHandlers exposes the ATM operations as a JSON API. All endpoints
// except login and health require a bearer session token.
type APIHandlers struct {
	logger   *slog.Logger
	ledger   *ledger.Ledger
	sessions *session.Manager
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, l *ledger.Ledger, sessions *session.Manager) *APIHandlers {
	return &APIHandlers{
		logger:   logger,
		ledger:   l,
		sessions: sessions,
	}
}

type loginRequest struct {
	AccountNumber string `json:"account_number"`
	PIN           string `json:"pin"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type accountResponse struct {
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type transferRequest struct {
	ToAccount string          `json:"to_account"`
	Amount    decimal.Decimal `json:"amount"`
}

type changePINRequest struct {
	CurrentPIN string `json:"current_pin"`
	NewPIN     string `json:"new_pin"`
}

func (h *APIHandlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !h.ledger.Authenticate(req.AccountNumber, req.PIN) {
		writeError(w, http.StatusUnauthorized, "Invalid account number or PIN")
		return
	}

	token := h.sessions.Create(req.AccountNumber)
	respondJSON(w, http.StatusOK, loginResponse{Token: token})
}

func (h *APIHandlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	token := bearerToken(r)
	if token != "" {
		h.sessions.Destroy(token)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandlers) handleAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	account, ok := h.authorize(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, accountResponse{
		AccountNumber: account,
		Balance:       h.ledger.BalanceOf(account),
	})
}

func (h *APIHandlers) handleDeposit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	account, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.ledger.Deposit(r.Context(), account, req.Amount)
	h.respondResult(w, res, err)
}

func (h *APIHandlers) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	account, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.ledger.Withdraw(r.Context(), account, req.Amount)
	h.respondResult(w, res, err)
}

func (h *APIHandlers) handleTransfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	account, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.ledger.Transfer(r.Context(), account, req.ToAccount, req.Amount)
	h.respondResult(w, res, err)
}

func (h *APIHandlers) handleChangePIN(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	account, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req changePINRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.ledger.ChangePIN(r.Context(), account, req.CurrentPIN, req.NewPIN)
	h.respondResult(w, res, err)
}

func (h *APIHandlers) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	account, ok := h.authorize(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"account_number": account,
		"transactions":   h.ledger.TransactionsOf(account),
	})
}

// authorize resolves the bearer token to an account number, writing a 401
// when the session is missing or expired.
func (h *APIHandlers) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Please login first")
		return "", false
	}
	account, ok := h.sessions.Lookup(token)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Session expired, please login again")
		return "", false
	}
	return account, true
}

// respondResult maps a ledger outcome onto HTTP. Persistence failures are
// 502 so clients know the operation may not have been durably recorded;
// insufficient funds is a conflict, other validation failures are 400.
func (h *APIHandlers) respondResult(w http.ResponseWriter, res domain.Result, err error) {
	if err != nil {
		h.logger.Error("ledger operation failed to persist", "error", err)
		writeError(w, http.StatusBadGateway, "temporarily unable to save changes")
		return
	}
	if !res.Success {
		respondJSON(w, failureStatus(res.Message), res)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func failureStatus(message string) int {
	if strings.HasPrefix(message, "Insufficient funds") {
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, prefix))
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

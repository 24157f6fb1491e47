package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvasquez/atmcore/internal/ledger"
	"github.com/nvasquez/atmcore/internal/session"
	"github.com/nvasquez/atmcore/internal/storage"
)

func newTestRouter(t *testing.T, deps func(*RouterDependencies)) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewMemoryStore()
	l, err := ledger.Open(context.Background(), store, logger)
	require.NoError(t, err)
	sessions := session.NewManager(time.Minute)

	d := RouterDependencies{
		Health: StoreHealthService{Store: store},
		API:    NewAPIHandlers(logger, l, sessions),
	}
	if deps != nil {
		deps(&d)
	}
	return NewRouter(logger, d)
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, router http.Handler, account, pin string) string {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/login", "", map[string]string{
		"account_number": account,
		"pin":            pin,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, nil)
	rec := doJSON(t, router, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginRejectsBadPIN(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/login", "", map[string]string{
		"account_number": "123456",
		"pin":            "0000",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid account number or PIN")
}

func TestRequestsWithoutSessionAreRejected(t *testing.T) {
	router := newTestRouter(t, nil)

	for _, path := range []string{"/api/account", "/api/transactions"} {
		rec := doJSON(t, router, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
	rec := doJSON(t, router, http.MethodPost, "/api/deposit", "bogus-token", map[string]any{"amount": 10})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDepositAndBalance(t *testing.T) {
	router := newTestRouter(t, nil)
	token := login(t, router, "123456", "1234")

	rec := doJSON(t, router, http.MethodPost, "/api/deposit", token, map[string]any{"amount": 49.50})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Successfully deposited $49.50")

	rec = doJSON(t, router, http.MethodGet, "/api/account", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccountNumber string  `json:"account_number"`
		Balance       float64 `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "123456", resp.AccountNumber)
	assert.InDelta(t, 1049.50, resp.Balance, 0.001)
}

func TestWithdrawValidationStatuses(t *testing.T) {
	router := newTestRouter(t, nil)
	token := login(t, router, "123456", "1234")

	rec := doJSON(t, router, http.MethodPost, "/api/withdraw", token, map[string]any{"amount": 9000})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Insufficient funds")

	rec = doJSON(t, router, http.MethodPost, "/api/withdraw", token, map[string]any{"amount": -5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Amount must be positive")
}

func TestTransferBetweenDemoAccounts(t *testing.T) {
	router := newTestRouter(t, nil)
	token := login(t, router, "123456", "1234")

	rec := doJSON(t, router, http.MethodPost, "/api/transfer", token, map[string]any{
		"to_account": "654321",
		"amount":     100,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Successfully transferred $100.00 to account 654321")

	other := login(t, router, "654321", "4321")
	rec = doJSON(t, router, http.MethodGet, "/api/account", other, nil)
	var resp struct {
		Balance float64 `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 600, resp.Balance, 0.001)
}

func TestChangePINFlow(t *testing.T) {
	router := newTestRouter(t, nil)
	token := login(t, router, "123456", "1234")

	rec := doJSON(t, router, http.MethodPost, "/api/pin", token, map[string]string{
		"current_pin": "9999",
		"new_pin":     "5678",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Current PIN is incorrect")

	rec = doJSON(t, router, http.MethodPost, "/api/pin", token, map[string]string{
		"current_pin": "1234",
		"new_pin":     "5678",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/login", "", map[string]string{
		"account_number": "123456",
		"pin":            "1234",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	login(t, router, "123456", "5678")
}

func TestTransactionsEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)
	token := login(t, router, "123456", "1234")

	doJSON(t, router, http.MethodPost, "/api/deposit", token, map[string]any{"amount": 10})
	rec := doJSON(t, router, http.MethodGet, "/api/transactions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Transactions []struct {
			Kind string `json:"transaction_type"`
		} `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Transactions, 2)
	assert.Equal(t, "deposit", resp.Transactions[0].Kind)
}

func TestLogout(t *testing.T) {
	router := newTestRouter(t, nil)
	token := login(t, router, "123456", "1234")

	rec := doJSON(t, router, http.MethodPost, "/api/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/account", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPersistenceFailureMapsToBadGateway(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewMemoryStore()
	l, err := ledger.Open(context.Background(), store, logger)
	require.NoError(t, err)

	// Seeding persisted fine; every save from here on fails.
	store.WithSaveError(errors.New("disk full"))

	router := NewRouter(logger, RouterDependencies{
		API: NewAPIHandlers(logger, l, session.NewManager(time.Minute)),
	})
	token := login(t, router, "123456", "1234")

	rec := doJSON(t, router, http.MethodPost, "/api/deposit", token, map[string]any{"amount": 10})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "temporarily unable to save changes")

	rec = doJSON(t, router, http.MethodPost, "/api/transfer", token, map[string]any{
		"to_account": "654321",
		"amount":     10,
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	// Validation failures still map to client errors, not 502.
	rec = doJSON(t, router, http.MethodPost, "/api/withdraw", token, map[string]any{"amount": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginRateLimit(t *testing.T) {
	router := newTestRouter(t, func(d *RouterDependencies) {
		d.LoginRatePerMinute = 2
	})

	body := map[string]string{"account_number": "123456", "pin": "0000"}
	for i := 0; i < 2; i++ {
		rec := doJSON(t, router, http.MethodPost, "/api/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := doJSON(t, router, http.MethodPost, "/api/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

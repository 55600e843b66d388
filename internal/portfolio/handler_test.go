package portfolio

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*chi.Mux, *Keeper) {
	t.Helper()
	keeper := NewKeeper(NewMemoryStore())
	h := NewHandler(keeper)
	r := chi.NewRouter()
	r.Get("/api/portfolio/{userID}", h.Get)
	r.Get("/api/portfolio/{userID}/withdrawals", h.Withdrawals)
	r.Post("/api/portfolio/deposit", h.Deposit)
	r.Post("/api/portfolio/withdraw", h.Withdraw)
	return r, keeper
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_GetPortfolio(t *testing.T) {
	t.Parallel()

	r, keeper := newTestRouter(t)
	ctx := context.Background()
	_, err := keeper.Deposit(ctx, "usr_001", dec("100000"))
	require.NoError(t, err)
	_, err = keeper.AddProfit(ctx, "usr_001", dec("5000"))
	require.NoError(t, err)

	rec := doJSON(t, r, http.MethodGet, "/api/portfolio/usr_001", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "usr_001", got["userId"])
	assert.Equal(t, "100000", got["protectedCapitalBase"])
	assert.Equal(t, "5000", got["accumulatedProfit"])

	rec = doJSON(t, r, http.MethodGet, "/api/portfolio/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Deposit(t *testing.T) {
	t.Parallel()

	r, keeper := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/portfolio/deposit",
		`{"user_id":"usr_001","amount":"250.00"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "SUCCESS", got["status"])
	assert.Equal(t, "250", got["newProtectedCapitalBase"])

	snap, err := keeper.Snapshot(context.Background(), "usr_001")
	require.NoError(t, err)
	assert.True(t, snap.ProtectedCapitalBase.Equal(dec("250")))
}

func TestHandler_Deposit_Validation(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing user", `{"amount":"10"}`},
		{"bad amount", `{"user_id":"usr_001","amount":"ten"}`},
		{"negative amount", `{"user_id":"usr_001","amount":"-5"}`},
		{"zero amount", `{"user_id":"usr_001","amount":"0"}`},
		{"unknown field", `{"user_id":"usr_001","amount":"10","note":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := doJSON(t, r, http.MethodPost, "/api/portfolio/deposit", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandler_Withdraw(t *testing.T) {
	t.Parallel()

	r, keeper := newTestRouter(t)
	ctx := context.Background()
	_, err := keeper.Deposit(ctx, "usr_001", dec("1000"))
	require.NoError(t, err)
	_, err = keeper.AddProfit(ctx, "usr_001", dec("500"))
	require.NoError(t, err)

	// Over profit: denied with the constraint message, nothing moves.
	rec := doJSON(t, r, http.MethodPost, "/api/portfolio/withdraw",
		`{"user_id":"usr_001","amount":"600"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "DENIED", got["status"])
	assert.Contains(t, got["message"], "capital preservation")

	// Within profit: approved.
	rec = doJSON(t, r, http.MethodPost, "/api/portfolio/withdraw",
		`{"user_id":"usr_001","amount":"200"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	snap, err := keeper.Snapshot(ctx, "usr_001")
	require.NoError(t, err)
	assert.True(t, snap.AccumulatedProfit.Equal(dec("300")))
	assert.True(t, snap.ProtectedCapitalBase.Equal(dec("1000")))

	rec = doJSON(t, r, http.MethodGet, "/api/portfolio/usr_001/withdrawals", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var wd map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wd))
	assert.Equal(t, "200", wd["totalWithdrawals"])
}

func TestHandler_Withdraw_UnknownUser(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)
	rec := doJSON(t, r, http.MethodPost, "/api/portfolio/withdraw",
		`{"user_id":"ghost","amount":"10"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package portfolio

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"antigravity-engine/internal/httputil"
	"antigravity-engine/internal/types"
)

type Handler struct {
	keeper *Keeper
}

func NewHandler(keeper *Keeper) *Handler {
	return &Handler{keeper: keeper}
}

type movementRequest struct {
	UserID string `json:"user_id"`
	Amount string `json:"amount"`
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	snap, err := h.keeper.Snapshot(r.Context(), userID)
	if errors.Is(err, ErrNotFound) {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "portfolio not found"})
		return
	}
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snap)
}

func (h *Handler) Withdrawals(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	snap, err := h.keeper.Snapshot(r.Context(), userID)
	if errors.Is(err, ErrNotFound) {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "portfolio not found"})
		return
	}
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"totalWithdrawals": snap.TotalWithdrawals})
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	req, amount, ok := h.readMovement(w, r)
	if !ok {
		return
	}
	log.Printf("[Portfolio] deposit request userId=%s amount=%s", req.UserID, amount)
	updated, err := h.keeper.Deposit(r.Context(), req.UserID, amount)
	if errors.Is(err, ErrLockContention) {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, httputil.ErrorResponse{Error: "ledger busy, retry"})
		return
	}
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":                  types.ActionStatusSuccess,
		"newProtectedCapitalBase": updated.ProtectedCapitalBase,
		"message":                 "Deposit recorded. Protected capital base updated.",
	})
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	req, amount, ok := h.readMovement(w, r)
	if !ok {
		return
	}
	log.Printf("[Portfolio] withdrawal request userId=%s amount=%s", req.UserID, amount)
	_, approved, err := h.keeper.Withdraw(r.Context(), req.UserID, amount)
	if errors.Is(err, ErrNotFound) {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "portfolio not found"})
		return
	}
	if errors.Is(err, ErrLockContention) {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, httputil.ErrorResponse{Error: "ledger busy, retry"})
		return
	}
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	if !approved {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"status":  types.ActionStatusDenied,
			"message": "Withdrawal denied. Breaches capital preservation constraint.",
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":  types.ActionStatusSuccess,
		"message": "Withdrawal approved. Amount debited from accumulated profit.",
	})
}

func (h *Handler) readMovement(w http.ResponseWriter, r *http.Request) (movementRequest, decimal.Decimal, bool) {
	var req movementRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return req, decimal.Zero, false
	}
	if req.UserID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "user_id is required"})
		return req, decimal.Zero, false
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "invalid amount"})
		return req, decimal.Zero, false
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "amount must be positive"})
		return req, decimal.Zero, false
	}
	return req, amount, true
}

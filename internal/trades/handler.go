package trades

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"antigravity-engine/internal/httputil"
)

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	records, err := h.store.ListByUser(r.Context(), userID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	if records == nil {
		records = []TradeRecord{}
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

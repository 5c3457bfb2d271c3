package handlers

import (
	"net/http"

	"github.com/go-chi/chi"
)

func (h *Handler) ExecuteSwap(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	order, err := h.Orch.ExecuteSwap(r.Context(), orderID)
	if err != nil {
		h.Log.Error().Str("order", orderID).Err(err).Msg("execute swap failed")
		responseError(w, err)
		return
	}

	responseJSON(w, orderResponse(order), http.StatusOK)
}

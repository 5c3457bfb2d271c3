package handlers

import (
	"net/http"

	"github.com/go-chi/chi"
)

func (h *Handler) RefundSwap(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	order, err := h.Orch.RefundOrder(r.Context(), orderID)
	if err != nil {
		h.Log.Error().Str("order", orderID).Err(err).Msg("refund failed")
		responseError(w, err)
		return
	}

	responseJSON(w, orderResponse(order), http.StatusOK)
}

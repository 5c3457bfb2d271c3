package handlers

import (
	"net/http"

	"github.com/go-chi/chi"
)

func (h *Handler) GetSwap(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	order, err := h.Orch.GetOrderStatus(orderID)
	if err != nil {
		h.Log.Error().Err(err).Msg("error loading order")
		responseError(w, err)
		return
	}
	if order == nil {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Order not found",
		}, http.StatusNotFound)
		return
	}

	responseJSON(w, orderResponse(order), http.StatusOK)
}

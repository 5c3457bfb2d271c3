package handlers

import (
	"net/http"
)

func (h *Handler) ListSwaps(w http.ResponseWriter, r *http.Request) {
	recipient := r.URL.Query().Get("recipient")
	if recipient == "" {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "recipient",
			Message: "Recipient query parameter is required",
		}, http.StatusBadRequest)
		return
	}

	orders, err := h.Store.ListByRecipient(recipient)
	if err != nil {
		h.Log.Error().Err(err).Msg("error listing orders")
		responseError(w, err)
		return
	}

	out := make([]*SwapOrderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, orderResponse(order))
	}
	responseJSON(w, out, http.StatusOK)
}

package handlers

import (
	"net/http"

	"gohtlcbridge/types"
)

// State reports liveness plus order counts per status.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	counts := make(map[string]int, len(types.AllStatuses))
	for _, status := range types.AllStatuses {
		orders, err := h.Store.ListByStatus(status)
		if err != nil {
			h.Log.Error().Err(err).Msg("error counting orders")
			responseError(w, err)
			return
		}
		counts[string(status)] = len(orders)
	}

	responseJSON(w, &APIStateResponse{
		Status: "ok",
		Orders: counts,
	}, http.StatusOK)
}

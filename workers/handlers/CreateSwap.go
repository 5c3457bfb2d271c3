package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"gohtlcbridge/orchestrator"
)

func (h *Handler) CreateSwap(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.Log.Error().Err(err).Msg("error reading request body")
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Error reading request body",
		}, http.StatusBadRequest)
		return
	}

	var params orchestrator.Params
	if err := json.Unmarshal(body, &params); err != nil {
		h.Log.Error().Err(err).Msg("error unmarshalling request body")
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Cannot unmarshal input JSON",
		}, http.StatusBadRequest)
		return
	}

	order, err := h.Orch.InitiateSwap(r.Context(), params)
	if err != nil {
		h.Log.Error().Err(err).Msg("initiate swap failed")
		if order != nil {
			// a leg may be locked; hand the caller the order so it can
			// retry or refund after expiry
			responseJSON(w, orderResponse(order), http.StatusBadGateway)
			return
		}
		responseError(w, err)
		return
	}

	responseJSON(w, orderResponse(order), http.StatusCreated)
}

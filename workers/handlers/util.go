package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"gohtlcbridge/types"
)

func responseJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

// responseError maps the shared error taxonomy onto HTTP codes. Error
// strings carry the order id / lock ref context; secrets never appear
// in them.
func responseError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, types.ErrOrderNotFound):
		code = http.StatusNotFound
	case errors.Is(err, types.ErrInvalidStateTransition),
		errors.Is(err, types.ErrTimelockNotExpired),
		errors.Is(err, types.ErrAlreadySettled):
		code = http.StatusConflict
	case errors.Is(err, types.ErrChainTimeout):
		code = http.StatusGatewayTimeout
	case errors.Is(err, types.ErrChainSubmission),
		errors.Is(err, types.ErrInvalidSecret):
		code = http.StatusBadGateway
	}

	responseJSON(w, &APIResponse{
		Status:  "error",
		Message: err.Error(),
	}, code)
}

package handlers

import (
	"github.com/rs/zerolog"

	"gohtlcbridge/orchestrator"
	"gohtlcbridge/store"
	"gohtlcbridge/types"
)

// Handler carries the dependencies shared by the swap endpoints.
type Handler struct {
	Orch  *orchestrator.Orchestrator
	Store store.OrderStore
	Log   zerolog.Logger
}

type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type APIStateResponse struct {
	Status string         `json:"status"`
	Orders map[string]int `json:"orders"`
}

// SwapOrderResponse is the outward projection of a SwapOrder. The
// secret is deliberately absent: it leaves the process only as an
// on-chain withdrawal.
type SwapOrderResponse struct {
	ID            string            `json:"id"`
	Status        types.OrderStatus `json:"status"`
	SourceChain   types.Chain       `json:"sourceChain"`
	DestChain     types.Chain       `json:"destChain"`
	SourceToken   string            `json:"sourceToken"`
	DestToken     string            `json:"destToken"`
	Amount        string            `json:"amount"`
	Recipient     string            `json:"recipient"`
	Hashlock      string            `json:"hashlock"`
	Timelock      int64             `json:"timelock"`
	SourceLockRef string            `json:"sourceLockRef"`
	DestLockRef   string            `json:"destLockRef"`
	Message       string            `json:"message"`
	Flagged       bool              `json:"flagged"`
	CreatedAt     int64             `json:"createdAt"`
	UpdatedAt     int64             `json:"updatedAt"`
}

func orderResponse(o *types.SwapOrder) *SwapOrderResponse {
	return &SwapOrderResponse{
		ID:            o.ID,
		Status:        o.Status,
		SourceChain:   o.SourceChain,
		DestChain:     o.DestChain,
		SourceToken:   o.SourceToken,
		DestToken:     o.DestToken,
		Amount:        o.Amount,
		Recipient:     o.Recipient,
		Hashlock:      o.Hashlock,
		Timelock:      o.Timelock,
		SourceLockRef: o.SourceLockRef,
		DestLockRef:   o.DestLockRef,
		Message:       o.Message,
		Flagged:       o.Flagged,
		CreatedAt:     o.TsCreated,
		UpdatedAt:     o.TsUpdated,
	}
}

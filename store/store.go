package store

import "gohtlcbridge/types"

// OrderStore persists swap orders. GetOrder returns (nil, nil) for an
// unknown id; terminal orders are kept forever for audit. The redis
// implementation is the production backend, the memory one backs tests
// and dev runs.
type OrderStore interface {
	GetOrder(id string) (*types.SwapOrder, error)
	PutOrder(order *types.SwapOrder) error
	ListByStatus(status types.OrderStatus) ([]*types.SwapOrder, error)
	ListByRecipient(recipient string) ([]*types.SwapOrder, error)
}

package memory

import (
	"errors"
	"sort"
	"sync"

	"gohtlcbridge/types"
)

// Store is an in-memory OrderStore for tests and dev runs. Orders are
// copied on the way in and out so callers never share mutable state
// with the map.
type Store struct {
	mu   sync.RWMutex
	data map[string]*types.SwapOrder
}

func NewStore() *Store {
	return &Store{data: make(map[string]*types.SwapOrder)}
}

func (s *Store) GetOrder(id string) (*types.SwapOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.data[id]
	if !ok {
		return nil, nil
	}
	cp := *order
	return &cp, nil
}

func (s *Store) PutOrder(order *types.SwapOrder) error {
	if order == nil || order.ID == "" {
		return errors.New("null or unidentified order to store")
	}
	if order.Status == "" {
		return errors.New("order cannot have empty status")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *order
	s.data[order.ID] = &cp
	return nil
}

func (s *Store) ListByStatus(status types.OrderStatus) ([]*types.SwapOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]*types.SwapOrder, 0)
	for _, order := range s.data {
		if order.Status == status {
			cp := *order
			orders = append(orders, &cp)
		}
	}
	sortByCreated(orders)
	return orders, nil
}

func (s *Store) ListByRecipient(recipient string) ([]*types.SwapOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]*types.SwapOrder, 0)
	for _, order := range s.data {
		if order.Recipient == recipient {
			cp := *order
			orders = append(orders, &cp)
		}
	}
	sortByCreated(orders)
	return orders, nil
}

func sortByCreated(orders []*types.SwapOrder) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].TsCreated != orders[j].TsCreated {
			return orders[i].TsCreated < orders[j].TsCreated
		}
		return orders[i].ID < orders[j].ID
	})
}

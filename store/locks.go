package store

import "sync"

// KeyedMutex serializes writers per order id. The orchestrator and the
// progress monitor share one instance so a manual execute/refund cannot
// race the monitor's reconciliation of the same order.
type KeyedMutex struct {
	mu sync.Map // order id -> *sync.Mutex
}

// Lock acquires the mutex for key and returns its unlock func.
func (k *KeyedMutex) Lock(key string) func() {
	v, _ := k.mu.LoadOrStore(key, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

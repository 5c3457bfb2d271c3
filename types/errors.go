package types

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the orchestrator and the chain adapters.
// Adapters return these (wrapped with chain detail); the orchestrator
// adds the order id before surfacing to callers.
var (
	ErrValidation             = errors.New("validation error")
	ErrChainSubmission        = errors.New("chain submission failed")
	ErrChainTimeout           = errors.New("chain confirmation timed out")
	ErrInvalidSecret          = errors.New("secret rejected by chain")
	ErrAlreadySettled         = errors.New("lock already settled")
	ErrTimelockNotExpired     = errors.New("timelock not yet expired")
	ErrInvalidStateTransition = errors.New("invalid order state transition")
	ErrOrderNotFound          = errors.New("order not found")
)

// LegError identifies which leg of a swap an adapter error came from,
// so callers can decide whether to retry or schedule a refund.
type LegError struct {
	Chain   Chain
	Op      string // createLock, withdraw, refund, lockStatus
	LockRef string
	Err     error
}

func (e *LegError) Error() string {
	if e.LockRef != "" {
		return fmt.Sprintf("%s %s (lock %s): %v", e.Chain, e.Op, e.LockRef, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Chain, e.Op, e.Err)
}

func (e *LegError) Unwrap() error { return e.Err }

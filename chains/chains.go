package chains

import (
	"context"

	"gohtlcbridge/types"
)

// CreateLockParams carries everything a leg needs to establish its
// HTLC. CounterpartyRef links the two legs on-chain: the destination
// lock records the source leg's lock reference (empty for the first
// leg created).
type CreateLockParams struct {
	Hashlock        string // hex sha256 digest, shared by both legs
	Timelock        int64  // unix seconds, absolute
	Recipient       string
	Amount          string // base units, decimal string
	Token           string // contract/object address or types.NATIVE_TOKEN
	CounterpartyRef string
}

// Adapter is the uniform capability surface over one chain's HTLC
// contract. Implementations own address formats, signing and
// confirmation waiting; every call respects the context deadline and
// maps chain failures onto the types error taxonomy:
//
//	CreateLock: types.ErrChainSubmission, types.ErrChainTimeout
//	Withdraw:   types.ErrInvalidSecret, types.ErrAlreadySettled
//	Refund:     types.ErrTimelockNotExpired, types.ErrAlreadySettled
//	LockStatus: never errors for an unknown ref, reports Created=false
type Adapter interface {
	Chain() types.Chain

	// ValidateAddress rejects syntactically invalid recipient addresses
	// before any chain call is made.
	ValidateAddress(address string) error

	// CreateLock submits the HTLC transaction and blocks until the
	// chain confirms inclusion, returning the opaque lock reference.
	CreateLock(ctx context.Context, params CreateLockParams) (string, error)

	// Withdraw reveals the secret on-chain to claim the locked funds.
	// The secret is public on this chain from this point on.
	Withdraw(ctx context.Context, lockRef string, secret []byte) (string, error)

	// Refund reclaims the locked funds after the timelock has passed.
	Refund(ctx context.Context, lockRef string) (string, error)

	// LockStatus is a read-only view of the lock.
	LockStatus(ctx context.Context, lockRef string) (types.LockStatus, error)
}

package types

import "time"

// Chain identifies one of the ledgers a swap leg lives on. EVM networks
// are configured in config.EVMChains; the Sui leg is a single network.
type Chain string

const (
	CHAIN_ETHEREUM Chain = "ethereum"
	CHAIN_BASE     Chain = "base"
	CHAIN_ARBITRUM Chain = "arbitrum"
	CHAIN_SUI      Chain = "sui"
)

// Token sentinel for the chain's native asset (ETH, SUI).
const NATIVE_TOKEN = "native"

type OrderStatus string

const (
	STATUS_PENDING   OrderStatus = "pending"
	STATUS_LOCKED    OrderStatus = "locked"
	STATUS_WITHDRAWN OrderStatus = "withdrawn"
	STATUS_REFUNDED  OrderStatus = "refunded"
	STATUS_EXPIRED   OrderStatus = "expired"
)

// AllStatuses is the index key space of the order store.
var AllStatuses = []OrderStatus{
	STATUS_PENDING,
	STATUS_LOCKED,
	STATUS_WITHDRAWN,
	STATUS_REFUNDED,
	STATUS_EXPIRED,
}

// ActiveStatuses are the statuses the progress monitor still polls.
// Expired orders keep being polled until the refund grace window runs
// out, to catch a withdrawal racing the expiry.
var ActiveStatuses = []OrderStatus{
	STATUS_PENDING,
	STATUS_LOCKED,
	STATUS_EXPIRED,
}

func (s OrderStatus) Terminal() bool {
	return s == STATUS_WITHDRAWN || s == STATUS_REFUNDED
}

// CanTransition reports whether moving an order from to is legal.
// pending -> locked -> withdrawn is the happy path, pending|locked ->
// expired -> refunded is the timeout path. Refund directly from
// pending/locked is allowed once the timelock has passed (the expired
// marker is an observation, not a gate).
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	if s.Terminal() {
		return false
	}
	switch to {
	case STATUS_LOCKED:
		return s == STATUS_PENDING
	case STATUS_WITHDRAWN:
		return s == STATUS_LOCKED || s == STATUS_EXPIRED
	case STATUS_EXPIRED:
		return s == STATUS_PENDING || s == STATUS_LOCKED
	case STATUS_REFUNDED:
		return s == STATUS_PENDING || s == STATUS_LOCKED || s == STATUS_EXPIRED
	}
	return false
}

// SwapOrder is a single cross-chain HTLC swap attempt. The orchestrator
// is the only writer; everyone else gets value copies. Terminal orders
// are never deleted from the store.
type SwapOrder struct {
	ID          string      `json:"id"`
	Status      OrderStatus `json:"status"`
	SourceChain Chain       `json:"sourceChain"`
	DestChain   Chain       `json:"destChain"`
	SourceToken string      `json:"sourceToken"`
	DestToken   string      `json:"destToken"`
	Amount      string      `json:"amount"` // base units, decimal string
	Recipient   string      `json:"recipient"`

	// Secret is the HTLC preimage. It never appears in API responses or
	// logs; the only intentional disclosure is the on-chain withdraw.
	Secret   []byte `json:"secret,omitempty"`
	Hashlock string `json:"hashlock"` // hex sha256(secret)
	Timelock int64  `json:"timelock"` // unix seconds, absolute expiry

	SourceLockRef string `json:"sourceLockRef"`
	DestLockRef   string `json:"destLockRef"`

	// Message accumulates processing/error notes for audit.
	Message string `json:"message"`

	// Consecutive failed status polls per leg; the monitor flags the
	// order for inspection once a leg crosses the configured threshold.
	SourcePollFailures int  `json:"sourcePollFailures"`
	DestPollFailures   int  `json:"destPollFailures"`
	Flagged            bool `json:"flagged"`

	TsCreated int64 `json:"createdAt"`
	TsUpdated int64 `json:"updatedAt"`
}

// AppendMessage keeps the teacher-style semicolon-joined audit trail.
func (o *SwapOrder) AppendMessage(msg string) {
	if o.Message == "" {
		o.Message = msg
	} else {
		o.Message += "; " + msg
	}
}

func (o *SwapOrder) Expired(now time.Time) bool {
	return now.Unix() > o.Timelock
}

// LockStatus is the read-only view of one on-chain HTLC lock.
// A lock that does not exist reports Created=false, never an error.
type LockStatus struct {
	Created   bool  `json:"created"`
	Withdrawn bool  `json:"withdrawn"`
	Refunded  bool  `json:"refunded"`
	Timelock  int64 `json:"timelock"`
}

func (s LockStatus) Settled() bool {
	return s.Withdrawn || s.Refunded
}

package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{STATUS_PENDING, STATUS_LOCKED, true},
		{STATUS_PENDING, STATUS_EXPIRED, true},
		{STATUS_PENDING, STATUS_REFUNDED, true},
		{STATUS_PENDING, STATUS_WITHDRAWN, false},
		{STATUS_LOCKED, STATUS_WITHDRAWN, true},
		{STATUS_LOCKED, STATUS_EXPIRED, true},
		{STATUS_LOCKED, STATUS_REFUNDED, true},
		{STATUS_LOCKED, STATUS_PENDING, false},
		{STATUS_EXPIRED, STATUS_REFUNDED, true},
		{STATUS_EXPIRED, STATUS_WITHDRAWN, true},
		{STATUS_EXPIRED, STATUS_LOCKED, false},
		{STATUS_WITHDRAWN, STATUS_REFUNDED, false},
		{STATUS_WITHDRAWN, STATUS_EXPIRED, false},
		{STATUS_REFUNDED, STATUS_WITHDRAWN, false},
		{STATUS_REFUNDED, STATUS_EXPIRED, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestTerminal(t *testing.T) {
	assert.True(t, STATUS_WITHDRAWN.Terminal())
	assert.True(t, STATUS_REFUNDED.Terminal())
	assert.False(t, STATUS_PENDING.Terminal())
	assert.False(t, STATUS_LOCKED.Terminal())
	assert.False(t, STATUS_EXPIRED.Terminal())
}

func TestExpired(t *testing.T) {
	now := time.Now()
	order := &SwapOrder{Timelock: now.Unix() + 60}
	assert.False(t, order.Expired(now))
	assert.True(t, order.Expired(now.Add(2*time.Minute)))
}

func TestAppendMessage(t *testing.T) {
	order := &SwapOrder{}
	order.AppendMessage("first")
	assert.Equal(t, "first", order.Message)
	order.AppendMessage("second")
	assert.Equal(t, "first; second", order.Message)
}

func TestLegError(t *testing.T) {
	err := &LegError{Chain: CHAIN_SUI, Op: "withdraw", LockRef: "0xabc", Err: ErrInvalidSecret}
	assert.ErrorIs(t, err, ErrInvalidSecret)
	assert.Contains(t, err.Error(), "sui")
	assert.Contains(t, err.Error(), "0xabc")

	bare := &LegError{Chain: CHAIN_ETHEREUM, Op: "createLock", Err: ErrChainSubmission}
	assert.Contains(t, bare.Error(), "createLock")
}

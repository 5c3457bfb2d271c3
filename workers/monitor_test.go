package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gohtlcbridge/chains"
	"gohtlcbridge/chains/mock"
	"gohtlcbridge/htlc"
	"gohtlcbridge/store"
	"gohtlcbridge/store/memory"
	"gohtlcbridge/types"
)

type monitorFixture struct {
	monitor *Monitor
	source  *mock.Adapter
	dest    *mock.Adapter
	store   *memory.Store
}

func newMonitorFixture(t *testing.T) *monitorFixture {
	t.Helper()

	source := mock.NewAdapter(types.CHAIN_ETHEREUM)
	dest := mock.NewAdapter(types.CHAIN_SUI)
	st := memory.NewStore()

	monitor := NewMonitor(st, []chains.Adapter{source, dest}, &store.KeyedMutex{}, MonitorConfig{
		Interval:     10 * time.Millisecond,
		StatusWait:   time.Second,
		ExpiryGrace:  time.Second,
		FailureLimit: 3,
	}, zerolog.Nop())

	return &monitorFixture{monitor: monitor, source: source, dest: dest, store: st}
}

// seedOrder locks both legs on the mock chains and stores an order in
// the given status.
func (f *monitorFixture) seedOrder(t *testing.T, status types.OrderStatus, timelock int64) *types.SwapOrder {
	t.Helper()

	secret, err := htlc.GenerateSecret()
	require.NoError(t, err)
	hashlock := htlc.Hashlock(secret)

	ctx := context.Background()
	sourceRef, err := f.source.CreateLock(ctx, chains.CreateLockParams{
		Hashlock: hashlock, Timelock: timelock, Recipient: "0xbridge", Amount: "100", Token: types.NATIVE_TOKEN,
	})
	require.NoError(t, err)
	destRef, err := f.dest.CreateLock(ctx, chains.CreateLockParams{
		Hashlock: hashlock, Timelock: timelock, Recipient: "0xrecipient", Amount: "100", Token: types.NATIVE_TOKEN,
		CounterpartyRef: sourceRef,
	})
	require.NoError(t, err)

	now := time.Now().Unix()
	order := &types.SwapOrder{
		ID:            htlc.ComputeOrderID(types.CHAIN_ETHEREUM, types.CHAIN_SUI, "100", hashlock, timelock, "seed"),
		Status:        status,
		SourceChain:   types.CHAIN_ETHEREUM,
		DestChain:     types.CHAIN_SUI,
		SourceToken:   types.NATIVE_TOKEN,
		DestToken:     types.NATIVE_TOKEN,
		Amount:        "100",
		Recipient:     "0xrecipient",
		Secret:        secret,
		Hashlock:      hashlock,
		Timelock:      timelock,
		SourceLockRef: sourceRef,
		DestLockRef:   destRef,
		TsCreated:     now,
		TsUpdated:     now,
	}
	require.NoError(t, f.store.PutOrder(order))
	return order
}

func (f *monitorFixture) reload(t *testing.T, id string) *types.SwapOrder {
	t.Helper()
	order, err := f.store.GetOrder(id)
	require.NoError(t, err)
	require.NotNil(t, order)
	return order
}

func TestMonitorPromotesPendingToLocked(t *testing.T) {
	f := newMonitorFixture(t)
	order := f.seedOrder(t, types.STATUS_PENDING, time.Now().Unix()+3600)

	f.monitor.Tick(context.Background())

	assert.Equal(t, types.STATUS_LOCKED, f.reload(t, order.ID).Status)
}

func TestMonitorConvergesOnWithdrawal(t *testing.T) {
	tests := []struct {
		name      string
		settleLeg func(f *monitorFixture, order *types.SwapOrder)
	}{
		{"destination leg reveals first", func(f *monitorFixture, o *types.SwapOrder) {
			f.dest.SettleExternally(o.DestLockRef)
		}},
		{"source leg reveals first", func(f *monitorFixture, o *types.SwapOrder) {
			f.source.SettleExternally(o.SourceLockRef)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMonitorFixture(t)
			order := f.seedOrder(t, types.STATUS_LOCKED, time.Now().Unix()+3600)

			tt.settleLeg(f, order)
			f.monitor.Tick(context.Background())

			got := f.reload(t, order.ID)
			assert.Equal(t, types.STATUS_WITHDRAWN, got.Status)
			assert.Contains(t, got.Message, "withdrawal observed")
		})
	}
}

func TestMonitorMarksExpired(t *testing.T) {
	f := newMonitorFixture(t)
	order := f.seedOrder(t, types.STATUS_LOCKED, time.Now().Unix()-1)

	f.monitor.Tick(context.Background())

	got := f.reload(t, order.ID)
	assert.Equal(t, types.STATUS_EXPIRED, got.Status)
	assert.False(t, got.Flagged)
}

func TestMonitorWithdrawalBeatsExpiry(t *testing.T) {
	// rule priority: a revealed secret wins even after the timelock
	f := newMonitorFixture(t)
	order := f.seedOrder(t, types.STATUS_LOCKED, time.Now().Unix()-1)
	f.dest.SettleExternally(order.DestLockRef)

	f.monitor.Tick(context.Background())

	assert.Equal(t, types.STATUS_WITHDRAWN, f.reload(t, order.ID).Status)
}

func TestMonitorStopsPollingAfterGraceWindow(t *testing.T) {
	f := newMonitorFixture(t)
	// expired two seconds ago, grace window is one second
	order := f.seedOrder(t, types.STATUS_EXPIRED, time.Now().Unix()-2)

	f.monitor.Tick(context.Background())

	got := f.reload(t, order.ID)
	assert.Equal(t, types.STATUS_EXPIRED, got.Status)
	assert.True(t, got.Flagged)
	assert.Contains(t, got.Message, "polling stopped")
}

func TestMonitorFlagsAfterRepeatedPollFailures(t *testing.T) {
	f := newMonitorFixture(t)
	order := f.seedOrder(t, types.STATUS_LOCKED, time.Now().Unix()+3600)
	f.source.StatusErr = errors.New("node unreachable")

	// a single failed poll never changes state
	f.monitor.Tick(context.Background())
	got := f.reload(t, order.ID)
	assert.Equal(t, types.STATUS_LOCKED, got.Status)
	assert.False(t, got.Flagged)
	assert.Equal(t, 1, got.SourcePollFailures)

	f.monitor.Tick(context.Background())
	f.monitor.Tick(context.Background())

	got = f.reload(t, order.ID)
	assert.Equal(t, types.STATUS_LOCKED, got.Status)
	assert.True(t, got.Flagged)
	assert.Contains(t, got.Message, "flagged for inspection")

	// flagged orders are skipped on later ticks
	f.source.StatusErr = nil
	f.dest.SettleExternally(order.DestLockRef)
	f.monitor.Tick(context.Background())
	assert.Equal(t, types.STATUS_LOCKED, f.reload(t, order.ID).Status)
}

func TestMonitorFailureCounterResets(t *testing.T) {
	f := newMonitorFixture(t)
	order := f.seedOrder(t, types.STATUS_LOCKED, time.Now().Unix()+3600)

	f.source.StatusErr = errors.New("node unreachable")
	f.monitor.Tick(context.Background())
	f.monitor.Tick(context.Background())
	require.Equal(t, 2, f.reload(t, order.ID).SourcePollFailures)

	f.source.StatusErr = nil
	f.monitor.Tick(context.Background())

	got := f.reload(t, order.ID)
	assert.Zero(t, got.SourcePollFailures)
	assert.False(t, got.Flagged)
}

func TestMonitorIgnoresTerminalOrders(t *testing.T) {
	f := newMonitorFixture(t)
	order := f.seedOrder(t, types.STATUS_LOCKED, time.Now().Unix()+3600)

	// withdrawn out-of-band by the orchestrator
	order.Status = types.STATUS_WITHDRAWN
	require.NoError(t, f.store.PutOrder(order))

	f.dest.SettleExternally(order.DestLockRef)
	f.monitor.Tick(context.Background())

	assert.Equal(t, types.STATUS_WITHDRAWN, f.reload(t, order.ID).Status)
}

func TestMonitorRunStopsOnCancel(t *testing.T) {
	f := newMonitorFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.monitor.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop on context cancellation")
	}
}

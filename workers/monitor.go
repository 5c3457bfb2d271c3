package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gohtlcbridge/chains"
	"gohtlcbridge/store"
	"gohtlcbridge/types"
)

type MonitorConfig struct {
	Interval     time.Duration // poll cadence for active orders
	StatusWait   time.Duration // bound on a single lock-status query
	ExpiryGrace  time.Duration // keep polling expired orders this long
	FailureLimit int           // consecutive leg poll failures before flagging
	Concurrency  int           // parallel order reconciliations per tick
}

// Monitor reconciles on-chain lock state into order status. It is the
// only writer besides the orchestrator and shares its per-order mutex,
// so a manual execute/refund never races an observation.
type Monitor struct {
	store    store.OrderStore
	adapters map[types.Chain]chains.Adapter
	locks    *store.KeyedMutex
	cfg      MonitorConfig
	log      zerolog.Logger
}

func NewMonitor(st store.OrderStore, adapters []chains.Adapter, locks *store.KeyedMutex, cfg MonitorConfig, log zerolog.Logger) *Monitor {
	byChain := make(map[types.Chain]chains.Adapter, len(adapters))
	for _, a := range adapters {
		byChain[a.Chain()] = a
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &Monitor{
		store:    st,
		adapters: byChain,
		locks:    locks,
		cfg:      cfg,
		log:      log.With().Str("component", "monitor").Logger(),
	}
}

// Run polls until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	m.log.Info().Dur("interval", m.cfg.Interval).Msg("starting progress monitor")

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("shutting down progress monitor")
			return
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick reconciles every active order once. Orders fan out over a
// bounded worker group so one slow chain does not serialize the rest.
func (m *Monitor) Tick(ctx context.Context) {
	var orders []*types.SwapOrder
	for _, status := range types.ActiveStatuses {
		batch, err := m.store.ListByStatus(status)
		if err != nil {
			m.log.Error().Err(err).Str("status", string(status)).Msg("cannot list orders")
			return
		}
		orders = append(orders, batch...)
	}

	sem := make(chan struct{}, m.cfg.Concurrency)
	var wg sync.WaitGroup
	for _, order := range orders {
		if order.Flagged {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(id string) {
			defer wg.Done()
			defer func() { <-sem }()
			m.reconcile(ctx, id)
		}(order.ID)
	}
	wg.Wait()
}

func (m *Monitor) reconcile(ctx context.Context, orderID string) {
	unlock := m.locks.Lock(orderID)
	defer unlock()

	// reload under the lock, the orchestrator may have moved the order
	order, err := m.store.GetOrder(orderID)
	if err != nil || order == nil {
		return
	}
	if order.Status.Terminal() || order.Flagged {
		return
	}

	now := time.Now()

	// stop burning polls on abandoned expired orders
	if order.Status == types.STATUS_EXPIRED && now.Unix() > order.Timelock+int64(m.cfg.ExpiryGrace.Seconds()) {
		order.Flagged = true
		order.AppendMessage("expired past grace window, polling stopped, awaiting manual refund")
		m.persist(order)
		m.log.Warn().Str("order", order.ID).Msg("expired order past grace window, flagged")
		return
	}

	sourceStatus, sourceOK := m.pollLeg(ctx, order, order.SourceChain, order.SourceLockRef, &order.SourcePollFailures)
	destStatus, destOK := m.pollLeg(ctx, order, order.DestChain, order.DestLockRef, &order.DestPollFailures)

	if !sourceOK || !destOK {
		// a single failed poll never changes order state; repeated ones
		// flag the order instead of stalling silently
		if order.SourcePollFailures >= m.cfg.FailureLimit || order.DestPollFailures >= m.cfg.FailureLimit {
			order.Flagged = true
			order.AppendMessage(fmt.Sprintf("flagged for inspection: %d/%d consecutive poll failures (source/dest)",
				order.SourcePollFailures, order.DestPollFailures))
			m.log.Warn().Str("order", order.ID).Msg("order flagged after repeated poll failures")
		}
		m.persist(order)
		return
	}

	switch {
	case sourceStatus.Withdrawn || destStatus.Withdrawn:
		// the secret is out; the swap completed whichever leg revealed it
		if order.Status.CanTransition(types.STATUS_WITHDRAWN) {
			order.Status = types.STATUS_WITHDRAWN
			order.AppendMessage("withdrawal observed on-chain")
			m.persist(order)
			m.log.Info().Str("order", order.ID).Msg("order withdrawn")
		}

	case order.Expired(now):
		if order.Status != types.STATUS_EXPIRED && order.Status.CanTransition(types.STATUS_EXPIRED) {
			order.Status = types.STATUS_EXPIRED
			order.AppendMessage("timelock passed, awaiting refund")
			m.persist(order)
			m.log.Info().Str("order", order.ID).Msg("order expired")
		} else {
			m.persist(order) // keep poll counters fresh
		}

	case order.Status == types.STATUS_PENDING && sourceStatus.Created && destStatus.Created:
		order.Status = types.STATUS_LOCKED
		order.AppendMessage("both legs observed locked on-chain")
		m.persist(order)
		m.log.Info().Str("order", order.ID).Msg("order locked")

	default:
		m.persist(order) // keep poll counters fresh
	}
}

// pollLeg queries one leg's lock status. A leg without a lock ref polls
// as "not created" without touching the chain. The failure counter
// resets on every successful poll.
func (m *Monitor) pollLeg(ctx context.Context, order *types.SwapOrder, chain types.Chain, lockRef string, failures *int) (types.LockStatus, bool) {
	if lockRef == "" {
		return types.LockStatus{}, true
	}

	adapter, ok := m.adapters[chain]
	if !ok {
		return types.LockStatus{}, false
	}

	legCtx, cancel := context.WithTimeout(ctx, m.cfg.StatusWait)
	defer cancel()

	status, err := adapter.LockStatus(legCtx, lockRef)
	if err != nil {
		*failures++
		m.log.Warn().Str("order", order.ID).Str("chain", string(chain)).Err(err).Msg("leg status poll failed")
		return types.LockStatus{}, false
	}

	*failures = 0
	return status, true
}

func (m *Monitor) persist(order *types.SwapOrder) {
	order.TsUpdated = time.Now().Unix()
	if err := m.store.PutOrder(order); err != nil {
		m.log.Error().Str("order", order.ID).Err(err).Msg("cannot persist order update")
	}
}

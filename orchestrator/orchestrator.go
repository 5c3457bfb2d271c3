package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gohtlcbridge/chains"
	"gohtlcbridge/htlc"
	"gohtlcbridge/store"
	"gohtlcbridge/types"
)

// Params is the caller's swap intent. Timelock is optional; zero means
// "now + configured default horizon".
type Params struct {
	SourceChain types.Chain `json:"sourceChain"`
	DestChain   types.Chain `json:"destChain"`
	SourceToken string      `json:"sourceToken"`
	DestToken   string      `json:"destToken"`
	Amount      string      `json:"amount"`
	Recipient   string      `json:"recipient"`
	Timelock    int64       `json:"timelock"`
}

type Config struct {
	ConfirmWait     time.Duration
	DefaultTimelock time.Duration
}

// Orchestrator drives swap orders through the HTLC state machine. It is
// the sole writer of state transitions; the progress monitor shares its
// keyed mutex so observations and manual calls serialize per order.
type Orchestrator struct {
	store     store.OrderStore
	adapters  map[types.Chain]chains.Adapter
	executors map[types.Chain]string // source-leg recipient (our address) per chain
	locks     *store.KeyedMutex
	cfg       Config
	log       zerolog.Logger
}

func New(st store.OrderStore, adapters []chains.Adapter, executors map[types.Chain]string, locks *store.KeyedMutex, cfg Config, log zerolog.Logger) *Orchestrator {
	byChain := make(map[types.Chain]chains.Adapter, len(adapters))
	for _, a := range adapters {
		byChain[a.Chain()] = a
	}
	return &Orchestrator{
		store:     st,
		adapters:  byChain,
		executors: executors,
		locks:     locks,
		cfg:       cfg,
		log:       log.With().Str("component", "orchestrator").Logger(),
	}
}

func (o *Orchestrator) adapter(chain types.Chain) (chains.Adapter, error) {
	a, ok := o.adapters[chain]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported chain %q", types.ErrValidation, chain)
	}
	return a, nil
}

func (o *Orchestrator) validate(params *Params) error {
	if params.SourceChain == params.DestChain {
		return fmt.Errorf("%w: source and destination chain must differ", types.ErrValidation)
	}
	if _, err := o.adapter(params.SourceChain); err != nil {
		return err
	}
	dest, err := o.adapter(params.DestChain)
	if err != nil {
		return err
	}

	amount, ok := big.NewInt(0).SetString(params.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be a positive base-unit integer, got %q", types.ErrValidation, params.Amount)
	}

	if err := dest.ValidateAddress(params.Recipient); err != nil {
		return err
	}

	now := time.Now()
	if params.Timelock == 0 {
		params.Timelock = now.Add(o.cfg.DefaultTimelock).Unix()
	}
	if params.Timelock <= now.Unix() {
		return fmt.Errorf("%w: timelock %d is not in the future", types.ErrValidation, params.Timelock)
	}

	if params.SourceToken == "" {
		params.SourceToken = types.NATIVE_TOKEN
	}
	if params.DestToken == "" {
		params.DestToken = types.NATIVE_TOKEN
	}
	return nil
}

func (o *Orchestrator) chainCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.cfg.ConfirmWait)
}

// InitiateSwap validates params, generates the secret material and
// creates the HTLC on both legs, source first. A second-leg failure
// leaves the order pending with only the source lock set: there is no
// cross-chain two-phase commit, the caller retries or refunds the
// source leg after its timelock. The order reaches locked only when
// both legs confirmed.
func (o *Orchestrator) InitiateSwap(ctx context.Context, params Params) (*types.SwapOrder, error) {
	if err := o.validate(&params); err != nil {
		return nil, err
	}

	secret, err := htlc.GenerateSecret()
	if err != nil {
		return nil, err
	}
	hashlock := htlc.Hashlock(secret)
	nonce := uuid.New().String()

	now := time.Now().Unix()
	order := &types.SwapOrder{
		ID:          htlc.ComputeOrderID(params.SourceChain, params.DestChain, params.Amount, hashlock, params.Timelock, nonce),
		Status:      types.STATUS_PENDING,
		SourceChain: params.SourceChain,
		DestChain:   params.DestChain,
		SourceToken: params.SourceToken,
		DestToken:   params.DestToken,
		Amount:      params.Amount,
		Recipient:   params.Recipient,
		Secret:      secret,
		Hashlock:    hashlock,
		Timelock:    params.Timelock,
		TsCreated:   now,
		TsUpdated:   now,
	}

	if err := o.store.PutOrder(order); err != nil {
		return nil, fmt.Errorf("order %s: %w", order.ID, err)
	}

	unlock := o.locks.Lock(order.ID)
	defer unlock()

	source, _ := o.adapter(order.SourceChain)
	dest, _ := o.adapter(order.DestChain)

	// source leg: lock our inbound funds to the bridge executor address
	legCtx, cancel := o.chainCtx(ctx)
	sourceRef, err := source.CreateLock(legCtx, chains.CreateLockParams{
		Hashlock:  hashlock,
		Timelock:  order.Timelock,
		Recipient: o.executors[order.SourceChain],
		Amount:    order.Amount,
		Token:     order.SourceToken,
	})
	cancel()
	if err != nil {
		order.AppendMessage(fmt.Sprintf("source leg lock failed: %v", err))
		o.persist(order)
		return order, fmt.Errorf("order %s: %w", order.ID, err)
	}

	order.SourceLockRef = sourceRef
	o.persist(order)

	// destination leg, linked back to the source lock
	legCtx, cancel = o.chainCtx(ctx)
	destRef, err := dest.CreateLock(legCtx, chains.CreateLockParams{
		Hashlock:        hashlock,
		Timelock:        order.Timelock,
		Recipient:       order.Recipient,
		Amount:          order.Amount,
		Token:           order.DestToken,
		CounterpartyRef: sourceRef,
	})
	cancel()
	if err != nil {
		// asymmetric window: source leg stays locked until its timelock,
		// the caller retries or refunds once it expires
		order.AppendMessage(fmt.Sprintf("destination leg lock failed, source leg remains locked: %v", err))
		o.persist(order)
		return order, fmt.Errorf("order %s: %w", order.ID, err)
	}

	order.DestLockRef = destRef
	order.Status = types.STATUS_LOCKED
	o.persist(order)

	o.log.Info().
		Str("order", order.ID).
		Str("sourceLockRef", sourceRef).
		Str("destLockRef", destRef).
		Int64("timelock", order.Timelock).
		Msg("swap locked on both legs")
	return order, nil
}

// ExecuteSwap reveals the secret on the destination leg. From here the
// secret is public on that chain; the source leg is then claimed with
// the same secret as a best-effort follow-up.
func (o *Orchestrator) ExecuteSwap(ctx context.Context, orderID string) (*types.SwapOrder, error) {
	unlock := o.locks.Lock(orderID)
	defer unlock()

	order, err := o.load(orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != types.STATUS_LOCKED {
		return order, fmt.Errorf("order %s: %w: cannot execute from %q", order.ID, types.ErrInvalidStateTransition, order.Status)
	}

	dest, _ := o.adapter(order.DestChain)

	legCtx, cancel := o.chainCtx(ctx)
	txRef, err := dest.Withdraw(legCtx, order.DestLockRef, order.Secret)
	cancel()
	if err != nil {
		if errors.Is(err, types.ErrAlreadySettled) && o.legWithdrawn(ctx, dest, order.DestLockRef) {
			// someone beat us to the reveal with our secret; converge
			order.AppendMessage("destination leg already withdrawn on-chain")
		} else {
			order.AppendMessage(fmt.Sprintf("execute failed: %v", err))
			o.persist(order)
			return order, fmt.Errorf("order %s: %w", order.ID, err)
		}
	} else {
		order.AppendMessage(fmt.Sprintf("destination withdrawn in %s", txRef))
	}

	order.Status = types.STATUS_WITHDRAWN
	o.persist(order)

	o.completeSourceLeg(ctx, order)

	o.log.Info().Str("order", order.ID).Msg("swap executed, secret revealed")
	return order, nil
}

// completeSourceLeg claims the source lock with the now-public secret.
// Failure is logged, not fatal: any party holding the revealed secret
// can finish this leg later.
func (o *Orchestrator) completeSourceLeg(ctx context.Context, order *types.SwapOrder) {
	source, _ := o.adapter(order.SourceChain)

	legCtx, cancel := o.chainCtx(ctx)
	defer cancel()

	txRef, err := source.Withdraw(legCtx, order.SourceLockRef, order.Secret)
	if err != nil {
		if !errors.Is(err, types.ErrAlreadySettled) {
			o.log.Warn().Str("order", order.ID).Err(err).Msg("source leg withdrawal pending, secret is public")
			order.AppendMessage(fmt.Sprintf("source leg withdrawal pending: %v", err))
			o.persist(order)
		}
		return
	}

	order.AppendMessage(fmt.Sprintf("source withdrawn in %s", txRef))
	o.persist(order)
}

// RefundOrder reclaims whichever legs are still locked after the
// timelock passed. Rejected before any chain call while the timelock
// is still running or once the order settled.
func (o *Orchestrator) RefundOrder(ctx context.Context, orderID string) (*types.SwapOrder, error) {
	unlock := o.locks.Lock(orderID)
	defer unlock()

	order, err := o.load(orderID)
	if err != nil {
		return nil, err
	}

	if order.Status.Terminal() {
		return order, fmt.Errorf("order %s: %w: cannot refund from %q", order.ID, types.ErrInvalidStateTransition, order.Status)
	}
	if !order.Expired(time.Now()) {
		return order, fmt.Errorf("order %s: %w", order.ID, types.ErrTimelockNotExpired)
	}

	legs := []struct {
		chain   types.Chain
		lockRef string
	}{
		{order.SourceChain, order.SourceLockRef},
		{order.DestChain, order.DestLockRef},
	}

	for _, leg := range legs {
		if leg.lockRef == "" {
			continue
		}
		adapter, _ := o.adapter(leg.chain)

		legCtx, cancel := o.chainCtx(ctx)
		txRef, err := adapter.Refund(legCtx, leg.lockRef)
		cancel()
		if err != nil {
			if errors.Is(err, types.ErrAlreadySettled) && o.legRefunded(ctx, adapter, leg.lockRef) {
				// a retried refund, nothing left to do on this leg
				continue
			}
			order.AppendMessage(fmt.Sprintf("refund failed: %v", err))
			o.persist(order)
			return order, fmt.Errorf("order %s: %w", order.ID, err)
		}
		order.AppendMessage(fmt.Sprintf("%s leg refunded in %s", leg.chain, txRef))
	}

	order.Status = types.STATUS_REFUNDED
	o.persist(order)

	o.log.Info().Str("order", order.ID).Msg("swap refunded")
	return order, nil
}

// GetOrderStatus returns the current order snapshot, nil if unknown.
// Callers receive a copy including the secret; outward projections
// strip it at the API boundary.
func (o *Orchestrator) GetOrderStatus(orderID string) (*types.SwapOrder, error) {
	return o.store.GetOrder(orderID)
}

func (o *Orchestrator) load(orderID string) (*types.SwapOrder, error) {
	order, err := o.store.GetOrder(orderID)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", orderID, err)
	}
	if order == nil {
		return nil, fmt.Errorf("order %s: %w", orderID, types.ErrOrderNotFound)
	}
	return order, nil
}

func (o *Orchestrator) persist(order *types.SwapOrder) {
	order.TsUpdated = time.Now().Unix()
	if err := o.store.PutOrder(order); err != nil {
		// losing a transition is serious; surface loudly but do not crash
		// mid-settlement, the monitor reconciles from chain truth
		o.log.Error().Str("order", order.ID).Err(err).Msg("cannot persist order update")
	}
}

func (o *Orchestrator) legWithdrawn(ctx context.Context, adapter chains.Adapter, lockRef string) bool {
	legCtx, cancel := o.chainCtx(ctx)
	defer cancel()
	status, err := adapter.LockStatus(legCtx, lockRef)
	return err == nil && status.Withdrawn
}

func (o *Orchestrator) legRefunded(ctx context.Context, adapter chains.Adapter, lockRef string) bool {
	legCtx, cancel := o.chainCtx(ctx)
	defer cancel()
	status, err := adapter.LockStatus(legCtx, lockRef)
	return err == nil && status.Refunded
}

package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"gohtlcbridge/chains"
	"gohtlcbridge/htlc"
	"gohtlcbridge/types"
)

// Adapter is a deterministic in-memory chain for the test suite and
// dev runs: locks live in a map, the hashlock is verified with the same
// sha256 the real contracts use, and failures are scripted per call.
type Adapter struct {
	chain   types.Chain
	latency time.Duration

	mu    sync.Mutex
	locks map[string]*lock
	calls int

	// FailCreateLock makes the nth CreateLock call (1-based) fail with
	// the given error; zero disables scripting.
	FailCreateLock int
	CreateLockErr  error

	// StatusErr makes every LockStatus call fail, for poll-failure tests.
	StatusErr error
}

type lock struct {
	hashlock  string
	timelock  int64
	recipient string
	amount    string
	withdrawn bool
	refunded  bool
}

func NewAdapter(chain types.Chain) *Adapter {
	return &Adapter{
		chain: chain,
		locks: make(map[string]*lock),
	}
}

// WithLatency makes every call sleep, to exercise concurrent polling.
func (a *Adapter) WithLatency(d time.Duration) *Adapter {
	a.latency = d
	return a
}

func (a *Adapter) Chain() types.Chain { return a.chain }

func (a *Adapter) ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("%w: empty address", types.ErrValidation)
	}
	return nil
}

func (a *Adapter) CreateLock(ctx context.Context, params chains.CreateLockParams) (string, error) {
	if err := a.wait(ctx); err != nil {
		return "", err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.calls++
	if a.FailCreateLock > 0 && a.calls == a.FailCreateLock {
		err := a.CreateLockErr
		if err == nil {
			err = types.ErrChainSubmission
		}
		return "", &types.LegError{Chain: a.chain, Op: "createLock", Err: err}
	}

	ref := fmt.Sprintf("%s-lock-%s", a.chain, uuid.New().String())
	a.locks[ref] = &lock{
		hashlock:  params.Hashlock,
		timelock:  params.Timelock,
		recipient: params.Recipient,
		amount:    params.Amount,
	}
	return ref, nil
}

func (a *Adapter) Withdraw(ctx context.Context, lockRef string, secret []byte) (string, error) {
	if err := a.wait(ctx); err != nil {
		return "", err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	l, ok := a.locks[lockRef]
	if !ok {
		return "", &types.LegError{Chain: a.chain, Op: "withdraw", LockRef: lockRef, Err: types.ErrChainSubmission}
	}
	if l.withdrawn || l.refunded {
		return "", &types.LegError{Chain: a.chain, Op: "withdraw", LockRef: lockRef, Err: types.ErrAlreadySettled}
	}
	if !htlc.VerifySecret(secret, l.hashlock) {
		return "", &types.LegError{Chain: a.chain, Op: "withdraw", LockRef: lockRef, Err: types.ErrInvalidSecret}
	}

	l.withdrawn = true
	return "tx-" + uuid.New().String(), nil
}

func (a *Adapter) Refund(ctx context.Context, lockRef string) (string, error) {
	if err := a.wait(ctx); err != nil {
		return "", err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	l, ok := a.locks[lockRef]
	if !ok {
		return "", &types.LegError{Chain: a.chain, Op: "refund", LockRef: lockRef, Err: types.ErrChainSubmission}
	}
	if l.withdrawn || l.refunded {
		return "", &types.LegError{Chain: a.chain, Op: "refund", LockRef: lockRef, Err: types.ErrAlreadySettled}
	}
	if time.Now().Unix() <= l.timelock {
		return "", &types.LegError{Chain: a.chain, Op: "refund", LockRef: lockRef, Err: types.ErrTimelockNotExpired}
	}

	l.refunded = true
	return "tx-" + uuid.New().String(), nil
}

func (a *Adapter) LockStatus(ctx context.Context, lockRef string) (types.LockStatus, error) {
	if err := a.wait(ctx); err != nil {
		return types.LockStatus{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.StatusErr != nil {
		return types.LockStatus{}, &types.LegError{Chain: a.chain, Op: "lockStatus", LockRef: lockRef, Err: a.StatusErr}
	}

	l, ok := a.locks[lockRef]
	if !ok {
		return types.LockStatus{}, nil
	}
	return types.LockStatus{
		Created:   true,
		Withdrawn: l.withdrawn,
		Refunded:  l.refunded,
		Timelock:  l.timelock,
	}, nil
}

// SettleExternally marks a lock withdrawn as if a counterparty revealed
// the secret on-chain; monitor tests drive convergence with this.
func (a *Adapter) SettleExternally(lockRef string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if l, ok := a.locks[lockRef]; ok {
		l.withdrawn = true
	}
}

// LockCount reports how many locks were created.
func (a *Adapter) LockCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.locks)
}

func (a *Adapter) wait(ctx context.Context) error {
	if a.latency == 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return &types.LegError{Chain: a.chain, Op: "wait", Err: fmt.Errorf("%w: %v", types.ErrChainTimeout, ctx.Err())}
	case <-time.After(a.latency):
		return nil
	}
}

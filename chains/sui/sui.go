package sui

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/ybbus/jsonrpc"

	"gohtlcbridge/chains"
	"gohtlcbridge/config"
	"gohtlcbridge/htlc"
	"gohtlcbridge/types"
)

// Abort codes of the htlc Move module, surfaced in MoveAbort messages.
const (
	abortHashMismatch       = "1"
	abortAlreadySettled     = "2"
	abortTimelockNotExpired = "3"
)

var addressRE = regexp.MustCompile(`^0x[0-9a-fA-F]{1,64}$`)

// Adapter drives the htlc Move package through a signer-enabled
// fullnode sidecar: htlc_* methods build, sign and execute the
// transaction block, sui_getObject serves the read path. Lock refs are
// the shared Lock object ids.
type Adapter struct {
	rpcList   []string
	packageID string
	signerKey string
	timeout   time.Duration
	log       zerolog.Logger
}

func NewAdapter(cfg *config.Configuration, log zerolog.Logger) *Adapter {
	return &Adapter{
		rpcList:   cfg.Sui.RPCList,
		packageID: cfg.Sui.PackageID,
		signerKey: cfg.Sui.SignerKey,
		timeout:   time.Duration(cfg.Swap.ConfirmWait) * time.Second,
		log:       log.With().Str("component", "sui_adapter").Logger(),
	}
}

func (a *Adapter) Chain() types.Chain { return types.CHAIN_SUI }

func (a *Adapter) ValidateAddress(address string) error {
	if !addressRE.MatchString(address) {
		return fmt.Errorf("%w: not a Sui address: %s", types.ErrValidation, address)
	}
	return nil
}

// call tries each configured fullnode in turn, per-call HTTP timeout
// bounded by the remaining context budget.
func (a *Adapter) call(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	timeout := a.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}

	var lastErr error
	for _, url := range a.rpcList {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		client := jsonrpc.NewClientWithOpts(url, &jsonrpc.RPCClientOpts{
			HTTPClient: &http.Client{Timeout: timeout},
		})

		resp, err := client.Call(method, params...)
		if err != nil {
			a.log.Warn().Str("rpc", url).Str("method", method).Err(err).Msg("error calling Sui RPC")
			lastErr = err
			continue
		}
		if resp.Error != nil {
			// node answered, a retry elsewhere would abort the same way
			return fmt.Errorf("%s: %s (code %d)", method, resp.Error.Message, resp.Error.Code)
		}
		return resp.GetObject(result)
	}
	if lastErr == nil {
		lastErr = errors.New("no usable RPC endpoint configured")
	}
	return lastErr
}

type executeResult struct {
	LockID   string `json:"lockId,omitempty"`
	TxDigest string `json:"txDigest"`
}

func (a *Adapter) CreateLock(ctx context.Context, params chains.CreateLockParams) (string, error) {
	coinType := params.Token
	if coinType == types.NATIVE_TOKEN {
		coinType = "0x2::sui::SUI"
	}

	var res executeResult
	err := a.call(ctx, &res, "htlc_createLock", map[string]interface{}{
		"packageId":   a.packageID,
		"signer":      a.signerKey,
		"receiver":    params.Recipient,
		"hashlock":    params.Hashlock,
		"timelockMs":  params.Timelock * 1000,
		"coinType":    coinType,
		"amount":      params.Amount,
		"counterpart": params.CounterpartyRef,
	})
	if err != nil {
		return "", a.mapChainErr(ctx, "createLock", err)
	}
	if res.LockID == "" {
		return "", &types.LegError{Chain: types.CHAIN_SUI, Op: "createLock",
			Err: fmt.Errorf("%w: no lock object id in response", types.ErrChainSubmission)}
	}

	a.log.Info().Str("lockRef", res.LockID).Str("tx", res.TxDigest).Msg("HTLC lock created")
	return res.LockID, nil
}

func (a *Adapter) Withdraw(ctx context.Context, lockRef string, secret []byte) (string, error) {
	if len(secret) != htlc.SecretSize {
		return "", fmt.Errorf("%w: secret must be %d bytes", types.ErrInvalidSecret, htlc.SecretSize)
	}

	var res executeResult
	err := a.call(ctx, &res, "htlc_withdraw", map[string]interface{}{
		"packageId": a.packageID,
		"signer":    a.signerKey,
		"lockId":    lockRef,
		"preimage":  hex.EncodeToString(secret),
	})
	if err != nil {
		return "", a.mapChainErr(ctx, "withdraw", err)
	}
	return res.TxDigest, nil
}

func (a *Adapter) Refund(ctx context.Context, lockRef string) (string, error) {
	var res executeResult
	err := a.call(ctx, &res, "htlc_refund", map[string]interface{}{
		"packageId": a.packageID,
		"signer":    a.signerKey,
		"lockId":    lockRef,
	})
	if err != nil {
		return "", a.mapChainErr(ctx, "refund", err)
	}
	return res.TxDigest, nil
}

// getObject response, trimmed to the fields the monitor reads.
type objectResponse struct {
	Data *struct {
		Content struct {
			Fields struct {
				Withdrawn  bool   `json:"withdrawn"`
				Refunded   bool   `json:"refunded"`
				TimelockMs string `json:"timelock_ms"`
			} `json:"fields"`
		} `json:"content"`
	} `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func (a *Adapter) LockStatus(ctx context.Context, lockRef string) (types.LockStatus, error) {
	var res objectResponse
	err := a.call(ctx, &res, "sui_getObject", lockRef, map[string]interface{}{
		"showContent": true,
	})
	if err != nil {
		return types.LockStatus{}, a.mapChainErr(ctx, "lockStatus", err)
	}

	// notExists/deleted is a valid answer, not a failure
	if res.Data == nil || res.Error != nil {
		return types.LockStatus{}, nil
	}

	fields := res.Data.Content.Fields
	var timelockMs int64
	fmt.Sscan(fields.TimelockMs, &timelockMs)

	return types.LockStatus{
		Created:   true,
		Withdrawn: fields.Withdrawn,
		Refunded:  fields.Refunded,
		Timelock:  timelockMs / 1000,
	}, nil
}

func (a *Adapter) mapChainErr(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return &types.LegError{Chain: types.CHAIN_SUI, Op: op, Err: fmt.Errorf("%w: %v", types.ErrChainTimeout, err)}
	}

	msg := err.Error()
	var kind error
	switch {
	case moveAbort(msg, abortHashMismatch) || strings.Contains(msg, "hash mismatch"):
		kind = types.ErrInvalidSecret
	case moveAbort(msg, abortAlreadySettled) || strings.Contains(msg, "already settled"):
		kind = types.ErrAlreadySettled
	case moveAbort(msg, abortTimelockNotExpired) || strings.Contains(msg, "timelock"):
		kind = types.ErrTimelockNotExpired
	case strings.Contains(strings.ToLower(msg), "timeout"):
		kind = types.ErrChainTimeout
	default:
		kind = types.ErrChainSubmission
	}
	return &types.LegError{Chain: types.CHAIN_SUI, Op: op, Err: fmt.Errorf("%w: %v", kind, err)}
}

func moveAbort(msg, code string) bool {
	return strings.Contains(msg, "MoveAbort") && strings.Contains(msg, ", "+code+")")
}

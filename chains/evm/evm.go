package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	ethav "github.com/KOREAN139/ethereum-address-validator"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"gohtlcbridge/chains"
	"gohtlcbridge/config"
	"gohtlcbridge/htlc"
	"gohtlcbridge/types"
)

// Adapter drives the HTLC contract on one EVM chain. Lock refs are the
// contract's bytes32 lock ids, hex encoded.
type Adapter struct {
	cfg        config.ChainConfig
	privateKey string
	sender     string
	log        zerolog.Logger
}

func NewAdapter(cfg config.ChainConfig, privateKey, publicAddress string, log zerolog.Logger) *Adapter {
	return &Adapter{
		cfg:        cfg,
		privateKey: privateKey,
		sender:     publicAddress,
		log:        log.With().Str("component", "evm_adapter").Str("chain", string(cfg.Name)).Logger(),
	}
}

func (a *Adapter) Chain() types.Chain { return a.cfg.Name }

func (a *Adapter) ValidateAddress(address string) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("%w: not a hex address: %s", types.ErrValidation, address)
	}
	if err := ethav.Validate(common.HexToAddress(address).Hex()); err != nil {
		return fmt.Errorf("%w: %v", types.ErrValidation, err)
	}
	return nil
}

// withClient runs f against each configured RPC in turn until one
// succeeds, dialing per call.
func withClient[T any](rpcList []string, log zerolog.Logger, f func(client *ethclient.Client) (T, error)) (res T, err error) {
	var client *ethclient.Client
	for _, url := range rpcList {
		client, err = ethclient.Dial(url)
		if err != nil {
			log.Warn().Str("rpc", url).Err(err).Msg("error connecting to RPC")
			continue
		}

		res, err = f(client)
		client.Close()
		if err == nil {
			return
		}
	}
	if err == nil {
		err = errors.New("no usable RPC endpoint configured")
	}
	return
}

func (a *Adapter) transactor(ctx context.Context, client *ethclient.Client, value *big.Int) (*bind.TransactOpts, error) {
	nonce, err := client.PendingNonceAt(ctx, common.HexToAddress(a.sender))
	if err != nil {
		return nil, fmt.Errorf("error getting nonce for wallet: %w", err)
	}

	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting suggested gas price: %w", err)
	}

	privateKey, err := crypto.HexToECDSA(a.privateKey)
	if err != nil {
		return nil, fmt.Errorf("error instantiating private key: %w", err)
	}
	auth, err := bind.NewKeyedTransactorWithChainID(privateKey, big.NewInt(int64(a.cfg.ChainID)))
	if err != nil {
		return nil, fmt.Errorf("error instantiating contract call: %w", err)
	}

	auth.Context = ctx
	auth.Nonce = big.NewInt(int64(nonce))
	auth.Value = value
	auth.GasLimit = uint64(300000)
	if a.cfg.ChainID == 1 {
		auth.GasPrice = gasPrice
	} else {
		auth.GasPrice = gasPrice.Mul(gasPrice, big.NewInt(2))
	}

	return auth, nil
}

func (a *Adapter) bound(client *ethclient.Client) *bind.BoundContract {
	addr := common.HexToAddress(a.cfg.ContractAddress)
	return bind.NewBoundContract(addr, parsedABI, client, client, client)
}

func (a *Adapter) CreateLock(ctx context.Context, params chains.CreateLockParams) (string, error) {
	amount, ok := big.NewInt(0).SetString(params.Amount, 10)
	if !ok {
		return "", fmt.Errorf("%w: unparseable amount %q", types.ErrChainSubmission, params.Amount)
	}

	value := big.NewInt(0)
	token := common.Address{}
	if params.Token == types.NATIVE_TOKEN {
		value = amount
	} else {
		token = common.HexToAddress(params.Token)
	}

	receipt, err := withClient(a.cfg.RPCList, a.log, func(client *ethclient.Client) (*ethtypes.Receipt, error) {
		auth, err := a.transactor(ctx, client, value)
		if err != nil {
			return nil, err
		}

		tx, err := a.bound(client).Transact(auth, "newLock",
			common.HexToAddress(params.Recipient),
			common.HexToHash(params.Hashlock),
			big.NewInt(params.Timelock),
			token,
			amount,
			common.HexToHash(params.CounterpartyRef),
		)
		if err != nil {
			return nil, err
		}

		a.log.Info().Str("tx", tx.Hash().Hex()).Str("hashlock", params.Hashlock).Msg("submitted newLock, waiting for inclusion")
		return bind.WaitMined(ctx, client, tx)
	})
	if err != nil {
		return "", a.mapChainErr(ctx, "createLock", err)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return "", fmt.Errorf("%w: newLock reverted in tx %s", types.ErrChainSubmission, receipt.TxHash.Hex())
	}

	lockID, err := lockIDFromReceipt(receipt, common.HexToAddress(a.cfg.ContractAddress))
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrChainSubmission, err)
	}

	a.log.Info().Str("lockRef", lockID).Str("tx", receipt.TxHash.Hex()).Msg("HTLC lock created")
	return lockID, nil
}

func lockIDFromReceipt(receipt *ethtypes.Receipt, contract common.Address) (string, error) {
	for _, l := range receipt.Logs {
		if l.Address == contract && len(l.Topics) > 1 && l.Topics[0] == htlcCreatedTopic {
			return l.Topics[1].Hex(), nil
		}
	}
	return "", fmt.Errorf("no HTLCCreated event in tx %s", receipt.TxHash.Hex())
}

func (a *Adapter) Withdraw(ctx context.Context, lockRef string, secret []byte) (string, error) {
	if len(secret) != htlc.SecretSize {
		return "", fmt.Errorf("%w: secret must be %d bytes", types.ErrInvalidSecret, htlc.SecretSize)
	}
	var preimage [32]byte
	copy(preimage[:], secret)

	receipt, err := a.settle(ctx, "withdraw", common.HexToHash(lockRef), preimage)
	if err != nil {
		return "", a.mapChainErr(ctx, "withdraw", err)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return "", fmt.Errorf("%w: withdraw reverted in tx %s", types.ErrInvalidSecret, receipt.TxHash.Hex())
	}
	return receipt.TxHash.Hex(), nil
}

func (a *Adapter) Refund(ctx context.Context, lockRef string) (string, error) {
	receipt, err := a.settle(ctx, "refund", common.HexToHash(lockRef))
	if err != nil {
		return "", a.mapChainErr(ctx, "refund", err)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return "", fmt.Errorf("%w: refund reverted in tx %s", types.ErrChainSubmission, receipt.TxHash.Hex())
	}
	return receipt.TxHash.Hex(), nil
}

func (a *Adapter) settle(ctx context.Context, method string, args ...interface{}) (*ethtypes.Receipt, error) {
	return withClient(a.cfg.RPCList, a.log, func(client *ethclient.Client) (*ethtypes.Receipt, error) {
		auth, err := a.transactor(ctx, client, big.NewInt(0))
		if err != nil {
			return nil, err
		}

		tx, err := a.bound(client).Transact(auth, method, args...)
		if err != nil {
			return nil, err
		}

		return bind.WaitMined(ctx, client, tx)
	})
}

func (a *Adapter) LockStatus(ctx context.Context, lockRef string) (types.LockStatus, error) {
	view, err := withClient(a.cfg.RPCList, a.log, func(client *ethclient.Client) (lockView, error) {
		var out []interface{}
		if err := a.bound(client).Call(&bind.CallOpts{Context: ctx}, &out, "getLock", common.HexToHash(lockRef)); err != nil {
			return lockView{}, err
		}
		if len(out) != 9 {
			return lockView{}, fmt.Errorf("malformed getLock response (%d values)", len(out))
		}
		return lockView{
			Sender:    out[0].(common.Address),
			Receiver:  out[1].(common.Address),
			Token:     out[2].(common.Address),
			Amount:    out[3].(*big.Int),
			Hashlock:  out[4].([32]byte),
			Timelock:  out[5].(*big.Int),
			Withdrawn: out[6].(bool),
			Refunded:  out[7].(bool),
			Preimage:  out[8].([32]byte),
		}, nil
	})
	if err != nil {
		return types.LockStatus{}, a.mapChainErr(ctx, "lockStatus", err)
	}

	// unknown lock id yields the zero struct, not an error
	if view.Sender == (common.Address{}) {
		return types.LockStatus{}, nil
	}

	return types.LockStatus{
		Created:   true,
		Withdrawn: view.Withdrawn,
		Refunded:  view.Refunded,
		Timelock:  view.Timelock.Int64(),
	}, nil
}

// mapChainErr folds RPC and revert errors onto the shared taxonomy.
// Revert reasons follow the contract's require strings.
func (a *Adapter) mapChainErr(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return &types.LegError{Chain: a.cfg.Name, Op: op, Err: fmt.Errorf("%w: %v", types.ErrChainTimeout, err)}
	}

	msg := strings.ToLower(err.Error())
	var kind error
	switch {
	case strings.Contains(msg, "hashlock") || strings.Contains(msg, "preimage"):
		kind = types.ErrInvalidSecret
	case strings.Contains(msg, "already withdrawn") || strings.Contains(msg, "already refunded"):
		kind = types.ErrAlreadySettled
	case strings.Contains(msg, "timelock not yet passed"):
		kind = types.ErrTimelockNotExpired
	default:
		kind = types.ErrChainSubmission
	}
	return &types.LegError{Chain: a.cfg.Name, Op: op, Err: fmt.Errorf("%w: %v", kind, err)}
}

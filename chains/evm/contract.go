package evm

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ABI of the deployed HTLC contract. One contract per EVM chain holds
// every lock, addressed by a bytes32 lock id emitted on creation.
const htlcABI = `[
	{"type":"function","name":"newLock","stateMutability":"payable","inputs":[
		{"name":"receiver","type":"address"},
		{"name":"hashlock","type":"bytes32"},
		{"name":"timelock","type":"uint256"},
		{"name":"token","type":"address"},
		{"name":"amount","type":"uint256"},
		{"name":"counterpart","type":"bytes32"}],
	 "outputs":[{"name":"lockId","type":"bytes32"}]},
	{"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[
		{"name":"lockId","type":"bytes32"},
		{"name":"preimage","type":"bytes32"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"refund","stateMutability":"nonpayable","inputs":[
		{"name":"lockId","type":"bytes32"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"getLock","stateMutability":"view","inputs":[
		{"name":"lockId","type":"bytes32"}],
	 "outputs":[
		{"name":"sender","type":"address"},
		{"name":"receiver","type":"address"},
		{"name":"token","type":"address"},
		{"name":"amount","type":"uint256"},
		{"name":"hashlock","type":"bytes32"},
		{"name":"timelock","type":"uint256"},
		{"name":"withdrawn","type":"bool"},
		{"name":"refunded","type":"bool"},
		{"name":"preimage","type":"bytes32"}]},
	{"type":"event","name":"HTLCCreated","anonymous":false,"inputs":[
		{"name":"lockId","type":"bytes32","indexed":true},
		{"name":"sender","type":"address","indexed":true},
		{"name":"receiver","type":"address","indexed":true},
		{"name":"hashlock","type":"bytes32","indexed":false},
		{"name":"timelock","type":"uint256","indexed":false}]}
]`

var parsedABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(htlcABI))
	if err != nil {
		panic(err)
	}
	return parsed
}()

// htlcCreatedTopic identifies the creation event in a receipt; the
// lock id is its first indexed argument.
var htlcCreatedTopic = parsedABI.Events["HTLCCreated"].ID

// lockView mirrors the getLock return tuple.
type lockView struct {
	Sender    common.Address
	Receiver  common.Address
	Token     common.Address
	Amount    *big.Int
	Hashlock  [32]byte
	Timelock  *big.Int
	Withdrawn bool
	Refunded  bool
	Preimage  [32]byte
}

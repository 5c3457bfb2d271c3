package config

import "gohtlcbridge/types"

type Configuration struct {
	// Server config
	Server struct {
		Port      int    `yaml:"port"`
		UseSSL    bool   `yaml:"ssl"`
		RedisPort int    `yaml:"redis_port"`
		RedisHost string `yaml:"redis_host"`
		// run against the in-memory store instead of Redis (dev only)
		MemoryStore bool `yaml:"memory_store"`
	} `yaml:"server"`
	// Sui-related config
	Sui struct {
		RPCList []string `yaml:"rpc_list"`
		// Move package publishing the htlc module
		PackageID string `yaml:"package_id"`
		// address receiving source-leg locks when Sui is the source chain
		ExecutorAddress string `yaml:"executor_address"`
		// important private stuff
		SignerKey string `yaml:"signer_key"`
	} `yaml:"sui"`
	// EVM-related config
	EVM struct {
		// address receiving source-leg locks on EVM chains
		PublicAddress string `yaml:"address"`
		PrivateKey    string `yaml:"private_key"`
	} `yaml:"EVM"`
	Swap struct {
		// monitor poll interval, seconds
		PollInterval int `yaml:"poll_interval"`
		// bounded wait for on-chain confirmation, seconds
		ConfirmWait int `yaml:"confirm_wait"`
		// default timelock horizon when the caller omits one, seconds
		DefaultTimelock int `yaml:"default_timelock"`
		// how long after expiry the monitor keeps polling, seconds
		ExpiryGrace int `yaml:"expiry_grace"`
		// consecutive failed polls on one leg before flagging the order
		PollFailureLimit int `yaml:"poll_failure_limit"`
	} `yaml:"swap"`
}

var Config Configuration

// EVM-chains configs
type ChainConfig struct {
	Name             types.Chain
	ChainID          int
	RPCList          []string
	ContractAddress  string // HTLC contract address
	MinConfirmations int
}

var EVMChains = map[types.Chain]ChainConfig{
	types.CHAIN_ETHEREUM: {
		Name:             types.CHAIN_ETHEREUM,
		ChainID:          1,
		RPCList:          []string{"https://eth.drpc.org", "https://eth.llamarpc.com"},
		ContractAddress:  "0x4Aeee2AE95D0F2f45B264108a31B0c1a09d9e3cF",
		MinConfirmations: 3,
	}, // Ethereum
	types.CHAIN_BASE: {
		Name:             types.CHAIN_BASE,
		ChainID:          8453,
		RPCList:          []string{"https://base.llamarpc.com", "https://base.drpc.org"},
		ContractAddress:  "0x4Aeee2AE95D0F2f45B264108a31B0c1a09d9e3cF",
		MinConfirmations: 3,
	}, // Base
	types.CHAIN_ARBITRUM: {
		Name:             types.CHAIN_ARBITRUM,
		ChainID:          42161,
		RPCList:          []string{"https://rpc.ankr.com/arbitrum", "https://arbitrum.llamarpc.com"},
		ContractAddress:  "0x4Aeee2AE95D0F2f45B264108a31B0c1a09d9e3cF",
		MinConfirmations: 3,
	}, // Arbitrum
}

// defaults applied when config.yml leaves the swap section empty
const (
	DEFAULT_POLL_INTERVAL      = 30
	DEFAULT_CONFIRM_WAIT       = 120
	DEFAULT_TIMELOCK           = 7200
	DEFAULT_EXPIRY_GRACE       = 3600
	DEFAULT_POLL_FAILURE_LIMIT = 5
)

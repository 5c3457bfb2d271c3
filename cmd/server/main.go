package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"gohtlcbridge/chains"
	"gohtlcbridge/chains/evm"
	"gohtlcbridge/chains/sui"
	"gohtlcbridge/config"
	"gohtlcbridge/orchestrator"
	"gohtlcbridge/store"
	"gohtlcbridge/store/memory"
	redisstore "gohtlcbridge/store/redis"
	"gohtlcbridge/types"
	"gohtlcbridge/workers"
	"gohtlcbridge/workers/handlers"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	log.Info().Msg("starting cross-chain HTLC swap bridge")

	config.Init()

	// without persistence do not continue: a lost in-flight order is an
	// un-refunded lock
	var orderStore store.OrderStore
	if config.Config.Server.MemoryStore {
		log.Warn().Msg("using in-memory order store, orders will not survive restart")
		orderStore = memory.NewStore()
	} else {
		rs := redisstore.NewStore(config.Config.Server.RedisHost, config.Config.Server.RedisPort, log)
		if err := rs.Ping(); err != nil {
			log.Fatal().Err(err).Msg("cannot reach Redis")
		}
		orderStore = rs
	}

	adapters := []chains.Adapter{
		sui.NewAdapter(&config.Config, log),
	}
	executors := map[types.Chain]string{
		types.CHAIN_SUI: config.Config.Sui.ExecutorAddress,
	}
	for chain, chainCfg := range config.EVMChains {
		adapters = append(adapters, evm.NewAdapter(chainCfg, config.Config.EVM.PrivateKey, config.Config.EVM.PublicAddress, log))
		executors[chain] = config.Config.EVM.PublicAddress
	}

	locks := &store.KeyedMutex{}

	orch := orchestrator.New(orderStore, adapters, executors, locks, orchestrator.Config{
		ConfirmWait:     time.Duration(config.Config.Swap.ConfirmWait) * time.Second,
		DefaultTimelock: time.Duration(config.Config.Swap.DefaultTimelock) * time.Second,
	}, log)

	monitor := workers.NewMonitor(orderStore, adapters, locks, workers.MonitorConfig{
		Interval:     time.Duration(config.Config.Swap.PollInterval) * time.Second,
		StatusWait:   time.Duration(config.Config.Swap.ConfirmWait) * time.Second,
		ExpiryGrace:  time.Duration(config.Config.Swap.ExpiryGrace) * time.Second,
		FailureLimit: config.Config.Swap.PollFailureLimit,
	}, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go monitor.Run(ctx)

	// API serving HTTP server (serves as main worker thread)
	workers.Worker_HTTP(ctx, &handlers.Handler{
		Orch:  orch,
		Store: orderStore,
		Log:   log.With().Str("component", "api").Logger(),
	}, log)
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hxuan190/clmm-router/internal/aggregator"
	"github.com/hxuan190/clmm-router/internal/common"
	"github.com/hxuan190/clmm-router/internal/config"
	"github.com/hxuan190/clmm-router/internal/http"
	"github.com/hxuan190/clmm-router/internal/services/market"
	"github.com/hxuan190/clmm-router/internal/services/policy"
	"github.com/hxuan190/clmm-router/internal/services/router"
	"github.com/hxuan190/clmm-router/internal/services/settlement"
)

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("clmm-router exited")
		os.Exit(1)
	}
	log.Info().Msg("Shutdown complete")
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.LoadAll()
	if err != nil {
		return err
	}
	common.SetupLogger(cfg.General.LogLevel, cfg.General.Env)
	common.InitRuntime()

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}
	store, closeStore, err := newPolicyStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	svc, err := aggregator.NewService(aggregator.Deps{
		Router: router.NewRouter(router.Config{
			Parallelism: cfg.Router.Parallelism,
			PoolTimeout: cfg.Router.PoolTimeout,
		}),
		Provider:           provider,
		Policies:           store,
		Executor:           settlement.NewSimulatedExecutor(provider, cfg.Settlement.MaxDriftBps),
		DefaultSlippageBps: cfg.Settlement.DefaultSlippageBps,
	})
	if err != nil {
		return err
	}
	server, err := http.NewHTTPService(&cfg.General, svc)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutting down services...")
		return server.Stop()
	})
	return g.Wait()
}

// newProvider builds the snapshot source named by the config, behind the tick array cache.
func newProvider(cfg *config.Config) (market.SnapshotProvider, error) {
	var inner market.SnapshotProvider
	switch cfg.Provider.Kind {
	case config.ProviderFixture:
		p, err := market.LoadFixture(cfg.Provider.FixturePath, cfg.Router.TickArraysPerSide)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", p.Path()).Int("pools", p.Len()).Msg("fixture snapshots loaded")
		inner = p
	default:
		p, err := market.NewHTTPProvider(market.HTTPConfig{
			BaseURL:         cfg.Provider.URL,
			APIKey:          cfg.Provider.APIKey,
			ArraysPerSide:   cfg.Router.TickArraysPerSide,
			RatePerSecond:   cfg.Provider.RatePerSecond,
			BreakerFailures: cfg.Provider.BreakerFailures,
			BreakerTimeout:  cfg.Provider.BreakerTimeout,
		})
		if err != nil {
			return nil, err
		}
		inner = p
	}
	if cfg.Provider.CacheTTL == 0 || cfg.Provider.CacheSize == 0 {
		return inner, nil
	}
	return market.NewCachedProvider(inner, cfg.Provider.CacheSize, cfg.Provider.CacheTTL), nil
}

func newPolicyStore(cfg *config.Config) (policy.Store, func(), error) {
	if !cfg.Redis.Enabled {
		s, err := policy.NewMemoryStore(cfg.Settlement.DefaultSlippageBps)
		return s, func() {}, err
	}
	client := policy.NewRedisClient(policy.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	s, err := policy.NewRedisStore(client, cfg.Settlement.DefaultSlippageBps)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Router.PoolTimeout)
	defer cancel()
	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, nil, err
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("redis slippage store connected")
	return s, func() { _ = s.Close() }, nil
}

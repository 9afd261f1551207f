package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"github.com/hxuan190/clmm-router/internal/common"
	"github.com/hxuan190/clmm-router/internal/domain"
	"github.com/hxuan190/clmm-router/internal/metrics"
	"github.com/hxuan190/clmm-router/internal/services/builder"
	"github.com/hxuan190/clmm-router/internal/services/market"
	"github.com/hxuan190/clmm-router/internal/services/policy"
	"github.com/hxuan190/clmm-router/internal/services/quoter"
	"github.com/hxuan190/clmm-router/internal/services/router"
	"github.com/hxuan190/clmm-router/internal/services/settlement"
)

const AGGREGATOR_SERVICE = "aggregator-service"

// poolLister is implemented by providers that can enumerate every pool they hold.
type poolLister interface {
	Pools() []domain.PoolSnapshot
}

type Deps struct {
	Router   *router.Router
	Provider market.SnapshotProvider
	Policies policy.Store
	Executor settlement.Executor
	// DefaultSlippageBps previews quotes for callers without an account.
	DefaultSlippageBps uint16
}

// Service ties routing, slippage policy, envelope building and settlement together.
type Service struct {
	logger     *common.ServiceLogger
	router     *router.Router
	provider   market.SnapshotProvider
	policies   policy.Store
	executor   settlement.Executor
	defaultBps uint16
}

func NewService(deps Deps) (*Service, error) {
	if deps.Router == nil || deps.Provider == nil || deps.Policies == nil || deps.Executor == nil {
		return nil, fmt.Errorf("aggregator: router, provider, policy store and executor are required")
	}
	if err := (domain.SlippagePolicy{Bps: deps.DefaultSlippageBps}).Validate(); err != nil {
		return nil, err
	}
	svc := &Service{
		router:     deps.Router,
		provider:   deps.Provider,
		policies:   deps.Policies,
		executor:   deps.Executor,
		defaultBps: deps.DefaultSlippageBps,
	}
	svc.logger = common.NewServiceLogger(svc)
	return svc, nil
}

func (svc *Service) ID() string {
	return AGGREGATOR_SERVICE
}

type QuoteRequest struct {
	InputMint         string
	OutputMint        string
	Mode              domain.SwapMode
	Amount            uint64
	SqrtPriceLimitX64 *uint256.Int
	// SlippageBps overrides the account policy for the threshold preview.
	SlippageBps *uint16
	AccountID   string
}

type QuoteResult struct {
	Selection           *domain.RouteSelection
	SlippageBps         uint16
	ThresholdAmount     uint64
	PriceImpactSeverity quoter.PriceImpactSeverity
	PriceImpactWarning  string
}

// Quote routes the request and previews the slippage threshold it would settle with.
func (svc *Service) Quote(ctx context.Context, req QuoteRequest) (*QuoteResult, error) {
	bps, err := svc.previewBps(ctx, req)
	if err != nil {
		return nil, err
	}
	sel, err := svc.route(ctx, router.RouteRequest{
		InputMint:         req.InputMint,
		OutputMint:        req.OutputMint,
		Mode:              req.Mode,
		Amount:            req.Amount,
		SqrtPriceLimitX64: req.SqrtPriceLimitX64,
	})
	if err != nil {
		return nil, err
	}
	threshold, err := builder.Threshold(req.Mode, &sel.Quote, bps)
	if err != nil {
		return nil, err
	}
	impact := sel.Quote.PriceImpactBps
	return &QuoteResult{
		Selection:           sel,
		SlippageBps:         bps,
		ThresholdAmount:     threshold,
		PriceImpactSeverity: quoter.GetPriceImpactSeverity(impact),
		PriceImpactWarning:  quoter.GetPriceImpactWarning(impact),
	}, nil
}

func (svc *Service) previewBps(ctx context.Context, req QuoteRequest) (uint16, error) {
	switch {
	case req.SlippageBps != nil:
		p := domain.SlippagePolicy{Bps: *req.SlippageBps}
		return p.Bps, p.Validate()
	case req.AccountID != "":
		p, err := svc.policies.GetPolicy(ctx, req.AccountID)
		return p.Bps, err
	default:
		return svc.defaultBps, nil
	}
}

type SwapRequest struct {
	AccountID         string
	InputMint         string
	OutputMint        string
	Mode              domain.SwapMode
	Amount            uint64
	SqrtPriceLimitX64 *uint256.Int
}

type SwapResult struct {
	Selection   *domain.RouteSelection
	// SlippageBps is the account policy the envelope was bounded by.
	SlippageBps uint16
	Envelope    *domain.ExecutionEnvelope
	Settlement  *domain.SettlementResult
}

// Swap routes, bounds the chosen quote by the account's slippage policy and
// settles it. Settlement failures come back unchanged and are never retried.
func (svc *Service) Swap(ctx context.Context, req SwapRequest) (*SwapResult, error) {
	start := time.Now()
	res, err := svc.swap(ctx, req)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.SwapDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	return res, err
}

func (svc *Service) swap(ctx context.Context, req SwapRequest) (*SwapResult, error) {
	pol, err := svc.policies.GetPolicy(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	sel, err := svc.route(ctx, router.RouteRequest{
		InputMint:         req.InputMint,
		OutputMint:        req.OutputMint,
		Mode:              req.Mode,
		Amount:            req.Amount,
		SqrtPriceLimitX64: req.SqrtPriceLimitX64,
	})
	if err != nil {
		return nil, err
	}
	env, err := builder.BuildEnvelope(sel, pol, req.SqrtPriceLimitX64)
	if err != nil {
		return nil, err
	}
	settled, err := svc.executor.Execute(ctx, env)
	if err != nil {
		svc.logger.Warn().
			Err(err).
			Str("account", req.AccountID).
			Str("pool", env.PoolID).
			Msg("[aggregator] settlement failed")
		return nil, err
	}
	return &SwapResult{Selection: sel, SlippageBps: pol.Bps, Envelope: env, Settlement: settled}, nil
}

func (svc *Service) route(ctx context.Context, req router.RouteRequest) (*domain.RouteSelection, error) {
	start := time.Now()
	mode := req.Mode.String()
	sel, err := svc.router.RouteFromProvider(ctx, req, svc.provider)
	metrics.RouteDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RouteRequests.WithLabelValues(mode, "error").Inc()
		svc.logger.Debug().Err(err).Str("input", req.InputMint).Str("output", req.OutputMint).Msg("[aggregator] route failed")
		return nil, err
	}
	metrics.RouteRequests.WithLabelValues(mode, "ok").Inc()
	metrics.PriceImpact.WithLabelValues(mode).Observe(float64(sel.Quote.PriceImpactBps))
	metrics.TickArraysCrossed.Observe(float64(len(sel.Quote.CrossedTickArrayStarts)))
	return sel, nil
}

// ListPools returns the pools for a pair, or every pool when both mints are
// empty and the provider can enumerate them.
func (svc *Service) ListPools(ctx context.Context, mintA, mintB string) ([]domain.PoolSnapshot, error) {
	if mintA == "" && mintB == "" {
		if l, ok := findLister(svc.provider); ok {
			return l.Pools(), nil
		}
		return nil, fmt.Errorf("%w: mintA and mintB are required", domain.ErrInvalidAmount)
	}
	if mintA == "" || mintB == "" {
		return nil, fmt.Errorf("%w: mintA and mintB are required", domain.ErrInvalidAmount)
	}
	return svc.provider.ListPoolsForPair(ctx, mintA, mintB)
}

func findLister(p market.SnapshotProvider) (poolLister, bool) {
	for p != nil {
		if l, ok := p.(poolLister); ok {
			return l, true
		}
		w, ok := p.(interface{ Unwrap() market.SnapshotProvider })
		if !ok {
			return nil, false
		}
		p = w.Unwrap()
	}
	return nil, false
}

func (svc *Service) GetPolicy(ctx context.Context, accountID string) (domain.SlippagePolicy, error) {
	return svc.policies.GetPolicy(ctx, accountID)
}

func (svc *Service) SetPolicy(ctx context.Context, accountID string, p domain.SlippagePolicy) error {
	return svc.policies.SetPolicy(ctx, accountID, p)
}

func (svc *Service) GetPool(ctx context.Context, poolID string) (*domain.PoolSnapshot, error) {
	return svc.provider.GetPool(ctx, poolID)
}

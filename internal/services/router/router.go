package router

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hxuan190/clmm-router/internal/domain"
	"github.com/hxuan190/clmm-router/internal/metrics"
	"github.com/hxuan190/clmm-router/internal/services/market"
	"github.com/hxuan190/clmm-router/internal/services/quoter"
)

const (
	DefaultParallelism = 8
	DefaultPoolTimeout = 2 * time.Second
)

// Candidate is one pool and the tick arrays supplied for it.
type Candidate struct {
	Pool       *domain.PoolSnapshot
	TickArrays []domain.TickArray
}

type RouteRequest struct {
	InputMint  string
	OutputMint string
	Mode       domain.SwapMode
	// Amount is the exact input for ExactIn and the desired output for ExactOut.
	Amount uint64
	// SqrtPriceLimitX64 of nil or zero means unbounded.
	SqrtPriceLimitX64 *uint256.Int
}

func (r RouteRequest) Validate() error {
	if r.InputMint == "" || r.OutputMint == "" {
		return fmt.Errorf("%w: input and output mints are required", domain.ErrInvalidAmount)
	}
	if r.InputMint == r.OutputMint {
		return fmt.Errorf("%w: input and output mints are identical", domain.ErrInvalidAmount)
	}
	if r.Amount == 0 {
		return fmt.Errorf("%w: amount is zero", domain.ErrInvalidAmount)
	}
	return nil
}

type Config struct {
	// Parallelism caps concurrent per-pool fetch and simulate tasks.
	Parallelism int
	// PoolTimeout bounds each pool's tick array fetch.
	PoolTimeout time.Duration
}

// Router picks the single best pool for a pair. It keeps no state across requests.
type Router struct {
	cfg Config
}

func NewRouter(cfg Config) *Router {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = DefaultParallelism
	}
	if cfg.PoolTimeout <= 0 {
		cfg.PoolTimeout = DefaultPoolTimeout
	}
	return &Router{cfg: cfg}
}

type evaluation struct {
	pool       *domain.PoolSnapshot
	tickArrays []domain.TickArray
	direction  domain.SwapDirection
	quote      *domain.Quote
	exclusion  *domain.PoolExclusion
}

// Route simulates every eligible candidate and returns the best one. Per-pool
// failures only exclude that pool; ErrNoLiquidityAvailable means none survived.
func (r *Router) Route(ctx context.Context, req RouteRequest, candidates []Candidate) (*domain.RouteSelection, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return r.route(ctx, req, candidates, nil)
}

// RouteFromProvider lists the pair's pools, fetches their tick arrays concurrently
// with a per-pool timeout, then routes across whatever was fetched.
func (r *Router) RouteFromProvider(ctx context.Context, req RouteRequest, provider market.SnapshotProvider) (*domain.RouteSelection, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	pools, err := provider.ListPoolsForPair(ctx, req.InputMint, req.OutputMint)
	if err != nil {
		return nil, fmt.Errorf("list pools for %s/%s: %w", req.InputMint, req.OutputMint, err)
	}

	candidates := make([]Candidate, len(pools))
	fetchErrs := make([]error, len(pools))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Parallelism)
	for i := range pools {
		i := i
		pool := &pools[i]
		candidates[i].Pool = pool
		// Disabled pools are excluded later without spending a fetch on them.
		if !pool.SwapEnabled {
			continue
		}
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, r.cfg.PoolTimeout)
			defer cancel()
			arrays, err := provider.FetchTickArrays(pctx, pool.ID, pool.CurrentTick)
			if err != nil {
				fetchErrs[i] = err
				return nil
			}
			candidates[i].TickArrays = arrays
			return nil
		})
	}
	_ = g.Wait()

	var pre []domain.PoolExclusion
	kept := candidates[:0]
	for i, c := range candidates {
		if fetchErrs[i] != nil {
			pre = append(pre, domain.PoolExclusion{
				PoolID: c.Pool.ID,
				Reason: domain.ExclusionFetchFailed,
				Detail: fetchErrs[i].Error(),
			})
			continue
		}
		kept = append(kept, c)
	}
	return r.route(ctx, req, kept, pre)
}

func (r *Router) route(ctx context.Context, req RouteRequest, candidates []Candidate, pre []domain.PoolExclusion) (*domain.RouteSelection, error) {
	exclusions := append([]domain.PoolExclusion(nil), pre...)
	considered := len(candidates) + len(pre)
	metrics.PoolsEvaluated.Observe(float64(considered))

	evals := make([]evaluation, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if ex := screen(req, c, seen); ex != nil {
			exclusions = append(exclusions, *ex)
			continue
		}
		aToB, _ := c.Pool.Orientation(req.InputMint, req.OutputMint)
		evals = append(evals, evaluation{
			pool:       c.Pool,
			tickArrays: c.TickArrays,
			direction:  domain.SwapDirection{Mode: req.Mode, AToB: aToB},
		})
	}

	// Each task writes only its own slot; nothing is shared until Wait returns.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Parallelism)
	for i := range evals {
		ev := &evals[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				ev.exclusion = &domain.PoolExclusion{PoolID: ev.pool.ID, Reason: domain.ExclusionSimulationFailed, Detail: err.Error()}
				return nil
			}
			q, err := quoter.Simulate(quoter.SimulationInput{
				Pool:              ev.pool,
				TickArrays:        ev.tickArrays,
				Direction:         ev.direction,
				Amount:            req.Amount,
				SqrtPriceLimitX64: req.SqrtPriceLimitX64,
			})
			switch {
			case err != nil:
				ev.exclusion = &domain.PoolExclusion{PoolID: ev.pool.ID, Reason: classify(err), Detail: err.Error()}
			case !q.Complete:
				ev.exclusion = &domain.PoolExclusion{PoolID: ev.pool.ID, Reason: domain.ExclusionIncomplete, Detail: "price limit reached before amount was satisfied"}
			default:
				ev.quote = q
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	survivors := make([]evaluation, 0, len(evals))
	for _, ev := range evals {
		if ev.exclusion != nil {
			exclusions = append(exclusions, *ev.exclusion)
			continue
		}
		survivors = append(survivors, ev)
	}

	sort.SliceStable(exclusions, func(i, j int) bool {
		if exclusions[i].PoolID != exclusions[j].PoolID {
			return exclusions[i].PoolID < exclusions[j].PoolID
		}
		return exclusions[i].Reason < exclusions[j].Reason
	})
	for _, ex := range exclusions {
		metrics.PoolExclusions.WithLabelValues(string(ex.Reason)).Inc()
		log.Debug().
			Str("pool", ex.PoolID).
			Str("reason", string(ex.Reason)).
			Str("err", ex.Detail).
			Msg("[router] pool excluded")
	}

	if len(survivors) == 0 {
		return nil, fmt.Errorf("%w: %d candidates, all excluded", domain.ErrNoLiquidityAvailable, considered)
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return better(req.Mode, survivors[i], survivors[j])
	})

	ranked := make([]string, len(survivors))
	for i, s := range survivors {
		ranked[i] = s.pool.ID
	}
	best := survivors[0]
	return &domain.RouteSelection{
		Pool:                 *best.pool,
		Quote:                *best.quote,
		Direction:            best.direction,
		AmountSpecified:      req.Amount,
		CandidatesConsidered: considered,
		Ranked:               ranked,
		Exclusions:           exclusions,
	}, nil
}

// screen applies the checks that need no simulation. It records seen pool ids so
// the second occurrence of an id is excluded.
func screen(req RouteRequest, c Candidate, seen map[string]struct{}) *domain.PoolExclusion {
	if c.Pool == nil {
		return &domain.PoolExclusion{Reason: domain.ExclusionInvalidSnapshot, Detail: "nil pool"}
	}
	id := c.Pool.ID
	if _, dup := seen[id]; dup {
		return &domain.PoolExclusion{PoolID: id, Reason: domain.ExclusionDuplicate}
	}
	seen[id] = struct{}{}
	if err := c.Pool.Validate(); err != nil {
		return &domain.PoolExclusion{PoolID: id, Reason: domain.ExclusionInvalidSnapshot, Detail: err.Error()}
	}
	if _, ok := c.Pool.Orientation(req.InputMint, req.OutputMint); !ok {
		return &domain.PoolExclusion{PoolID: id, Reason: domain.ExclusionPairMismatch}
	}
	if !c.Pool.SwapEnabled {
		return &domain.PoolExclusion{PoolID: id, Reason: domain.ExclusionSwapDisabled}
	}
	if len(c.TickArrays) == 0 {
		return &domain.PoolExclusion{PoolID: id, Reason: domain.ExclusionMissingTickArrays}
	}
	return nil
}

// better is the total order used for ranking: the economic amount first, then
// the lower fee, then the smaller pool id.
func better(mode domain.SwapMode, a, b evaluation) bool {
	if mode == domain.ExactOut {
		if a.quote.AmountIn != b.quote.AmountIn {
			return a.quote.AmountIn < b.quote.AmountIn
		}
	} else if a.quote.AmountOut != b.quote.AmountOut {
		return a.quote.AmountOut > b.quote.AmountOut
	}
	if a.quote.FeePaid != b.quote.FeePaid {
		return a.quote.FeePaid < b.quote.FeePaid
	}
	return a.pool.ID < b.pool.ID
}

func classify(err error) domain.ExclusionReason {
	switch {
	case errors.Is(err, domain.ErrInsufficientTickData):
		return domain.ExclusionInsufficientTickData
	case errors.Is(err, domain.ErrZeroLiquidity):
		return domain.ExclusionZeroLiquidity
	case errors.Is(err, domain.ErrMathOverflow):
		return domain.ExclusionMathOverflow
	case errors.Is(err, domain.ErrInvalidSnapshot):
		return domain.ExclusionInvalidSnapshot
	default:
		return domain.ExclusionSimulationFailed
	}
}

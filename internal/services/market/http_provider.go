package market

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"

	"github.com/hxuan190/clmm-router/internal/common"
	"github.com/hxuan190/clmm-router/internal/domain"
	"github.com/hxuan190/clmm-router/internal/metrics"
)

const (
	defaultRatePerSecond   = 50
	defaultBreakerFailures = 5
	defaultBreakerTimeout  = 10 * time.Second
	maxResponseBytes       = 8 << 20
)

// ErrUpstream is returned for non-2xx index responses other than 404.
var ErrUpstream = errors.New("snapshot index returned an error")

type HTTPConfig struct {
	BaseURL         string
	APIKey          string
	ArraysPerSide   int
	RatePerSecond   int
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	// Client defaults to a client with a 5s timeout.
	Client *http.Client
}

type poolsResponse struct {
	Pools []PoolDTO `json:"pools"`
}

type tickArraysResponse struct {
	PoolID      string         `json:"poolId"`
	TickSpacing uint16         `json:"tickSpacing"`
	TickArrays  []TickArrayDTO `json:"tickArrays"`
}

// HTTPProvider reads snapshots from a remote pool index. Calls are throttled
// and guarded by a circuit breaker; every response is validated before use.
type HTTPProvider struct {
	base    *url.URL
	apiKey  string
	perSide int
	client  *http.Client
	limiter ratelimit.Limiter
	breaker *gobreaker.CircuitBreaker
	log     *common.ServiceLogger
}

func NewHTTPProvider(cfg HTTPConfig) (*HTTPProvider, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid snapshot index url %q", cfg.BaseURL)
	}
	if cfg.ArraysPerSide <= 0 {
		cfg.ArraysPerSide = DefaultArraysPerSide
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = defaultRatePerSecond
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = defaultBreakerFailures
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = defaultBreakerTimeout
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}

	p := &HTTPProvider{
		base:    base,
		apiKey:  cfg.APIKey,
		perSide: cfg.ArraysPerSide,
		client:  client,
		limiter: ratelimit.New(cfg.RatePerSecond),
	}
	p.log = common.NewServiceLogger(p)

	name := p.ID()
	failures := cfg.BreakerFailures
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Answers about the data are not upstream failures.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, domain.ErrPoolNotFound) ||
				errors.Is(err, domain.ErrInvalidSnapshot) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			p.log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("[market] circuit breaker state changed")
		},
	})
	metrics.BreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))
	return p, nil
}

func (p *HTTPProvider) ID() string {
	return "snapshot-index"
}

func (p *HTTPProvider) ListPoolsForPair(ctx context.Context, mintA, mintB string) ([]domain.PoolSnapshot, error) {
	q := url.Values{"mintA": {mintA}, "mintB": {mintB}}
	var resp poolsResponse
	if err := p.get(ctx, "list_pools", "pools", q, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.PoolSnapshot, 0, len(resp.Pools))
	for i := range resp.Pools {
		pool, err := resp.Pools[i].ToDomain()
		if err != nil {
			// One malformed pool does not hide the others.
			metrics.ProviderErrors.WithLabelValues("http", "list_pools").Inc()
			p.log.Warn().Err(err).Str("pool", resp.Pools[i].ID).Msg("[market] dropping malformed pool")
			continue
		}
		if !pool.HasPair(mintA, mintB) {
			p.log.Warn().Str("pool", pool.ID).Msg("[market] index returned pool for another pair")
			continue
		}
		out = append(out, *pool)
	}
	return out, nil
}

func (p *HTTPProvider) FetchTickArrays(ctx context.Context, poolID string, aroundTick int32) ([]domain.TickArray, error) {
	q := url.Values{
		"aroundTick": {strconv.FormatInt(int64(aroundTick), 10)},
		"perSide":    {strconv.Itoa(p.perSide)},
	}
	var resp tickArraysResponse
	if err := p.get(ctx, "fetch_tick_arrays", "pools/"+url.PathEscape(poolID)+"/tick-arrays", q, &resp); err != nil {
		return nil, err
	}
	if resp.TickSpacing == 0 {
		return nil, fmt.Errorf("%w: pool %s tick arrays without tick spacing", domain.ErrInvalidSnapshot, poolID)
	}
	out := make([]domain.TickArray, 0, len(resp.TickArrays))
	for i := range resp.TickArrays {
		ta, err := resp.TickArrays[i].ToDomain(resp.TickSpacing)
		if err != nil {
			return nil, fmt.Errorf("pool %s: %w", poolID, err)
		}
		out = append(out, ta)
	}
	return out, nil
}

func (p *HTTPProvider) GetPool(ctx context.Context, poolID string) (*domain.PoolSnapshot, error) {
	var dto PoolDTO
	if err := p.get(ctx, "get_pool", "pools/"+url.PathEscape(poolID), nil, &dto); err != nil {
		return nil, err
	}
	return dto.ToDomain()
}

func (p *HTTPProvider) get(ctx context.Context, op, path string, q url.Values, out any) error {
	start := time.Now()
	defer func() {
		metrics.ProviderFetchDuration.WithLabelValues("http", op).Observe(time.Since(start).Seconds())
	}()

	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, p.do(ctx, path, q, out)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrPoolNotFound) {
			metrics.ProviderErrors.WithLabelValues("http", op).Inc()
		}
		return fmt.Errorf("snapshot index %s: %w", op, err)
	}
	return nil
}

func (p *HTTPProvider) do(ctx context.Context, path string, q url.Values, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.limiter.Take()

	u := p.base.JoinPath(path)
	u.RawQuery = q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	res, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return domain.ErrPoolNotFound
	case res.StatusCode < 200 || res.StatusCode > 299:
		return fmt.Errorf("%w: status %d", ErrUpstream, res.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrInvalidSnapshot, err)
	}
	return nil
}

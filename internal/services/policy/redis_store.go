package policy

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/hxuan190/clmm-router/internal/domain"
)

const keyPrefix = "clmm-router:slippage:"

type storedPolicy struct {
	Bps       uint16    `json:"bps"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RedisStore persists policies as JSON values under one key per account.
type RedisStore struct {
	client     *redis.Client
	defaultBps uint16
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisClient(opts RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,

		PoolSize:     10,
		MinIdleConns: 2,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,

		MaxRetries:      3,
		MinRetryBackoff: 100 * time.Millisecond,
		MaxRetryBackoff: 500 * time.Millisecond,
	})
}

func NewRedisStore(client *redis.Client, defaultBps uint16) (*RedisStore, error) {
	if err := (domain.SlippagePolicy{Bps: defaultBps}).Validate(); err != nil {
		return nil, err
	}
	return &RedisStore{client: client, defaultBps: defaultBps}, nil
}

func (s *RedisStore) GetPolicy(ctx context.Context, accountID string) (domain.SlippagePolicy, error) {
	if err := validateAccount(accountID); err != nil {
		return domain.SlippagePolicy{}, err
	}
	raw, err := s.client.Get(ctx, keyPrefix+accountID).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.SlippagePolicy{Bps: s.defaultBps}, nil
	}
	if err != nil {
		return domain.SlippagePolicy{}, fmt.Errorf("get slippage policy %s: %w", accountID, err)
	}
	var sp storedPolicy
	if err := json.Unmarshal(raw, &sp); err != nil {
		return domain.SlippagePolicy{}, fmt.Errorf("decode slippage policy %s: %w", accountID, err)
	}
	p := domain.SlippagePolicy{Bps: sp.Bps}
	// A value written by someone else is still checked before use.
	if err := p.Validate(); err != nil {
		return domain.SlippagePolicy{}, err
	}
	return p, nil
}

func (s *RedisStore) SetPolicy(ctx context.Context, accountID string, p domain.SlippagePolicy) error {
	if err := validateAccount(accountID); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(storedPolicy{Bps: p.Bps, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, keyPrefix+accountID, raw, 0).Err(); err != nil {
		return fmt.Errorf("set slippage policy %s: %w", accountID, err)
	}
	logPolicySet("redis", accountID, p)
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

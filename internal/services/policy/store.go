package policy

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/hxuan190/clmm-router/internal/domain"
	"github.com/hxuan190/clmm-router/internal/metrics"
)

// DefaultSlippageBps applies to accounts that never set a policy.
const DefaultSlippageBps uint16 = 500

// Store holds per-account slippage policies.
type Store interface {
	// GetPolicy returns the stored policy, or the store's default when none exists.
	GetPolicy(ctx context.Context, accountID string) (domain.SlippagePolicy, error)
	// SetPolicy rejects policies wider than domain.MaxSlippageBps.
	SetPolicy(ctx context.Context, accountID string, policy domain.SlippagePolicy) error
}

func validateAccount(accountID string) error {
	if accountID == "" {
		return fmt.Errorf("%w: empty account id", domain.ErrInvalidSlippageConfig)
	}
	return nil
}

func logPolicySet(store, accountID string, p domain.SlippagePolicy) {
	metrics.SlippagePolicyUpdates.Inc()
	log.Info().
		Str("store", store).
		Str("account", accountID).
		Uint16("bps", p.Bps).
		Msg("[policy] slippage set")
}

// MemoryStore keeps policies in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	policies   map[string]domain.SlippagePolicy
	defaultBps uint16
}

func NewMemoryStore(defaultBps uint16) (*MemoryStore, error) {
	if err := (domain.SlippagePolicy{Bps: defaultBps}).Validate(); err != nil {
		return nil, err
	}
	return &MemoryStore{
		policies:   make(map[string]domain.SlippagePolicy),
		defaultBps: defaultBps,
	}, nil
}

func (s *MemoryStore) GetPolicy(_ context.Context, accountID string) (domain.SlippagePolicy, error) {
	if err := validateAccount(accountID); err != nil {
		return domain.SlippagePolicy{}, err
	}
	s.mu.RLock()
	p, ok := s.policies[accountID]
	s.mu.RUnlock()
	if !ok {
		return domain.SlippagePolicy{Bps: s.defaultBps}, nil
	}
	return p, nil
}

func (s *MemoryStore) SetPolicy(_ context.Context, accountID string, p domain.SlippagePolicy) error {
	if err := validateAccount(accountID); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.policies[accountID] = p
	s.mu.Unlock()
	logPolicySet("memory", accountID, p)
	return nil
}

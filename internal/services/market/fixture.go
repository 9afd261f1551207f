package market

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type fixtureFile struct {
	Pools []fixturePool `yaml:"pools"`
}

type fixturePool struct {
	PoolDTO    `yaml:",inline"`
	TickArrays []TickArrayDTO `yaml:"tickArrays"`
}

// FixtureProvider serves pools and tick arrays loaded from a YAML file.
type FixtureProvider struct {
	*Registry
	path string
}

func LoadFixture(path string, arraysPerSide int) (*FixtureProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	reg, err := ParseFixture(data, arraysPerSide)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return &FixtureProvider{Registry: reg, path: path}, nil
}

// ParseFixture builds a registry from fixture YAML. Any malformed pool or tick
// array fails the whole load.
func ParseFixture(data []byte, arraysPerSide int) (*Registry, error) {
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	reg := NewRegistry(arraysPerSide)
	for i := range f.Pools {
		fp := &f.Pools[i]
		pool, err := fp.PoolDTO.ToDomain()
		if err != nil {
			return nil, err
		}
		if reg.pools.view(pool.ID, func(*poolEntry) {}) {
			return nil, fmt.Errorf("duplicate pool id %s", pool.ID)
		}
		for j := range fp.TickArrays {
			ta, err := fp.TickArrays[j].ToDomain(pool.TickSpacing)
			if err != nil {
				return nil, fmt.Errorf("pool %s: %w", pool.ID, err)
			}
			if err := reg.Upsert(*pool, ta); err != nil {
				return nil, err
			}
		}
		if err := reg.Upsert(*pool); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (f *FixtureProvider) Path() string {
	return f.path
}

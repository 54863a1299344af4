package storage

import (
	"sync"

	"github.com/samvad-hq/samvad-report-harvester/internal/domain"
)

// MemoryStore keeps processed ids in memory only. Used for dry runs and tests.
type MemoryStore struct {
	mu  sync.Mutex
	ids domain.ProcessedIDSet
}

// NewMemoryStore returns an empty in-memory store, optionally seeded with ids.
func NewMemoryStore(ids ...string) *MemoryStore {
	set := make(domain.ProcessedIDSet, len(ids))
	for _, id := range ids {
		set.Insert(id)
	}
	return &MemoryStore{ids: set}
}

func (m *MemoryStore) Load() (domain.ProcessedIDSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(domain.ProcessedIDSet, len(m.ids))
	for id := range m.ids {
		out.Insert(id)
	}
	return out, nil
}

func (m *MemoryStore) Contains(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ids.Has(id), nil
}

func (m *MemoryStore) Add(id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids.Insert(id)
	return nil
}

func (m *MemoryStore) IsFirstRun() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ids) == 0, nil
}

func (m *MemoryStore) Close() error { return nil }

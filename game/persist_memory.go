package game

import (
	"context"
	"sync"
)

// MemoryTableStore keeps serialized table states in process memory,
// for tests and single-node development.
type MemoryTableStore struct {
	mu     sync.RWMutex
	tables map[string][]byte
}

func NewMemoryTableStore() *MemoryTableStore {
	return &MemoryTableStore{
		tables: make(map[string][]byte),
	}
}

func (m *MemoryTableStore) Create(ctx context.Context, state *TableState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[state.Table.Code]; ok {
		return ConflictError{"table code exists"}
	}
	return m.save(state)
}

func (m *MemoryTableStore) Load(ctx context.Context, code string) (*TableState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.tables[code]
	if !ok {
		return nil, NotFoundError{"table not found"}
	}
	var state TableState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (m *MemoryTableStore) Save(ctx context.Context, state *TableState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(state)
}

func (m *MemoryTableStore) save(state *TableState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	m.tables[state.Table.Code] = data
	return nil
}

func (m *MemoryTableStore) Remove(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables, code)
	return nil
}

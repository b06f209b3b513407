package paramstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. It backs the CLI's dry-run target and
// stands in for SSM in tests. The zero value is an empty store. Safe for
// concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	params map[string]Parameter
	writes []string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store pre-populated with seed values of type String.
func NewMemoryStore(seed map[string]string) *MemoryStore {
	m := &MemoryStore{params: make(map[string]Parameter, len(seed))}
	for k, v := range seed {
		m.params[k] = Parameter{Value: v, Type: TypeString}
	}
	return m
}

// Get returns the stored parameter or a *NotFoundError.
func (m *MemoryStore) Get(_ context.Context, key string) (Parameter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.params[key]
	if !ok {
		return Parameter{}, &NotFoundError{Key: key}
	}
	return p, nil
}

// Put stores p at key, replacing any previous value.
func (m *MemoryStore) Put(_ context.Context, key string, p Parameter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.Type == "" {
		p.Type = TypeString
	}
	if m.params == nil {
		m.params = make(map[string]Parameter)
	}
	m.params[key] = p
	m.writes = append(m.writes, key)
	return nil
}

// Snapshot returns a copy of all stored values keyed by parameter name.
func (m *MemoryStore) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.params))
	for k, p := range m.params {
		out[k] = p.Value
	}
	return out
}

// Writes returns the keys passed to Put, in call order.
func (m *MemoryStore) Writes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.writes...)
}

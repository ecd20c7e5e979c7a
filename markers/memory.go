package markers

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string, len(allKeys))}
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	if !validKey(key) {
		return ErrUnknownMarker
	}
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	if !validKey(key) {
		return "", false, ErrUnknownMarker
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Clear(_ context.Context, keys ...string) error {
	for _, k := range keys {
		if !validKey(k) {
			return ErrUnknownMarker
		}
	}
	m.mu.Lock()
	for _, k := range keys {
		delete(m.values, k)
	}
	m.mu.Unlock()
	return nil
}

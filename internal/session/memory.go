package session

import (
	"context"
	"sync"
)

type memoryBackend struct {
	mu   sync.Mutex
	vals map[string]string
}

// NewMemory returns a process-local store. Nothing survives a restart.
func NewMemory() *KV {
	return &KV{name: "memory", b: &memoryBackend{vals: make(map[string]string)}}
}

func (m *memoryBackend) get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vals[key]
	return v, ok, nil
}

func (m *memoryBackend) set(_ context.Context, pairs map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range pairs {
		m.vals[k] = v
	}
	return nil
}

func (m *memoryBackend) del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.vals, k)
	}
	return nil
}

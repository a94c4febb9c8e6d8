package store

import "sync"

// Memory is the ephemeral store: it lives exactly as long as the process.
type Memory struct {
	mu sync.RWMutex
	kv map[string]string
}

func NewMemory() *Memory {
	return &Memory{kv: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.kv[key]
	return v, ok
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	m.kv[key] = value
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	delete(m.kv, key)
	m.mu.Unlock()
	return nil
}

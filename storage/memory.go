package storage

import (
	"fmt"
	"sort"
	"sync"
)

// Memory is a map-backed store with an optional byte quota. It stands in for
// the badger namespace when persistence is disabled.
type Memory struct {
	mu       sync.Mutex
	data     map[string][]byte
	used     int
	maxBytes int
}

// NewMemory creates a Memory store. maxBytes <= 0 means unlimited.
func NewMemory(maxBytes int) *Memory {
	return &Memory{
		data:     make(map[string][]byte),
		maxBytes: maxBytes,
	}
}

// Get returns a copy of the value stored under key
func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	val, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), val...), nil
}

// Set stores value under key, failing with ErrNoSpace past the quota
func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.used - len(m.data[key]) + len(value)
	if m.maxBytes > 0 && used > m.maxBytes {
		return fmt.Errorf("set %s: %w (%d of %d bytes)", key, ErrNoSpace, used, m.maxBytes)
	}
	m.data[key] = append([]byte(nil), value...)
	m.used = used
	return nil
}

// Delete removes key
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.used -= len(m.data[key])
	delete(m.data, key)
	return nil
}

// Clear drops every key
func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string][]byte)
	m.used = 0
	return nil
}

// Each calls fn for every key/value in key order
func (m *Memory) Each(fn func(key string, value []byte) error) error {
	m.mu.Lock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	snapshot := make(map[string][]byte, len(m.data))
	for k, v := range m.data {
		snapshot[k] = v
	}
	m.mu.Unlock()

	sort.Strings(keys)
	for _, k := range keys {
		if err := fn(k, snapshot[k]); err != nil {
			return err
		}
	}
	return nil
}

// Used returns the number of bytes currently stored
func (m *Memory) Used() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.used
}

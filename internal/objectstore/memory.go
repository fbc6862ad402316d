package objectstore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// MemoryStore is an in-process object store for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Put stores data under key.
func (m *MemoryStore) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = slices.Clone(data)
}

// Get returns the object stored under key.
func (m *MemoryStore) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	return slices.Clone(data), ok
}

// Keys lists every stored key in sorted order.
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.objects))
}

func (m *MemoryStore) Relocate(ctx context.Context, oldPrefix, newPrefix string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if oldPrefix == newPrefix {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	moved := make(map[string][]byte)
	for key, data := range m.objects {
		if rest, ok := strings.CutPrefix(key, oldPrefix); ok {
			delete(m.objects, key)
			moved[newPrefix+rest] = data
		}
	}
	maps.Copy(m.objects, moved)
	return nil
}

func (m *MemoryStore) Copy(ctx context.Context, srcPrefix, dstPrefix string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copies := make(map[string][]byte)
	for key, data := range m.objects {
		if rest, ok := strings.CutPrefix(key, srcPrefix); ok {
			copies[dstPrefix+rest] = slices.Clone(data)
		}
	}
	maps.Copy(m.objects, copies)
	return nil
}

func (m *MemoryStore) DeleteAll(ctx context.Context, prefix string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if prefix == "" {
		return fmt.Errorf("refusing to delete an empty prefix")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	maps.DeleteFunc(m.objects, func(key string, _ []byte) bool {
		return strings.HasPrefix(key, prefix)
	})
	return nil
}

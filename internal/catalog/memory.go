package catalog

import (
	"context"
	"sync"
)

// MemoryReader is an in-process Reader backed by a map, used as a test
// double and for local development without postgres.
type MemoryReader struct {
	mu       sync.RWMutex
	products map[string]Snapshot
}

func NewMemoryReader(products ...Snapshot) *MemoryReader {
	m := &MemoryReader{products: make(map[string]Snapshot, len(products))}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *MemoryReader) GetProducts(ctx context.Context, ids []string) ([]Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var snapshots []Snapshot
	for _, id := range ids {
		if s, ok := m.products[id]; ok {
			snapshots = append(snapshots, s)
		}
	}
	return snapshots, nil
}

// Put inserts or replaces a snapshot.
func (m *MemoryReader) Put(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[s.ID] = s
}

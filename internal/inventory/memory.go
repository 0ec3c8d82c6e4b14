package inventory

import (
	"context"
	"sync"
)

// MemoryLedger is an in-process Ledger keyed by product id. It ignores the
// Execer: its atomicity comes from the mutex, not a database transaction.
type MemoryLedger struct {
	mu    sync.Mutex
	stock map[string]int
}

func NewMemoryLedger(stock map[string]int) *MemoryLedger {
	m := &MemoryLedger{stock: make(map[string]int, len(stock))}
	for id, qty := range stock {
		m.stock[id] = qty
	}
	return m
}

func (m *MemoryLedger) DecrementIfSufficient(ctx context.Context, _ Execer, productID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.stock[productID]
	if !ok || current < qty {
		return ErrInsufficientStock
	}
	m.stock[productID] = current - qty
	return nil
}

func (m *MemoryLedger) Restock(ctx context.Context, _ Execer, productID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.stock[productID]; !ok {
		return ErrProductNotFound
	}
	m.stock[productID] += qty
	return nil
}

// Stock returns the current quantity for a product.
func (m *MemoryLedger) Stock(productID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stock[productID]
}

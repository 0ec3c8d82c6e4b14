package promo

import (
	"context"
	"sync"
	"time"
)

// MemoryLedger is an in-process Ledger used as a test double. Atomicity
// comes from the mutex; the Execer is ignored.
type MemoryLedger struct {
	mu     sync.Mutex
	nextID uint
	codes  map[string]*PromoCode
}

func NewMemoryLedger(codes ...*PromoCode) *MemoryLedger {
	m := &MemoryLedger{codes: make(map[string]*PromoCode, len(codes))}
	for _, p := range codes {
		cp := *p
		cp.Code = Normalize(cp.Code)
		m.nextID++
		cp.ID = m.nextID
		m.codes[cp.Code] = &cp
	}
	return m
}

func (m *MemoryLedger) Lookup(ctx context.Context, code string) (*PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.codes[Normalize(code)]
	if !ok {
		return nil, ErrCodeNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryLedger) Redeem(ctx context.Context, _ Execer, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.codes[Normalize(code)]
	if !ok || !p.Active {
		return ErrExhausted
	}
	if p.MaxUses != nil && p.UsedCount >= *p.MaxUses {
		return ErrExhausted
	}
	p.UsedCount++
	p.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryLedger) Create(ctx context.Context, p *PromoCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.Code = Normalize(p.Code)
	m.nextID++
	p.ID = m.nextID
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	m.codes[cp.Code] = &cp
	return nil
}

func (m *MemoryLedger) Deactivate(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.codes[Normalize(code)]
	if !ok {
		return ErrCodeNotFound
	}
	p.Active = false
	return nil
}

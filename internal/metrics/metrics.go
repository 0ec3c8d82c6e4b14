package metrics

import (
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// OrderCounters tracks checkout and fulfillment volumes.
type OrderCounters struct {
	Submitted   Counter
	Rejected    Counter
	Transitions Counter
}

func (c *OrderCounters) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"orders_submitted":  c.Submitted.Load(),
		"orders_rejected":   c.Rejected.Load(),
		"order_transitions": c.Transitions.Load(),
	}
}

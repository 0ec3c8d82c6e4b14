package catalog

// Snapshot is a point-in-time view of a product at order time. The core
// never owns or mutates it; price and stock may change concurrently.
type Snapshot struct {
	ID        string
	Name      string
	Price     int64 // minor currency units
	Stock     int
	Published bool
}

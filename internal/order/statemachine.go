package order

// transitions is the full fulfillment lifecycle. DELIVERED, PICKED_UP and
// CANCELLED are terminal: nothing leaves them.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusDelivered, StatusPickedUp, StatusCancelled},
	StatusDelivered: {},
	StatusPickedUp:  {},
	StatusCancelled: {},
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s OrderStatus) bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s OrderStatus) bool {
	targets, ok := transitions[s]
	return ok && len(targets) == 0
}

// AllowedTargets returns the statuses reachable from s in one step.
func AllowedTargets(s OrderStatus) []OrderStatus {
	targets := transitions[s]
	out := make([]OrderStatus, len(targets))
	copy(out, targets)
	return out
}

// CanTransition reports whether from -> to is a legal step.
func CanTransition(from, to OrderStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

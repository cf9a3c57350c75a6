package ladder

import "github.com/driftline/market-surfer/internal/model"

// State is the engine's belief about which orders are currently resting on
// the venue. It is owned solely by the engine loop and replaced wholesale
// at well-defined points, never patched in place.
//
// Every order in the state came from a venue snapshot, so each one has a
// venue-assigned id; speculative orders never enter the state.
type State struct {
	orders []model.Order
}

// NewState builds a state from a snapshot's order set.
func NewState(orders []model.Order) State {
	copied := make([]model.Order, len(orders))
	copy(copied, orders)
	return State{orders: copied}
}

// Len returns the number of orders believed resting.
func (s State) Len() int { return len(s.orders) }

// Orders returns the resting orders in their original snapshot order.
func (s State) Orders() []model.Order { return s.orders }

// IDs returns the set of venue order ids in the state.
func (s State) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(s.orders))
	for _, o := range s.orders {
		ids[o.VenueOrderID] = struct{}{}
	}
	return ids
}

// Filled returns the orders we believe are resting that the remote order
// set no longer reports: ids(local) minus ids(remote), resolved back to
// full orders in local iteration order.
func (s State) Filled(remote []model.Order) []model.Order {
	remoteIDs := make(map[string]struct{}, len(remote))
	for _, o := range remote {
		remoteIDs[o.VenueOrderID] = struct{}{}
	}

	var filled []model.Order
	for _, o := range s.orders {
		if _, ok := remoteIDs[o.VenueOrderID]; !ok {
			filled = append(filled, o)
		}
	}
	return filled
}

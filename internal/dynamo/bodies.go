package dynamo

// Bodies is the live body set. Items are stored contiguously in insertion
// order; every body gets an ID that is never reused within one store.
type Bodies struct {
	items  []Body
	nextID uint64
}

// NewBodies returns an empty store with room for capacity bodies.
func NewBodies(capacity int) *Bodies {
	return &Bodies{items: make([]Body, 0, capacity), nextID: 1}
}

// Add assigns an ID to b, appends it and returns the stored copy.
func (s *Bodies) Add(b Body) Body {
	if s.nextID == 0 {
		s.nextID = 1
	}
	b.ID = s.nextID
	s.nextID++
	s.items = append(s.items, b)
	return b
}

// Len returns the number of live bodies.
func (s *Bodies) Len() int { return len(s.items) }

// At returns a pointer to the i-th body. The pointer is invalidated by Add,
// Replace and Clear.
func (s *Bodies) At(i int) *Body { return &s.items[i] }

// Items exposes the backing slice for in-place integration.
func (s *Bodies) Items() []Body { return s.items }

// Replace swaps the body set for items, keeping the ID sequence.
// Bodies in items with a zero ID are assigned fresh IDs.
func (s *Bodies) Replace(items []Body) {
	if s.nextID == 0 {
		s.nextID = 1
	}
	for i := range items {
		if items[i].ID == 0 {
			items[i].ID = s.nextID
			s.nextID++
		}
	}
	s.items = items
}

// Clear removes every body.
func (s *Bodies) Clear() {
	s.items = s.items[:0]
}

// Snapshot returns deep copies of all bodies.
func (s *Bodies) Snapshot() []Body {
	out := make([]Body, len(s.items))
	for i := range s.items {
		out[i] = s.items[i].Clone()
	}
	return out
}

// Find returns the body with the given ID.
func (s *Bodies) Find(id uint64) (Body, bool) {
	for i := range s.items {
		if s.items[i].ID == id {
			return s.items[i].Clone(), true
		}
	}
	return Body{}, false
}

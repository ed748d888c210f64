package coupon

// mapIDSet implements IDSet using a map for O(1) lookups.
type mapIDSet struct {
	ids map[string]struct{}
}

// NewIDSet creates a set holding the given identifiers.
func NewIDSet(ids ...string) IDSet {
	s := &mapIDSet{
		ids: make(map[string]struct{}, len(ids)),
	}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Contains checks if an identifier exists in the set.
func (s *mapIDSet) Contains(id string) bool {
	_, exists := s.ids[id]
	return exists
}

// Size returns the number of identifiers in the set.
func (s *mapIDSet) Size() int {
	return len(s.ids)
}

// Add adds an identifier to the set.
func (s *mapIDSet) Add(id string) {
	s.ids[id] = struct{}{}
}

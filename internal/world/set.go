package world

import "sort"

// PositionSet is a set of grid positions.
type PositionSet map[Position]struct{}

// Add inserts p.
func (s PositionSet) Add(p Position) {
	s[p] = struct{}{}
}

// Has reports whether p is in the set.
func (s PositionSet) Has(p Position) bool {
	_, ok := s[p]
	return ok
}

// Remove deletes p.
func (s PositionSet) Remove(p Position) {
	delete(s, p)
}

// Sorted returns the members in scan order.
func (s PositionSet) Sorted() []Position {
	out := make([]Position, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index() < out[j].Index() })
	return out
}

// Keys returns the members as sorted "row,col" strings.
func (s PositionSet) Keys() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, p := range sorted {
		out[i] = p.Key()
	}
	return out
}

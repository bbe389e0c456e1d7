package world

import "fmt"

// Grid holds the occupant of every cell.
type Grid struct {
	cells [GridSize][GridSize]Occupant
}

// NewGrid creates an all-empty grid.
func NewGrid() *Grid {
	return &Grid{}
}

// Get returns the occupant at p, or Empty if p is out of bounds.
func (g *Grid) Get(p Position) Occupant {
	if !p.Valid() {
		return Empty
	}
	return g.cells[p.Row][p.Col]
}

// Set places an occupant. Out-of-bounds positions are ignored.
func (g *Grid) Set(p Position, o Occupant) {
	if !p.Valid() {
		return
	}
	g.cells[p.Row][p.Col] = o
}

// IsEmpty returns true if p is valid and holds no occupant.
func (g *Grid) IsEmpty(p Position) bool {
	return p.Valid() && g.cells[p.Row][p.Col] == Empty
}

// Count returns how many cells hold exactly o.
func (g *Grid) Count(o Occupant) int {
	n := 0
	for r := range g.cells {
		for c := range g.cells[r] {
			if g.cells[r][c] == o {
				n++
			}
		}
	}
	return n
}

// Each calls fn for every cell in scan order.
func (g *Grid) Each(fn func(p Position, o Occupant)) {
	for r := range g.cells {
		for c := range g.cells[r] {
			fn(Position{Row: r, Col: c}, g.cells[r][c])
		}
	}
}

// Codes returns the grid as rows of occupant codes.
func (g *Grid) Codes() [][]string {
	out := make([][]string, GridSize)
	for r := range g.cells {
		out[r] = make([]string, GridSize)
		for c := range g.cells[r] {
			out[r][c] = g.cells[r][c].Code()
		}
	}
	return out
}

// GridFromCodes rebuilds a grid from rows of codes. Unknown codes and
// missing rows/cells become Empty; the second return counts them.
func GridFromCodes(rows [][]string) (*Grid, int) {
	g := NewGrid()
	bad := 0
	for r := 0; r < GridSize; r++ {
		if r >= len(rows) {
			continue
		}
		for c := 0; c < GridSize && c < len(rows[r]); c++ {
			o, ok := ParseOccupant(rows[r][c])
			if !ok {
				bad++
				continue
			}
			g.cells[r][c] = o
		}
	}
	return g, bad
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(size=%d, empty=%d)", GridSize, g.Count(Empty))
}

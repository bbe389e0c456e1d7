// Package world provides the city grid, cell occupants, and spatial helpers.
// The grid is a fixed GridSize×GridSize square addressed by (row, col).
package world

import (
	"fmt"
	"strconv"
	"strings"
)

// GridSize is the side length of the city grid.
const GridSize = 5

// Position addresses a single grid cell.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Pos is shorthand for Position{Row: row, Col: col}.
func Pos(row, col int) Position {
	return Position{Row: row, Col: col}
}

// Valid reports whether both components lie in [0, GridSize).
func (p Position) Valid() bool {
	return p.Row >= 0 && p.Row < GridSize && p.Col >= 0 && p.Col < GridSize
}

// Index packs the position into row*GridSize+col.
func (p Position) Index() int {
	return p.Row*GridSize + p.Col
}

// FromIndex is the inverse of Index.
func FromIndex(i int) Position {
	return Position{Row: i / GridSize, Col: i % GridSize}
}

// Key returns the "row,col" form used at the serialization boundary.
func (p Position) Key() string {
	return strconv.Itoa(p.Row) + "," + strconv.Itoa(p.Col)
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d)", p.Row, p.Col)
}

// ParseKey parses a "row,col" key. Whitespace around either number is ignored.
func ParseKey(key string) (Position, error) {
	rs, cs, ok := strings.Cut(key, ",")
	if !ok {
		return Position{}, fmt.Errorf("position key %q: missing comma", key)
	}
	row, err := strconv.Atoi(strings.TrimSpace(rs))
	if err != nil {
		return Position{}, fmt.Errorf("position key %q: %w", key, err)
	}
	col, err := strconv.Atoi(strings.TrimSpace(cs))
	if err != nil {
		return Position{}, fmt.Errorf("position key %q: %w", key, err)
	}
	return Position{Row: row, Col: col}, nil
}

// Direction is one of the four axis-aligned neighbor directions.
type Direction uint8

const (
	North Direction = iota
	East
	South
	West
)

// Directions lists the four neighbor offsets in N, E, S, W order.
var Directions = [4]Position{
	{Row: -1, Col: 0},
	{Row: 0, Col: 1},
	{Row: 1, Col: 0},
	{Row: 0, Col: -1},
}

// Step returns the neighbor in the given direction (possibly off-grid).
func (p Position) Step(d Direction) Position {
	off := Directions[d]
	return Position{Row: p.Row + off.Row, Col: p.Col + off.Col}
}

// Neighbors returns the in-grid axis neighbors in N, E, S, W order.
func (p Position) Neighbors() []Position {
	out := make([]Position, 0, 4)
	for d := North; d <= West; d++ {
		if n := p.Step(d); n.Valid() {
			out = append(out, n)
		}
	}
	return out
}

// Distance returns the Manhattan distance between two positions.
func Distance(a, b Position) int {
	return abs(a.Row-b.Row) + abs(a.Col-b.Col)
}

// All returns every grid position in scan order (row-major).
func All() []Position {
	out := make([]Position, 0, GridSize*GridSize)
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			out = append(out, Position{Row: r, Col: c})
		}
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

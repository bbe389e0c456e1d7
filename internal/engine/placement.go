package engine

import (
	"errors"
	"log/slog"

	"github.com/talgya/gridcity/internal/economy"
	"github.com/talgya/gridcity/internal/world"
)

// Placement failures. Callers distinguish them with errors.Is.
var (
	ErrInvalidPosition   = errors.New("invalid position")
	ErrUnknownKind       = errors.New("unknown kind")
	ErrOccupied          = errors.New("cell occupied")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrEmptyCell         = errors.New("cell already empty")
)

// Zone assigns a zone kind (R/C/I/P) to an empty cell and pays for it.
func (c *City) Zone(p world.Position, kind world.Occupant) error {
	if !p.Valid() {
		return ErrInvalidPosition
	}
	if !economy.IsZoneKind(kind) {
		return ErrUnknownKind
	}
	if !c.Grid.IsEmpty(p) {
		return ErrOccupied
	}
	if !c.Ledger.Debit(economy.Cost(kind)) {
		return ErrInsufficientFunds
	}

	c.setZone(p, kind)
	slog.Debug("zoned cell", "pos", p, "kind", kind.Name(), "money", c.Ledger.Money)
	c.checkAchievements()
	return nil
}

// ZoneBlock zones the 2×2 block whose top-left corner is topLeft, at four
// times the single-cell cost. All four cells must be valid and empty.
func (c *City) ZoneBlock(topLeft world.Position, kind world.Occupant) error {
	block := [4]world.Position{
		topLeft,
		topLeft.Step(world.East),
		topLeft.Step(world.South),
		topLeft.Step(world.South).Step(world.East),
	}
	for _, p := range block {
		if !p.Valid() {
			return ErrInvalidPosition
		}
	}
	if !economy.IsZoneKind(kind) {
		return ErrUnknownKind
	}
	for _, p := range block {
		if !c.Grid.IsEmpty(p) {
			return ErrOccupied
		}
	}
	if !c.CanAffordBlock(kind) {
		return ErrInsufficientFunds
	}
	c.Ledger.Debit(economy.Cost(kind) * 4)

	for _, p := range block {
		c.setZone(p, kind)
	}
	slog.Debug("zoned block", "top_left", topLeft, "kind", kind.Name(), "money", c.Ledger.Money)
	c.checkAchievements()
	return nil
}

func (c *City) setZone(p world.Position, kind world.Occupant) {
	c.Grid.Set(p, kind)
	if kind.IsDevelopable() {
		c.BuildingStates[p] = ZonedEmpty
	}
}

// Build places a facility, a road, or a power line on an empty cell.
// Any road variant is accepted as the road kind; the stored variant is
// always derived from the neighbors.
func (c *City) Build(p world.Position, kind world.Occupant) error {
	if kind.IsRoad() {
		kind = world.RoadNone
	}
	if !p.Valid() {
		return ErrInvalidPosition
	}
	if !economy.IsBuildKind(kind) {
		return ErrUnknownKind
	}
	if !c.Grid.IsEmpty(p) {
		return ErrOccupied
	}
	if !c.Ledger.Debit(economy.Cost(kind)) {
		return ErrInsufficientFunds
	}

	c.Grid.Set(p, kind)
	switch kind {
	case world.RoadNone:
		c.Roads.Add(p)
		c.autotileRoads()
		c.applyPower()
	case world.PowerLine:
		c.PowerLines.Add(p)
		c.applyPower()
	}

	slog.Debug("built structure", "pos", p, "kind", kind.Name(), "money", c.Ledger.Money)
	c.checkAchievements()
	return nil
}

// Clear empties an occupied cell. Construction costs are not refunded.
func (c *City) Clear(p world.Position) error {
	if !p.Valid() {
		return ErrInvalidPosition
	}
	if c.Grid.IsEmpty(p) {
		return ErrEmptyCell
	}
	wasRoad := c.Grid.Get(p).IsRoad()
	c.removeCell(p)
	if wasRoad {
		c.autotileRoads()
	}
	slog.Debug("cleared cell", "pos", p)
	return nil
}

// removeCell drops the occupant and every per-cell entry tied to it.
// Callers re-autotile when a road was removed.
func (c *City) removeCell(p world.Position) {
	c.Grid.Set(p, world.Empty)
	delete(c.BuildingStates, p)
	delete(c.Desirability, p)
	delete(c.Traffic, p)
	c.Roads.Remove(p)
	c.PowerLines.Remove(p)
}

package engine

import (
	"github.com/talgya/gridcity/internal/economy"
	"github.com/talgya/gridcity/internal/world"
)

// BuildingState is the lifecycle stage of a zoned R/C/I cell.
type BuildingState uint8

const (
	ZonedEmpty BuildingState = iota
	ZonedDeveloping
	ZonedOperating
	ZonedAbandoned
)

var buildingStateNames = [...]string{
	ZonedEmpty:      "zoned_empty",
	ZonedDeveloping: "zoned_developing",
	ZonedOperating:  "zoned_operating",
	ZonedAbandoned:  "zoned_abandoned",
}

func (s BuildingState) String() string {
	if int(s) < len(buildingStateNames) {
		return buildingStateNames[s]
	}
	return "unknown"
}

// ParseBuildingState is the inverse of String.
func ParseBuildingState(name string) (BuildingState, bool) {
	for i, n := range buildingStateNames {
		if n == name {
			return BuildingState(i), true
		}
	}
	return ZonedEmpty, false
}

// Lifecycle thresholds on the desirability score.
const (
	AbandonBelow   = 30
	DevelopAtLeast = 60
)

// ScoreDesirability scores how attractive p is, in [0, 100].
//
// Nearby parks, schools, hospitals and power plants add a bonus that fades
// with Manhattan distance; industry repels housing. Being a road or power
// line cell is itself a bonus (membership, not access). Traffic on the cell
// counts against it.
func (c *City) ScoreDesirability(p world.Position) int {
	score := 50
	self := c.Grid.Get(p)

	c.Grid.Each(func(q world.Position, o world.Occupant) {
		d := world.Distance(p, q)
		if d == 0 {
			return
		}
		switch o {
		case world.Park:
			score += max(0, 20-5*d)
		case world.School:
			score += max(0, 15-3*d)
		case world.Hospital:
			score += max(0, 10-2*d)
		case world.PowerPlant:
			score += max(0, 5-d)
		case world.Industrial:
			if self == world.Residential {
				score -= max(0, 10-2*d)
			}
		}
	})

	if c.Roads.Has(p) {
		score += 10
	}
	if c.PowerLines.Has(p) {
		score += 15
	}
	score -= 2 * c.Traffic[p]

	return economy.ClampPercent(score)
}

// updateBuildings rescores every zoned R/C/I cell and advances its state
// machine by at most one step.
func (c *City) updateBuildings() {
	c.Grid.Each(func(p world.Position, o world.Occupant) {
		if !o.IsDevelopable() {
			return
		}
		score := c.ScoreDesirability(p)
		c.Desirability[p] = score
		c.BuildingStates[p] = c.nextState(p, score)
	})
}

func (c *City) nextState(p world.Position, score int) BuildingState {
	state := c.stateAt(p)
	if score < AbandonBelow {
		return ZonedAbandoned
	}
	// Nothing brings a cell back from abandonment here; only clearing does.
	if state == ZonedAbandoned {
		return state
	}

	road := c.HasRoadAccess(p)
	power := c.IsPowered(p)
	switch {
	case road && power && score >= DevelopAtLeast:
		switch state {
		case ZonedEmpty:
			return ZonedDeveloping
		case ZonedDeveloping:
			return ZonedOperating
		}
	case !road || !power:
		return ZonedEmpty
	}
	return state
}

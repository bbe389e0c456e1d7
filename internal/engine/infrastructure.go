package engine

import (
	"github.com/talgya/gridcity/internal/world"
)

// Neighbor-presence bits for road autotiling.
const (
	maskNorth uint8 = 1 << iota
	maskEast
	maskSouth
	maskWest
)

// roadVariants maps a neighbor bitmask to its autotile variant.
var roadVariants = [16]world.Occupant{
	0:                                           world.RoadNone,
	maskNorth:                                   world.RoadVertical,
	maskSouth:                                   world.RoadVertical,
	maskNorth | maskSouth:                       world.RoadVertical,
	maskEast:                                    world.RoadHorizontal,
	maskWest:                                    world.RoadHorizontal,
	maskEast | maskWest:                         world.RoadHorizontal,
	maskNorth | maskEast:                        world.RoadCornerNE,
	maskNorth | maskWest:                        world.RoadCornerNW,
	maskSouth | maskEast:                        world.RoadCornerSE,
	maskSouth | maskWest:                        world.RoadCornerSW,
	maskEast | maskSouth | maskWest:             world.RoadTeeNorth,
	maskNorth | maskSouth | maskWest:            world.RoadTeeEast,
	maskNorth | maskEast | maskWest:             world.RoadTeeSouth,
	maskNorth | maskEast | maskSouth:            world.RoadTeeWest,
	maskNorth | maskEast | maskSouth | maskWest: world.RoadCross,
}

// RoadVariant returns the autotile variant for a neighbor bitmask
// (bit 0 north, 1 east, 2 south, 3 west).
func RoadVariant(mask uint8) world.Occupant {
	return roadVariants[mask&0x0f]
}

// roadMask returns which axis neighbors of p are in the road network.
func roadMask(roads world.PositionSet, p world.Position) uint8 {
	var mask uint8
	for d := world.North; d <= world.West; d++ {
		if roads.Has(p.Step(d)) {
			mask |= 1 << d
		}
	}
	return mask
}

// autotileRoads re-derives the stored variant of every road cell.
func (c *City) autotileRoads() {
	for p := range c.Roads {
		c.Grid.Set(p, RoadVariant(roadMask(c.Roads, p)))
	}
}

// computePowered runs a breadth-first search from every power plant.
// Power travels through power lines and R/C/I zones only.
func (c *City) computePowered() world.PositionSet {
	powered := make(world.PositionSet)
	var queue []world.Position

	c.Grid.Each(func(p world.Position, o world.Occupant) {
		if o == world.PowerPlant {
			powered.Add(p)
			queue = append(queue, p)
		}
	})

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range cur.Neighbors() {
			if powered.Has(n) {
				continue
			}
			o := c.Grid.Get(n)
			if o != world.PowerLine && !o.IsDevelopable() {
				continue
			}
			powered.Add(n)
			queue = append(queue, n)
		}
	}
	return powered
}

// applyPower recomputes the powered set and applies its hard dependency:
// powered empty lots start developing, unpowered lots fall back to empty
// whatever their state.
func (c *City) applyPower() {
	c.powered = c.computePowered()
	c.Grid.Each(func(p world.Position, o world.Occupant) {
		if !o.IsDevelopable() {
			return
		}
		if !c.powered.Has(p) {
			c.BuildingStates[p] = ZonedEmpty
			return
		}
		if c.stateAt(p) == ZonedEmpty {
			c.BuildingStates[p] = ZonedDeveloping
		}
	})
}

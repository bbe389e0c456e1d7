package engine

import (
	"github.com/talgya/gridcity/internal/world"
)

// recomputeTraffic rebuilds the traffic map from scratch.
//
// Each operating residence commutes to its nearest operating workplace along
// a synthetic path (columns first, then rows). Every road cell the path lands
// on gains one unit of traffic. This approximates commute load; it does not
// route over the real road graph.
func (c *City) recomputeTraffic() {
	c.Traffic = make(map[world.Position]int)

	var homes, jobs []world.Position
	c.Grid.Each(func(p world.Position, o world.Occupant) {
		if !o.IsDevelopable() || c.stateAt(p) != ZonedOperating {
			return
		}
		if o == world.Residential {
			homes = append(homes, p)
		} else {
			jobs = append(jobs, p)
		}
	})
	if len(jobs) == 0 {
		return
	}

	for _, home := range homes {
		work := nearest(home, jobs)
		c.walkCommute(home, work)
	}
}

// nearest returns the candidate closest to from; the first in scan order
// wins ties.
func nearest(from world.Position, candidates []world.Position) world.Position {
	best := candidates[0]
	bestDist := world.Distance(from, best)
	for _, p := range candidates[1:] {
		if d := world.Distance(from, p); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best
}

func (c *City) walkCommute(from, to world.Position) {
	cur := from
	for cur.Col != to.Col {
		cur.Col += sign(to.Col - cur.Col)
		c.countTraffic(cur)
	}
	for cur.Row != to.Row {
		cur.Row += sign(to.Row - cur.Row)
		c.countTraffic(cur)
	}
}

func (c *City) countTraffic(p world.Position) {
	if c.Roads.Has(p) {
		c.Traffic[p]++
	}
}

func sign(v int) int {
	if v < 0 {
		return -1
	}
	return 1
}

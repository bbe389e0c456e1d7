package engine

import (
	"testing"

	"github.com/talgya/gridcity/internal/world"
)

// favorableHome lays out a residential cell at (2,2) with a road beside it,
// a power plant above it and a park below it: desirability 69.
func favorableHome(t *testing.T) (*City, world.Position) {
	t.Helper()
	c := newTestCity(t)
	home := world.Pos(2, 2)
	mustPlace(t, c, home, world.Residential)
	mustPlace(t, c, world.Pos(1, 2), world.PowerPlant)
	mustPlace(t, c, world.Pos(3, 2), world.Park)
	mustPlace(t, c, world.Pos(2, 3), world.RoadNone)
	return c, home
}

func TestScoreDesirability(t *testing.T) {
	c, home := favorableHome(t)
	if got := c.ScoreDesirability(home); got != 69 {
		t.Fatalf("desirability = %d, want 69", got)
	}

	// The road cell itself: +10 for being a road, plant at d=2 +3,
	// park at d=2 +10.
	if got := c.ScoreDesirability(world.Pos(2, 3)); got != 73 {
		t.Fatalf("road cell desirability = %d, want 73", got)
	}

	c.Traffic[world.Pos(2, 3)] = 5
	if got := c.ScoreDesirability(world.Pos(2, 3)); got != 63 {
		t.Fatalf("road cell with traffic = %d, want 63", got)
	}
}

func TestIndustryOnlyRepelsHousing(t *testing.T) {
	c := newTestCity(t)
	mustPlace(t, c, world.Pos(0, 0), world.Residential)
	mustPlace(t, c, world.Pos(0, 2), world.Commercial)
	mustPlace(t, c, world.Pos(0, 1), world.Industrial)

	if got := c.ScoreDesirability(world.Pos(0, 0)); got != 42 {
		t.Fatalf("residential next to industry = %d, want 42", got)
	}
	if got := c.ScoreDesirability(world.Pos(0, 2)); got != 50 {
		t.Fatalf("commercial next to industry = %d, want 50", got)
	}
}

func TestPowerLineMembershipScoresDifferentlyFromAccess(t *testing.T) {
	c := newTestCity(t)
	mustPlace(t, c, world.Pos(4, 0), world.PowerLine)
	if got := c.ScoreDesirability(world.Pos(4, 0)); got != 65 {
		t.Fatalf("power line cell = %d, want 65", got)
	}
}

func TestLifecycleReachesOperatingWithinTwoDays(t *testing.T) {
	c, home := favorableHome(t)
	c.BuildingStates[home] = ZonedEmpty

	days := 0
	for ; days < 2; days++ {
		c.Step()
		if s, _ := c.StateAt(home); s == ZonedOperating {
			break
		}
	}
	if s, _ := c.StateAt(home); s != ZonedOperating {
		t.Fatalf("state after %d days = %s, want zoned_operating", days, s)
	}

	for range 30 {
		c.Step()
		if s, _ := c.StateAt(home); s != ZonedOperating {
			t.Fatalf("operating home regressed to %s under constant conditions", s)
		}
	}
}

func TestLifecycleStepsOneStateAtATime(t *testing.T) {
	c, home := favorableHome(t)
	c.powered = c.computePowered()

	c.BuildingStates[home] = ZonedEmpty
	c.updateBuildings()
	if s := c.stateAt(home); s != ZonedDeveloping {
		t.Fatalf("empty -> %s, want zoned_developing", s)
	}
	c.updateBuildings()
	if s := c.stateAt(home); s != ZonedOperating {
		t.Fatalf("developing -> %s, want zoned_operating", s)
	}
}

func TestMissingRoadForcesEmpty(t *testing.T) {
	c, home := favorableHome(t)
	c.BuildingStates[home] = ZonedOperating
	if err := c.Clear(world.Pos(2, 3)); err != nil {
		t.Fatalf("clear road: %v", err)
	}
	c.Step()
	if s := c.stateAt(home); s != ZonedEmpty {
		t.Fatalf("state without road = %s, want zoned_empty", s)
	}
}

// Abandonment has no way back through the lifecycle. A recovered score
// leaves an abandoned cell abandoned; only clearing it resets it.
func TestAbandonedStaysAbandoned(t *testing.T) {
	c := newTestCity(t)
	home := world.Pos(2, 2)
	mustPlace(t, c, home, world.Residential)
	factories := []world.Position{world.Pos(2, 1), world.Pos(3, 2), world.Pos(2, 3), world.Pos(3, 1)}
	for _, p := range factories {
		mustPlace(t, c, p, world.Industrial)
	}
	mustPlace(t, c, world.Pos(1, 2), world.PowerPlant)

	c.Step()
	if s := c.stateAt(home); s != ZonedAbandoned {
		t.Fatalf("state at desirability %d = %s, want zoned_abandoned", c.Desirability[home], s)
	}

	for _, p := range factories {
		if err := c.Clear(p); err != nil {
			t.Fatalf("clear %v: %v", p, err)
		}
	}
	mustPlace(t, c, world.Pos(3, 2), world.Park)
	mustPlace(t, c, world.Pos(2, 3), world.RoadNone)

	for range 5 {
		c.Step()
	}
	if c.Desirability[home] < DevelopAtLeast {
		t.Fatalf("desirability = %d, expected it to recover", c.Desirability[home])
	}
	if !c.IsPowered(home) || !c.HasRoadAccess(home) {
		t.Fatalf("home lost road or power")
	}
	if s := c.stateAt(home); s != ZonedAbandoned {
		t.Fatalf("recovered home = %s, want it to stay zoned_abandoned", s)
	}

	if err := c.Clear(home); err != nil {
		t.Fatalf("clear home: %v", err)
	}
	mustPlace(t, c, home, world.Residential)
	if s := c.stateAt(home); s != ZonedEmpty {
		t.Fatalf("rezoned home = %s, want zoned_empty", s)
	}
}

func TestLowDesirabilityAbandonsEvenWithoutPower(t *testing.T) {
	c := newTestCity(t)
	home := world.Pos(2, 2)
	mustPlace(t, c, home, world.Residential)
	for _, n := range home.Neighbors() {
		mustPlace(t, c, n, world.Industrial)
	}
	c.Step()
	if s := c.stateAt(home); s != ZonedAbandoned {
		t.Fatalf("state = %s, want zoned_abandoned", s)
	}
	if c.Desirability[home] != 18 {
		t.Fatalf("desirability = %d, want 18", c.Desirability[home])
	}
}

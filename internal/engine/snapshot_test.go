package engine

import (
	"encoding/json"
	"testing"

	"github.com/talgya/gridcity/internal/economy"
	"github.com/talgya/gridcity/internal/world"
)

// busyCity exercises every part of the state a record carries.
func busyCity(t *testing.T) *City {
	t.Helper()
	c := NewCity(Config{Seed: 1234, EventChance: 1, Name: "Round Trip"})
	c, _ = favorableHomeOn(t, c)
	mustPlace(t, c, world.Pos(0, 0), world.Commercial)
	mustPlace(t, c, world.Pos(0, 1), world.PowerLine)
	mustPlace(t, c, world.Pos(4, 0), world.Industrial)
	c.SetTaxRate(0.12)
	c.Advance()
	c.Advance()
	if err := c.TriggerDisaster(DisasterFire, world.Pos(4, 4)); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	return c
}

func favorableHomeOn(t *testing.T, c *City) (*City, world.Position) {
	t.Helper()
	home := world.Pos(2, 2)
	mustPlace(t, c, home, world.Residential)
	mustPlace(t, c, world.Pos(1, 2), world.PowerPlant)
	mustPlace(t, c, world.Pos(3, 2), world.Park)
	mustPlace(t, c, world.Pos(2, 3), world.RoadNone)
	return c, home
}

// continueBoth applies the same operations to both cities. Failures are
// compared rather than fatal since random disasters may have cleared cells.
func continueBoth(t *testing.T, a, b *City) {
	t.Helper()
	run := func(c *City) []string {
		var errs []string
		note := func(err error) {
			if err != nil {
				errs = append(errs, err.Error())
			}
		}
		c.Step()
		c.Advance()
		c.TriggerRandomEvent()
		note(c.Clear(world.Pos(0, 1)))
		note(c.Zone(world.Pos(0, 3), world.Residential))
		c.Advance()
		return errs
	}
	if ea, eb := run(a), run(b); mustJSON(t, ea) != mustJSON(t, eb) {
		t.Fatalf("operations failed differently: %v vs %v", ea, eb)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	original := busyCity(t)
	restored := Restore(original.Snapshot())

	if got, want := mustJSON(t, restored.Snapshot()), mustJSON(t, original.Snapshot()); got != want {
		t.Fatalf("restored snapshot differs\n got: %s\nwant: %s", got, want)
	}

	continueBoth(t, original, restored)
	if got, want := mustJSON(t, restored.Snapshot()), mustJSON(t, original.Snapshot()); got != want {
		t.Fatalf("restored city diverged\n got: %s\nwant: %s", got, want)
	}
}

func TestSnapshotRoundTripThroughJSON(t *testing.T) {
	original := busyCity(t)

	b, err := json.Marshal(original.Snapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	restored := Restore(rec)

	for _, p := range world.All() {
		if restored.OccupantAt(p) != original.OccupantAt(p) {
			t.Fatalf("occupant at %v: %s != %s", p, restored.OccupantAt(p).Code(), original.OccupantAt(p).Code())
		}
		if restored.IsPowered(p) != original.IsPowered(p) {
			t.Fatalf("power at %v differs", p)
		}
	}
	if restored.Seed() != original.Seed() || restored.ID != original.ID {
		t.Fatalf("identity lost: seed %d/%d id %s/%s", restored.Seed(), original.Seed(), restored.ID, original.ID)
	}

	continueBoth(t, original, restored)
	if got, want := mustJSON(t, restored.Snapshot()), mustJSON(t, original.Snapshot()); got != want {
		t.Fatalf("restored city diverged\n got: %s\nwant: %s", got, want)
	}
}

func TestSnapshotUsesCoordinateKeys(t *testing.T) {
	c, _ := favorableHome(t)
	rec := c.Snapshot()

	states, ok := rec["building_states"].(map[string]string)
	if !ok {
		t.Fatalf("building_states has type %T", rec["building_states"])
	}
	if states["2,2"] != ZonedDeveloping.String() {
		t.Fatalf("building_states = %v", states)
	}
	roads, ok := rec["road_network"].([]string)
	if !ok || len(roads) != 1 || roads[0] != "2,3" {
		t.Fatalf("road_network = %v", rec["road_network"])
	}
}

func TestRestoreEmptyRecordUsesDefaults(t *testing.T) {
	c := Restore(Record{})
	if c.Year != DefaultYear || c.Population != 0 || c.Happiness != economy.BaseHappiness {
		t.Fatalf("year/pop/happiness = %d/%d/%d", c.Year, c.Population, c.Happiness)
	}
	if c.Ledger.Money != economy.DefaultMoney || c.Ledger.TaxRate != economy.DefaultTaxRate {
		t.Fatalf("money/tax = %v/%v", c.Ledger.Money, c.Ledger.TaxRate)
	}
	if c.Grid.Count(world.Empty) != world.GridSize*world.GridSize {
		t.Fatalf("grid not empty")
	}
	if c.EventChance() != DefaultEventChance {
		t.Fatalf("event chance = %v", c.EventChance())
	}
}

func TestRestoreMalformedFieldsFallBack(t *testing.T) {
	c := Restore(Record{
		"grid":            [][]string{{"R", "Castle"}},
		"current_year":    -4,
		"money":           "lots",
		"tax_rate":        3.0,
		"happiness":       250,
		"population":      120,
		"rng_state":       "not base64",
		"building_states": map[string]any{"9,9": "zoned_operating", "x": "zoned_empty"},
		"achievements":    []any{"wealthy", "not_a_thing"},
		"active_disasters": []any{
			map[string]any{"kind": "fire", "origin": "1,1", "remaining": 2},
			map[string]any{"kind": "meteor", "origin": "1,1", "remaining": 2},
			map[string]any{"kind": "fire", "origin": "7,7", "remaining": 2},
		},
		"live_events": []any{
			map[string]any{"name": "Boom", "multiplier": 1.2, "remaining": 3},
			map[string]any{"name": "Stale", "multiplier": 1.2, "remaining": 0},
		},
	})

	if c.Grid.Count(world.Empty) != world.GridSize*world.GridSize {
		t.Fatalf("malformed grid was partially restored")
	}
	if c.Year != DefaultYear || c.Ledger.Money != economy.DefaultMoney || c.Ledger.TaxRate != economy.DefaultTaxRate {
		t.Fatalf("year/money/tax = %d/%v/%v", c.Year, c.Ledger.Money, c.Ledger.TaxRate)
	}
	if c.Happiness != economy.BaseHappiness {
		t.Fatalf("happiness = %d, want default", c.Happiness)
	}
	if c.Population != 120 {
		t.Fatalf("population = %d, want 120", c.Population)
	}
	if len(c.BuildingStates) != 0 {
		t.Fatalf("building states for cells without zones: %v", c.BuildingStates)
	}
	if !c.Unlocked["wealthy"] || len(c.Unlocked) != 1 {
		t.Fatalf("unlocked = %v", c.Unlocked)
	}
	if len(c.Disasters) != 1 || c.Disasters[0].Origin != world.Pos(1, 1) {
		t.Fatalf("disasters = %+v", c.Disasters)
	}
	if len(c.LiveEvents) != 1 || c.LiveEvents[0].Name != "Boom" {
		t.Fatalf("live events = %+v", c.LiveEvents)
	}
}

func TestRestoreRederivesNetworksFromGrid(t *testing.T) {
	rows := [][]string{
		{"Power", "PowerLine", "R", "", ""},
		{"", "", "Road", "Road", ""},
		{"", "", "", "", ""},
		{"", "", "", "", ""},
		{"", "", "", "", ""},
	}
	c := Restore(Record{
		"grid":          rows,
		"road_network":  []string{"4,4"},
		"power_network": []string{},
	})

	if !c.Roads.Has(world.Pos(1, 2)) || !c.Roads.Has(world.Pos(1, 3)) || c.Roads.Has(world.Pos(4, 4)) {
		t.Fatalf("roads = %v", c.Roads.Keys())
	}
	if !c.PowerLines.Has(world.Pos(0, 1)) {
		t.Fatalf("power lines = %v", c.PowerLines.Keys())
	}
	if c.OccupantAt(world.Pos(1, 2)) != world.RoadHorizontal {
		t.Fatalf("road not re-autotiled: %s", c.OccupantAt(world.Pos(1, 2)).Code())
	}
	if !c.IsPowered(world.Pos(0, 2)) {
		t.Fatalf("power not recomputed when the record omits it")
	}
	if s, ok := c.StateAt(world.Pos(0, 2)); !ok || s != ZonedEmpty {
		t.Fatalf("state = %v, %v", s, ok)
	}
}

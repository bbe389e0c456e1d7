package engine

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/talgya/gridcity/internal/economy"
	"github.com/talgya/gridcity/internal/world"
)

func quietCity(t *testing.T) *City {
	t.Helper()
	return NewCity(Config{Seed: 42, EventChance: 0})
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestAdvancePopulationAndHappiness(t *testing.T) {
	tests := []struct {
		name        string
		residential []world.Position
		commercial  []world.Position
		wantPop     int
	}{
		{"empty city", nil, nil, 0},
		{"housing without jobs", []world.Position{world.Pos(0, 0), world.Pos(0, 1)}, nil, 50},
		{"jobs cap housing", []world.Position{world.Pos(0, 0), world.Pos(0, 1)}, []world.Position{world.Pos(4, 4)}, 50},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := quietCity(t)
			for _, p := range tc.residential {
				mustPlace(t, c, p, world.Residential)
			}
			for _, p := range tc.commercial {
				mustPlace(t, c, p, world.Commercial)
			}
			report := c.Advance()
			if c.Population != tc.wantPop || report.Population != tc.wantPop {
				t.Fatalf("population = %d (report %d), want %d", c.Population, report.Population, tc.wantPop)
			}
			if c.Happiness != economy.BaseHappiness {
				t.Fatalf("happiness = %d, want %d", c.Happiness, economy.BaseHappiness)
			}
			if c.Year != DefaultYear+1 || report.Year != c.Year {
				t.Fatalf("year = %d (report %d), want %d", c.Year, report.Year, DefaultYear+1)
			}
		})
	}
}

func TestAdvanceBooksDailyAndYearlyUpkeep(t *testing.T) {
	c := quietCity(t)
	mustPlace(t, c, world.Pos(0, 0), world.Park)

	c.Advance()

	// 60/yr upkeep charged daily, plus twelve months of 5/month.
	want := economy.DefaultMoney - 75 - 60 - 60
	if !approx(c.Ledger.Money, want) {
		t.Fatalf("money = %v, want %v", c.Ledger.Money, want)
	}
	if !approx(c.Ledger.Expenses, 5) || c.Ledger.Income != 0 {
		t.Fatalf("income/expenses = %v/%v, want 0/5", c.Ledger.Income, c.Ledger.Expenses)
	}
	if !approx(c.Ledger.DailyMaintenance, 60.0/365) {
		t.Fatalf("daily maintenance = %v, want %v", c.Ledger.DailyMaintenance, 60.0/365)
	}
}

func TestMoneyNeverGoesNegative(t *testing.T) {
	c := quietCity(t)
	mustPlace(t, c, world.Pos(0, 0), world.Airport)
	c.Ledger.Money = 10
	c.Advance()
	if c.Ledger.Money != 0 {
		t.Fatalf("money = %v, want floor at 0", c.Ledger.Money)
	}
}

func TestYearlyIncomeUsesLiveMultipliers(t *testing.T) {
	c := quietCity(t)
	mustPlace(t, c, world.Pos(0, 0), world.Commercial)
	c.LiveEvents = []LiveEvent{{Name: "Tech Boom", Multiplier: 1.2, Remaining: 12}, {Name: "Recession", Multiplier: 0.8, Remaining: 1}}

	report := c.Advance()

	// The recession expires before this year's income is booked.
	if len(c.LiveEvents) != 1 || c.LiveEvents[0].Remaining != 11 {
		t.Fatalf("live events = %+v, want one tech boom with 11 left", c.LiveEvents)
	}
	if !approx(report.Multiplier, 1.2) {
		t.Fatalf("multiplier = %v, want 1.2", report.Multiplier)
	}
	if !approx(c.Ledger.Income, economy.CommercialIncome*1.2) {
		t.Fatalf("income = %v, want %v", c.Ledger.Income, economy.CommercialIncome*1.2)
	}
}

func TestSetTaxRateClamps(t *testing.T) {
	c := quietCity(t)
	c.SetTaxRate(0.9)
	if c.Ledger.TaxRate != economy.MaxTaxRate {
		t.Fatalf("tax rate = %v, want %v", c.Ledger.TaxRate, economy.MaxTaxRate)
	}
	c.SetTaxRate(-1)
	if c.Ledger.TaxRate != 0 {
		t.Fatalf("tax rate = %v, want 0", c.Ledger.TaxRate)
	}
}

func TestTrafficFollowsCommute(t *testing.T) {
	c := quietCity(t)
	home, work := world.Pos(0, 0), world.Pos(2, 3)
	mustPlace(t, c, home, world.Residential)
	mustPlace(t, c, work, world.Commercial)
	for _, p := range []world.Position{world.Pos(0, 1), world.Pos(0, 2), world.Pos(1, 3), world.Pos(4, 4)} {
		mustPlace(t, c, p, world.RoadNone)
	}
	c.BuildingStates[home] = ZonedOperating
	c.BuildingStates[work] = ZonedOperating

	c.recomputeTraffic()

	// Columns first along row 0, then down column 3.
	want := map[world.Position]int{world.Pos(0, 1): 1, world.Pos(0, 2): 1, world.Pos(1, 3): 1}
	if len(c.Traffic) != len(want) {
		t.Fatalf("traffic = %v, want %v", c.Traffic, want)
	}
	for p, n := range want {
		if c.Traffic[p] != n {
			t.Fatalf("traffic at %v = %d, want %d", p, c.Traffic[p], n)
		}
	}

	c.BuildingStates[work] = ZonedDeveloping
	c.recomputeTraffic()
	if len(c.Traffic) != 0 {
		t.Fatalf("traffic without an operating workplace = %v, want none", c.Traffic)
	}
}

func TestNearestPrefersScanOrderOnTies(t *testing.T) {
	from := world.Pos(2, 2)
	got := nearest(from, []world.Position{world.Pos(0, 2), world.Pos(2, 0), world.Pos(4, 2)})
	if got != world.Pos(0, 2) {
		t.Fatalf("nearest = %v, want (0, 2)", got)
	}
}

func TestPickEventByCumulativeWeight(t *testing.T) {
	total := totalEventWeight()
	if got := pickEvent(0); got.Name != "Tech Boom" {
		t.Fatalf("pickEvent(0) = %s, want Tech Boom", got.Name)
	}
	if got := pickEvent(10.5 / total); got.Name != "Tourism Surge" {
		t.Fatalf("pickEvent at first boundary = %s, want Tourism Surge", got.Name)
	}
	if got := pickEvent(math.Nextafter(1, 0)); got.Name != eventCatalog[len(eventCatalog)-1].Name {
		t.Fatalf("pickEvent(~1) = %s, want last entry", got.Name)
	}
}

func findEvent(t *testing.T, name string) EventDef {
	t.Helper()
	for _, def := range eventCatalog {
		if def.Name == name {
			return def
		}
	}
	t.Fatalf("no event %q in catalog", name)
	return EventDef{}
}

func TestApplyEventEffects(t *testing.T) {
	c := quietCity(t)
	c.Ledger.Money = 1000

	rec := c.applyEvent(findEvent(t, "Labor Strike"))
	if c.Ledger.Money != 0 {
		t.Fatalf("money = %v, want floored at 0", c.Ledger.Money)
	}
	if c.Happiness != 45 {
		t.Fatalf("happiness = %d, want 45", c.Happiness)
	}
	if rec.Year != c.Year || len(c.EventHistory) != 1 {
		t.Fatalf("event not logged: %+v", c.EventHistory)
	}

	c.applyEvent(findEvent(t, "Recession"))
	if len(c.LiveEvents) != 1 || c.LiveEvents[0].Remaining != LiveEventDuration {
		t.Fatalf("live events = %+v", c.LiveEvents)
	}
	for range LiveEventDuration - 1 {
		c.expireLiveEvents()
	}
	if len(c.LiveEvents) != 1 {
		t.Fatalf("live event expired early")
	}
	c.expireLiveEvents()
	if len(c.LiveEvents) != 0 {
		t.Fatalf("live event outlived its duration")
	}
	if len(c.EventHistory) != 2 {
		t.Fatalf("history length = %d, want 2", len(c.EventHistory))
	}
}

func TestDisasterEventStrikesHotspot(t *testing.T) {
	c := quietCity(t)
	c.applyEvent(findEvent(t, "Wildfire"))
	if len(c.Disasters) != 1 {
		t.Fatalf("disasters = %+v, want one", c.Disasters)
	}
	d := c.Disasters[0]
	if d.Kind != DisasterFire || d.Origin != c.hazard.Hotspot(c.Year) {
		t.Fatalf("disaster = %+v, want fire at %v", d, c.hazard.Hotspot(c.Year))
	}
}

func TestRandomEventsAreSeeded(t *testing.T) {
	a := NewCity(Config{Seed: 7, EventChance: 1})
	b := NewCity(Config{Seed: 7, EventChance: 1})
	for range 3 {
		ra, rb := a.Advance(), b.Advance()
		if ra.Event == nil || rb.Event == nil {
			t.Fatalf("event chance 1 produced no event")
		}
		if ra.Event.Name != rb.Event.Name {
			t.Fatalf("same seed rolled %s and %s", ra.Event.Name, rb.Event.Name)
		}
	}
}

func TestFireDisaster(t *testing.T) {
	c := quietCity(t)
	if err := c.TriggerDisaster(DisasterFire, world.Pos(2, 2)); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if c.Ledger.Money != economy.DefaultMoney-500 || c.Happiness != 45 {
		t.Fatalf("onset: money %v happiness %d", c.Ledger.Money, c.Happiness)
	}

	c.tickDisasters()
	c.tickDisasters()
	if len(c.Disasters) != 1 || c.Disasters[0].Remaining != 1 {
		t.Fatalf("after two days: %+v", c.Disasters)
	}
	c.tickDisasters()
	if len(c.Disasters) != 0 {
		t.Fatalf("fire outlived its duration: %+v", c.Disasters)
	}
	if c.Ledger.Money != economy.DefaultMoney-800 || c.Happiness != 39 {
		t.Fatalf("after fire: money %v happiness %d", c.Ledger.Money, c.Happiness)
	}
}

func TestTornadoClearsNeighborhood(t *testing.T) {
	c := quietCity(t)
	center := world.Pos(2, 2)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			p := world.Pos(center.Row+dr, center.Col+dc)
			if p == world.Pos(2, 3) {
				continue
			}
			mustPlace(t, c, p, world.Residential)
		}
	}
	mustPlace(t, c, world.Pos(2, 3), world.RoadNone)
	mustPlace(t, c, world.Pos(2, 4), world.RoadNone)
	mustPlace(t, c, world.Pos(0, 0), world.Park)
	money := c.Ledger.Money

	if err := c.TriggerDisaster(DisasterTornado, center); err != nil {
		t.Fatalf("trigger: %v", err)
	}

	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			p := world.Pos(center.Row+dr, center.Col+dc)
			if !c.IsEmpty(p) {
				t.Fatalf("%v survived the tornado as %s", p, c.OccupantAt(p).Name())
			}
			if _, ok := c.BuildingStates[p]; ok {
				t.Fatalf("%v kept its building state", p)
			}
		}
	}
	if c.OccupantAt(world.Pos(0, 0)) != world.Park {
		t.Fatalf("tornado reached outside its 3x3 area")
	}
	if c.Roads.Has(world.Pos(2, 3)) || c.OccupantAt(world.Pos(2, 4)) != world.RoadNone {
		t.Fatalf("surviving road not re-autotiled: %s", c.OccupantAt(world.Pos(2, 4)).Code())
	}
	if c.Ledger.Money != money-1000 || c.Happiness != 40 {
		t.Fatalf("onset: money %v happiness %d", c.Ledger.Money, c.Happiness)
	}
}

func TestTriggerDisasterRejectsBadInput(t *testing.T) {
	c := quietCity(t)
	if err := c.TriggerDisaster(DisasterFire, world.Pos(5, 0)); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("off-grid: got %v, want ErrInvalidPosition", err)
	}
	if err := c.TriggerDisaster("flood", world.Pos(0, 0)); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("unknown kind: got %v, want ErrUnknownKind", err)
	}
	if c.Ledger.Money != economy.DefaultMoney || len(c.Disasters) != 0 {
		t.Fatalf("rejected disaster mutated the city")
	}
}

func TestAchievementsAreMonotonic(t *testing.T) {
	c := quietCity(t)
	c.Ledger.Money = 60000
	mustPlace(t, c, world.Pos(0, 0), world.Park)

	if !c.Unlocked["wealthy"] || !c.Unlocked["first_zone"] {
		t.Fatalf("unlocked = %v", c.Unlocked)
	}
	if want := 60000.0 - 75 + 2500; c.Ledger.Money != want {
		t.Fatalf("money = %v, want %v with bonus", c.Ledger.Money, want)
	}

	c.Ledger.Money = 0
	c.Advance()
	c.Ledger.Money = 100
	mustPlace(t, c, world.Pos(0, 1), world.Park)
	if !c.Unlocked["wealthy"] {
		t.Fatalf("wealthy was revoked")
	}
	count := 0
	for _, h := range c.AchievementHistory {
		if h.ID == "wealthy" {
			count++
			if h.Year != DefaultYear {
				t.Fatalf("wealthy unlocked in year %d, want %d", h.Year, DefaultYear)
			}
		}
	}
	if count != 1 {
		t.Fatalf("wealthy recorded %d times, want 1", count)
	}
}

func TestSatisfied(t *testing.T) {
	view := CityView{Population: 600, Happiness: 80, Money: 100, Year: 9, Stats: Stats{Roads: 5, EmptyCells: 3}}
	tests := []struct {
		id   AchievementID
		want bool
	}{
		{"town", true},
		{"city", false},
		{"happy", true},
		{"road_builder", true},
		{"decade", false},
		{"no_vacancy", false},
		{"wealthy", false},
	}
	for _, tc := range tests {
		a, ok := LookupAchievement(tc.id)
		if !ok {
			t.Fatalf("no achievement %q", tc.id)
		}
		if got := Satisfied(a, view); got != tc.want {
			t.Fatalf("Satisfied(%s) = %v, want %v", tc.id, got, tc.want)
		}
	}
}

func TestRecentAchievements(t *testing.T) {
	c := quietCity(t)
	mustPlace(t, c, world.Pos(0, 0), world.PowerLine)
	mustPlace(t, c, world.Pos(0, 1), world.Park)
	if got := c.RecentAchievements(1); len(got) != 1 || got[0].ID != "first_zone" {
		t.Fatalf("recent = %+v, want first_zone", got)
	}
	if got := c.RecentAchievements(10); len(got) != 2 || got[0].ID != "first_power" {
		t.Fatalf("recent = %+v, want first_power then first_zone", got)
	}
	if got := c.RecentAchievements(0); got != nil {
		t.Fatalf("recent(0) = %+v, want nil", got)
	}
}

func TestInterventions(t *testing.T) {
	c := quietCity(t)
	c.GrantFunds(2500, "")
	if c.Ledger.Money != economy.DefaultMoney+2500 {
		t.Fatalf("money = %v", c.Ledger.Money)
	}
	if _, err := c.BoostIncome("", 0, 3); err == nil {
		t.Fatalf("zero multiplier accepted")
	}
	if _, err := c.BoostIncome("Stimulus", 1.5, 2); err != nil {
		t.Fatalf("boost: %v", err)
	}
	if !approx(c.IncomeMultiplier(), 1.5) {
		t.Fatalf("multiplier = %v, want 1.5", c.IncomeMultiplier())
	}
	for year := 1; year <= 2; year++ {
		if r := c.Advance(); !approx(r.Multiplier, 1.5) {
			t.Fatalf("year %d multiplier = %v, want 1.5", year, r.Multiplier)
		}
	}
	if r := c.Advance(); !approx(r.Multiplier, 1) {
		t.Fatalf("boost outlived two years: multiplier %v, live %+v", r.Multiplier, c.LiveEvents)
	}
	if len(c.LiveEvents) != 0 {
		t.Fatalf("live events = %+v", c.LiveEvents)
	}
	if len(c.EventHistory) != 2 || c.EventHistory[0].Category != CategoryIntervention {
		t.Fatalf("history = %+v", c.EventHistory)
	}
}

func TestOneYearBoostAppliesToNextIncome(t *testing.T) {
	c := quietCity(t)
	if _, err := c.BoostIncome("Stimulus", 1.5, 1); err != nil {
		t.Fatalf("boost: %v", err)
	}
	if r := c.Advance(); !approx(r.Multiplier, 1.5) {
		t.Fatalf("first year multiplier = %v, want 1.5", r.Multiplier)
	}
	if r := c.Advance(); !approx(r.Multiplier, 1) {
		t.Fatalf("second year multiplier = %v, want 1", r.Multiplier)
	}
}

func TestCatalogAccessorsReturnCopies(t *testing.T) {
	events := EventCatalog()
	events[0].Weight = 0
	events[0].Effects[EffectIncomeMultiplier] = 99
	if eventCatalog[0].Weight == 0 || eventCatalog[0].Effects[EffectIncomeMultiplier] == 99 {
		t.Fatalf("EventCatalog leaked the table: %+v", eventCatalog[0])
	}

	achievements := Achievements()
	achievements[0].Threshold = 1000
	if achievementCatalog[0].Threshold == 1000 {
		t.Fatalf("Achievements leaked the table: %+v", achievementCatalog[0])
	}
}

func TestCellInfo(t *testing.T) {
	c, home := favorableHome(t)
	c.Step()

	info, ok := c.CellInfo(home)
	if !ok {
		t.Fatalf("no info for %v", home)
	}
	if info.Code != "R" || info.State != ZonedOperating.String() {
		t.Fatalf("info = %+v", info)
	}
	if info.Desirability == nil || *info.Desirability != 69 || info.HasRoad == nil || !*info.HasRoad {
		t.Fatalf("lifecycle details missing: %+v", info)
	}

	park, _ := c.CellInfo(world.Pos(3, 2))
	if park.Desirability != nil || park.State != "" {
		t.Fatalf("park has lifecycle details: %+v", park)
	}
	if _, ok := c.CellInfo(world.Pos(-1, 0)); ok {
		t.Fatalf("info for off-grid position")
	}
}

func TestClockFiresUntilCancelled(t *testing.T) {
	fired := make(chan uint64, 8)
	clock := NewClock(5*time.Millisecond, func(_ context.Context, tick uint64) {
		select {
		case fired <- tick:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		clock.Run(ctx)
		close(done)
	}()

	for want := uint64(1); want <= 2; want++ {
		select {
		case got := <-fired:
			if got != want {
				t.Fatalf("tick = %d, want %d", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("clock did not fire")
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("clock did not stop")
	}
	if clock.Running() {
		t.Fatalf("clock still running after cancel")
	}
}

func TestClockDisabledWithoutInterval(t *testing.T) {
	clock := NewClock(0, func(context.Context, uint64) { t.Fatalf("fired") })
	clock.Run(context.Background())
}

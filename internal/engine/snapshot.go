package engine

import (
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/talgya/gridcity/internal/economy"
	"github.com/talgya/gridcity/internal/entropy"
	"github.com/talgya/gridcity/internal/world"
)

// SnapshotVersion is written to every record.
const SnapshotVersion = 1

// Record is the flat, JSON-serializable form of a city. Position-keyed maps
// use "row,col" string keys; position sets are sorted lists of such keys.
type Record map[string]any

type disasterRecord struct {
	Kind      DisasterKind `json:"kind"`
	Origin    string       `json:"origin"`
	Remaining int          `json:"remaining"`
}

// Snapshot captures the complete city state.
func (c *City) Snapshot() Record {
	states := make(map[string]string, len(c.BuildingStates))
	for p, s := range c.BuildingStates {
		states[p.Key()] = s.String()
	}

	disasters := make([]disasterRecord, len(c.Disasters))
	for i, d := range c.Disasters {
		disasters[i] = disasterRecord{Kind: d.Kind, Origin: d.Origin.Key(), Remaining: d.Remaining}
	}

	unlocked := make([]string, 0, len(c.Unlocked))
	for _, a := range achievementCatalog {
		if c.Unlocked[a.ID] {
			unlocked = append(unlocked, string(a.ID))
		}
	}

	return Record{
		"version":             SnapshotVersion,
		"id":                  c.ID,
		"name":                c.Name,
		"seed":                strconv.FormatUint(c.seed, 10),
		"event_chance":        c.eventChance,
		"rng_state":           c.rng.State(),
		"grid":                c.Grid.Codes(),
		"current_year":        c.Year,
		"population":          c.Population,
		"happiness":           c.Happiness,
		"money":               c.Ledger.Money,
		"tax_rate":            c.Ledger.TaxRate,
		"income":              c.Ledger.Income,
		"expenses":            c.Ledger.Expenses,
		"daily_revenue":       c.Ledger.DailyRevenue,
		"daily_maintenance":   c.Ledger.DailyMaintenance,
		"building_states":     states,
		"desirability_scores": keyedInts(c.Desirability),
		"traffic_levels":      keyedInts(c.Traffic),
		"road_network":        c.Roads.Keys(),
		"power_network":       c.PowerLines.Keys(),
		"powered":             c.powered.Keys(),
		"live_events":         listOf(c.LiveEvents),
		"event_history":       listOf(c.EventHistory),
		"active_disasters":    disasters,
		"achievements":        unlocked,
		"achievement_history": listOf(c.AchievementHistory),
	}
}

// listOf copies s so the record never aliases city state and encodes empty
// lists as [] rather than null.
func listOf[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}

func keyedInts(m map[world.Position]int) map[string]int {
	out := make(map[string]int, len(m))
	for p, v := range m {
		out[p.Key()] = v
	}
	return out
}

// Restore rebuilds a city from a record. It never fails: every missing or
// malformed field falls back to the value a fresh city starts with, and
// entries that contradict the grid are dropped. Road and power-line
// networks are re-derived from the grid.
func Restore(rec Record) *City {
	var seedText string
	seed := uint64(0)
	if decodeField(rec, "seed", &seedText) {
		if v, err := strconv.ParseUint(seedText, 10, 64); err == nil && v != 0 {
			seed = v
		}
	}
	if seed == 0 {
		seed = entropy.CryptoUint64()
	}
	c := newCity(seed)

	var id string
	if decodeField(rec, "id", &id) {
		if _, err := uuid.Parse(id); err == nil {
			c.ID = id
		}
	}
	decodeField(rec, "name", &c.Name)

	var chance float64
	if decodeField(rec, "event_chance", &chance) && chance >= 0 && chance <= 1 {
		c.eventChance = chance
	}

	var rngState string
	if decodeField(rec, "rng_state", &rngState) {
		if src, err := entropy.Restore(rngState); err == nil {
			c.rng = src
		} else {
			slog.Warn("restore: bad rng state, reseeding", "city", c.ID, "error", err)
		}
	}

	restoreGrid(c, rec)
	restoreScalars(c, rec)
	restoreCellMaps(c, rec)
	restoreEvents(c, rec)
	restoreAchievements(c, rec)
	return c
}

func restoreGrid(c *City, rec Record) {
	var rows [][]string
	if !decodeField(rec, "grid", &rows) {
		return
	}
	if len(rows) != world.GridSize {
		slog.Warn("restore: grid has wrong shape, using empty grid", "rows", len(rows))
		return
	}
	for _, row := range rows {
		if len(row) != world.GridSize {
			slog.Warn("restore: grid has wrong shape, using empty grid", "cols", len(row))
			return
		}
	}
	g, bad := world.GridFromCodes(rows)
	if bad > 0 {
		slog.Warn("restore: grid has unknown codes, using empty grid", "bad", bad)
		return
	}
	c.Grid = g

	c.Grid.Each(func(p world.Position, o world.Occupant) {
		switch {
		case o.IsRoad():
			c.Roads.Add(p)
		case o == world.PowerLine:
			c.PowerLines.Add(p)
		}
	})
	c.autotileRoads()
}

func restoreScalars(c *City, rec Record) {
	var year int
	if decodeField(rec, "current_year", &year) && year >= DefaultYear {
		c.Year = year
	}
	var pop int
	if decodeField(rec, "population", &pop) && pop >= 0 {
		c.Population = pop
	}
	var happy int
	if decodeField(rec, "happiness", &happy) && happy >= 0 && happy <= 100 {
		c.Happiness = happy
	}

	var money float64
	if decodeField(rec, "money", &money) && money >= 0 {
		c.Ledger.Money = money
	}
	var tax float64
	if decodeField(rec, "tax_rate", &tax) && tax >= 0 && tax <= economy.MaxTaxRate {
		c.Ledger.TaxRate = tax
	}
	decodeField(rec, "income", &c.Ledger.Income)
	decodeField(rec, "expenses", &c.Ledger.Expenses)
	decodeField(rec, "daily_revenue", &c.Ledger.DailyRevenue)
	decodeField(rec, "daily_maintenance", &c.Ledger.DailyMaintenance)
}

func restoreCellMaps(c *City, rec Record) {
	// Every zoned R/C/I cell gets a state even when the record omits it.
	c.Grid.Each(func(p world.Position, o world.Occupant) {
		if o.IsDevelopable() {
			c.BuildingStates[p] = ZonedEmpty
		}
	})

	var states map[string]string
	if decodeField(rec, "building_states", &states) {
		for key, name := range states {
			p, err := world.ParseKey(key)
			if err != nil || !c.Grid.Get(p).IsDevelopable() {
				continue
			}
			if s, ok := ParseBuildingState(name); ok {
				c.BuildingStates[p] = s
			}
		}
	}

	var scores map[string]int
	if decodeField(rec, "desirability_scores", &scores) {
		for key, v := range scores {
			p, err := world.ParseKey(key)
			if err != nil || !c.Grid.Get(p).IsDevelopable() {
				continue
			}
			c.Desirability[p] = economy.ClampPercent(v)
		}
	}

	var traffic map[string]int
	if decodeField(rec, "traffic_levels", &traffic) {
		for key, v := range traffic {
			p, err := world.ParseKey(key)
			if err != nil || !c.Roads.Has(p) || v < 0 {
				continue
			}
			c.Traffic[p] = v
		}
	}

	var powered []string
	if decodeField(rec, "powered", &powered) {
		for _, key := range powered {
			if p, err := world.ParseKey(key); err == nil && p.Valid() {
				c.powered.Add(p)
			}
		}
	} else {
		c.powered = c.computePowered()
	}
}

func restoreEvents(c *City, rec Record) {
	var live []LiveEvent
	if decodeField(rec, "live_events", &live) {
		for _, e := range live {
			if e.Remaining > 0 && e.Multiplier > 0 {
				c.LiveEvents = append(c.LiveEvents, e)
			}
		}
	}

	decodeField(rec, "event_history", &c.EventHistory)

	var disasters []disasterRecord
	if decodeField(rec, "active_disasters", &disasters) {
		for _, d := range disasters {
			p, err := world.ParseKey(d.Origin)
			if err != nil || !p.Valid() || d.Remaining <= 0 {
				continue
			}
			if _, ok := disasterEffects[d.Kind]; !ok {
				continue
			}
			c.Disasters = append(c.Disasters, Disaster{Kind: d.Kind, Origin: p, Remaining: d.Remaining})
		}
	}
}

func restoreAchievements(c *City, rec Record) {
	var ids []string
	if decodeField(rec, "achievements", &ids) {
		for _, id := range ids {
			if _, ok := LookupAchievement(AchievementID(id)); ok {
				c.Unlocked[AchievementID(id)] = true
			}
		}
	}

	var history []AchievementRecord
	if decodeField(rec, "achievement_history", &history) {
		for _, h := range history {
			if c.Unlocked[h.ID] {
				c.AchievementHistory = append(c.AchievementHistory, h)
			}
		}
	}
}

// decodeField copies rec[key] into dst through its JSON form, so records
// built in memory and records parsed from JSON decode the same way. dst is
// left untouched when the key is missing or does not fit.
func decodeField[T any](rec Record, key string, dst *T) bool {
	raw, ok := rec[key]
	if !ok || raw == nil {
		return false
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return false
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		slog.Warn("restore: ignoring malformed field", "field", key, "error", err)
		return false
	}
	*dst = v
	return true
}

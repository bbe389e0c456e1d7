// Package engine provides the city simulation: placement, infrastructure,
// building lifecycle, traffic, events, disasters, achievements, and the
// yearly clock that ties them together.
//
// A City is not safe for concurrent use; callers serialize access per city.
package engine

import (
	"github.com/google/uuid"

	"github.com/talgya/gridcity/internal/economy"
	"github.com/talgya/gridcity/internal/entropy"
	"github.com/talgya/gridcity/internal/world"
)

// Defaults for a freshly constructed city.
const (
	DefaultYear        = 1
	DefaultEventChance = 0.3
)

// Config holds the tunables a city is created with.
type Config struct {
	Seed        uint64  // 0 = crypto-random
	EventChance float64 // probability of a random event per year
	Name        string
}

// DefaultConfig returns the standard city configuration.
func DefaultConfig() Config {
	return Config{EventChance: DefaultEventChance}
}

// City is the complete state of one simulated city.
type City struct {
	ID   string
	Name string

	Grid   *world.Grid
	Ledger economy.Ledger

	Year       int
	Population int
	Happiness  int

	// Per-cell derived state for zoned R/C/I cells (and traffic on roads).
	BuildingStates map[world.Position]BuildingState
	Desirability   map[world.Position]int
	Traffic        map[world.Position]int

	Roads      world.PositionSet
	PowerLines world.PositionSet
	powered    world.PositionSet // result of the last power search

	LiveEvents   []LiveEvent
	EventHistory []EventRecord
	Disasters    []Disaster

	Unlocked           map[AchievementID]bool
	AchievementHistory []AchievementRecord

	seed        uint64
	eventChance float64
	rng         *entropy.Source
	hazard      *world.HazardField
}

// NewCity creates an empty city.
func NewCity(cfg Config) *City {
	seed := cfg.Seed
	if seed == 0 {
		seed = entropy.CryptoUint64()
	}
	c := newCity(seed)
	if cfg.EventChance >= 0 && cfg.EventChance <= 1 {
		c.eventChance = cfg.EventChance
	}
	c.Name = cfg.Name
	return c
}

func newCity(seed uint64) *City {
	return &City{
		ID:             uuid.NewString(),
		Grid:           world.NewGrid(),
		Ledger:         economy.NewLedger(),
		Year:           DefaultYear,
		Happiness:      economy.BaseHappiness,
		BuildingStates: make(map[world.Position]BuildingState),
		Desirability:   make(map[world.Position]int),
		Traffic:        make(map[world.Position]int),
		Roads:          make(world.PositionSet),
		PowerLines:     make(world.PositionSet),
		powered:        make(world.PositionSet),
		Unlocked:       make(map[AchievementID]bool),
		seed:           seed,
		eventChance:    DefaultEventChance,
		rng:            entropy.NewSource(seed),
		hazard:         world.NewHazardField(int64(seed)),
	}
}

// Seed returns the seed driving the city's random rolls and hazard field.
func (c *City) Seed() uint64 {
	return c.seed
}

// EventChance returns the per-year probability of a random event.
func (c *City) EventChance() float64 {
	return c.eventChance
}

// IsValid reports whether p lies on the grid.
func (c *City) IsValid(p world.Position) bool {
	return p.Valid()
}

// IsEmpty reports whether p is on the grid and unoccupied.
func (c *City) IsEmpty(p world.Position) bool {
	return c.Grid.IsEmpty(p)
}

// OccupantAt returns the occupant at p (Empty when off-grid).
func (c *City) OccupantAt(p world.Position) world.Occupant {
	return c.Grid.Get(p)
}

// StateAt returns the lifecycle state of a zoned R/C/I cell. The second
// return is false for cells without a lifecycle.
func (c *City) StateAt(p world.Position) (BuildingState, bool) {
	if !c.Grid.Get(p).IsDevelopable() {
		return ZonedEmpty, false
	}
	return c.stateAt(p), true
}

func (c *City) stateAt(p world.Position) BuildingState {
	if s, ok := c.BuildingStates[p]; ok {
		return s
	}
	return ZonedEmpty
}

// Cost returns the catalog cost of a kind, or 0 if it cannot be placed.
func (c *City) Cost(kind world.Occupant) float64 {
	return economy.Cost(kind)
}

// CanAfford reports whether the city can pay for one cell of kind.
func (c *City) CanAfford(kind world.Occupant) bool {
	e, ok := economy.Lookup(kind)
	return ok && c.Ledger.CanAfford(e.Cost)
}

// CanAffordBlock reports whether the city can pay for a 2×2 block of kind.
func (c *City) CanAffordBlock(kind world.Occupant) bool {
	e, ok := economy.Lookup(kind)
	return ok && c.Ledger.CanAfford(e.Cost*4)
}

// HasRoadAccess reports whether p is a road or touches one.
func (c *City) HasRoadAccess(p world.Position) bool {
	if c.Roads.Has(p) {
		return true
	}
	for _, n := range p.Neighbors() {
		if c.Roads.Has(n) {
			return true
		}
	}
	return false
}

// IsPowered reports whether p was reached by the last power search.
func (c *City) IsPowered(p world.Position) bool {
	return c.powered.Has(p)
}

// IncomeMultiplier is the product of all live event multipliers.
func (c *City) IncomeMultiplier() float64 {
	m := 1.0
	for _, e := range c.LiveEvents {
		m *= e.Multiplier
	}
	return m
}

// Stats is the per-kind cell count of the city.
type Stats struct {
	Residential  int `json:"residential"`
	Commercial   int `json:"commercial"`
	Industrial   int `json:"industrial"`
	Parks        int `json:"parks"`
	Schools      int `json:"schools"`
	Hospitals    int `json:"hospitals"`
	PowerPlants  int `json:"power_plants"`
	Police       int `json:"police"`
	FireStations int `json:"fire_stations"`
	Airports     int `json:"airports"`
	Stadiums     int `json:"stadiums"`
	Malls        int `json:"malls"`
	Universities int `json:"universities"`
	Roads        int `json:"roads"`
	PowerLines   int `json:"power_lines"`
	EmptyCells   int `json:"empty_cells"`
}

// Stats counts every kind on the grid.
func (c *City) Stats() Stats {
	var s Stats
	c.Grid.Each(func(_ world.Position, o world.Occupant) {
		switch {
		case o == world.Empty:
			s.EmptyCells++
		case o.IsRoad():
			s.Roads++
		}
		switch o {
		case world.Residential:
			s.Residential++
		case world.Commercial:
			s.Commercial++
		case world.Industrial:
			s.Industrial++
		case world.Park:
			s.Parks++
		case world.School:
			s.Schools++
		case world.Hospital:
			s.Hospitals++
		case world.PowerPlant:
			s.PowerPlants++
		case world.Police:
			s.Police++
		case world.FireStation:
			s.FireStations++
		case world.Airport:
			s.Airports++
		case world.Stadium:
			s.Stadiums++
		case world.Mall:
			s.Malls++
		case world.University:
			s.Universities++
		case world.PowerLine:
			s.PowerLines++
		}
	})
	return s
}

func (c *City) census() economy.Census {
	s := c.Stats()
	return economy.Census{
		Residential: s.Residential,
		Commercial:  s.Commercial,
		Industrial:  s.Industrial,
		Parks:       s.Parks,
		Schools:     s.Schools,
		Hospitals:   s.Hospitals,
		PowerPlants: s.PowerPlants,
	}
}

// CellInfo describes one cell for display.
type CellInfo struct {
	Position     world.Position `json:"position"`
	Code         string         `json:"type"`
	Name         string         `json:"name"`
	Glyph        string         `json:"display"`
	State        string         `json:"state,omitempty"`
	Desirability *int           `json:"desirability,omitempty"`
	HasRoad      *bool          `json:"has_road,omitempty"`
	HasPower     *bool          `json:"has_power,omitempty"`
	Traffic      *int           `json:"traffic_level,omitempty"`
}

// CellInfo returns display details for p. Lifecycle fields are only set on
// zoned R/C/I cells. The second return is false for off-grid positions.
func (c *City) CellInfo(p world.Position) (CellInfo, bool) {
	if !p.Valid() {
		return CellInfo{}, false
	}
	o := c.Grid.Get(p)
	info := CellInfo{
		Position: p,
		Code:     o.Code(),
		Name:     o.Name(),
		Glyph:    string(o.Glyph()),
	}
	if o.IsDevelopable() {
		d := c.Desirability[p]
		road := c.HasRoadAccess(p)
		power := c.IsPowered(p)
		traffic := c.Traffic[p]
		info.State = c.stateAt(p).String()
		info.Desirability = &d
		info.HasRoad = &road
		info.HasPower = &power
		info.Traffic = &traffic
	}
	return info, true
}

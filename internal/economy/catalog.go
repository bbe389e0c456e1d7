// Package economy provides the city ledger, the construction catalog, and the
// population/happiness formulas.
package economy

import "github.com/talgya/gridcity/internal/world"

// CatalogEntry is the price list row for one placeable kind.
type CatalogEntry struct {
	Kind        world.Occupant `json:"kind"`
	Cost        float64        `json:"cost"`        // one-off construction cost
	Maintenance float64        `json:"maintenance"` // annual upkeep
}

// Catalog is the static price list. Every road variant is priced as RoadNone.
var Catalog = map[world.Occupant]CatalogEntry{
	world.Residential: {Kind: world.Residential, Cost: 100, Maintenance: 12},
	world.Commercial:  {Kind: world.Commercial, Cost: 150, Maintenance: 24},
	world.Industrial:  {Kind: world.Industrial, Cost: 200, Maintenance: 36},
	world.Park:        {Kind: world.Park, Cost: 75, Maintenance: 60},

	world.School:      {Kind: world.School, Cost: 1000, Maintenance: 600},
	world.Hospital:    {Kind: world.Hospital, Cost: 1500, Maintenance: 900},
	world.PowerPlant:  {Kind: world.PowerPlant, Cost: 2000, Maintenance: 1200},
	world.Police:      {Kind: world.Police, Cost: 800, Maintenance: 480},
	world.FireStation: {Kind: world.FireStation, Cost: 800, Maintenance: 480},
	world.Airport:     {Kind: world.Airport, Cost: 5000, Maintenance: 3000},
	world.Stadium:     {Kind: world.Stadium, Cost: 3000, Maintenance: 1800},
	world.Mall:        {Kind: world.Mall, Cost: 2500, Maintenance: 1200},
	world.University:  {Kind: world.University, Cost: 4000, Maintenance: 2400},

	world.RoadNone:  {Kind: world.RoadNone, Cost: 50, Maintenance: 12},
	world.PowerLine: {Kind: world.PowerLine, Cost: 100, Maintenance: 12},
}

func catalogKey(o world.Occupant) world.Occupant {
	if o.IsRoad() {
		return world.RoadNone
	}
	return o
}

// Lookup returns the catalog entry for a kind.
func Lookup(o world.Occupant) (CatalogEntry, bool) {
	e, ok := Catalog[catalogKey(o)]
	return e, ok
}

// Cost returns the construction cost of a kind, or 0 if it is not sold.
func Cost(o world.Occupant) float64 {
	return Catalog[catalogKey(o)].Cost
}

// Maintenance returns the annual upkeep of an occupant, 0 for empty cells.
func Maintenance(o world.Occupant) float64 {
	return Catalog[catalogKey(o)].Maintenance
}

// IsZoneKind reports whether o may be passed to zoning.
func IsZoneKind(o world.Occupant) bool {
	return o.IsZone()
}

// IsBuildKind reports whether o may be passed to building: facilities, the
// road kind and power lines.
func IsBuildKind(o world.Occupant) bool {
	return o.IsBuilding() || o == world.RoadNone || o == world.PowerLine
}

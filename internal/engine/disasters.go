package engine

import (
	"log/slog"

	"github.com/talgya/gridcity/internal/world"
)

// DisasterKind names a disaster type.
type DisasterKind string

const (
	DisasterFire    DisasterKind = "fire"
	DisasterTornado DisasterKind = "tornado"
)

// DisasterDuration is how many simulated days a disaster stays active.
const DisasterDuration = 3

type disasterEffect struct {
	onsetMoney     float64
	onsetHappiness int
	dailyMoney     float64
	dailyHappiness int
	clearsArea     bool
}

var disasterEffects = map[DisasterKind]disasterEffect{
	DisasterFire:    {onsetMoney: -500, onsetHappiness: -5, dailyMoney: -100, dailyHappiness: -2},
	DisasterTornado: {onsetMoney: -1000, onsetHappiness: -10, dailyMoney: -200, dailyHappiness: -3, clearsArea: true},
}

// Disaster is an active localized disaster.
type Disaster struct {
	Kind      DisasterKind   `json:"kind"`
	Origin    world.Position `json:"origin"`
	Remaining int            `json:"remaining"`
}

// TriggerDisaster starts a disaster of kind at origin.
func (c *City) TriggerDisaster(kind DisasterKind, origin world.Position) error {
	if !origin.Valid() {
		return ErrInvalidPosition
	}
	if _, ok := disasterEffects[kind]; !ok {
		return ErrUnknownKind
	}
	c.startDisaster(kind, origin)
	return nil
}

func (c *City) startDisaster(kind DisasterKind, origin world.Position) {
	fx := disasterEffects[kind]
	c.Ledger.Adjust(fx.onsetMoney)
	c.adjustHappiness(fx.onsetHappiness)

	cleared := 0
	if fx.clearsArea {
		cleared = c.clearArea(origin)
	}

	c.Disasters = append(c.Disasters, Disaster{
		Kind:      kind,
		Origin:    origin,
		Remaining: DisasterDuration,
	})
	slog.Info("disaster struck", "city", c.ID, "kind", kind, "origin", origin, "cleared", cleared)
}

// clearArea empties every occupied cell in the 3×3 block around center.
func (c *City) clearArea(center world.Position) int {
	cleared := 0
	roadLost := false
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			p := world.Pos(center.Row+dr, center.Col+dc)
			if !p.Valid() || c.Grid.IsEmpty(p) {
				continue
			}
			if c.Grid.Get(p).IsRoad() {
				roadLost = true
			}
			c.removeCell(p)
			cleared++
		}
	}
	if roadLost {
		c.autotileRoads()
	}
	return cleared
}

// tickDisasters applies one day of attrition and drops expired disasters.
func (c *City) tickDisasters() {
	if len(c.Disasters) == 0 {
		return
	}
	kept := c.Disasters[:0]
	for _, d := range c.Disasters {
		fx := disasterEffects[d.Kind]
		c.Ledger.Adjust(fx.dailyMoney)
		c.adjustHappiness(fx.dailyHappiness)
		d.Remaining--
		if d.Remaining > 0 {
			kept = append(kept, d)
		} else {
			slog.Debug("disaster expired", "city", c.ID, "kind", d.Kind, "origin", d.Origin)
		}
	}
	c.Disasters = kept
}

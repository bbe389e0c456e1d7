package engine

import (
	"log/slog"
	"maps"

	"github.com/talgya/gridcity/internal/economy"
)

// EventCategory groups random events.
type EventCategory string

const (
	CategoryPositive EventCategory = "positive"
	CategoryNegative EventCategory = "negative"
	CategoryDisaster EventCategory = "disaster"
)

// EffectKind names one effect of an event.
type EffectKind string

const (
	EffectMoney            EffectKind = "money"
	EffectHappiness        EffectKind = "happiness"
	EffectIncomeMultiplier EffectKind = "income_multiplier"
	EffectFire             EffectKind = "fire"
	EffectTornado          EffectKind = "tornado"
)

// effectOrder fixes the order effects are applied in, since clamping makes
// money and happiness deltas order-sensitive.
var effectOrder = [...]EffectKind{
	EffectMoney,
	EffectHappiness,
	EffectIncomeMultiplier,
	EffectFire,
	EffectTornado,
}

// LiveEventDuration is how many year-advances an income multiplier lasts.
const LiveEventDuration = 12

// EventDef is one row of the random event table.
type EventDef struct {
	Name        string                 `json:"name"`
	Category    EventCategory          `json:"category"`
	Description string                 `json:"description"`
	Weight      float64                `json:"weight"`
	Effects     map[EffectKind]float64 `json:"effects"`
}

// eventCatalog is the weighted random event table, in draw order.
var eventCatalog = []EventDef{
	{
		Name:        "Tech Boom",
		Category:    CategoryPositive,
		Description: "A tech company moves in and business booms.",
		Weight:      10,
		Effects:     map[EffectKind]float64{EffectIncomeMultiplier: 1.2},
	},
	{
		Name:        "Tourism Surge",
		Category:    CategoryPositive,
		Description: "Visitors flock to the city and spend freely.",
		Weight:      15,
		Effects:     map[EffectKind]float64{EffectMoney: 2000},
	},
	{
		Name:        "Summer Festival",
		Category:    CategoryPositive,
		Description: "A festival lifts everyone's spirits.",
		Weight:      15,
		Effects:     map[EffectKind]float64{EffectHappiness: 10},
	},
	{
		Name:        "Federal Grant",
		Category:    CategoryPositive,
		Description: "The federal government awards an infrastructure grant.",
		Weight:      5,
		Effects:     map[EffectKind]float64{EffectMoney: 5000, EffectHappiness: 5},
	},
	{
		Name:        "Recession",
		Category:    CategoryNegative,
		Description: "An economic downturn cuts tax income.",
		Weight:      10,
		Effects:     map[EffectKind]float64{EffectIncomeMultiplier: 0.8},
	},
	{
		Name:        "Labor Strike",
		Category:    CategoryNegative,
		Description: "City workers strike over wages.",
		Weight:      10,
		Effects:     map[EffectKind]float64{EffectMoney: -1500, EffectHappiness: -5},
	},
	{
		Name:        "Epidemic",
		Category:    CategoryNegative,
		Description: "A flu outbreak sweeps through the city.",
		Weight:      5,
		Effects:     map[EffectKind]float64{EffectHappiness: -15},
	},
	{
		Name:        "Wildfire",
		Category:    CategoryDisaster,
		Description: "A fire breaks out in the most exposed district.",
		Weight:      4,
		Effects:     map[EffectKind]float64{EffectFire: 1},
	},
	{
		Name:        "Tornado",
		Category:    CategoryDisaster,
		Description: "A tornado touches down and flattens a neighborhood.",
		Weight:      2,
		Effects:     map[EffectKind]float64{EffectTornado: 1},
	},
}

// LiveEvent is an income multiplier still in effect.
type LiveEvent struct {
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
	Remaining  int     `json:"remaining"`
}

// EventRecord is one entry of the event history.
type EventRecord struct {
	Year        int                    `json:"year"`
	Name        string                 `json:"name"`
	Category    EventCategory          `json:"category"`
	Description string                 `json:"description"`
	Effects     map[EffectKind]float64 `json:"effects"`
}

// EventCatalog returns a copy of the random event table in draw order.
func EventCatalog() []EventDef {
	out := make([]EventDef, len(eventCatalog))
	for i, def := range eventCatalog {
		def.Effects = maps.Clone(def.Effects)
		out[i] = def
	}
	return out
}

func totalEventWeight() float64 {
	total := 0.0
	for _, def := range eventCatalog {
		total += def.Weight
	}
	return total
}

// pickEvent selects a catalog row by cumulative weight for roll in [0, 1).
func pickEvent(roll float64) EventDef {
	target := roll * totalEventWeight()
	cumulative := 0.0
	for _, def := range eventCatalog {
		cumulative += def.Weight
		if target < cumulative {
			return def
		}
	}
	return eventCatalog[len(eventCatalog)-1]
}

// TriggerRandomEvent draws and applies one event unconditionally.
func (c *City) TriggerRandomEvent() EventRecord {
	return c.applyEvent(pickEvent(c.rng.Float()))
}

// maybeRollEvent draws an event with the city's yearly probability.
func (c *City) maybeRollEvent() *EventRecord {
	if c.rng.Float() >= c.eventChance {
		return nil
	}
	rec := c.TriggerRandomEvent()
	return &rec
}

func (c *City) applyEvent(def EventDef) EventRecord {
	for _, kind := range effectOrder {
		v, ok := def.Effects[kind]
		if !ok {
			continue
		}
		switch kind {
		case EffectMoney:
			c.Ledger.Adjust(v)
		case EffectHappiness:
			c.adjustHappiness(int(v))
		case EffectIncomeMultiplier:
			c.LiveEvents = append(c.LiveEvents, LiveEvent{
				Name:       def.Name,
				Multiplier: v,
				Remaining:  LiveEventDuration,
			})
		case EffectFire:
			c.startDisaster(DisasterFire, c.hazard.Hotspot(c.Year))
		case EffectTornado:
			c.startDisaster(DisasterTornado, c.hazard.Hotspot(c.Year))
		}
	}

	effects := make(map[EffectKind]float64, len(def.Effects))
	for k, v := range def.Effects {
		effects[k] = v
	}
	rec := EventRecord{
		Year:        c.Year,
		Name:        def.Name,
		Category:    def.Category,
		Description: def.Description,
		Effects:     effects,
	}
	c.EventHistory = append(c.EventHistory, rec)

	slog.Info("city event", "city", c.ID, "year", c.Year, "event", def.Name, "category", def.Category)
	return rec
}

// expireLiveEvents counts every live event down once and drops finished ones.
func (c *City) expireLiveEvents() {
	kept := c.LiveEvents[:0]
	for _, e := range c.LiveEvents {
		e.Remaining--
		if e.Remaining > 0 {
			kept = append(kept, e)
		}
	}
	c.LiveEvents = kept
}

func (c *City) adjustHappiness(delta int) {
	c.Happiness = economy.ClampPercent(c.Happiness + delta)
}

// Simulation ties together all city systems and runs them each day and year.
package engine

import (
	"log/slog"

	"github.com/talgya/gridcity/internal/economy"
	"github.com/talgya/gridcity/internal/world"
)

// YearReport summarizes one call to Advance.
type YearReport struct {
	CityID       string              `json:"city_id"`
	Year         int                 `json:"year"`
	Population   int                 `json:"population"`
	Happiness    int                 `json:"happiness"`
	Money        float64             `json:"money"`
	Income       float64             `json:"income"`
	Expenses     float64             `json:"expenses"`
	Multiplier   float64             `json:"multiplier"`
	Event        *EventRecord        `json:"event,omitempty"`
	Achievements []AchievementRecord `json:"achievements,omitempty"`
}

// Step runs one simulated day: power, lifecycle, traffic, daily economy,
// then disaster attrition. The order matters; lifecycle reads the powered
// set this day's search produced.
func (c *City) Step() {
	c.applyPower()
	c.updateBuildings()
	c.recomputeTraffic()
	c.applyDailyEconomy()
	c.tickDisasters()
}

// Advance runs a full simulated year and returns what happened in it.
func (c *City) Advance() YearReport {
	c.Year++
	for range economy.DaysPerYear {
		c.Step()
	}

	census := c.census()
	c.Population = economy.Population(census)
	c.Happiness = economy.Happiness(census, c.Population)

	c.expireLiveEvents()
	multiplier := c.IncomeMultiplier()
	income := economy.YearlyIncome(c.Population, c.Ledger.TaxRate, census) * multiplier
	c.Ledger.ApplyYear(income, c.monthlyExpenses())

	event := c.maybeRollEvent()
	unlocked := c.checkAchievements()

	slog.Info("year advanced",
		"city", c.ID,
		"year", c.Year,
		"population", c.Population,
		"happiness", c.Happiness,
		"money", int64(c.Ledger.Money),
		"multiplier", multiplier,
	)

	return YearReport{
		CityID:       c.ID,
		Year:         c.Year,
		Population:   c.Population,
		Happiness:    c.Happiness,
		Money:        c.Ledger.Money,
		Income:       c.Ledger.Income,
		Expenses:     c.Ledger.Expenses,
		Multiplier:   multiplier,
		Event:        event,
		Achievements: unlocked,
	}
}

// SetTaxRate changes the tax rate, clamped to [0, MaxTaxRate].
func (c *City) SetTaxRate(rate float64) {
	c.Ledger.SetTaxRate(rate)
	slog.Debug("tax rate set", "city", c.ID, "rate", c.Ledger.TaxRate)
}

func (c *City) applyDailyEconomy() {
	revenue := 0.0
	c.Grid.Each(func(p world.Position, o world.Occupant) {
		if c.stateAt(p) != ZonedOperating {
			return
		}
		switch o {
		case world.Residential:
			revenue += economy.RevenueResidential
		case world.Commercial:
			revenue += economy.RevenueCommercial
		case world.Industrial:
			revenue += economy.RevenueIndustrial
		}
	})
	c.Ledger.ApplyDay(revenue, c.annualMaintenance()/economy.DaysPerYear)
}

// annualMaintenance sums the yearly upkeep of every occupied cell.
func (c *City) annualMaintenance() float64 {
	total := 0.0
	c.Grid.Each(func(_ world.Position, o world.Occupant) {
		total += economy.Maintenance(o)
	})
	return total
}

func (c *City) monthlyExpenses() float64 {
	total := 0.0
	c.Grid.Each(func(_ world.Position, o world.Occupant) {
		total += economy.Maintenance(o) / economy.MonthsPerYear
	})
	return total
}

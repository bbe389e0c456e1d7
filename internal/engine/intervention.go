package engine

import (
	"fmt"
	"log/slog"
)

// Category used for operator interventions in the event history.
const CategoryIntervention EventCategory = "intervention"

// GrantFunds adds (or with a negative amount, removes) money from outside the
// simulation and logs it to the event history.
func (c *City) GrantFunds(amount float64, reason string) EventRecord {
	if reason == "" {
		reason = "Operator grant"
	}
	c.Ledger.Adjust(amount)
	rec := c.logIntervention(reason,
		fmt.Sprintf("The treasury receives $%.0f", amount),
		map[EffectKind]float64{EffectMoney: amount})
	slog.Info("funds intervention", "city", c.ID, "amount", amount, "money", c.Ledger.Money)
	return rec
}

// BoostIncome installs a live income multiplier applied to the next years
// yearly incomes.
func (c *City) BoostIncome(name string, multiplier float64, years int) (EventRecord, error) {
	if multiplier <= 0 {
		return EventRecord{}, fmt.Errorf("multiplier must be positive, got %v", multiplier)
	}
	if years <= 0 {
		return EventRecord{}, fmt.Errorf("duration must be positive, got %d", years)
	}
	if name == "" {
		name = "Economic Stimulus"
	}
	// Advance counts live events down before booking income, so the boost
	// needs one extra year to cover the current one.
	c.LiveEvents = append(c.LiveEvents, LiveEvent{Name: name, Multiplier: multiplier, Remaining: years + 1})
	rec := c.logIntervention(name,
		fmt.Sprintf("Income is multiplied by %.2f for %d years", multiplier, years),
		map[EffectKind]float64{EffectIncomeMultiplier: multiplier})
	slog.Info("boost intervention", "city", c.ID, "multiplier", multiplier, "years", years)
	return rec, nil
}

func (c *City) logIntervention(name, desc string, effects map[EffectKind]float64) EventRecord {
	rec := EventRecord{
		Year:        c.Year,
		Name:        name,
		Category:    CategoryIntervention,
		Description: desc,
		Effects:     effects,
	}
	c.EventHistory = append(c.EventHistory, rec)
	return rec
}

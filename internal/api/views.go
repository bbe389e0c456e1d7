package api

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/talgya/gridcity/internal/economy"
	"github.com/talgya/gridcity/internal/engine"
	"github.com/talgya/gridcity/internal/world"
)

// cellView is one grid cell as rendered by a client.
type cellView struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Display string `json:"display"`
	State   string `json:"state,omitempty"`
}

// cityView is the full public state of a city.
type cityView struct {
	ID               string                     `json:"id"`
	Name             string                     `json:"name"`
	Year             int                        `json:"year"`
	Population       int                        `json:"population"`
	PopulationLabel  string                     `json:"population_display"`
	Happiness        int                        `json:"happiness"`
	Money            float64                    `json:"money"`
	MoneyLabel       string                     `json:"money_display"`
	TaxRate          float64                    `json:"tax_rate"`
	Income           float64                    `json:"income"`
	Expenses         float64                    `json:"expenses"`
	DailyRevenue     float64                    `json:"daily_revenue"`
	DailyMaintenance float64                    `json:"daily_maintenance"`
	IncomeMultiplier float64                    `json:"income_multiplier"`
	Grid             [][]cellView               `json:"grid"`
	Stats            engine.Stats               `json:"stats"`
	LiveEvents       []engine.LiveEvent         `json:"live_events"`
	Disasters        []engine.Disaster          `json:"active_disasters"`
	RecentEvents     []engine.EventRecord       `json:"recent_events"`
	Achievements     []engine.AchievementRecord `json:"recent_achievements"`
	Unlocked         []string                   `json:"achievements"`
}

const recentLimit = 5

func newCityView(c *engine.City) cityView {
	grid := make([][]cellView, world.GridSize)
	for r := range grid {
		grid[r] = make([]cellView, world.GridSize)
		for col := range grid[r] {
			p := world.Pos(r, col)
			o := c.OccupantAt(p)
			cv := cellView{Type: o.Code(), Name: o.Name(), Display: string(o.Glyph())}
			if st, ok := c.StateAt(p); ok {
				cv.State = st.String()
			}
			grid[r][col] = cv
		}
	}

	events := c.EventHistory
	if len(events) > recentLimit {
		events = events[len(events)-recentLimit:]
	}
	unlocked := make([]string, 0, len(c.Unlocked))
	for id := range c.Unlocked {
		unlocked = append(unlocked, string(id))
	}
	sort.Strings(unlocked)

	return cityView{
		ID:               c.ID,
		Name:             c.Name,
		Year:             c.Year,
		Population:       c.Population,
		PopulationLabel:  humanize.Comma(int64(c.Population)),
		Happiness:        c.Happiness,
		Money:            c.Ledger.Money,
		MoneyLabel:       economy.FormatMoney(c.Ledger.Money),
		TaxRate:          c.Ledger.TaxRate,
		Income:           c.Ledger.Income,
		Expenses:         c.Ledger.Expenses,
		DailyRevenue:     c.Ledger.DailyRevenue,
		DailyMaintenance: c.Ledger.DailyMaintenance,
		IncomeMultiplier: c.IncomeMultiplier(),
		Grid:             grid,
		Stats:            c.Stats(),
		LiveEvents:       append([]engine.LiveEvent{}, c.LiveEvents...),
		Disasters:        append([]engine.Disaster{}, c.Disasters...),
		RecentEvents:     append([]engine.EventRecord{}, events...),
		Achievements:     c.RecentAchievements(recentLimit),
		Unlocked:         unlocked,
	}
}

// catalogEntry is one purchasable kind.
type catalogEntry struct {
	Type        string  `json:"type"`
	Name        string  `json:"name"`
	Display     string  `json:"display"`
	Action      string  `json:"action"` // "zone" or "build"
	Cost        float64 `json:"cost"`
	CostLabel   string  `json:"cost_display"`
	Maintenance float64 `json:"maintenance"`
}

func catalogView() []catalogEntry {
	out := make([]catalogEntry, 0, len(economy.Catalog))
	for kind, e := range economy.Catalog {
		action := "build"
		if economy.IsZoneKind(kind) {
			action = "zone"
		}
		out = append(out, catalogEntry{
			Type:        kind.Code(),
			Name:        kind.Name(),
			Display:     string(kind.Glyph()),
			Action:      action,
			Cost:        e.Cost,
			CostLabel:   economy.FormatMoney(e.Cost),
			Maintenance: e.Maintenance,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Action != out[j].Action {
			return out[i].Action > out[j].Action
		}
		if out[i].Cost != out[j].Cost {
			return out[i].Cost < out[j].Cost
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// parseKind accepts an occupant code ("R", "School", "PowerLine") or a
// display name in any case ("residential", "power plant").
func parseKind(s string) (world.Occupant, bool) {
	if o, ok := world.ParseOccupant(s); ok && o != world.Empty {
		return o, true
	}
	for kind := range economy.Catalog {
		if strings.EqualFold(kind.Code(), s) || strings.EqualFold(kind.Name(), s) {
			return kind, true
		}
	}
	return world.Empty, false
}

func fundsMessage(need, have float64) string {
	return fmt.Sprintf("insufficient funds: need %s, have %s", economy.FormatMoney(need), economy.FormatMoney(have))
}

package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/talgya/gridcity/internal/economy"
	"github.com/talgya/gridcity/internal/engine"
	"github.com/talgya/gridcity/internal/persistence"
	"github.com/talgya/gridcity/internal/world"
)

func printCity(c *engine.City) {
	name := c.Name
	if name == "" {
		name = "Unnamed city"
	}
	fmt.Printf("%s (%s), year %d\n", name, c.ID, c.Year)
	fmt.Println(strings.Repeat("=", len(name)+8))
	printGrid(c)
	fmt.Println()

	fmt.Printf("  Population:  %s\n", humanize.Comma(int64(c.Population)))
	fmt.Printf("  Happiness:   %d%%\n", c.Happiness)
	fmt.Printf("  Treasury:    %s\n", economy.FormatMoney(c.Ledger.Money))
	fmt.Printf("  Tax rate:    %.1f%%\n", c.Ledger.TaxRate*100)
	fmt.Printf("  Income:      %s/mo  (x%.2f)\n", economy.FormatMoney(c.Ledger.Income), c.IncomeMultiplier())
	fmt.Printf("  Expenses:    %s/mo\n", economy.FormatMoney(c.Ledger.Expenses))

	s := c.Stats()
	fmt.Printf("  Zones:       R %d  C %d  I %d  P %d\n", s.Residential, s.Commercial, s.Industrial, s.Parks)
	fmt.Printf("  Network:     %d roads, %d power lines, %d plants\n", s.Roads, s.PowerLines, s.PowerPlants)

	for _, e := range c.LiveEvents {
		fmt.Printf("  Live:        %s x%.2f (%d years left)\n", e.Name, e.Multiplier, e.Remaining)
	}
	for _, d := range c.Disasters {
		fmt.Printf("  Disaster:    %s at %v (%d days left)\n", d.Kind, d.Origin, d.Remaining)
	}
	if len(c.AchievementHistory) > 0 {
		fmt.Printf("  Achievements (%d):\n", len(c.AchievementHistory))
		for _, a := range c.AchievementHistory {
			fmt.Printf("    %s %s (year %d)\n", a.Icon, a.Name, a.Year)
		}
	}
}

// printGrid draws the occupant glyphs. Lifecycle state is shown as a suffix
// on zoned cells: + operating, ~ developing, x abandoned.
func printGrid(c *engine.City) {
	fmt.Print("     ")
	for col := range world.GridSize {
		fmt.Printf(" %d ", col)
	}
	fmt.Println()
	for row := range world.GridSize {
		fmt.Printf("  %d  ", row)
		for col := range world.GridSize {
			p := world.Pos(row, col)
			mark := ' '
			if st, ok := c.StateAt(p); ok {
				switch st {
				case engine.ZonedOperating:
					mark = '+'
				case engine.ZonedDeveloping:
					mark = '~'
				case engine.ZonedAbandoned:
					mark = 'x'
				}
			}
			fmt.Printf(" %c%c", c.OccupantAt(p).Glyph(), mark)
		}
		fmt.Println()
	}
}

func printReport(r engine.YearReport) {
	fmt.Printf("Year %3d  pop %6s  happy %3d  money %12s  income %10s  x%.2f",
		r.Year, humanize.Comma(int64(r.Population)), r.Happiness,
		economy.FormatMoney(r.Money), economy.FormatMoney(r.Income), r.Multiplier)
	if r.Event != nil {
		fmt.Printf("  [%s] %s", r.Event.Category, r.Event.Name)
	}
	fmt.Println()
	for _, a := range r.Achievements {
		fmt.Printf("          %s Achievement unlocked: %s\n", a.Icon, a.Name)
	}
}

func printEvents(events []engine.EventRecord) {
	if len(events) == 0 {
		return
	}
	fmt.Println()
	fmt.Printf("Events (%d):\n", len(events))
	for _, e := range events {
		fmt.Printf("  year %3d  %-10s %s: %s\n", e.Year, e.Category, e.Name, e.Description)
	}
}

func printSaves(saves []persistence.SaveInfo) {
	if len(saves) == 0 {
		fmt.Println("No database saves.")
		return
	}
	fmt.Printf("Database saves (%d):\n", len(saves))
	for _, s := range saves {
		fmt.Printf("  %s  %-20s year %3d  pop %6s  %12s  saved %s\n",
			s.ID, s.Name, s.Year, humanize.Comma(int64(s.Population)),
			economy.FormatMoney(s.Money), humanize.Time(s.SavedAt))
	}
}

func printSaveFiles(headers []persistence.SaveHeader, paths []string) {
	if len(headers) == 0 {
		return
	}
	fmt.Printf("\nSave files (%d):\n", len(headers))
	for i, h := range headers {
		fmt.Printf("  %-30s %-20s year %3d\n", paths[i], h.Name, h.Year)
	}
}

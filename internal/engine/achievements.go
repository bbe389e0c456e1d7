package engine

import (
	"log/slog"
)

// AchievementID identifies a catalog achievement.
type AchievementID string

// AchievementKind selects the predicate an achievement is judged by.
type AchievementKind uint8

const (
	PopulationAtLeast AchievementKind = iota
	HappinessAtLeast
	MoneyAtLeast
	YearAtLeast
	CountAtLeast // Subject names which Stats counter
	NoVacancy    // every cell occupied
)

// Counters an achievement of kind CountAtLeast can refer to.
const (
	SubjectZones      = "zones"
	SubjectPowerLines = "power_lines"
	SubjectRoads      = "roads"
	SubjectSchools    = "schools"
	SubjectParks      = "parks"
	SubjectIndustrial = "industrial"
)

// Achievement is one row of the achievement catalog.
type Achievement struct {
	ID          AchievementID   `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	Kind        AchievementKind `json:"kind"`
	Subject     string          `json:"subject,omitempty"`
	Threshold   float64         `json:"threshold"`
	Bonus       float64         `json:"bonus,omitempty"`
}

// achievementCatalog is the static catalog, evaluated in this order.
var achievementCatalog = []Achievement{
	{ID: "first_zone", Name: "Urban Planner", Description: "Zone your first parcel", Icon: "🏗️", Kind: CountAtLeast, Subject: SubjectZones, Threshold: 1},
	{ID: "first_power", Name: "Let There Be Light", Description: "Lay your first power line", Icon: "💡", Kind: CountAtLeast, Subject: SubjectPowerLines, Threshold: 1},
	{ID: "road_builder", Name: "Road Builder", Description: "Build 5 road tiles", Icon: "🛣️", Kind: CountAtLeast, Subject: SubjectRoads, Threshold: 5},
	{ID: "village", Name: "Village", Description: "Reach a population of 100", Icon: "🏘️", Kind: PopulationAtLeast, Threshold: 100},
	{ID: "town", Name: "Town", Description: "Reach a population of 500", Icon: "🏙️", Kind: PopulationAtLeast, Threshold: 500},
	{ID: "city", Name: "Metropolis", Description: "Reach a population of 1000", Icon: "🌆", Kind: PopulationAtLeast, Threshold: 1000, Bonus: 5000},
	{ID: "happy", Name: "Happy Citizens", Description: "Reach 80% happiness", Icon: "😊", Kind: HappinessAtLeast, Threshold: 80},
	{ID: "educated", Name: "Educated City", Description: "Build 2 schools", Icon: "🎓", Kind: CountAtLeast, Subject: SubjectSchools, Threshold: 2},
	{ID: "green", Name: "Green City", Description: "Zone 5 parks", Icon: "🌳", Kind: CountAtLeast, Subject: SubjectParks, Threshold: 5},
	{ID: "industrialist", Name: "Industrialist", Description: "Zone 5 industrial parcels", Icon: "🏭", Kind: CountAtLeast, Subject: SubjectIndustrial, Threshold: 5},
	{ID: "decade", Name: "Decade of Progress", Description: "Reach year 10", Icon: "📅", Kind: YearAtLeast, Threshold: 10, Bonus: 2000},
	{ID: "no_vacancy", Name: "No Vacancy", Description: "Fill every cell of the grid", Icon: "🚫", Kind: NoVacancy, Bonus: 3000},
	{ID: "wealthy", Name: "Wealthy City", Description: "Hold $50,000 in the treasury", Icon: "💰", Kind: MoneyAtLeast, Threshold: 50000, Bonus: 2500},
}

// Achievements returns a copy of the achievement catalog in evaluation order.
func Achievements() []Achievement {
	return append([]Achievement(nil), achievementCatalog...)
}

// LookupAchievement finds a catalog entry by id.
func LookupAchievement(id AchievementID) (Achievement, bool) {
	for _, a := range achievementCatalog {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// CityView is the read-only aggregate state achievements are judged on.
type CityView struct {
	Population int
	Happiness  int
	Money      float64
	Year       int
	Stats      Stats
}

func (v CityView) count(subject string) int {
	s := v.Stats
	switch subject {
	case SubjectZones:
		return s.Residential + s.Commercial + s.Industrial + s.Parks
	case SubjectPowerLines:
		return s.PowerLines
	case SubjectRoads:
		return s.Roads
	case SubjectSchools:
		return s.Schools
	case SubjectParks:
		return s.Parks
	case SubjectIndustrial:
		return s.Industrial
	}
	return 0
}

// Satisfied reports whether a's predicate holds for v.
func Satisfied(a Achievement, v CityView) bool {
	switch a.Kind {
	case PopulationAtLeast:
		return float64(v.Population) >= a.Threshold
	case HappinessAtLeast:
		return float64(v.Happiness) >= a.Threshold
	case MoneyAtLeast:
		return v.Money >= a.Threshold
	case YearAtLeast:
		return float64(v.Year) >= a.Threshold
	case CountAtLeast:
		return float64(v.count(a.Subject)) >= a.Threshold
	case NoVacancy:
		return v.Stats.EmptyCells == 0
	}
	return false
}

// AchievementRecord is one unlock in the achievement history.
type AchievementRecord struct {
	ID   AchievementID `json:"id"`
	Name string        `json:"name"`
	Icon string        `json:"icon"`
	Year int           `json:"year"`
}

// View captures the aggregates achievements are judged on.
func (c *City) View() CityView {
	return CityView{
		Population: c.Population,
		Happiness:  c.Happiness,
		Money:      c.Ledger.Money,
		Year:       c.Year,
		Stats:      c.Stats(),
	}
}

// checkAchievements unlocks every newly satisfied achievement once and pays
// its bonus. Bonuses paid here do not feed back into this pass.
func (c *City) checkAchievements() []AchievementRecord {
	view := c.View()
	var unlocked []AchievementRecord
	for _, a := range achievementCatalog {
		if c.Unlocked[a.ID] || !Satisfied(a, view) {
			continue
		}
		c.Unlocked[a.ID] = true
		rec := AchievementRecord{ID: a.ID, Name: a.Name, Icon: a.Icon, Year: c.Year}
		c.AchievementHistory = append(c.AchievementHistory, rec)
		unlocked = append(unlocked, rec)
		if a.Bonus > 0 {
			c.Ledger.Adjust(a.Bonus)
		}
		slog.Info("achievement unlocked", "city", c.ID, "id", a.ID, "year", c.Year, "bonus", a.Bonus)
	}
	return unlocked
}

// RecentAchievements returns up to n of the latest unlocks, oldest first.
func (c *City) RecentAchievements(n int) []AchievementRecord {
	if n <= 0 {
		return nil
	}
	h := c.AchievementHistory
	if len(h) > n {
		h = h[len(h)-n:]
	}
	out := make([]AchievementRecord, len(h))
	copy(out, h)
	return out
}

package economy

// Per-unit constants for the population and happiness formulas.
const (
	ResidentsPerZone     = 100
	JobsPerCommercial    = 50
	JobsPerIndustrial    = 75
	BaseHappiness        = 50
	OvercrowdThreshold   = 0.8
	OvercrowdPenaltyRate = 20

	RevenueResidential = 5.0
	RevenueCommercial  = 15.0
	RevenueIndustrial  = 20.0

	TaxIncomeFactor  = 10.0
	CommercialIncome = 200.0
	IndustrialIncome = 300.0
	DaysPerYear      = 365
	MonthsPerYear    = 12
)

// Census is the per-kind cell count that drives the yearly aggregates.
type Census struct {
	Residential int `json:"residential"`
	Commercial  int `json:"commercial"`
	Industrial  int `json:"industrial"`
	Parks       int `json:"parks"`
	Schools     int `json:"schools"`
	Hospitals   int `json:"hospitals"`
	PowerPlants int `json:"power_plants"`
}

// Capacity is the housing capacity of all residential zones.
func (c Census) Capacity() int {
	return c.Residential * ResidentsPerZone
}

// Jobs is the number of jobs offered by commercial and industrial zones.
func (c Census) Jobs() int {
	return c.Commercial*JobsPerCommercial + c.Industrial*JobsPerIndustrial
}

// Population is limited by housing and jobs. With no jobs a quarter of
// capacity still lives in the city.
func Population(c Census) int {
	jobs := c.Jobs()
	capacity := c.Capacity()
	switch {
	case jobs == 0 && capacity == 0:
		return 0
	case jobs == 0:
		return min(capacity/4, capacity)
	default:
		return min(capacity, jobs)
	}
}

// Happiness scores amenities against industry and overcrowding, in [0, 100].
// An empty city is neutral.
func Happiness(c Census, population int) int {
	if population == 0 {
		return BaseHappiness
	}

	h := BaseHappiness
	h += c.Schools * 10
	h += c.Hospitals * 8
	h += c.Parks * 12
	h += c.PowerPlants * 5
	h -= c.Industrial * 3

	if capacity := c.Capacity(); capacity > 0 {
		density := float64(population) / float64(capacity)
		if density > OvercrowdThreshold {
			h -= int((density - OvercrowdThreshold) * OvercrowdPenaltyRate)
		}
	}

	return ClampPercent(h)
}

// YearlyIncome is the monthly tax and business income before multipliers.
func YearlyIncome(population int, taxRate float64, c Census) float64 {
	return float64(population)*taxRate*TaxIncomeFactor +
		CommercialIncome*float64(c.Commercial) +
		IndustrialIncome*float64(c.Industrial)
}

// ClampPercent clamps v to [0, 100].
func ClampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

package economy

import "github.com/dustin/go-humanize"

// Default ledger values for a new city.
const (
	DefaultMoney   = 10000.0
	DefaultTaxRate = 0.05
	MaxTaxRate     = 0.5
)

// Ledger holds the city's money and the most recent income/expense figures.
type Ledger struct {
	Money            float64 `json:"money"`
	TaxRate          float64 `json:"tax_rate"`
	Income           float64 `json:"income"`            // last yearly income (monthly figure)
	Expenses         float64 `json:"expenses"`          // last yearly expenses (monthly figure)
	DailyRevenue     float64 `json:"daily_revenue"`     // last simulated day
	DailyMaintenance float64 `json:"daily_maintenance"` // last simulated day
}

// NewLedger returns a ledger with the default starting balance and tax rate.
func NewLedger() Ledger {
	return Ledger{Money: DefaultMoney, TaxRate: DefaultTaxRate}
}

// CanAfford reports whether the balance covers cost.
func (l *Ledger) CanAfford(cost float64) bool {
	return l.Money >= cost
}

// Debit subtracts cost if affordable. Returns false and leaves the ledger
// untouched otherwise.
func (l *Ledger) Debit(cost float64) bool {
	if !l.CanAfford(cost) {
		return false
	}
	l.Money -= cost
	return true
}

// Adjust adds delta (possibly negative), flooring the balance at 0.
func (l *Ledger) Adjust(delta float64) {
	l.Money += delta
	if l.Money < 0 {
		l.Money = 0
	}
}

// SetTaxRate clamps rate to [0, MaxTaxRate].
func (l *Ledger) SetTaxRate(rate float64) {
	switch {
	case rate < 0:
		rate = 0
	case rate > MaxTaxRate:
		rate = MaxTaxRate
	}
	l.TaxRate = rate
}

// ApplyDay records one day of revenue and upkeep and books the net.
func (l *Ledger) ApplyDay(revenue, maintenance float64) {
	l.DailyRevenue = revenue
	l.DailyMaintenance = maintenance
	l.Adjust(revenue - maintenance)
}

// ApplyYear records the monthly income/expense figures and books twelve months.
func (l *Ledger) ApplyYear(income, expenses float64) {
	l.Income = income
	l.Expenses = expenses
	l.Adjust(12 * (income - expenses))
}

// FormatMoney renders whole dollars with thousands separators, e.g. "$12,500".
func FormatMoney(v float64) string {
	return "$" + humanize.Commaf(float64(int64(v)))
}

package bond

import (
	"time"

	"github.com/meenmo/autocall/curve"
)

// Cashflow is a single dated cash payment for a bond.
//
// Amounts are in currency units (e.g., EUR), not price-per-100.
type Cashflow struct {
	Date      time.Time
	Coupon    float64
	Principal float64
}

func (c Cashflow) Amount() float64 {
	return c.Coupon + c.Principal
}

// PresentValue discounts every cashflow paid on or after the settlement date.
func PresentValue(cfs []Cashflow, disc curve.DiscountCurve, settlement time.Time) float64 {
	pv := 0.0
	for _, cf := range cfs {
		if cf.Date.Before(settlement) {
			continue
		}
		pv += cf.Amount() * disc.DF(cf.Date)
	}
	return pv
}

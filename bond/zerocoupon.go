package bond

import (
	"fmt"
	"time"

	"github.com/meenmo/autocall/calendar"
	"github.com/meenmo/autocall/curve"
	"github.com/meenmo/autocall/utils"
)

// ZeroCouponBond pays FaceAmount * Redemption/100 on the business-day
// adjusted maturity date.
type ZeroCouponBond struct {
	Calendar     calendar.CalendarID
	FaceAmount   float64
	MaturityDate time.Time
	// Redemption is quoted per 100 of face; zero means par.
	Redemption float64
	IssueDate  time.Time
}

// PaymentDate is the maturity rolled with the Following convention.
func (b ZeroCouponBond) PaymentDate() time.Time {
	return calendar.AdjustFollowing(b.Calendar, b.MaturityDate)
}

// Cashflows returns the single redemption cashflow.
func (b ZeroCouponBond) Cashflows() []Cashflow {
	redemption := b.Redemption
	if redemption == 0 {
		redemption = 100
	}
	return []Cashflow{{
		Date:      b.PaymentDate(),
		Principal: b.FaceAmount * redemption / 100,
	}}
}

func (b ZeroCouponBond) validate() error {
	if b.FaceAmount <= 0 {
		return fmt.Errorf("face amount must be positive")
	}
	if b.MaturityDate.IsZero() {
		return fmt.Errorf("maturity date is required")
	}
	if !b.IssueDate.IsZero() && !b.MaturityDate.After(b.IssueDate) {
		return fmt.Errorf("maturity %s must be after issue %s", b.MaturityDate.Format(utils.DateLayout), b.IssueDate.Format(utils.DateLayout))
	}
	return nil
}

// NPV discounts the redemption to the curve reference date.
func (b ZeroCouponBond) NPV(disc curve.DiscountCurve) (float64, error) {
	if disc == nil {
		return 0, fmt.Errorf("ZeroCouponBond.NPV: discount curve is required")
	}
	if err := b.validate(); err != nil {
		return 0, fmt.Errorf("ZeroCouponBond.NPV: %w", err)
	}
	return PresentValue(b.Cashflows(), disc, disc.ReferenceDate()), nil
}

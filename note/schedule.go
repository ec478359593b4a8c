package note

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/autocall/bond"
	"github.com/meenmo/autocall/calendar"
	"github.com/meenmo/autocall/curve"
	"github.com/meenmo/autocall/errs"
	"github.com/meenmo/autocall/utils"
)

// Schedule is the ordered list of repayments plus the constants of the
// capital-loss formula at maturity.
type Schedule struct {
	Repayments []Repayment
	// Participation scales the loss below the barrier.
	Participation float64
	// InitialLevel is the reference level of the loss formula, normally
	// the strike.
	InitialLevel float64
	TerminalRule TerminalRule

	enriched bool
}

// Validate checks the structural invariants: chronological payment dates,
// exactly one terminal entry and it comes last, non-empty chronological
// observation windows no later than their payment dates.
func (s Schedule) Validate() error {
	if len(s.Repayments) == 0 {
		return errs.Precondition("Schedule.Validate: no repayments")
	}
	if !(s.InitialLevel > 0) {
		return errs.Precondition("Schedule.Validate: initial level %v must be positive", s.InitialLevel)
	}
	if s.Participation < 0 || !errs.Finite(s.Participation) {
		return errs.Precondition("Schedule.Validate: participation %v must be non-negative", s.Participation)
	}
	if !s.TerminalRule.valid() {
		return errs.Precondition("Schedule.Validate: %v", s.TerminalRule)
	}

	terminals := 0
	for i, r := range s.Repayments {
		if r.Terminal {
			terminals++
			if i != len(s.Repayments)-1 {
				return errs.Precondition("Schedule.Validate: terminal entry at %d is not last", i)
			}
		} else if !r.Trigger.valid() {
			return errs.Precondition("Schedule.Validate: entry %d: %v", i, r.Trigger)
		}
		if i > 0 && !r.PaymentDate.After(s.Repayments[i-1].PaymentDate) {
			return errs.Precondition("Schedule.Validate: payment date %s not after %s",
				r.PaymentDate.Format(utils.DateLayout), s.Repayments[i-1].PaymentDate.Format(utils.DateLayout))
		}
		if !r.FaceAmount.IsPositive() {
			return errs.Precondition("Schedule.Validate: entry %d face amount %s must be positive", i, r.FaceAmount)
		}
		if r.Coupon.IsNegative() {
			return errs.Precondition("Schedule.Validate: entry %d coupon %s is negative", i, r.Coupon)
		}
		if !(r.ExerciseLevel > 0) {
			return errs.Precondition("Schedule.Validate: entry %d level %v must be positive", i, r.ExerciseLevel)
		}
		if len(r.ObservationDates) == 0 {
			return errs.Precondition("Schedule.Validate: entry %d has no observation dates", i)
		}
		if !utils.IsChronological(r.ObservationDates) {
			return errs.Precondition("Schedule.Validate: entry %d observation dates are not chronological", i)
		}
		if last := r.ObservationDates[len(r.ObservationDates)-1]; last.After(r.PaymentDate) {
			return errs.Precondition("Schedule.Validate: entry %d observed %s after payment %s", i,
				last.Format(utils.DateLayout), r.PaymentDate.Format(utils.DateLayout))
		}
	}
	if terminals != 1 {
		return errs.Precondition("Schedule.Validate: %d terminal entries, want exactly one", terminals)
	}
	return nil
}

// Early returns the early-call entries in chronological order.
func (s Schedule) Early() []Repayment {
	return s.Repayments[:len(s.Repayments)-1]
}

// Final returns the terminal entry. The schedule must be valid.
func (s Schedule) Final() Repayment {
	return s.Repayments[len(s.Repayments)-1]
}

// BarrierLevel is the terminal entry's level.
func (s Schedule) BarrierLevel() float64 { return s.Final().ExerciseLevel }

// Enriched reports whether present values have been attached.
func (s Schedule) Enriched() bool { return s.enriched }

// Valuation carries the collaborators used to value the schedule once,
// before simulation, as of an explicit settlement date.
type Valuation struct {
	Settlement time.Time
	// BondCurve discounts the face amounts.
	BondCurve curve.DiscountCurve
	// CouponCurve discounts the coupons (OIS).
	CouponCurve curve.DiscountCurve
	Calendar    calendar.CalendarID
	// DayCount maps observation dates to simulation time; ACT/365F when
	// empty.
	DayCount string
}

// Enrich validates the schedule and returns a copy with the present value,
// coupon PV and observation times of every entry filled in. The receiver is
// not modified.
func (s Schedule) Enrich(v Valuation) (Schedule, error) {
	if err := s.Validate(); err != nil {
		return Schedule{}, err
	}
	if v.Settlement.IsZero() {
		return Schedule{}, errs.Precondition("Schedule.Enrich: settlement date is required")
	}
	if v.BondCurve == nil || v.CouponCurve == nil {
		return Schedule{}, errs.Precondition("Schedule.Enrich: bond and coupon curves are required")
	}
	dayCount := v.DayCount
	if dayCount == "" {
		dayCount = utils.Act365F
	}

	out := s
	out.Repayments = make([]Repayment, len(s.Repayments))
	for i, r := range s.Repayments {
		r = r.clone()
		if r.ObservationDates[0].Before(v.Settlement) {
			return Schedule{}, errs.Precondition("Schedule.Enrich: entry %d observed %s before settlement %s", i,
				r.ObservationDates[0].Format(utils.DateLayout), v.Settlement.Format(utils.DateLayout))
		}

		zcb := bond.ZeroCouponBond{
			Calendar:     v.Calendar,
			FaceAmount:   r.FaceAmount.InexactFloat64(),
			MaturityDate: r.PaymentDate,
			IssueDate:    v.Settlement,
		}
		value, err := zcb.NPV(v.BondCurve)
		if err != nil {
			return Schedule{}, fmt.Errorf("Schedule.Enrich: entry %d: %w", i, err)
		}
		couponPV := r.Coupon.InexactFloat64() * v.CouponCurve.DF(zcb.PaymentDate())
		if !errs.Finite(value) || !errs.Finite(couponPV) {
			return Schedule{}, errs.Degenerate("Schedule.Enrich: entry %d present value", i)
		}

		r.value = value
		r.couponPV = couponPV
		r.observationTimes = utils.YearFractions(v.Settlement, r.ObservationDates, dayCount)
		out.Repayments[i] = r
	}
	out.enriched = true
	return out, nil
}

// Bounds returns the smallest and largest discounted payoff any path can
// produce under the schedule. Only meaningful once enriched.
func (s Schedule) Bounds() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, r := range s.Early() {
		lo = math.Min(lo, r.CallValue())
		hi = math.Max(hi, r.CallValue())
	}
	final := s.Final()
	floor := final.Value() * (1 - s.Participation)
	lo = math.Min(lo, math.Min(floor, final.CallValue()))
	hi = math.Max(hi, final.CallValue())
	// With the barrier above the initial level the loss formula can pay more
	// than the face amount.
	if s.BarrierLevel() > s.InitialLevel {
		hi = math.Max(hi, final.Value()*(1-s.Participation*(1-s.BarrierLevel()/s.InitialLevel)))
	}
	return lo, hi
}

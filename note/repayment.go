// Package note is the term-sheet model of an autocallable certificate:
// repayment entries, their trigger rules, schedule validation and the
// present-value enrichment done once before simulation.
package note

import (
	"time"

	"github.com/shopspring/decimal"
)

// Repayment is one schedule entry. The exported fields are the static
// contract terms; the present values and observation times are filled by
// Schedule.Enrich and read-only afterwards.
type Repayment struct {
	FaceAmount       decimal.Decimal
	Coupon           decimal.Decimal
	ObservationDates []time.Time
	// ExerciseLevel is the call trigger level for early entries and the
	// barrier level for the terminal entry.
	ExerciseLevel float64
	PaymentDate   time.Time
	Trigger       TriggerRule
	Terminal      bool

	value            float64
	couponPV         float64
	observationTimes []float64
}

// Value is the present value of the face amount paid on the payment date.
func (r Repayment) Value() float64 { return r.value }

// CouponPV is the coupon discounted from the payment date.
func (r Repayment) CouponPV() float64 { return r.couponPV }

// ObservationTimes are the observation dates as year fractions from the
// settlement date.
func (r Repayment) ObservationTimes() []float64 {
	return append([]float64(nil), r.observationTimes...)
}

// CallValue is what the entry pays when triggered, already discounted.
func (r Repayment) CallValue() float64 { return r.value + r.couponPV }

func (r Repayment) clone() Repayment {
	c := r
	c.ObservationDates = append([]time.Time(nil), r.ObservationDates...)
	c.observationTimes = append([]float64(nil), r.observationTimes...)
	return c
}

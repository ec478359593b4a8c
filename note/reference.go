package note

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo/autocall/utils"
)

// Reference certificate terms, per 1000 of face.
var (
	ReferenceFace        = decimal.NewFromInt(1000)
	ReferenceCouponStep  = decimal.NewFromInt(58)
	ReferenceBarrierPct  = decimal.NewFromInt(60)
	ReferenceExercisePct = decimal.NewFromInt(100)
)

// ReferenceCertificate returns the three-year autocallable certificate
// struck at strike: three yearly call windows of five observations each,
// coupons growing by ReferenceCouponStep per period, and a 60% barrier
// observed on 1 March 2021.
func ReferenceCertificate(strike float64) Schedule {
	d := utils.MustDate
	windows := [][]time.Time{
		{d(2018, time.February, 21), d(2018, time.February, 22), d(2018, time.February, 23), d(2018, time.February, 26), d(2018, time.February, 27)},
		{d(2019, time.February, 20), d(2019, time.February, 21), d(2019, time.February, 22), d(2019, time.February, 25), d(2019, time.February, 26)},
		{d(2020, time.February, 20), d(2020, time.February, 21), d(2020, time.February, 24), d(2020, time.February, 25), d(2020, time.February, 26)},
	}
	payments := []time.Time{
		d(2018, time.March, 5),
		d(2019, time.March, 4),
		d(2020, time.March, 3),
	}

	hundred := decimal.NewFromInt(100)
	exercise := ReferenceExercisePct.Div(hundred).InexactFloat64() * strike
	barrier := ReferenceBarrierPct.Div(hundred).InexactFloat64() * strike

	repayments := make([]Repayment, 0, len(windows)+1)
	for i, w := range windows {
		repayments = append(repayments, Repayment{
			FaceAmount:       ReferenceFace,
			Coupon:           ReferenceCouponStep.Mul(decimal.NewFromInt(int64(i))),
			ObservationDates: w,
			ExerciseLevel:    exercise,
			PaymentDate:      payments[i],
			Trigger:          AnyDate,
		})
	}
	repayments = append(repayments, Repayment{
		FaceAmount:       ReferenceFace,
		Coupon:           ReferenceCouponStep.Mul(decimal.NewFromInt(int64(len(windows)))),
		ObservationDates: []time.Time{d(2021, time.March, 1)},
		ExerciseLevel:    barrier,
		PaymentDate:      d(2021, time.March, 3),
		Terminal:         true,
	})

	return Schedule{
		Repayments:    repayments,
		Participation: 1,
		InitialLevel:  strike,
		TerminalRule:  TerminalAverage,
	}
}

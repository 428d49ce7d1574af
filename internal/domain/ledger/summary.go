package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContractSnapshot is the slice of a contract the summary fold needs.
// PendingSchedule carries only entries still PENDING.
type ContractSnapshot struct {
	Principal           decimal.Decimal
	OpenPrincipal       decimal.Decimal
	InterestRatePercent decimal.Decimal
	AccruedFee          decimal.Decimal
	Periodicity         Periodicity
	Settled             bool
	DueDate             time.Time
	PendingSchedule     []ScheduleEntry
}

// PaymentSnapshot is one received payment inside the summary range, tagged
// with the periodicity of its contract for bucketing.
type PaymentSnapshot struct {
	Periodicity  Periodicity
	AmountPaid   decimal.Decimal
	AllocatedFee decimal.Decimal
	PaidAt       time.Time
}

type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// PeriodicityBuckets is a per-periodicity breakdown of a total.
type PeriodicityBuckets struct {
	Daily   decimal.Decimal
	Weekly  decimal.Decimal
	Monthly decimal.Decimal
}

func (b *PeriodicityBuckets) add(p Periodicity, amount decimal.Decimal) {
	switch p {
	case PeriodicityDaily:
		b.Daily = b.Daily.Add(amount)
	case PeriodicityWeekly:
		b.Weekly = b.Weekly.Add(amount)
	case PeriodicityMonthly:
		b.Monthly = b.Monthly.Add(amount)
	}
}

// Summary is the dashboard aggregate: capital currently lent, receivables,
// expectations inside the range, and money actually received, each with its
// sub-breakdown.
type Summary struct {
	TotalLent         decimal.Decimal
	LentByPeriodicity PeriodicityBuckets

	InterestAndFeesReceivable decimal.Decimal
	InterestReceivable        decimal.Decimal
	FeesReceivable            decimal.Decimal

	TotalExpected        decimal.Decimal
	ExpectedInstallments decimal.Decimal
	ExpectedMonthly      decimal.Decimal

	TotalReceived           decimal.Decimal
	ReceivedViaInstallments decimal.Decimal
	ReceivedViaMonthly      decimal.Decimal
	ReceivedViaFees         decimal.Decimal
}

func zeroSummary() Summary {
	z := decimal.Zero
	return Summary{
		TotalLent:                 z,
		LentByPeriodicity:         PeriodicityBuckets{Daily: z, Weekly: z, Monthly: z},
		InterestAndFeesReceivable: z,
		InterestReceivable:        z,
		FeesReceivable:            z,
		TotalExpected:             z,
		ExpectedInstallments:      z,
		ExpectedMonthly:           z,
		TotalReceived:             z,
		ReceivedViaInstallments:   z,
		ReceivedViaMonthly:        z,
		ReceivedViaFees:           z,
	}
}

// Summarize folds contracts and the payments received inside the range into
// the dashboard totals. Each contract and payment contributes independently;
// the fold is order-insensitive and therefore additive over disjoint sets.
func Summarize(contracts []ContractSnapshot, payments []PaymentSnapshot, dateRange DateRange) (Summary, error) {
	s := zeroSummary()

	for _, c := range contracts {
		if c.Settled {
			continue
		}

		s.TotalLent = s.TotalLent.Add(c.OpenPrincipal)
		s.LentByPeriodicity.add(c.Periodicity, c.OpenPrincipal)

		s.FeesReceivable = s.FeesReceivable.Add(c.AccruedFee)

		switch c.Periodicity {
		case PeriodicityMonthly:
			interest, err := CycleInterestDue(c.Principal, c.InterestRatePercent)
			if err != nil {
				return Summary{}, err
			}
			s.InterestReceivable = s.InterestReceivable.Add(interest)
			if dateRange.Contains(c.DueDate) {
				s.ExpectedMonthly = s.ExpectedMonthly.Add(interest).Add(c.AccruedFee)
			}
		default:
			for _, entry := range c.PendingSchedule {
				s.InterestReceivable = s.InterestReceivable.Add(entry.Amount)
				s.FeesReceivable = s.FeesReceivable.Add(entry.Fee)
				if dateRange.Contains(entry.DueDate) {
					s.ExpectedInstallments = s.ExpectedInstallments.Add(entry.Amount).Add(entry.Fee)
				}
			}
		}
	}

	for _, p := range payments {
		if !dateRange.Contains(p.PaidAt) {
			continue
		}
		s.TotalReceived = s.TotalReceived.Add(p.AmountPaid)
		s.ReceivedViaFees = s.ReceivedViaFees.Add(p.AllocatedFee)

		net := p.AmountPaid.Sub(p.AllocatedFee)
		if p.Periodicity == PeriodicityMonthly {
			s.ReceivedViaMonthly = s.ReceivedViaMonthly.Add(net)
		} else {
			s.ReceivedViaInstallments = s.ReceivedViaInstallments.Add(net)
		}
	}

	s.InterestAndFeesReceivable = s.InterestReceivable.Add(s.FeesReceivable)
	s.TotalExpected = s.ExpectedInstallments.Add(s.ExpectedMonthly)

	return s, nil
}

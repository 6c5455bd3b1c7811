// Package billing implements the membership lifecycle and fee calculator:
// expiry date arithmetic, tiered fee totals, and status derivation. All
// functions are pure; persistence and notification are the caller's concern.
package billing

import (
	"time"

	"github.com/gymdesk/backend/internal/models"
)

// ComputeExpiry derives the expiry date for a membership starting at start.
// Daily passes expire exactly one calendar day later. Every other period
// advances the month by the period's multiplier; when the target month is
// shorter than start's day-of-month, the day clamps to the last valid day
// (Jan 31 + 1 month = Feb 28/29, never Mar 2).
func ComputeExpiry(start time.Time, period FeePeriod) time.Time {
	if period.IsDailyPass {
		return start.AddDate(0, 0, 1)
	}
	return addMonthsClamped(start, period.MonthMultiplier)
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := target.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// ComputeTotalFee derives the total amount due in integer currency units.
// Daily passes charge the period fee alone; the admission fee is waived no
// matter what was passed. Negative inputs are treated as zero so the result
// is never negative.
func ComputeTotalFee(admissionFee, periodFee int64, period FeePeriod) int64 {
	if admissionFee < 0 {
		admissionFee = 0
	}
	if periodFee < 0 {
		periodFee = 0
	}
	if period.IsDailyPass {
		return periodFee
	}
	return admissionFee + periodFee*int64(period.MonthMultiplier)
}

// ResolveStatus derives the member status from the stored dates. It is called
// fresh wherever status is displayed or gated on, so a record persisted as
// active yesterday reads back as expired today without any write. Missing
// dates mean registration was never finalized: pending.
//
// Comparison is at calendar-day granularity; the expiry day itself still
// counts as active.
func ResolveStatus(now time.Time, joiningDate, expiryDate *time.Time) models.MemberStatus {
	if joiningDate == nil || expiryDate == nil {
		return models.MemberStatusPending
	}
	if dateOnly(now).After(dateOnly(*expiryDate)) {
		return models.MemberStatusExpired
	}
	return models.MemberStatusActive
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Calculator composes the pure billing rules over an injected catalog.
type Calculator struct {
	catalog Catalog
}

// NewCalculator creates a calculator bound to the given catalog.
func NewCalculator(catalog Catalog) *Calculator {
	return &Calculator{catalog: catalog}
}

// Catalog exposes the bound catalog for listing endpoints.
func (c *Calculator) Catalog() Catalog {
	return c.catalog
}

// Register derives the billing fields for a first registration: joining and
// expiry dates, and the total fee including the one-time admission charge
// (waived for daily passes). The input member is not mutated.
func (c *Calculator) Register(m models.Member, start time.Time, admissionFee int64) (models.Member, error) {
	plan, err := c.catalog.Plan(m.PlanSlug)
	if err != nil {
		return models.Member{}, err
	}
	period, err := c.catalog.Period(m.PeriodSlug)
	if err != nil {
		return models.Member{}, err
	}

	expiry := ComputeExpiry(start, period)
	m.JoiningDate = &start
	m.ExpiryDate = &expiry
	m.Fee = ComputeTotalFee(admissionFee, plan.BaseFee, period)
	m.Status = ResolveStatus(start, m.JoiningDate, m.ExpiryDate)
	return m, nil
}

// ChangePlan re-prices an existing membership after an edit to its plan or
// fee period. The one-time admission fee is not charged again and the joining
// date stays put; the expiry date and fee are re-derived under the new
// plan/period. A member without a joining date keeps a nil expiry.
func (c *Calculator) ChangePlan(m models.Member, planSlug, periodSlug string) (models.Member, error) {
	plan, err := c.catalog.Plan(planSlug)
	if err != nil {
		return models.Member{}, err
	}
	period, err := c.catalog.Period(periodSlug)
	if err != nil {
		return models.Member{}, err
	}

	m.PlanSlug = planSlug
	m.PeriodSlug = periodSlug
	m.Fee = ComputeTotalFee(0, plan.BaseFee, period)
	if m.JoiningDate != nil {
		expiry := ComputeExpiry(*m.JoiningDate, period)
		m.ExpiryDate = &expiry
	}
	return m, nil
}

// Renew advances a membership from start for the chosen fee period. The
// admission fee is never re-charged on renewal. Renewal always resets from
// the supplied start date; callers wanting to extend an active membership
// pass the old expiry date as start. Status is not stamped here: it is
// re-derived on every read via ResolveStatus.
func (c *Calculator) Renew(m models.Member, start time.Time, periodSlug string) (models.Member, error) {
	plan, err := c.catalog.Plan(m.PlanSlug)
	if err != nil {
		return models.Member{}, err
	}
	period, err := c.catalog.Period(periodSlug)
	if err != nil {
		return models.Member{}, err
	}

	expiry := ComputeExpiry(start, period)
	m.PeriodSlug = periodSlug
	m.JoiningDate = &start
	m.ExpiryDate = &expiry
	m.Fee = ComputeTotalFee(0, plan.BaseFee, period)
	return m, nil
}

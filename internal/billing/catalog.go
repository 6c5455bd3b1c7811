package billing

import (
	"errors"
	"fmt"
)

// ErrUnknownCatalogEntry is returned when a plan or fee period slug does not
// resolve against the catalog. The operation is aborted; there is no partial
// result.
var ErrUnknownCatalogEntry = errors.New("unknown catalog entry")

// Plan is a membership tier with a base monthly fee in integer currency units.
type Plan struct {
	Slug    string `json:"slug"`
	Label   string `json:"label"`
	BaseFee int64  `json:"base_fee"`
}

// FeePeriod is a billing interval selection. MonthMultiplier is meaningless
// when IsDailyPass is set.
type FeePeriod struct {
	Slug            string `json:"slug"`
	Label           string `json:"label"`
	MonthMultiplier int    `json:"month_multiplier"`
	IsDailyPass     bool   `json:"is_daily_pass"`
}

// Catalog is the immutable plan/period lookup table. It is constructed once
// at startup and injected into the calculator; there are no mutable globals.
type Catalog struct {
	plans       map[string]Plan
	periods     map[string]FeePeriod
	planOrder   []string
	periodOrder []string
}

// NewCatalog builds a catalog from the given entries, preserving order for
// listing.
func NewCatalog(plans []Plan, periods []FeePeriod) Catalog {
	c := Catalog{
		plans:   make(map[string]Plan, len(plans)),
		periods: make(map[string]FeePeriod, len(periods)),
	}
	for _, p := range plans {
		c.plans[p.Slug] = p
		c.planOrder = append(c.planOrder, p.Slug)
	}
	for _, fp := range periods {
		c.periods[fp.Slug] = fp
		c.periodOrder = append(c.periodOrder, fp.Slug)
	}
	return c
}

// DefaultCatalog returns the fixed catalog the console ships with.
func DefaultCatalog() Catalog {
	return NewCatalog(
		[]Plan{
			{Slug: "strength", Label: "Strength", BaseFee: 2000},
			{Slug: "cardio", Label: "Cardio", BaseFee: 2500},
			{Slug: "cardio-strength", Label: "Cardio + Strength", BaseFee: 4000},
			{Slug: "personal-training", Label: "Personal Training", BaseFee: 8000},
			{Slug: "daily-pass", Label: "Daily Pass", BaseFee: 500},
		},
		[]FeePeriod{
			{Slug: "daily", Label: "Daily", MonthMultiplier: 1, IsDailyPass: true},
			{Slug: "monthly", Label: "Monthly", MonthMultiplier: 1},
			{Slug: "quarterly", Label: "Quarterly", MonthMultiplier: 3},
			{Slug: "half-yearly", Label: "Half-Yearly", MonthMultiplier: 6},
			{Slug: "annually", Label: "Annually", MonthMultiplier: 12},
		},
	)
}

// Plan resolves a plan by slug.
func (c Catalog) Plan(slug string) (Plan, error) {
	p, ok := c.plans[slug]
	if !ok {
		return Plan{}, fmt.Errorf("%w: plan %q", ErrUnknownCatalogEntry, slug)
	}
	return p, nil
}

// Period resolves a fee period by slug.
func (c Catalog) Period(slug string) (FeePeriod, error) {
	fp, ok := c.periods[slug]
	if !ok {
		return FeePeriod{}, fmt.Errorf("%w: fee period %q", ErrUnknownCatalogEntry, slug)
	}
	return fp, nil
}

// Plans lists all plans in catalog order.
func (c Catalog) Plans() []Plan {
	out := make([]Plan, 0, len(c.planOrder))
	for _, slug := range c.planOrder {
		out = append(out, c.plans[slug])
	}
	return out
}

// Periods lists all fee periods in catalog order.
func (c Catalog) Periods() []FeePeriod {
	out := make([]FeePeriod, 0, len(c.periodOrder))
	for _, slug := range c.periodOrder {
		out = append(out, c.periods[slug])
	}
	return out
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction records a payment collected from a member. Amount is stored in
// integer minor currency units.
type Transaction struct {
	ID          uuid.UUID  `json:"id"`
	MemberID    *uuid.UUID `json:"member_id,omitempty"`
	MemberName  string     `json:"member_name"`
	PlanLabel   string     `json:"plan_label"`
	PeriodLabel string     `json:"period_label"`
	Amount      int64      `json:"amount"`
	PaidAt      time.Time  `json:"paid_at"`
	RecordedBy  string     `json:"recorded_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// MemberStatus is a live projection derived from the member's dates; it is
// recomputed on every read and never treated as ground truth in storage.
type MemberStatus string

const (
	MemberStatusPending MemberStatus = "pending"
	MemberStatusActive  MemberStatus = "active"
	MemberStatusExpired MemberStatus = "expired"
)

// Member represents a gym member. JoiningDate, ExpiryDate and Fee are always
// derived by the billing calculator; they are never hand-entered.
type Member struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Phone       string       `json:"phone"`
	NationalID  string       `json:"national_id"`
	Address     string       `json:"address"`
	PlanSlug    string       `json:"plan_slug"`
	PeriodSlug  string       `json:"period_slug"`
	JoiningDate *time.Time   `json:"joining_date,omitempty"`
	ExpiryDate  *time.Time   `json:"expiry_date,omitempty"`
	Fee         int64        `json:"fee"`
	Status      MemberStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type GoalType string

const (
	GoalSaving GoalType = "saving"
	GoalLoan   GoalType = "loan"
	GoalDebt   GoalType = "debt"
)

func (t GoalType) Valid() bool {
	switch t {
	case GoalSaving, GoalLoan, GoalDebt:
		return true
	}
	return false
}

type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
)

// Saving is the persisted row behind every goal variant; Type never changes
// after creation.
type Saving struct {
	ID            string          `gorm:"primaryKey;size:36" json:"id"`
	Owner         string          `gorm:"size:128;index;not null" json:"owner"`
	Title         string          `gorm:"size:128;not null" json:"title"`
	Type          GoalType        `gorm:"size:16;index;not null" json:"type"`
	TargetAmount  decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"target_amount"`
	CurrentAmount decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"current_amount"`
	InterestRate  decimal.Decimal `gorm:"type:decimal(9,4);not null" json:"interest_rate"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       *time.Time      `json:"end_date,omitempty"`
	Status        GoalStatus      `gorm:"size:16;not null" json:"status"`
	Version       int64           `gorm:"not null" json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (s *Saving) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// EvaluateStatus is checked on every persist.
func (s *Saving) EvaluateStatus() {
	if s.CurrentAmount.GreaterThanOrEqual(s.TargetAmount) {
		s.Status = GoalCompleted
	} else {
		s.Status = GoalActive
	}
}

// Remaining is the principal still outstanding, never negative.
func (s *Saving) Remaining() decimal.Decimal {
	r := s.TargetAmount.Sub(s.CurrentAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

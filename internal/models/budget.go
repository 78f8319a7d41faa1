package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BudgetStatus string

const (
	BudgetActive    BudgetStatus = "active"
	BudgetCompleted BudgetStatus = "completed"
	BudgetCancelled BudgetStatus = "cancelled"
)

// Budget is a spending envelope for a period. CurrentAmount is derived from
// the items and is only written by the rollup.
type Budget struct {
	ID            string              `gorm:"primaryKey;size:36" json:"id"`
	Owner         string              `gorm:"size:128;index;not null" json:"owner"`
	Title         string              `gorm:"size:128;not null" json:"title"`
	TargetAmount  decimal.NullDecimal `gorm:"type:decimal(20,2)" json:"target_amount"`
	CurrentAmount decimal.Decimal     `gorm:"type:decimal(20,2);not null" json:"current_amount"`
	StartDate     time.Time           `json:"start_date"`
	EndDate       *time.Time          `json:"end_date,omitempty"`
	Status        BudgetStatus        `gorm:"size:16;not null" json:"status"`
	Version       int64               `gorm:"not null" json:"version"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`

	Items []BudgetItem `gorm:"foreignKey:BudgetID" json:"items,omitempty"`
}

func (b *Budget) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = BudgetActive
	}
	return nil
}

// EvaluateStatus flips between active and completed against the target.
// Without a target the budget is active. A cancelled budget stays cancelled.
func (b *Budget) EvaluateStatus() {
	if b.Status == BudgetCancelled {
		return
	}
	if b.TargetAmount.Valid && b.CurrentAmount.GreaterThanOrEqual(b.TargetAmount.Decimal) {
		b.Status = BudgetCompleted
	} else {
		b.Status = BudgetActive
	}
}

// BudgetItem is a single allocation line within a budget.
type BudgetItem struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	BudgetID    string          `gorm:"size:36;index;not null" json:"budget_id"`
	Title       string          `gorm:"size:128;not null" json:"title"`
	Description string          `gorm:"size:255" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	SpentAmount decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"spent_amount"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (i *BudgetItem) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

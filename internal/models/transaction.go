package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionKind is the direction of a money movement.
type TransactionKind string

const (
	KindIncome   TransactionKind = "income"
	KindExpense  TransactionKind = "expense"
	KindTransfer TransactionKind = "transfer"
)

// Valid reports whether k is one of the known kinds.
func (k TransactionKind) Valid() bool {
	switch k {
	case KindIncome, KindExpense, KindTransfer:
		return true
	}
	return false
}

// Transaction 表示一笔资金流动
// 金额统一使用 decimal(20,2)，不要用 float
type Transaction struct {
	ID              string              `gorm:"primaryKey;size:36" json:"id"`
	Owner           string              `gorm:"size:128;index:idx_tx_owner_time;not null" json:"owner"`
	Kind            TransactionKind     `gorm:"size:16;not null" json:"kind"`
	Category        string              `gorm:"size:64" json:"category"`
	Amount          decimal.Decimal     `gorm:"type:decimal(20,2);not null" json:"amount"`
	Description     string              `gorm:"size:255" json:"description"`
	OccurredAt      time.Time           `gorm:"index:idx_tx_owner_time;not null" json:"occurred_at"`
	GoalRef         *string             `gorm:"size:36;index" json:"goal_reference,omitempty"`
	ItemRef         *string             `gorm:"size:36;index" json:"item_reference,omitempty"`
	BalanceSnapshot decimal.NullDecimal `gorm:"type:decimal(20,2)" json:"balance_snapshot"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func (t *Transaction) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

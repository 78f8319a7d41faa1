package models

import "time"

// UserSettings 用户偏好，首次读取时按默认值创建
type UserSettings struct {
	Owner                    string    `gorm:"primaryKey;size:128" json:"owner"`
	AutoDeductBudgetExpenses bool      `gorm:"not null" json:"auto_deduct_budget_expenses"`
	Currency                 string    `gorm:"size:8;not null" json:"currency"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

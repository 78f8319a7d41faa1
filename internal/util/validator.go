package util

import (
	"fmt"
	"strings"
	"time"

	"fintracker/internal/models"

	"github.com/shopspring/decimal"
)

// 单笔金额上限
var maxAmount = decimal.NewFromInt(1_000_000_000)

// ValidateAmount 验证金额（必须为正数、最多两位小数且不超过上限）
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: got %s", models.ErrInvalidAmount, amount)
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("%w: amount too large, got %s", models.ErrValidation, amount)
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: amount has more than two decimal places, got %s", models.ErrValidation, amount)
	}
	return nil
}

// ValidateNonNegative 用于允许为 0 的金额（如 spent_amount）
func ValidateNonNegative(field string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative", models.ErrValidation, field)
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("%w: %s too large", models.ErrValidation, field)
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: %s has more than two decimal places", models.ErrValidation, field)
	}
	return nil
}

// ValidateTitle 验证标题（不能为空且长度合理）
func ValidateTitle(field, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: %s is required", models.ErrValidation, field)
	}
	if len(title) > 128 {
		return fmt.Errorf("%w: %s too long, max 128 characters", models.ErrValidation, field)
	}
	return nil
}

// ParseTime 接受 RFC3339、无时区的日期时间或纯日期
func ParseTime(s string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,          // 2025-12-03T00:00:00+08:00
		"2006-01-02T15:04:05", // 2025-12-03T00:00:00
		"2006-01-02",          // 2025-12-03
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid time %q", models.ErrValidation, s)
}

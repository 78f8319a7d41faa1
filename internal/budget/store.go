package budget

import (
	"errors"
	"fmt"

	"fintracker/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func findBudget(db *gorm.DB, owner, id string) (*models.Budget, error) {
	var b models.Budget
	if err := db.Where("id = ? AND owner = ?", id, owner).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("budget %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("find budget: %w", err)
	}
	return &b, nil
}

func findItem(db *gorm.DB, budgetID, id string) (*models.BudgetItem, error) {
	var it models.BudgetItem
	if err := db.Where("id = ? AND budget_id = ?", id, budgetID).First(&it).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("budget item %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("find budget item: %w", err)
	}
	return &it, nil
}

// saveBudget writes b only if nobody bumped its version since it was read.
func saveBudget(tx *gorm.DB, b *models.Budget) error {
	prev := b.Version
	res := tx.Model(&models.Budget{}).
		Where("id = ? AND version = ?", b.ID, prev).
		Updates(map[string]any{
			"title":          b.Title,
			"target_amount":  b.TargetAmount,
			"current_amount": b.CurrentAmount,
			"start_date":     b.StartDate,
			"end_date":       b.EndDate,
			"status":         b.Status,
			"version":        prev + 1,
		})
	if res.Error != nil {
		return fmt.Errorf("save budget: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("budget %s: %w", b.ID, models.ErrConflict)
	}
	b.Version = prev + 1
	return nil
}

// recompute sets CurrentAmount to the sum of the items' spend, re-evaluates
// status and persists. Running it twice without item changes is a no-op on
// the amount.
func recompute(tx *gorm.DB, b *models.Budget) error {
	var items []models.BudgetItem
	if err := tx.Select("spent_amount").Where("budget_id = ?", b.ID).Find(&items).Error; err != nil {
		return fmt.Errorf("load budget items: %w", err)
	}
	total := decimal.Zero
	for i := range items {
		total = total.Add(items[i].SpentAmount)
	}
	b.CurrentAmount = total
	b.EvaluateStatus()
	return saveBudget(tx, b)
}

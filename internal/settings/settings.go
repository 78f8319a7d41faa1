// Package settings owns per-user preferences and exposes the auto-deduct gate
// consulted by the budget rollup.
package settings

import (
	"context"
	"fmt"
	"strings"

	"fintracker/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db       *gorm.DB
	currency string
}

// NewService uses currency as the default for newly created settings.
func NewService(db *gorm.DB, currency string) *Service {
	if currency == "" {
		currency = "USD"
	}
	return &Service{db: db, currency: currency}
}

// Get returns the owner's settings, creating them with defaults on first read.
func (s *Service) Get(ctx context.Context, owner string) (*models.UserSettings, error) {
	db := s.db.WithContext(ctx)
	defaults := models.UserSettings{
		Owner:                    owner,
		AutoDeductBudgetExpenses: true,
		Currency:                 s.currency,
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&defaults).Error; err != nil {
		return nil, fmt.Errorf("create settings: %w", err)
	}

	var out models.UserSettings
	if err := db.First(&out, "owner = ?", owner).Error; err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return &out, nil
}

// Patch holds the editable settings; nil means unchanged.
type Patch struct {
	AutoDeductBudgetExpenses *bool
	Currency                 *string
}

func (s *Service) Update(ctx context.Context, owner string, p Patch) (*models.UserSettings, error) {
	cur, err := s.Get(ctx, owner)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if p.AutoDeductBudgetExpenses != nil {
		updates["auto_deduct_budget_expenses"] = *p.AutoDeductBudgetExpenses
		cur.AutoDeductBudgetExpenses = *p.AutoDeductBudgetExpenses
	}
	if p.Currency != nil {
		c := strings.ToUpper(strings.TrimSpace(*p.Currency))
		if len(c) != 3 {
			return nil, fmt.Errorf("%w: currency must be a 3-letter code", models.ErrValidation)
		}
		updates["currency"] = c
		cur.Currency = c
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(cur).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update settings: %w", err)
		}
	}

	return cur, nil
}

// AutoDeduct reports whether budget spend should be mirrored into the ledger.
// It always reads the stored row, so a change made through any instance
// applies to the next rollup everywhere.
func (s *Service) AutoDeduct(ctx context.Context, owner string) (bool, error) {
	st, err := s.Get(ctx, owner)
	if err != nil {
		return false, err
	}
	return st.AutoDeductBudgetExpenses, nil
}

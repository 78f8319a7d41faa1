// Package budget manages spending envelopes and keeps each budget's total in
// step with its items.
package budget

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fintracker/internal/database"
	"fintracker/internal/lock"
	"fintracker/internal/models"
	"fintracker/internal/util"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service is budget-level CRUD. Item mutations go through Rollup.
type Service struct {
	db     *gorm.DB
	uow    database.UnitOfWork
	locks  lock.Locker
	logger *log.Logger
	now    func() time.Time
}

func NewService(db *gorm.DB, uow database.UnitOfWork, locks lock.Locker, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{db: db, uow: uow, locks: locks, logger: logger, now: time.Now}
}

type Input struct {
	Title        string
	TargetAmount decimal.NullDecimal
	StartDate    time.Time
	EndDate      *time.Time
}

func validateTarget(target decimal.NullDecimal) error {
	if !target.Valid {
		return nil
	}
	return util.ValidateAmount(target.Decimal)
}

func validatePeriod(start time.Time, end *time.Time) error {
	if end != nil && end.Before(start) {
		return fmt.Errorf("%w: end_date is before start_date", models.ErrValidation)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, owner string, in Input) (*models.Budget, error) {
	if err := util.ValidateTitle("title", in.Title); err != nil {
		return nil, err
	}
	if err := validateTarget(in.TargetAmount); err != nil {
		return nil, err
	}
	if in.StartDate.IsZero() {
		in.StartDate = s.now()
	}
	if err := validatePeriod(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	b := &models.Budget{
		Owner:         owner,
		Title:         strings.TrimSpace(in.Title),
		TargetAmount:  in.TargetAmount,
		CurrentAmount: decimal.Zero,
		StartDate:     in.StartDate.UTC(),
		EndDate:       in.EndDate,
		Status:        models.BudgetActive,
	}
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		return nil, fmt.Errorf("create budget: %w", err)
	}
	return b, nil
}

func (s *Service) List(ctx context.Context, owner string) ([]models.Budget, error) {
	var out []models.Budget
	if err := s.db.WithContext(ctx).Where("owner = ?", owner).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return out, nil
}

// Get returns the budget with its items attached.
func (s *Service) Get(ctx context.Context, owner, id string) (*models.Budget, error) {
	db := s.db.WithContext(ctx)
	b, err := findBudget(db, owner, id)
	if err != nil {
		return nil, err
	}
	if err := db.Where("budget_id = ?", b.ID).Order("created_at ASC").Find(&b.Items).Error; err != nil {
		return nil, fmt.Errorf("load budget items: %w", err)
	}
	return b, nil
}

// Patch edits the budget's own fields. CurrentAmount is never patchable.
type Patch struct {
	Title        *string
	TargetAmount *decimal.NullDecimal
	StartDate    *time.Time
	EndDate      *time.Time
	ClearEndDate bool
	Status       *models.BudgetStatus
}

func (s *Service) Update(ctx context.Context, owner, id string, p Patch) (*models.Budget, error) {
	release, err := s.locks.Lock(ctx, lock.Key("budget", id))
	if err != nil {
		return nil, err
	}
	defer release()

	var out *models.Budget
	err = s.uow.Within(ctx, func(tx *gorm.DB) error {
		b, err := findBudget(tx, owner, id)
		if err != nil {
			return err
		}
		if p.Title != nil {
			if err := util.ValidateTitle("title", *p.Title); err != nil {
				return err
			}
			b.Title = strings.TrimSpace(*p.Title)
		}
		if p.TargetAmount != nil {
			if err := validateTarget(*p.TargetAmount); err != nil {
				return err
			}
			b.TargetAmount = *p.TargetAmount
		}
		if p.StartDate != nil {
			b.StartDate = p.StartDate.UTC()
		}
		if p.EndDate != nil {
			end := p.EndDate.UTC()
			b.EndDate = &end
		}
		if p.ClearEndDate {
			b.EndDate = nil
		}
		if err := validatePeriod(b.StartDate, b.EndDate); err != nil {
			return err
		}
		if p.Status != nil {
			switch *p.Status {
			case models.BudgetCancelled, models.BudgetActive:
				// active re-opens a cancelled budget; EvaluateStatus may still complete it
				b.Status = *p.Status
			default:
				return fmt.Errorf("%w: status can only be set to active or cancelled", models.ErrValidation)
			}
		}
		b.EvaluateStatus()
		if err := saveBudget(tx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the budget and all of its items in one unit of work. Ledger
// entries mirrored from the items stay.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	release, err := s.locks.Lock(ctx, lock.Key("budget", id))
	if err != nil {
		return err
	}
	defer release()

	return s.uow.Within(ctx, func(tx *gorm.DB) error {
		b, err := findBudget(tx, owner, id)
		if err != nil {
			return err
		}
		if err := tx.Where("budget_id = ?", b.ID).Delete(&models.BudgetItem{}).Error; err != nil {
			return fmt.Errorf("delete budget items: %w", err)
		}
		if err := tx.Delete(b).Error; err != nil {
			return fmt.Errorf("delete budget: %w", err)
		}
		s.logger.Debug("budget deleted", "owner", owner, "budget", id)
		return nil
	})
}


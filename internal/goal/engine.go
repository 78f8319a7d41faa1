// Package goal settles deposits and withdrawals against saving, loan and debt
// goals and mirrors every movement into the ledger.
package goal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fintracker/internal/database"
	"fintracker/internal/ledger"
	"fintracker/internal/lock"
	"fintracker/internal/models"
	"fintracker/internal/util"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var maxInterestRate = decimal.NewFromInt(1000)

type Engine struct {
	db               *gorm.DB
	uow              database.UnitOfWork
	ledger           *ledger.Ledger
	locks            lock.Locker
	interestCategory string
	logger           *log.Logger
	now              func() time.Time
}

type Options struct {
	// InterestCategory tags overflow entries. Defaults to "Interest".
	InterestCategory string
	Logger           *log.Logger
}

func NewEngine(db *gorm.DB, uow database.UnitOfWork, l *ledger.Ledger, locks lock.Locker, opts Options) *Engine {
	if opts.InterestCategory == "" {
		opts.InterestCategory = "Interest"
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Engine{
		db:               db,
		uow:              uow,
		ledger:           l,
		locks:            locks,
		interestCategory: opts.InterestCategory,
		logger:           opts.Logger,
		now:              time.Now,
	}
}

type CreateInput struct {
	Title        string
	Type         models.GoalType
	TargetAmount decimal.Decimal
	InterestRate decimal.Decimal
	StartDate    time.Time
	EndDate      *time.Time
}

func validateRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThanOrEqual(maxInterestRate) {
		return fmt.Errorf("%w: interest_rate out of range", models.ErrValidation)
	}
	return nil
}

func validatePeriod(start time.Time, end *time.Time) error {
	if end != nil && end.Before(start) {
		return fmt.Errorf("%w: end_date is before start_date", models.ErrValidation)
	}
	return nil
}

// Create stores a fresh goal. Loans and debts mirror the full target as a
// transfer at once.
func (e *Engine) Create(ctx context.Context, owner string, in CreateInput) (*models.Saving, error) {
	if err := util.ValidateTitle("title", in.Title); err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: type must be saving, loan or debt", models.ErrValidation)
	}
	if err := util.ValidateAmount(in.TargetAmount); err != nil {
		return nil, err
	}
	if err := validateRate(in.InterestRate); err != nil {
		return nil, err
	}
	if in.StartDate.IsZero() {
		in.StartDate = e.now()
	}
	if err := validatePeriod(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	rec := &models.Saving{
		Owner:         owner,
		Title:         strings.TrimSpace(in.Title),
		Type:          in.Type,
		TargetAmount:  in.TargetAmount,
		CurrentAmount: decimal.Zero,
		InterestRate:  in.InterestRate,
		StartDate:     in.StartDate.UTC(),
		EndDate:       in.EndDate,
		Status:        models.GoalActive,
	}
	g, err := FromRecord(rec)
	if err != nil {
		return nil, err
	}

	err = e.uow.Within(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("create goal: %w", err)
		}
		if note, ok := g.opening(); ok {
			return e.mirror(ctx, e.ledger.WithTx(tx), g, models.KindTransfer, g.category(), note, rec.TargetAmount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("goal created", "owner", owner, "goal", rec.ID, "type", rec.Type, "target", rec.TargetAmount)
	return rec, nil
}

func (e *Engine) mirror(ctx context.Context, l *ledger.Ledger, g Goal, kind models.TransactionKind, category, note string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return nil
	}
	rec := g.Record()
	ref := rec.ID
	_, err := l.Append(ctx, &models.Transaction{
		Owner:       rec.Owner,
		Kind:        kind,
		Category:    category,
		Amount:      amount,
		Description: fmt.Sprintf("%s: %s", note, rec.Title),
		GoalRef:     &ref,
	})
	if err != nil {
		return fmt.Errorf("mirror %s: %w", strings.ToLower(note), err)
	}
	return nil
}

func findGoal(db *gorm.DB, owner, id string) (*models.Saving, error) {
	var s models.Saving
	if err := db.Where("id = ? AND owner = ?", id, owner).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("goal %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("find goal: %w", err)
	}
	return &s, nil
}

// saveGoal persists s if its version is unchanged since it was read.
func saveGoal(tx *gorm.DB, s *models.Saving) error {
	s.EvaluateStatus()
	prev := s.Version
	res := tx.Model(&models.Saving{}).
		Where("id = ? AND version = ?", s.ID, prev).
		Updates(map[string]any{
			"title":          s.Title,
			"target_amount":  s.TargetAmount,
			"current_amount": s.CurrentAmount,
			"interest_rate":  s.InterestRate,
			"start_date":     s.StartDate,
			"end_date":       s.EndDate,
			"status":         s.Status,
			"version":        prev + 1,
		})
	if res.Error != nil {
		return fmt.Errorf("save goal: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("goal %s: %w", s.ID, models.ErrConflict)
	}
	s.Version = prev + 1
	return nil
}

// settle loads the goal under its lock and runs fn inside one unit of work.
func (e *Engine) settle(ctx context.Context, owner, id string, fn func(tx *gorm.DB, l *ledger.Ledger, g Goal) error) (*models.Saving, error) {
	release, err := e.locks.Lock(ctx, lock.Key("goal", id))
	if err != nil {
		return nil, err
	}
	defer release()

	var out *models.Saving
	err = e.uow.Within(ctx, func(tx *gorm.DB) error {
		rec, err := findGoal(tx, owner, id)
		if err != nil {
			return err
		}
		g, err := FromRecord(rec)
		if err != nil {
			return err
		}
		if err := fn(tx, e.ledger.WithTx(tx), g); err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Deposit moves amount into the goal. For loans and debts anything beyond the
// remaining principal is booked separately as interest.
func (e *Engine) Deposit(ctx context.Context, owner, id string, amount decimal.Decimal) (*models.Saving, error) {
	if err := util.ValidateAmount(amount); err != nil {
		return nil, err
	}
	return e.settle(ctx, owner, id, func(tx *gorm.DB, l *ledger.Ledger, g Goal) error {
		rec := g.Record()
		principal, extra := g.Split(amount)
		rec.CurrentAmount = rec.CurrentAmount.Add(principal)
		if err := saveGoal(tx, rec); err != nil {
			return err
		}
		if err := e.mirror(ctx, l, g, models.KindTransfer, g.category(), g.depositNote(), principal); err != nil {
			return err
		}
		if err := e.mirror(ctx, l, g, g.ExtraKind(), e.interestCategory, "Interest", extra); err != nil {
			return err
		}
		e.logger.Debug("goal deposit", "owner", owner, "goal", id, "principal", principal, "extra", extra, "status", rec.Status)
		return nil
	})
}

// Withdraw takes amount back out of a saving goal.
// Loans and debts reject every withdrawal, whatever the amount.
func (e *Engine) Withdraw(ctx context.Context, owner, id string, amount decimal.Decimal) (*models.Saving, error) {
	return e.settle(ctx, owner, id, func(tx *gorm.DB, l *ledger.Ledger, g Goal) error {
		w, ok := g.(Withdrawable)
		if !ok {
			return fmt.Errorf("%w: cannot withdraw from a %s", models.ErrInvalidOperation, g.Record().Type)
		}
		if err := util.ValidateAmount(amount); err != nil {
			return err
		}
		if err := w.Withdraw(amount); err != nil {
			return err
		}
		if err := saveGoal(tx, w.Record()); err != nil {
			return err
		}
		return e.mirror(ctx, l, g, models.KindTransfer, g.category(), "Savings Withdrawal", amount)
	})
}

// Patch covers the fields a plain update may change. CurrentAmount only
// moves through Deposit and Withdraw; Type is fixed at creation.
type Patch struct {
	Title        *string
	TargetAmount *decimal.Decimal
	InterestRate *decimal.Decimal
	StartDate    *time.Time
	EndDate      *time.Time
	ClearEndDate bool
}

// Update edits descriptive fields and the target; status is re-evaluated, so
// raising the target can reopen a completed goal.
func (e *Engine) Update(ctx context.Context, owner, id string, p Patch) (*models.Saving, error) {
	return e.settle(ctx, owner, id, func(tx *gorm.DB, _ *ledger.Ledger, g Goal) error {
		rec := g.Record()
		if p.Title != nil {
			if err := util.ValidateTitle("title", *p.Title); err != nil {
				return err
			}
			rec.Title = strings.TrimSpace(*p.Title)
		}
		if p.TargetAmount != nil {
			if err := util.ValidateAmount(*p.TargetAmount); err != nil {
				return err
			}
			rec.TargetAmount = *p.TargetAmount
		}
		if p.InterestRate != nil {
			if err := validateRate(*p.InterestRate); err != nil {
				return err
			}
			rec.InterestRate = *p.InterestRate
		}
		if p.StartDate != nil {
			rec.StartDate = p.StartDate.UTC()
		}
		if p.EndDate != nil {
			end := p.EndDate.UTC()
			rec.EndDate = &end
		}
		if p.ClearEndDate {
			rec.EndDate = nil
		}
		if err := validatePeriod(rec.StartDate, rec.EndDate); err != nil {
			return err
		}
		return saveGoal(tx, rec)
	})
}

func (e *Engine) Get(ctx context.Context, owner, id string) (*models.Saving, error) {
	return findGoal(e.db.WithContext(ctx), owner, id)
}

// List returns the owner's goals, optionally only those of one type.
func (e *Engine) List(ctx context.Context, owner string, typ models.GoalType) ([]models.Saving, error) {
	q := e.db.WithContext(ctx).Where("owner = ?", owner)
	if typ != "" {
		if !typ.Valid() {
			return nil, fmt.Errorf("%w: unknown goal type %q", models.ErrValidation, typ)
		}
		q = q.Where("type = ?", typ)
	}
	var out []models.Saving
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return out, nil
}

// Delete removes the goal. Its mirrored ledger history is kept.
func (e *Engine) Delete(ctx context.Context, owner, id string) error {
	release, err := e.locks.Lock(ctx, lock.Key("goal", id))
	if err != nil {
		return err
	}
	defer release()

	res := e.db.WithContext(ctx).Where("id = ? AND owner = ?", id, owner).Delete(&models.Saving{})
	if res.Error != nil {
		return fmt.Errorf("delete goal: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("goal %s: %w", id, models.ErrNotFound)
	}
	return nil
}

package budget

import (
	"context"
	"fmt"
	"strings"

	"fintracker/internal/database"
	"fintracker/internal/ledger"
	"fintracker/internal/lock"
	"fintracker/internal/models"
	"fintracker/internal/util"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Rollup applies item mutations. Each call runs in one unit of work under the
// budget's lock: the item write, any mirrored ledger entry and the budget
// total either all land or none do.
type Rollup struct {
	db       *gorm.DB
	uow      database.UnitOfWork
	ledger   *ledger.Ledger
	locks    lock.Locker
	gate     Gate
	category string
	logger   *log.Logger
}

type RollupOptions struct {
	// Category tags mirrored ledger entries. Defaults to "Budget".
	Category string
	Logger   *log.Logger
}

func NewRollup(db *gorm.DB, uow database.UnitOfWork, l *ledger.Ledger, locks lock.Locker, gate Gate, opts RollupOptions) *Rollup {
	if opts.Category == "" {
		opts.Category = "Budget"
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Rollup{
		db:       db,
		uow:      uow,
		ledger:   l,
		locks:    locks,
		gate:     gate,
		category: opts.Category,
		logger:   opts.Logger,
	}
}

// ItemResult is an item mutation's outcome together with the recomputed budget.
type ItemResult struct {
	Item   *models.BudgetItem `json:"item,omitempty"`
	Budget *models.Budget     `json:"budget"`
}

type step struct {
	tx     *gorm.DB
	ledger *ledger.Ledger
	budget *models.Budget
	deduct bool
}

// run resolves the gate, takes the budget lock, and executes fn followed by a
// recompute inside one unit of work.
func (r *Rollup) run(ctx context.Context, owner, budgetID string, fn func(s *step) error) (*models.Budget, error) {
	deduct, err := r.gate.AutoDeduct(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("resolve auto-deduct: %w", err)
	}

	release, err := r.locks.Lock(ctx, lock.Key("budget", budgetID))
	if err != nil {
		return nil, err
	}
	defer release()

	var out *models.Budget
	err = r.uow.Within(ctx, func(tx *gorm.DB) error {
		b, err := findBudget(tx, owner, budgetID)
		if err != nil {
			return err
		}
		s := &step{tx: tx, ledger: r.ledger.WithTx(tx), budget: b, deduct: deduct}
		if fn != nil {
			if err := fn(s); err != nil {
				return err
			}
		}
		if err := recompute(tx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.logger.Debug("budget rollup", "owner", owner, "budget", budgetID, "current", out.CurrentAmount, "status", out.Status)
	return out, nil
}

func (r *Rollup) mirror(ctx context.Context, s *step, kind models.TransactionKind, amount decimal.Decimal, item *models.BudgetItem, note string) error {
	if !s.deduct || !amount.IsPositive() {
		return nil
	}
	ref := item.ID
	_, err := s.ledger.Append(ctx, &models.Transaction{
		Owner:       s.budget.Owner,
		Kind:        kind,
		Category:    r.category,
		Amount:      amount,
		Description: fmt.Sprintf("%s: %s / %s", note, s.budget.Title, item.Title),
		ItemRef:     &ref,
	})
	if err != nil {
		return fmt.Errorf("mirror budget %s: %w", strings.ToLower(note), err)
	}
	return nil
}

// applySpent moves item's spend to next and mirrors the delta: an increase is
// an expense, a decrease is an income correction.
func (r *Rollup) applySpent(ctx context.Context, s *step, item *models.BudgetItem, next decimal.Decimal) error {
	delta := next.Sub(item.SpentAmount)
	item.SpentAmount = next
	if delta.IsZero() {
		return nil
	}
	if delta.IsPositive() {
		return r.mirror(ctx, s, models.KindExpense, delta, item, "Budget spend")
	}
	return r.mirror(ctx, s, models.KindIncome, delta.Abs(), item, "Budget correction")
}

type ItemInput struct {
	Title       string
	Description string
	Amount      decimal.Decimal
	SpentAmount decimal.Decimal
}

func validateItem(title string, amount, spent decimal.Decimal) error {
	if err := util.ValidateTitle("title", title); err != nil {
		return err
	}
	if err := util.ValidateNonNegative("amount", amount); err != nil {
		return err
	}
	return util.ValidateNonNegative("spent_amount", spent)
}

// CreateItem persists a new item; initial spend is mirrored as one expense.
func (r *Rollup) CreateItem(ctx context.Context, owner, budgetID string, in ItemInput) (*ItemResult, error) {
	if err := validateItem(in.Title, in.Amount, in.SpentAmount); err != nil {
		return nil, err
	}
	item := &models.BudgetItem{
		BudgetID:    budgetID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Amount:      in.Amount,
		SpentAmount: in.SpentAmount,
	}
	b, err := r.run(ctx, owner, budgetID, func(s *step) error {
		if err := s.tx.Create(item).Error; err != nil {
			return fmt.Errorf("create budget item: %w", err)
		}
		return r.mirror(ctx, s, models.KindExpense, item.SpentAmount, item, "Budget spend")
	})
	if err != nil {
		return nil, err
	}
	return &ItemResult{Item: item, Budget: b}, nil
}

// ItemPatch edits an item. A SpentAmount change is treated as a spend
// correction and mirrored like any other delta.
type ItemPatch struct {
	Title       *string
	Description *string
	Amount      *decimal.Decimal
	SpentAmount *decimal.Decimal
}

func (r *Rollup) UpdateItem(ctx context.Context, owner, budgetID, itemID string, p ItemPatch) (*ItemResult, error) {
	var item *models.BudgetItem
	b, err := r.run(ctx, owner, budgetID, func(s *step) error {
		var err error
		if item, err = findItem(s.tx, budgetID, itemID); err != nil {
			return err
		}
		title, amount, spent := item.Title, item.Amount, item.SpentAmount
		if p.Title != nil {
			title = strings.TrimSpace(*p.Title)
		}
		if p.Amount != nil {
			amount = *p.Amount
		}
		if p.SpentAmount != nil {
			spent = *p.SpentAmount
		}
		if err := validateItem(title, amount, spent); err != nil {
			return err
		}
		item.Title = title
		item.Amount = amount
		if p.Description != nil {
			item.Description = *p.Description
		}
		if err := r.applySpent(ctx, s, item, spent); err != nil {
			return err
		}
		if err := s.tx.Save(item).Error; err != nil {
			return fmt.Errorf("save budget item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ItemResult{Item: item, Budget: b}, nil
}

// LogSpend adds amount to the item's spend.
func (r *Rollup) LogSpend(ctx context.Context, owner, budgetID, itemID string, amount decimal.Decimal) (*ItemResult, error) {
	if err := util.ValidateAmount(amount); err != nil {
		return nil, err
	}
	var item *models.BudgetItem
	b, err := r.run(ctx, owner, budgetID, func(s *step) error {
		var err error
		if item, err = findItem(s.tx, budgetID, itemID); err != nil {
			return err
		}
		next := item.SpentAmount.Add(amount)
		if err := util.ValidateNonNegative("spent_amount", next); err != nil {
			return err
		}
		if err := r.applySpent(ctx, s, item, next); err != nil {
			return err
		}
		if err := s.tx.Model(item).UpdateColumn("spent_amount", item.SpentAmount).Error; err != nil {
			return fmt.Errorf("save budget item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ItemResult{Item: item, Budget: b}, nil
}

// DeleteItem refunds the item's spend as income, then removes it.
func (r *Rollup) DeleteItem(ctx context.Context, owner, budgetID, itemID string) (*models.Budget, error) {
	return r.run(ctx, owner, budgetID, func(s *step) error {
		item, err := findItem(s.tx, budgetID, itemID)
		if err != nil {
			return err
		}
		if err := r.mirror(ctx, s, models.KindIncome, item.SpentAmount, item, "Budget refund"); err != nil {
			return err
		}
		if err := s.tx.Delete(item).Error; err != nil {
			return fmt.Errorf("delete budget item: %w", err)
		}
		return nil
	})
}

// Recompute re-derives the budget total without touching any item.
func (r *Rollup) Recompute(ctx context.Context, owner, budgetID string) (*models.Budget, error) {
	return r.run(ctx, owner, budgetID, nil)
}

func (r *Rollup) ListItems(ctx context.Context, owner, budgetID string) ([]models.BudgetItem, error) {
	db := r.db.WithContext(ctx)
	if _, err := findBudget(db, owner, budgetID); err != nil {
		return nil, err
	}
	var items []models.BudgetItem
	if err := db.Where("budget_id = ?", budgetID).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list budget items: %w", err)
	}
	return items, nil
}

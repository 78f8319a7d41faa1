package ledger

import (
	"context"
	"fmt"
	"time"

	"fintracker/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Totals is the three-way sum over a set of transactions.
type Totals struct {
	Income   decimal.Decimal `json:"income"`
	Expense  decimal.Decimal `json:"expense"`
	Transfer decimal.Decimal `json:"transfer"`
}

// Balance is income + transfer - expense. Transfers always count as inflow;
// the component that created a transfer decides what it means.
func (t Totals) Balance() decimal.Decimal {
	return t.Income.Add(t.Transfer).Sub(t.Expense)
}

func (t *Totals) add(kind models.TransactionKind, amount decimal.Decimal) {
	switch kind {
	case models.KindIncome:
		t.Income = t.Income.Add(amount)
	case models.KindExpense:
		t.Expense = t.Expense.Add(amount)
	case models.KindTransfer:
		t.Transfer = t.Transfer.Add(amount)
	}
}

func sumRows(q *gorm.DB) (Totals, error) {
	var rows []models.Transaction
	if err := q.Select("kind", "amount").Find(&rows).Error; err != nil {
		return Totals{}, err
	}
	var t Totals
	for i := range rows {
		t.add(rows[i].Kind, rows[i].Amount)
	}
	return t, nil
}

// BalanceAsOf is the cumulative balance of owner over every transaction with
// occurred_at <= cutoff. It returns zero when nothing matches.
func BalanceAsOf(ctx context.Context, db *gorm.DB, owner string, cutoff time.Time) (decimal.Decimal, error) {
	t, err := sumRows(db.WithContext(ctx).Model(&models.Transaction{}).
		Where("owner = ? AND occurred_at <= ?", owner, cutoff.UTC()))
	if err != nil {
		return decimal.Zero, fmt.Errorf("balance as of %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return t.Balance(), nil
}

// WindowTotals sums owner's transactions with from <= occurred_at < to.
func WindowTotals(ctx context.Context, db *gorm.DB, owner string, from, to time.Time) (Totals, error) {
	t, err := sumRows(db.WithContext(ctx).Model(&models.Transaction{}).
		Where("owner = ? AND occurred_at >= ? AND occurred_at < ?", owner, from.UTC(), to.UTC()))
	if err != nil {
		return Totals{}, fmt.Errorf("window totals: %w", err)
	}
	return t, nil
}

// BalanceWithinWindow is the window-scoped balance used by the dashboard. It
// ignores everything before from, unlike BalanceAsOf.
func BalanceWithinWindow(ctx context.Context, db *gorm.DB, owner string, from, to time.Time) (decimal.Decimal, error) {
	t, err := WindowTotals(ctx, db, owner, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return t.Balance(), nil
}

// MonthWindow returns [first day of month, first day of next month) in UTC.
func MonthWindow(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

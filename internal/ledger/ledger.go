package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fintracker/internal/models"
	"fintracker/internal/util"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ledger is the append-mostly record of money movements. Every entry written
// through it carries the owner's balance as of its own occurred_at.
type Ledger struct {
	db     *gorm.DB
	bound  bool
	logger *log.Logger
	now    func() time.Time
}

func New(db *gorm.DB, logger *log.Logger) *Ledger {
	if logger == nil {
		logger = log.Default()
	}
	return &Ledger{db: db, logger: logger, now: time.Now}
}

// WithTx returns a Ledger that writes inside tx instead of opening its own
// transaction, so callers can fold appends into their unit of work.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx, bound: true, logger: l.logger, now: l.now}
}

func (l *Ledger) within(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if l.bound {
		return fn(l.db.WithContext(ctx))
	}
	return l.db.WithContext(ctx).Transaction(fn)
}

func validateEntry(e *models.Transaction) error {
	if strings.TrimSpace(e.Owner) == "" {
		return fmt.Errorf("%w: owner is required", models.ErrValidation)
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", models.ErrValidation, e.Kind)
	}
	return util.ValidateAmount(e.Amount)
}

// Append validates and persists e, then stores BalanceAsOf(e.OccurredAt) on it
// as the balance snapshot. Both writes share one transaction.
func (l *Ledger) Append(ctx context.Context, e *models.Transaction) (*models.Transaction, error) {
	if err := validateEntry(e); err != nil {
		return nil, err
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = l.now()
	}
	e.OccurredAt = e.OccurredAt.UTC()
	e.BalanceSnapshot = decimal.NullDecimal{}

	err := l.within(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(e).Error; err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		return l.refreshSnapshot(ctx, tx, e)
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("ledger append", "owner", e.Owner, "kind", e.Kind, "amount", e.Amount, "category", e.Category)
	return e, nil
}

func (l *Ledger) refreshSnapshot(ctx context.Context, tx *gorm.DB, e *models.Transaction) error {
	bal, err := BalanceAsOf(ctx, tx, e.Owner, e.OccurredAt)
	if err != nil {
		return err
	}
	e.BalanceSnapshot = decimal.NewNullDecimal(bal)
	if err := tx.Model(e).UpdateColumn("balance_snapshot", e.BalanceSnapshot).Error; err != nil {
		return fmt.Errorf("store balance snapshot: %w", err)
	}
	return nil
}

// ListFilter narrows List to a calendar month or year. Zero values mean no filter.
type ListFilter struct {
	Month int
	Year  int
}

// window resolves the filter; a month without a year means that month this year.
func (f ListFilter) window(now time.Time) (from, to time.Time, ok bool, err error) {
	if f.Month == 0 && f.Year == 0 {
		return time.Time{}, time.Time{}, false, nil
	}
	if f.Month < 0 || f.Month > 12 {
		return time.Time{}, time.Time{}, false, fmt.Errorf("%w: month must be 1-12", models.ErrValidation)
	}
	year := f.Year
	if year == 0 {
		year = now.UTC().Year()
	}
	if f.Month == 0 {
		from = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0), true, nil
	}
	from, to = MonthWindow(year, time.Month(f.Month))
	return from, to, true, nil
}

// ListResult carries the filtered entries and the owner's overall balance now.
type ListResult struct {
	Transactions []models.Transaction
	Balance      decimal.Decimal
}

// List returns entries newest first. Balance ignores the filter.
func (l *Ledger) List(ctx context.Context, owner string, f ListFilter) (*ListResult, error) {
	now := l.now()
	from, to, windowed, err := f.window(now)
	if err != nil {
		return nil, err
	}

	q := l.db.WithContext(ctx).Where("owner = ?", owner)
	if windowed {
		q = q.Where("occurred_at >= ? AND occurred_at < ?", from, to)
	}
	var txs []models.Transaction
	if err := q.Order("occurred_at DESC, created_at DESC").Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	bal, err := BalanceAsOf(ctx, l.db, owner, now)
	if err != nil {
		return nil, err
	}
	return &ListResult{Transactions: txs, Balance: bal}, nil
}

func (l *Ledger) Get(ctx context.Context, owner, id string) (*models.Transaction, error) {
	return findOwned(l.db.WithContext(ctx), owner, id)
}

func findOwned(db *gorm.DB, owner, id string) (*models.Transaction, error) {
	var t models.Transaction
	if err := db.Where("id = ? AND owner = ?", id, owner).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("transaction %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("find transaction: %w", err)
	}
	return &t, nil
}

// Patch lists the user-editable fields; nil means unchanged.
type Patch struct {
	Kind        *models.TransactionKind
	Category    *string
	Amount      *decimal.Decimal
	Description *string
	OccurredAt  *time.Time
}

// Edit applies p and recomputes this entry's snapshot at its (possibly new)
// occurred_at. Snapshots of later entries are left as they were.
func (l *Ledger) Edit(ctx context.Context, owner, id string, p Patch) (*models.Transaction, error) {
	var out *models.Transaction
	err := l.within(ctx, func(tx *gorm.DB) error {
		t, err := findOwned(tx, owner, id)
		if err != nil {
			return err
		}
		if p.Kind != nil {
			t.Kind = *p.Kind
		}
		if p.Category != nil {
			t.Category = strings.TrimSpace(*p.Category)
		}
		if p.Amount != nil {
			t.Amount = *p.Amount
		}
		if p.Description != nil {
			t.Description = *p.Description
		}
		if p.OccurredAt != nil {
			t.OccurredAt = p.OccurredAt.UTC()
		}
		if err := validateEntry(t); err != nil {
			return err
		}
		if err := tx.Save(t).Error; err != nil {
			return fmt.Errorf("save transaction: %w", err)
		}
		if err := l.refreshSnapshot(ctx, tx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes one entry. Nothing that mirrored into it is reversed.
func (l *Ledger) Delete(ctx context.Context, owner, id string) error {
	res := l.db.WithContext(ctx).Where("id = ? AND owner = ?", id, owner).Delete(&models.Transaction{})
	if res.Error != nil {
		return fmt.Errorf("delete transaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("transaction %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// Dashboard is the month-scoped summary.
type Dashboard struct {
	Totals
	Balance decimal.Decimal `json:"balance"`
	Month   int             `json:"month"`
	Year    int             `json:"year"`
}

// Dashboard sums the month and reports the window-scoped balance. Zero month
// or year falls back to the current one.
func (l *Ledger) Dashboard(ctx context.Context, owner string, month, year int) (*Dashboard, error) {
	now := l.now().UTC()
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month must be 1-12", models.ErrValidation)
	}

	from, to := MonthWindow(year, time.Month(month))
	t, err := WindowTotals(ctx, l.db, owner, from, to)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Totals: t, Balance: t.Balance(), Month: month, Year: year}, nil
}

// BalanceAsOf exposes the cumulative balance for owner.
func (l *Ledger) BalanceAsOf(ctx context.Context, owner string, cutoff time.Time) (decimal.Decimal, error) {
	return BalanceAsOf(ctx, l.db, owner, cutoff)
}

// BalanceWithinWindow exposes the window-scoped balance for owner.
func (l *Ledger) BalanceWithinWindow(ctx context.Context, owner string, from, to time.Time) (decimal.Decimal, error) {
	return BalanceWithinWindow(ctx, l.db, owner, from, to)
}

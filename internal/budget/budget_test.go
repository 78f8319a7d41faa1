package budget

import (
	"context"
	"sync"
	"testing"
	"time"

	"fintracker/internal/database"
	"fintracker/internal/database/dbtest"
	"fintracker/internal/ledger"
	"fintracker/internal/lock"
	"fintracker/internal/models"
	"fintracker/internal/settings"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var ctx = context.Background()

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

type fixture struct {
	db     *gorm.DB
	svc    *Service
	rollup *Rollup
}

func newFixture(t *testing.T, gate Gate) *fixture {
	t.Helper()
	db := dbtest.New(t)
	uow := database.NewUnitOfWork(db)
	locks := lock.NewMemory()
	return &fixture{
		db:     db,
		svc:    NewService(db, uow, locks, nil),
		rollup: NewRollup(db, uow, ledger.New(db, nil), locks, gate, RollupOptions{}),
	}
}

func (f *fixture) ledgerRows(t *testing.T) []models.Transaction {
	t.Helper()
	var rows []models.Transaction
	require.NoError(t, f.db.Order("created_at ASC").Find(&rows).Error)
	return rows
}

func (f *fixture) newBudget(t *testing.T, target string) *models.Budget {
	t.Helper()
	in := Input{Title: "March", StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	if target != "" {
		in.TargetAmount = decimal.NewNullDecimal(dec(target))
	}
	b, err := f.svc.Create(ctx, "u1", in)
	require.NoError(t, err)
	return b
}

func TestItemLifecycleMirrorsSpend(t *testing.T) {
	f := newFixture(t, StaticGate(true))
	b := f.newBudget(t, "1000")

	res, err := f.rollup.CreateItem(ctx, "u1", b.ID, ItemInput{Title: "Groceries", Amount: dec("500"), SpentAmount: dec("200")})
	require.NoError(t, err)
	assertAmount(t, "200", res.Budget.CurrentAmount)
	rows := f.ledgerRows(t)
	require.Len(t, rows, 1)
	assert.Equal(t, models.KindExpense, rows[0].Kind)
	assert.Equal(t, "Budget", rows[0].Category)
	assertAmount(t, "200", rows[0].Amount)
	require.NotNil(t, rows[0].ItemRef)
	assert.Equal(t, res.Item.ID, *rows[0].ItemRef)

	itemID := res.Item.ID

	res, err = f.rollup.UpdateItem(ctx, "u1", b.ID, itemID, ItemPatch{SpentAmount: ptr(dec("350"))})
	require.NoError(t, err)
	assertAmount(t, "350", res.Budget.CurrentAmount)
	rows = f.ledgerRows(t)
	require.Len(t, rows, 2)
	assert.Equal(t, models.KindExpense, rows[1].Kind)
	assertAmount(t, "150", rows[1].Amount)

	res, err = f.rollup.UpdateItem(ctx, "u1", b.ID, itemID, ItemPatch{SpentAmount: ptr(dec("100"))})
	require.NoError(t, err)
	assertAmount(t, "100", res.Budget.CurrentAmount)
	rows = f.ledgerRows(t)
	require.Len(t, rows, 3)
	assert.Equal(t, models.KindIncome, rows[2].Kind)
	assertAmount(t, "250", rows[2].Amount)

	bud, err := f.rollup.DeleteItem(ctx, "u1", b.ID, itemID)
	require.NoError(t, err)
	assert.True(t, bud.CurrentAmount.IsZero())
	rows = f.ledgerRows(t)
	require.Len(t, rows, 4)
	assert.Equal(t, models.KindIncome, rows[3].Kind)
	assertAmount(t, "100", rows[3].Amount)
}

func TestAutoDeductOffStillRecomputes(t *testing.T) {
	f := newFixture(t, StaticGate(false))
	b := f.newBudget(t, "")

	res, err := f.rollup.CreateItem(ctx, "u1", b.ID, ItemInput{Title: "Rent", Amount: dec("900"), SpentAmount: dec("900")})
	require.NoError(t, err)
	assertAmount(t, "900", res.Budget.CurrentAmount)

	res, err = f.rollup.LogSpend(ctx, "u1", b.ID, res.Item.ID, dec("25"))
	require.NoError(t, err)
	assertAmount(t, "925", res.Budget.CurrentAmount)

	_, err = f.rollup.DeleteItem(ctx, "u1", b.ID, res.Item.ID)
	require.NoError(t, err)

	assert.Empty(t, f.ledgerRows(t))
}

func TestSettingsServiceActsAsGate(t *testing.T) {
	db := dbtest.New(t)
	gate := settings.NewService(db, "USD")
	off := false
	_, err := gate.Update(ctx, "u1", settings.Patch{AutoDeductBudgetExpenses: &off})
	require.NoError(t, err)

	uow := database.NewUnitOfWork(db)
	locks := lock.NewMemory()
	svc := NewService(db, uow, locks, nil)
	rollup := NewRollup(db, uow, ledger.New(db, nil), locks, gate, RollupOptions{Category: "Envelopes"})

	b, err := svc.Create(ctx, "u1", Input{Title: "Food"})
	require.NoError(t, err)
	_, err = rollup.CreateItem(ctx, "u1", b.ID, ItemInput{Title: "Lunch", SpentAmount: dec("12")})
	require.NoError(t, err)

	var n int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestRollupConsistencyAndIdempotentRecompute(t *testing.T) {
	f := newFixture(t, StaticGate(true))
	b := f.newBudget(t, "")

	var ids []string
	for _, spent := range []string{"10", "20.25", "0", "5"} {
		res, err := f.rollup.CreateItem(ctx, "u1", b.ID, ItemInput{Title: "Item", SpentAmount: dec(spent)})
		require.NoError(t, err)
		ids = append(ids, res.Item.ID)
	}
	_, err := f.rollup.UpdateItem(ctx, "u1", b.ID, ids[1], ItemPatch{SpentAmount: ptr(dec("1.75"))})
	require.NoError(t, err)
	_, err = f.rollup.LogSpend(ctx, "u1", b.ID, ids[2], dec("3"))
	require.NoError(t, err)
	_, err = f.rollup.DeleteItem(ctx, "u1", b.ID, ids[0])
	require.NoError(t, err)

	items, err := f.rollup.ListItems(ctx, "u1", b.ID)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.SpentAmount)
	}
	assertAmount(t, "9.75", sum)

	first, err := f.rollup.Recompute(ctx, "u1", b.ID)
	require.NoError(t, err)
	second, err := f.rollup.Recompute(ctx, "u1", b.ID)
	require.NoError(t, err)
	assertAmount(t, "9.75", first.CurrentAmount)
	assert.True(t, first.CurrentAmount.Equal(second.CurrentAmount))
}

func TestStatusFollowsRollup(t *testing.T) {
	f := newFixture(t, StaticGate(true))
	b := f.newBudget(t, "100")

	res, err := f.rollup.CreateItem(ctx, "u1", b.ID, ItemInput{Title: "Fuel", SpentAmount: dec("100")})
	require.NoError(t, err)
	assert.Equal(t, models.BudgetCompleted, res.Budget.Status)

	res, err = f.rollup.UpdateItem(ctx, "u1", b.ID, res.Item.ID, ItemPatch{SpentAmount: ptr(dec("40"))})
	require.NoError(t, err)
	assert.Equal(t, models.BudgetActive, res.Budget.Status)

	cancelled := models.BudgetCancelled
	_, err = f.svc.Update(ctx, "u1", b.ID, Patch{Status: &cancelled})
	require.NoError(t, err)

	res, err = f.rollup.LogSpend(ctx, "u1", b.ID, res.Item.ID, dec("100"))
	require.NoError(t, err)
	assert.Equal(t, models.BudgetCancelled, res.Budget.Status)
}

func TestClearingTargetReopensCompletedBudget(t *testing.T) {
	f := newFixture(t, StaticGate(false))
	b := f.newBudget(t, "50")

	res, err := f.rollup.CreateItem(ctx, "u1", b.ID, ItemInput{Title: "Fuel", SpentAmount: dec("60")})
	require.NoError(t, err)
	require.Equal(t, models.BudgetCompleted, res.Budget.Status)

	got, err := f.svc.Update(ctx, "u1", b.ID, Patch{TargetAmount: &decimal.NullDecimal{}})
	require.NoError(t, err)
	assert.False(t, got.TargetAmount.Valid)
	assert.Equal(t, models.BudgetActive, got.Status)

	got, err = f.rollup.Recompute(ctx, "u1", b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BudgetActive, got.Status)
}

func TestUpdateItemNonFinancialFieldsDoNotMirror(t *testing.T) {
	f := newFixture(t, StaticGate(true))
	b := f.newBudget(t, "")

	res, err := f.rollup.CreateItem(ctx, "u1", b.ID, ItemInput{Title: "Gym", Amount: dec("50")})
	require.NoError(t, err)

	res, err = f.rollup.UpdateItem(ctx, "u1", b.ID, res.Item.ID, ItemPatch{Title: ptr("Gym pass"), Amount: ptr(dec("60")), Description: ptr("monthly")})
	require.NoError(t, err)
	assert.Equal(t, "Gym pass", res.Item.Title)
	assertAmount(t, "60", res.Item.Amount)
	assert.Empty(t, f.ledgerRows(t))
}

func TestItemValidationLeavesNoTrace(t *testing.T) {
	f := newFixture(t, StaticGate(true))
	b := f.newBudget(t, "")

	_, err := f.rollup.CreateItem(ctx, "u1", b.ID, ItemInput{Title: "", SpentAmount: dec("5")})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.rollup.CreateItem(ctx, "u1", b.ID, ItemInput{Title: "X", SpentAmount: dec("-5")})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.rollup.CreateItem(ctx, "u2", b.ID, ItemInput{Title: "X", SpentAmount: dec("5")})
	assert.ErrorIs(t, err, models.ErrNotFound)

	res, err := f.rollup.CreateItem(ctx, "u1", b.ID, ItemInput{Title: "X"})
	require.NoError(t, err)
	_, err = f.rollup.LogSpend(ctx, "u1", b.ID, res.Item.ID, decimal.Zero)
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
	_, err = f.rollup.UpdateItem(ctx, "u1", b.ID, "missing", ItemPatch{})
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.Empty(t, f.ledgerRows(t))
}

func TestDeleteBudgetCascadesItemsKeepsLedger(t *testing.T) {
	f := newFixture(t, StaticGate(true))
	b := f.newBudget(t, "")

	_, err := f.rollup.CreateItem(ctx, "u1", b.ID, ItemInput{Title: "A", SpentAmount: dec("7")})
	require.NoError(t, err)
	_, err = f.rollup.CreateItem(ctx, "u1", b.ID, ItemInput{Title: "B", SpentAmount: dec("3")})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(ctx, "u2", b.ID), models.ErrNotFound)
	require.NoError(t, f.svc.Delete(ctx, "u1", b.ID))

	var n int64
	require.NoError(t, f.db.Model(&models.BudgetItem{}).Count(&n).Error)
	assert.Zero(t, n)
	_, err = f.svc.Get(ctx, "u1", b.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Len(t, f.ledgerRows(t), 2)
}

func TestBudgetCRUD(t *testing.T) {
	f := newFixture(t, StaticGate(true))

	_, err := f.svc.Create(ctx, "u1", Input{Title: " "})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = f.svc.Create(ctx, "u1", Input{Title: "T", TargetAmount: decimal.NewNullDecimal(decimal.Zero)})
	assert.ErrorIs(t, err, models.ErrInvalidAmount)

	b := f.newBudget(t, "300")
	_, err = f.rollup.CreateItem(ctx, "u1", b.ID, ItemInput{Title: "A", SpentAmount: dec("150")})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, "u1", b.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assertAmount(t, "150", got.CurrentAmount)

	lower := decimal.NewNullDecimal(dec("150"))
	upd, err := f.svc.Update(ctx, "u1", b.ID, Patch{Title: ptr("April"), TargetAmount: &lower})
	require.NoError(t, err)
	assert.Equal(t, "April", upd.Title)
	assert.Equal(t, models.BudgetCompleted, upd.Status)

	before := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = f.svc.Update(ctx, "u1", b.ID, Patch{EndDate: &before})
	assert.ErrorIs(t, err, models.ErrValidation)

	completed := models.BudgetCompleted
	_, err = f.svc.Update(ctx, "u1", b.ID, Patch{Status: &completed})
	assert.ErrorIs(t, err, models.ErrValidation)

	list, err := f.svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = f.svc.List(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStaleVersionConflicts(t *testing.T) {
	f := newFixture(t, StaticGate(true))
	b := f.newBudget(t, "")

	stale := *b
	b.Title = "fresh"
	require.NoError(t, saveBudget(f.db, b))

	stale.Title = "stale"
	assert.ErrorIs(t, saveBudget(f.db, &stale), models.ErrConflict)
}

func TestConcurrentLogSpendSums(t *testing.T) {
	f := newFixture(t, StaticGate(true))
	b := f.newBudget(t, "")
	res, err := f.rollup.CreateItem(ctx, "u1", b.ID, ItemInput{Title: "Coffee"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.rollup.LogSpend(ctx, "u1", b.ID, res.Item.ID, dec("2.50")); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	got, err := f.svc.Get(ctx, "u1", b.ID)
	require.NoError(t, err)
	assertAmount(t, "25", got.CurrentAmount)
	assert.Len(t, f.ledgerRows(t), 10)
}

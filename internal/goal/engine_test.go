package goal

import (
	"context"
	"sync"
	"testing"

	"fintracker/internal/database"
	"fintracker/internal/database/dbtest"
	"fintracker/internal/ledger"
	"fintracker/internal/lock"
	"fintracker/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var ctx = context.Background()

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func newEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()
	db := dbtest.New(t)
	return NewEngine(db, database.NewUnitOfWork(db), ledger.New(db, nil), lock.NewMemory(), Options{}), db
}

func entriesFor(t *testing.T, db *gorm.DB, goalID string) []models.Transaction {
	t.Helper()
	var rows []models.Transaction
	require.NoError(t, db.Where("goal_ref = ?", goalID).Order("created_at ASC").Find(&rows).Error)
	return rows
}

func create(t *testing.T, e *Engine, typ models.GoalType, target string) *models.Saving {
	t.Helper()
	g, err := e.Create(ctx, "u1", CreateInput{Title: string(typ) + " goal", Type: typ, TargetAmount: dec(target)})
	require.NoError(t, err)
	return g
}

func TestCreateLoanAndDebtMirrorTarget(t *testing.T) {
	e, db := newEngine(t)

	for _, typ := range []models.GoalType{models.GoalLoan, models.GoalDebt} {
		g := create(t, e, typ, "1000")
		assert.True(t, g.CurrentAmount.IsZero())
		assert.Equal(t, models.GoalActive, g.Status)

		rows := entriesFor(t, db, g.ID)
		require.Len(t, rows, 1)
		assert.Equal(t, models.KindTransfer, rows[0].Kind)
		assertAmount(t, "1000", rows[0].Amount)
	}

	s := create(t, e, models.GoalSaving, "1000")
	assert.Empty(t, entriesFor(t, db, s.ID))
}

func TestDebtOverpaymentSplitsInterest(t *testing.T) {
	e, db := newEngine(t)
	g := create(t, e, models.GoalDebt, "1000")

	got, err := e.Deposit(ctx, "u1", g.ID, dec("1200"))
	require.NoError(t, err)
	assertAmount(t, "1000", got.CurrentAmount)
	assert.Equal(t, models.GoalCompleted, got.Status)

	rows := entriesFor(t, db, g.ID)
	require.Len(t, rows, 3)
	assert.Equal(t, models.KindTransfer, rows[1].Kind)
	assertAmount(t, "1000", rows[1].Amount)
	assert.Contains(t, rows[1].Description, "Debt Repayment")
	assert.Equal(t, models.KindExpense, rows[2].Kind)
	assert.Equal(t, "Interest", rows[2].Category)
	assertAmount(t, "200", rows[2].Amount)

	assertAmount(t, "1200", rows[1].Amount.Add(rows[2].Amount))
}

func TestLoanOverpaymentIsIncome(t *testing.T) {
	e, db := newEngine(t)
	g := create(t, e, models.GoalLoan, "500")

	_, err := e.Deposit(ctx, "u1", g.ID, dec("300"))
	require.NoError(t, err)
	got, err := e.Deposit(ctx, "u1", g.ID, dec("260.50"))
	require.NoError(t, err)
	assertAmount(t, "500", got.CurrentAmount)

	rows := entriesFor(t, db, g.ID)
	require.Len(t, rows, 4)
	assertAmount(t, "200", rows[2].Amount)
	assert.Contains(t, rows[2].Description, "Loan Repayment")
	assert.Equal(t, models.KindIncome, rows[3].Kind)
	assertAmount(t, "60.50", rows[3].Amount)

	// settled loan: whole deposit is interest
	_, err = e.Deposit(ctx, "u1", g.ID, dec("10"))
	require.NoError(t, err)
	rows = entriesFor(t, db, g.ID)
	require.Len(t, rows, 5)
	assert.Equal(t, models.KindIncome, rows[4].Kind)
	assertAmount(t, "10", rows[4].Amount)
}

func TestSavingDepositHasNoCap(t *testing.T) {
	e, db := newEngine(t)
	g := create(t, e, models.GoalSaving, "500")

	got, err := e.Deposit(ctx, "u1", g.ID, dec("500"))
	require.NoError(t, err)
	assert.Equal(t, models.GoalCompleted, got.Status)

	got, err = e.Deposit(ctx, "u1", g.ID, dec("600"))
	require.NoError(t, err)
	assertAmount(t, "1100", got.CurrentAmount)
	assert.Equal(t, models.GoalCompleted, got.Status)

	rows := entriesFor(t, db, g.ID)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, models.KindTransfer, r.Kind)
	}
	assertAmount(t, "600", rows[1].Amount)
}

func TestWithdrawGuards(t *testing.T) {
	e, _ := newEngine(t)

	for _, typ := range []models.GoalType{models.GoalLoan, models.GoalDebt} {
		g := create(t, e, typ, "100")
		_, err := e.Deposit(ctx, "u1", g.ID, dec("50"))
		require.NoError(t, err)
		for _, amt := range []string{"10", "0", "-5"} {
			_, err = e.Withdraw(ctx, "u1", g.ID, dec(amt))
			assert.ErrorIs(t, err, models.ErrInvalidOperation, "%s withdraw %s", typ, amt)
		}
	}

	s := create(t, e, models.GoalSaving, "100")
	_, err := e.Deposit(ctx, "u1", s.ID, dec("40"))
	require.NoError(t, err)
	_, err = e.Withdraw(ctx, "u1", s.ID, dec("40.01"))
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)
	_, err = e.Withdraw(ctx, "u1", s.ID, dec("0"))
	assert.ErrorIs(t, err, models.ErrInvalidAmount)

	got, err := e.Get(ctx, "u1", s.ID)
	require.NoError(t, err)
	assertAmount(t, "40", got.CurrentAmount)
}

func TestCompletionFlipsAndReverts(t *testing.T) {
	e, db := newEngine(t)
	g := create(t, e, models.GoalSaving, "100")

	got, err := e.Deposit(ctx, "u1", g.ID, dec("60"))
	require.NoError(t, err)
	assert.Equal(t, models.GoalActive, got.Status)

	got, err = e.Deposit(ctx, "u1", g.ID, dec("40"))
	require.NoError(t, err)
	assert.Equal(t, models.GoalCompleted, got.Status)

	got, err = e.Withdraw(ctx, "u1", g.ID, dec("30"))
	require.NoError(t, err)
	assert.Equal(t, models.GoalActive, got.Status)
	assertAmount(t, "70", got.CurrentAmount)

	rows := entriesFor(t, db, g.ID)
	require.Len(t, rows, 3)
	assert.Contains(t, rows[2].Description, "Savings Withdrawal")

	// lowering the target completes it again, raising reopens it
	lower := dec("70")
	got, err = e.Update(ctx, "u1", g.ID, Patch{TargetAmount: &lower})
	require.NoError(t, err)
	assert.Equal(t, models.GoalCompleted, got.Status)

	higher := dec("200")
	got, err = e.Update(ctx, "u1", g.ID, Patch{TargetAmount: &higher})
	require.NoError(t, err)
	assert.Equal(t, models.GoalActive, got.Status)
	assertAmount(t, "70", got.CurrentAmount)
}

func TestDepositRejectsBadInput(t *testing.T) {
	e, _ := newEngine(t)
	g := create(t, e, models.GoalDebt, "100")

	_, err := e.Deposit(ctx, "u1", g.ID, dec("0"))
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
	_, err = e.Deposit(ctx, "u1", g.ID, dec("-5"))
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
	_, err = e.Deposit(ctx, "u2", g.ID, dec("5"))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreateValidation(t *testing.T) {
	e, db := newEngine(t)

	_, err := e.Create(ctx, "u1", CreateInput{Title: "x", Type: "stock", TargetAmount: dec("1")})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = e.Create(ctx, "u1", CreateInput{Title: "x", Type: models.GoalLoan, TargetAmount: dec("0")})
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
	_, err = e.Create(ctx, "u1", CreateInput{Title: "", Type: models.GoalLoan, TargetAmount: dec("1")})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = e.Create(ctx, "u1", CreateInput{Title: "x", Type: models.GoalLoan, TargetAmount: dec("1"), InterestRate: dec("-1")})
	assert.ErrorIs(t, err, models.ErrValidation)

	var n int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestListDeleteKeepsHistory(t *testing.T) {
	e, db := newEngine(t)
	loan := create(t, e, models.GoalLoan, "100")
	create(t, e, models.GoalSaving, "100")

	all, err := e.List(ctx, "u1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	loans, err := e.List(ctx, "u1", models.GoalLoan)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, loan.ID, loans[0].ID)

	_, err = e.List(ctx, "u1", "bond")
	assert.ErrorIs(t, err, models.ErrValidation)

	assert.ErrorIs(t, e.Delete(ctx, "u2", loan.ID), models.ErrNotFound)
	require.NoError(t, e.Delete(ctx, "u1", loan.ID))
	_, err = e.Get(ctx, "u1", loan.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Len(t, entriesFor(t, db, loan.ID), 1)
}

func TestConcurrentDepositsAccumulate(t *testing.T) {
	e, db := newEngine(t)
	g := create(t, e, models.GoalSaving, "10000")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Deposit(ctx, "u1", g.ID, dec("12.50")); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	got, err := e.Get(ctx, "u1", g.ID)
	require.NoError(t, err)
	assertAmount(t, "250", got.CurrentAmount)
	assert.EqualValues(t, 20, got.Version)
	assert.Len(t, entriesFor(t, db, g.ID), 20)
}

func TestStaleGoalVersionConflicts(t *testing.T) {
	e, db := newEngine(t)
	g := create(t, e, models.GoalSaving, "100")

	stale := *g
	require.NoError(t, saveGoal(db, g))
	assert.ErrorIs(t, saveGoal(db, &stale), models.ErrConflict)
}

func TestVariants(t *testing.T) {
	_, err := FromRecord(&models.Saving{Type: "bond"})
	assert.ErrorIs(t, err, models.ErrValidation)

	loan, err := FromRecord(&models.Saving{Type: models.GoalLoan, TargetAmount: dec("100"), CurrentAmount: dec("90")})
	require.NoError(t, err)
	_, ok := loan.(Withdrawable)
	assert.False(t, ok)
	p, x := loan.Split(dec("25"))
	assertAmount(t, "10", p)
	assertAmount(t, "15", x)

	saving, err := FromRecord(&models.Saving{Type: models.GoalSaving, TargetAmount: dec("100"), CurrentAmount: dec("90")})
	require.NoError(t, err)
	_, ok = saving.(Withdrawable)
	assert.True(t, ok)
	p, x = saving.Split(dec("25"))
	assertAmount(t, "25", p)
	assert.True(t, x.IsZero())
}

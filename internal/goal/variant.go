package goal

import (
	"fmt"

	"fintracker/internal/models"

	"github.com/shopspring/decimal"
)

// Goal is one of SavingGoal, LoanGoal or DebtGoal wrapping the stored row.
type Goal interface {
	Record() *models.Saving
	// Split divides a deposit into the principal that moves the goal and any
	// overflow that is booked as interest.
	Split(amount decimal.Decimal) (principal, extra decimal.Decimal)
	// ExtraKind is the ledger kind used for the interest overflow.
	ExtraKind() models.TransactionKind
	category() string
	depositNote() string
	// opening is the transfer mirrored at creation; ok is false when none.
	opening() (note string, ok bool)
}

// Withdrawable is implemented only by goals money can be taken back out of.
type Withdrawable interface {
	Goal
	Withdraw(amount decimal.Decimal) error
}

// FromRecord picks the variant for s.Type.
func FromRecord(s *models.Saving) (Goal, error) {
	switch s.Type {
	case models.GoalSaving:
		return &SavingGoal{rec: s}, nil
	case models.GoalLoan:
		return &LoanGoal{principalGoal{rec: s}}, nil
	case models.GoalDebt:
		return &DebtGoal{principalGoal{rec: s}}, nil
	}
	return nil, fmt.Errorf("%w: unknown goal type %q", models.ErrValidation, s.Type)
}

// SavingGoal accumulates without a cap; deposits past the target are kept.
type SavingGoal struct {
	rec *models.Saving
}

func (g *SavingGoal) Record() *models.Saving { return g.rec }

func (g *SavingGoal) Split(amount decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	return amount, decimal.Zero
}

func (g *SavingGoal) ExtraKind() models.TransactionKind { return models.KindIncome }
func (g *SavingGoal) category() string                  { return "Savings" }
func (g *SavingGoal) depositNote() string               { return "Savings Deposit" }
func (g *SavingGoal) opening() (string, bool)           { return "", false }

func (g *SavingGoal) Withdraw(amount decimal.Decimal) error {
	if amount.GreaterThan(g.rec.CurrentAmount) {
		return fmt.Errorf("%w: requested %s, available %s", models.ErrInsufficientFunds, amount, g.rec.CurrentAmount)
	}
	g.rec.CurrentAmount = g.rec.CurrentAmount.Sub(amount)
	return nil
}

// principalGoal caps principal at the remaining balance.
type principalGoal struct {
	rec *models.Saving
}

func (g *principalGoal) Record() *models.Saving { return g.rec }

func (g *principalGoal) Split(amount decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	remaining := g.rec.Remaining()
	if amount.GreaterThan(remaining) {
		return remaining, amount.Sub(remaining)
	}
	return amount, decimal.Zero
}

// LoanGoal is money lent out; deposits are repayments received and any
// overflow is interest earned.
type LoanGoal struct{ principalGoal }

func (g *LoanGoal) ExtraKind() models.TransactionKind { return models.KindIncome }
func (g *LoanGoal) category() string                  { return "Loan" }
func (g *LoanGoal) depositNote() string               { return "Loan Repayment" }
func (g *LoanGoal) opening() (string, bool)           { return "Loan Disbursed", true }

// DebtGoal is money borrowed; deposits are repayments made and any overflow
// is interest paid.
type DebtGoal struct{ principalGoal }

func (g *DebtGoal) ExtraKind() models.TransactionKind { return models.KindExpense }
func (g *DebtGoal) category() string                  { return "Debt" }
func (g *DebtGoal) depositNote() string               { return "Debt Repayment" }
func (g *DebtGoal) opening() (string, bool)           { return "Debt Received", true }

package core

import "time"

// Summary is the set of derived metrics over a ledger snapshot. Every value
// is a stateless projection; callers recompute it on demand.
type Summary struct {
	TotalIncome      Money
	TotalExpenses    Money
	UnpaidBillsTotal Money
	Balance          Money
	AfterBills       Money
	SpentThisMonth   Money
}

// Summarize computes all derived metrics from the current transactions and
// bills. Bill payments already materialize as expense transactions, so paid
// bills are never subtracted a second time: Balance is income minus expense
// transactions, and AfterBills additionally deducts what is still unpaid.
// SpentThisMonth counts expense transactions dated in now's local calendar
// month and year.
func Summarize(txs []Transaction, bills []Bill, now time.Time) Summary {
	var s Summary
	year, month, _ := now.Date()
	for _, t := range txs {
		switch t.Type {
		case Income:
			s.TotalIncome.Cents += t.Amount.Cents
		case Expense:
			s.TotalExpenses.Cents += t.Amount.Cents
			ty, tm, _ := t.Date.Date()
			if ty == year && tm == month {
				s.SpentThisMonth.Cents += t.Amount.Cents
			}
		}
	}
	for _, b := range bills {
		if !b.Paid {
			s.UnpaidBillsTotal.Cents += b.Amount.Cents
		}
	}
	s.Balance.Cents = s.TotalIncome.Cents - s.TotalExpenses.Cents
	s.AfterBills.Cents = s.Balance.Cents - s.UnpaidBillsTotal.Cents
	return s
}

// FillBudget overwrites the derived fields of a budget from the summary.
// Spent mirrors the current month's expenses; Saved is the remaining balance
// after everything still owed, floored at zero.
func (s Summary) FillBudget(b Budget) Budget {
	b.Spent = s.SpentThisMonth
	saved := s.AfterBills.Cents
	if saved < 0 {
		saved = 0
	}
	b.Saved = Money{Cents: saved}
	return b
}

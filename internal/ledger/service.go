package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"billfold/internal/core"
	"billfold/internal/event"
)

// Service orchestrates ledger mutations and derived-metric reads over a
// Store. All mutations are synchronous; event publishing is best-effort and
// never fails the mutation.
type Service struct {
	store    Store
	events   EventPublisher
	now      func() time.Time
	currency string
}

func New(store Store, events EventPublisher) *Service {
	return &Service{
		store:    store,
		events:   events,
		now:      time.Now,
		currency: "USD",
	}
}

// WithClock overrides the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithDefaultCurrency sets the display currency used when a budget carries
// none. Cosmetic only, no conversion happens anywhere.
func (s *Service) WithDefaultCurrency(currency string) *Service {
	if currency != "" {
		s.currency = currency
	}
	return s
}

// AddTransaction parses and validates the form inputs, then appends a new
// transaction. The amount must parse as a positive decimal and the
// description must be non-empty; otherwise nothing is committed.
func (s *Service) AddTransaction(ctx context.Context, typ core.TransactionType, amountStr, description string) (core.Transaction, error) {
	cents, err := core.ParseDecimalToCents(amountStr)
	if err != nil {
		return core.Transaction{}, err
	}

	t := core.Transaction{
		ID:          core.NewID(),
		Type:        typ,
		Amount:      core.Money{Cents: cents},
		Description: description,
		Date:        s.now(),
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.store.AppendTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"id", t.ID,
		"type", t.Type,
		"amount_cents", t.Amount.Cents,
		"description", t.Description)

	s.publish(ctx, event.KindTransactionCreated, t.ID, t.Amount.Cents, t.Description)
	return t, nil
}

// RemoveTransaction deletes a transaction by ID.
func (s *Service) RemoveTransaction(ctx context.Context, id string) error {
	if err := s.store.RemoveTransaction(ctx, id); err != nil {
		return fmt.Errorf("remove transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction removed", "id", id)
	s.publish(ctx, event.KindTransactionRemoved, id, 0, "")
	return nil
}

// Transactions returns all transactions in insertion order.
func (s *Service) Transactions(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx)
}

// AddBill parses and validates the form inputs, then appends a new bill.
func (s *Service) AddBill(ctx context.Context, name, amountStr string, dueDay int, monthly bool) (core.Bill, error) {
	cents, err := core.ParseDecimalToCents(amountStr)
	if err != nil {
		return core.Bill{}, err
	}

	b := core.Bill{
		ID:      core.NewID(),
		Name:    name,
		Amount:  core.Money{Cents: cents},
		DueDay:  dueDay,
		Monthly: monthly,
	}
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}

	if err := s.store.AppendBill(ctx, b); err != nil {
		return core.Bill{}, fmt.Errorf("append bill: %w", err)
	}

	slog.InfoContext(ctx, "Bill recorded",
		"id", b.ID,
		"name", b.Name,
		"amount_cents", b.Amount.Cents,
		"due_day", b.DueDay,
		"monthly", b.Monthly)

	return b, nil
}

// RemoveBill deletes a bill by ID. Any payment transaction it created stays
// in the ledger; the money was spent either way.
func (s *Service) RemoveBill(ctx context.Context, id string) error {
	if err := s.store.RemoveBill(ctx, id); err != nil {
		return fmt.Errorf("remove bill: %w", err)
	}
	slog.InfoContext(ctx, "Bill removed", "id", id)
	return nil
}

// Bills returns all bills in insertion order.
func (s *Service) Bills(ctx context.Context) ([]core.Bill, error) {
	return s.store.ListBills(ctx)
}

// SetBillPaid toggles a bill's paid state. Marking paid appends a matching
// expense transaction carrying the bill's ID as a back-reference; marking
// unpaid removes that transaction again. Setting the current state is a
// no-op, so a bill can never accumulate duplicate payment transactions.
func (s *Service) SetBillPaid(ctx context.Context, id string, paid bool) (core.Bill, error) {
	b, err := s.store.GetBill(ctx, id)
	if err != nil {
		return core.Bill{}, fmt.Errorf("get bill: %w", err)
	}
	if b.Paid == paid {
		return b, nil
	}

	if paid {
		now := s.now()
		t := core.Transaction{
			ID:          core.NewID(),
			Type:        core.Expense,
			Amount:      b.Amount,
			Description: b.PaymentDescription(),
			BillID:      b.ID,
			Date:        now,
		}
		if err := s.store.AppendTransaction(ctx, t); err != nil {
			return core.Bill{}, fmt.Errorf("append payment transaction: %w", err)
		}

		b.Paid = true
		b.PaidYear, b.PaidMonth = now.Year(), int(now.Month())
		if err := s.store.UpdateBill(ctx, b); err != nil {
			return core.Bill{}, fmt.Errorf("update bill: %w", err)
		}

		slog.InfoContext(ctx, "Bill marked paid",
			"id", b.ID,
			"name", b.Name,
			"payment_transaction_id", t.ID)
		s.publish(ctx, event.KindBillPaid, b.ID, b.Amount.Cents, b.Name)
		return b, nil
	}

	if txID, ok, err := s.findPaymentTransaction(ctx, b); err != nil {
		return core.Bill{}, err
	} else if ok {
		if err := s.store.RemoveTransaction(ctx, txID); err != nil {
			return core.Bill{}, fmt.Errorf("remove payment transaction: %w", err)
		}
	} else {
		// Best-effort reversal: the payment may have been removed by hand.
		slog.WarnContext(ctx, "No payment transaction found for unpaid bill",
			"id", b.ID, "name", b.Name)
	}

	b.Paid = false
	b.PaidYear, b.PaidMonth = 0, 0
	if err := s.store.UpdateBill(ctx, b); err != nil {
		return core.Bill{}, fmt.Errorf("update bill: %w", err)
	}

	slog.InfoContext(ctx, "Bill marked unpaid", "id", b.ID, "name", b.Name)
	s.publish(ctx, event.KindBillUnpaid, b.ID, b.Amount.Cents, b.Name)
	return b, nil
}

// findPaymentTransaction locates the transaction created when b was last
// marked paid. A monthly bill accumulates one payment per month, so the scan
// runs newest-first: reversal must remove the latest payment and leave prior
// months' history alone. The bill ID back-reference is authoritative; an
// exact match on the synthesized description is kept as a fallback for
// records imported from systems that only stored the description string.
func (s *Service) findPaymentTransaction(ctx context.Context, b core.Bill) (string, bool, error) {
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return "", false, fmt.Errorf("list transactions: %w", err)
	}
	for i := len(txs) - 1; i >= 0; i-- {
		if txs[i].BillID == b.ID {
			return txs[i].ID, true, nil
		}
	}
	want := b.PaymentDescription()
	for i := len(txs) - 1; i >= 0; i-- {
		t := txs[i]
		if t.BillID == "" && t.Type == core.Expense && t.Description == want {
			return t.ID, true, nil
		}
	}
	return "", false, nil
}

// SetBudget stores the user targets and settings. Derived fields are ignored
// on write; an empty currency falls back to the service default.
func (s *Service) SetBudget(ctx context.Context, b core.Budget) error {
	b.Spent, b.Saved = core.Money{}, core.Money{}
	if b.Currency == "" {
		b.Currency = s.currency
	}
	if err := s.store.SaveBudget(ctx, b); err != nil {
		return fmt.Errorf("save budget: %w", err)
	}
	slog.InfoContext(ctx, "Budget updated",
		"monthly_limit_cents", b.MonthlyLimit.Cents,
		"savings_goal_cents", b.SavingsGoal.Cents,
		"currency", b.Currency)
	return nil
}

// Budget returns the stored budget with Spent and Saved filled from the
// current summary.
func (s *Service) Budget(ctx context.Context) (core.Budget, error) {
	b, err := s.store.GetBudget(ctx)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	if b.Currency == "" {
		b.Currency = s.currency
	}
	sum, err := s.Summary(ctx)
	if err != nil {
		return core.Budget{}, err
	}
	return sum.FillBudget(b), nil
}

// Summary recomputes all derived metrics from the current snapshot.
func (s *Service) Summary(ctx context.Context) (core.Summary, error) {
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return core.Summary{}, fmt.Errorf("list transactions: %w", err)
	}
	bills, err := s.store.ListBills(ctx)
	if err != nil {
		return core.Summary{}, fmt.Errorf("list bills: %w", err)
	}
	return core.Summarize(txs, bills, s.now()), nil
}

func (s *Service) publish(ctx context.Context, kind, entityID string, cents int64, description string) {
	if s.events == nil {
		return
	}
	ev := event.NewLedgerEvent(kind, entityID, cents, description)
	if err := s.events.Publish(ctx, ev); err != nil {
		// The mutation already committed; losing an event is tolerable.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", kind, "entity_id", entityID, "error", err)
	}
}

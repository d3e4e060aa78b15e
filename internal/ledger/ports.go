package ledger

import (
	"context"

	"billfold/internal/core"
	"billfold/internal/event"
)

// Ports for the pluggable storage backends. Listings preserve insertion order.
type (
	TransactionStore interface {
		AppendTransaction(ctx context.Context, t core.Transaction) error
		// RemoveTransaction removes by ID; core.ErrNotFound if absent.
		RemoveTransaction(ctx context.Context, id string) error
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	BillStore interface {
		AppendBill(ctx context.Context, b core.Bill) error
		// UpdateBill replaces the stored bill with the same ID in place.
		UpdateBill(ctx context.Context, b core.Bill) error
		RemoveBill(ctx context.Context, id string) error
		GetBill(ctx context.Context, id string) (core.Bill, error)
		ListBills(ctx context.Context) ([]core.Bill, error)
	}

	BudgetStore interface {
		SaveBudget(ctx context.Context, b core.Budget) error
		GetBudget(ctx context.Context) (core.Budget, error)
	}

	// Store is the full backend contract the service operates on.
	Store interface {
		TransactionStore
		BillStore
		BudgetStore
	}

	// EventPublisher pushes ledger events to interested consumers.
	// A nil publisher disables eventing.
	EventPublisher interface {
		Publish(ctx context.Context, ev *event.LedgerEvent) error
	}
)

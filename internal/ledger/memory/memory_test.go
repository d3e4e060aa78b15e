package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"billfold/internal/core"
)

func TestTransactionsPreserveInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := New()

	ids := []string{}
	for _, desc := range []string{"first", "second", "third"} {
		tx := core.Transaction{
			ID: core.NewID(), Type: core.Expense,
			Amount: core.Money{Cents: 100}, Description: desc, Date: time.Now(),
		}
		ids = append(ids, tx.ID)
		if err := s.AppendTransaction(ctx, tx); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	txs, err := s.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txs))
	}
	for i, tx := range txs {
		if tx.ID != ids[i] {
			t.Fatalf("position %d: expected %s, got %s", i, ids[i], tx.ID)
		}
	}
}

func TestRemoveTransaction(t *testing.T) {
	ctx := context.Background()
	s := New()
	tx := core.Transaction{ID: core.NewID(), Type: core.Income, Amount: core.Money{Cents: 100}, Description: "x", Date: time.Now()}
	if err := s.AppendTransaction(ctx, tx); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := s.RemoveTransaction(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.RemoveTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	txs, _ := s.ListTransactions(ctx)
	if len(txs) != 0 {
		t.Fatalf("expected empty, got %d", len(txs))
	}
}

func TestBillUpdateAndGet(t *testing.T) {
	ctx := context.Background()
	s := New()
	b := core.Bill{ID: core.NewID(), Name: "Rent", Amount: core.Money{Cents: 50000}, DueDay: 1}
	if err := s.AppendBill(ctx, b); err != nil {
		t.Fatalf("append: %v", err)
	}

	b.Paid = true
	if err := s.UpdateBill(ctx, b); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetBill(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Paid {
		t.Fatal("update not visible on get")
	}

	if err := s.UpdateBill(ctx, core.Bill{ID: "missing"}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetBill(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListingsReturnCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.AppendBill(ctx, core.Bill{ID: "b1", Name: "Rent", Amount: core.Money{Cents: 1}, DueDay: 1})

	bills, _ := s.ListBills(ctx)
	bills[0].Name = "mutated"

	again, _ := s.ListBills(ctx)
	if again[0].Name != "Rent" {
		t.Fatal("listing exposed internal slice")
	}
}

func TestBudgetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	// The store holds exactly what was saved; defaults are layered on top
	// by the service.
	def, err := s.GetBudget(ctx)
	if err != nil {
		t.Fatalf("get default: %v", err)
	}
	if def != (core.Budget{}) {
		t.Fatalf("fresh store budget = %+v, want zero value", def)
	}

	want := core.Budget{MonthlyLimit: core.Money{Cents: 200000}, SavingsGoal: core.Money{Cents: 50000}, Currency: "EUR", BiometricLock: true}
	if err := s.SaveBudget(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _ := s.GetBudget(ctx)
	if got != want {
		t.Fatalf("budget = %+v, want %+v", got, want)
	}
}

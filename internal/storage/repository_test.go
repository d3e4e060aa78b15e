package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"billfold/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "billfold.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestTransactionRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	want := core.Transaction{
		ID:          core.NewID(),
		Type:        core.Expense,
		Amount:      core.Money{Cents: 1250},
		Description: "lunch",
		Date:        time.Date(2026, 8, 15, 12, 30, 0, 0, time.UTC),
	}
	if err := repo.AppendTransaction(ctx, want); err != nil {
		t.Fatalf("append: %v", err)
	}

	txs, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	got := txs[0]
	if got.ID != want.ID || got.Type != want.Type || got.Amount != want.Amount ||
		got.Description != want.Description || got.BillID != "" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.Date.Equal(want.Date) {
		t.Fatalf("date = %v, want %v", got.Date, want.Date)
	}
}

func TestTransactionsOrderedByInsertion(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	var ids []string
	for i := 0; i < 5; i++ {
		tx := core.Transaction{
			ID: core.NewID(), Type: core.Income,
			Amount: core.Money{Cents: int64(100 * (i + 1))}, Description: "tx", Date: time.Now(),
		}
		ids = append(ids, tx.ID)
		if err := repo.AppendTransaction(ctx, tx); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	txs, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, tx := range txs {
		if tx.ID != ids[i] {
			t.Fatalf("position %d: got %s, want %s", i, tx.ID, ids[i])
		}
	}
}

func TestRemoveTransactionNotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.RemoveTransaction(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBillLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	b := core.Bill{ID: core.NewID(), Name: "Rent", Amount: core.Money{Cents: 50000}, DueDay: 1, Monthly: true}
	if err := repo.AppendBill(ctx, b); err != nil {
		t.Fatalf("append: %v", err)
	}

	b.Paid = true
	b.PaidYear, b.PaidMonth = 2026, 8
	if err := repo.UpdateBill(ctx, b); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.GetBill(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != b {
		t.Fatalf("bill = %+v, want %+v", got, b)
	}

	if err := repo.RemoveBill(ctx, b.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := repo.GetBill(ctx, b.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
}

func TestBudgetDefaultsAndSave(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	// The seeded row carries no currency; the service layers its
	// configured default on top.
	def, err := repo.GetBudget(ctx)
	if err != nil {
		t.Fatalf("get default budget: %v", err)
	}
	if def != (core.Budget{}) {
		t.Fatalf("seeded budget = %+v, want zero value", def)
	}

	want := core.Budget{
		MonthlyLimit:  core.Money{Cents: 150000},
		SavingsGoal:   core.Money{Cents: 300000},
		Currency:      "EUR",
		BiometricLock: true,
	}
	if err := repo.SaveBudget(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.GetBudget(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != want {
		t.Fatalf("budget = %+v, want %+v", got, want)
	}
}

// Package memory is the session-only ledger backend: everything lives in
// ordered in-memory slices and is lost on restart.
package memory

import (
	"context"
	"sync"

	"billfold/internal/core"
)

type Store struct {
	mu     sync.Mutex
	txs    []core.Transaction
	bills  []core.Bill
	budget core.Budget
}

func New() *Store {
	return &Store{}
}

func (s *Store) AppendTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, t)
	return nil
}

func (s *Store) RemoveTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.txs {
		if t.ID == id {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.txs))
	copy(out, s.txs)
	return out, nil
}

func (s *Store) AppendBill(_ context.Context, b core.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bills = append(s.bills, b)
	return nil
}

func (s *Store) UpdateBill(_ context.Context, b core.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.bills {
		if cur.ID == b.ID {
			s.bills[i] = b
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) RemoveBill(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.bills {
		if b.ID == id {
			s.bills = append(s.bills[:i], s.bills[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) GetBill(_ context.Context, id string) (core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bills {
		if b.ID == id {
			return b, nil
		}
	}
	return core.Bill{}, core.ErrNotFound
}

func (s *Store) ListBills(_ context.Context) ([]core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Bill, len(s.bills))
	copy(out, s.bills)
	return out, nil
}

func (s *Store) SaveBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budget = b
	return nil
}

func (s *Store) GetBudget(_ context.Context) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budget, nil
}

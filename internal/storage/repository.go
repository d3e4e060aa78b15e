package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"billfold/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the persistent ledger backend. It satisfies
// ledger.Store; listings come back in insertion order (rowid).
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) AppendTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, type, amount_cents, description, bill_id, date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, string(t.Type), t.Amount.Cents, t.Description, t.BillID, t.Date.UTC())
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"type", t.Type,
		"amount_cents", t.Amount.Cents,
		"description", t.Description)

	return nil
}

func (r *SQLiteRepository) RemoveTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, type, amount_cents, description, bill_id, date
		 FROM transactions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t    core.Transaction
			typ  string
			date time.Time
		)
		if err := rows.Scan(&t.ID, &typ, &t.Amount.Cents, &t.Description, &t.BillID, &date); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(typ)
		t.Date = date.Local()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) AppendBill(ctx context.Context, b core.Bill) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bills (id, name, amount_cents, due_day, paid, monthly, paid_year, paid_month)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Amount.Cents, b.DueDay, b.Paid, b.Monthly, b.PaidYear, b.PaidMonth)
	if err != nil {
		return fmt.Errorf("insert bill: %w", err)
	}

	slog.InfoContext(ctx, "Bill saved to SQLite",
		"id", b.ID,
		"name", b.Name,
		"amount_cents", b.Amount.Cents,
		"due_day", b.DueDay)

	return nil
}

func (r *SQLiteRepository) UpdateBill(ctx context.Context, b core.Bill) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bills SET name = ?, amount_cents = ?, due_day = ?, paid = ?, monthly = ?, paid_year = ?, paid_month = ?
		 WHERE id = ?`,
		b.Name, b.Amount.Cents, b.DueDay, b.Paid, b.Monthly, b.PaidYear, b.PaidMonth, b.ID)
	if err != nil {
		return fmt.Errorf("update bill: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) RemoveBill(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bills WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetBill(ctx context.Context, id string) (core.Bill, error) {
	var b core.Bill
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, amount_cents, due_day, paid, monthly, paid_year, paid_month
		 FROM bills WHERE id = ?`, id).
		Scan(&b.ID, &b.Name, &b.Amount.Cents, &b.DueDay, &b.Paid, &b.Monthly, &b.PaidYear, &b.PaidMonth)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, core.ErrNotFound
	}
	if err != nil {
		return core.Bill{}, fmt.Errorf("get bill: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBills(ctx context.Context) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, amount_cents, due_day, paid, monthly, paid_year, paid_month
		 FROM bills ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query bills: %w", err)
	}
	defer rows.Close()

	var out []core.Bill
	for rows.Next() {
		var b core.Bill
		if err := rows.Scan(&b.ID, &b.Name, &b.Amount.Cents, &b.DueDay, &b.Paid, &b.Monthly, &b.PaidYear, &b.PaidMonth); err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bills: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) SaveBudget(ctx context.Context, b core.Budget) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE budget SET monthly_limit_cents = ?, savings_goal_cents = ?, currency = ?, biometric_lock = ?
		 WHERE id = 1`,
		b.MonthlyLimit.Cents, b.SavingsGoal.Cents, b.Currency, b.BiometricLock)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context) (core.Budget, error) {
	var b core.Budget
	err := r.db.QueryRowContext(ctx,
		`SELECT monthly_limit_cents, savings_goal_cents, currency, biometric_lock FROM budget WHERE id = 1`).
		Scan(&b.MonthlyLimit.Cents, &b.SavingsGoal.Cents, &b.Currency, &b.BiometricLock)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

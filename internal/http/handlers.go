package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"billfold/internal/core"
)

// View types returned to clients. Amounts travel both as raw cents and as a
// formatted decimal string.
type (
	transactionView struct {
		ID          string `json:"id"`
		Type        string `json:"type"`
		AmountCents int64  `json:"amount_cents"`
		Amount      string `json:"amount"`
		Description string `json:"description"`
		BillID      string `json:"bill_id,omitempty"`
		Date        string `json:"date"`
	}

	billView struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		AmountCents int64  `json:"amount_cents"`
		Amount      string `json:"amount"`
		DueDay      int    `json:"due_day"`
		Paid        bool   `json:"paid"`
		Monthly     bool   `json:"monthly"`
	}

	budgetView struct {
		MonthlyLimitCents int64  `json:"monthly_limit_cents"`
		SavingsGoalCents  int64  `json:"savings_goal_cents"`
		Currency          string `json:"currency"`
		BiometricLock     bool   `json:"biometric_lock"`
		SpentCents        int64  `json:"spent_cents"`
		SavedCents        int64  `json:"saved_cents"`
	}

	summaryView struct {
		TotalIncomeCents      int64  `json:"total_income_cents"`
		TotalExpensesCents    int64  `json:"total_expenses_cents"`
		UnpaidBillsTotalCents int64  `json:"unpaid_bills_total_cents"`
		BalanceCents          int64  `json:"balance_cents"`
		AfterBillsCents       int64  `json:"after_bills_cents"`
		SpentThisMonthCents   int64  `json:"spent_this_month_cents"`
		Balance               string `json:"balance"`
		AfterBills            string `json:"after_bills"`
	}

	errorView struct {
		Error string `json:"error"`
	}
)

func toTransactionView(t core.Transaction) transactionView {
	return transactionView{
		ID:          t.ID,
		Type:        string(t.Type),
		AmountCents: t.Amount.Cents,
		Amount:      t.Amount.String(),
		Description: t.Description,
		BillID:      t.BillID,
		Date:        t.Date.Format(time.RFC3339),
	}
}

func toBillView(b core.Bill) billView {
	return billView{
		ID:          b.ID,
		Name:        b.Name,
		AmountCents: b.Amount.Cents,
		Amount:      b.Amount.String(),
		DueDay:      b.DueDay,
		Paid:        b.Paid,
		Monthly:     b.Monthly,
	}
}

func toBudgetView(b core.Budget) budgetView {
	return budgetView{
		MonthlyLimitCents: b.MonthlyLimit.Cents,
		SavingsGoalCents:  b.SavingsGoal.Cents,
		Currency:          b.Currency,
		BiometricLock:     b.BiometricLock,
		SpentCents:        b.Spent.Cents,
		SavedCents:        b.Saved.Cents,
	}
}

func toSummaryView(s core.Summary) summaryView {
	return summaryView{
		TotalIncomeCents:      s.TotalIncome.Cents,
		TotalExpensesCents:    s.TotalExpenses.Cents,
		UnpaidBillsTotalCents: s.UnpaidBillsTotal.Cents,
		BalanceCents:          s.Balance.Cents,
		AfterBillsCents:       s.AfterBills.Cents,
		SpentThisMonthCents:   s.SpentThisMonth.Cents,
		Balance:               s.Balance.String(),
		AfterBills:            s.AfterBills.String(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses: input rejections are 422,
// unknown identifiers 404, everything else 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case core.IsValidation(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorView{Error: err.Error()})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorView{Error: "not found"})
	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "method", r.Method, "url", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorView{Error: "internal error"})
	}
}

// sanitizeInput removes control characters and trims whitespace
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// ledgerChanged invalidates cached summaries and pushes the fresh one to
// connected dashboards.
func (s *Server) ledgerChanged(r *http.Request) {
	s.summaryCache.Purge()
	sum, err := s.ledger.Summary(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Summary recompute after mutation failed", "error", err)
		return
	}
	s.hub.BroadcastSummary(toSummaryView(sum))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorView{Error: "invalid form data"})
		return
	}

	typ := core.TransactionType(sanitizeInput(r.Form.Get("type")))
	amount := strings.TrimSpace(r.Form.Get("amount"))
	description := sanitizeInput(r.Form.Get("description"))

	t, err := s.ledger.AddTransaction(r.Context(), typ, amount, description)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ledgerChanged(r)
	writeJSON(w, http.StatusCreated, toTransactionView(t))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.Transactions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	views := make([]transactionView, 0, len(txs))
	for _, t := range txs {
		views = append(views, toTransactionView(t))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.ledger.RemoveTransaction(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ledgerChanged(r)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorView{Error: "invalid form data"})
		return
	}

	name := sanitizeInput(r.Form.Get("name"))
	amount := strings.TrimSpace(r.Form.Get("amount"))
	monthly := r.Form.Get("monthly") == "true" || r.Form.Get("monthly") == "on"

	dueDay, err := strconv.Atoi(strings.TrimSpace(r.Form.Get("due_day")))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorView{Error: core.ErrInvalidDueDay.Error()})
		return
	}

	b, err := s.ledger.AddBill(r.Context(), name, amount, dueDay, monthly)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ledgerChanged(r)
	writeJSON(w, http.StatusCreated, toBillView(b))
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.ledger.Bills(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	views := make([]billView, 0, len(bills))
	for _, b := range bills {
		views = append(views, toBillView(b))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.ledger.RemoveBill(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ledgerChanged(r)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetBillPaid(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorView{Error: "invalid form data"})
		return
	}

	paid, err := strconv.ParseBool(strings.TrimSpace(r.Form.Get("paid")))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorView{Error: "paid must be true or false"})
		return
	}

	b, err := s.ledger.SetBillPaid(r.Context(), r.PathValue("id"), paid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ledgerChanged(r)
	writeJSON(w, http.StatusOK, toBillView(b))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	key := strconv.Itoa(now.Year()) + "-" + strconv.Itoa(int(now.Month()))

	if sum, found := s.summaryCache.Get(key); found {
		slog.DebugContext(r.Context(), "Summary cache hit", "key", key)
		writeJSON(w, http.StatusOK, toSummaryView(sum))
		return
	}

	sum, err := s.ledger.Summary(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.summaryCache.Set(key, sum)
	writeJSON(w, http.StatusOK, toSummaryView(sum))
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	b, err := s.ledger.Budget(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetView(b))
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorView{Error: "invalid form data"})
		return
	}

	// Targets are optional; absent fields stay zero (no target set).
	var limit, goal core.Money
	if v := strings.TrimSpace(r.Form.Get("monthly_limit")); v != "" {
		cents, err := core.ParseDecimalToCents(v)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		limit = core.Money{Cents: cents}
	}
	if v := strings.TrimSpace(r.Form.Get("savings_goal")); v != "" {
		cents, err := core.ParseDecimalToCents(v)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		goal = core.Money{Cents: cents}
	}

	// Empty currency falls back to the service default.
	currency := sanitizeInput(r.Form.Get("currency"))
	biometric := r.Form.Get("biometric_lock") == "true" || r.Form.Get("biometric_lock") == "on"

	if err := s.ledger.SetBudget(r.Context(), core.Budget{
		MonthlyLimit:  limit,
		SavingsGoal:   goal,
		Currency:      currency,
		BiometricLock: biometric,
	}); err != nil {
		s.writeError(w, r, err)
		return
	}

	b, err := s.ledger.Budget(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetView(b))
}

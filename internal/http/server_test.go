package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"billfold/internal/ledger"
	"billfold/internal/ledger/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	svc := ledger.New(memory.New(), nil)
	s := NewServer(":0", svc)
	t.Cleanup(func() {
		if err := s.Shutdown(context.Background()); err != nil {
			t.Errorf("shutdown: %v", err)
		}
	})
	return s
}

func doForm(s *Server, method, path string, form url.Values) *httptest.ResponseRecorder {
	var body string
	if form != nil {
		body = form.Encode()
	}
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func doGet(s *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		if rec := doGet(s, path); rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", path, rec.Code, http.StatusOK)
		}
	}
}

func TestCreateTransaction(t *testing.T) {
	tests := []struct {
		name       string
		form       url.Values
		wantStatus int
	}{
		{
			name:       "valid income",
			form:       url.Values{"type": {"income"}, "amount": {"1250.50"}, "description": {"Salary"}},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "valid expense with comma decimal",
			form:       url.Values{"type": {"expense"}, "amount": {"19,99"}, "description": {"Groceries"}},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "zero amount rejected",
			form:       url.Values{"type": {"expense"}, "amount": {"0"}, "description": {"Nothing"}},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "negative amount rejected",
			form:       url.Values{"type": {"expense"}, "amount": {"-5"}, "description": {"Refund"}},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "garbage amount rejected",
			form:       url.Values{"type": {"expense"}, "amount": {"abc"}, "description": {"Junk"}},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "empty description rejected",
			form:       url.Values{"type": {"expense"}, "amount": {"10"}, "description": {"   "}},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "unknown type rejected",
			form:       url.Values{"type": {"transfer"}, "amount": {"10"}, "description": {"Move"}},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := doForm(s, http.MethodPost, "/transactions", tt.form)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}

			list := decode[[]transactionView](t, doGet(s, "/transactions"))
			if tt.wantStatus == http.StatusCreated && len(list) != 1 {
				t.Errorf("transactions after create = %d, want 1", len(list))
			}
			if tt.wantStatus != http.StatusCreated && len(list) != 0 {
				t.Errorf("rejected input must not be stored, got %d transactions", len(list))
			}
		})
	}
}

func TestDeleteTransaction(t *testing.T) {
	s := newTestServer(t)

	rec := doForm(s, http.MethodPost, "/transactions", url.Values{
		"type": {"income"}, "amount": {"100"}, "description": {"Gift"},
	})
	created := decode[transactionView](t, rec)

	if rec := doForm(s, http.MethodDelete, "/transactions/"+created.ID, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec := doForm(s, http.MethodDelete, "/transactions/"+created.ID, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestBillLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := doForm(s, http.MethodPost, "/bills", url.Values{
		"name": {"Rent"}, "amount": {"500"}, "due_day": {"1"}, "monthly": {"true"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create bill status = %d (body %s)", rec.Code, rec.Body.String())
	}
	bill := decode[billView](t, rec)
	if bill.Paid {
		t.Error("new bill must start unpaid")
	}

	doForm(s, http.MethodPost, "/transactions", url.Values{
		"type": {"income"}, "amount": {"1000"}, "description": {"Salary"},
	})

	// Paying the bill records an expense and the balance drops once.
	rec = doForm(s, http.MethodPost, "/bills/"+bill.ID+"/paid", url.Values{"paid": {"true"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("pay bill status = %d (body %s)", rec.Code, rec.Body.String())
	}
	if paid := decode[billView](t, rec); !paid.Paid {
		t.Error("bill not marked paid")
	}

	sum := decode[summaryView](t, doGet(s, "/summary"))
	if sum.BalanceCents != 50000 {
		t.Errorf("balance after payment = %d, want 50000", sum.BalanceCents)
	}
	if sum.UnpaidBillsTotalCents != 0 {
		t.Errorf("unpaid total = %d, want 0", sum.UnpaidBillsTotalCents)
	}

	// Unpaying removes the payment transaction and restores the balance.
	rec = doForm(s, http.MethodPost, "/bills/"+bill.ID+"/paid", url.Values{"paid": {"false"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("unpay bill status = %d (body %s)", rec.Code, rec.Body.String())
	}

	sum = decode[summaryView](t, doGet(s, "/summary"))
	if sum.BalanceCents != 100000 {
		t.Errorf("balance after unpay = %d, want 100000", sum.BalanceCents)
	}
	if sum.UnpaidBillsTotalCents != 50000 {
		t.Errorf("unpaid total after unpay = %d, want 50000", sum.UnpaidBillsTotalCents)
	}

	if rec := doForm(s, http.MethodDelete, "/bills/"+bill.ID, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete bill status = %d", rec.Code)
	}
}

func TestCreateBillValidation(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{"empty name", url.Values{"name": {"  "}, "amount": {"10"}, "due_day": {"5"}}},
		{"due day zero", url.Values{"name": {"Rent"}, "amount": {"10"}, "due_day": {"0"}}},
		{"due day too large", url.Values{"name": {"Rent"}, "amount": {"10"}, "due_day": {"32"}}},
		{"due day not a number", url.Values{"name": {"Rent"}, "amount": {"10"}, "due_day": {"first"}}},
		{"zero amount", url.Values{"name": {"Rent"}, "amount": {"0"}, "due_day": {"5"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := doForm(s, http.MethodPost, "/bills", tt.form)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, http.StatusUnprocessableEntity, rec.Body.String())
			}
		})
	}
}

func TestSummaryEndpoint(t *testing.T) {
	s := newTestServer(t)

	doForm(s, http.MethodPost, "/transactions", url.Values{
		"type": {"income"}, "amount": {"2000"}, "description": {"Salary"},
	})
	doForm(s, http.MethodPost, "/transactions", url.Values{
		"type": {"expense"}, "amount": {"300.25"}, "description": {"Groceries"},
	})
	doForm(s, http.MethodPost, "/bills", url.Values{
		"name": {"Internet"}, "amount": {"49.99"}, "due_day": {"15"},
	})

	sum := decode[summaryView](t, doGet(s, "/summary"))

	if sum.TotalIncomeCents != 200000 {
		t.Errorf("total income = %d, want 200000", sum.TotalIncomeCents)
	}
	if sum.TotalExpensesCents != 30025 {
		t.Errorf("total expenses = %d, want 30025", sum.TotalExpensesCents)
	}
	if sum.BalanceCents != 169975 {
		t.Errorf("balance = %d, want 169975", sum.BalanceCents)
	}
	if sum.UnpaidBillsTotalCents != 4999 {
		t.Errorf("unpaid bills = %d, want 4999", sum.UnpaidBillsTotalCents)
	}
	if sum.AfterBillsCents != 164976 {
		t.Errorf("after bills = %d, want 164976", sum.AfterBillsCents)
	}

	// Mutations invalidate the cached summary.
	doForm(s, http.MethodPost, "/transactions", url.Values{
		"type": {"income"}, "amount": {"10"}, "description": {"Found"},
	})
	sum = decode[summaryView](t, doGet(s, "/summary"))
	if sum.TotalIncomeCents != 201000 {
		t.Errorf("total income after cache purge = %d, want 201000", sum.TotalIncomeCents)
	}
}

func TestBudgetEndpoint(t *testing.T) {
	s := newTestServer(t)

	b := decode[budgetView](t, doGet(s, "/budget"))
	if b.Currency != "USD" {
		t.Errorf("default currency = %q, want USD", b.Currency)
	}

	rec := doForm(s, http.MethodPut, "/budget", url.Values{
		"monthly_limit": {"800"}, "savings_goal": {"5000"}, "currency": {"EUR"}, "biometric_lock": {"true"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("set budget status = %d (body %s)", rec.Code, rec.Body.String())
	}
	b = decode[budgetView](t, rec)
	if b.MonthlyLimitCents != 80000 || b.SavingsGoalCents != 500000 {
		t.Errorf("targets = %d/%d, want 80000/500000", b.MonthlyLimitCents, b.SavingsGoalCents)
	}
	if b.Currency != "EUR" || !b.BiometricLock {
		t.Errorf("settings = %q/%v, want EUR/true", b.Currency, b.BiometricLock)
	}

	// Derived fields track the live ledger, not stored values.
	doForm(s, http.MethodPost, "/transactions", url.Values{
		"type": {"income"}, "amount": {"1000"}, "description": {"Salary"},
	})
	doForm(s, http.MethodPost, "/transactions", url.Values{
		"type": {"expense"}, "amount": {"250"}, "description": {"Groceries"},
	})

	b = decode[budgetView](t, doGet(s, "/budget"))
	if b.SpentCents != 25000 {
		t.Errorf("spent = %d, want 25000", b.SpentCents)
	}
	if b.SavedCents != 75000 {
		t.Errorf("saved = %d, want 75000", b.SavedCents)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t)
	rec := doGet(s, "/summary")

	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

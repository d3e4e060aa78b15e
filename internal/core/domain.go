package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// BillPaymentPrefix is prepended to the bill name when a payment
// transaction is synthesized for a bill marked paid.
const BillPaymentPrefix = "Bill Payment: "

type (
	TransactionType string

	Money struct {
		Cents int64
	}

	// Transaction is a single ledger entry. Amount is always a positive
	// magnitude; the sign is derived from Type at aggregation time.
	Transaction struct {
		ID          string
		Type        TransactionType
		Amount      Money
		Description string
		// BillID links a synthesized payment back to its bill. Empty for
		// transactions entered directly.
		BillID string
		Date   time.Time
	}

	// Bill is a payment obligation. DueDay is a day of month, 1-31,
	// not checked against the actual month length.
	Bill struct {
		ID      string
		Name    string
		Amount  Money
		DueDay  int
		Paid    bool
		Monthly bool
		// PaidYear/PaidMonth stamp when the bill was last marked paid, so
		// the rollover worker can tell a stale payment from a current one.
		PaidYear  int
		PaidMonth int
	}

	// Budget holds the user-set targets plus cosmetic settings. Spent and
	// Saved are overwritten from the live summary on every read, never stored.
	Budget struct {
		MonthlyLimit Money
		SavingsGoal  Money
		Currency     string
		// BiometricLock is recorded but not enforced here.
		BiometricLock bool

		Spent Money
		Saved Money
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
	ErrTextTooLong      = errors.New("text too long (max 200 characters)")
	ErrInvalidDueDay    = errors.New("invalid due day")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrZeroDate         = errors.New("date cannot be zero")
	ErrNotFound         = errors.New("not found")
)

// IsValidation reports whether err is a form-input rejection rather than an
// internal failure.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrEmptyDescription, ErrEmptyName,
		ErrTextTooLong, ErrInvalidDueDay, ErrInvalidType, ErrZeroDate,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// NewID returns a new system-generated identifier.
func NewID() string {
	return uuid.NewString()
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return ErrTextTooLong
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (b Bill) Validate() error {
	if len(strings.TrimSpace(b.Name)) == 0 {
		return ErrEmptyName
	}
	if len(b.Name) > 200 {
		return ErrTextTooLong
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if b.DueDay < 1 || b.DueDay > 31 {
		return ErrInvalidDueDay
	}
	return nil
}

// PaymentDescription returns the description synthesized for this bill's
// payment transaction.
func (b Bill) PaymentDescription() string {
	return BillPaymentPrefix + b.Name
}

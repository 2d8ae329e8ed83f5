package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Entry is a single ledger row. The amount sign is the sole income/expense
// discriminator: positive is income, negative is expense.
type Entry struct {
	ID          string
	AccountID   string
	TxDate      time.Time
	PostedYear  int
	PostedMonth int
	Amount      decimal.Decimal
	Description string

	// Installment plan membership. GroupID empty means the entry is not part
	// of a plan; when set, Index is 1-based and Total is the plan length.
	InstallmentGroupID string
	InstallmentIndex   int
	InstallmentTotal   int

	// Carry-over bookkeeping. CarryFromYear/Month are populated iff
	// IsCarryOver is set and name the period the balance was moved from.
	IsCarryOver    bool
	CarryFromYear  int
	CarryFromMonth int

	// Set once the entry's remaining balance has been split off to a future
	// period. A flagged entry can never be split again.
	IsPartiallyPaid bool

	CreatedAt time.Time

	// Account is attached on reads; never persisted from here.
	Account *Account
}

// Posted returns the accounting period the entry counts toward.
func (e Entry) Posted() Period {
	return Period{Year: e.PostedYear, Month: e.PostedMonth}
}

// CarryFrom returns the source period of a carry-over entry.
func (e Entry) CarryFrom() (Period, bool) {
	if !e.IsCarryOver {
		return Period{}, false
	}
	return Period{Year: e.CarryFromYear, Month: e.CarryFromMonth}, true
}

// IsIncome reports whether the entry counts as income.
func (e Entry) IsIncome() bool {
	return e.Amount.Sign() > 0
}

func (e Entry) Validate() error {
	if e.AccountID == "" {
		return fmt.Errorf("entry account is required: %w", ErrInvalidArgument)
	}
	if strings.TrimSpace(e.Description) == "" {
		return fmt.Errorf("entry description is required: %w", ErrInvalidArgument)
	}
	if len(e.Description) > 200 {
		return fmt.Errorf("entry description too long (max 200 characters): %w", ErrInvalidArgument)
	}
	if !e.Posted().Valid() {
		return fmt.Errorf("posted month %d out of range: %w", e.PostedMonth, ErrInvalidArgument)
	}
	if e.TxDate.IsZero() {
		return fmt.Errorf("transaction date is required: %w", ErrInvalidArgument)
	}
	if e.Amount.IsZero() {
		return fmt.Errorf("entry amount must be nonzero: %w", ErrInvalidArgument)
	}
	if e.InstallmentGroupID != "" {
		if e.InstallmentTotal < 2 {
			return fmt.Errorf("installment total %d must be at least 2: %w", e.InstallmentTotal, ErrInvalidArgument)
		}
		if e.InstallmentIndex < 1 || e.InstallmentIndex > e.InstallmentTotal {
			return fmt.Errorf("installment index %d out of range 1..%d: %w", e.InstallmentIndex, e.InstallmentTotal, ErrInvalidArgument)
		}
	} else if e.InstallmentIndex != 0 || e.InstallmentTotal != 0 {
		return fmt.Errorf("installment fields require a group id: %w", ErrInvalidArgument)
	}
	if e.IsCarryOver {
		if !(Period{Year: e.CarryFromYear, Month: e.CarryFromMonth}).Valid() {
			return fmt.Errorf("carry-over source month %d out of range: %w", e.CarryFromMonth, ErrInvalidArgument)
		}
	} else if e.CarryFromYear != 0 || e.CarryFromMonth != 0 {
		return fmt.Errorf("carry-over source period requires the carry-over flag: %w", ErrInvalidArgument)
	}
	return nil
}

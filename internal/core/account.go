package core

import (
	"fmt"
	"strings"
	"time"
)

// AccountType is the closed set of account kinds. Type-specific behavior
// (CARRY_OVER undeletability, carry-over destination selection) switches on
// this value exhaustively.
type AccountType string

const (
	AccountCash       AccountType = "CASH"
	AccountCreditCard AccountType = "CREDIT_CARD"
	AccountBank       AccountType = "BANK_ACCOUNT"
	AccountCarryOver  AccountType = "CARRY_OVER"
)

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountCash, AccountCreditCard, AccountBank, AccountCarryOver:
		return true
	default:
		return false
	}
}

// Account is an owner-scoped container for ledger entries. Every entry is
// reachable only through its account, and every account only through its
// owner, so ownership checks always walk this chain.
type Account struct {
	ID        string
	OwnerID   string
	Name      string
	Type      AccountType
	SortOrder int
	IsActive  bool
	CreatedAt time.Time
}

func (a Account) Validate() error {
	if a.OwnerID == "" {
		return fmt.Errorf("account owner is required: %w", ErrInvalidArgument)
	}
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("account name is required: %w", ErrInvalidArgument)
	}
	if len(a.Name) > 100 {
		return fmt.Errorf("account name too long (max 100 characters): %w", ErrInvalidArgument)
	}
	if !a.Type.Valid() {
		return fmt.Errorf("unknown account type %q: %w", a.Type, ErrInvalidArgument)
	}
	return nil
}

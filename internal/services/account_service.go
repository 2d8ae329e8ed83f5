// Package services implements the ledger's domain operations on top of the
// storage layer: the account registry, the posting engine and the summary
// aggregator. Every operation is parameterized by an explicit owner id; there
// is no ambient session state.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"banchee/internal/core"
	"banchee/internal/storage"
)

// AccountService is the ownership-scoped account registry. Every component
// that touches an account by id resolves it through Get rather than a raw
// lookup.
type AccountService struct {
	store *storage.Store
}

func NewAccountService(store *storage.Store) *AccountService {
	return &AccountService{store: store}
}

// ListActive returns the owner's active accounts ordered by sort order.
func (s *AccountService) ListActive(ctx context.Context, ownerID string) ([]core.Account, error) {
	return s.store.ListActiveAccounts(ctx, ownerID)
}

// Get resolves an account and guards ownership: NotFound when the account
// does not exist, AccessDenied when it belongs to a different owner.
func (s *AccountService) Get(ctx context.Context, ownerID, id string) (core.Account, error) {
	a, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return core.Account{}, err
	}
	if a.OwnerID != ownerID {
		return core.Account{}, fmt.Errorf("account %s: %w", id, core.ErrAccessDenied)
	}
	return a, nil
}

type CreateAccountParams struct {
	Name      string
	Type      core.AccountType
	SortOrder *int
}

// Create registers a new account. When SortOrder is omitted it lands after
// the owner's current last account. At most one CARRY_OVER account may exist
// per owner.
func (s *AccountService) Create(ctx context.Context, ownerID string, p CreateAccountParams) (core.Account, error) {
	a := core.Account{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      p.Name,
		Type:      p.Type,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if p.SortOrder != nil {
		a.SortOrder = *p.SortOrder
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}

	err := s.store.ExecTx(ctx, func(tx *storage.Store) error {
		if p.Type == core.AccountCarryOver {
			n, err := tx.CountAccountsByType(ctx, ownerID, core.AccountCarryOver)
			if err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("owner already has a carry-over account: %w", core.ErrConflict)
			}
		}
		if p.SortOrder == nil {
			next, err := tx.NextSortOrder(ctx, ownerID)
			if err != nil {
				return err
			}
			a.SortOrder = next
		}
		return tx.CreateAccount(ctx, a)
	})
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}

	slog.InfoContext(ctx, "Account created",
		"account_id", a.ID,
		"owner_id", ownerID,
		"type", a.Type,
		"sort_order", a.SortOrder)
	return a, nil
}

type UpdateAccountParams struct {
	Name      *string
	Type      *core.AccountType
	SortOrder *int
	IsActive  *bool
}

// Update rewrites the provided fields only. Retyping an account to CARRY_OVER
// obeys the same per-owner uniqueness rule as Create; re-sending the current
// type is a no-op, not a conflict.
func (s *AccountService) Update(ctx context.Context, ownerID, id string, p UpdateAccountParams) (core.Account, error) {
	a, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return core.Account{}, err
	}
	retypeToCarryOver := p.Type != nil && *p.Type == core.AccountCarryOver && a.Type != core.AccountCarryOver

	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.SortOrder != nil {
		a.SortOrder = *p.SortOrder
	}
	if p.IsActive != nil {
		a.IsActive = *p.IsActive
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}

	err = s.store.ExecTx(ctx, func(tx *storage.Store) error {
		if retypeToCarryOver {
			n, err := tx.CountAccountsByType(ctx, ownerID, core.AccountCarryOver)
			if err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("owner already has a carry-over account: %w", core.ErrConflict)
			}
		}
		return tx.UpdateAccount(ctx, a)
	})
	if err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}
	return a, nil
}

// Delete removes an account. CARRY_OVER accounts are never removable. An
// account with zero ledger entries is hard-deleted; one with entries is only
// deactivated. The entry count and the delete commit as one transaction so no
// insert can slip between them.
func (s *AccountService) Delete(ctx context.Context, ownerID, id string) error {
	a, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if a.Type == core.AccountCarryOver {
		return fmt.Errorf("carry-over account cannot be deleted: %w", core.ErrForbidden)
	}

	var hard bool
	err = s.store.ExecTx(ctx, func(tx *storage.Store) error {
		n, err := tx.CountEntriesForAccount(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			hard = true
			return tx.DeleteAccount(ctx, id)
		}
		a.IsActive = false
		return tx.UpdateAccount(ctx, a)
	})
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	slog.InfoContext(ctx, "Account deleted",
		"account_id", id,
		"owner_id", ownerID,
		"hard", hard)
	return nil
}

// Reorder assigns sort order by position in ids, as one batch transaction.
// Ids not owned by the caller are silently skipped. Returns the refreshed
// active list.
func (s *AccountService) Reorder(ctx context.Context, ownerID string, ids []string) ([]core.Account, error) {
	err := s.store.ExecTx(ctx, func(tx *storage.Store) error {
		for i, id := range ids {
			if err := tx.SetAccountSortOrder(ctx, id, ownerID, i); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reorder accounts: %w", err)
	}
	return s.store.ListActiveAccounts(ctx, ownerID)
}

// defaultAccounts is the bootstrap set created for a fresh owner.
var defaultAccounts = []struct {
	name      string
	accType   core.AccountType
	sortOrder int
}{
	{"Cash", core.AccountCash, 0},
	{"Visa", core.AccountCreditCard, 1},
	{"Mastercard", core.AccountCreditCard, 2},
	{"Checking", core.AccountBank, 3},
	{"Carry over", core.AccountCarryOver, 99},
}

// Seed creates the default account set for an owner that has no accounts yet,
// including the carry-over account the rollover engine depends on. Owners
// with any existing account are left untouched.
func (s *AccountService) Seed(ctx context.Context, ownerID string) ([]core.Account, error) {
	var created []core.Account
	err := s.store.ExecTx(ctx, func(tx *storage.Store) error {
		n, err := tx.CountAccounts(ctx, ownerID)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		now := time.Now().UTC()
		for _, d := range defaultAccounts {
			a := core.Account{
				ID:        uuid.NewString(),
				OwnerID:   ownerID,
				Name:      d.name,
				Type:      d.accType,
				SortOrder: d.sortOrder,
				IsActive:  true,
				CreatedAt: now,
			}
			if err := tx.CreateAccount(ctx, a); err != nil {
				return err
			}
			created = append(created, a)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("seed accounts: %w", err)
	}

	if len(created) > 0 {
		slog.InfoContext(ctx, "Seeded default accounts", "owner_id", ownerID, "count", len(created))
	}
	return created, nil
}

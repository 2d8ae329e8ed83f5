package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"banchee/internal/core"
)

const accountColumns = `id, owner_id, name, type, sort_order, is_active, created_at`

func scanAccount(row interface{ Scan(...any) error }) (core.Account, error) {
	var a core.Account
	var active int64
	err := row.Scan(&a.ID, &a.OwnerID, &a.Name, &a.Type, &a.SortOrder, &active, &a.CreatedAt)
	if err != nil {
		return core.Account{}, err
	}
	a.IsActive = active != 0
	return a, nil
}

// CreateAccount inserts a new account row.
func (s *Store) CreateAccount(ctx context.Context, a core.Account) error {
	const query = `INSERT INTO accounts (` + accountColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.q.ExecContext(ctx, query,
		a.ID, a.OwnerID, a.Name, string(a.Type), a.SortOrder, boolToInt(a.IsActive), a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetAccount returns the account regardless of owner; ownership is the
// registry's concern.
func (s *Store) GetAccount(ctx context.Context, id string) (core.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`

	a, err := scanAccount(s.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// ListActiveAccounts returns the owner's active accounts ordered by sort
// order ascending.
func (s *Store) ListActiveAccounts(ctx context.Context, ownerID string) ([]core.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts
		WHERE owner_id = ? AND is_active = 1
		ORDER BY sort_order ASC, created_at ASC`

	rows, err := s.q.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list active accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active accounts: %w", err)
	}
	return accounts, nil
}

// UpdateAccount rewrites the mutable fields of an account.
func (s *Store) UpdateAccount(ctx context.Context, a core.Account) error {
	const query = `UPDATE accounts
		SET name = ?, type = ?, sort_order = ?, is_active = ?
		WHERE id = ?`

	res, err := s.q.ExecContext(ctx, query,
		a.Name, string(a.Type), a.SortOrder, boolToInt(a.IsActive), a.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("account %s: %w", a.ID, core.ErrNotFound)
	}
	return nil
}

// DeleteAccount removes the row entirely (hard delete).
func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// SetAccountSortOrder updates one account's sort order, matching on owner so
// foreign ids are silently skipped during reorders.
func (s *Store) SetAccountSortOrder(ctx context.Context, id, ownerID string, sortOrder int) error {
	const query = `UPDATE accounts SET sort_order = ? WHERE id = ? AND owner_id = ?`

	if _, err := s.q.ExecContext(ctx, query, sortOrder, id, ownerID); err != nil {
		return fmt.Errorf("set account sort order: %w", err)
	}
	return nil
}

// NextSortOrder returns max(sort_order)+1 for the owner, 0 when the owner has
// no accounts yet.
func (s *Store) NextSortOrder(ctx context.Context, ownerID string) (int, error) {
	const query = `SELECT COALESCE(MAX(sort_order) + 1, 0) FROM accounts WHERE owner_id = ?`

	var next int
	if err := s.q.QueryRowContext(ctx, query, ownerID).Scan(&next); err != nil {
		return 0, fmt.Errorf("next sort order: %w", err)
	}
	return next, nil
}

// CountAccounts counts every account of the owner, active or not.
func (s *Store) CountAccounts(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE owner_id = ?`, ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}

// CountAccountsByType counts the owner's accounts of one type.
func (s *Store) CountAccountsByType(ctx context.Context, ownerID string, t core.AccountType) (int64, error) {
	const query = `SELECT COUNT(*) FROM accounts WHERE owner_id = ? AND type = ?`

	var n int64
	if err := s.q.QueryRowContext(ctx, query, ownerID, string(t)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count accounts by type: %w", err)
	}
	return n, nil
}

// FindCarryOverAccount returns the owner's carry-over account. Ordering by
// sort order keeps destination selection deterministic should duplicates ever
// exist in old data.
func (s *Store) FindCarryOverAccount(ctx context.Context, ownerID string) (core.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts
		WHERE owner_id = ? AND type = ?
		ORDER BY sort_order ASC LIMIT 1`

	a, err := scanAccount(s.q.QueryRowContext(ctx, query, ownerID, string(core.AccountCarryOver)))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("carry-over account: %w", core.ErrNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("find carry-over account: %w", err)
	}
	return a, nil
}

// CountEntriesForAccount counts the ledger entries referencing an account.
func (s *Store) CountEntriesForAccount(ctx context.Context, accountID string) (int64, error) {
	var n int64
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE account_id = ?`, accountID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count entries for account: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

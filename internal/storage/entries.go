package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"banchee/internal/core"
)

const entryColumns = `e.id, e.account_id, e.tx_date, e.posted_year, e.posted_month,
	e.amount, e.description, e.installment_group_id, e.installment_index,
	e.installment_total, e.is_carry_over, e.carry_from_year, e.carry_from_month,
	e.is_partially_paid, e.created_at`

const entryJoin = `FROM entries e JOIN accounts a ON a.id = e.account_id`

func scanEntry(row interface{ Scan(...any) error }) (core.Entry, error) {
	var (
		e          core.Entry
		acct       core.Account
		amount     string
		groupID    sql.NullString
		index      sql.NullInt64
		total      sql.NullInt64
		carryOver  int64
		carryYear  sql.NullInt64
		carryMonth sql.NullInt64
		partial    int64
		active     int64
	)
	err := row.Scan(
		&e.ID, &e.AccountID, &e.TxDate, &e.PostedYear, &e.PostedMonth,
		&amount, &e.Description, &groupID, &index, &total,
		&carryOver, &carryYear, &carryMonth, &partial, &e.CreatedAt,
		&acct.ID, &acct.OwnerID, &acct.Name, &acct.Type, &acct.SortOrder, &active, &acct.CreatedAt,
	)
	if err != nil {
		return core.Entry{}, err
	}

	e.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return core.Entry{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	e.InstallmentGroupID = groupID.String
	e.InstallmentIndex = int(index.Int64)
	e.InstallmentTotal = int(total.Int64)
	e.IsCarryOver = carryOver != 0
	e.CarryFromYear = int(carryYear.Int64)
	e.CarryFromMonth = int(carryMonth.Int64)
	e.IsPartiallyPaid = partial != 0
	acct.IsActive = active != 0
	e.Account = &acct
	return e, nil
}

// InsertEntry writes one ledger entry row.
func (s *Store) InsertEntry(ctx context.Context, e core.Entry) error {
	const query = `INSERT INTO entries (
		id, account_id, tx_date, posted_year, posted_month, amount, description,
		installment_group_id, installment_index, installment_total,
		is_carry_over, carry_from_year, carry_from_month, is_partially_paid, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.q.ExecContext(ctx, query,
		e.ID, e.AccountID, e.TxDate, e.PostedYear, e.PostedMonth,
		e.Amount.String(), e.Description,
		nullString(e.InstallmentGroupID), nullInt(e.InstallmentIndex), nullInt(e.InstallmentTotal),
		boolToInt(e.IsCarryOver), nullInt(e.CarryFromYear), nullInt(e.CarryFromMonth),
		boolToInt(e.IsPartiallyPaid), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// InsertEntries writes a batch of entries as one transaction. Partial failure
// leaves no rows inserted.
func (s *Store) InsertEntries(ctx context.Context, entries []core.Entry) error {
	return s.ExecTx(ctx, func(tx *Store) error {
		for _, e := range entries {
			if err := tx.InsertEntry(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetEntry returns one entry with its owning account attached.
func (s *Store) GetEntry(ctx context.Context, id string) (core.Entry, error) {
	query := `SELECT ` + entryColumns + `, ` + accountJoinColumns + ` ` + entryJoin + ` WHERE e.id = ?`

	e, err := scanEntry(s.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, fmt.Errorf("entry %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// EntryFilter narrows ListEntries. OwnerID is mandatory; the rest are
// optional conjunctive filters.
type EntryFilter struct {
	OwnerID   string
	AccountID string
	Year      *int
	Month     *int
	From      *time.Time
	To        *time.Time
}

// ListEntries returns entries matching the filter ordered by transaction date
// descending, then creation time descending.
func (s *Store) ListEntries(ctx context.Context, f EntryFilter) ([]core.Entry, error) {
	var (
		where = []string{"a.owner_id = ?"}
		args  = []any{f.OwnerID}
	)
	if f.AccountID != "" {
		where = append(where, "e.account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.Year != nil {
		where = append(where, "e.posted_year = ?")
		args = append(args, *f.Year)
	}
	if f.Month != nil {
		where = append(where, "e.posted_month = ?")
		args = append(args, *f.Month)
	}
	if f.From != nil {
		where = append(where, "e.tx_date >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		where = append(where, "e.tx_date <= ?")
		args = append(args, *f.To)
	}

	query := `SELECT ` + entryColumns + `, ` + accountJoinColumns + ` ` + entryJoin +
		` WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY e.tx_date DESC, e.created_at DESC`

	return s.queryEntries(ctx, query, args...)
}

// ListInstallmentEntries returns every installment-plan entry inside the
// inclusive period window, ordered by period ascending then installment index
// ascending.
func (s *Store) ListInstallmentEntries(ctx context.Context, ownerID string, from, to core.Period) ([]core.Entry, error) {
	query := `SELECT ` + entryColumns + `, ` + accountJoinColumns + ` ` + entryJoin + `
		WHERE a.owner_id = ? AND e.installment_group_id IS NOT NULL AND (
			(e.posted_year = ? AND e.posted_month >= ?)
			OR (e.posted_year > ? AND e.posted_year < ?)
			OR (e.posted_year = ? AND e.posted_month <= ?)
		)
		ORDER BY e.posted_year ASC, e.posted_month ASC, e.installment_index ASC`

	// Same-year windows collapse the three branches into one; restrict the
	// first and last branch to the window edges in that case.
	if from.Year == to.Year {
		query = `SELECT ` + entryColumns + `, ` + accountJoinColumns + ` ` + entryJoin + `
		WHERE a.owner_id = ? AND e.installment_group_id IS NOT NULL
			AND e.posted_year = ? AND e.posted_month >= ? AND e.posted_month <= ?
		ORDER BY e.posted_year ASC, e.posted_month ASC, e.installment_index ASC`
		return s.queryEntries(ctx, query, ownerID, from.Year, from.Month, to.Month)
	}

	return s.queryEntries(ctx, query,
		ownerID,
		from.Year, from.Month,
		from.Year, to.Year,
		to.Year, to.Month)
}

// FirstEntryInGroup returns any one entry of an installment group, used to
// resolve the group's account for ownership checks.
func (s *Store) FirstEntryInGroup(ctx context.Context, groupID string) (core.Entry, error) {
	query := `SELECT ` + entryColumns + `, ` + accountJoinColumns + ` ` + entryJoin + `
		WHERE e.installment_group_id = ?
		ORDER BY e.installment_index ASC LIMIT 1`

	e, err := scanEntry(s.q.QueryRowContext(ctx, query, groupID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, fmt.Errorf("installment group %s: %w", groupID, core.ErrNotFound)
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("first entry in group: %w", err)
	}
	return e, nil
}

// UpdateEntry rewrites the mutable fields of an entry.
func (s *Store) UpdateEntry(ctx context.Context, e core.Entry) error {
	const query = `UPDATE entries SET
		account_id = ?, tx_date = ?, posted_year = ?, posted_month = ?,
		amount = ?, description = ?, is_partially_paid = ?
		WHERE id = ?`

	res, err := s.q.ExecContext(ctx, query,
		e.AccountID, e.TxDate, e.PostedYear, e.PostedMonth,
		e.Amount.String(), e.Description, boolToInt(e.IsPartiallyPaid), e.ID)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("entry %s: %w", e.ID, core.ErrNotFound)
	}
	return nil
}

// DeleteEntry removes one entry.
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("entry %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// DeleteEntriesByGroup removes every entry of an installment group and
// reports how many rows went away.
func (s *Store) DeleteEntriesByGroup(ctx context.Context, groupID string) (int64, error) {
	res, err := s.q.ExecContext(ctx, `DELETE FROM entries WHERE installment_group_id = ?`, groupID)
	if err != nil {
		return 0, fmt.Errorf("delete installment group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete installment group: %w", err)
	}
	return n, nil
}

// HasCarryOverFrom reports whether the owner already rolled the given source
// period forward.
func (s *Store) HasCarryOverFrom(ctx context.Context, ownerID string, from core.Period) (bool, error) {
	const query = `SELECT 1 ` + entryJoin + `
		WHERE a.owner_id = ? AND e.is_carry_over = 1
			AND e.carry_from_year = ? AND e.carry_from_month = ?
		LIMIT 1`

	var one int
	err := s.q.QueryRowContext(ctx, query, ownerID, from.Year, from.Month).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check carry-over: %w", err)
	}
	return true, nil
}

const accountJoinColumns = `a.id, a.owner_id, a.name, a.type, a.sort_order, a.is_active, a.created_at`

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]core.Entry, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	return entries, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

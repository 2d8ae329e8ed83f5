package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"banchee/internal/amqp"
	"banchee/internal/core"
	"banchee/internal/storage"
)

// EventPublisher pushes post-commit notifications to interested consumers.
// *amqp.Client satisfies it.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event amqp.LedgerEvent) error
}

// LedgerService is the posting engine: it turns each user action into one or
// more ledger entry writes, committed as a single transaction per operation.
type LedgerService struct {
	store    *storage.Store
	accounts *AccountService
	events   EventPublisher
	now      func() time.Time
}

// NewLedgerService wires the engine. events may be nil; postings then go
// unannounced but never fail.
func NewLedgerService(store *storage.Store, accounts *AccountService, events EventPublisher) *LedgerService {
	return &LedgerService{
		store:    store,
		accounts: accounts,
		events:   events,
		now:      time.Now,
	}
}

// getOwned resolves an entry and re-derives the ownership chain through its
// account before any caller may read or mutate it.
func (s *LedgerService) getOwned(ctx context.Context, ownerID, id string) (core.Entry, error) {
	e, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return core.Entry{}, err
	}
	if _, err := s.accounts.Get(ctx, ownerID, e.AccountID); err != nil {
		return core.Entry{}, err
	}
	return e, nil
}

type CreateEntryParams struct {
	AccountID   string
	TxDate      time.Time
	PostedYear  int
	PostedMonth int
	Amount      decimal.Decimal
	Description string
}

// Create posts a simple transaction: one entry with caller-supplied date,
// period, amount and description.
func (s *LedgerService) Create(ctx context.Context, ownerID string, p CreateEntryParams) (core.Entry, error) {
	account, err := s.accounts.Get(ctx, ownerID, p.AccountID)
	if err != nil {
		return core.Entry{}, err
	}

	e := core.Entry{
		ID:          uuid.NewString(),
		AccountID:   p.AccountID,
		TxDate:      p.TxDate,
		PostedYear:  p.PostedYear,
		PostedMonth: p.PostedMonth,
		Amount:      p.Amount,
		Description: p.Description,
		CreatedAt:   s.now().UTC(),
	}
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}

	if err := s.store.InsertEntry(ctx, e); err != nil {
		return core.Entry{}, fmt.Errorf("create entry: %w", err)
	}
	e.Account = &account

	s.publish(ctx, amqp.LedgerEvent{
		Kind:      amqp.EventEntryCreated,
		OwnerID:   ownerID,
		AccountID: e.AccountID,
		EntryID:   e.ID,
		Timestamp: s.now(),
	})
	return e, nil
}

type InstallmentParams struct {
	CreateEntryParams
	Total int
}

// CreateInstallmentPlan spreads a purchase over Total consecutive periods
// starting at the posted period: one entry per month, all sharing a fresh
// group id and the same signed amount, inserted as one batch transaction.
// Returns the entries ordered by installment index.
func (s *LedgerService) CreateInstallmentPlan(ctx context.Context, ownerID string, p InstallmentParams) ([]core.Entry, error) {
	account, err := s.accounts.Get(ctx, ownerID, p.AccountID)
	if err != nil {
		return nil, err
	}
	if p.Total < 2 {
		return nil, fmt.Errorf("installment total %d must be at least 2: %w", p.Total, core.ErrInvalidArgument)
	}
	start := core.Period{Year: p.PostedYear, Month: p.PostedMonth}
	if !start.Valid() {
		return nil, fmt.Errorf("posted month %d out of range: %w", p.PostedMonth, core.ErrInvalidArgument)
	}

	groupID := uuid.NewString()
	now := s.now().UTC()
	entries := make([]core.Entry, 0, p.Total)
	for i := 0; i < p.Total; i++ {
		period := start.AddMonths(i)
		e := core.Entry{
			ID:                 uuid.NewString(),
			AccountID:          p.AccountID,
			TxDate:             p.TxDate,
			PostedYear:         period.Year,
			PostedMonth:        period.Month,
			Amount:             p.Amount,
			Description:        p.Description,
			InstallmentGroupID: groupID,
			InstallmentIndex:   i + 1,
			InstallmentTotal:   p.Total,
			CreatedAt:          now,
		}
		if err := e.Validate(); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := s.store.InsertEntries(ctx, entries); err != nil {
		return nil, fmt.Errorf("create installment plan: %w", err)
	}
	for i := range entries {
		entries[i].Account = &account
	}

	slog.InfoContext(ctx, "Installment plan created",
		"group_id", groupID,
		"owner_id", ownerID,
		"account_id", p.AccountID,
		"total", p.Total,
		"start_period", start.String())

	s.publish(ctx, amqp.LedgerEvent{
		Kind:      amqp.EventInstallmentCreated,
		OwnerID:   ownerID,
		AccountID: p.AccountID,
		GroupID:   groupID,
		Timestamp: s.now(),
	})
	return entries, nil
}

// CarryOver moves a month's net balance into the following period. The owner
// must already have a CARRY_OVER account; none is auto-created. A source
// period can only be rolled forward once: a second call for the same period
// fails with a conflict.
func (s *LedgerService) CarryOver(ctx context.Context, ownerID string, fromYear, fromMonth int, amount decimal.Decimal) (core.Entry, error) {
	from := core.Period{Year: fromYear, Month: fromMonth}
	if !from.Valid() {
		return core.Entry{}, fmt.Errorf("carry-over month %d out of range: %w", fromMonth, core.ErrInvalidArgument)
	}
	if amount.IsZero() {
		return core.Entry{}, fmt.Errorf("carry-over amount must be nonzero: %w", core.ErrInvalidArgument)
	}

	account, err := s.store.FindCarryOverAccount(ctx, ownerID)
	if errors.Is(err, core.ErrNotFound) {
		return core.Entry{}, fmt.Errorf("carry-over account missing, create one first: %w", err)
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("carry-over: %w", err)
	}

	to := from.Next()
	e := core.Entry{
		ID:             uuid.NewString(),
		AccountID:      account.ID,
		TxDate:         from.LastDay(),
		PostedYear:     to.Year,
		PostedMonth:    to.Month,
		Amount:         amount,
		Description:    fmt.Sprintf("carried over from %s %d", time.Month(fromMonth), fromYear),
		IsCarryOver:    true,
		CarryFromYear:  fromYear,
		CarryFromMonth: fromMonth,
		CreatedAt:      s.now().UTC(),
	}

	err = s.store.ExecTx(ctx, func(tx *storage.Store) error {
		exists, err := tx.HasCarryOverFrom(ctx, ownerID, from)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("period %s already carried over: %w", from, core.ErrConflict)
		}
		return tx.InsertEntry(ctx, e)
	})
	if err != nil {
		return core.Entry{}, err
	}
	e.Account = &account

	slog.InfoContext(ctx, "Carry-over posted",
		"owner_id", ownerID,
		"from_period", from.String(),
		"to_period", to.String(),
		"amount", amount.String())

	s.publish(ctx, amqp.LedgerEvent{
		Kind:      amqp.EventCarryOverPosted,
		OwnerID:   ownerID,
		AccountID: account.ID,
		EntryID:   e.ID,
		Timestamp: s.now(),
	})
	return e, nil
}

// PartialPayment settles part of an entry now and pushes the remainder, plus
// optional flat interest, into the next period. The original entry is
// rewritten to the paid amount and flagged so it can never be split again.
// All writes commit as one transaction.
func (s *LedgerService) PartialPayment(ctx context.Context, ownerID, entryID string, paidAmount, interestAmount decimal.Decimal) (core.PartialPaymentResult, error) {
	if paidAmount.Sign() <= 0 {
		return core.PartialPaymentResult{}, fmt.Errorf("paid amount must be positive: %w", core.ErrInvalidArgument)
	}
	if interestAmount.Sign() < 0 {
		return core.PartialPaymentResult{}, fmt.Errorf("interest amount must not be negative: %w", core.ErrInvalidArgument)
	}

	original, err := s.getOwned(ctx, ownerID, entryID)
	if err != nil {
		return core.PartialPaymentResult{}, err
	}
	if original.IsPartiallyPaid {
		return core.PartialPaymentResult{}, fmt.Errorf("entry %s already partially paid: %w", entryID, core.ErrConflict)
	}

	originalAmount := original.Amount.Abs()
	remaining := originalAmount.Sub(paidAmount)
	if remaining.Sign() <= 0 {
		// Paying in full is not a partial payment; that goes through a
		// normal update or delete.
		return core.PartialPaymentResult{}, fmt.Errorf("paid amount must be less than original amount %s: %w", originalAmount, core.ErrInvalidArgument)
	}

	to := original.Posted().Next()
	now := s.now().UTC()

	outstanding := core.Entry{
		ID:          uuid.NewString(),
		AccountID:   original.AccountID,
		TxDate:      now,
		PostedYear:  to.Year,
		PostedMonth: to.Month,
		Amount:      remaining.Neg(),
		Description: fmt.Sprintf("outstanding balance: %s", original.Description),
		CreatedAt:   now,
	}

	updated := original
	updated.IsPartiallyPaid = true
	updated.Amount = paidAmount.Neg()
	updated.Description = fmt.Sprintf("%s (paid %s)", original.Description, paidAmount)

	err = s.store.ExecTx(ctx, func(tx *storage.Store) error {
		if err := tx.InsertEntry(ctx, outstanding); err != nil {
			return err
		}
		if interestAmount.Sign() > 0 {
			interest := core.Entry{
				ID:          uuid.NewString(),
				AccountID:   original.AccountID,
				TxDate:      now,
				PostedYear:  to.Year,
				PostedMonth: to.Month,
				Amount:      interestAmount.Neg(),
				Description: fmt.Sprintf("interest: %s", original.Description),
				CreatedAt:   now,
			}
			if err := tx.InsertEntry(ctx, interest); err != nil {
				return err
			}
		}
		return tx.UpdateEntry(ctx, updated)
	})
	if err != nil {
		return core.PartialPaymentResult{}, fmt.Errorf("apply partial payment: %w", err)
	}

	slog.InfoContext(ctx, "Partial payment applied",
		"entry_id", entryID,
		"owner_id", ownerID,
		"paid", paidAmount.String(),
		"remaining", remaining.String(),
		"interest", interestAmount.String(),
		"next_period", to.String())

	s.publish(ctx, amqp.LedgerEvent{
		Kind:      amqp.EventPartialPaymentApplied,
		OwnerID:   ownerID,
		AccountID: original.AccountID,
		EntryID:   entryID,
		Timestamp: s.now(),
	})

	return core.PartialPaymentResult{
		OriginalAmount:  originalAmount,
		PaidAmount:      paidAmount,
		RemainingAmount: remaining,
		InterestAmount:  interestAmount,
		TotalNextMonth:  remaining.Add(interestAmount),
		NextPeriod:      to,
	}, nil
}

// List returns the owner's entries across all accounts, optionally narrowed
// to a posted year and month.
func (s *LedgerService) List(ctx context.Context, ownerID string, year, month *int) ([]core.Entry, error) {
	return s.store.ListEntries(ctx, storage.EntryFilter{OwnerID: ownerID, Year: year, Month: month})
}

// ListByAccount narrows the listing to one owned account.
func (s *LedgerService) ListByAccount(ctx context.Context, ownerID, accountID string, year, month *int) ([]core.Entry, error) {
	if _, err := s.accounts.Get(ctx, ownerID, accountID); err != nil {
		return nil, err
	}
	return s.store.ListEntries(ctx, storage.EntryFilter{
		OwnerID:   ownerID,
		AccountID: accountID,
		Year:      year,
		Month:     month,
	})
}

// ListByDateRange lists by real transaction date, inclusive on both ends.
func (s *LedgerService) ListByDateRange(ctx context.Context, ownerID string, start, end time.Time) ([]core.Entry, error) {
	return s.store.ListEntries(ctx, storage.EntryFilter{OwnerID: ownerID, From: &start, To: &end})
}

// Get returns one owned entry with its account attached.
func (s *LedgerService) Get(ctx context.Context, ownerID, id string) (core.Entry, error) {
	return s.getOwned(ctx, ownerID, id)
}

type UpdateEntryParams struct {
	AccountID   *string
	TxDate      *time.Time
	PostedYear  *int
	PostedMonth *int
	Amount      *decimal.Decimal
	Description *string
}

// Update rewrites the provided fields of an owned entry. Moving the entry to
// another account re-checks ownership of the destination.
func (s *LedgerService) Update(ctx context.Context, ownerID, id string, p UpdateEntryParams) (core.Entry, error) {
	e, err := s.getOwned(ctx, ownerID, id)
	if err != nil {
		return core.Entry{}, err
	}

	if p.AccountID != nil {
		account, err := s.accounts.Get(ctx, ownerID, *p.AccountID)
		if err != nil {
			return core.Entry{}, err
		}
		e.AccountID = account.ID
		e.Account = &account
	}
	if p.TxDate != nil {
		e.TxDate = *p.TxDate
	}
	if p.PostedYear != nil {
		e.PostedYear = *p.PostedYear
	}
	if p.PostedMonth != nil {
		e.PostedMonth = *p.PostedMonth
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}

	if err := s.store.UpdateEntry(ctx, e); err != nil {
		return core.Entry{}, fmt.Errorf("update entry: %w", err)
	}

	s.publish(ctx, amqp.LedgerEvent{
		Kind:      amqp.EventEntryUpdated,
		OwnerID:   ownerID,
		AccountID: e.AccountID,
		EntryID:   e.ID,
		Timestamp: s.now(),
	})
	return e, nil
}

// Delete removes one owned entry.
func (s *LedgerService) Delete(ctx context.Context, ownerID, id string) error {
	e, err := s.getOwned(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	s.publish(ctx, amqp.LedgerEvent{
		Kind:      amqp.EventEntryDeleted,
		OwnerID:   ownerID,
		AccountID: e.AccountID,
		EntryID:   id,
		Timestamp: s.now(),
	})
	return nil
}

// DeleteGroup removes an entire installment plan by group id.
func (s *LedgerService) DeleteGroup(ctx context.Context, ownerID, groupID string) error {
	first, err := s.store.FirstEntryInGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if _, err := s.accounts.Get(ctx, ownerID, first.AccountID); err != nil {
		return err
	}

	n, err := s.store.DeleteEntriesByGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("delete installment group: %w", err)
	}

	slog.InfoContext(ctx, "Installment group deleted",
		"group_id", groupID,
		"owner_id", ownerID,
		"entries", n)

	s.publish(ctx, amqp.LedgerEvent{
		Kind:      amqp.EventInstallmentDeleted,
		OwnerID:   ownerID,
		AccountID: first.AccountID,
		GroupID:   groupID,
		Timestamp: s.now(),
	})
	return nil
}

// publish is best effort: the write already committed, so a broker failure
// only costs the notification.
func (s *LedgerService) publish(ctx context.Context, event amqp.LedgerEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", event.Kind,
			"entry_id", event.EntryID,
			"error", err)
	}
}

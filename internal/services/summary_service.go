package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"banchee/internal/core"
	"banchee/internal/storage"
)

// SummaryService derives monthly, account and installment views by scanning
// entries inside a period window. It never writes.
type SummaryService struct {
	store    *storage.Store
	accounts *AccountService
	now      func() time.Time
}

func NewSummaryService(store *storage.Store, accounts *AccountService) *SummaryService {
	return &SummaryService{
		store:    store,
		accounts: accounts,
		now:      time.Now,
	}
}

// Monthly sums the owner's period across all accounts. Income is the sum of
// positive amounts, expense the sum of negative amounts kept negative, net
// their total. HasCarriedOver reports whether this period was already rolled
// forward into the next one.
func (s *SummaryService) Monthly(ctx context.Context, ownerID string, year, month int) (core.MonthlySummary, error) {
	period := core.Period{Year: year, Month: month}
	if !period.Valid() {
		return core.MonthlySummary{}, fmt.Errorf("month %d out of range: %w", month, core.ErrInvalidArgument)
	}

	entries, err := s.store.ListEntries(ctx, storage.EntryFilter{
		OwnerID: ownerID,
		Year:    &year,
		Month:   &month,
	})
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("monthly summary: %w", err)
	}

	income := decimal.Zero
	expense := decimal.Zero
	for _, e := range entries {
		if e.IsIncome() {
			income = income.Add(e.Amount)
		} else {
			expense = expense.Add(e.Amount)
		}
	}

	carried, err := s.store.HasCarryOverFrom(ctx, ownerID, period)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("monthly summary: %w", err)
	}

	return core.MonthlySummary{
		Year:           year,
		Month:          month,
		Income:         income,
		Expense:        expense,
		Net:            income.Add(expense),
		HasCarriedOver: carried,
	}, nil
}

// Year returns the twelve monthly summaries of a year in calendar order.
func (s *SummaryService) Year(ctx context.Context, ownerID string, year int) ([]core.MonthlySummary, error) {
	summaries := make([]core.MonthlySummary, 0, 12)
	for month := 1; month <= 12; month++ {
		summary, err := s.Monthly(ctx, ownerID, year, month)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Account returns one owned account's slice of a period: metadata, signed
// total and the entries ordered by transaction date descending then creation
// time descending.
func (s *SummaryService) Account(ctx context.Context, ownerID, accountID string, year, month int) (core.AccountSummary, error) {
	account, err := s.accounts.Get(ctx, ownerID, accountID)
	if err != nil {
		return core.AccountSummary{}, err
	}
	if !(core.Period{Year: year, Month: month}).Valid() {
		return core.AccountSummary{}, fmt.Errorf("month %d out of range: %w", month, core.ErrInvalidArgument)
	}

	entries, err := s.store.ListEntries(ctx, storage.EntryFilter{
		OwnerID:   ownerID,
		AccountID: accountID,
		Year:      &year,
		Month:     &month,
	})
	if err != nil {
		return core.AccountSummary{}, fmt.Errorf("account summary: %w", err)
	}

	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}

	return core.AccountSummary{
		Account: account,
		Year:    year,
		Month:   month,
		Total:   total,
		Entries: entries,
	}, nil
}

// AllAccounts returns a summary per active account in sort order, skipping
// accounts with no entries in the period even when they are active.
func (s *SummaryService) AllAccounts(ctx context.Context, ownerID string, year, month int) ([]core.AccountSummary, error) {
	accounts, err := s.accounts.ListActive(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("all accounts summary: %w", err)
	}

	var summaries []core.AccountSummary
	for _, account := range accounts {
		summary, err := s.Account(ctx, ownerID, account.ID, year, month)
		if err != nil {
			return nil, err
		}
		if len(summary.Entries) == 0 {
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// UpcomingInstallments projects the owner's installment plans inside the
// inclusive window [current period, current period + monthsAhead]. Groups
// appear in first-seen order of the period-then-index ordering. Remaining
// counts entries inside the window only, not the plan's overall leftovers.
func (s *SummaryService) UpcomingInstallments(ctx context.Context, ownerID string, monthsAhead int) ([]core.InstallmentProjection, error) {
	if monthsAhead < 0 {
		return nil, fmt.Errorf("months ahead must not be negative: %w", core.ErrInvalidArgument)
	}

	from := core.PeriodOf(s.now())
	to := from.RangeEnd(monthsAhead)

	entries, err := s.store.ListInstallmentEntries(ctx, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("upcoming installments: %w", err)
	}

	var order []string
	byGroup := make(map[string][]core.Entry)
	for _, e := range entries {
		if _, seen := byGroup[e.InstallmentGroupID]; !seen {
			order = append(order, e.InstallmentGroupID)
		}
		byGroup[e.InstallmentGroupID] = append(byGroup[e.InstallmentGroupID], e)
	}

	projections := make([]core.InstallmentProjection, 0, len(order))
	for _, groupID := range order {
		group := byGroup[groupID]
		first := group[0]

		next := make([]core.ScheduledPayment, 0, 3)
		for _, e := range group {
			if len(next) == 3 {
				break
			}
			next = append(next, core.ScheduledPayment{
				Year:  e.PostedYear,
				Month: e.PostedMonth,
				Index: e.InstallmentIndex,
			})
		}

		accountName := ""
		if first.Account != nil {
			accountName = first.Account.Name
		}
		projections = append(projections, core.InstallmentProjection{
			GroupID:        groupID,
			Description:    first.Description,
			AccountName:    accountName,
			AmountPerMonth: first.Amount,
			Remaining:      len(group),
			Total:          first.InstallmentTotal,
			NextPayments:   next,
		})
	}
	return projections, nil
}

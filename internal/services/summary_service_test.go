package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banchee/internal/core"
)

func TestMonthlySummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bank := f.createAccount(t, "owner-1", core.AccountBank)
	card := f.createAccount(t, "owner-1", core.AccountCreditCard)

	f.createEntry(t, "owner-1", bank.ID, 2026, 3, "30000", "salary")
	f.createEntry(t, "owner-1", bank.ID, 2026, 3, "-8000", "rent")
	f.createEntry(t, "owner-1", card.ID, 2026, 3, "-4500", "card statement")
	// Other periods and owners are out of scope.
	f.createEntry(t, "owner-1", bank.ID, 2026, 4, "-999", "next month")
	other := f.createAccount(t, "owner-2", core.AccountBank)
	f.createEntry(t, "owner-2", other.ID, 2026, 3, "-777", "not mine")

	summary, err := f.summary.Monthly(ctx, "owner-1", 2026, 3)
	require.NoError(t, err)

	assert.True(t, summary.Income.Equal(mustDecimal(t, "30000")), "income %s", summary.Income)
	assert.True(t, summary.Expense.Equal(mustDecimal(t, "-12500")), "expense %s", summary.Expense)
	assert.True(t, summary.Net.Equal(mustDecimal(t, "17500")), "net %s", summary.Net)
	assert.False(t, summary.HasCarriedOver)
}

func TestMonthlySummaryCarriedOverFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createAccount(t, "owner-1", core.AccountCarryOver)
	_, err := f.ledger.CarryOver(ctx, "owner-1", 2026, 2, mustDecimal(t, "150"))
	require.NoError(t, err)

	// February was rolled forward; March only received the roll-in.
	feb, err := f.summary.Monthly(ctx, "owner-1", 2026, 2)
	require.NoError(t, err)
	assert.True(t, feb.HasCarriedOver)

	mar, err := f.summary.Monthly(ctx, "owner-1", 2026, 3)
	require.NoError(t, err)
	assert.False(t, mar.HasCarriedOver)
	assert.True(t, mar.Income.Equal(mustDecimal(t, "150")))
}

func TestMonthlySummaryInvalidMonth(t *testing.T) {
	f := newFixture(t)
	_, err := f.summary.Monthly(context.Background(), "owner-1", 2026, 13)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestYearSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bank := f.createAccount(t, "owner-1", core.AccountBank)
	f.createEntry(t, "owner-1", bank.ID, 2026, 1, "100", "jan")
	f.createEntry(t, "owner-1", bank.ID, 2026, 6, "-200", "jun")

	summaries, err := f.summary.Year(ctx, "owner-1", 2026)
	require.NoError(t, err)
	require.Len(t, summaries, 12)

	assert.Equal(t, 1, summaries[0].Month)
	assert.True(t, summaries[0].Income.Equal(mustDecimal(t, "100")))
	assert.True(t, summaries[5].Expense.Equal(mustDecimal(t, "-200")))
	assert.True(t, summaries[11].Net.IsZero())
}

func TestAccountSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bank := f.createAccount(t, "owner-1", core.AccountBank)
	f.createEntry(t, "owner-1", bank.ID, 2026, 3, "30000", "salary")
	f.createEntry(t, "owner-1", bank.ID, 2026, 3, "-8000", "rent")

	summary, err := f.summary.Account(ctx, "owner-1", bank.ID, 2026, 3)
	require.NoError(t, err)
	assert.Equal(t, bank.ID, summary.Account.ID)
	assert.True(t, summary.Total.Equal(mustDecimal(t, "22000")))
	assert.Len(t, summary.Entries, 2)

	_, err = f.summary.Account(ctx, "owner-2", bank.ID, 2026, 3)
	assert.ErrorIs(t, err, core.ErrAccessDenied)
}

func TestAllAccountsSummarySkipsEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bank := f.createAccount(t, "owner-1", core.AccountBank)
	f.createAccount(t, "owner-1", core.AccountCash) // no entries
	f.createEntry(t, "owner-1", bank.ID, 2026, 3, "-100", "dinner")

	summaries, err := f.summary.AllAccounts(ctx, "owner-1", 2026, 3)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, bank.ID, summaries[0].Account.ID)
}

func TestUpcomingInstallments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.freezeAt(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))

	card := f.createAccount(t, "owner-1", core.AccountCreditCard)

	// Six payments starting in March; the window shows at most the next 3.
	phone, err := f.ledger.CreateInstallmentPlan(ctx, "owner-1", InstallmentParams{
		CreateEntryParams: CreateEntryParams{
			AccountID:   card.ID,
			TxDate:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			PostedYear:  2026,
			PostedMonth: 3,
			Amount:      mustDecimal(t, "-120"),
			Description: "new phone",
		},
		Total: 6,
	})
	require.NoError(t, err)

	// A finished plan entirely before the window stays invisible.
	_, err = f.ledger.CreateInstallmentPlan(ctx, "owner-1", InstallmentParams{
		CreateEntryParams: CreateEntryParams{
			AccountID:   card.ID,
			TxDate:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			PostedYear:  2025,
			PostedMonth: 1,
			Amount:      mustDecimal(t, "-30"),
			Description: "old couch",
		},
		Total: 2,
	})
	require.NoError(t, err)

	projections, err := f.summary.UpcomingInstallments(ctx, "owner-1", 6)
	require.NoError(t, err)
	require.Len(t, projections, 1)

	p := projections[0]
	assert.Equal(t, phone[0].InstallmentGroupID, p.GroupID)
	assert.Equal(t, "new phone", p.Description)
	assert.Equal(t, card.Name, p.AccountName)
	assert.True(t, p.AmountPerMonth.Equal(mustDecimal(t, "-120")))
	assert.Equal(t, 6, p.Remaining)
	assert.Equal(t, 6, p.Total)

	require.Len(t, p.NextPayments, 3)
	assert.Equal(t, core.ScheduledPayment{Year: 2026, Month: 3, Index: 1}, p.NextPayments[0])
	assert.Equal(t, core.ScheduledPayment{Year: 2026, Month: 4, Index: 2}, p.NextPayments[1])
	assert.Equal(t, core.ScheduledPayment{Year: 2026, Month: 5, Index: 3}, p.NextPayments[2])
}

func TestUpcomingInstallmentsWindowBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.freezeAt(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))

	card := f.createAccount(t, "owner-1", core.AccountCreditCard)
	_, err := f.ledger.CreateInstallmentPlan(ctx, "owner-1", InstallmentParams{
		CreateEntryParams: CreateEntryParams{
			AccountID:   card.ID,
			TxDate:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			PostedYear:  2026,
			PostedMonth: 3,
			Amount:      mustDecimal(t, "-120"),
			Description: "new phone",
		},
		Total: 12,
	})
	require.NoError(t, err)

	// A two-month window only counts the installments inside it.
	projections, err := f.summary.UpcomingInstallments(ctx, "owner-1", 2)
	require.NoError(t, err)
	require.Len(t, projections, 1)
	assert.Equal(t, 3, projections[0].Remaining)
	assert.Equal(t, 12, projections[0].Total)
}

func TestUpcomingInstallmentsNegativeWindow(t *testing.T) {
	f := newFixture(t)
	_, err := f.summary.UpcomingInstallments(context.Background(), "owner-1", -1)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

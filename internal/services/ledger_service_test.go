package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banchee/internal/amqp"
	"banchee/internal/core"
)

func TestCreateEntry(t *testing.T) {
	f := newFixture(t)

	a := f.createAccount(t, "owner-1", core.AccountCash)
	e := f.createEntry(t, "owner-1", a.ID, 2026, 3, "-1250.50", "groceries")

	require.NotNil(t, e.Account)
	assert.Equal(t, a.ID, e.Account.ID)
	assert.Equal(t, []string{amqp.EventEntryCreated}, f.publisher.kinds())

	got, err := f.ledger.Get(context.Background(), "owner-1", e.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(mustDecimal(t, "-1250.50")))
}

func TestCreateEntryForeignAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.createAccount(t, "owner-1", core.AccountCash)
	_, err := f.ledger.Create(ctx, "owner-2", CreateEntryParams{
		AccountID:   a.ID,
		TxDate:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PostedYear:  2026,
		PostedMonth: 3,
		Amount:      mustDecimal(t, "-10"),
		Description: "sneaky",
	})
	assert.ErrorIs(t, err, core.ErrAccessDenied)
}

func TestInstallmentPlanWrapsYear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.createAccount(t, "owner-1", core.AccountCreditCard)
	entries, err := f.ledger.CreateInstallmentPlan(ctx, "owner-1", InstallmentParams{
		CreateEntryParams: CreateEntryParams{
			AccountID:   a.ID,
			TxDate:      time.Date(2026, 11, 5, 0, 0, 0, 0, time.UTC),
			PostedYear:  2026,
			PostedMonth: 11,
			Amount:      mustDecimal(t, "-120"),
			Description: "new phone",
		},
		Total: 10,
	})
	require.NoError(t, err)
	require.Len(t, entries, 10)

	groupID := entries[0].InstallmentGroupID
	require.NotEmpty(t, groupID)
	want := core.Period{Year: 2026, Month: 11}
	for i, e := range entries {
		assert.Equal(t, groupID, e.InstallmentGroupID)
		assert.Equal(t, i+1, e.InstallmentIndex)
		assert.Equal(t, 10, e.InstallmentTotal)
		assert.Equal(t, want, e.Posted(), "installment %d", i+1)
		assert.True(t, e.Amount.Equal(mustDecimal(t, "-120")))
		want = want.Next()
	}
	assert.Equal(t, core.Period{Year: 2027, Month: 8}, entries[9].Posted())
}

func TestInstallmentPlanTotalTooSmall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.createAccount(t, "owner-1", core.AccountCreditCard)
	_, err := f.ledger.CreateInstallmentPlan(ctx, "owner-1", InstallmentParams{
		CreateEntryParams: CreateEntryParams{
			AccountID:   a.ID,
			TxDate:      time.Date(2026, 11, 5, 0, 0, 0, 0, time.UTC),
			PostedYear:  2026,
			PostedMonth: 11,
			Amount:      mustDecimal(t, "-120"),
			Description: "new phone",
		},
		Total: 1,
	})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestDeleteGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.createAccount(t, "owner-1", core.AccountCreditCard)
	entries, err := f.ledger.CreateInstallmentPlan(ctx, "owner-1", InstallmentParams{
		CreateEntryParams: CreateEntryParams{
			AccountID:   a.ID,
			TxDate:      time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
			PostedYear:  2026,
			PostedMonth: 1,
			Amount:      mustDecimal(t, "-50"),
			Description: "couch",
		},
		Total: 3,
	})
	require.NoError(t, err)
	groupID := entries[0].InstallmentGroupID

	err = f.ledger.DeleteGroup(ctx, "owner-2", groupID)
	assert.ErrorIs(t, err, core.ErrAccessDenied)

	require.NoError(t, f.ledger.DeleteGroup(ctx, "owner-1", groupID))

	for _, e := range entries {
		_, err := f.ledger.Get(ctx, "owner-1", e.ID)
		assert.ErrorIs(t, err, core.ErrNotFound)
	}
}

func TestCarryOver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	carry := f.createAccount(t, "owner-1", core.AccountCarryOver)
	e, err := f.ledger.CarryOver(ctx, "owner-1", 2026, 2, mustDecimal(t, "345.60"))
	require.NoError(t, err)

	assert.Equal(t, carry.ID, e.AccountID)
	assert.Equal(t, core.Period{Year: 2026, Month: 3}, e.Posted())
	assert.True(t, e.IsCarryOver)
	assert.Equal(t, 2026, e.CarryFromYear)
	assert.Equal(t, 2, e.CarryFromMonth)
	assert.Equal(t, "carried over from February 2026", e.Description)
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), e.TxDate)
}

func TestCarryOverDecemberWraps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createAccount(t, "owner-1", core.AccountCarryOver)
	e, err := f.ledger.CarryOver(ctx, "owner-1", 2026, 12, mustDecimal(t, "-80"))
	require.NoError(t, err)
	assert.Equal(t, core.Period{Year: 2027, Month: 1}, e.Posted())
	assert.Equal(t, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), e.TxDate)
}

func TestCarryOverRequiresCarryAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createAccount(t, "owner-1", core.AccountCash)
	_, err := f.ledger.CarryOver(ctx, "owner-1", 2026, 2, mustDecimal(t, "100"))
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Contains(t, err.Error(), "create one first")
}

func TestCarryOverStorageFailureKeepsCause(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createAccount(t, "owner-1", core.AccountCarryOver)
	require.NoError(t, f.store.Close())

	// A real storage failure must not masquerade as a missing account.
	_, err := f.ledger.CarryOver(ctx, "owner-1", 2026, 2, mustDecimal(t, "100"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrNotFound)
	assert.NotContains(t, err.Error(), "create one first")
}

func TestCarryOverOncePerPeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createAccount(t, "owner-1", core.AccountCarryOver)
	_, err := f.ledger.CarryOver(ctx, "owner-1", 2026, 2, mustDecimal(t, "100"))
	require.NoError(t, err)

	_, err = f.ledger.CarryOver(ctx, "owner-1", 2026, 2, mustDecimal(t, "100"))
	assert.ErrorIs(t, err, core.ErrConflict)

	// A different period is still fine.
	_, err = f.ledger.CarryOver(ctx, "owner-1", 2026, 3, mustDecimal(t, "100"))
	assert.NoError(t, err)
}

func TestCarryOverZeroAmount(t *testing.T) {
	f := newFixture(t)

	f.createAccount(t, "owner-1", core.AccountCarryOver)
	_, err := f.ledger.CarryOver(context.Background(), "owner-1", 2026, 2, mustDecimal(t, "0"))
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestPartialPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.createAccount(t, "owner-1", core.AccountCreditCard)
	original := f.createEntry(t, "owner-1", a.ID, 2026, 3, "-3490", "card statement")

	result, err := f.ledger.PartialPayment(ctx, "owner-1", original.ID,
		mustDecimal(t, "2000"), mustDecimal(t, "100"))
	require.NoError(t, err)

	assert.True(t, result.OriginalAmount.Equal(mustDecimal(t, "3490")))
	assert.True(t, result.PaidAmount.Equal(mustDecimal(t, "2000")))
	assert.True(t, result.RemainingAmount.Equal(mustDecimal(t, "1490")))
	assert.True(t, result.InterestAmount.Equal(mustDecimal(t, "100")))
	assert.True(t, result.TotalNextMonth.Equal(mustDecimal(t, "1590")))
	assert.Equal(t, core.Period{Year: 2026, Month: 4}, result.NextPeriod)

	// Original rewritten to the paid slice and flagged.
	got, err := f.ledger.Get(ctx, "owner-1", original.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(mustDecimal(t, "-2000")))
	assert.True(t, got.IsPartiallyPaid)
	assert.Equal(t, "card statement (paid 2000)", got.Description)

	// Outstanding balance and interest land in April.
	april := 4
	year := 2026
	entries, err := f.ledger.List(ctx, "owner-1", &year, &april)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byDesc := map[string]core.Entry{}
	for _, e := range entries {
		byDesc[e.Description] = e
	}
	outstanding, ok := byDesc["outstanding balance: card statement"]
	require.True(t, ok)
	assert.True(t, outstanding.Amount.Equal(mustDecimal(t, "-1490")))
	interest, ok := byDesc["interest: card statement"]
	require.True(t, ok)
	assert.True(t, interest.Amount.Equal(mustDecimal(t, "-100")))
}

func TestPartialPaymentNoInterest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.createAccount(t, "owner-1", core.AccountCreditCard)
	original := f.createEntry(t, "owner-1", a.ID, 2026, 3, "-500", "statement")

	result, err := f.ledger.PartialPayment(ctx, "owner-1", original.ID,
		mustDecimal(t, "300"), mustDecimal(t, "0"))
	require.NoError(t, err)
	assert.True(t, result.TotalNextMonth.Equal(mustDecimal(t, "200")))

	april := 4
	year := 2026
	entries, err := f.ledger.List(ctx, "owner-1", &year, &april)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPartialPaymentRejectsSecondSplit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.createAccount(t, "owner-1", core.AccountCreditCard)
	original := f.createEntry(t, "owner-1", a.ID, 2026, 3, "-500", "statement")

	_, err := f.ledger.PartialPayment(ctx, "owner-1", original.ID,
		mustDecimal(t, "100"), mustDecimal(t, "0"))
	require.NoError(t, err)

	_, err = f.ledger.PartialPayment(ctx, "owner-1", original.ID,
		mustDecimal(t, "100"), mustDecimal(t, "0"))
	assert.ErrorIs(t, err, core.ErrConflict)
}

func TestPartialPaymentAmountBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.createAccount(t, "owner-1", core.AccountCreditCard)
	original := f.createEntry(t, "owner-1", a.ID, 2026, 3, "-500", "statement")

	// Paying the full amount or more is not a partial payment.
	_, err := f.ledger.PartialPayment(ctx, "owner-1", original.ID,
		mustDecimal(t, "500"), mustDecimal(t, "0"))
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = f.ledger.PartialPayment(ctx, "owner-1", original.ID,
		mustDecimal(t, "600"), mustDecimal(t, "0"))
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = f.ledger.PartialPayment(ctx, "owner-1", original.ID,
		mustDecimal(t, "0"), mustDecimal(t, "0"))
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = f.ledger.PartialPayment(ctx, "owner-1", original.ID,
		mustDecimal(t, "100"), mustDecimal(t, "-5"))
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestUpdateEntryMoveAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.createAccount(t, "owner-1", core.AccountCash)
	b := f.createAccount(t, "owner-1", core.AccountBank)
	theirs := f.createAccount(t, "owner-2", core.AccountCash)

	e := f.createEntry(t, "owner-1", a.ID, 2026, 3, "-100", "dinner")

	updated, err := f.ledger.Update(ctx, "owner-1", e.ID, UpdateEntryParams{AccountID: &b.ID})
	require.NoError(t, err)
	assert.Equal(t, b.ID, updated.AccountID)

	_, err = f.ledger.Update(ctx, "owner-1", e.ID, UpdateEntryParams{AccountID: &theirs.ID})
	assert.ErrorIs(t, err, core.ErrAccessDenied)
}

func TestDeleteEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.createAccount(t, "owner-1", core.AccountCash)
	e := f.createEntry(t, "owner-1", a.ID, 2026, 3, "-100", "dinner")

	err := f.ledger.Delete(ctx, "owner-2", e.ID)
	assert.ErrorIs(t, err, core.ErrAccessDenied)

	require.NoError(t, f.ledger.Delete(ctx, "owner-1", e.ID))
	_, err = f.ledger.Get(ctx, "owner-1", e.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestNilPublisherIsTolerated(t *testing.T) {
	f := newFixture(t)

	store := f.store
	ledger := NewLedgerService(store, f.accounts, nil)

	a := f.createAccount(t, "owner-1", core.AccountCash)
	_, err := ledger.Create(context.Background(), "owner-1", CreateEntryParams{
		AccountID:   a.ID,
		TxDate:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PostedYear:  2026,
		PostedMonth: 3,
		Amount:      mustDecimal(t, "-10"),
		Description: "coffee",
	})
	assert.NoError(t, err)
}

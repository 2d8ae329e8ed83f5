package core

import "github.com/shopspring/decimal"

// MonthlySummary aggregates one owner's period across all accounts. Expense is
// kept negative; Net is Income + Expense. HasCarriedOver means this month has
// already been rolled forward, not that it received a roll-in.
type MonthlySummary struct {
	Year           int
	Month          int
	Income         decimal.Decimal
	Expense        decimal.Decimal
	Net            decimal.Decimal
	HasCarriedOver bool
}

// AccountSummary is one account's slice of a period, entries ordered by
// transaction date descending then creation time descending.
type AccountSummary struct {
	Account Account
	Year    int
	Month   int
	Total   decimal.Decimal
	Entries []Entry
}

// ScheduledPayment is one (period, index) slot of an installment plan.
type ScheduledPayment struct {
	Year  int
	Month int
	Index int
}

// InstallmentProjection describes one installment group inside an upcoming
// window. Remaining counts only the entries found inside the window, not the
// entries left in the whole plan.
type InstallmentProjection struct {
	GroupID        string
	Description    string
	AccountName    string
	AmountPerMonth decimal.Decimal
	Remaining      int
	Total          int
	NextPayments   []ScheduledPayment
}

// PartialPaymentResult summarizes a partial payment split.
type PartialPaymentResult struct {
	OriginalAmount  decimal.Decimal
	PaidAmount      decimal.Decimal
	RemainingAmount decimal.Decimal
	InterestAmount  decimal.Decimal
	TotalNextMonth  decimal.Decimal
	NextPeriod      Period
}

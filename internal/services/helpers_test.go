package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"banchee/internal/amqp"
	"banchee/internal/core"
	"banchee/internal/storage"
)

// capturingPublisher records every event it receives.
type capturingPublisher struct {
	mu     sync.Mutex
	events []amqp.LedgerEvent
}

func (p *capturingPublisher) PublishLedgerEvent(_ context.Context, event amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}

type fixture struct {
	store     *storage.Store
	accounts  *AccountService
	ledger    *LedgerService
	summary   *SummaryService
	publisher *capturingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	publisher := &capturingPublisher{}
	accounts := NewAccountService(store)
	ledger := NewLedgerService(store, accounts, publisher)
	summary := NewSummaryService(store, accounts)
	return &fixture{
		store:     store,
		accounts:  accounts,
		ledger:    ledger,
		summary:   summary,
		publisher: publisher,
	}
}

// freezeAt pins the clock both services derive periods and timestamps from.
func (f *fixture) freezeAt(t time.Time) {
	f.ledger.now = func() time.Time { return t }
	f.summary.now = func() time.Time { return t }
}

func (f *fixture) createAccount(t *testing.T, ownerID string, accType core.AccountType) core.Account {
	t.Helper()
	a, err := f.accounts.Create(context.Background(), ownerID, CreateAccountParams{
		Name: "Test " + string(accType),
		Type: accType,
	})
	require.NoError(t, err)
	return a
}

func (f *fixture) createEntry(t *testing.T, ownerID, accountID string, year, month int, amount string, desc string) core.Entry {
	t.Helper()
	amt, err := decimal.NewFromString(amount)
	require.NoError(t, err)
	e, err := f.ledger.Create(context.Background(), ownerID, CreateEntryParams{
		AccountID:   accountID,
		TxDate:      time.Date(year, time.Month(month), 10, 0, 0, 0, 0, time.UTC),
		PostedYear:  year,
		PostedMonth: month,
		Amount:      amt,
		Description: desc,
	})
	require.NoError(t, err)
	return e
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

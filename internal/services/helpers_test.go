package services

import (
	"context"
	"testing"
	"time"

	"sofia/internal/clock"
	"sofia/internal/models"
	"sofia/internal/records"
	"sofia/internal/testutil"
)

// fixture bundles the services under test over one SQLite database.
type fixture struct {
	clock    *clock.FakeClock
	ai       *testutil.StubCompleter
	store    UserDataServicer
	ledger   LedgerServicer
	detector DetectorServicer
	editFlow EditFlowServicer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := testutil.NewClock()
	stub := testutil.NewStubCompleter()
	store := NewUserDataService(records.NewSQLBackend(testutil.SetupTestDB(t)), clk, DefaultHistoryRetention)
	ledger := NewLedgerService(store, stub, clk)
	detector := NewDetectorService(stub, nil)
	return &fixture{
		clock:    clk,
		ai:       stub,
		store:    store,
		ledger:   ledger,
		detector: detector,
		editFlow: NewEditFlowService(store, ledger, detector, clk, DefaultPendingActionTTL),
	}
}

// expense registers an expense and advances the clock so timestamps differ.
func (f *fixture) expense(t *testing.T, userID string, amount float64, category string) *models.Transaction {
	t.Helper()
	txn, err := f.ledger.RegisterExpense(context.Background(), userID, ExpenseInput{Amount: amount, Category: category})
	testutil.AssertNoError(t, err)
	f.clock.Advance(time.Second)
	return txn
}

func (f *fixture) income(t *testing.T, userID string, amount float64, source string) *models.Transaction {
	t.Helper()
	txn, err := f.ledger.RegisterIncome(context.Background(), userID, IncomeInput{Amount: amount, Source: source})
	testutil.AssertNoError(t, err)
	f.clock.Advance(time.Second)
	return txn
}

package models

import (
	"testing"
	"time"
)

func TestFinancialRecordRecompute(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	f := NewFinancialRecord()
	f.Income = append(f.Income,
		Transaction{Type: TransactionTypeIncome, Amount: 1500},
		Transaction{Type: TransactionTypeIncome, Amount: 250.5},
	)
	f.Expenses = append(f.Expenses, Transaction{Type: TransactionTypeExpense, Amount: 80})

	f.Recompute(now)

	if f.Summary.TotalIncome != 1750.5 {
		t.Errorf("expected total income 1750.5, got %v", f.Summary.TotalIncome)
	}
	if f.Summary.TotalExpenses != 80 {
		t.Errorf("expected total expenses 80, got %v", f.Summary.TotalExpenses)
	}
	if f.Summary.CurrentBalance != f.Summary.TotalIncome-f.Summary.TotalExpenses {
		t.Errorf("balance invariant violated: %+v", f.Summary)
	}
	if f.Summary.TransactionCount != 3 {
		t.Errorf("expected 3 transactions, got %d", f.Summary.TransactionCount)
	}
	if f.Summary.LastUpdated == nil || !f.Summary.LastUpdated.Equal(now) {
		t.Errorf("expected last updated %s, got %v", now, f.Summary.LastUpdated)
	}
}

func TestCurrency(t *testing.T) {
	t.Run("format", func(t *testing.T) {
		cases := map[string]struct {
			c    Currency
			amt  float64
			want string
		}{
			"soles_integer":  {CurrencySoles, 500, "S/500"},
			"soles_fraction": {CurrencySoles, 45.5, "S/45.5"},
			"dolares":        {CurrencyDolares, 20, "$20"},
			"pesos":          {CurrencyPesos, 1000, "$1000"},
		}
		for name, tc := range cases {
			t.Run(name, func(t *testing.T) {
				if got := tc.c.Format(tc.amt); got != tc.want {
					t.Errorf("expected %q, got %q", tc.want, got)
				}
			})
		}
	})

	t.Run("parse", func(t *testing.T) {
		cases := map[string]Currency{
			"USD":     CurrencyDolares,
			"dólares": CurrencyDolares,
			"CLP":     CurrencyPesos,
			"PEN":     CurrencySoles,
			"":        CurrencySoles,
			"euros":   CurrencySoles,
		}
		for in, want := range cases {
			if got := ParseCurrency(in); got != want {
				t.Errorf("ParseCurrency(%q): expected %s, got %s", in, want, got)
			}
		}
	})
}

func TestPendingActionExpired(t *testing.T) {
	created := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	p := &PendingAction{Type: PendingEditConfirm, CreatedAt: created}

	if p.Expired(created.Add(30*time.Minute), 30*time.Minute) {
		t.Error("expected action at exactly the ttl to be live")
	}
	if !p.Expired(created.Add(31*time.Minute), 30*time.Minute) {
		t.Error("expected action after 31 minutes to be expired")
	}
}

func TestChangeSet(t *testing.T) {
	if !(ChangeSet{}).IsEmpty() {
		t.Error("expected zero change set to be empty")
	}

	amount := 300.0
	category := "alimentación"
	cs := ChangeSet{Amount: &amount, Category: &category}
	if cs.IsEmpty() {
		t.Error("expected change set to be non-empty")
	}
	want := "monto: S/300, categoría: alimentación"
	if got := cs.Describe(CurrencySoles); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestTransactionSnapshot(t *testing.T) {
	tx := Transaction{
		ID:          "a",
		Amount:      10,
		EditHistory: []EditSnapshot{{Timestamp: time.Now()}},
	}
	snap := tx.Snapshot()
	if snap.EditHistory != nil {
		t.Error("expected snapshot without edit history")
	}
	if len(tx.EditHistory) != 1 {
		t.Error("expected original untouched")
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("añoñoño", 3); got != "año" {
		t.Errorf("expected %q, got %q", "año", got)
	}
	if got := TruncateRunes("abc", 10); got != "abc" {
		t.Errorf("expected %q, got %q", "abc", got)
	}
}

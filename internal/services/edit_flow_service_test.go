package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"sofia/internal/models"
	"sofia/internal/testutil"
)

func pendingOf(t *testing.T, f *fixture, userID string) *models.PendingAction {
	t.Helper()
	profile, err := f.store.LoadProfile(context.Background(), userID)
	testutil.AssertNoError(t, err)
	return profile.PendingAction
}

func TestEditFlow_Start(t *testing.T) {
	t.Run("no_transactions", func(t *testing.T) {
		f := newFixture(t)

		reply, err := f.editFlow.Start(context.Background(), "u1", EditRequest{Description: "mi gasto"})
		testutil.AssertNoError(t, err)

		if reply != msgNoTransactions {
			t.Errorf("unexpected reply %q", reply)
		}
		if pendingOf(t, f, "u1") != nil {
			t.Error("expected no pending action")
		}
	})

	t.Run("ambiguous_lists_candidates", func(t *testing.T) {
		f := newFixture(t)
		f.expense(t, "u1", 500, "comida")
		f.expense(t, "u1", 200, "transporte")

		reply, err := f.editFlow.Start(context.Background(), "u1", EditRequest{Description: "quiero modificar mi gasto"})
		testutil.AssertNoError(t, err)

		pending := pendingOf(t, f, "u1")
		if pending == nil || pending.Type != models.PendingEditSelect {
			t.Fatalf("expected select state, got %+v", pending)
		}
		if len(pending.Candidates) != 2 {
			t.Fatalf("expected 2 candidates, got %d", len(pending.Candidates))
		}
		if pending.Candidates[0].Amount != 200 {
			t.Errorf("expected newest first, got %v", pending.Candidates[0].Amount)
		}
		if !strings.Contains(reply, "1. Gasto: S/200 en transporte") || !strings.Contains(reply, "2. Gasto: S/500 en comida") {
			t.Errorf("expected numbered candidate list, got %q", reply)
		}
	})

	t.Run("type_filter", func(t *testing.T) {
		f := newFixture(t)
		f.income(t, "u1", 1000, "salario")
		f.expense(t, "u1", 500, "comida")
		f.expense(t, "u1", 200, "transporte")

		_, err := f.editFlow.Start(context.Background(), "u1", EditRequest{
			Description:     "quiero modificar algo",
			TransactionType: models.TransactionTypeExpense,
		})
		testutil.AssertNoError(t, err)

		pending := pendingOf(t, f, "u1")
		if len(pending.Candidates) != 2 {
			t.Fatalf("expected only the 2 expenses, got %d", len(pending.Candidates))
		}
		for _, c := range pending.Candidates {
			if c.Type != models.TransactionTypeExpense {
				t.Errorf("expected expense candidate, got %s", c.Type)
			}
		}
	})

	t.Run("unique_without_changes_asks_what", func(t *testing.T) {
		f := newFixture(t)
		f.expense(t, "u1", 500, "comida")
		f.expense(t, "u1", 200, "transporte")

		_, err := f.editFlow.Start(context.Background(), "u1", EditRequest{Description: "mi gasto de comida"})
		testutil.AssertNoError(t, err)

		pending := pendingOf(t, f, "u1")
		if pending.Type != models.PendingEditSpecify {
			t.Fatalf("expected specify state, got %s", pending.Type)
		}
		if pending.Target.Amount != 500 {
			t.Errorf("expected the comida expense, got %+v", pending.Target)
		}
	})

	t.Run("unique_with_changes_asks_confirmation", func(t *testing.T) {
		f := newFixture(t)
		f.expense(t, "u1", 500, "comida")

		reply, err := f.editFlow.Start(context.Background(), "u1", EditRequest{
			Description: "mi gasto de comida",
			Changes:     models.ChangeSet{Amount: ptr(300.0)},
		})
		testutil.AssertNoError(t, err)

		pending := pendingOf(t, f, "u1")
		if pending.Type != models.PendingEditConfirm {
			t.Fatalf("expected confirm state, got %s", pending.Type)
		}
		if !strings.Contains(reply, "¿Confirmas el cambio?") {
			t.Errorf("expected confirmation prompt, got %q", reply)
		}
	})
}

func TestEditFlow_Start_DetectedAmount(t *testing.T) {
	t.Run("new_amount_goes_to_confirmation", func(t *testing.T) {
		f := newFixture(t)
		f.expense(t, "u1", 500, "comida")
		f.expense(t, "u1", 200, "transporte")
		d := f.detector.Analyze(context.Background(), "modifica mi gasto de comida, ahora son 300")

		_, err := f.editFlow.Start(context.Background(), "u1", *d.Edit)
		testutil.AssertNoError(t, err)

		pending := pendingOf(t, f, "u1")
		if pending.Type != models.PendingEditConfirm {
			t.Fatalf("expected confirm state, got %s", pending.Type)
		}
		if pending.Changes == nil || pending.Changes.Amount == nil || *pending.Changes.Amount != 300 {
			t.Errorf("expected new amount 300, got %+v", pending.Changes)
		}
	})

	t.Run("amount_naming_the_transaction_is_not_a_change", func(t *testing.T) {
		f := newFixture(t)
		f.expense(t, "u1", 500, "comida")
		f.expense(t, "u1", 200, "transporte")
		d := f.detector.Analyze(context.Background(), "cambia mi gasto de 500")

		_, err := f.editFlow.Start(context.Background(), "u1", *d.Edit)
		testutil.AssertNoError(t, err)

		pending := pendingOf(t, f, "u1")
		if pending.Type != models.PendingEditSpecify {
			t.Fatalf("expected specify state, got %s", pending.Type)
		}
		if pending.Target.Amount != 500 {
			t.Errorf("expected the 500 expense, got %+v", pending.Target)
		}
	})
}

func TestEditFlow_Resume(t *testing.T) {
	t.Run("nothing_pending", func(t *testing.T) {
		f := newFixture(t)

		_, handled, err := f.editFlow.Resume(context.Background(), "u1", "hola")
		testutil.AssertNoError(t, err)
		if handled {
			t.Error("expected message not to be handled")
		}
	})

	t.Run("expired_after_31_minutes", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		f.expense(t, "u1", 500, "comida")
		_, err := f.editFlow.Start(ctx, "u1", EditRequest{Description: "comida"})
		testutil.AssertNoError(t, err)

		f.clock.Advance(31 * time.Minute)
		_, handled, err := f.editFlow.Resume(ctx, "u1", "300")
		testutil.AssertNoError(t, err)

		if handled {
			t.Error("expected expired action to be ignored")
		}
		if pendingOf(t, f, "u1") != nil {
			t.Error("expected stale pending action to be cleared")
		}
	})

	t.Run("alive_at_30_minutes", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		f.expense(t, "u1", 500, "comida")
		_, err := f.editFlow.Start(ctx, "u1", EditRequest{Description: "comida"})
		testutil.AssertNoError(t, err)

		f.clock.Advance(30 * time.Minute)
		_, handled, err := f.editFlow.Resume(ctx, "u1", "300")
		testutil.AssertNoError(t, err)
		if !handled {
			t.Error("expected action to still be live")
		}
	})

	t.Run("select_by_index", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		f.expense(t, "u1", 100, "ropa")
		f.expense(t, "u1", 500, "comida")
		f.expense(t, "u1", 200, "transporte")
		_, err := f.editFlow.Start(ctx, "u1", EditRequest{Description: "quiero modificar mi gasto"})
		testutil.AssertNoError(t, err)

		reply, handled, err := f.editFlow.Resume(ctx, "u1", "2")
		testutil.AssertNoError(t, err)
		if !handled {
			t.Fatal("expected reply to be handled")
		}

		pending := pendingOf(t, f, "u1")
		if pending.Type != models.PendingEditSpecify {
			t.Fatalf("expected specify state, got %s", pending.Type)
		}
		if pending.Target.Amount != 500 {
			t.Errorf("expected second most recent (500), got %v", pending.Target.Amount)
		}
		if !strings.Contains(reply, "¿Qué quieres cambiar?") {
			t.Errorf("expected specify prompt, got %q", reply)
		}
	})

	t.Run("select_by_text", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		f.expense(t, "u1", 500, "comida")
		f.expense(t, "u1", 200, "transporte")
		_, _ = f.editFlow.Start(ctx, "u1", EditRequest{Description: "quiero modificar mi gasto"})

		_, _, err := f.editFlow.Resume(ctx, "u1", "el de Comida")
		testutil.AssertNoError(t, err)

		if pending := pendingOf(t, f, "u1"); pending.Target == nil || pending.Target.Amount != 500 {
			t.Errorf("expected comida expense selected, got %+v", pending)
		}
	})

	t.Run("select_unrecognised_reprompts", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		f.expense(t, "u1", 500, "comida")
		f.expense(t, "u1", 200, "transporte")
		_, _ = f.editFlow.Start(ctx, "u1", EditRequest{Description: "quiero modificar mi gasto"})

		reply, handled, err := f.editFlow.Resume(ctx, "u1", "el 7")
		testutil.AssertNoError(t, err)

		if !handled || !strings.Contains(reply, "(1-2)") {
			t.Errorf("expected re-prompt, got %q", reply)
		}
		if pendingOf(t, f, "u1").Type != models.PendingEditSelect {
			t.Error("expected to stay in select state")
		}
	})

	t.Run("select_fragment_must_be_whole_words", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		f.expense(t, "u1", 500, "comida")
		f.expense(t, "u1", 200, "transporte")
		_, _ = f.editFlow.Start(ctx, "u1", EditRequest{Description: "quiero modificar mi gasto"})

		for _, reply := range []string{"a", "te", "trans"} {
			_, handled, err := f.editFlow.Resume(ctx, "u1", reply)
			testutil.AssertNoError(t, err)
			if !handled {
				t.Fatalf("expected %q to be handled", reply)
			}
			if pending := pendingOf(t, f, "u1"); pending.Type != models.PendingEditSelect {
				t.Errorf("expected %q to leave the select state alone, got %s", reply, pending.Type)
			}
		}
	})

	t.Run("select_cancel", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		f.expense(t, "u1", 500, "comida")
		f.expense(t, "u1", 200, "transporte")
		_, _ = f.editFlow.Start(ctx, "u1", EditRequest{Description: "quiero modificar mi gasto"})

		reply, _, err := f.editFlow.Resume(ctx, "u1", "mejor cancela")
		testutil.AssertNoError(t, err)

		if reply != msgEditCancelled {
			t.Errorf("unexpected reply %q", reply)
		}
		if pendingOf(t, f, "u1") != nil {
			t.Error("expected pending action cleared")
		}
	})

	t.Run("specify_then_confirm_applies", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		txn := f.expense(t, "u1", 500, "comida")
		_, _ = f.editFlow.Start(ctx, "u1", EditRequest{Description: "comida"})

		reply, _, err := f.editFlow.Resume(ctx, "u1", "no se")
		testutil.AssertNoError(t, err)
		if reply != msgSpecifyReprompt {
			t.Fatalf("expected re-prompt for unclear change, got %q", reply)
		}

		_, _, err = f.editFlow.Resume(ctx, "u1", "300 en alimentación")
		testutil.AssertNoError(t, err)
		if pendingOf(t, f, "u1").Type != models.PendingEditConfirm {
			t.Fatal("expected confirm state")
		}

		reply, _, err = f.editFlow.Resume(ctx, "u1", "Sí, dale")
		testutil.AssertNoError(t, err)
		if reply != "✅ He actualizado tu gasto según lo solicitado 📊" {
			t.Errorf("unexpected reply %q", reply)
		}

		financial, _ := f.store.LoadFinancial(ctx, "u1")
		edited := financial.Expenses[0]
		if edited.ID != txn.ID || edited.Amount != 300 || edited.Category != "alimentacion" {
			t.Errorf("expected edit applied, got %+v", edited)
		}
		if pendingOf(t, f, "u1") != nil {
			t.Error("expected pending action cleared")
		}
	})

	t.Run("confirm_unclear_cancels", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		f.expense(t, "u1", 500, "comida")
		_, _ = f.editFlow.Start(ctx, "u1", EditRequest{Description: "comida", Changes: models.ChangeSet{Amount: ptr(300.0)}})

		reply, handled, err := f.editFlow.Resume(ctx, "u1", "tal vez")
		testutil.AssertNoError(t, err)
		if !handled || reply != msgEditCancelled {
			t.Errorf("expected cancellation, got %q", reply)
		}

		financial, _ := f.store.LoadFinancial(ctx, "u1")
		if financial.Expenses[0].Amount != 500 {
			t.Errorf("expected amount unchanged, got %v", financial.Expenses[0].Amount)
		}
		if pendingOf(t, f, "u1") != nil {
			t.Error("expected pending action cleared")
		}
	})

	t.Run("confirm_mixed_answer_cancels", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		f.expense(t, "u1", 500, "comida")
		_, _ = f.editFlow.Start(ctx, "u1", EditRequest{Description: "comida", Changes: models.ChangeSet{Amount: ptr(300.0)}})

		reply, _, _ := f.editFlow.Resume(ctx, "u1", "sí... no, mejor no")
		if reply != msgEditCancelled {
			t.Errorf("expected cancellation, got %q", reply)
		}
	})
}

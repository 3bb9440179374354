package testutil_test

import (
	"context"
	"testing"

	"sofia/internal/ai"
	"sofia/internal/errors"
	"sofia/internal/models"
	"sofia/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)

	var count int64
	if err := db.Model(&models.UserRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("user_records should exist after migration: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty table, got %d rows", count)
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	a := testutil.SetupTestDB(t)
	b := testutil.SetupTestDB(t)

	if err := a.Create(&models.UserRecord{Namespace: "u1", Kind: "profile", Payload: "{}"}).Error; err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	var count int64
	b.Model(&models.UserRecord{}).Count(&count)
	if count != 0 {
		t.Errorf("expected second database to be empty, got %d rows", count)
	}
}

func TestStubCompleter(t *testing.T) {
	stub := testutil.NewStubCompleter().
		On("hola", "¡Hola!").
		Fail("rompe", errors.ErrAIRequestFailed)

	t.Run("matching_rule", func(t *testing.T) {
		got, err := stub.Complete(context.Background(), ai.Request{Prompt: "di hola"})
		testutil.AssertNoError(t, err)
		if got != "¡Hola!" {
			t.Errorf("expected ¡Hola!, got %q", got)
		}
	})

	t.Run("failing_rule", func(t *testing.T) {
		_, err := stub.Complete(context.Background(), ai.Request{Prompt: "rompe todo"})
		testutil.AssertAppError(t, err, "AI_REQUEST_FAILED")
	})

	t.Run("unmatched_is_unavailable", func(t *testing.T) {
		_, err := stub.Complete(context.Background(), ai.Request{Prompt: "otra cosa"})
		testutil.AssertAppError(t, err, "AI_UNAVAILABLE")
	})

	if n := len(stub.Calls()); n != 3 {
		t.Errorf("expected 3 calls, got %d", n)
	}
}

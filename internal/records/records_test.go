package records_test

import (
	"context"
	"errors"
	"testing"

	"sofia/internal/records"
	"sofia/internal/testutil"
)

func backends(t *testing.T) map[string]records.Backend {
	return map[string]records.Backend{
		"memory": records.NewMemory(),
		"sql":    records.NewSQLBackend(testutil.SetupTestDB(t)),
	}
}

func TestBackends(t *testing.T) {
	ctx := context.Background()

	for name, b := range backends(t) {
		t.Run(name+"/missing", func(t *testing.T) {
			_, err := b.Load(ctx, "nobody", records.KindProfile)
			if !errors.Is(err, records.ErrRecordMissing) {
				t.Errorf("expected ErrRecordMissing, got %v", err)
			}
		})

		t.Run(name+"/save_and_overwrite", func(t *testing.T) {
			testutil.AssertNoError(t, b.Save(ctx, "ana", records.KindFinancial, []byte(`{"v":1}`)))
			testutil.AssertNoError(t, b.Save(ctx, "ana", records.KindFinancial, []byte(`{"v":2}`)))

			got, err := b.Load(ctx, "ana", records.KindFinancial)
			testutil.AssertNoError(t, err)
			if string(got) != `{"v":2}` {
				t.Errorf("expected overwritten payload, got %s", got)
			}
		})

		t.Run(name+"/kinds_are_separate", func(t *testing.T) {
			testutil.AssertNoError(t, b.Save(ctx, "luis", records.KindProfile, []byte(`{"p":true}`)))
			if _, err := b.Load(ctx, "luis", records.KindHistory); !errors.Is(err, records.ErrRecordMissing) {
				t.Errorf("expected history to be missing, got %v", err)
			}
		})

		t.Run(name+"/delete", func(t *testing.T) {
			testutil.AssertNoError(t, b.Save(ctx, "eva", records.KindAnalytics, []byte(`{}`)))
			testutil.AssertNoError(t, b.Delete(ctx, "eva", records.KindAnalytics))
			if _, err := b.Load(ctx, "eva", records.KindAnalytics); !errors.Is(err, records.ErrRecordMissing) {
				t.Errorf("expected record to be gone, got %v", err)
			}
		})
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := records.NewMemory()

	payload := []byte(`{"a":1}`)
	testutil.AssertNoError(t, m.Save(ctx, "u", records.KindProfile, payload))
	payload[2] = 'b'

	got, _ := m.Load(ctx, "u", records.KindProfile)
	if string(got) != `{"a":1}` {
		t.Errorf("expected stored payload to be unaffected, got %s", got)
	}
}

func TestObjectName(t *testing.T) {
	if got := records.ObjectName("users", "web_abc", records.KindHistory); got != "users/web_abc/history.json" {
		t.Errorf("expected users/web_abc/history.json, got %s", got)
	}
	if got := records.ObjectName("", "123", records.KindProfile); got != "123/profile.json" {
		t.Errorf("expected 123/profile.json, got %s", got)
	}
}

package app

import (
	"context"
	"strings"
	"testing"

	"sofia/internal/ai"
	"sofia/internal/config"
	"sofia/internal/records"
	"sofia/internal/services"
	"sofia/internal/testutil"
)

func testConfig() *config.Config {
	return &config.Config{
		AIProvider:       "none",
		StorageBackend:   "memory",
		HistoryRetention: 100,
		AIMaxTokens:      500,
	}
}

func inbound(userID, text string) services.InboundMessage {
	return services.InboundMessage{UserID: userID, Text: text, Platform: "test"}
}

func TestNew(t *testing.T) {
	t.Run("wires every service in local mode", func(t *testing.T) {
		a, err := New(context.Background(), testConfig(), Options{Clock: testutil.NewClock()})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer a.Close()

		stats := a.Registry.Stats()
		if stats.TotalServices != 7 {
			t.Errorf("expected 7 services, got %d: %v", stats.TotalServices, stats.Services)
		}
		if status := a.Assistant.Status(); status.Mode != "local" || status.AIConfigured {
			t.Errorf("expected local mode, got %+v", status)
		}
	})

	t.Run("assistant and ledger share the store", func(t *testing.T) {
		a, err := New(context.Background(), testConfig(), Options{
			Backend: records.NewMemory(),
			Clock:   testutil.NewClock(),
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		ctx := context.Background()

		reply := a.Assistant.HandleMessage(ctx, inbound("u1", "Gasté 50 en almuerzo"))
		if !strings.Contains(reply, "Registré") {
			t.Fatalf("expected confirmation, got %q", reply)
		}

		overview, err := a.Ledger.Summary(ctx, "u1")
		if err != nil {
			t.Fatalf("summary: %v", err)
		}
		if overview.Summary.TotalExpenses != 50 {
			t.Errorf("expected expenses 50, got %v", overview.Summary.TotalExpenses)
		}
	})

	t.Run("injected completer switches to ai mode", func(t *testing.T) {
		stub := testutil.NewStubCompleter()
		a, err := New(context.Background(), testConfig(), Options{Completer: stub})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if status := a.Assistant.Status(); status.Mode != "ai" {
			t.Errorf("expected ai mode, got %+v", status)
		}
	})

	t.Run("unknown backend fails", func(t *testing.T) {
		cfg := testConfig()
		cfg.StorageBackend = "floppy"

		if _, err := New(context.Background(), cfg, Options{}); err == nil {
			t.Error("expected error for unknown backend")
		}
	})

	t.Run("provider without key falls back to local", func(t *testing.T) {
		cfg := testConfig()
		cfg.AIProvider = "gemini"
		cfg.GeminiAPIKey = ""

		a, err := New(context.Background(), cfg, Options{})
		if err != nil {
			t.Fatalf("expected local fallback, got %v", err)
		}
		if _, ok := a.Registry.Get(ServiceAI).(ai.Disabled); !ok {
			t.Errorf("expected disabled completer, got %T", a.Registry.Get(ServiceAI))
		}
	})
}

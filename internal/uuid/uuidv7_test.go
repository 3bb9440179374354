package uuid

import (
	"testing"
	"time"

	googleuuid "github.com/google/uuid"
)

func TestNewAt(t *testing.T) {
	t.Run("version_and_variant", func(t *testing.T) {
		id := New()
		parsed, err := googleuuid.Parse(id)
		if err != nil {
			t.Fatalf("expected valid uuid, got %v", err)
		}
		if parsed.Version() != 7 {
			t.Errorf("expected version 7, got %d", parsed.Version())
		}
		if parsed.Variant() != googleuuid.RFC4122 {
			t.Errorf("expected RFC4122 variant, got %v", parsed.Variant())
		}
	})

	t.Run("embeds_timestamp", func(t *testing.T) {
		at := time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
		got, err := Time(NewAt(at))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !got.Equal(at) {
			t.Errorf("expected %s, got %s", at, got.UTC())
		}
	})

	t.Run("ordered_by_time", func(t *testing.T) {
		base := time.Now()
		a := NewAt(base)
		b := NewAt(base.Add(time.Millisecond))
		if a >= b {
			t.Errorf("expected %s < %s", a, b)
		}
	})

	t.Run("unique", func(t *testing.T) {
		at := time.Now()
		seen := make(map[string]bool)
		for i := 0; i < 1000; i++ {
			id := NewAt(at)
			if seen[id] {
				t.Fatalf("duplicate id %s", id)
			}
			seen[id] = true
		}
	})
}

func TestTime(t *testing.T) {
	t.Run("rejects_v4", func(t *testing.T) {
		if _, err := Time(googleuuid.New().String()); err == nil {
			t.Error("expected error for v4 uuid")
		}
	})
	t.Run("rejects_garbage", func(t *testing.T) {
		if IsValid("not-a-uuid") {
			t.Error("expected invalid")
		}
		if _, err := Time("not-a-uuid"); err == nil {
			t.Error("expected parse error")
		}
	})
}

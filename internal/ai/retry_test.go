package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"sofia/internal/clock"
	apperrors "sofia/internal/errors"
)

var noDelay = RetryConfig{MaxRetries: 2, BackoffFactor: 2}

func TestWithRetry(t *testing.T) {
	clk := clock.Fake(time.Now())

	t.Run("retries_transient_then_succeeds", func(t *testing.T) {
		calls := 0
		got, err := WithRetry(context.Background(), clk, noDelay, func(ctx context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", &RequestError{Provider: "test", Status: 503, Retryable: true, Err: errors.New("busy")}
			}
			return "ok", nil
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != "ok" || calls != 3 {
			t.Errorf("expected ok after 3 calls, got %q after %d", got, calls)
		}
	})

	t.Run("stops_on_non_retryable", func(t *testing.T) {
		calls := 0
		_, err := WithRetry(context.Background(), clk, noDelay, func(ctx context.Context) (int, error) {
			calls++
			return 0, &RequestError{Provider: "test", Status: 400, Err: errors.New("bad")}
		})
		if err == nil || calls != 1 {
			t.Errorf("expected single failing call, got %d calls err=%v", calls, err)
		}
	})

	t.Run("unavailable_not_retried", func(t *testing.T) {
		calls := 0
		_, err := WithRetry(context.Background(), clk, noDelay, func(ctx context.Context) (int, error) {
			calls++
			return 0, apperrors.ErrAIUnavailable
		})
		if !IsUnavailable(err) || calls != 1 {
			t.Errorf("expected unavailable after 1 call, got %d calls err=%v", calls, err)
		}
	})

	t.Run("exhausts_retries", func(t *testing.T) {
		calls := 0
		_, err := WithRetry(context.Background(), clk, noDelay, func(ctx context.Context) (int, error) {
			calls++
			return 0, &RequestError{Provider: "test", Retryable: true, Err: errors.New("down")}
		})
		if err == nil || calls != 3 {
			t.Errorf("expected 3 calls and an error, got %d calls err=%v", calls, err)
		}
	})

	t.Run("waits_on_clock", func(t *testing.T) {
		fake := clock.Fake(time.Now())
		cfg := RetryConfig{MaxRetries: 1, InitialDelay: time.Second, BackoffFactor: 2}
		done := make(chan error, 1)
		go func() {
			_, err := WithRetry(context.Background(), fake, cfg, func(ctx context.Context) (int, error) {
				return 0, &RequestError{Provider: "test", Retryable: true, Err: errors.New("down")}
			})
			done <- err
		}()

		deadline := time.Now().Add(2 * time.Second)
		for fake.Waiters() == 0 {
			if time.Now().After(deadline) {
				t.Fatal("retry never waited on the clock")
			}
			time.Sleep(time.Millisecond)
		}
		fake.Advance(time.Second)

		select {
		case err := <-done:
			if err == nil {
				t.Error("expected error after retries")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("retry did not resume after clock advance")
		}
	})

	t.Run("context_cancelled_while_waiting", func(t *testing.T) {
		fake := clock.Fake(time.Now())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		cfg := RetryConfig{MaxRetries: 3, InitialDelay: time.Hour, BackoffFactor: 2}
		_, err := WithRetry(ctx, fake, cfg, func(ctx context.Context) (int, error) {
			return 0, &RequestError{Provider: "test", Retryable: true, Err: errors.New("down")}
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestResilient(t *testing.T) {
	clk := clock.Fake(time.Now())

	t.Run("wraps_final_failure", func(t *testing.T) {
		inner := CompleterFunc(func(ctx context.Context, req Request) (string, error) {
			return "", &RequestError{Provider: "test", Retryable: true, Err: errors.New("down")}
		})
		r := NewResilient(inner, clk, time.Second, noDelay)
		_, err := r.Complete(context.Background(), Request{Prompt: "x"})
		if apperrors.CodeOf(err) != apperrors.ErrAIRequestFailed.Code {
			t.Errorf("expected AI_REQUEST_FAILED, got %v", err)
		}
	})

	t.Run("passes_unavailable_through", func(t *testing.T) {
		r := NewResilient(Disabled{}, clk, time.Second, noDelay)
		_, err := r.Complete(context.Background(), Request{Prompt: "x"})
		if !IsUnavailable(err) {
			t.Errorf("expected AI_UNAVAILABLE, got %v", err)
		}
	})

	t.Run("applies_timeout", func(t *testing.T) {
		inner := CompleterFunc(func(ctx context.Context, req Request) (string, error) {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("expected a deadline on the attempt context")
			}
			return "ok", nil
		})
		r := NewResilient(inner, clk, 20*time.Second, noDelay)
		if got, err := r.Complete(context.Background(), Request{}); err != nil || got != "ok" {
			t.Errorf("expected ok, got %q err=%v", got, err)
		}
	})
}

package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"sofia/internal/ai"
	"sofia/internal/clock"
	apperrors "sofia/internal/errors"
)

// Epoch is the start time of clocks returned by NewClock.
var Epoch = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

// NewClock returns a fake clock set to Epoch.
func NewClock() *clock.FakeClock {
	return clock.Fake(Epoch)
}

type rule struct {
	contains string
	reply    string
	err      error
}

// StubCompleter is a scripted ai.Completer. Replies are chosen by the first
// rule whose substring appears in the prompt. Unmatched prompts fail with
// AI_UNAVAILABLE so callers take their fallback path.
type StubCompleter struct {
	mu    sync.Mutex
	rules []rule
	calls []ai.Request
}

var _ ai.Completer = (*StubCompleter)(nil)

// NewStubCompleter returns a StubCompleter with no rules.
func NewStubCompleter() *StubCompleter {
	return &StubCompleter{}
}

// On replies with reply to prompts containing substr.
func (s *StubCompleter) On(substr, reply string) *StubCompleter {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, rule{contains: substr, reply: reply})
	return s
}

// Fail returns err for prompts containing substr.
func (s *StubCompleter) Fail(substr string, err error) *StubCompleter {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, rule{contains: substr, err: err})
	return s
}

// Complete implements ai.Completer.
func (s *StubCompleter) Complete(_ context.Context, req ai.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	for _, r := range s.rules {
		if strings.Contains(req.Prompt, r.contains) {
			return r.reply, r.err
		}
	}
	return "", apperrors.ErrAIUnavailable
}

// Calls returns the requests received so far.
func (s *StubCompleter) Calls() []ai.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ai.Request(nil), s.calls...)
}

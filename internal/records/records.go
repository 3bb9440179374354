// Package records persists serialized per-user records. A record is
// addressed by a user namespace and a kind; payloads are opaque JSON.
package records

import (
	"context"
	"errors"
	"sync"
)

// Kind identifies one of the per-user records.
type Kind string

const (
	KindProfile   Kind = "profile"
	KindFinancial Kind = "financial"
	KindHistory   Kind = "history"
	KindAnalytics Kind = "analytics"
)

// ErrRecordMissing is returned by Load when no record exists yet.
var ErrRecordMissing = errors.New("record missing")

// Backend stores whole records. Save overwrites.
type Backend interface {
	Load(ctx context.Context, namespace string, kind Kind) ([]byte, error)
	Save(ctx context.Context, namespace string, kind Kind, payload []byte) error
	Delete(ctx context.Context, namespace string, kind Kind) error
}

// Memory is a process-local Backend used by the console chat and tests.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func memKey(namespace string, kind Kind) string {
	return namespace + "/" + string(kind)
}

func (m *Memory) Load(_ context.Context, namespace string, kind Kind) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.data[memKey(namespace, kind)]
	if !ok {
		return nil, ErrRecordMissing
	}
	return append([]byte(nil), p...), nil
}

func (m *Memory) Save(_ context.Context, namespace string, kind Kind, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[memKey(namespace, kind)] = append([]byte(nil), payload...)
	return nil
}

func (m *Memory) Delete(_ context.Context, namespace string, kind Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, memKey(namespace, kind))
	return nil
}

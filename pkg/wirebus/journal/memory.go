package journal

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMemoryLimit is the per-kind record cap of a Memory journal.
const DefaultMemoryLimit = 256

// Memory is a bounded in-memory journal. When a kind reaches its cap the
// oldest records fall off. It is the default journal of a node: cheap,
// no setup, diagnostics lost on exit.
type Memory struct {
	mu     sync.RWMutex
	limit  int
	emits  []EmitRecord
	syncs  []SyncRecord
	closed bool
}

// NewMemory creates a memory journal keeping up to limit records per kind
// (DefaultMemoryLimit when limit <= 0).
func NewMemory(limit int) *Memory {
	if limit <= 0 {
		limit = DefaultMemoryLimit
	}
	return &Memory{limit: limit}
}

// RecordEmit implements Journal.
func (m *Memory) RecordEmit(rec EmitRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	rec = stampEmit(rec)
	m.emits = append(m.emits, rec)
	if len(m.emits) > m.limit {
		m.emits = m.emits[len(m.emits)-m.limit:]
	}
	return nil
}

// RecordSync implements Journal.
func (m *Memory) RecordSync(rec SyncRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	rec = stampSync(rec)
	m.syncs = append(m.syncs, rec)
	if len(m.syncs) > m.limit {
		m.syncs = m.syncs[len(m.syncs)-m.limit:]
	}
	return nil
}

// Emits implements Journal.
func (m *Memory) Emits(limit int) ([]EmitRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	if limit <= 0 || limit > len(m.emits) {
		limit = len(m.emits)
	}

	out := make([]EmitRecord, 0, limit)
	for i := len(m.emits) - 1; i >= len(m.emits)-limit; i-- {
		out = append(out, m.emits[i])
	}
	return out, nil
}

// Syncs implements Journal.
func (m *Memory) Syncs(limit int) ([]SyncRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	if limit <= 0 || limit > len(m.syncs) {
		limit = len(m.syncs)
	}

	out := make([]SyncRecord, 0, limit)
	for i := len(m.syncs) - 1; i >= len(m.syncs)-limit; i-- {
		rec := m.syncs[i]
		rec.Peers = append([]string(nil), rec.Peers...)
		out = append(out, rec)
	}
	return out, nil
}

// Close implements Journal. Closing twice is safe.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func stampEmit(rec EmitRecord) EmitRecord {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}
	return rec
}

func stampSync(rec SyncRecord) SyncRecord {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}
	rec.Peers = append([]string(nil), rec.Peers...)
	return rec
}

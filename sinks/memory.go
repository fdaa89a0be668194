package sinks

import (
	"sync"

	"github.com/tarungka/sift/stream"
)

// MemorySink buffers everything it receives. It backs the query tests and
// ad-hoc harnesses where the emitted records are inspected rather than
// shipped anywhere.
type MemorySink struct {
	mu       sync.Mutex
	accepted []stream.Record
	flushes  []stream.Record
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Accept(r stream.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accepted = append(m.accepted, r.Clone())
	return nil
}

func (m *MemorySink) Flush(ctx stream.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushes = append(m.flushes, ctx.Clone())
	return nil
}

// Records returns the accepted records in arrival order.
func (m *MemorySink) Records() []stream.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]stream.Record, len(m.accepted))
	copy(out, m.accepted)
	return out
}

// Flushes returns the flush contexts in arrival order.
func (m *MemorySink) Flushes() []stream.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]stream.Record, len(m.flushes))
	copy(out, m.flushes)
	return out
}

func (m *MemorySink) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accepted = nil
	m.flushes = nil
}

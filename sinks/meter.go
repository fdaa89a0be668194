package sinks

import (
	"fmt"
	"io"
	"sync"

	"github.com/tarungka/sift/stream"
)

// MeterSink measures throughput per window: it counts accepted records and,
// at every flush, emits one "epoch,label,tuples" line and restarts the
// count. Handy for checking how much a query reduces its input.
type MeterSink struct {
	label  string
	w      io.Writer
	epochs int64
	tuples int64
	mu     sync.Mutex
}

func NewMeterSink(label string, w io.Writer) *MeterSink {
	return &MeterSink{label: label, w: w}
}

func (m *MeterSink) Accept(stream.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tuples++
	return nil
}

func (m *MeterSink) Flush(stream.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := fmt.Fprintf(m.w, "%d,%s,%d\n", m.epochs, m.label, m.tuples); err != nil {
		return err
	}
	m.epochs++
	m.tuples = 0
	return nil
}

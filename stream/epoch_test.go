package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEpochStampsAndAdvances(t *testing.T) {
	sink := &capture{}
	op := NewEpoch(1.0, "time", "eid", sink)

	// 20 records inside the first window.
	for i := 0; i < 20; i++ {
		require.NoError(t, op.Accept(testPacket(float64(i)*0.05, "10.0.0.1", "10.0.0.2", 6, 2)))
	}
	assert.Empty(t, sink.flushed(), "no window has elapsed yet")
	require.Len(t, sink.accepted(), 20)
	for _, r := range sink.accepted() {
		assert.Equal(t, IntValue(0), r["eid"])
	}

	// The 21st record crosses the boundary: exactly one flush for epoch 0
	// before it is forwarded, and it is stamped with epoch 1.
	require.NoError(t, op.Accept(testPacket(1.0, "10.0.0.1", "10.0.0.2", 6, 2)))

	flushes := sink.flushed()
	require.Len(t, flushes, 1)
	assert.Equal(t, Record{"eid": IntValue(0)}, flushes[0])

	last := sink.accepted()[20]
	assert.Equal(t, IntValue(1), last["eid"])

	// The flush must have been delivered before the 21st record.
	assert.True(t, sink.events[20].flush, "flush precedes the record that crossed the boundary")
}

func TestEpochMonotonicity(t *testing.T) {
	// Before the k-th emitted eid equals k, the downstream has seen
	// exactly k flushes.
	sink := &capture{}
	op := NewEpoch(1.0, "time", "eid", sink)

	for i := 0; i < 50; i++ {
		require.NoError(t, op.Accept(testPacket(float64(i)*0.3, "10.0.0.1", "10.0.0.2", 6, 0)))
	}

	flushesSeen := 0
	for _, e := range sink.events {
		if e.flush {
			flushesSeen++
			continue
		}
		eid, err := e.rec.Int("eid")
		require.NoError(t, err)
		assert.Equal(t, int64(flushesSeen), eid)
	}
}

func TestEpochSparseInputFlushesEveryElapsedWindow(t *testing.T) {
	sink := &capture{}
	op := NewEpoch(1.0, "time", "eid", sink)

	require.NoError(t, op.Accept(testPacket(0.0, "10.0.0.1", "10.0.0.2", 6, 0)))
	// Jump five windows in one record: one flush per elapsed window.
	require.NoError(t, op.Accept(testPacket(5.5, "10.0.0.1", "10.0.0.2", 6, 0)))

	flushes := sink.flushed()
	require.Len(t, flushes, 5)
	for i, f := range flushes {
		assert.Equal(t, Record{"eid": IntValue(int64(i))}, f)
	}
	assert.Equal(t, IntValue(5), sink.accepted()[1]["eid"])
}

func TestEpochForcedFlushResets(t *testing.T) {
	sink := &capture{}
	op := NewEpoch(1.0, "time", "eid", sink)

	require.NoError(t, op.Accept(testPacket(3.7, "10.0.0.1", "10.0.0.2", 6, 0)))
	require.NoError(t, op.Flush(Record{}))

	flushes := sink.flushed()
	require.Len(t, flushes, 1)
	assert.Equal(t, Record{"eid": IntValue(0)}, flushes[0])

	// After the forced close the operator is back in its initial state:
	// the next record re-initializes the boundary lazily and is epoch 0
	// even though its time is far from the previous stream's.
	sink.reset()
	require.NoError(t, op.Accept(testPacket(100.0, "10.0.0.1", "10.0.0.2", 6, 0)))
	assert.Empty(t, sink.flushed())
	assert.Equal(t, IntValue(0), sink.accepted()[0]["eid"])
}

func TestEpochRejectsTimeRegression(t *testing.T) {
	sink := &capture{}
	op := NewEpoch(1.0, "time", "eid", sink)

	require.NoError(t, op.Accept(testPacket(2.0, "10.0.0.1", "10.0.0.2", 6, 0)))
	err := op.Accept(testPacket(1.0, "10.0.0.1", "10.0.0.2", 6, 0))

	var regression *EpochRegressionError
	require.ErrorAs(t, err, &regression)
	assert.Equal(t, "time", regression.Field)
}

func TestEpochRequiresFloatTime(t *testing.T) {
	sink := &capture{}
	op := NewEpoch(1.0, "time", "eid", sink)

	err := op.Accept(Record{"ipv4.src": MustIPv4("10.0.0.1")})
	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)

	err = op.Accept(Record{"time": IntValue(3)})
	var mismatch *TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Empty(t, sink.events, "malformed records must not reach downstream")
}

package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistinctIdempotence(t *testing.T) {
	sink := &capture{}
	op := NewDistinct(ProjectOnly("ipv4.src", "l4.dport"), sink)

	// The same record M times yields exactly one emitted key at flush.
	pkt := testPacket(0, "10.0.0.1", "10.0.0.2", 6, 2)
	for i := 0; i < 8; i++ {
		require.NoError(t, op.Accept(pkt))
	}
	require.NoError(t, op.Flush(Singleton("eid", IntValue(0))))

	require.Len(t, sink.accepted(), 1)
	require.Len(t, sink.flushed(), 1)

	// State cleared: the same key after a flush is distinct again.
	sink.reset()
	require.NoError(t, op.Accept(pkt))
	require.NoError(t, op.Flush(Singleton("eid", IntValue(1))))
	require.Len(t, sink.accepted(), 1)
}

func TestDistinctSeparatesKeys(t *testing.T) {
	sink := &capture{}
	op := NewDistinct(ProjectOnly("ipv4.src"), sink)

	require.NoError(t, op.Accept(testPacket(0, "10.0.0.1", "10.0.0.2", 6, 2)))
	require.NoError(t, op.Accept(testPacket(0, "10.0.0.2", "10.0.0.2", 6, 2)))
	require.NoError(t, op.Accept(testPacket(0, "10.0.0.1", "10.0.0.3", 6, 2)))
	require.NoError(t, op.Flush(Record{}))

	accepted := sink.accepted()
	require.Len(t, accepted, 2)

	srcs := map[string]bool{}
	for _, r := range accepted {
		srcs[r["ipv4.src"].String()] = true
		assert.Len(t, r, 1, "emitted records carry only the projected key and context")
	}
	assert.True(t, srcs["10.0.0.1"])
	assert.True(t, srcs["10.0.0.2"])
}

func TestDistinctMergesContext(t *testing.T) {
	sink := &capture{}
	op := NewDistinct(ProjectOnly("ipv4.src"), sink)

	require.NoError(t, op.Accept(testPacket(0, "10.0.0.1", "10.0.0.2", 6, 2)))
	require.NoError(t, op.Flush(Singleton("eid", IntValue(4))))

	accepted := sink.accepted()
	require.Len(t, accepted, 1)
	assert.Equal(t, IntValue(4), accepted[0]["eid"])
	assert.Equal(t, MustIPv4("10.0.0.1"), accepted[0]["ipv4.src"])
}

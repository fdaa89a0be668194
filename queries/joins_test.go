package queries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tarungka/sift/sinks"
	"github.com/tarungka/sift/stream"
)

// windowCloser is a packet none of the TCP filters keep; pushing it past the
// window boundary forces every branch's epoch operator to flush.
func windowCloser(time float64) pkt {
	return pkt{time: time, src: "10.9.9.9", dst: "10.9.9.10", proto: 17, flags: 0, length: 28, sport: 53, dport: 53}
}

func TestSynFloodSonata(t *testing.T) {
	sink := sinks.NewMemorySink()
	head := stream.Fanout(SynFloodSonata(sink)...)

	victim := "192.168.1.1"
	var packets []pkt
	// 5 half-open attempts against the victim, 3 answered, 1 completed.
	for i := 0; i < 5; i++ {
		packets = append(packets, pkt{time: 0.1, src: "10.0.0.1", dst: victim, proto: 6, flags: 2, length: 60, sport: 1000 + int64(i), dport: 80})
	}
	for i := 0; i < 3; i++ {
		packets = append(packets, pkt{time: 0.2, src: victim, dst: "10.0.0.1", proto: 6, flags: 18, length: 60, sport: 80, dport: 1000 + int64(i)})
	}
	packets = append(packets, pkt{time: 0.3, src: "10.0.0.1", dst: victim, proto: 6, flags: 16, length: 52, sport: 1000, dport: 80})
	packets = append(packets, windowCloser(1.5))

	feed(t, head, packets)

	records := sink.Records()
	require.Len(t, records, 1)
	assert.Equal(t, stream.MustIPv4(victim), records[0]["host"])
	assert.Equal(t, stream.IntValue(8), records[0]["syns+synacks"])
	assert.Equal(t, stream.IntValue(1), records[0]["acks"])
	assert.Equal(t, stream.IntValue(7), records[0]["syns+synacks-acks"])
	assert.Equal(t, stream.IntValue(0), records[0]["eid"])
}

func TestCompletedFlows(t *testing.T) {
	sink := sinks.NewMemorySink()
	head := stream.Fanout(CompletedFlows(sink)...)

	host := "192.168.1.1"
	var packets []pkt
	// 3 connections opened towards the host, only 1 closed by it.
	for i := 0; i < 3; i++ {
		packets = append(packets, pkt{time: 1.0, src: "10.0.0.1", dst: host, proto: 6, flags: 2, length: 60, sport: 1000 + int64(i), dport: 80})
	}
	packets = append(packets, pkt{time: 2.0, src: host, dst: "10.0.0.1", proto: 6, flags: 1, length: 52, sport: 80, dport: 1000})
	packets = append(packets, windowCloser(31.0))

	feed(t, head, packets)

	records := sink.Records()
	require.Len(t, records, 1)
	assert.Equal(t, stream.MustIPv4(host), records[0]["host"])
	assert.Equal(t, stream.IntValue(3), records[0]["syns"])
	assert.Equal(t, stream.IntValue(1), records[0]["fins"])
	assert.Equal(t, stream.IntValue(2), records[0]["diff"])
}

func TestSlowloris(t *testing.T) {
	sink := sinks.NewMemorySink()
	head := stream.Fanout(Slowloris(sink)...)

	victim := "192.168.1.1"
	bulk := "192.168.1.2"
	var packets []pkt
	// 9 starved connections to the victim, 60 bytes each: 540 total bytes
	// over 9 connections is 60 bytes per connection.
	for i := 0; i < 9; i++ {
		packets = append(packets, pkt{time: 0.1, src: "10.0.0.1", dst: victim, proto: 6, flags: 16, length: 60, sport: 5000 + int64(i), dport: 80})
	}
	// A busy but healthy host: few connections, plenty of bytes each.
	for i := 0; i < 2; i++ {
		packets = append(packets, pkt{time: 0.2, src: "10.0.0.2", dst: bulk, proto: 6, flags: 16, length: 1400, sport: 6000 + int64(i), dport: 443})
	}
	packets = append(packets, windowCloser(1.5))

	feed(t, head, packets)

	records := sink.Records()
	require.Len(t, records, 1)
	assert.Equal(t, stream.MustIPv4(victim), records[0]["ipv4.dst"])
	assert.Equal(t, stream.IntValue(9), records[0]["n_conns"])
	assert.Equal(t, stream.IntValue(540), records[0]["n_bytes"])
	assert.Equal(t, stream.IntValue(60), records[0]["bytes_per_conn"])
}

package queries

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tarungka/sift/sinks"
	"github.com/tarungka/sift/stream"
)

type pkt struct {
	time   float64
	src    string
	dst    string
	proto  int64
	flags  int64
	length int64
	sport  int64
	dport  int64
}

func (p pkt) record() stream.Record {
	return stream.Record{
		"time":       stream.FloatValue(p.time),
		"ipv4.src":   stream.MustIPv4(p.src),
		"ipv4.dst":   stream.MustIPv4(p.dst),
		"ipv4.proto": stream.IntValue(p.proto),
		"ipv4.len":   stream.IntValue(p.length),
		"l4.sport":   stream.IntValue(p.sport),
		"l4.dport":   stream.IntValue(p.dport),
		"l4.flags":   stream.IntValue(p.flags),
	}
}

func feed(t *testing.T, head stream.Operator, packets []pkt) {
	t.Helper()
	for _, p := range packets {
		require.NoError(t, head.Accept(p.record()))
	}
}

func TestCountPktsWindowing(t *testing.T) {
	// 20 records inside epoch 0, then one at the window boundary: exactly
	// one aggregate and one flush for epoch 0 must come out before the
	// 21st record lands in epoch 1.
	sink := sinks.NewMemorySink()
	head := CountPkts(sink)

	var packets []pkt
	for i := 0; i < 20; i++ {
		packets = append(packets, pkt{time: float64(i) * 0.05, src: "10.0.0.1", dst: "10.0.0.2", proto: 6, flags: 2, length: 60, sport: 1000, dport: 80})
	}
	feed(t, head, packets)
	assert.Empty(t, sink.Records(), "window still open")

	feed(t, head, []pkt{{time: 1.0, src: "10.0.0.1", dst: "10.0.0.2", proto: 6, flags: 2, length: 60, sport: 1000, dport: 80}})

	records := sink.Records()
	require.Len(t, records, 1)
	assert.Equal(t, stream.IntValue(20), records[0]["pkts"])
	assert.Equal(t, stream.IntValue(0), records[0]["eid"])

	flushes := sink.Flushes()
	require.Len(t, flushes, 1)
	assert.Equal(t, stream.IntValue(0), flushes[0]["eid"])

	// Closing the stream drains the second window: the 21st record alone.
	require.NoError(t, head.Flush(stream.Record{}))
	records = sink.Records()
	require.Len(t, records, 2)
	assert.Equal(t, stream.IntValue(1), records[1]["pkts"])
	assert.Equal(t, stream.IntValue(1), records[1]["eid"])
}

func TestTCPNewConsThreshold(t *testing.T) {
	sink := sinks.NewMemorySink()
	head := TCPNewCons(sink)

	var packets []pkt
	// 45 SYNs to the victim, 10 to a quiet host, plus non-SYN noise.
	for i := 0; i < 45; i++ {
		packets = append(packets, pkt{time: 0.01 * float64(i), src: fmt.Sprintf("10.0.%d.%d", i/250, i%250+1), dst: "192.168.1.1", proto: 6, flags: 2, length: 60, sport: 1000 + int64(i), dport: 80})
	}
	for i := 0; i < 10; i++ {
		packets = append(packets, pkt{time: 0.5, src: "10.0.0.1", dst: "192.168.1.2", proto: 6, flags: 2, length: 60, sport: 2000 + int64(i), dport: 80})
	}
	packets = append(packets, pkt{time: 0.6, src: "10.0.0.1", dst: "192.168.1.1", proto: 6, flags: 16, length: 60, sport: 1000, dport: 80})

	feed(t, head, packets)
	require.NoError(t, head.Flush(stream.Record{}))

	records := sink.Records()
	require.Len(t, records, 1, "only the flooded destination crosses the threshold")
	assert.Equal(t, stream.MustIPv4("192.168.1.1"), records[0]["ipv4.dst"])
	assert.Equal(t, stream.IntValue(45), records[0]["cons"])
}

func TestPortScanCountsDistinctPorts(t *testing.T) {
	sink := sinks.NewMemorySink()
	head := PortScan(sink)

	var packets []pkt
	// The scanner touches 50 distinct ports, each probed twice — dedup
	// must count 50, not 100.
	for i := 0; i < 50; i++ {
		for j := 0; j < 2; j++ {
			packets = append(packets, pkt{time: 0.01, src: "10.0.0.66", dst: "192.168.1.1", proto: 6, flags: 2, length: 60, sport: 4000, dport: int64(i)})
		}
	}
	// Normal client on a single port.
	packets = append(packets, pkt{time: 0.02, src: "10.0.0.1", dst: "192.168.1.1", proto: 6, flags: 2, length: 60, sport: 4001, dport: 443})

	feed(t, head, packets)
	require.NoError(t, head.Flush(stream.Record{}))

	records := sink.Records()
	require.Len(t, records, 1)
	assert.Equal(t, stream.MustIPv4("10.0.0.66"), records[0]["ipv4.src"])
	assert.Equal(t, stream.IntValue(50), records[0]["ports"])
}

func TestDistinctSrcs(t *testing.T) {
	sink := sinks.NewMemorySink()
	head := DistinctSrcs(sink)

	feed(t, head, []pkt{
		{time: 0.1, src: "10.0.0.1", dst: "192.168.1.1", proto: 6, flags: 2, length: 60, sport: 1, dport: 80},
		{time: 0.2, src: "10.0.0.1", dst: "192.168.1.2", proto: 6, flags: 2, length: 60, sport: 2, dport: 80},
		{time: 0.3, src: "10.0.0.2", dst: "192.168.1.1", proto: 6, flags: 2, length: 60, sport: 3, dport: 80},
	})
	require.NoError(t, head.Flush(stream.Record{}))

	records := sink.Records()
	require.Len(t, records, 1)
	assert.Equal(t, stream.IntValue(2), records[0]["srcs"])
}

func TestIdentStripsEthernetFields(t *testing.T) {
	sink := sinks.NewMemorySink()
	head := Ident(sink)

	rec := pkt{time: 0, src: "10.0.0.1", dst: "10.0.0.2", proto: 6, flags: 2, length: 60, sport: 1, dport: 2}.record()
	rec["eth.src"] = stream.MACValue([6]byte{0, 1, 2, 3, 4, 5})
	rec["eth.dst"] = stream.MACValue([6]byte{5, 4, 3, 2, 1, 0})

	require.NoError(t, head.Accept(rec))

	records := sink.Records()
	require.Len(t, records, 1)
	assert.NotContains(t, records[0], "eth.src")
	assert.NotContains(t, records[0], "eth.dst")
	assert.Contains(t, records[0], "ipv4.src")
}

func TestBuildRegistry(t *testing.T) {
	sink := sinks.NewMemorySink()

	for _, name := range Names() {
		heads, err := Build(name, sink)
		require.NoError(t, err, name)
		assert.NotEmpty(t, heads, name)
	}

	heads, err := Build("syn_flood_sonata", sink)
	require.NoError(t, err)
	assert.Len(t, heads, 3)

	_, err = Build("no_such_query", sink)
	require.Error(t, err)
}

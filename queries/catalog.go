// Package queries holds the detection catalog: each query is a composition
// of the core stream operators, built back-to-front onto a caller-supplied
// sink. Multi-branch queries (the join-based ones) return several entry
// operators; the input stream must be fanned out to all of them.
package queries

import (
	"fmt"
	"sort"

	"github.com/tarungka/sift/stream"
)

const (
	timeField = "time"
	eidField  = stream.DefaultEpochField
)

// Builder constructs a query's pipeline(s) onto next and returns the entry
// operators the input stream must be pushed into.
type Builder func(next stream.Operator) []stream.Operator

var registry = map[string]Builder{
	"ident":            single(Ident),
	"count_pkts":       single(CountPkts),
	"pkts_per_src_dst": single(PktsPerSrcDst),
	"distinct_srcs":    single(DistinctSrcs),
	"tcp_new_cons":     single(TCPNewCons),
	"ssh_brute_force":  single(SSHBruteForce),
	"super_spreader":   single(SuperSpreader),
	"port_scan":        single(PortScan),
	"ddos":             single(DDoS),
	"syn_flood_sonata": SynFloodSonata,
	"completed_flows":  CompletedFlows,
	"slowloris":        Slowloris,
	"q3":               single(Q3),
	"q4":               single(Q4),
}

// Build looks a query up by name and assembles it onto sink.
func Build(name string, sink stream.Operator) ([]stream.Operator, error) {
	builder, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown query: %s", name)
	}
	return builder(sink), nil
}

// Names lists the registered queries, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func single(f func(stream.Operator) stream.Operator) Builder {
	return func(next stream.Operator) []stream.Operator {
		return []stream.Operator{f(next)}
	}
}

// Ident strips the ethernet columns and forwards everything else.
func Ident(next stream.Operator) stream.Operator {
	return stream.NewMap(func(r stream.Record) (stream.Record, error) {
		return r.ProjectOut("eth.src", "eth.dst"), nil
	}, next)
}

// CountPkts counts all packets per 1s window.
func CountPkts(next stream.Operator) stream.Operator {
	return stream.Chain(next,
		epoch(1.0),
		groupBy(stream.SingleGroup, stream.Count(), "pkts"),
	)
}

// PktsPerSrcDst counts packets per (src, dst) pair per 1s window.
func PktsPerSrcDst(next stream.Operator) stream.Operator {
	return stream.Chain(next,
		epoch(1.0),
		groupBy(stream.ProjectOnly("ipv4.src", "ipv4.dst"), stream.Count(), "pkts"),
	)
}

// DistinctSrcs counts distinct source addresses per 1s window.
func DistinctSrcs(next stream.Operator) stream.Operator {
	return stream.Chain(next,
		epoch(1.0),
		distinct(stream.ProjectOnly("ipv4.src")),
		groupBy(stream.SingleGroup, stream.Count(), "srcs"),
	)
}

// TCPNewCons flags destinations receiving an excessive number of fresh SYNs
// (new connection attempts) in a window.
func TCPNewCons(next stream.Operator) stream.Operator {
	const threshold = 40
	return stream.Chain(next,
		epoch(1.0),
		filterProtoFlags(6, 2), // TCP SYN
		groupBy(stream.ProjectOnly("ipv4.dst"), stream.Count(), "cons"),
		filter(stream.KeyGeqInt("cons", threshold)),
	)
}

// SSHBruteForce flags (src, dst) pairs hammering port 22 with many
// same-length packets in a window.
func SSHBruteForce(next stream.Operator) stream.Operator {
	const threshold = 40
	return stream.Chain(next,
		epoch(1.0),
		filterProto(6),
		filter(stream.KeyEqInt("l4.dport", 22)),
		groupBy(stream.ProjectOnly("ipv4.src", "ipv4.dst", "ipv4.len"), stream.Count(), "srcs"),
		filter(stream.KeyGeqInt("srcs", threshold)),
	)
}

// SuperSpreader flags sources contacting an excessive number of distinct
// destinations in a window.
func SuperSpreader(next stream.Operator) stream.Operator {
	const threshold = 40
	return stream.Chain(next,
		epoch(1.0),
		distinct(stream.ProjectOnly("ipv4.src", "ipv4.dst")),
		groupBy(stream.ProjectOnly("ipv4.src"), stream.Count(), "dsts"),
		filter(stream.KeyGeqInt("dsts", threshold)),
	)
}

// PortScan flags sources probing an excessive number of distinct
// destination ports in a window.
func PortScan(next stream.Operator) stream.Operator {
	const threshold = 40
	return stream.Chain(next,
		epoch(1.0),
		distinct(stream.ProjectOnly("ipv4.src", "l4.dport")),
		groupBy(stream.ProjectOnly("ipv4.src"), stream.Count(), "ports"),
		filter(stream.KeyGeqInt("ports", threshold)),
	)
}

// DDoS flags destinations contacted by an excessive number of distinct
// sources in a window.
func DDoS(next stream.Operator) stream.Operator {
	const threshold = 45
	return stream.Chain(next,
		epoch(1.0),
		distinct(stream.ProjectOnly("ipv4.src", "ipv4.dst")),
		groupBy(stream.ProjectOnly("ipv4.dst"), stream.Count(), "srcs"),
		filter(stream.KeyGeqInt("srcs", threshold)),
	)
}

// Q3 reports distinct (src, dst) conversation pairs over a long window.
func Q3(next stream.Operator) stream.Operator {
	return stream.Chain(next,
		epoch(100.0),
		distinct(stream.ProjectOnly("ipv4.src", "ipv4.dst")),
	)
}

// Q4 counts packets per destination over a very long window.
func Q4(next stream.Operator) stream.Operator {
	return stream.Chain(next,
		epoch(10000.0),
		groupBy(stream.ProjectOnly("ipv4.dst"), stream.Count(), "pkts"),
	)
}

// Constructor shorthands; every query reads as its operator chain, top-down.

func epoch(width float64) stream.Constructor {
	return func(next stream.Operator) stream.Operator {
		return stream.NewEpoch(width, timeField, eidField, next)
	}
}

func groupBy(project stream.ProjectFunc, reduce stream.ReduceFunc, outKey string) stream.Constructor {
	return func(next stream.Operator) stream.Operator {
		return stream.NewGroupBy(project, reduce, outKey, next)
	}
}

func distinct(project stream.ProjectFunc) stream.Constructor {
	return func(next stream.Operator) stream.Operator {
		return stream.NewDistinct(project, next)
	}
}

func filter(pred stream.FilterFunc) stream.Constructor {
	return func(next stream.Operator) stream.Operator {
		return stream.NewFilter(pred, next)
	}
}

func mapRecords(fn stream.MapFunc) stream.Constructor {
	return func(next stream.Operator) stream.Operator {
		return stream.NewMap(fn, next)
	}
}

// filterProtoFlags keeps packets with the given protocol and exact TCP
// flags, the standard SYN / SYN-ACK / ACK selector.
func filterProtoFlags(proto, flags int64) stream.Constructor {
	return filter(func(r stream.Record) (bool, error) {
		p, err := r.Int("ipv4.proto")
		if err != nil {
			return false, err
		}
		f, err := r.Int("l4.flags")
		if err != nil {
			return false, err
		}
		return p == proto && f == flags, nil
	})
}

func filterProto(proto int64) stream.Constructor {
	return filter(stream.KeyEqInt("ipv4.proto", proto))
}

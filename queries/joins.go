package queries

import "github.com/tarungka/sift/stream"

// The join-based detections. Each input branch runs its own epoch operator,
// so the join sides advance on independent epoch counters synchronized only
// through the eid field — exactly the situation the guarded catch-up in the
// join exists for.

// SynFloodSonata flags hosts where SYNs + SYN-ACKs significantly outnumber
// ACKs, the classic half-open flood signature. Three input branches (SYNs,
// SYN-ACKs, ACKs) feed two cascaded joins.
func SynFloodSonata(next stream.Operator) []stream.Operator {
	const (
		epochDur  = 1.0
		threshold = 3
	)

	// Outer join: (syns+synacks per host) against (acks per host).
	outerLeft, outerRight := stream.NewJoin(
		func(r stream.Record) (stream.Record, stream.Record) {
			return r.Project("host"), r.Project("syns+synacks")
		},
		func(r stream.Record) (stream.Record, stream.Record) {
			return stream.RenameKeys(stream.Rename{From: "ipv4.dst", To: "host"})(r),
				r.Project("acks")
		},
		stream.Chain(next,
			mapRecords(stream.SetIntField("syns+synacks-acks", diff("syns+synacks", "acks"))),
			filter(stream.KeyGeqInt("syns+synacks-acks", threshold)),
		),
	)

	// Inner join: (syns per host) against (synacks per host), summed into
	// the outer join's left input.
	innerLeft, innerRight := stream.NewJoin(
		func(r stream.Record) (stream.Record, stream.Record) {
			return stream.RenameKeys(stream.Rename{From: "ipv4.dst", To: "host"})(r),
				r.Project("syns")
		},
		func(r stream.Record) (stream.Record, stream.Record) {
			return stream.RenameKeys(stream.Rename{From: "ipv4.src", To: "host"})(r),
				r.Project("synacks")
		},
		stream.Chain(outerLeft,
			mapRecords(stream.SetIntField("syns+synacks", sum("syns", "synacks"))),
		),
	)

	syns := stream.Chain(innerLeft,
		epoch(epochDur),
		filterProtoFlags(6, 2),
		groupBy(stream.ProjectOnly("ipv4.dst"), stream.Count(), "syns"),
	)
	synacks := stream.Chain(innerRight,
		epoch(epochDur),
		filterProtoFlags(6, 18),
		groupBy(stream.ProjectOnly("ipv4.src"), stream.Count(), "synacks"),
	)
	acks := stream.Chain(outerRight,
		epoch(epochDur),
		filterProtoFlags(6, 16),
		groupBy(stream.ProjectOnly("ipv4.dst"), stream.Count(), "acks"),
	)

	return []stream.Operator{syns, synacks, acks}
}

// CompletedFlows flags sources with many more connections opened (SYNs)
// than closed (FINs) over a long window.
func CompletedFlows(next stream.Operator) []stream.Operator {
	const (
		epochDur  = 30.0
		threshold = 1
	)

	left, right := stream.NewJoin(
		func(r stream.Record) (stream.Record, stream.Record) {
			return stream.RenameKeys(stream.Rename{From: "ipv4.dst", To: "host"})(r),
				r.Project("syns")
		},
		func(r stream.Record) (stream.Record, stream.Record) {
			return stream.RenameKeys(stream.Rename{From: "ipv4.src", To: "host"})(r),
				r.Project("fins")
		},
		stream.Chain(next,
			mapRecords(stream.SetIntField("diff", diff("syns", "fins"))),
			filter(stream.KeyGeqInt("diff", threshold)),
		),
	)

	syns := stream.Chain(left,
		epoch(epochDur),
		filterProtoFlags(6, 2),
		groupBy(stream.ProjectOnly("ipv4.dst"), stream.Count(), "syns"),
	)
	fins := stream.Chain(right,
		epoch(epochDur),
		filter(func(r stream.Record) (bool, error) {
			proto, err := r.Int("ipv4.proto")
			if err != nil {
				return false, err
			}
			flags, err := r.Int("l4.flags")
			if err != nil {
				return false, err
			}
			return proto == 6 && flags&1 == 1, nil // FIN bit set
		}),
		groupBy(stream.ProjectOnly("ipv4.src"), stream.Count(), "fins"),
	)

	return []stream.Operator{syns, fins}
}

// Slowloris flags destinations holding many connections that each carry
// suspiciously few bytes.
func Slowloris(next stream.Operator) []stream.Operator {
	const (
		epochDur        = 1.0
		minConns        = 5
		minBytes        = 500
		maxBytesPerConn = 90
	)

	left, right := stream.NewJoin(
		func(r stream.Record) (stream.Record, stream.Record) {
			return r.Project("ipv4.dst"), r.Project("n_conns")
		},
		func(r stream.Record) (stream.Record, stream.Record) {
			return r.Project("ipv4.dst"), r.Project("n_bytes")
		},
		stream.Chain(next,
			mapRecords(stream.SetIntField("bytes_per_conn", ratio("n_bytes", "n_conns"))),
			filter(func(r stream.Record) (bool, error) {
				bpc, err := r.Int("bytes_per_conn")
				if err != nil {
					return false, err
				}
				return bpc <= maxBytesPerConn, nil
			}),
		),
	)

	nConns := stream.Chain(left,
		epoch(epochDur),
		filterProto(6),
		distinct(stream.ProjectOnly("ipv4.src", "ipv4.dst", "l4.sport")),
		groupBy(stream.ProjectOnly("ipv4.dst"), stream.Count(), "n_conns"),
		filter(stream.KeyGeqInt("n_conns", minConns)),
	)
	nBytes := stream.Chain(right,
		epoch(epochDur),
		filterProto(6),
		groupBy(stream.ProjectOnly("ipv4.dst"), stream.SumInt("ipv4.len"), "n_bytes"),
		filter(stream.KeyGeqInt("n_bytes", minBytes)),
	)

	return []stream.Operator{nConns, nBytes}
}

func diff(a, b string) func(stream.Record) (int64, error) {
	return func(r stream.Record) (int64, error) {
		va, err := r.Int(a)
		if err != nil {
			return 0, err
		}
		vb, err := r.Int(b)
		if err != nil {
			return 0, err
		}
		return va - vb, nil
	}
}

func sum(a, b string) func(stream.Record) (int64, error) {
	return func(r stream.Record) (int64, error) {
		va, err := r.Int(a)
		if err != nil {
			return 0, err
		}
		vb, err := r.Int(b)
		if err != nil {
			return 0, err
		}
		return va + vb, nil
	}
}

func ratio(num, den string) func(stream.Record) (int64, error) {
	return func(r stream.Record) (int64, error) {
		n, err := r.Int(num)
		if err != nil {
			return 0, err
		}
		d, err := r.Int(den)
		if err != nil {
			return 0, err
		}
		if d == 0 {
			return 0, nil
		}
		return n / d, nil
	}
}

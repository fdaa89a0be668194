package stream

// Reusable projections, reductions and predicates. The detection queries are
// almost entirely compositions of these.

// ProjectOnly keeps just the named fields, the usual way to form a grouping
// or join key.
func ProjectOnly(fields ...string) ProjectFunc {
	return func(r Record) Record {
		return r.Project(fields...)
	}
}

// ProjectAllBut drops the named fields and keeps the rest.
func ProjectAllBut(fields ...string) ProjectFunc {
	return func(r Record) Record {
		return r.ProjectOut(fields...)
	}
}

// SingleGroup projects every record to the empty key: one global group.
func SingleGroup(Record) Record {
	return Record{}
}

// Rename is one old-name → new-name pair for RenameKeys.
type Rename struct {
	From string
	To   string
}

// RenameKeys keeps only the listed fields, renamed. Used to line up join
// keys across sides, e.g. ipv4.dst on one side and ipv4.src on the other
// both becoming "host".
func RenameKeys(renames ...Rename) ProjectFunc {
	return func(r Record) Record {
		out := make(Record, len(renames))
		for _, rn := range renames {
			if v, ok := r[rn.From]; ok {
				out[rn.To] = v
			}
		}
		return out
	}
}

// Count is the packet-counting reduction: Empty → 1, Int(n) → n+1. Any
// other accumulator variant is a programming error.
func Count() ReduceFunc {
	return func(acc Value, _ Record) (Value, error) {
		if acc.IsEmpty() {
			return IntValue(1), nil
		}
		n, err := acc.Int()
		if err != nil {
			return Empty, err
		}
		return IntValue(n + 1), nil
	}
}

// SumInt sums an int field across the group's records, starting from 0.
// A record missing the field, or carrying a non-int there, aborts the run.
func SumInt(field string) ReduceFunc {
	return func(acc Value, r Record) (Value, error) {
		total := int64(0)
		if !acc.IsEmpty() {
			n, err := acc.Int()
			if err != nil {
				return Empty, err
			}
			total = n
		}
		v, err := r.Int(field)
		if err != nil {
			return Empty, err
		}
		return IntValue(total + v), nil
	}
}

// KeyGeqInt passes records whose int field meets the threshold, the standard
// post-aggregation alarm filter.
func KeyGeqInt(field string, threshold int64) FilterFunc {
	return func(r Record) (bool, error) {
		v, err := r.Int(field)
		if err != nil {
			return false, err
		}
		return v >= threshold, nil
	}
}

// KeyEqInt passes records whose int field equals want.
func KeyEqInt(field string, want int64) FilterFunc {
	return func(r Record) (bool, error) {
		v, err := r.Int(field)
		if err != nil {
			return false, err
		}
		return v == want, nil
	}
}

// SetIntField returns a map stage that stores compute(r) under field,
// overriding any existing value. The usual shape for derived columns such
// as "syns+synacks".
func SetIntField(field string, compute func(Record) (int64, error)) MapFunc {
	return func(r Record) (Record, error) {
		v, err := compute(r)
		if err != nil {
			return nil, err
		}
		return r.With(field, IntValue(v)), nil
	}
}

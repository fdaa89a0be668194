package stream

// ProjectFunc extracts the grouping (or dedup, or join) key from a record.
type ProjectFunc func(Record) Record

// ReduceFunc folds one record into the running accumulator for its group.
// The accumulator is Empty on the group's first record; after that a
// reduction only ever sees the variant it produced itself — anything else is
// a programming error and surfaces as a TypeMismatchError.
type ReduceFunc func(acc Value, r Record) (Value, error)

type groupEntry struct {
	key Record
	acc Value
}

// groupByOperator accumulates one reduction per projected key within an
// epoch. The table lives exactly one window: it is cleared when Flush fires,
// which is what makes aggregation per-epoch rather than cumulative.
type groupByOperator struct {
	project ProjectFunc
	reduce  ReduceFunc
	outKey  string
	next    Operator
	groups  map[string]groupEntry
}

// NewGroupBy builds the aggregation stage. On every Flush it emits one
// record per group, shaped ctx ∪ key ∪ {outKey: acc} with the accumulator
// taking precedence over the key fields, which take precedence over ctx.
func NewGroupBy(project ProjectFunc, reduce ReduceFunc, outKey string, next Operator) Operator {
	return &groupByOperator{
		project: project,
		reduce:  reduce,
		outKey:  outKey,
		next:    next,
		groups:  make(map[string]groupEntry),
	}
}

func (g *groupByOperator) Accept(r Record) error {
	key := g.project(r)
	ck := key.Key()

	acc := Empty
	if entry, ok := g.groups[ck]; ok {
		acc = entry.acc
	}
	acc, err := g.reduce(acc, r)
	if err != nil {
		return err
	}
	g.groups[ck] = groupEntry{key: key, acc: acc}
	return nil
}

func (g *groupByOperator) Flush(ctx Record) error {
	for _, entry := range g.groups {
		out := Union(Singleton(g.outKey, entry.acc), Union(entry.key, ctx))
		if err := g.next.Accept(out); err != nil {
			return err
		}
	}
	if err := g.next.Flush(ctx); err != nil {
		return err
	}
	g.groups = make(map[string]groupEntry)
	return nil
}

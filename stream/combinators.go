package stream

// The stateless glue. None of these hold state beyond their closures; they
// exist so every stateful primitive composes.

// FilterFunc decides whether a record passes. Predicates that read typed
// fields return the lookup error rather than defaulting, so a malformed
// record aborts the run instead of silently skewing counts.
type FilterFunc func(Record) (bool, error)

// MapFunc rewrites a record. The input must not be mutated; return a copy.
type MapFunc func(Record) (Record, error)

type filterOperator struct {
	pred FilterFunc
	next Operator
}

// NewFilter forwards only records satisfying pred; Flush always passes
// through unchanged.
func NewFilter(pred FilterFunc, next Operator) Operator {
	return &filterOperator{pred: pred, next: next}
}

func (f *filterOperator) Accept(r Record) error {
	ok, err := f.pred(r)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return f.next.Accept(r)
}

func (f *filterOperator) Flush(ctx Record) error {
	return f.next.Flush(ctx)
}

type mapOperator struct {
	fn   MapFunc
	next Operator
}

// NewMap forwards fn(r) for every record; Flush passes through unchanged.
func NewMap(fn MapFunc, next Operator) Operator {
	return &mapOperator{fn: fn, next: next}
}

func (m *mapOperator) Accept(r Record) error {
	out, err := m.fn(r)
	if err != nil {
		return err
	}
	return m.next.Accept(out)
}

func (m *mapOperator) Flush(ctx Record) error {
	return m.next.Flush(ctx)
}

type splitOperator struct {
	left  Operator
	right Operator
}

// NewSplit fans every record and flush out to two operators, left first.
func NewSplit(left, right Operator) Operator {
	return &splitOperator{left: left, right: right}
}

func (s *splitOperator) Accept(r Record) error {
	if err := s.left.Accept(r); err != nil {
		return err
	}
	return s.right.Accept(r)
}

func (s *splitOperator) Flush(ctx Record) error {
	if err := s.left.Flush(ctx); err != nil {
		return err
	}
	return s.right.Flush(ctx)
}

// Fanout chains splits over any number of heads so one input stream can
// drive several pipeline entry points.
func Fanout(heads ...Operator) Operator {
	if len(heads) == 0 {
		return discard{}
	}
	op := heads[len(heads)-1]
	for i := len(heads) - 2; i >= 0; i-- {
		op = NewSplit(heads[i], op)
	}
	return op
}

type discard struct{}

func (discard) Accept(Record) error { return nil }
func (discard) Flush(Record) error  { return nil }

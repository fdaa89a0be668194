package stream

// Operator is the single abstraction every pipeline stage implements.
// Processing is synchronous, single-threaded and depth-first: a call to
// Accept or Flush on the head of a pipeline completes fully, including all
// downstream side effects, before it returns. There is no queueing and no
// suspension point; the epoch and join protocols depend on that strict
// call-return ordering.
type Operator interface {
	// Accept pushes one record through the stage.
	Accept(r Record) error

	// Flush signals that the current window has closed. Stateful stages
	// emit their accumulated aggregates downstream and clear their state;
	// stateless stages forward the context record unchanged.
	Flush(ctx Record) error
}

// Constructor wraps a downstream operator and returns the upstream stage
// feeding it. Pipelines are assembled back to front, sink first:
//
//	head := NewEpoch(1.0, "time", "eid", NewGroupBy(SingleGroup, Count(), "pkts", sink))
type Constructor func(next Operator) Operator

// PairConstructor is the join shape: one downstream in, two entry points out.
type PairConstructor func(next Operator) (Operator, Operator)

// Chain applies constructors outermost first, so the pipeline reads top-down:
// Chain(sink, a, b, c) builds a(b(c(sink))) and returns the head.
func Chain(sink Operator, ctors ...Constructor) Operator {
	op := sink
	for i := len(ctors) - 1; i >= 0; i-- {
		op = ctors[i](op)
	}
	return op
}

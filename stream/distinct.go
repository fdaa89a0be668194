package stream

// distinctOperator tracks the set of projected keys seen this epoch and
// emits each exactly once at Flush. It is group-by specialized to presence:
// no accumulator, just the key itself.
type distinctOperator struct {
	project ProjectFunc
	next    Operator
	seen    map[string]Record
}

// NewDistinct builds the dedup stage.
func NewDistinct(project ProjectFunc, next Operator) Operator {
	return &distinctOperator{
		project: project,
		next:    next,
		seen:    make(map[string]Record),
	}
}

func (d *distinctOperator) Accept(r Record) error {
	key := d.project(r)
	d.seen[key.Key()] = key
	return nil
}

func (d *distinctOperator) Flush(ctx Record) error {
	for _, key := range d.seen {
		if err := d.next.Accept(Union(key, ctx)); err != nil {
			return err
		}
	}
	if err := d.next.Flush(ctx); err != nil {
		return err
	}
	d.seen = make(map[string]Record)
	return nil
}

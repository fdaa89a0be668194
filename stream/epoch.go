package stream

// DefaultEpochField is the conventional name of the epoch-id field stamped
// on records by the epoch and join operators.
const DefaultEpochField = "eid"

// epochOperator drives windowing from a logical time field carried in the
// data; there are no wall-clock timers anywhere in the engine. Each elapsed
// window emits one Flush downstream, and every forwarded record is stamped
// with the id of the window it falls in.
type epochOperator struct {
	width     float64
	timeField string
	keyOut    string
	next      Operator

	// boundary == 0 means "no record seen yet"; it is initialized lazily
	// from the first record's time.
	boundary float64
	eid      int64
	lastTime float64
}

// NewEpoch builds the windowing stage. width is the window span in the same
// unit as the time field; keyOut names the stamped epoch-id field,
// conventionally DefaultEpochField.
func NewEpoch(width float64, timeField, keyOut string, next Operator) Operator {
	return &epochOperator{
		width:     width,
		timeField: timeField,
		keyOut:    keyOut,
		next:      next,
	}
}

func (e *epochOperator) Accept(r Record) error {
	t, err := r.Float(e.timeField)
	if err != nil {
		return err
	}

	if e.boundary == 0 {
		e.boundary = t + e.width
	} else {
		if t < e.lastTime {
			return &EpochRegressionError{
				Field: e.timeField,
				Prev:  FloatValue(e.lastTime).String(),
				Got:   FloatValue(t).String(),
			}
		}
		// Sparse input can skip several windows at once; each elapsed
		// window gets its own flush, not one flush per record.
		for t >= e.boundary {
			if err := e.next.Flush(Singleton(e.keyOut, IntValue(e.eid))); err != nil {
				return err
			}
			e.boundary += e.width
			e.eid++
		}
	}
	e.lastTime = t

	return e.next.Accept(Union(r, Singleton(e.keyOut, IntValue(e.eid))))
}

// Flush is the upstream-forced close, e.g. end of input. The current window
// is flushed once and the operator rewinds to its initial state.
func (e *epochOperator) Flush(Record) error {
	err := e.next.Flush(Singleton(e.keyOut, IntValue(e.eid)))
	e.boundary = 0
	e.eid = 0
	e.lastTime = 0
	return err
}

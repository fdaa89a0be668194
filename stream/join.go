package stream

import (
	"errors"
	"strconv"
)

// Extractor splits a record into (key, payload): the key scopes the match,
// the payload is what a matched output carries from this side.
type Extractor func(Record) (key Record, payload Record)

type joinShared struct {
	eidField string
	next     Operator
}

type pendingEntry struct {
	payload Record
	eid     int64
}

type sideState struct {
	// pending holds payloads by composite key (projected key ∪ epoch id)
	// until the other side produces a match.
	pending map[string]pendingEntry
	epoch   int64
}

// joinSide is one of the two entry points of a join. Each side owns its
// pending table and epoch counter; both share the downstream operator.
// There is no shared clock between the two input streams — the epoch-id
// field carried in the records is the only synchronization.
type joinSide struct {
	shared  *joinShared
	extract Extractor
	mine    *sideState
	other   *sideState
}

// NewJoin builds a dual-entry inner join keyed by (extracted key, epoch id),
// reading epoch ids from DefaultEpochField. The returned operators are the
// left and right entry points; each must individually see non-decreasing
// epoch ids.
func NewJoin(left, right Extractor, next Operator) (Operator, Operator) {
	return NewJoinOn(DefaultEpochField, left, right, next)
}

// NewJoinOn is NewJoin with an explicit epoch-id field name.
func NewJoinOn(eidField string, left, right Extractor, next Operator) (Operator, Operator) {
	shared := &joinShared{eidField: eidField, next: next}
	ls := &sideState{pending: make(map[string]pendingEntry)}
	rs := &sideState{pending: make(map[string]pendingEntry)}
	lop := &joinSide{shared: shared, extract: left, mine: ls, other: rs}
	rop := &joinSide{shared: shared, extract: right, mine: rs, other: ls}
	return lop, rop
}

func (s *joinSide) Accept(r Record) error {
	incoming, err := r.Int(s.shared.eidField)
	if err != nil {
		return err
	}
	if incoming < s.mine.epoch {
		return &EpochRegressionError{
			Field: s.shared.eidField,
			Prev:  strconv.FormatInt(s.mine.epoch, 10),
			Got:   strconv.FormatInt(incoming, 10),
		}
	}
	if err := s.catchUp(incoming); err != nil {
		return err
	}

	key, payload := s.extract(r)
	composite := Union(key, Singleton(s.shared.eidField, IntValue(incoming)))
	ck := composite.Key()

	if entry, ok := s.other.pending[ck]; ok {
		delete(s.other.pending, ck)
		// Precedence on field collisions: the composite key, then the
		// payload stored by the side that arrived first, then the payload
		// of the side completing the match.
		out := Union(composite, Union(entry.payload, payload))
		return s.shared.next.Accept(out)
	}
	s.mine.pending[ck] = pendingEntry{payload: payload, eid: incoming}
	return nil
}

// Flush with an epoch id advances this side to it; without one (a forced
// close from upstream) this side catches up to wherever the other side is.
func (s *joinSide) Flush(ctx Record) error {
	incoming, err := ctx.Int(s.shared.eidField)
	if err != nil {
		var missing *MissingFieldError
		if errors.As(err, &missing) {
			return s.catchUp(s.other.epoch)
		}
		return err
	}
	if incoming < s.mine.epoch {
		return &EpochRegressionError{
			Field: s.shared.eidField,
			Prev:  strconv.FormatInt(s.mine.epoch, 10),
			Got:   strconv.FormatInt(incoming, 10),
		}
	}
	return s.catchUp(incoming)
}

// catchUp walks this side's epoch counter forward to target. An epoch is
// flushed downstream only once the other side has also moved past it;
// without that guard a fast side would close epochs the slow side might
// still populate.
func (s *joinSide) catchUp(target int64) error {
	for target > s.mine.epoch {
		if s.other.epoch > s.mine.epoch {
			if err := s.shared.next.Flush(Singleton(s.shared.eidField, IntValue(s.mine.epoch))); err != nil {
				return err
			}
		}
		s.mine.epoch++
		s.evictStale()
	}
	return nil
}

// evictStale drops pending entries from epochs both sides have passed. Not
// required for correctness — such entries can never match — but it bounds
// memory on long runs with many unmatched keys.
func (s *joinSide) evictStale() {
	floor := s.mine.epoch
	if s.other.epoch < floor {
		floor = s.other.epoch
	}
	for _, table := range []map[string]pendingEntry{s.mine.pending, s.other.pending} {
		for ck, entry := range table {
			if entry.eid < floor {
				delete(table, ck)
			}
		}
	}
}

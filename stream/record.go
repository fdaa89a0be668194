package stream

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Record is one logical flow event: a field-name to Value mapping. Records
// have value semantics; operators never mutate a record handed to them, they
// copy it first. Iteration is canonical (sorted by field name), so two
// records holding the same pairs always hash and print identically no matter
// how they were built.
type Record map[string]Value

// Fields returns the field names in canonical (sorted) order.
func (r Record) Fields() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// With returns a copy of the record with one field set, overriding any
// existing value under that name.
func (r Record) With(field string, v Value) Record {
	out := r.Clone()
	out[field] = v
	return out
}

// Project keeps only the named fields. Fields absent from the record are
// simply not included; key projections over partial records are legitimate.
func (r Record) Project(fields ...string) Record {
	out := make(Record, len(fields))
	for _, f := range fields {
		if v, ok := r[f]; ok {
			out[f] = v
		}
	}
	return out
}

// ProjectOut drops the named fields and keeps everything else.
func (r Record) ProjectOut(fields ...string) Record {
	out := r.Clone()
	for _, f := range fields {
		delete(out, f)
	}
	return out
}

// Union merges two records with a left bias: on a field-name collision the
// first operand's value wins. Join and group-by lean on this when merging
// context into payload, so the bias is load-bearing, not cosmetic.
func Union(a, b Record) Record {
	out := make(Record, len(a)+len(b))
	for k, v := range b {
		out[k] = v
	}
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Singleton builds the one-field context record used whenever a stateful
// operator manufactures its own flush context.
func Singleton(field string, v Value) Record {
	return Record{field: v}
}

// Float reads a required float field.
func (r Record) Float(field string) (float64, error) {
	v, ok := r[field]
	if !ok {
		return 0, &MissingFieldError{Field: field}
	}
	f, err := v.Float()
	if err != nil {
		return 0, &TypeMismatchError{Field: field, Want: KindFloat, Got: v.Kind()}
	}
	return f, nil
}

// Int reads a required int field.
func (r Record) Int(field string) (int64, error) {
	v, ok := r[field]
	if !ok {
		return 0, &MissingFieldError{Field: field}
	}
	i, err := v.Int()
	if err != nil {
		return 0, &TypeMismatchError{Field: field, Want: KindInt, Got: v.Kind()}
	}
	return i, nil
}

// Key returns a canonical string encoding of the record, usable as a hash
// key for grouping, dedup and join tables. Equal records produce equal keys
// regardless of construction order; map iteration order never leaks in.
func (r Record) Key() string {
	var b strings.Builder
	for _, name := range r.Fields() {
		b.WriteString(strconv.Itoa(len(name)))
		b.WriteByte(':')
		b.WriteString(name)
		b.WriteByte('=')
		r[name].appendCanonical(&b)
		b.WriteByte(';')
	}
	return b.String()
}

// String renders the record as `"field" => value, ` pairs in canonical
// order, the format the dump sink emits.
func (r Record) String() string {
	var b strings.Builder
	for _, name := range r.Fields() {
		fmt.Fprintf(&b, "%q => %s, ", name, r[name])
	}
	return b.String()
}

// Native converts the record to a plain map for JSON-bound sinks.
func (r Record) Native() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v.Native()
	}
	return out
}

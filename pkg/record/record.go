/*
Copyright 2024 The searchcore Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package record defines the tagged Result Record union delivered by
// iterators: Term, Numeric, Virtual, and Aggregate (intersect/union/
// hybrid-metric) variants, plus the document/field identifiers they are
// keyed on.
package record

// DocID is a monotonically assigned document identifier. Zero is
// reserved and never denotes a real document.
type DocID uint64

// FieldIndex indexes into the external schema/field-spec.
type FieldIndex uint16

// FieldMask is a bitset of fields in which a term occurs. It is backed by
// two 64-bit words so it can represent both the 32-bit default schema and
// the 128-bit wide-schema mode; callers that only need 32 bits should
// treat Hi as always zero.
type FieldMask struct {
	Lo uint64
	Hi uint64
}

// MaskForField returns the single-bit mask for the given zero-based field
// index, spanning the Lo/Hi words as needed.
func MaskForField(idx FieldIndex) FieldMask {
	if idx < 64 {
		return FieldMask{Lo: 1 << uint(idx)}
	}
	return FieldMask{Hi: 1 << uint(idx-64)}
}

// Union returns the bitwise OR of m and other.
func (m FieldMask) Union(other FieldMask) FieldMask {
	return FieldMask{Lo: m.Lo | other.Lo, Hi: m.Hi | other.Hi}
}

// Intersects reports whether m and other share any set bit.
func (m FieldMask) Intersects(other FieldMask) bool {
	return m.Lo&other.Lo != 0 || m.Hi&other.Hi != 0
}

// IsZero reports whether no bit is set.
func (m FieldMask) IsZero() bool {
	return m.Lo == 0 && m.Hi == 0
}

// Kind discriminates the Result variants.
type Kind uint8

const (
	KindTerm Kind = iota
	KindNumeric
	KindVirtual
	KindAggregate
)

// AggregateKind further discriminates the Aggregate variant.
type AggregateKind uint8

const (
	AggregateIntersect AggregateKind = iota
	AggregateUnion
	AggregateHybridMetric
)

// QueryTermRef is an opaque, externally-owned reference to the query term
// a Term result belongs to. The core never interprets it; it only carries
// it through so the planner/evaluator can recover which term produced a
// given posting.
type QueryTermRef struct {
	Term string
}

// Offsets is a varint-encoded sequence of term positions within a
// document field. It may either borrow a sub-slice of an index block's
// buffer or own a private copy; Owned tracks which.
type Offsets struct {
	Bytes []byte
	Owned bool
}

// Own returns an Offsets guaranteed not to alias any index block buffer,
// copying Bytes if it is currently borrowed. Aggregate combinators must
// call this before pushing a Term record into an owning aggregate's
// Children, since the source block may be rewritten by a GC repair after
// the aggregate outlives the read that produced the child.
func (o Offsets) Own() Offsets {
	if o.Owned || len(o.Bytes) == 0 {
		return Offsets{Bytes: o.Bytes, Owned: true}
	}
	cp := make([]byte, len(o.Bytes))
	copy(cp, o.Bytes)
	return Offsets{Bytes: cp, Owned: true}
}

// Result is a tagged value delivered by iterators. Only the fields
// relevant to Kind are meaningful; this mirrors the original engine's
// single tagged-union record type rather than a family of interface
// implementations, since the base iterators are expected to specialize
// on Kind without incurring a virtual dispatch per field access.
type Result struct {
	Kind Kind

	DocID     DocID
	FieldMask FieldMask
	Weight    float64

	// Term fields.
	Frequency    uint32
	Offsets      Offsets
	QueryTermRef *QueryTermRef

	// Numeric field.
	Value float64

	// Aggregate fields.
	AggregateKind AggregateKind
	Children      []Result
}

// Term builds a Term result record.
func Term(doc DocID, fm FieldMask, freq uint32, weight float64, off Offsets, ref *QueryTermRef) Result {
	return Result{
		Kind:         KindTerm,
		DocID:        doc,
		FieldMask:    fm,
		Weight:       weight,
		Frequency:    freq,
		Offsets:      off,
		QueryTermRef: ref,
	}
}

// Numeric builds a Numeric result record.
func Numeric(doc DocID, value float64, weight float64) Result {
	return Result{Kind: KindNumeric, DocID: doc, Value: value, Weight: weight}
}

// Virtual builds a Virtual result record: no payload beyond doc id,
// field mask, and weight; used for wildcard, NOT, and OPTIONAL fills.
func Virtual(doc DocID, fm FieldMask, weight float64) Result {
	return Result{Kind: KindVirtual, DocID: doc, FieldMask: fm, Weight: weight}
}

// Aggregate builds an Aggregate result record. The caller is responsible
// for ensuring children are ordered by increasing DocID at emission time
// and that doc equals the common doc id of all children, per the record
// model's invariants.
func Aggregate(doc DocID, weight float64, kind AggregateKind, children []Result) Result {
	return Result{
		Kind:          KindAggregate,
		DocID:         doc,
		Weight:        weight,
		AggregateKind: kind,
		Children:      children,
	}
}

// Own recursively promotes any borrowed Term offsets reachable from r
// (directly, or via Aggregate children) to owned copies. Called when a
// record is pushed into a structure expected to outlive the index block
// it was decoded from.
func (r Result) Own() Result {
	switch r.Kind {
	case KindTerm:
		r.Offsets = r.Offsets.Own()
	case KindAggregate:
		owned := make([]Result, len(r.Children))
		for i, c := range r.Children {
			owned[i] = c.Own()
		}
		r.Children = owned
	}
	return r
}

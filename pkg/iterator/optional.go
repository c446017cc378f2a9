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

package iterator

import (
	"context"

	"github.com/redisearch-rs/searchcore/pkg/record"
)

// OptionalIterator yields every id in [1, maxDocID]: when child produces
// that id, its record is emitted at the configured weight; otherwise a
// zero-weight virtual record is emitted (spec.md §4.5.6).
type OptionalIterator struct {
	child    Iterator
	maxDocID record.DocID
	weight   float64

	cursor record.DocID
	atEOF  bool

	current    record.Result
	hasCurrent bool

	childAborted bool
}

// NewOptionalIterator builds an OPTIONAL combinator over child.
func NewOptionalIterator(child Iterator, maxDocID record.DocID, weight float64) *OptionalIterator {
	return &OptionalIterator{child: child, maxDocID: maxDocID, weight: weight}
}

func (o *OptionalIterator) childIsLive() bool {
	return !o.childAborted && o.child != nil && !o.child.AtEOF()
}

// Read implements Iterator.
func (o *OptionalIterator) Read(ctx context.Context) (record.Result, bool, error) {
	if o.atEOF {
		return record.Result{}, false, nil
	}
	if err := checkDeadline(ctx, "optional"); err != nil {
		o.atEOF = true
		return record.Result{}, false, err
	}

	o.cursor++
	if o.cursor > o.maxDocID {
		o.atEOF = true
		o.hasCurrent = false
		return record.Result{}, false, nil
	}

	if o.childIsLive() {
		cur, has := o.child.Current()
		switch {
		case has && cur.DocID == o.cursor:
			rec := cur
			rec.Weight = o.weight
			o.current, o.hasCurrent = rec, true
			return rec, true, nil
		case o.child.LastDocID() < o.cursor:
			next, ok, err := o.child.Read(ctx)
			if err != nil {
				o.atEOF = true
				return record.Result{}, false, err
			}
			if ok && next.DocID == o.cursor {
				next.Weight = o.weight
				o.current, o.hasCurrent = next, true
				return next, true, nil
			}
		}
	}

	rec := record.Virtual(o.cursor, record.FieldMask{}, 0)
	o.current, o.hasCurrent = rec, true
	return rec, true, nil
}

// SkipTo implements Iterator.
func (o *OptionalIterator) SkipTo(ctx context.Context, target record.DocID) (record.Result, SkipOutcome, bool, error) {
	if target > o.maxDocID {
		o.atEOF = true
		return record.Result{}, SkipNotFound, false, nil
	}
	o.cursor = target

	if o.childIsLive() {
		rec, outcome, ok, err := o.child.SkipTo(ctx, target)
		if err != nil {
			o.atEOF = true
			return record.Result{}, SkipNotFound, false, err
		}
		if ok && outcome == SkipFound {
			rec.Weight = o.weight
			o.current, o.hasCurrent = rec, true
			return rec, SkipFound, true, nil
		}
	}

	rec := record.Virtual(target, record.FieldMask{}, 0)
	o.current, o.hasCurrent = rec, true
	return rec, SkipFound, true, nil
}

// Rewind implements Iterator.
func (o *OptionalIterator) Rewind() {
	o.cursor = 0
	o.atEOF = false
	o.hasCurrent = false
	o.childAborted = false
	if o.child != nil {
		o.child.Rewind()
	}
}

// NumEstimated implements Iterator.
func (o *OptionalIterator) NumEstimated() uint64 { return uint64(o.maxDocID) }

// LastDocID implements Iterator.
func (o *OptionalIterator) LastDocID() record.DocID { return o.cursor }

// AtEOF implements Iterator.
func (o *OptionalIterator) AtEOF() bool { return o.atEOF }

// Current implements Iterator.
func (o *OptionalIterator) Current() (record.Result, bool) { return o.current, o.hasCurrent }

// Revalidate implements Iterator: if the child moved, the record at the
// cursor is no longer guaranteed real, so the next Read emits virtual
// until the child catches back up; if the child aborted, OPTIONAL
// continues as if it were permanently empty.
func (o *OptionalIterator) Revalidate(ctx context.Context) (RevalidateStatus, error) {
	if o.childAborted || o.child == nil {
		return RevalidateOK, nil
	}
	status, err := o.child.Revalidate(ctx)
	if err != nil {
		return RevalidateAborted, err
	}
	switch status {
	case RevalidateAborted:
		o.childAborted = true
		return RevalidateOK, nil
	case RevalidateMoved:
		rec := record.Virtual(o.cursor, record.FieldMask{}, 0)
		o.current, o.hasCurrent = rec, true
		return RevalidateMoved, nil
	default:
		return RevalidateOK, nil
	}
}

var _ Iterator = (*OptionalIterator)(nil)

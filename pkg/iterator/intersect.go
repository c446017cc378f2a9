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

// IntersectIterator merges N children by doc id, emitting an Aggregate
// record only for doc ids every child produces (spec.md §3's Aggregate
// variant, extended per this core's UNION/INTERSECT addition).
type IntersectIterator struct {
	children []Iterator
	weight   float64

	cursor     record.DocID
	atEOF      bool
	current    record.Result
	hasCurrent bool
}

// NewIntersectIterator builds an INTERSECT combinator over children. An
// empty children slice yields an iterator immediately at EOF.
func NewIntersectIterator(children []Iterator, weight float64) *IntersectIterator {
	it := &IntersectIterator{children: children, weight: weight}
	if len(children) == 0 {
		it.atEOF = true
	}
	return it
}

// primeAll ensures every child has a current record, reading once for
// any child that hasn't emitted anything yet.
func (it *IntersectIterator) primeAll(ctx context.Context) error {
	for _, c := range it.children {
		if _, has := c.Current(); !has && !c.AtEOF() {
			if _, _, err := c.Read(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// findAlignment advances stragglers until every child's current record
// shares the same doc id, or any child reaches EOF (no more matches are
// possible). It assumes every child already has a current record from
// at least one prior Read/SkipTo.
func (it *IntersectIterator) findAlignment(ctx context.Context) (record.DocID, bool, error) {
	for {
		if err := checkDeadline(ctx, "intersect"); err != nil {
			return 0, false, err
		}

		var max record.DocID
		for _, c := range it.children {
			if c.AtEOF() {
				return 0, false, nil
			}
			cur, _ := c.Current()
			if cur.DocID > max {
				max = cur.DocID
			}
		}

		aligned := true
		for _, c := range it.children {
			cur, _ := c.Current()
			if cur.DocID != max {
				aligned = false
				if _, _, _, err := c.SkipTo(ctx, max); err != nil {
					return 0, false, err
				}
			}
		}
		if aligned {
			return max, true, nil
		}
	}
}

func (it *IntersectIterator) buildAggregate(doc record.DocID) record.Result {
	children := make([]record.Result, len(it.children))
	for i, c := range it.children {
		cur, _ := c.Current()
		children[i] = cur.Own()
	}
	return record.Aggregate(doc, it.weight, record.AggregateIntersect, children)
}

// Read implements Iterator.
func (it *IntersectIterator) Read(ctx context.Context) (record.Result, bool, error) {
	if it.atEOF {
		return record.Result{}, false, nil
	}
	if err := it.primeAll(ctx); err != nil {
		it.atEOF = true
		return record.Result{}, false, err
	}

	doc, ok, err := it.findAlignment(ctx)
	if err != nil {
		it.atEOF = true
		return record.Result{}, false, err
	}
	if !ok {
		it.atEOF = true
		it.hasCurrent = false
		return record.Result{}, false, nil
	}

	rec := it.buildAggregate(doc)
	it.current, it.hasCurrent, it.cursor = rec, true, doc

	// Advance every child past this doc so the next call searches fresh.
	for _, c := range it.children {
		if _, _, err := c.Read(ctx); err != nil {
			it.atEOF = true
			return rec, true, err
		}
	}
	return rec, true, nil
}

// SkipTo implements Iterator.
func (it *IntersectIterator) SkipTo(ctx context.Context, target record.DocID) (record.Result, SkipOutcome, bool, error) {
	if it.atEOF {
		return record.Result{}, SkipNotFound, false, nil
	}
	for _, c := range it.children {
		if c.AtEOF() {
			it.atEOF = true
			return record.Result{}, SkipNotFound, false, nil
		}
		if cur, has := c.Current(); !has || cur.DocID < target {
			if _, _, _, err := c.SkipTo(ctx, target); err != nil {
				it.atEOF = true
				return record.Result{}, SkipNotFound, false, err
			}
		}
	}

	doc, ok, err := it.findAlignment(ctx)
	if err != nil {
		it.atEOF = true
		return record.Result{}, SkipNotFound, false, err
	}
	if !ok {
		it.atEOF = true
		it.hasCurrent = false
		return record.Result{}, SkipNotFound, false, nil
	}

	rec := it.buildAggregate(doc)
	it.current, it.hasCurrent, it.cursor = rec, true, doc
	outcome := SkipFound
	if doc != target {
		outcome = SkipNotFound
	}
	return rec, outcome, true, nil
}

// Rewind implements Iterator.
func (it *IntersectIterator) Rewind() {
	it.cursor = 0
	it.atEOF = len(it.children) == 0
	it.hasCurrent = false
	for _, c := range it.children {
		c.Rewind()
	}
}

// NumEstimated implements Iterator: the smallest child estimate, since
// an intersection can never exceed any one child's cardinality.
func (it *IntersectIterator) NumEstimated() uint64 {
	var min uint64
	for i, c := range it.children {
		if i == 0 || c.NumEstimated() < min {
			min = c.NumEstimated()
		}
	}
	return min
}

// LastDocID implements Iterator.
func (it *IntersectIterator) LastDocID() record.DocID { return it.cursor }

// AtEOF implements Iterator.
func (it *IntersectIterator) AtEOF() bool { return it.atEOF }

// Current implements Iterator.
func (it *IntersectIterator) Current() (record.Result, bool) { return it.current, it.hasCurrent }

// Revalidate implements Iterator: any child aborting makes a further
// intersection result meaningless, so the whole combinator aborts.
func (it *IntersectIterator) Revalidate(ctx context.Context) (RevalidateStatus, error) {
	worst := RevalidateOK
	for _, c := range it.children {
		status, err := c.Revalidate(ctx)
		if err != nil {
			return RevalidateAborted, err
		}
		if status == RevalidateAborted {
			it.atEOF = true
			return RevalidateAborted, nil
		}
		if status == RevalidateMoved {
			worst = RevalidateMoved
		}
	}
	return worst, nil
}

var _ Iterator = (*IntersectIterator)(nil)

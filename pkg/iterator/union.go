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

// UnionIterator merges N children by doc id, emitting an Aggregate
// record for the lowest doc id any live child currently holds, built
// from every child that shares it (spec.md §3's Aggregate variant,
// extended per this core's UNION/INTERSECT addition).
type UnionIterator struct {
	children []Iterator
	weight   float64

	cursor     record.DocID
	atEOF      bool
	current    record.Result
	hasCurrent bool
}

// NewUnionIterator builds a UNION combinator over children. An empty
// children slice yields an iterator immediately at EOF.
func NewUnionIterator(children []Iterator, weight float64) *UnionIterator {
	it := &UnionIterator{children: children, weight: weight}
	if len(children) == 0 {
		it.atEOF = true
	}
	return it
}

func (u *UnionIterator) primeAll(ctx context.Context) error {
	for _, c := range u.children {
		if _, has := c.Current(); !has && !c.AtEOF() {
			if _, _, err := c.Read(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// minAndGroup returns the lowest doc id among live children and the
// indices of every child currently sitting on it.
func (u *UnionIterator) minAndGroup() (record.DocID, []int, bool) {
	var min record.DocID
	found := false
	for _, c := range u.children {
		if c.AtEOF() {
			continue
		}
		cur, has := c.Current()
		if !has {
			continue
		}
		if !found || cur.DocID < min {
			min, found = cur.DocID, true
		}
	}
	if !found {
		return 0, nil, false
	}
	var group []int
	for i, c := range u.children {
		if c.AtEOF() {
			continue
		}
		if cur, has := c.Current(); has && cur.DocID == min {
			group = append(group, i)
		}
	}
	return min, group, true
}

func (u *UnionIterator) buildAggregate(doc record.DocID, group []int) record.Result {
	children := make([]record.Result, len(group))
	for i, idx := range group {
		cur, _ := u.children[idx].Current()
		children[i] = cur.Own()
	}
	return record.Aggregate(doc, u.weight, record.AggregateUnion, children)
}

// Read implements Iterator.
func (u *UnionIterator) Read(ctx context.Context) (record.Result, bool, error) {
	if u.atEOF {
		return record.Result{}, false, nil
	}
	if err := checkDeadline(ctx, "union"); err != nil {
		u.atEOF = true
		return record.Result{}, false, err
	}
	if err := u.primeAll(ctx); err != nil {
		u.atEOF = true
		return record.Result{}, false, err
	}

	doc, group, ok := u.minAndGroup()
	if !ok {
		u.atEOF = true
		u.hasCurrent = false
		return record.Result{}, false, nil
	}

	rec := u.buildAggregate(doc, group)
	u.current, u.hasCurrent, u.cursor = rec, true, doc

	for _, idx := range group {
		if _, _, err := u.children[idx].Read(ctx); err != nil {
			u.atEOF = true
			return rec, true, err
		}
	}
	return rec, true, nil
}

// SkipTo implements Iterator.
func (u *UnionIterator) SkipTo(ctx context.Context, target record.DocID) (record.Result, SkipOutcome, bool, error) {
	if u.atEOF {
		return record.Result{}, SkipNotFound, false, nil
	}
	for _, c := range u.children {
		if c.AtEOF() {
			continue
		}
		if cur, has := c.Current(); !has || cur.DocID < target {
			if _, _, _, err := c.SkipTo(ctx, target); err != nil {
				u.atEOF = true
				return record.Result{}, SkipNotFound, false, err
			}
		}
	}

	doc, group, ok := u.minAndGroup()
	if !ok {
		u.atEOF = true
		u.hasCurrent = false
		return record.Result{}, SkipNotFound, false, nil
	}

	rec := u.buildAggregate(doc, group)
	u.current, u.hasCurrent, u.cursor = rec, true, doc
	outcome := SkipFound
	if doc != target {
		outcome = SkipNotFound
	}
	return rec, outcome, true, nil
}

// Rewind implements Iterator.
func (u *UnionIterator) Rewind() {
	u.cursor = 0
	u.atEOF = len(u.children) == 0
	u.hasCurrent = false
	for _, c := range u.children {
		c.Rewind()
	}
}

// NumEstimated implements Iterator: the sum of every child's estimate,
// since a union can never exceed the total of its children.
func (u *UnionIterator) NumEstimated() uint64 {
	var total uint64
	for _, c := range u.children {
		total += c.NumEstimated()
	}
	return total
}

// LastDocID implements Iterator.
func (u *UnionIterator) LastDocID() record.DocID { return u.cursor }

// AtEOF implements Iterator.
func (u *UnionIterator) AtEOF() bool { return u.atEOF }

// Current implements Iterator.
func (u *UnionIterator) Current() (record.Result, bool) { return u.current, u.hasCurrent }

// Revalidate implements Iterator: a union survives an aborted child by
// dropping it from the merge (the remaining children still contribute).
func (u *UnionIterator) Revalidate(ctx context.Context) (RevalidateStatus, error) {
	worst := RevalidateOK
	live := u.children[:0:0]
	for _, c := range u.children {
		status, err := c.Revalidate(ctx)
		if err != nil {
			return RevalidateAborted, err
		}
		if status == RevalidateAborted {
			worst = RevalidateMoved
			continue
		}
		live = append(live, c)
		if status == RevalidateMoved {
			worst = RevalidateMoved
		}
	}
	u.children = live
	if len(u.children) == 0 {
		u.atEOF = true
	}
	return worst, nil
}

var _ Iterator = (*UnionIterator)(nil)

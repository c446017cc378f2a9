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

// NotIterator yields every id in [1, maxDocID] not produced by child, as
// virtual records (spec.md §4.5.5).
type NotIterator struct {
	child    Iterator
	maxDocID record.DocID
	weight   float64

	cursor record.DocID
	atEOF  bool

	current    record.Result
	hasCurrent bool

	// childAborted is set once the child's Revalidate reports Aborted;
	// thereafter the child is treated as permanently empty (NOT degrades
	// to a wildcard over [1, maxDocID]) rather than propagating the abort.
	childAborted bool
}

// NewNotIterator builds a NOT combinator over child.
func NewNotIterator(child Iterator, maxDocID record.DocID, weight float64) *NotIterator {
	return &NotIterator{child: child, maxDocID: maxDocID, weight: weight}
}

func (n *NotIterator) childIsLive() bool {
	return !n.childAborted && n.child != nil && !n.child.AtEOF()
}

// advanceChildTo ensures the child is positioned at or past cursor,
// advancing it via skip_to if it has fallen behind.
func (n *NotIterator) advanceChildTo(ctx context.Context, cursor record.DocID) error {
	if !n.childIsLive() {
		return nil
	}
	if cur, has := n.child.Current(); has && cur.DocID >= cursor {
		return nil
	}
	if n.child.LastDocID() >= cursor {
		return nil
	}
	_, _, _, err := n.child.SkipTo(ctx, cursor)
	return err
}

func (n *NotIterator) childMatches(cursor record.DocID) bool {
	if !n.childIsLive() {
		return false
	}
	cur, has := n.child.Current()
	return has && cur.DocID == cursor
}

// Read implements Iterator.
func (n *NotIterator) Read(ctx context.Context) (record.Result, bool, error) {
	if n.atEOF {
		return record.Result{}, false, nil
	}
	for {
		if err := checkDeadline(ctx, "not"); err != nil {
			n.atEOF = true
			return record.Result{}, false, err
		}
		n.cursor++
		if n.cursor > n.maxDocID {
			n.atEOF = true
			n.hasCurrent = false
			return record.Result{}, false, nil
		}

		if err := n.advanceChildTo(ctx, n.cursor); err != nil {
			n.atEOF = true
			return record.Result{}, false, err
		}
		if n.childMatches(n.cursor) {
			continue
		}

		rec := record.Virtual(n.cursor, record.FieldMask{}, n.weight)
		n.current, n.hasCurrent = rec, true
		return rec, true, nil
	}
}

// SkipTo implements Iterator.
func (n *NotIterator) SkipTo(ctx context.Context, target record.DocID) (record.Result, SkipOutcome, bool, error) {
	if target > n.maxDocID {
		n.atEOF = true
		return record.Result{}, SkipNotFound, false, nil
	}

	if !n.childIsLive() || n.child.LastDocID() > target {
		n.cursor = target
		rec := record.Virtual(target, record.FieldMask{}, n.weight)
		n.current, n.hasCurrent = rec, true
		return rec, SkipFound, true, nil
	}

	if n.child.LastDocID() == target {
		next := target + 1
		if next > n.maxDocID {
			n.atEOF = true
			n.hasCurrent = false
			return record.Result{}, SkipNotFound, false, nil
		}
		n.cursor = next
		rec := record.Virtual(next, record.FieldMask{}, n.weight)
		n.current, n.hasCurrent = rec, true
		return rec, SkipNotFound, true, nil
	}

	// child.LastDocID() < target: let the child catch up.
	_, outcome, ok, err := n.child.SkipTo(ctx, target)
	if err != nil {
		n.atEOF = true
		return record.Result{}, SkipNotFound, false, err
	}
	if ok && outcome == SkipFound {
		rec, _, ok, err := n.SkipTo(ctx, target+1)
		return rec, SkipNotFound, ok, err
	}

	n.cursor = target
	rec := record.Virtual(target, record.FieldMask{}, n.weight)
	n.current, n.hasCurrent = rec, true
	return rec, SkipFound, true, nil
}

// Rewind implements Iterator.
func (n *NotIterator) Rewind() {
	n.cursor = 0
	n.atEOF = false
	n.hasCurrent = false
	n.childAborted = false
	if n.child != nil {
		n.child.Rewind()
	}
}

// NumEstimated implements Iterator: a non-binding upper bound, the full
// negation universe size.
func (n *NotIterator) NumEstimated() uint64 { return uint64(n.maxDocID) }

// LastDocID implements Iterator.
func (n *NotIterator) LastDocID() record.DocID { return n.cursor }

// AtEOF implements Iterator.
func (n *NotIterator) AtEOF() bool { return n.atEOF }

// Current implements Iterator.
func (n *NotIterator) Current() (record.Result, bool) { return n.current, n.hasCurrent }

// Revalidate implements Iterator: an Aborted child permanently degrades
// NOT to a wildcard over its full range rather than aborting itself,
// per spec.md §4.5.5.
func (n *NotIterator) Revalidate(ctx context.Context) (RevalidateStatus, error) {
	if n.childAborted || n.child == nil {
		return RevalidateOK, nil
	}
	status, err := n.child.Revalidate(ctx)
	if err != nil {
		return RevalidateAborted, err
	}
	if status == RevalidateAborted {
		n.childAborted = true
	}
	return RevalidateOK, nil
}

var _ Iterator = (*NotIterator)(nil)

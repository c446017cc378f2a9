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

	"github.com/redisearch-rs/searchcore/pkg/numtree"
)

// RangeTreeSnapshot is the (tree, revision) pair a NumericIterator
// watches for restructuring, per spec.md §4.5.2.
type RangeTreeSnapshot struct {
	Tree     *numtree.Tree
	Revision uint32
}

// NumericIterator wraps the base iterator with an optional range-tree
// snapshot: revalidate aborts outright if the tree has restructured since
// construction, since the reader may point at a range the split/rotation
// freed (spec.md §4.5.2).
type NumericIterator struct {
	*baseIterator
	snapshot *RangeTreeSnapshot
}

// NewNumericIterator builds a NumericIterator over a numeric range's
// reader. snapshot may be nil when the caller does not need restructure
// detection (e.g. a range known to be retained for the query's duration).
func NewNumericIterator(rng *numtree.NumericRange, snapshot *RangeTreeSnapshot, estimated uint64) *NumericIterator {
	return &NumericIterator{
		baseIterator: newBaseIterator(rng.Reader(), nil, false, estimated),
		snapshot:     snapshot,
	}
}

// Revalidate implements Iterator, checking the range tree's revision
// before delegating to the base iterator.
func (n *NumericIterator) Revalidate(ctx context.Context) (RevalidateStatus, error) {
	if n.snapshot != nil && n.snapshot.Tree.RevisionID() != n.snapshot.Revision {
		n.atEOF = true
		n.hasCurrent = false
		return RevalidateAborted, nil
	}
	return n.baseIterator.Revalidate(ctx)
}

var _ Iterator = (*NumericIterator)(nil)

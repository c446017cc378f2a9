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

	"github.com/redisearch-rs/searchcore/pkg/invindex"
)

// ExistingDocsIndex is the handle a WildcardIterator snapshots at
// construction, used to detect the "existing documents" doc-ids-only
// index being collected or reallocated by GC (spec.md §4.5.4).
type ExistingDocsIndex struct {
	Index *invindex.InvertedIndex
}

// WildcardIterator reads every doc id from the "existing documents"
// doc-ids-only index, used for NOT's negation universe and match-all
// queries (spec.md §4.5.4).
type WildcardIterator struct {
	*baseIterator
	snapshot *ExistingDocsIndex
	// index is snapshot.Index as it stood at construction.
	index *invindex.InvertedIndex
}

// NewWildcardIterator builds a WildcardIterator over the snapshot's
// current index. A nil *InvertedIndex within snapshot (already collected
// by GC) yields an iterator that is immediately at EOF.
func NewWildcardIterator(snapshot *ExistingDocsIndex) *WildcardIterator {
	w := &WildcardIterator{snapshot: snapshot}
	if snapshot == nil || snapshot.Index == nil {
		w.baseIterator = newBaseIterator(nil, nil, false, 0)
		w.baseIterator.atEOF = true
		return w
	}
	w.index = snapshot.Index
	w.baseIterator = newBaseIterator(snapshot.Index.Reader(), nil, false, snapshot.Index.UniqueDocs())
	return w
}

// Revalidate implements Iterator: aborts if the existing-docs pointer
// has been nulled or reallocated since construction.
func (w *WildcardIterator) Revalidate(ctx context.Context) (RevalidateStatus, error) {
	if w.snapshot == nil || w.snapshot.Index == nil || w.snapshot.Index != w.index {
		w.atEOF = true
		return RevalidateAborted, nil
	}
	return w.baseIterator.Revalidate(ctx)
}

var _ Iterator = (*WildcardIterator)(nil)

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
	"github.com/redisearch-rs/searchcore/pkg/record"
)

// TermIterator wraps the base iterator with an owned query-term
// descriptor, stamping it onto every emitted Term record (spec.md
// §4.5.3).
type TermIterator struct {
	*baseIterator
	ref *record.QueryTermRef
}

// NewTermIterator builds a TermIterator over an inverted index reader for
// a single query term. allowsDup should mirror the owning index's
// codec.AllowsDuplicates().
func NewTermIterator(reader *invindex.Reader, expiration ExpirationChecker, allowsDup bool, ref *record.QueryTermRef, estimated uint64) *TermIterator {
	return &TermIterator{
		baseIterator: newBaseIterator(reader, expiration, allowsDup, estimated),
		ref:          ref,
	}
}

func (t *TermIterator) stamp(rec record.Result) record.Result {
	if rec.Kind == record.KindTerm {
		rec.QueryTermRef = t.ref
	}
	return rec
}

// Read implements Iterator, stamping the term descriptor onto the
// decoded record.
func (t *TermIterator) Read(ctx context.Context) (record.Result, bool, error) {
	rec, ok, err := t.baseIterator.Read(ctx)
	if !ok {
		return rec, ok, err
	}
	rec = t.stamp(rec)
	t.current = rec
	return rec, true, nil
}

// SkipTo implements Iterator, stamping the term descriptor onto the
// decoded record.
func (t *TermIterator) SkipTo(ctx context.Context, target record.DocID) (record.Result, SkipOutcome, bool, error) {
	rec, outcome, ok, err := t.baseIterator.SkipTo(ctx, target)
	if !ok {
		return rec, outcome, ok, err
	}
	rec = t.stamp(rec)
	t.current = rec
	return rec, outcome, true, nil
}

var _ Iterator = (*TermIterator)(nil)

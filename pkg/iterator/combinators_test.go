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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redisearch-rs/searchcore/pkg/record"
)

// fakeIterator is a minimal Iterator over a fixed, sorted slice of doc
// ids, used to exercise the combinators without a real inverted index.
type fakeIterator struct {
	docs    []record.DocID
	pos     int
	atEOF   bool
	current record.Result
	has     bool
	last    record.DocID
}

func newFake(docs ...record.DocID) *fakeIterator {
	return &fakeIterator{docs: docs}
}

func (f *fakeIterator) Read(ctx context.Context) (record.Result, bool, error) {
	if f.atEOF || f.pos >= len(f.docs) {
		f.atEOF = true
		f.has = false
		return record.Result{}, false, nil
	}
	rec := record.Virtual(f.docs[f.pos], record.FieldMask{}, 1.0)
	f.pos++
	f.current, f.has = rec, true
	f.last = rec.DocID
	return rec, true, nil
}

func (f *fakeIterator) SkipTo(ctx context.Context, target record.DocID) (record.Result, SkipOutcome, bool, error) {
	for f.pos < len(f.docs) && f.docs[f.pos] < target {
		f.pos++
	}
	if f.pos >= len(f.docs) {
		f.atEOF = true
		f.has = false
		return record.Result{}, SkipNotFound, false, nil
	}
	rec := record.Virtual(f.docs[f.pos], record.FieldMask{}, 1.0)
	outcome := SkipNotFound
	if rec.DocID == target {
		outcome = SkipFound
	}
	f.pos++
	f.current, f.has = rec, true
	f.last = rec.DocID
	return rec, outcome, true, nil
}

func (f *fakeIterator) Rewind() {
	f.pos, f.atEOF, f.has, f.last = 0, false, false, 0
}
func (f *fakeIterator) NumEstimated() uint64      { return uint64(len(f.docs)) }
func (f *fakeIterator) LastDocID() record.DocID   { return f.last }
func (f *fakeIterator) AtEOF() bool               { return f.atEOF }
func (f *fakeIterator) Current() (record.Result, bool) { return f.current, f.has }
func (f *fakeIterator) Revalidate(ctx context.Context) (RevalidateStatus, error) {
	return RevalidateOK, nil
}

var _ Iterator = (*fakeIterator)(nil)

func drain(t *testing.T, it Iterator) []record.DocID {
	t.Helper()
	var out []record.DocID
	for {
		rec, ok, err := it.Read(context.Background())
		require.NoError(t, err)
		if !ok {
			break
		}
		out = append(out, rec.DocID)
	}
	return out
}

func TestNotIteratorExcludesChild(t *testing.T) {
	child := newFake(2, 4, 6)
	n := NewNotIterator(child, 7, 1.0)
	got := drain(t, n)
	assert.Equal(t, []record.DocID{1, 3, 5, 7}, got)
}

func TestNotIteratorSkipTo(t *testing.T) {
	child := newFake(2, 4, 6)
	n := NewNotIterator(child, 10, 1.0)

	rec, outcome, ok, err := n.SkipTo(context.Background(), 4)
	require.NoError(t, err)
	require.True(t, ok)
	// 4 is excluded (present in the child), so NOT retries past it and
	// lands on the next surviving id, 5. That is not the requested
	// target, so the outcome is NotFound(5) per spec.md §4.5.5 case (c).
	assert.Equal(t, SkipNotFound, outcome)
	assert.Equal(t, record.DocID(5), rec.DocID)
}

func TestOptionalIteratorWeighting(t *testing.T) {
	child := newFake(2, 4)
	o := NewOptionalIterator(child, 4, 2.0)

	var weights []float64
	for i := 0; i < 4; i++ {
		rec, ok, err := o.Read(context.Background())
		require.NoError(t, err)
		require.True(t, ok)
		weights = append(weights, rec.Weight)
	}
	assert.Equal(t, []float64{0, 2.0, 0, 2.0}, weights)
}

func TestIntersectIteratorMatchesCommonDocs(t *testing.T) {
	a := newFake(1, 2, 3, 4)
	b := newFake(2, 3, 5)
	it := NewIntersectIterator([]Iterator{a, b}, 1.0)

	got := drain(t, it)
	assert.Equal(t, []record.DocID{2, 3}, got)
}

func TestUnionIteratorMergesAllDocs(t *testing.T) {
	a := newFake(1, 3, 5)
	b := newFake(2, 3, 4)
	it := NewUnionIterator([]Iterator{a, b}, 1.0)

	got := drain(t, it)
	assert.Equal(t, []record.DocID{1, 2, 3, 4, 5}, got)
}

func TestUnionIteratorEmptyChildrenIsEOF(t *testing.T) {
	it := NewUnionIterator(nil, 1.0)
	assert.True(t, it.AtEOF())
	_, ok, err := it.Read(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

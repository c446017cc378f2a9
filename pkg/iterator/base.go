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

// ExpirationChecker consults a field-expiration oracle for a doc id. A
// nil ExpirationChecker means no expiration is configured, per spec.md
// §4.5.1.
type ExpirationChecker interface {
	IsExpired(doc record.DocID) bool
}

// baseIterator is the Inverted-Index Iterator (spec.md §4.5.1): a reader
// plus an ExpirationChecker. Read dispatches on every call to one of four
// read variants, and SkipTo branches between two behaviors, both keyed
// on fields fixed at construction: whether expiration is active and
// whether the underlying codec allows duplicate doc ids.
type baseIterator struct {
	reader     *invindex.Reader
	expiration ExpirationChecker
	allowsDup  bool

	// peeked holds a record already decoded from reader but not yet
	// returned to the caller, used by the multi-value specializations to
	// look one record ahead when consuming duplicates of the current doc.
	peeked *record.Result

	current    record.Result
	hasCurrent bool
	atEOF      bool
	lastDocID  record.DocID
	estimated  uint64
}

func newBaseIterator(reader *invindex.Reader, expiration ExpirationChecker, allowsDup bool, estimated uint64) *baseIterator {
	return &baseIterator{reader: reader, expiration: expiration, allowsDup: allowsDup, estimated: estimated}
}

func (b *baseIterator) nextRaw() (record.Result, bool, error) {
	if b.peeked != nil {
		rec := *b.peeked
		b.peeked = nil
		return rec, true, nil
	}
	return b.reader.NextRecord()
}

// consumeDuplicatesOf advances past any records sharing doc's doc id,
// buffering the first record with a different doc id (or leaving peeked
// nil at EOF) for the next call, per §4.5.1's multi-value note.
func (b *baseIterator) consumeDuplicatesOf(doc record.DocID) error {
	for {
		next, ok, err := b.reader.NextRecord()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if next.DocID == doc {
			continue
		}
		b.peeked = &next
		return nil
	}
}

func (b *baseIterator) readDefault(ctx context.Context) (record.Result, bool, error) {
	return b.nextRaw()
}

func (b *baseIterator) readSkipMulti(ctx context.Context) (record.Result, bool, error) {
	rec, ok, err := b.nextRaw()
	if err != nil || !ok {
		return rec, ok, err
	}
	if err := b.consumeDuplicatesOf(rec.DocID); err != nil {
		return record.Result{}, false, err
	}
	return rec, true, nil
}

func (b *baseIterator) readCheckExpiration(ctx context.Context) (record.Result, bool, error) {
	for {
		if err := checkDeadline(ctx, "base"); err != nil {
			return record.Result{}, false, err
		}
		rec, ok, err := b.nextRaw()
		if err != nil || !ok {
			return rec, ok, err
		}
		if b.expiration.IsExpired(rec.DocID) {
			continue
		}
		return rec, true, nil
	}
}

func (b *baseIterator) readSkipMultiCheckExpiration(ctx context.Context) (record.Result, bool, error) {
	for {
		if err := checkDeadline(ctx, "base"); err != nil {
			return record.Result{}, false, err
		}
		rec, ok, err := b.nextRaw()
		if err != nil || !ok {
			return rec, ok, err
		}
		if b.expiration.IsExpired(rec.DocID) {
			continue
		}
		if err := b.consumeDuplicatesOf(rec.DocID); err != nil {
			return record.Result{}, false, err
		}
		return rec, true, nil
	}
}

func (b *baseIterator) dispatchRead(ctx context.Context) (record.Result, bool, error) {
	switch {
	case b.expiration == nil && !b.allowsDup:
		return b.readDefault(ctx)
	case b.expiration == nil && b.allowsDup:
		return b.readSkipMulti(ctx)
	case b.expiration != nil && !b.allowsDup:
		return b.readCheckExpiration(ctx)
	default:
		return b.readSkipMultiCheckExpiration(ctx)
	}
}

// Read implements Iterator.
func (b *baseIterator) Read(ctx context.Context) (record.Result, bool, error) {
	if b.atEOF {
		return record.Result{}, false, nil
	}
	if err := checkDeadline(ctx, "base"); err != nil {
		b.atEOF = true
		return record.Result{}, false, err
	}
	rec, ok, err := b.dispatchRead(ctx)
	if err != nil {
		b.atEOF = true
		return record.Result{}, false, err
	}
	if !ok {
		b.atEOF = true
		b.hasCurrent = false
		return record.Result{}, false, nil
	}
	b.current, b.hasCurrent = rec, true
	b.lastDocID = rec.DocID
	return rec, true, nil
}

// SkipTo implements Iterator, dispatching to skip_to_default or
// skip_to_check_expiration per §4.5.1.
func (b *baseIterator) SkipTo(ctx context.Context, target record.DocID) (record.Result, SkipOutcome, bool, error) {
	if b.atEOF {
		return record.Result{}, SkipNotFound, false, nil
	}
	if err := checkDeadline(ctx, "base"); err != nil {
		b.atEOF = true
		return record.Result{}, SkipNotFound, false, err
	}

	b.peeked = nil
	rec, ok, err := b.reader.SeekRecord(target)
	if err != nil {
		b.atEOF = true
		return record.Result{}, SkipNotFound, false, err
	}
	if !ok {
		b.atEOF = true
		b.hasCurrent = false
		return record.Result{}, SkipNotFound, false, nil
	}

	outcome := SkipFound
	if rec.DocID != target {
		outcome = SkipNotFound
	}

	if b.expiration != nil && b.expiration.IsExpired(rec.DocID) {
		// Fall through to the configured read to advance past it.
		next, ok2, err2 := b.dispatchRead(ctx)
		if err2 != nil {
			b.atEOF = true
			return record.Result{}, SkipNotFound, false, err2
		}
		if !ok2 {
			b.atEOF = true
			b.hasCurrent = false
			return record.Result{}, SkipNotFound, false, nil
		}
		b.current, b.hasCurrent = next, true
		b.lastDocID = next.DocID
		return next, SkipNotFound, true, nil
	}

	if b.allowsDup {
		if err := b.consumeDuplicatesOf(rec.DocID); err != nil {
			b.atEOF = true
			return record.Result{}, SkipNotFound, false, err
		}
	}

	b.current, b.hasCurrent = rec, true
	b.lastDocID = rec.DocID
	return rec, outcome, true, nil
}

// Rewind implements Iterator.
func (b *baseIterator) Rewind() {
	if b.reader == nil {
		b.atEOF = true
		return
	}
	b.reader.Reset()
	b.peeked = nil
	b.hasCurrent = false
	b.atEOF = false
	b.lastDocID = 0
}

// NumEstimated implements Iterator.
func (b *baseIterator) NumEstimated() uint64 { return b.estimated }

// LastDocID implements Iterator.
func (b *baseIterator) LastDocID() record.DocID { return b.lastDocID }

// AtEOF implements Iterator.
func (b *baseIterator) AtEOF() bool { return b.atEOF }

// Current implements Iterator.
func (b *baseIterator) Current() (record.Result, bool) { return b.current, b.hasCurrent }

// Revalidate re-synchronizes with the underlying reader after a GC
// apply, per spec.md §4.5.2/4.5.4 delegating to the base here: if the
// reader's gc_marker is stale, refresh its buffer pointers and re-seek
// last_doc_id. It reports OK on exact rediscovery, when no revalidation
// was needed at all, or when nothing had been read yet; it reports Moved
// on skip-over, or when the doc is gone and no later one remains (the
// iterator is then at EOF).
func (b *baseIterator) Revalidate(ctx context.Context) (RevalidateStatus, error) {
	if b.reader == nil {
		return RevalidateAborted, nil
	}
	if !b.reader.NeedsRevalidation() {
		return RevalidateOK, nil
	}

	if !b.hasCurrent {
		b.reader.Reset()
		return RevalidateOK, nil
	}
	b.reader.Reset()

	target := b.lastDocID
	rec, ok, err := b.reader.SeekRecord(target)
	if err != nil {
		b.atEOF = true
		return RevalidateAborted, err
	}
	if !ok {
		b.atEOF = true
		b.hasCurrent = false
		return RevalidateMoved, nil
	}
	b.current, b.hasCurrent = rec, true
	b.lastDocID = rec.DocID
	if rec.DocID == target {
		return RevalidateOK, nil
	}
	return RevalidateMoved, nil
}

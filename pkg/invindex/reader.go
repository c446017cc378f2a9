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

package invindex

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/redisearch-rs/searchcore/pkg/codec"
	"github.com/redisearch-rs/searchcore/pkg/ixconfig"
	"github.com/redisearch-rs/searchcore/pkg/record"
)

// Reader is a cursor over an InvertedIndex's blocks producing decoded
// records. It records the gc_marker seen at creation and exposes
// NeedsRevalidation so callers can detect a concurrent GC apply.
type Reader struct {
	index *InvertedIndex

	blockIdx int
	br       *bytes.Reader
	base     record.DocID // base the next decode in the current block deltas from

	gcMarkerSeen uint64
	lastDocID    record.DocID
	atEOF        bool
}

// Reader returns a fresh Reader positioned before the first record.
func (ix *InvertedIndex) Reader() *Reader {
	r := &Reader{index: ix}
	r.Reset()
	return r
}

// Flags returns the owning index's configuration flags.
func (r *Reader) Flags() ixconfig.Flags { return r.index.Flags }

// UniqueDocs returns the owning index's unique doc count.
func (r *Reader) UniqueDocs() uint64 { return r.index.UniqueDocs() }

// Reset restarts the reader at block 0 and re-synchronizes its cached
// gc_marker with the index's current one.
func (r *Reader) Reset() {
	r.blockIdx = 0
	r.lastDocID = 0
	r.atEOF = false
	r.gcMarkerSeen = r.index.GCMarker()
	r.positionAtBlock(0)
}

func (r *Reader) positionAtBlock(idx int) {
	r.index.mu.RLock()
	defer r.index.mu.RUnlock()

	r.blockIdx = idx
	if idx < 0 || idx >= len(r.index.Blocks) {
		r.br = nil
		return
	}
	b := r.index.Blocks[idx]
	r.br = b.Reader()
	r.base = r.blockBase(idx)
}

// blockBase returns the doc id the given block's first record deltas
// from, per the codec's base policy. Caller must hold index.mu (for
// read). Results are memoized in the index's baseCache, keyed by the
// gc_marker seen so an apply naturally invalidates stale entries.
func (r *Reader) blockBase(idx int) record.DocID {
	cacheKey := fmt.Sprintf("%d@%d", idx, r.index.gcMarker.Load())
	if v, ok := r.index.baseCache.Get(cacheKey); ok {
		return v.(record.DocID)
	}

	policy := codec.BaseOwnFirst
	if bs, ok := r.index.Codec.(codec.BaseSelector); ok {
		policy = bs.BasePolicy()
	}
	b := r.index.Blocks[idx]
	var base record.DocID
	switch {
	case policy == codec.BaseOwnFirst:
		base = b.FirstDocID
	case idx == 0:
		// Matches the writer: the very first block's first record deltas
		// from InvertedIndex.LastDocID as it stood before any record was
		// ever appended, i.e. the zero value, not this block's FirstDocID.
		base = 0
	default:
		base = r.index.Blocks[idx-1].LastDocID
	}
	r.index.baseCache.Add(cacheKey, base)
	return base
}

// NeedsRevalidation reports whether the index's gc_marker has advanced
// since this reader last synchronized with it.
func (r *Reader) NeedsRevalidation() bool {
	return r.index.GCMarker() != r.gcMarkerSeen
}

// RefreshBufferPointers re-materializes the reader's cached block reader
// from the block's current buffer, required after a GC apply may have
// rewritten the block in place.
func (r *Reader) RefreshBufferPointers() {
	r.index.mu.RLock()
	defer r.index.mu.RUnlock()

	if r.blockIdx < 0 || r.blockIdx >= len(r.index.Blocks) {
		r.br = nil
		return
	}
	consumed := 0
	if r.br != nil {
		consumed = len(r.index.Blocks[r.blockIdx].Buffer) - r.br.Len()
		if consumed < 0 {
			consumed = 0
		}
	}
	b := r.index.Blocks[r.blockIdx]
	nr := b.Reader()
	nr.Seek(int64(consumed), 0)
	r.br = nr
}

// NextRecord decodes the next record from the current block, advancing
// to the next non-empty block and re-basing as needed. It returns false
// at end-of-stream.
func (r *Reader) NextRecord() (record.Result, bool, error) {
	if r.atEOF {
		return record.Result{}, false, nil
	}
	for {
		if r.br == nil {
			r.atEOF = true
			return record.Result{}, false, nil
		}
		rec, ok, err := r.index.Codec.Decode(r.br, r.base)
		if err != nil {
			r.atEOF = true
			return record.Result{}, false, err
		}
		if ok {
			r.base = rec.DocID
			r.lastDocID = rec.DocID
			return rec, true, nil
		}
		// Current block exhausted: advance to the next block.
		r.positionAtBlock(r.blockIdx + 1)
		if r.br == nil {
			r.atEOF = true
			return record.Result{}, false, nil
		}
	}
}

// SeekRecord advances to the first record whose doc id is >= target,
// binary-searching across blocks by last_doc_id and then decoding
// linearly within the chosen block.
func (r *Reader) SeekRecord(target record.DocID) (record.Result, bool, error) {
	if !r.SkipTo(target) {
		r.atEOF = true
		return record.Result{}, false, nil
	}
	for {
		rec, ok, err := r.NextRecord()
		if err != nil || !ok {
			return rec, ok, err
		}
		if rec.DocID >= target {
			return rec, true, nil
		}
	}
}

// SkipTo positions the reader at the block containing target (or the
// first block whose first_doc_id > target) without decoding a record. It
// returns false if no such block exists.
func (r *Reader) SkipTo(target record.DocID) bool {
	r.index.mu.RLock()
	blocks := r.index.Blocks
	n := len(blocks)
	idx := sort.Search(n, func(i int) bool {
		return blocks[i].LastDocID >= target
	})
	r.index.mu.RUnlock()

	if idx >= n {
		r.atEOF = true
		r.positionAtBlock(n)
		return false
	}
	r.atEOF = false
	r.positionAtBlock(idx)
	return true
}

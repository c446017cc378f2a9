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

// Package invindex implements the InvertedIndex: an ordered sequence of
// IndexBlocks plus aggregate counters and a monotonically increasing
// gc_marker (spec.md §4.3). Mutation (append, GC apply) is serialized by
// a single writer lock per index; readers proceed concurrently and
// observe mutation only through the gc_marker epoch counter.
package invindex

import (
	"sync"
	"sync/atomic"

	"github.com/redisearch-rs/searchcore/pkg/block"
	"github.com/redisearch-rs/searchcore/pkg/codec"
	"github.com/redisearch-rs/searchcore/pkg/ixconfig"
	"github.com/redisearch-rs/searchcore/pkg/ixmetrics"
	"github.com/redisearch-rs/searchcore/pkg/lru"
	"github.com/redisearch-rs/searchcore/pkg/record"
)

// baseCacheSize bounds the per-index block-base lookup cache; one entry
// per (block index, gc_marker) pair that's actually been read keeps this
// far smaller than the block count in practice.
const baseCacheSize = 256

// InvertedIndex is the mapping, for a single term or numeric range, from
// its contents to the ordered list of documents containing it.
type InvertedIndex struct {
	Codec codec.Codec
	Flags ixconfig.Flags

	// mu guards Blocks and the counters below during append and GC apply.
	// Readers take only the read lock, and only briefly while locating or
	// opening a block; between those steps they treat gcMarker as the
	// synchronization point (the writer lock's release happens-before a
	// reader observing the new gcMarker value), per the teacher's index.go
	// `mu sync.RWMutex // guards following` convention, generalized to
	// this package's narrower single-writer/many-reader contract.
	mu sync.RWMutex

	Blocks []*block.Block

	NUniqueDocs    uint64
	LastDocID      record.DocID
	FieldMaskUnion record.FieldMask

	gcMarker atomic.Uint64

	// baseCache memoizes blockBase's policy lookup per (block index,
	// gc_marker) pair, grounded on the teacher's pkg/lru: many Readers
	// over the same index recompute the same block's base doc id, and a
	// GC apply invalidates the whole mapping by construction (the key
	// includes gc_marker, so stale entries simply age out via LRU
	// eviction rather than needing an explicit purge).
	baseCache *lru.Cache
}

// New returns an empty inverted index using c for record encoding.
func New(c codec.Codec, flags ixconfig.Flags) *InvertedIndex {
	return &InvertedIndex{Codec: c, Flags: flags, baseCache: lru.New(baseCacheSize)}
}

// GCMarker returns the current GC epoch counter.
func (ix *InvertedIndex) GCMarker() uint64 {
	return ix.gcMarker.Load()
}

func chooseBase(policy codec.BasePolicy, prevLast, ownFirst record.DocID) record.DocID {
	if policy == codec.BaseOwnFirst {
		return ownFirst
	}
	return prevLast
}

// AddRecord appends rec to the index, returning the net memory growth in
// bytes. Out-of-order doc ids (rec.DocID < LastDocID) are rejected as a
// no-op, returning a zero size delta, per spec.md §4.3's Append
// invariant: "the writer is expected to present records in order;
// out-of-order appends are rejected with a no-op and a zero size delta."
func (ix *InvertedIndex) AddRecord(rec record.Result) (int64, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	hasAny := len(ix.Blocks) > 0 || ix.NUniqueDocs > 0
	if hasAny && rec.DocID < ix.LastDocID {
		ixmetrics.AppendTotal.WithLabelValues("out_of_order").Inc()
		return 0, nil
	}

	if hasAny && !ix.Codec.AllowsDuplicates() && rec.DocID == ix.LastDocID {
		ix.Flags = ix.Flags.Set(ixconfig.HasMultiValue)
		ixmetrics.AppendTotal.WithLabelValues("duplicate_rejected").Inc()
		return 0, nil
	}

	isNewUniqueDoc := !hasAny || rec.DocID != ix.LastDocID

	var last *block.Block
	if n := len(ix.Blocks); n > 0 {
		last = ix.Blocks[n-1]
	}

	var sizeBefore int
	policy := codec.BaseOwnFirst
	if bs, ok := ix.Codec.(codec.BaseSelector); ok {
		policy = bs.BasePolicy()
	}

	if last != nil && last.NumEntries < ix.Codec.RecommendedBlockEntries() {
		sizeBefore = len(last.Buffer)
		base := chooseBase(policy, ix.LastDocID, rec.DocID)
		err := last.Append(ix.Codec, base, rec)
		if err == nil {
			grown := int64(len(last.Buffer) - sizeBefore)
			ix.commitAppend(rec, isNewUniqueDoc)
			ixmetrics.AppendTotal.WithLabelValues("accepted").Inc()
			ixmetrics.AppendBytes.Observe(float64(grown))
			return grown, nil
		}
		// Delta overflow or recommended-entry cap: fall through to a new block.
	}

	nb := block.New()
	base := chooseBase(policy, ix.LastDocID, rec.DocID)
	if err := nb.Append(ix.Codec, base, rec); err != nil {
		return 0, err
	}
	ix.appendBlockExact(nb)
	ix.commitAppend(rec, isNewUniqueDoc)
	grown := int64(len(nb.Buffer)) + blockOverheadBytes
	ixmetrics.AppendTotal.WithLabelValues("accepted").Inc()
	ixmetrics.AppendBytes.Observe(float64(grown))
	return grown, nil
}

// blockOverheadBytes approximates the fixed header cost of a new block
// (first/last doc id, entry count) for memory-growth accounting.
const blockOverheadBytes = 24

func (ix *InvertedIndex) commitAppend(rec record.Result, isNewUniqueDoc bool) {
	if isNewUniqueDoc {
		ix.NUniqueDocs++
	}
	ix.LastDocID = rec.DocID
	ix.FieldMaskUnion = ix.FieldMaskUnion.Union(rec.FieldMask)
}

// appendBlockExact grows Blocks by exactly one element per extension
// (spec.md §4.3's block-vector growth strategy), rather than relying on
// Go's amortized-doubling append, to avoid over-allocation for large
// indexes with many blocks.
func (ix *InvertedIndex) appendBlockExact(b *block.Block) {
	if len(ix.Blocks) == cap(ix.Blocks) {
		grown := make([]*block.Block, len(ix.Blocks), len(ix.Blocks)+1)
		copy(grown, ix.Blocks)
		ix.Blocks = grown
	}
	ix.Blocks = append(ix.Blocks, b)
}

// MemoryUsage returns an approximation of the index's current memory
// footprint: the sum of each block's buffer capacity plus fixed overhead.
func (ix *InvertedIndex) MemoryUsage() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	total := 0
	for _, b := range ix.Blocks {
		total += b.BufferCapacityBytes() + blockOverheadBytes
	}
	return total
}

// UniqueDocs returns the number of distinct doc ids contained across
// blocks.
func (ix *InvertedIndex) UniqueDocs() uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.NUniqueDocs
}

// Summary is the Writer interface's aggregate report.
type Summary struct {
	NumberOfDocs    uint64
	NumberOfEntries uint64
	LastDocID       record.DocID
	Flags           ixconfig.Flags
	NumberOfBlocks  int
	BlockEfficiency float64
	HasEfficiency   bool
}

// Summary reports aggregate index statistics, per the Writer interface.
func (ix *InvertedIndex) Summary() Summary {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var entries uint64
	var usedBytes, capBytes int
	for _, b := range ix.Blocks {
		entries += uint64(b.NumEntries)
		usedBytes += len(b.Buffer)
		capBytes += b.BufferCapacityBytes()
	}

	s := Summary{
		NumberOfDocs:    ix.NUniqueDocs,
		NumberOfEntries: entries,
		LastDocID:       ix.LastDocID,
		Flags:           ix.Flags,
		NumberOfBlocks:  len(ix.Blocks),
	}
	if capBytes > 0 {
		s.BlockEfficiency = float64(usedBytes) / float64(capBytes)
		s.HasEfficiency = true
	}
	return s
}

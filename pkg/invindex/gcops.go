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
	"time"

	"github.com/redisearch-rs/searchcore/pkg/block"
	"github.com/redisearch-rs/searchcore/pkg/gc"
	"github.com/redisearch-rs/searchcore/pkg/ixlog"
	"github.com/redisearch-rs/searchcore/pkg/ixmetrics"
	"github.com/redisearch-rs/searchcore/pkg/record"
)

// ScanGC reads the index's committed state without taking the writer
// lock, classifying each block via block.Repair against docExists. It
// returns nil if no block needs repair (every block is Unchanged).
func (ix *InvertedIndex) ScanGC(docExists func(record.DocID) bool, onRepair func(record.Result, *block.Block)) (*gc.GcScanDelta, error) {
	start := time.Now()
	defer func() { ixmetrics.GCScanSeconds.Observe(time.Since(start).Seconds()) }()

	ix.mu.RLock()
	blocks := make([]*block.Block, len(ix.Blocks))
	copy(blocks, ix.Blocks)
	ix.mu.RUnlock()

	if len(blocks) == 0 {
		return nil, nil
	}

	var deltas []gc.BlockGcScanResult
	for i, b := range blocks {
		var prevLast record.DocID
		if i > 0 {
			prevLast = blocks[i-1].LastDocID
		}
		outcome, err := b.Repair(ix.Codec, prevLast, docExists, onRepair)
		if err != nil {
			return nil, err
		}
		if outcome.Kind == block.RepairUnchanged {
			continue
		}
		deltas = append(deltas, gc.BlockGcScanResult{BlockIdx: i, Outcome: outcome})
	}

	if len(deltas) == 0 {
		return nil, nil
	}

	lastIdx := len(blocks) - 1
	return &gc.GcScanDelta{
		LastBlockIdx:        lastIdx,
		LastBlockNumEntries: blocks[lastIdx].NumEntries,
		Deltas:              deltas,
	}, nil
}

// ApplyGC mutates the index under the writer lock according to delta,
// bumping gc_marker so readers revalidate. The last block may have
// received appends after the scan snapshot; ApplyGC detects this by
// comparing the live last block's entry count to the scan's snapshot and
// discards (and flags) a stale delta for it rather than risk clobbering
// concurrent appends.
func (ix *InvertedIndex) ApplyGC(delta *gc.GcScanDelta) gc.GcApplyInfo {
	if delta == nil {
		return gc.GcApplyInfo{}
	}

	start := time.Now()
	defer func() { ixmetrics.GCApplySeconds.Observe(time.Since(start).Seconds()) }()

	ix.mu.Lock()
	defer ix.mu.Unlock()

	info := gc.GcApplyInfo{}

	liveLastIdx := len(ix.Blocks) - 1
	lastBlockMutatedDuringScan := liveLastIdx != delta.LastBlockIdx ||
		(liveLastIdx >= 0 && ix.Blocks[liveLastIdx].NumEntries != delta.LastBlockNumEntries)

	// Apply bottom-up by index so earlier removals don't shift the
	// indices of actions still pending.
	ordered := make([]gc.BlockGcScanResult, len(delta.Deltas))
	copy(ordered, delta.Deltas)
	for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	}

	hadDeltaForLastBlock := false
	newBlocks := ix.Blocks
	for _, d := range ordered {
		if d.BlockIdx == delta.LastBlockIdx {
			hadDeltaForLastBlock = true
			if lastBlockMutatedDuringScan {
				continue // discard the stale action for the racing last block
			}
		}
		if d.BlockIdx < 0 || d.BlockIdx >= len(newBlocks) {
			continue
		}
		b := newBlocks[d.BlockIdx]

		switch d.Outcome.Kind {
		case block.RepairDelete:
			info.BytesFreed += int64(b.BufferCapacityBytes())
			info.EntriesRemoved += d.Outcome.UniqueDocsRemoved
			newBlocks = append(newBlocks[:d.BlockIdx], newBlocks[d.BlockIdx+1:]...)
		case block.RepairReplace:
			before := int64(b.BufferCapacityBytes())
			var after int64
			for _, rb := range d.Outcome.Replacement {
				after += int64(rb.BufferCapacityBytes())
			}
			info.BytesFreed += before
			info.BytesAllocated += after
			info.EntriesRemoved += d.Outcome.UniqueDocsRemoved

			replacement := append([]*block.Block{}, d.Outcome.Replacement...)
			tail := append([]*block.Block{}, newBlocks[d.BlockIdx+1:]...)
			newBlocks = append(newBlocks[:d.BlockIdx], replacement...)
			newBlocks = append(newBlocks, tail...)
		}
	}

	if lastBlockMutatedDuringScan || (!hadDeltaForLastBlock && ix.blocksChangedSinceScan(delta)) {
		info.IgnoredLastBlock = true
	}

	ix.NUniqueDocs -= info.EntriesRemoved
	ix.Blocks = shrinkToFit(newBlocks)
	ix.gcMarker.Add(1)

	ixmetrics.GCBytesFreed.Add(float64(info.BytesFreed))
	ixmetrics.GCBytesAllocated.Add(float64(info.BytesAllocated))
	if info.IgnoredLastBlock {
		ixmetrics.GCIgnoredLastBlock.Inc()
		ixlog.Warnw("gc apply discarded stale last-block delta",
			"lastBlockIdx", delta.LastBlockIdx,
			"gcMarker", ix.gcMarker.Load())
	}
	ixlog.Debugw("gc apply committed",
		"bytesFreed", info.BytesFreed,
		"bytesAllocated", info.BytesAllocated,
		"entriesRemoved", info.EntriesRemoved,
		"gcMarker", ix.gcMarker.Load())
	return info
}

// blocksChangedSinceScan reports whether writes occurred to the last
// block between scan and apply even when the scan produced no delta for
// it at all, so callers can still schedule a follow-up scan.
func (ix *InvertedIndex) blocksChangedSinceScan(delta *gc.GcScanDelta) bool {
	if delta.LastBlockIdx < 0 || delta.LastBlockIdx >= len(ix.Blocks) {
		return true
	}
	return ix.Blocks[delta.LastBlockIdx].NumEntries != delta.LastBlockNumEntries
}

// shrinkToFit returns a slice with capacity exactly len(blocks), the GC
// apply phase's counterpart to appendBlockExact's one-at-a-time growth.
func shrinkToFit(blocks []*block.Block) []*block.Block {
	if cap(blocks) == len(blocks) {
		return blocks
	}
	fit := make([]*block.Block, len(blocks))
	copy(fit, blocks)
	return fit
}

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

// Package gc defines the data exchanged between the GC scan and apply
// phases (spec.md §4.6): a GcScanDelta describing per-block repair
// actions, and a GcApplyInfo describing what the applier actually did.
// The scan/apply logic itself lives on invindex.InvertedIndex, which is
// the only type with access to the blocks under lock.
package gc

import "github.com/redisearch-rs/searchcore/pkg/block"

// BlockGcScanResult is one block's repair outcome discovered during scan,
// keyed by its index at scan time. Unchanged blocks are not enumerated.
type BlockGcScanResult struct {
	BlockIdx int
	Outcome  block.RepairOutcome
}

// GcScanDelta is the output of the scan phase: a snapshot of what should
// happen to each block, plus enough information about the last block to
// let apply detect concurrent appends that raced the scan.
type GcScanDelta struct {
	LastBlockIdx        int
	LastBlockNumEntries uint16
	Deltas              []BlockGcScanResult
}

// GcApplyInfo is returned by the apply phase.
type GcApplyInfo struct {
	BytesFreed       int64
	BytesAllocated   int64
	EntriesRemoved   uint64
	IgnoredLastBlock bool
}

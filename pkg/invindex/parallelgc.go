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
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/redisearch-rs/searchcore/pkg/gc"
	"github.com/redisearch-rs/searchcore/pkg/record"
)

// ScanTarget pairs an index with the doc-existence predicate its scan
// should use (distinct indexes may belong to distinct fields with
// different expiration/tombstone sources).
type ScanTarget struct {
	Index     *InvertedIndex
	DocExists func(record.DocID) bool
}

// ScanResult is one target's scan outcome, nil Delta meaning no repair
// is needed for that index.
type ScanResult struct {
	Index *InvertedIndex
	Delta *gc.GcScanDelta
}

// ParallelScanGC runs ScanGC concurrently across targets, per spec.md §5's
// "cross-index operations may execute in parallel": scans never take a
// writer lock, so there is no cross-target coordination needed beyond
// collecting results. Grounded on the teacher's `golang.org/x/sync`
// dependency; errgroup.WithContext cancels the remaining scans as soon as
// any one fails.
func ParallelScanGC(ctx context.Context, targets []ScanTarget) ([]ScanResult, error) {
	results := make([]ScanResult, len(targets))
	g, ctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			delta, err := t.Index.ScanGC(t.DocExists, nil)
			if err != nil {
				return err
			}
			results[i] = ScanResult{Index: t.Index, Delta: delta}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ApplyAll applies every non-nil delta in results, each under its own
// index's writer lock. Applies are serialized here (one writer lock per
// index prevents true parallelism from helping this phase, unlike scan).
func ApplyAll(results []ScanResult) []gc.GcApplyInfo {
	infos := make([]gc.GcApplyInfo, 0, len(results))
	for _, r := range results {
		if r.Delta == nil {
			continue
		}
		infos = append(infos, r.Index.ApplyGC(r.Delta))
	}
	return infos
}

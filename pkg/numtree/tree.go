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

package numtree

import (
	"math"
	"sort"
	"sync"

	"github.com/redisearch-rs/searchcore/pkg/ixconfig"
	"github.com/redisearch-rs/searchcore/pkg/ixmetrics"
	"github.com/redisearch-rs/searchcore/pkg/record"
)

// AddResult reports the size/count effects of one Tree.Add call, per the
// External Interfaces §6 "Numeric Range Tree Interface" contract.
type AddResult struct {
	SizeDelta      int64
	NumRecords     int32
	Changed        bool
	NumRangesDelta int32
	NumLeavesDelta int32
}

func (a *AddResult) merge(b AddResult) {
	a.SizeDelta += b.SizeDelta
	a.NumRecords += b.NumRecords
	a.Changed = a.Changed || b.Changed
	a.NumRangesDelta += b.NumRangesDelta
	a.NumLeavesDelta += b.NumLeavesDelta
}

// Tree is the arena-backed AVL numeric range tree (spec.md §4.4). A
// single sync.RWMutex serializes Add, matching the writer side of the
// inverted index's single-writer discipline; Find and RevisionID may run
// concurrently with each other but not with Add.
type Tree struct {
	mu sync.RWMutex

	// Name labels this tree's TreeRevisions gauge series; callers
	// embedding several trees (one per numeric field) should set it
	// before the first Add to keep series distinguishable.
	Name string

	arena arena
	root  nodeIndex

	compressFloats bool

	NumRanges           uint32
	NumLeaves           uint32
	NumEntries          uint64
	InvertedIndexesSize int64
	EmptyLeaves         uint32
	LastDocID           record.DocID

	revisionID uint32
}

// New returns an empty numeric range tree.
func New(compressFloats bool) *Tree {
	t := &Tree{root: invalidIndex, compressFloats: compressFloats}
	return t
}

// RevisionID returns the tree's current structural revision counter,
// incremented once per Add that changed the tree's structure: a split,
// any rotation, or a retained range dropped past the depth cap.
func (t *Tree) RevisionID() uint32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.revisionID
}

// Add inserts (doc, value) into the tree, creating the root leaf on the
// first call. maxDepthRange caps how deep an internal node may sit while
// still retaining its own range (spec.md §4.4); multi marks whether this
// doc id may already exist in the tree (affecting cardinality/uniqueness
// bookkeeping the caller performs via the returned NumRecords).
func (t *Tree) Add(doc record.DocID, value float64, multi bool, maxDepthRange int) (AddResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.root == invalidIndex {
		t.root = t.arena.alloc(node{rng: NewRange(t.compressFloats)})
		t.NumRanges = 1
		t.NumLeaves = 1
	}

	rv, err := t.addAt(t.root, 0, doc, value, maxDepthRange)
	if err != nil {
		return AddResult{}, err
	}

	t.NumEntries++
	t.InvertedIndexesSize += rv.SizeDelta
	if rv.Changed {
		t.revisionID++
		t.NumRanges = uint32(int32(t.NumRanges) + rv.NumRangesDelta)
		t.NumLeaves = uint32(int32(t.NumLeaves) + rv.NumLeavesDelta)
		ixmetrics.TreeRevisions.WithLabelValues(t.Name).Set(float64(t.revisionID))
	}
	if doc > t.LastDocID {
		t.LastDocID = doc
	}
	rv.NumRecords = 1
	return rv, nil
}

// addAt recursively inserts into the subtree rooted at idx.
func (t *Tree) addAt(idx nodeIndex, depth int, doc record.DocID, value float64, maxDepthRange int) (AddResult, error) {
	n := t.arena.get(idx)

	if !n.isLeaf() {
		var rv AddResult
		if n.rng != nil {
			grown, err := n.rng.Add(doc, value)
			if err != nil {
				return AddResult{}, err
			}
			rv.SizeDelta += grown
			// Cardinality is intentionally not updated for a retained
			// range: only leaf ranges track cardinality for splitting.
		}

		var childRV AddResult
		var err error
		if value < n.value {
			childRV, err = t.addAt(n.left, depth+1, doc, value, maxDepthRange)
		} else {
			childRV, err = t.addAt(n.right, depth+1, doc, value, maxDepthRange)
		}
		if err != nil {
			return AddResult{}, err
		}
		rv.merge(childRV)

		if res := t.arena.balance(idx); res.rotated {
			rv.Changed = true
			if res.droppedRange {
				rv.NumRangesDelta--
			}
		}

		n = t.arena.get(idx)
		if n.rng != nil && int(n.maxDepth) > maxDepthRange {
			n.rng = nil
			rv.Changed = true
			rv.NumRangesDelta--
		}
		return rv, nil
	}

	// Leaf: append, update cardinality, and split if the leaf has
	// outgrown its depth-scaled cardinality threshold.
	grown, err := n.rng.Add(doc, value)
	if err != nil {
		return AddResult{}, err
	}
	n.rng.UpdateCardinality(value)
	rv := AddResult{SizeDelta: grown}

	card := n.rng.Cardinality()
	if int(card) < ixconfig.SplitCardinality(depth) || n.rng.NumEntries() < ixconfig.MinCardinality {
		return rv, nil
	}

	if err := t.split(idx, maxDepthRange); err != nil {
		return AddResult{}, err
	}
	rv.Changed = true
	rv.NumRangesDelta += 2
	rv.NumLeavesDelta++
	return rv, nil
}

// split converts the leaf at idx into an internal node with two fresh
// leaf children, dividing its entries at the median value. The old
// leaf's own NumericRange becomes the new internal node's retained range
// as-is (it already covers the full union), unless the new node's
// maxDepth (1) already exceeds maxDepthRange, per spec.md §4.4's
// "Splitting a Leaf" procedure.
func (t *Tree) split(idx nodeIndex, maxDepthRange int) error {
	n := t.arena.get(idx)
	oldRange := n.rng

	values, err := oldRange.Values()
	if err != nil {
		return err
	}
	splitValue := medianSplitValue(values, oldRange.MinVal)

	leftRange := NewRange(t.compressFloats)
	rightRange := NewRange(t.compressFloats)

	reader := oldRange.Reader()
	for {
		rec, ok, rerr := reader.NextRecord()
		if rerr != nil {
			return rerr
		}
		if !ok {
			break
		}
		dst := rightRange
		if rec.Value < splitValue {
			dst = leftRange
		}
		if _, err := dst.Add(rec.DocID, rec.Value); err != nil {
			return err
		}
		dst.UpdateCardinality(rec.Value)
	}

	leftIdx := t.arena.alloc(node{rng: leftRange})
	rightIdx := t.arena.alloc(node{rng: rightRange})

	n = t.arena.get(idx)
	n.value = splitValue
	n.left = leftIdx
	n.right = rightIdx
	n.maxDepth = 1
	n.rng = oldRange // retained as-is: still the full union of entries.

	if int(n.maxDepth) > maxDepthRange {
		n.rng = nil
	}
	return nil
}

// medianSplitValue picks the split point for a leaf's entries: the
// element at the midpoint of the sorted values (spec.md §4.4's
// median-based split), nudged up by one representable float if it
// collides with the range's own minimum so the left child is always
// non-empty.
func medianSplitValue(values []float64, minVal float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)

	median := sorted[len(sorted)/2]
	if median == minVal {
		return math.Nextafter(median, math.Inf(1))
	}
	return median
}

// FindResult is one matching range returned by Find.
type FindResult struct {
	Range *NumericRange
}

// Find returns every range in the tree that overlaps [min, max],
// descending only into subtrees whose interval could contain a match and
// collecting any retained range encountered along the way, per spec.md
// §4.4's "Range Query" operation.
func (t *Tree) Find(min, max float64) []*NumericRange {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []*NumericRange
	t.findAt(t.root, min, max, &out)
	return out
}

func (t *Tree) findAt(idx nodeIndex, min, max float64, out *[]*NumericRange) {
	if idx == invalidIndex {
		return
	}
	n := t.arena.get(idx)

	if n.isLeaf() {
		*out = append(*out, n.rng)
		return
	}
	if n.rng != nil {
		*out = append(*out, n.rng)
	}

	if min < n.value {
		t.findAt(n.left, min, max, out)
	}
	if max >= n.value {
		t.findAt(n.right, min, max, out)
	}
}

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

// Package numtree implements the numeric range tree (spec.md §4.4): an
// arena-allocated AVL tree whose leaves (and some internal nodes) each
// own an inverted index covering a numeric interval.
package numtree

import (
	"math"

	"github.com/axiomhq/hyperloglog"

	"github.com/redisearch-rs/searchcore/pkg/codec"
	"github.com/redisearch-rs/searchcore/pkg/invindex"
	"github.com/redisearch-rs/searchcore/pkg/ixconfig"
	"github.com/redisearch-rs/searchcore/pkg/record"
)

// NumericRange is one leaf's (or retained) inverted index over a numeric
// interval, plus the accounting needed to decide when to split it.
type NumericRange struct {
	MinVal, MaxVal float64
	UniqueSum      float64

	cardCheck *hyperloglog.Sketch
	Entries   *invindex.InvertedIndex
	InvertSort bool
}

// NewRange returns an empty numeric range, using compressFloats to decide
// whether its inverted index stores float32 when precision allows it
// (spec.md §4.1.1's optional float compression).
func NewRange(compressFloats bool) *NumericRange {
	return &NumericRange{
		MinVal:    math.Inf(1),
		MaxVal:    math.Inf(-1),
		cardCheck: hyperloglog.New(),
		Entries:   invindex.New(codec.Numeric{CompressFloats: compressFloats}, ixconfig.StoreNumeric),
	}
}

// UpdateCardinality feeds value into the range's cardinality estimator.
// Cardinality is only ever updated at leaves, per spec.md §4.4 insertion
// step 4: "inserts the (doc_id, value) into any retained range (without
// updating that range's cardinality...)".
func (r *NumericRange) UpdateCardinality(value float64) {
	var buf [8]byte
	bits := math.Float64bits(value)
	for i := 0; i < 8; i++ {
		buf[i] = byte(bits >> (8 * i))
	}
	r.cardCheck.Insert(buf[:])
}

// Cardinality returns the current HyperLogLog cardinality estimate.
func (r *NumericRange) Cardinality() uint64 {
	return r.cardCheck.Estimate()
}

// Add inserts (doc, value) into the range's inverted index, extending
// MinVal/MaxVal and UniqueSum, and returns the memory growth in bytes.
func (r *NumericRange) Add(doc record.DocID, value float64) (int64, error) {
	if value < r.MinVal {
		r.MinVal = value
	}
	if value > r.MaxVal {
		r.MaxVal = value
	}
	r.UniqueSum += value

	rec := record.Numeric(doc, value, 1.0)
	return r.Entries.AddRecord(rec)
}

// NumEntries returns the number of encoded entries in the range's
// inverted index. The Numeric codec rejects a repeated doc id as a
// no-op, so a second value for the same doc is not stored.
func (r *NumericRange) NumEntries() int {
	total := 0
	for _, b := range r.Entries.Blocks {
		total += int(b.NumEntries)
	}
	return total
}

// NumDocs returns the number of unique docs in the range.
func (r *NumericRange) NumDocs() uint64 {
	return r.Entries.UniqueDocs()
}

// InvertedIndexSize returns the range's inverted index memory footprint.
func (r *NumericRange) InvertedIndexSize() int {
	return r.Entries.MemoryUsage()
}

// Reader returns a fresh reader over the range's numeric postings.
func (r *NumericRange) Reader() *invindex.Reader {
	return r.Entries.Reader()
}

// Values decodes and returns every value currently stored in the range,
// used by split's median-finding. It is O(n) and
// only ever called when a leaf is already large enough to be splitting.
func (r *NumericRange) Values() ([]float64, error) {
	reader := r.Reader()
	var out []float64
	for {
		rec, ok, err := reader.NextRecord()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, rec.Value)
	}
	return out, nil
}

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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redisearch-rs/searchcore/pkg/ixconfig"
	"github.com/redisearch-rs/searchcore/pkg/numtree/numtreetest"
	"github.com/redisearch-rs/searchcore/pkg/record"
)

func TestTreeAddSingleLeaf(t *testing.T) {
	tr := New(false)
	for i := 0; i < 5; i++ {
		rv, err := tr.Add(record.DocID(i+1), float64(i), false, ixconfig.DefaultMaxDepthRange)
		require.NoError(t, err)
		assert.False(t, rv.Changed)
	}
	assert.EqualValues(t, 0, tr.RevisionID())

	ranges := tr.Find(0, 4)
	require.Len(t, ranges, 1)
	assert.EqualValues(t, 5, ranges[0].NumDocs())
}

func TestTreeSplitsOnCardinalityThreshold(t *testing.T) {
	tr := New(false)
	var lastRV AddResult
	for i := 0; i < ixconfig.MinCardinality+4; i++ {
		rv, err := tr.Add(record.DocID(i+1), float64(i), false, ixconfig.DefaultMaxDepthRange)
		require.NoError(t, err)
		lastRV = rv
	}
	// The threshold crossing must have produced exactly one structural
	// change: one leaf becoming an internal node with two leaf children.
	assert.EqualValues(t, 2, tr.NumLeaves)
	assert.Greater(t, tr.RevisionID(), uint32(0))
	_ = lastRV

	lo := tr.Find(0, float64(ixconfig.MinCardinality/2))
	hi := tr.Find(float64(ixconfig.MinCardinality), float64(ixconfig.MinCardinality+4))
	assert.NotEmpty(t, lo)
	assert.NotEmpty(t, hi)
}

func TestTreeFindCoversFullDomain(t *testing.T) {
	tr := New(false)
	for i := 0; i < 64; i++ {
		_, err := tr.Add(record.DocID(i+1), float64(i)*1.5, false, ixconfig.DefaultMaxDepthRange)
		require.NoError(t, err)
	}

	// A full-domain query returns leaf ranges and possibly retained
	// ranges at internal nodes, which overlap leaves, so summing NumDocs
	// would double-count. This checks that ranges come back and that no
	// single range holds more than the 64 docs inserted.
	ranges := tr.Find(-1_000_000, 1_000_000)
	require.NotEmpty(t, ranges)

	var maxDocsSeen uint64
	for _, r := range ranges {
		if n := r.NumDocs(); n > maxDocsSeen {
			maxDocsSeen = n
		}
	}
	assert.LessOrEqual(t, maxDocsSeen, uint64(64))
	assert.Greater(t, maxDocsSeen, uint64(0))
}

func TestTreeRevisionIDAdvancesUnderLoad(t *testing.T) {
	tr := New(true)
	numtreetest.PopulateUniform(t, tr, 2000, 10_000, 42, ixconfig.DefaultMaxDepthRange)

	assert.Greater(t, tr.RevisionID(), uint32(0))
	assert.Greater(t, tr.NumLeaves, uint32(1))
	assert.EqualValues(t, 2000, tr.NumEntries)
}

func TestMedianSplitValueAvoidsMin(t *testing.T) {
	values := []float64{1, 1, 1, 1}
	got := medianSplitValue(values, 1)
	assert.Greater(t, got, 1.0)
}

func TestMedianSplitValueOrdinary(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	got := medianSplitValue(values, 1)
	assert.Equal(t, 3.0, got)
}

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

package invindex_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redisearch-rs/searchcore/pkg/codec"
	"github.com/redisearch-rs/searchcore/pkg/invindex"
	"github.com/redisearch-rs/searchcore/pkg/invindex/invindextest"
	"github.com/redisearch-rs/searchcore/pkg/ixconfig"
	"github.com/redisearch-rs/searchcore/pkg/record"
)

func TestScanApplyGCRemovesDeletedDocs(t *testing.T) {
	ix := invindextest.NewFullIndex()
	invindextest.PopulateSequential(t, ix, 100)

	removed := map[record.DocID]bool{10: true, 50: true, 90: true}
	docExists := func(d record.DocID) bool { return !removed[d] }

	delta, err := ix.ScanGC(docExists, nil)
	require.NoError(t, err)
	require.NotNil(t, delta)

	info := ix.ApplyGC(delta)
	assert.Equal(t, uint64(3), info.EntriesRemoved)
	assert.Equal(t, uint64(97), ix.UniqueDocs())

	r := ix.Reader()
	for {
		rec, ok, err := r.NextRecord()
		require.NoError(t, err)
		if !ok {
			break
		}
		assert.False(t, removed[rec.DocID], "doc %d should have been removed", rec.DocID)
	}
}

func TestScanGCNoOpWhenNothingRemoved(t *testing.T) {
	ix := invindextest.NewFullIndex()
	invindextest.PopulateSequential(t, ix, 20)

	delta, err := ix.ScanGC(func(record.DocID) bool { return true }, nil)
	require.NoError(t, err)
	assert.Nil(t, delta)
}

func TestScanApplyGCRepairsSecondBlockWithCorrectBase(t *testing.T) {
	// Numeric uses BasePrevBlockLast and RecommendedBlockEntries=100, so
	// 250 sequential docs span at least three blocks; removing a doc from
	// the second block exercises Repair's base threading across a block
	// boundary other than the index's first.
	ix := invindex.New(codec.Numeric{}, ixconfig.Flags(0))
	for i := 1; i <= 250; i++ {
		_, err := ix.AddRecord(record.Numeric(record.DocID(i), float64(i), 1.0))
		require.NoError(t, err)
	}

	const removedDoc = record.DocID(150)
	docExists := func(d record.DocID) bool { return d != removedDoc }

	delta, err := ix.ScanGC(docExists, nil)
	require.NoError(t, err)
	require.NotNil(t, delta)

	info := ix.ApplyGC(delta)
	assert.Equal(t, uint64(1), info.EntriesRemoved)
	assert.Equal(t, uint64(249), ix.UniqueDocs())

	r := ix.Reader()
	var want record.DocID = 1
	for {
		rec, ok, err := r.NextRecord()
		require.NoError(t, err)
		if !ok {
			break
		}
		if want == removedDoc {
			want++
		}
		assert.Equal(t, want, rec.DocID)
		want++
	}
	assert.Equal(t, record.DocID(251), want)
}

func TestParallelScanGCAcrossIndexes(t *testing.T) {
	a := invindextest.NewFullIndex()
	invindextest.PopulateSequential(t, a, 50)
	b := invindextest.NewFullIndex()
	invindextest.PopulateSequential(t, b, 50)

	targets := []invindex.ScanTarget{
		{Index: a, DocExists: func(d record.DocID) bool { return d != 5 }},
		{Index: b, DocExists: func(record.DocID) bool { return true }},
	}
	results, err := invindex.ParallelScanGC(context.Background(), targets)
	require.NoError(t, err)
	require.Len(t, results, 2)

	infos := invindex.ApplyAll(results)
	require.Len(t, infos, 1) // only a had a delta to apply
	assert.Equal(t, uint64(1), infos[0].EntriesRemoved)
	assert.Equal(t, uint64(49), a.UniqueDocs())
	assert.Equal(t, uint64(50), b.UniqueDocs())
}
